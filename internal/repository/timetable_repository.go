package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const publishedTimetableColumns = `id, department, year, division, timetable_data, saved_by, created_at, updated_at`

const publishedTimetableSchema = `
CREATE TABLE IF NOT EXISTS published_timetables (
	id UUID PRIMARY KEY,
	department TEXT NOT NULL DEFAULT '',
	year TEXT NOT NULL,
	division TEXT NOT NULL,
	timetable_data JSONB NOT NULL DEFAULT '{}'::jsonb,
	saved_by TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (department, year, division)
)`

// TimetableRepository persists published class timetables.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

func (r *TimetableRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

// EnsureSchema creates the published_timetables table when missing.
func (r *TimetableRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, publishedTimetableSchema); err != nil {
		return fmt.Errorf("ensure published timetable schema: %w", err)
	}
	return nil
}

// Upsert stores the timetable, replacing any earlier version published for
// the same department, year and division. The stored id and creation time are
// written back to tt.
func (r *TimetableRepository) Upsert(ctx context.Context, exec sqlx.ExtContext, tt *models.PublishedTimetable) error {
	if tt == nil {
		return fmt.Errorf("timetable payload is nil")
	}
	if tt.Year == "" || tt.Division == "" {
		return fmt.Errorf("year and division are required")
	}
	if tt.ID == "" {
		tt.ID = uuid.NewString()
	}
	if len(tt.TimetableData) == 0 {
		tt.TimetableData = types.JSONText(`{}`)
	}
	now := time.Now().UTC()
	if tt.CreatedAt.IsZero() {
		tt.CreatedAt = now
	}
	tt.UpdatedAt = now

	const query = `
INSERT INTO published_timetables (id, department, year, division, timetable_data, saved_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (department, year, division) DO UPDATE
SET timetable_data = EXCLUDED.timetable_data, saved_by = EXCLUDED.saved_by, updated_at = EXCLUDED.updated_at
RETURNING id, created_at`
	var stored struct {
		ID        string    `db:"id"`
		CreatedAt time.Time `db:"created_at"`
	}
	if err := sqlx.GetContext(ctx, r.exec(exec), &stored, query,
		tt.ID, tt.Department, tt.Year, tt.Division, tt.TimetableData, tt.SavedBy, tt.CreatedAt, tt.UpdatedAt,
	); err != nil {
		return fmt.Errorf("upsert published timetable: %w", err)
	}
	tt.ID = stored.ID
	tt.CreatedAt = stored.CreatedAt
	return nil
}

// List returns a page of published timetables ordered by year and division.
func (r *TimetableRepository) List(ctx context.Context, filter models.TimetableFilter) ([]models.PublishedTimetable, int, error) {
	baseQuery := `FROM published_timetables WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Year != "" {
		conditions = append(conditions, fmt.Sprintf("year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}
	if filter.Division != "" {
		conditions = append(conditions, fmt.Sprintf("division = $%d", len(args)+1))
		args = append(args, filter.Division)
	}
	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY department ASC, year ASC, division ASC LIMIT %d OFFSET %d", publishedTimetableColumns, baseQuery, pageSize, offset)
	var items []models.PublishedTimetable
	if err := r.db.SelectContext(ctx, &items, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list published timetables: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count published timetables: %w", err)
	}
	return items, total, nil
}

// ListAll loads every published timetable. Generation and teacher views need
// the whole set because teachers and rooms are shared across departments.
func (r *TimetableRepository) ListAll(ctx context.Context) ([]models.PublishedTimetable, error) {
	query := fmt.Sprintf("SELECT %s FROM published_timetables ORDER BY department ASC, year ASC, division ASC", publishedTimetableColumns)
	var items []models.PublishedTimetable
	if err := r.db.SelectContext(ctx, &items, query); err != nil {
		return nil, fmt.Errorf("list all published timetables: %w", err)
	}
	return items, nil
}

// FindByID loads a published timetable by its identifier.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.PublishedTimetable, error) {
	query := fmt.Sprintf("SELECT %s FROM published_timetables WHERE id = $1", publishedTimetableColumns)
	var tt models.PublishedTimetable
	if err := r.db.GetContext(ctx, &tt, query, id); err != nil {
		return nil, err
	}
	return &tt, nil
}

// Delete removes a published timetable.
func (r *TimetableRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM published_timetables WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete published timetable: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("published timetable rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Ping reports whether the database answers.
func (r *TimetableRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
