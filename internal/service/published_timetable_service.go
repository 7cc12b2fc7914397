package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/export"
)

// Export formats for published timetables.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type publishedTimetableRepository interface {
	Upsert(ctx context.Context, exec sqlx.ExtContext, tt *models.PublishedTimetable) error
	List(ctx context.Context, filter models.TimetableFilter) ([]models.PublishedTimetable, int, error)
	ListAll(ctx context.Context) ([]models.PublishedTimetable, error)
	FindByID(ctx context.Context, id string) (*models.PublishedTimetable, error)
	Delete(ctx context.Context, id string) error
}

type sheetRenderer interface {
	Render(sheet export.Sheet) ([]byte, error)
}

// ExportFile is a rendered timetable ready for download.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// PublishedTimetableService manages timetables saved after generation.
type PublishedTimetableService struct {
	repo      publishedTimetableRepository
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	csv       sheetRenderer
	pdf       sheetRenderer
}

// NewPublishedTimetableService constructs the service.
func NewPublishedTimetableService(repo publishedTimetableRepository, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *PublishedTimetableService {
	if validate == nil {
		validate = dto.NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublishedTimetableService{
		repo:      repo,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
	}
}

// Publish stores a class timetable, replacing the previous one for the same
// department, year and division.
func (s *PublishedTimetableService) Publish(ctx context.Context, req dto.PublishTimetableRequest) (*models.PublishedTimetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid publish payload")
	}
	raw, err := json.Marshal(req.TimetableData)
	if err != nil {
		return nil, appErrors.Validation(err, "timetable data is not serialisable")
	}

	tt := &models.PublishedTimetable{
		Department:    strings.TrimSpace(req.Department),
		Year:          strings.TrimSpace(req.Year),
		Division:      strings.TrimSpace(req.Division),
		TimetableData: types.JSONText(raw),
		SavedBy:       req.SavedBy,
	}
	start := time.Now()
	err = s.repo.Upsert(ctx, nil, tt)
	s.metrics.ObserveDBQuery("published_timetable_upsert", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish timetable")
	}

	s.cache.InvalidateGenerations(ctx)
	s.logger.Info("timetable published",
		zap.String("id", tt.ID),
		zap.String("department", tt.Department),
		zap.String("year", tt.Year),
		zap.String("division", tt.Division),
		zap.String("saved_by", tt.SavedBy),
	)
	return tt, nil
}

// List returns a page of published timetables.
func (s *PublishedTimetableService) List(ctx context.Context, query dto.TimetableQuery) ([]models.PublishedTimetable, *models.Pagination, error) {
	filter := models.TimetableFilter{
		Department: query.Department,
		Year:       query.Year,
		Division:   query.Division,
		Page:       query.Page,
		PageSize:   query.PageSize,
	}
	start := time.Now()
	items, total, err := s.repo.List(ctx, filter)
	s.metrics.ObserveDBQuery("published_timetable_list", time.Since(start))
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	if items == nil {
		items = []models.PublishedTimetable{}
	}
	return items, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get loads one published timetable.
func (s *PublishedTimetableService) Get(ctx context.Context, id string) (*models.PublishedTimetable, error) {
	start := time.Now()
	tt, err := s.repo.FindByID(ctx, id)
	s.metrics.ObserveDBQuery("published_timetable_get", time.Since(start))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return tt, nil
}

// Delete removes a published timetable.
func (s *PublishedTimetableService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	s.cache.InvalidateGenerations(ctx)
	s.logger.Info("timetable deleted", zap.String("id", id))
	return nil
}

// Export renders a published timetable as CSV or PDF.
func (s *PublishedTimetableService) Export(ctx context.Context, id, format string) (*ExportFile, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	var (
		renderer    sheetRenderer
		contentType string
	)
	switch format {
	case ExportFormatCSV:
		renderer, contentType = s.csv, "text/csv"
	case ExportFormatPDF:
		renderer, contentType = s.pdf, "application/pdf"
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	tt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	grid, err := tt.Grid()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "stored timetable is unreadable")
	}
	data, err := renderer.Render(classSheet(tt, grid))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render timetable")
	}
	return &ExportFile{
		Filename:    exportFilename(tt, format),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// TeacherTimetable assembles a teacher's week from every published class
// timetable. Cells holding more than one session are reported as clashes.
func (s *PublishedTimetableService) TeacherTimetable(ctx context.Context, teacher string) (*models.TeacherTimetable, error) {
	teacher = strings.TrimSpace(teacher)
	if teacher == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "teacher name is required")
	}
	start := time.Now()
	records, err := s.repo.ListAll(ctx)
	s.metrics.ObserveDBQuery("published_timetable_list_all", time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetables")
	}

	view := &models.TeacherTimetable{
		Teacher:  teacher,
		Sessions: make(map[string]map[string][]models.TeacherSession),
		Clashes:  []string{},
	}
	for _, record := range records {
		grid, err := record.Grid()
		if err != nil {
			s.logger.Warn("skipping unreadable published timetable", zap.String("id", record.ID), zap.Error(err))
			continue
		}
		for day, slots := range grid {
			for slot, entries := range slots {
				for _, a := range entries {
					if a.Teacher != teacher {
						continue
					}
					if view.Sessions[day] == nil {
						view.Sessions[day] = make(map[string][]models.TeacherSession)
					}
					view.Sessions[day][slot] = append(view.Sessions[day][slot], models.TeacherSession{
						Department: record.Department,
						Year:       record.Year,
						Division:   record.Division,
						Subject:    a.Subject,
						Room:       a.Room,
						Type:       a.Type,
						Batch:      a.Batch,
					})
				}
			}
		}
	}
	if len(view.Sessions) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no published sessions for %s", teacher))
	}

	for _, day := range orderedDays(view.Sessions) {
		for _, slot := range orderedSlots(view.Sessions[day]) {
			sessions := view.Sessions[day][slot]
			view.Hours++
			if len(sessions) > 1 {
				view.Clashes = append(view.Clashes, fmt.Sprintf("%s %s: %d sessions booked", day, slot, len(sessions)))
			}
		}
	}
	return view, nil
}
