package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type publishedRepoFake struct {
	items    map[string]models.PublishedTimetable
	upserted []models.PublishedTimetable
	filter   models.TimetableFilter
	err      error
}

func newPublishedRepoFake(items ...models.PublishedTimetable) *publishedRepoFake {
	repo := &publishedRepoFake{items: make(map[string]models.PublishedTimetable)}
	for _, item := range items {
		repo.items[item.ID] = item
	}
	return repo
}

func (r *publishedRepoFake) Upsert(ctx context.Context, exec sqlx.ExtContext, tt *models.PublishedTimetable) error {
	if r.err != nil {
		return r.err
	}
	tt.ID = "tt-new"
	tt.CreatedAt = time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	tt.UpdatedAt = tt.CreatedAt
	r.upserted = append(r.upserted, *tt)
	r.items[tt.ID] = *tt
	return nil
}

func (r *publishedRepoFake) List(ctx context.Context, filter models.TimetableFilter) ([]models.PublishedTimetable, int, error) {
	r.filter = filter
	if r.err != nil {
		return nil, 0, r.err
	}
	out := make([]models.PublishedTimetable, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	return out, len(out), nil
}

func (r *publishedRepoFake) ListAll(ctx context.Context) ([]models.PublishedTimetable, error) {
	if r.err != nil {
		return nil, r.err
	}
	out := make([]models.PublishedTimetable, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, item)
	}
	return out, nil
}

func (r *publishedRepoFake) FindByID(ctx context.Context, id string) (*models.PublishedTimetable, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &item, nil
}

func (r *publishedRepoFake) Delete(ctx context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.items, id)
	return nil
}

func gridRecord(t *testing.T, id, year, division string, grid models.ClassGrid) models.PublishedTimetable {
	t.Helper()
	raw, err := json.Marshal(grid)
	require.NoError(t, err)
	return models.PublishedTimetable{
		ID:            id,
		Department:    "Science",
		Year:          year,
		Division:      division,
		TimetableData: types.JSONText(raw),
	}
}

func TestPublishedTimetableServicePublishInvalidatesGenerations(t *testing.T) {
	repo := newPublishedRepoFake()
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	require.NoError(t, cacheRepo.Set(context.Background(), "generate:abc", map[string]string{"status": "success"}, time.Minute))
	require.NoError(t, cacheRepo.Set(context.Background(), "other:abc", "keep", time.Minute))

	svc := NewPublishedTimetableService(repo, cache, NewMetricsService(), nil, nil)
	tt, err := svc.Publish(context.Background(), dto.PublishTimetableRequest{
		Department: " Science ",
		Year:       "FY",
		Division:   "1",
		TimetableData: map[string]map[string][]scheduler.Assignment{
			"Mon": {"1": {{Subject: "MATH", Teacher: "Ann", Room: "C-1", Type: scheduler.SessionTheory}}},
		},
		SavedBy: "admin-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "tt-new", tt.ID)
	assert.Equal(t, "Science", tt.Department)
	assert.Equal(t, "admin-1", tt.SavedBy)
	require.Len(t, repo.upserted, 1)
	assert.Contains(t, string(repo.upserted[0].TimetableData), `"MATH"`)
	assert.Equal(t, 1, cacheRepo.len())
}

func TestPublishedTimetableServicePublishValidation(t *testing.T) {
	svc := NewPublishedTimetableService(newPublishedRepoFake(), nil, nil, nil, nil)

	_, err := svc.Publish(context.Background(), dto.PublishTimetableRequest{Year: "FY"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPublishedTimetableServiceListDefaults(t *testing.T) {
	repo := newPublishedRepoFake()
	svc := NewPublishedTimetableService(repo, nil, nil, nil, nil)

	items, pagination, err := svc.List(context.Background(), dto.TimetableQuery{Department: "Science", PageSize: 500})
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, "Science", repo.filter.Department)
}

func TestPublishedTimetableServiceNotFound(t *testing.T) {
	svc := NewPublishedTimetableService(newPublishedRepoFake(), nil, nil, nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	err = svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPublishedTimetableServiceExport(t *testing.T) {
	record := gridRecord(t, "tt-1", "FY", "1", models.ClassGrid{
		"Tue": {"2": {{Subject: "PHY", Teacher: "Bob", Room: "L-1", Type: scheduler.SessionLab, Batch: 1, LabPart: "1/2"}}},
		"Mon": {"10": {{Subject: "MATH", Teacher: "Ann", Room: "C-1"}}, "1": {{Subject: "CHEM", Teacher: "Cal", Room: "C-1"}}},
	})
	svc := NewPublishedTimetableService(newPublishedRepoFake(record), nil, nil, nil, nil)

	file, err := svc.Export(context.Background(), "tt-1", "")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.Equal(t, "timetable_science_fy_div1.csv", file.Filename)

	lines := strings.Split(strings.TrimSpace(string(file.Data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Day,1,2,10", lines[0])
	assert.Equal(t, "Mon,CHEM (Cal) @C-1,,MATH (Ann) @C-1", lines[1])
	assert.Equal(t, "Tue,,PHY B1 (Bob) @L-1 [1/2],", lines[2])

	pdf, err := svc.Export(context.Background(), "tt-1", "PDF")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdf.ContentType)
	assert.True(t, strings.HasPrefix(string(pdf.Data), "%PDF"))

	_, err = svc.Export(context.Background(), "tt-1", "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPublishedTimetableServiceTeacherTimetable(t *testing.T) {
	fy := gridRecord(t, "tt-1", "FY", "1", models.ClassGrid{
		"Mon": {"1": {{Subject: "MATH", Teacher: "Ann", Room: "C-1"}}, "2": {{Subject: "MATH", Teacher: "Ann", Room: "C-1"}}},
	})
	sy := gridRecord(t, "tt-2", "SY", "1", models.ClassGrid{
		"Mon": {"1": {{Subject: "STAT", Teacher: "Ann", Room: "C-2"}}},
		"Wed": {"3": {{Subject: "BIO", Teacher: "Dee", Room: "C-2"}}},
	})
	broken := models.PublishedTimetable{ID: "tt-3", TimetableData: types.JSONText(`[1]`)}
	svc := NewPublishedTimetableService(newPublishedRepoFake(fy, sy, broken), nil, nil, nil, nil)

	view, err := svc.TeacherTimetable(context.Background(), " Ann ")
	require.NoError(t, err)
	assert.Equal(t, "Ann", view.Teacher)
	assert.Equal(t, 2, view.Hours)
	assert.Len(t, view.Sessions["Mon"]["1"], 2)
	assert.Equal(t, []string{"Mon 1: 2 sessions booked"}, view.Clashes)

	_, err = svc.TeacherTimetable(context.Background(), "Zed")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.TeacherTimetable(context.Background(), "  ")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
