package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/storage"
)

func TestExportLinkServiceCreateAndOpen(t *testing.T) {
	record := gridRecord(t, "tt-1", "FY", "1", models.ClassGrid{
		"Mon": {"1": {{Subject: "MATH", Teacher: "Ann", Room: "C-1", Type: scheduler.SessionTheory}}},
	})
	published := NewPublishedTimetableService(newPublishedRepoFake(record), nil, nil, nil, nil)
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	svc := NewExportLinkService(published, store, storage.NewSigner("secret", time.Hour), nil)

	link, err := svc.Create(context.Background(), "tt-1", "pdf")
	require.NoError(t, err)
	assert.Equal(t, "timetable_science_fy_div1.pdf", link.Filename)
	assert.True(t, link.ExpiresAt.After(time.Now()))

	file, err := svc.Open(context.Background(), link.Token)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.Equal(t, "timetable_science_fy_div1.pdf", file.Filename)
	assert.NotEmpty(t, file.Data)
}

func TestExportLinkServiceErrors(t *testing.T) {
	published := NewPublishedTimetableService(newPublishedRepoFake(), nil, nil, nil, nil)
	store, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewSigner("secret", time.Hour)
	svc := NewExportLinkService(published, store, signer, nil)

	_, err = svc.Create(context.Background(), "missing", "csv")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	_, err = svc.Open(context.Background(), "forged.token.value.sig")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	token, _, err := signer.Sign("tt-9", "tt-9/gone.csv")
	require.NoError(t, err)
	_, err = svc.Open(context.Background(), token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
