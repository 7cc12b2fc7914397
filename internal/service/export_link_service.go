package service

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/storage"
)

type timetableExporter interface {
	Export(ctx context.Context, id, format string) (*ExportFile, error)
}

type exportStore interface {
	Save(relPath string, data []byte) (string, error)
	Read(relPath string) ([]byte, error)
	Prune(ttl time.Duration, now time.Time) ([]string, error)
}

// ExportLink is a signed, expiring download reference for a rendered timetable.
type ExportLink struct {
	Token     string    `json:"token"`
	Filename  string    `json:"filename"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ExportLinkService renders a published timetable once, keeps the file on
// disk and hands out signed tokens to fetch it later.
type ExportLinkService struct {
	exporter timetableExporter
	store    exportStore
	signer   *storage.Signer
	logger   *zap.Logger
}

// NewExportLinkService constructs the service.
func NewExportLinkService(exporter timetableExporter, store exportStore, signer *storage.Signer, logger *zap.Logger) *ExportLinkService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportLinkService{exporter: exporter, store: store, signer: signer, logger: logger}
}

// Create renders timetable id in format and returns a download token.
// Files older than the token lifetime are pruned first.
func (s *ExportLinkService) Create(ctx context.Context, id, format string) (*ExportLink, error) {
	if removed, err := s.store.Prune(s.signer.TTL(), time.Now()); err != nil {
		s.logger.Warn("export prune failed", zap.Error(err))
	} else if len(removed) > 0 {
		s.logger.Debug("pruned expired exports", zap.Int("count", len(removed)))
	}

	file, err := s.exporter.Export(ctx, id, format)
	if err != nil {
		return nil, err
	}
	rel, err := s.store.Save(path.Join(id, file.Filename), file.Data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	token, expiresAt, err := s.signer.Sign(id, rel)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign export link")
	}
	s.logger.Info("export link issued", zap.String("timetable_id", id), zap.String("file", rel), zap.Time("expires_at", expiresAt))
	return &ExportLink{Token: token, Filename: file.Filename, ExpiresAt: expiresAt}, nil
}

// Open resolves a token back to the stored file.
func (s *ExportLinkService) Open(ctx context.Context, token string) (*ExportFile, error) {
	_, rel, err := s.signer.Verify(token)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid export link")
	}
	data, err := s.store.Read(rel)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export file no longer available")
	}
	filename := path.Base(rel)
	return &ExportFile{Filename: filename, ContentType: exportContentType(filename), Data: data}, nil
}

func exportContentType(filename string) string {
	if strings.HasSuffix(filename, "."+ExportFormatPDF) {
		return "application/pdf"
	}
	return "text/csv"
}
