package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type publishedTimetables interface {
	Publish(ctx context.Context, req dto.PublishTimetableRequest) (*models.PublishedTimetable, error)
	List(ctx context.Context, query dto.TimetableQuery) ([]models.PublishedTimetable, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.PublishedTimetable, error)
	Delete(ctx context.Context, id string) error
	Export(ctx context.Context, id, format string) (*service.ExportFile, error)
	TeacherTimetable(ctx context.Context, teacher string) (*models.TeacherTimetable, error)
}

type exportLinks interface {
	Create(ctx context.Context, id, format string) (*service.ExportLink, error)
	Open(ctx context.Context, token string) (*service.ExportFile, error)
}

// PublishedTimetableHandler manages timetables saved after generation.
type PublishedTimetableHandler struct {
	service publishedTimetables
	links   exportLinks
}

// NewPublishedTimetableHandler constructs the handler. links may be nil when
// export storage is not configured.
func NewPublishedTimetableHandler(svc *service.PublishedTimetableService, links *service.ExportLinkService) *PublishedTimetableHandler {
	h := &PublishedTimetableHandler{service: svc}
	if links != nil {
		h.links = links
	}
	return h
}

// Publish godoc
// @Summary Publish a class timetable
// @Description Replaces any timetable already published for the same department, year and division.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.PublishTimetableRequest true "Timetable"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /timetables [post]
func (h *PublishedTimetableHandler) Publish(c *gin.Context) {
	var req dto.PublishTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid publish payload"))
		return
	}
	if claims, ok := middleware.CurrentClaims(c); ok {
		req.SavedBy = claims.UserID
	}
	tt, err := h.service.Publish(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tt)
}

// List godoc
// @Summary List published timetables
// @Tags Timetables
// @Produce json
// @Param department query string false "Department"
// @Param year query string false "Year"
// @Param division query string false "Division"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /timetables [get]
func (h *PublishedTimetableHandler) List(c *gin.Context) {
	var query dto.TimetableQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query parameters"))
		return
	}
	items, pagination, err := h.service.List(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, pagination)
}

// Get godoc
// @Summary Get a published timetable
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/{id} [get]
func (h *PublishedTimetableHandler) Get(c *gin.Context) {
	tt, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tt, nil)
}

// Export godoc
// @Summary Download a published timetable
// @Tags Timetables
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Timetable ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /timetables/{id}/export [get]
func (h *PublishedTimetableHandler) Export(c *gin.Context) {
	file, err := h.service.Export(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.ContentType, file.Filename, file.Data)
}

// CreateExportLink godoc
// @Summary Issue a signed download link for a published timetable
// @Tags Timetables
// @Produce json
// @Param id path string true "Timetable ID"
// @Param format query string false "csv or pdf"
// @Success 201 {object} response.Envelope
// @Router /timetables/{id}/export-links [post]
func (h *PublishedTimetableHandler) CreateExportLink(c *gin.Context) {
	if h.links == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "export storage disabled"))
		return
	}
	link, err := h.links.Create(c.Request.Context(), c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}

// DownloadExport godoc
// @Summary Download a stored export by signed token
// @Tags Timetables
// @Produce text/csv
// @Produce application/pdf
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /timetables/exports/{token} [get]
func (h *PublishedTimetableHandler) DownloadExport(c *gin.Context) {
	if h.links == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "export storage disabled"))
		return
	}
	file, err := h.links.Open(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.ContentType, file.Filename, file.Data)
}

// TeacherTimetable godoc
// @Summary Teacher week derived from published timetables
// @Tags Timetables
// @Produce json
// @Param name path string true "Teacher name"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/teachers/{name} [get]
func (h *PublishedTimetableHandler) TeacherTimetable(c *gin.Context) {
	view, err := h.service.TeacherTimetable(c.Request.Context(), c.Param("name"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Delete godoc
// @Summary Delete a published timetable
// @Tags Timetables
// @Param id path string true "Timetable ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /timetables/{id} [delete]
func (h *PublishedTimetableHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
