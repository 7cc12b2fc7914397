package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type timetableGenerator interface {
	Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*scheduler.Result, error)
}

type generationJobs interface {
	Submit(ctx context.Context, req dto.GenerateTimetableRequest, submittedBy string) (*models.GenerationJob, error)
	Get(ctx context.Context, id string) (*models.GenerationJob, error)
}

// generateError is the body returned by the generate endpoint on failure.
type generateError struct {
	Error string `json:"error"`
}

// TimetableHandler exposes timetable generation.
type TimetableHandler struct {
	generator timetableGenerator
	jobs      generationJobs
}

// NewTimetableHandler constructs the handler. jobs may be nil when the async
// queue is not running.
func NewTimetableHandler(generator *service.TimetableGeneratorService, jobs *service.TimetableJobService) *TimetableHandler {
	h := &TimetableHandler{generator: generator}
	if jobs != nil {
		h.jobs = jobs
	}
	return h
}

// Generate godoc
// @Summary Generate a timetable
// @Description Runs the scheduler synchronously and returns the raw result. Unplaced hours yield status=partial; invalid configuration yields status=error with critical_issues.
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation payload"
// @Success 200 {object} scheduler.Result
// @Failure 400 {object} generateError
// @Failure 500 {object} generateError
// @Router /generate [post]
func (h *TimetableHandler) Generate(c *gin.Context) {
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Raw(c, http.StatusBadRequest, generateError{Error: "invalid JSON payload: " + err.Error()})
		return
	}
	result, err := h.generator.Generate(c.Request.Context(), req)
	if err != nil {
		appErr := appErrors.FromError(err)
		message := appErr.Message
		if appErr.Status < http.StatusInternalServerError {
			message = appErr.Error()
		}
		response.Raw(c, appErr.Status, generateError{Error: message})
		return
	}
	response.Raw(c, http.StatusOK, result)
}

// SubmitJob godoc
// @Summary Queue a timetable generation
// @Tags Timetables
// @Accept json
// @Produce json
// @Param payload body dto.GenerateTimetableRequest true "Generation payload"
// @Success 202 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /timetables/jobs [post]
func (h *TimetableHandler) SubmitJob(c *gin.Context) {
	if h.jobs == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "generation queue disabled"))
		return
	}
	var req dto.GenerateTimetableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid generation payload"))
		return
	}
	submittedBy := ""
	if claims, ok := middleware.CurrentClaims(c); ok {
		submittedBy = claims.UserID
	}
	job, err := h.jobs.Submit(c.Request.Context(), req, submittedBy)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Location", c.FullPath()+"/"+job.ID)
	response.Accepted(c, dto.JobAccepted{JobID: job.ID, Status: string(job.Status)})
}

// GetJob godoc
// @Summary Poll a queued generation
// @Tags Timetables
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /timetables/jobs/{id} [get]
func (h *TimetableHandler) GetJob(c *gin.Context) {
	if h.jobs == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrUnavailable, "generation queue disabled"))
		return
	}
	job, err := h.jobs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}
