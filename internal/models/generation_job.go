package models

import (
	"time"

	"github.com/noah-isme/sma-timetable-api/internal/scheduler"
)

// GenerationJobStatus captures the lifecycle of an asynchronous generation.
type GenerationJobStatus string

const (
	GenerationJobQueued    GenerationJobStatus = "queued"
	GenerationJobRunning   GenerationJobStatus = "running"
	GenerationJobCompleted GenerationJobStatus = "completed"
	GenerationJobFailed    GenerationJobStatus = "failed"
)

// GenerationJob tracks one queued timetable run.
type GenerationJob struct {
	ID         string              `json:"id"`
	Status     GenerationJobStatus `json:"status"`
	Department string              `json:"department,omitempty"`
	CreatedBy  string              `json:"created_by,omitempty"`
	RequestID  string              `json:"request_id,omitempty"`
	Result     *scheduler.Result   `json:"result,omitempty"`
	Error      string              `json:"error,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
	StartedAt  *time.Time          `json:"started_at,omitempty"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
}

// Terminal reports whether the job will not change any more.
func (j GenerationJob) Terminal() bool {
	return j.Status == GenerationJobCompleted || j.Status == GenerationJobFailed
}
