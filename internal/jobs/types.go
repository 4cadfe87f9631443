package jobs

import (
	"context"
	"time"

	"github.com/satriahrh/lingua/domain/entities"
)

// Data is the scratch space shared by the steps of one job
type Data map[string]any

// String returns the value under key when it is a string
func (d Data) String(key string) string {
	s, _ := d[key].(string)
	return s
}

// Step is a single unit of work in a job. Compensate, when set, undoes Run
// after a later step fails.
type Step struct {
	Name       string
	Run        func(ctx context.Context, data Data) error
	Compensate func(ctx context.Context, data Data) error
}

// Definition describes how to execute a kind of job
type Definition struct {
	Kind    string
	Steps   []Step
	Timeout time.Duration
	// ResultKey names the Data entry copied to Job.Result on success.
	ResultKey string
}

// Job is a snapshot of a submitted job
type Job struct {
	ID          string             `json:"id"`
	Kind        string             `json:"kind"`
	Status      entities.JobStatus `json:"status"`
	Labels      map[string]string  `json:"labels,omitempty"`
	Result      string             `json:"result,omitempty"`
	Error       string             `json:"error,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
	StartedAt   *time.Time         `json:"started_at,omitempty"`
	CompletedAt *time.Time         `json:"completed_at,omitempty"`
}

// Event represents a change in a job's lifecycle
type Event struct {
	Type      string    `json:"type"`
	StepName  string    `json:"step,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Job       Job       `json:"job"`
}

// Event types
const (
	EventJobQueued       = "job_queued"
	EventJobStarted      = "job_started"
	EventJobSucceeded    = "job_succeeded"
	EventJobFailed       = "job_failed"
	EventStepCompleted   = "step_completed"
	EventStepFailed      = "step_failed"
	EventStepCompensated = "step_compensated"
)
