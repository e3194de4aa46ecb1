package interfaces

import "time"

// JobStatus is an in-memory snapshot of the scheduled screener job, reset on restart
type JobStatus struct {
	Schedule     string     `json:"schedule"`
	Started      bool       `json:"started"`
	Running      bool       `json:"running"`
	Runs         int        `json:"runs"`
	Failures     int        `json:"failures"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastDuration string     `json:"last_duration,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
	NextRun      *time.Time `json:"next_run,omitempty"`
}

// SchedulerService manages cron-based scheduling of the screener run
type SchedulerService interface {
	// Start registers the job and starts the cron loop
	Start() error

	// Stop halts the loop and waits for an in-flight run
	Stop() error

	// TriggerNow runs the job synchronously outside the schedule
	TriggerNow() error

	// TriggerAsync runs the job in the background
	TriggerAsync()

	// IsRunning returns true if the cron loop is active
	IsRunning() bool

	// GetJobStatus returns the current job status
	GetJobStatus() JobStatus
}
