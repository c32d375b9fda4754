package domain

import "time"

// ScheduledTask represents a recurring background task.
type ScheduledTask struct {
	// ID is the unique identifier for the task.
	ID string

	// Interval defines how often the task should run.
	Interval time.Duration

	// RequiresOnline skips the task while the client is offline.
	RequiresOnline bool

	// LastRun is when the task last ran.
	LastRun time.Time

	// LastError contains the last error message, if any.
	LastError string

	// LastSuccess is when the task last completed successfully.
	LastSuccess time.Time
}

// TaskResult represents the outcome of a task execution.
type TaskResult struct {
	TaskID    string
	StartedAt time.Time
	EndedAt   time.Time
	Success   bool
	Error     string
}

// Task IDs for built-in tasks.
const (
	TaskIDPollProducts   = "poll-products"
	TaskIDPollSuppliers  = "poll-suppliers"
	TaskIDPollCategories = "poll-categories"
	TaskIDServerStatus   = "server-status"
	TaskIDProbe          = "connectivity-probe"
)

// PollTaskID returns the task id of the watermark poller for c.
func PollTaskID(c Collection) string {
	return "poll-" + string(c)
}
