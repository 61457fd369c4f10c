package core

import "context"

// Task is one pending download read from the queue file.
type Task struct {
	URL         string
	Destination string
}

// Result is the outcome of fetching a single Task.
type Result struct {
	Task
	Success bool
	// Bytes is the declared size on success, otherwise whatever was written
	// before the failure.
	Bytes int64
	Err   error
}

// Fetcher downloads a task to its destination. Failures are reported in the
// Result and never returned as errors.
type Fetcher interface {
	Fetch(ctx context.Context, task Task) Result
}
