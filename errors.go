package busan

import (
	"errors"
	"fmt"
)

var (
	// ErrConcurrentNext is returned by Next when another Next on the same
	// stream is still waiting for a result.
	ErrConcurrentNext = errors.New("busan: concurrent Next on the same stream")

	// ErrNilJob is the terminal stream error when Run is given a nil job
	// function.
	ErrNilJob = errors.New("busan: nil job function")
)

// JobError is the terminal stream error produced by a failed job.
type JobError struct {
	// Index identifies the input whose job failed.
	Index int
	// Err is the error the job returned (or its recovered panic).
	Err error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("busan: job %d failed: %v", e.Index, e.Err)
}

func (e *JobError) Unwrap() error { return e.Err }

// StuckSchedulerError is the terminal stream error reporting that pending
// inputs remain but none can ever start: nothing is running, so the running
// set can no longer change, and the admission predicate rejected every
// remaining candidate.
type StuckSchedulerError struct {
	// Indices lists the pending inputs that were never admitted, in input
	// order.
	Indices []int
}

func (e *StuckSchedulerError) Error() string {
	return fmt.Sprintf("busan: scheduler stuck: nothing running and indices %v were not admitted", e.Indices)
}
