package convert

import "fmt"

// SubmissionError indicates the conversion service rejected or never
// received the job submission.
type SubmissionError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *SubmissionError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("conversion submission rejected (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("conversion submission failed: %s", e.Message)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// JobFailedError indicates the service reported a terminal failure for
// the job. Reason carries the classified failure detail.
type JobFailedError struct {
	TaskId string
	Reason string
}

func (e *JobFailedError) Error() string {
	return fmt.Sprintf("conversion task %s failed: %s", e.TaskId, e.Reason)
}

// TimeoutError indicates the poll-attempt ceiling was reached without a
// terminal status.
type TimeoutError struct {
	TaskId   string
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("conversion task %s timed out after %d poll attempts", e.TaskId, e.Attempts)
}
