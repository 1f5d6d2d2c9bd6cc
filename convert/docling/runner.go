// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package docling

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/poiesic/doctalk/convert"
)

const (
	// DefaultPollInterval is the fixed delay before each status poll.
	DefaultPollInterval = 5 * time.Second
	// DefaultMaxAttempts bounds the poll loop (~5 minutes wall clock).
	DefaultMaxAttempts = 60
)

const (
	statusSuccess = "success"
	statusFailure = "failure"
)

// Clock abstracts time for the poll loop so tests run without waiting.
type Clock interface {
	Now() time.Time
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in
	// the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// JobRunner drives a submitted conversion job to a terminal outcome:
// extracted text, JobFailedError, or TimeoutError. Transient poll
// errors consume an attempt and the loop continues.
type JobRunner struct {
	client       *Client
	clock        Clock
	pollInterval time.Duration
	maxAttempts  int
	logger       *slog.Logger
}

var _ convert.Converter = (*JobRunner)(nil)

// RunnerOption configures a JobRunner.
type RunnerOption func(*JobRunner)

// WithClock replaces the wall clock.
func WithClock(clock Clock) RunnerOption {
	return func(r *JobRunner) {
		r.clock = clock
	}
}

// WithPollInterval sets the delay before each status poll.
func WithPollInterval(interval time.Duration) RunnerOption {
	return func(r *JobRunner) {
		r.pollInterval = interval
	}
}

// WithMaxAttempts sets the poll-attempt ceiling.
func WithMaxAttempts(maxAttempts int) RunnerOption {
	return func(r *JobRunner) {
		r.maxAttempts = maxAttempts
	}
}

// WithRunnerLogger sets the logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *JobRunner) {
		r.logger = logger
	}
}

// NewJobRunner creates a runner over the given client.
func NewJobRunner(client *Client, opts ...RunnerOption) *JobRunner {
	r := &JobRunner{
		client:       client,
		clock:        realClock{},
		pollInterval: DefaultPollInterval,
		maxAttempts:  DefaultMaxAttempts,
		logger:       slog.Default().With("component", "docling_runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Convert submits the file and polls until the job reaches a terminal
// state or the attempt ceiling. Each poll cycle, successful or not,
// consumes one attempt.
func (r *JobRunner) Convert(ctx context.Context, data []byte, filename string, onProgress convert.ProgressFunc) (string, error) {
	taskId, err := r.client.Submit(ctx, data, filename)
	if err != nil {
		return "", err
	}

	start := r.clock.Now()
	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		if err := r.clock.Sleep(ctx, r.pollInterval); err != nil {
			return "", err
		}

		status, err := r.client.Status(ctx, taskId)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			r.logger.Debug("Poll attempt failed", "task_id", taskId, "attempt", attempt, "error", err)
			r.reportProgress(onProgress, nil, attempt, start)
			continue
		}

		switch status.TaskStatus {
		case statusSuccess:
			result, err := r.client.Result(ctx, taskId)
			if err != nil {
				if ctx.Err() != nil {
					return "", ctx.Err()
				}
				r.logger.Debug("Result fetch failed", "task_id", taskId, "attempt", attempt, "error", err)
				r.reportProgress(onProgress, status, attempt, start)
				continue
			}
			if onProgress != nil {
				onProgress(convert.Progress{Processed: 1, Total: 1, Percentage: 100})
			}
			return extractContent(result), nil

		case statusFailure:
			return "", &convert.JobFailedError{
				TaskId: taskId,
				Reason: r.classifyFailure(ctx, taskId, status),
			}
		}

		r.reportProgress(onProgress, status, attempt, start)
	}

	return "", &convert.TimeoutError{TaskId: taskId, Attempts: r.maxAttempts}
}

// reportProgress emits the service's own conversion counters when the
// status carries them, falling back to the poll-attempt count.
func (r *JobRunner) reportProgress(onProgress convert.ProgressFunc, status *StatusResponse, attempt int, start time.Time) {
	if onProgress == nil {
		return
	}
	elapsed := r.clock.Now().Sub(start)
	if status != nil && status.TaskMeta != nil && status.TaskMeta.NumDocs > 0 {
		onProgress(convert.MeasureProgress(status.TaskMeta.NumProcessed, status.TaskMeta.NumDocs, elapsed))
		return
	}
	onProgress(convert.MeasureProgress(attempt, r.maxAttempts, elapsed))
}

// classifyFailure picks the most specific failure detail available.
// Priority: the result endpoint's structured error list, then the
// task-level error field, then the status error list, then the status
// message. Errors while classifying never mask the failure itself.
func (r *JobRunner) classifyFailure(ctx context.Context, taskId string, status *StatusResponse) string {
	result, err := r.client.Result(ctx, taskId)
	if err != nil {
		r.logger.Debug("Could not fetch result details for failed task", "task_id", taskId, "error", err)
	} else if len(result.Errors) > 0 {
		details := make([]string, 0, len(result.Errors))
		for _, resultErr := range result.Errors {
			details = append(details, resultErr.Type+": "+resultErr.Msg)
		}
		return strings.Join(details, ", ")
	}

	if status.TaskMeta != nil && status.TaskMeta.Error != "" {
		return status.TaskMeta.Error
	}
	if len(status.Errors) > 0 {
		return strings.Join(status.Errors, ", ")
	}
	if status.Message != "" {
		return status.Message
	}
	return "Unknown error"
}

// extractContent pulls the best available text representation from the
// result: markdown, then plain text, then HTML.
func extractContent(result *ResultResponse) string {
	doc := result.Document
	if doc == nil {
		return convert.NoContentSentinel
	}
	switch {
	case doc.MdContent != "":
		return doc.MdContent
	case doc.TextContent != "":
		return doc.TextContent
	case doc.HtmlContent != "":
		return doc.HtmlContent
	default:
		return convert.NoContentSentinel
	}
}
