package staticgen

import (
	"context"
	"time"
)

// RunStatus is the caller-visible completion status of a run.
type RunStatus string

const (
	// RunClean means every page and publish operation succeeded.
	RunClean RunStatus = "clean"

	// RunPartial means the run completed but some pages or publish
	// operations failed; re-running will retry them.
	RunPartial RunStatus = "partial"

	// RunAborted means a fatal error stopped the run before completion.
	RunAborted RunStatus = "aborted"
)

// Failure records one non-fatal error for the run report.
type Failure struct {
	// Path is the output path or URL the failure applies to.
	Path string `json:"path"`

	// Target names the publish target for publish failures.
	Target string `json:"target,omitempty"`

	Code    string `json:"code"`
	Message string `json:"message"`
}

// Report summarizes one generate or publish invocation.
type Report struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"` // "generate" or "publish"
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Status     RunStatus `json:"status"`

	Expanded  int `json:"expanded"`
	Rendered  int `json:"rendered"`
	Written   int `json:"written"`
	Unchanged int `json:"unchanged"`
	Skipped   int `json:"skipped"`
	Pruned    int `json:"pruned"`
	Published int `json:"published"`
	Deleted   int `json:"deleted"`

	Warnings []string  `json:"warnings,omitempty"`
	Failures []Failure `json:"failures,omitempty"`
}

// Record appends a non-fatal failure.
func (r *Report) Record(f Failure) {
	r.Failures = append(r.Failures, f)
}

// Warn appends a warning.
func (r *Report) Warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// Finish stamps the end time and derives the status from the recorded
// failures. Aborted status, once set, is preserved.
func (r *Report) Finish() {
	r.FinishedAt = time.Now().UTC()
	if r.Status == RunAborted {
		return
	}
	if len(r.Failures) > 0 {
		r.Status = RunPartial
	} else {
		r.Status = RunClean
	}
}

// Ok reports whether the run is fully clean. Automation (e.g. CI) uses this
// to distinguish "succeeded fully" from "has unresolved errors".
func (r *Report) Ok() bool {
	return r.Status == RunClean
}

// RunFilter selects runs from the history store.
type RunFilter struct {
	Kind  *string
	Limit int
}

// RunService persists run reports across invocations.
type RunService interface {
	// CreateRun stores a finished run report.
	CreateRun(ctx context.Context, report *Report) error

	// FindRuns returns stored reports matching the filter, newest first.
	FindRuns(ctx context.Context, filter RunFilter) ([]*Report, error)
}
