package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/fwojciec/staticgen"
	"github.com/google/uuid"
)

// Compile-time interface verification.
var _ staticgen.RunService = (*RunService)(nil)

// RunService implements staticgen.RunService using SQLite.
type RunService struct {
	db *DB
}

// NewRunService creates a new RunService.
func NewRunService(db *DB) *RunService {
	return &RunService{db: db}
}

// CreateRun stores a finished run report.
func (s *RunService) CreateRun(ctx context.Context, report *staticgen.Report) error {
	if report.Kind == "" {
		return staticgen.Errorf(staticgen.EINVALID, "run kind required")
	}
	if report.ID == "" {
		report.ID = uuid.New().String()
	}

	warnings, err := json.Marshal(report.Warnings)
	if err != nil {
		return err
	}
	failures, err := json.Marshal(report.Failures)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, kind, started_at, finished_at, status,
			expanded, rendered, written, unchanged, skipped, pruned, published, deleted,
			warnings, failures)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, report.ID, report.Kind,
		report.StartedAt.Format(time.RFC3339), report.FinishedAt.Format(time.RFC3339),
		string(report.Status),
		report.Expanded, report.Rendered, report.Written, report.Unchanged,
		report.Skipped, report.Pruned, report.Published, report.Deleted,
		string(warnings), string(failures))

	return err
}

// FindRuns returns stored reports matching the filter, newest first.
func (s *RunService) FindRuns(ctx context.Context, filter staticgen.RunFilter) ([]*staticgen.Report, error) {
	var query strings.Builder
	var args []any

	query.WriteString(`SELECT id, kind, started_at, finished_at, status,
		expanded, rendered, written, unchanged, skipped, pruned, published, deleted,
		warnings, failures FROM runs WHERE 1=1`)

	if filter.Kind != nil {
		query.WriteString(" AND kind = ?")
		args = append(args, *filter.Kind)
	}

	query.WriteString(" ORDER BY started_at DESC")

	if filter.Limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*staticgen.Report
	for rows.Next() {
		var report staticgen.Report
		var startedAt, finishedAt, status, warnings, failures string

		if err := rows.Scan(&report.ID, &report.Kind, &startedAt, &finishedAt, &status,
			&report.Expanded, &report.Rendered, &report.Written, &report.Unchanged,
			&report.Skipped, &report.Pruned, &report.Published, &report.Deleted,
			&warnings, &failures); err != nil {
			return nil, err
		}

		report.Status = staticgen.RunStatus(status)
		if report.StartedAt, err = time.Parse(time.RFC3339, startedAt); err != nil {
			return nil, fmt.Errorf("failed to parse started_at: %w", err)
		}
		if report.FinishedAt, err = time.Parse(time.RFC3339, finishedAt); err != nil {
			return nil, fmt.Errorf("failed to parse finished_at: %w", err)
		}
		if err := json.Unmarshal([]byte(warnings), &report.Warnings); err != nil {
			return nil, fmt.Errorf("failed to parse warnings: %w", err)
		}
		if err := json.Unmarshal([]byte(failures), &report.Failures); err != nil {
			return nil, fmt.Errorf("failed to parse failures: %w", err)
		}

		reports = append(reports, &report)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return reports, nil
}
