package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

// eventRepo implements EventRepo. Rows are append-only; the autoincrement id
// gives insertion order.
type eventRepo struct {
	drv *entsql.Driver
}

func (r *eventRepo) AppendSubmitAttempt(ctx context.Context, data SubmitAttemptData) error {
	ts := data.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(submitAttemptsTable).
		Columns("attempt_id", "assessment_id", "transport", "success",
			"status_code", "error_message", "latency_ms", "created_at").
		Values(data.AttemptID, data.AssessmentID, data.Transport, data.Success,
			data.StatusCode, data.ErrorMessage, data.Latency.Milliseconds(), ts.UnixMilli()).
		Query()
	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("append submit attempt: %w", err)
	}
	return nil
}

func (r *eventRepo) SubmitAttempts(ctx context.Context, assessmentID string) ([]SubmitAttemptData, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select("attempt_id", "assessment_id", "transport", "success",
			"status_code", "error_message", "latency_ms", "created_at").
		From(entsql.Table(submitAttemptsTable)).
		Where(entsql.EQ("assessment_id", assessmentID)).
		OrderBy(entsql.Asc("id")).
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query submit attempts: %w", err)
	}
	defer rows.Close()

	var out []SubmitAttemptData
	for rows.Next() {
		var (
			d         SubmitAttemptData
			latencyMs int64
			createdAt int64
		)
		if err := rows.Scan(&d.AttemptID, &d.AssessmentID, &d.Transport, &d.Success,
			&d.StatusCode, &d.ErrorMessage, &latencyMs, &createdAt); err != nil {
			return nil, fmt.Errorf("scan submit attempt: %w", err)
		}
		d.Latency = time.Duration(latencyMs) * time.Millisecond
		d.Timestamp = time.UnixMilli(createdAt)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate submit attempts: %w", err)
	}
	return out, nil
}
