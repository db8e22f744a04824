package store

import (
	"context"
	"errors"
	"time"

	"github.com/sabaqlab/sabaq/internal/assessment"
)

// ErrCorruptBackup is returned when a stored backup fails validation.
var ErrCorruptBackup = errors.New("corrupt backup")

// Backup is the locally persisted copy of an attempt, written before any
// network call so a failed submission can be recovered.
type Backup struct {
	AssessmentID string              `json:"assessmentId"`
	GroupID      string              `json:"groupId"`
	Answers      []assessment.Answer `json:"answers"`
	TimeSpent    int                 `json:"timeSpent"`
	Timestamp    time.Time           `json:"timestamp"`
}

// BackupKey is the storage key for an assessment's backup.
func BackupKey(assessmentID string) string {
	return "backup_" + assessmentID
}

// BackupRepo persists at most one backup per assessment.
type BackupRepo interface {
	// Save creates or replaces the backup for b.AssessmentID.
	Save(ctx context.Context, b *Backup) error

	// Load returns the backup for an assessment, or nil if none exists.
	Load(ctx context.Context, assessmentID string) (*Backup, error)

	// Delete removes the backup for an assessment. Deleting a missing
	// backup is not an error.
	Delete(ctx context.Context, assessmentID string) error

	// List returns all readable backups, most recently written first.
	// Rows that fail validation are skipped.
	List(ctx context.Context) ([]*Backup, error)
}

// SubmitAttemptData captures one transport call made while submitting.
type SubmitAttemptData struct {
	AttemptID    string
	AssessmentID string
	Transport    string
	Success      bool
	StatusCode   int
	ErrorMessage string
	Latency      time.Duration
	Timestamp    time.Time
}

// EventRepo provides append access to submission events.
type EventRepo interface {
	// AppendSubmitAttempt records a single transport call.
	AppendSubmitAttempt(ctx context.Context, data SubmitAttemptData) error

	// SubmitAttempts returns the recorded calls for an assessment, oldest first.
	SubmitAttempts(ctx context.Context, assessmentID string) ([]SubmitAttemptData, error)
}
