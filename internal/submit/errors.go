package submit

import (
	"errors"
	"fmt"
)

// ErrSubmissionFailed is matched by every error Submit returns after the
// strategies have been exhausted or the submission was aborted.
var ErrSubmissionFailed = errors.New("submission failed")

// ErrNoBackup is returned by Resubmit when nothing is stored locally.
var ErrNoBackup = errors.New("no local backup")

// SubmitError reports a submission that did not reach the service.
type SubmitError struct {
	AssessmentID string
	// BackupSaved reports whether the answers are stored locally.
	BackupSaved bool
	Err         error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submit assessment %s: %v", e.AssessmentID, e.Err)
}

func (e *SubmitError) Unwrap() []error { return []error{ErrSubmissionFailed, e.Err} }

// UserMessage is the text shown to the test taker.
func (e *SubmitError) UserMessage() string {
	if e.BackupSaved {
		return "Could not submit your test. Your answers are saved locally. Stay on this page and try again."
	}
	return "Could not submit your test. Stay on this page and try again."
}
