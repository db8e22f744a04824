package take

import (
	"time"

	"github.com/sabaqlab/sabaq/internal/assessment"
	"github.com/sabaqlab/sabaq/internal/session"
)

// loadedMsg is sent when the assessment has been fetched and the session
// started, or loading failed.
type loadedMsg struct {
	Session *session.Session
	Err     error
}

// timerTickMsg is sent every second to advance the countdown.
type timerTickMsg time.Time

// submittedMsg carries the outcome of a submission attempt.
type submittedMsg struct {
	Trigger session.Trigger
	Result  *assessment.Result
	Err     error
}
