package play

import (
	"time"

	"github.com/abhisek/iotlab/internal/session"
)

// tickMsg is the once-per-second countdown tick. Ticks carrying a token
// other than the machine's current one are dropped.
type tickMsg struct {
	token uint64
	at    time.Time
}

// sessionEndedMsg is sent once the session has been closed and uploaded.
type sessionEndedMsg struct {
	summary *session.Summary
	err     error
}
