package session

import "time"

// CountdownState is the state of a Countdown.
type CountdownState int

const (
	CountdownRunning CountdownState = iota
	CountdownExpired
	CountdownStopped
)

func (s CountdownState) String() string {
	switch s {
	case CountdownRunning:
		return "running"
	case CountdownExpired:
		return "expired"
	case CountdownStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Countdown counts whole seconds down to zero. It does not own a timer;
// the caller calls Tick once per second.
type Countdown struct {
	total     int
	remaining int
	state     CountdownState
}

// NewCountdown starts a running countdown of secs seconds.
func NewCountdown(secs int) *Countdown {
	secs = max(secs, 0)
	c := &Countdown{total: secs, remaining: secs}
	if secs == 0 {
		c.state = CountdownExpired
	}
	return c
}

// Tick advances the countdown by one second. It returns true exactly once,
// on the tick that moves it from running to expired.
func (c *Countdown) Tick() bool {
	if c.state != CountdownRunning {
		return false
	}
	c.remaining--
	if c.remaining <= 0 {
		c.remaining = 0
		c.state = CountdownExpired
		return true
	}
	return false
}

// Stop halts a running countdown. Later ticks are ignored.
func (c *Countdown) Stop() {
	if c.state == CountdownRunning {
		c.state = CountdownStopped
	}
}

// State returns the current state.
func (c *Countdown) State() CountdownState { return c.state }

// Remaining returns the time left.
func (c *Countdown) Remaining() time.Duration {
	return time.Duration(c.remaining) * time.Second
}

// Elapsed returns the whole seconds counted so far.
func (c *Countdown) Elapsed() int { return c.total - c.remaining }
