package progression

// Countdown is a whole-second timer driven by explicit Tick calls. Each
// Start issues a new token; ticks carrying an older token are ignored, so a
// tick scheduled before a reset can never touch the new countdown.
type Countdown struct {
	remaining int
	limit     int
	running   bool
	token     uint64
}

// NewCountdown returns a stopped countdown with the given limit in seconds.
func NewCountdown(limit int) Countdown {
	if limit < 0 {
		limit = 0
	}
	return Countdown{remaining: limit, limit: limit}
}

// Start rewinds to the limit, starts running and returns the new token.
func (c *Countdown) Start() uint64 {
	c.token++
	c.remaining = c.limit
	c.running = true
	return c.token
}

// Stop halts the countdown and invalidates outstanding ticks.
func (c *Countdown) Stop() {
	c.running = false
	c.token++
}

// Tick advances one second if token is current and the countdown is running.
// It returns true only for the tick that reaches zero; the countdown stops
// at that point so later ticks are no-ops.
func (c *Countdown) Tick(token uint64) bool {
	if !c.running || token != c.token {
		return false
	}
	if c.remaining > 0 {
		c.remaining--
	}
	if c.remaining == 0 {
		c.running = false
		return true
	}
	return false
}

// Extend adds up to seconds, never exceeding the limit. It returns the
// number of seconds actually added.
func (c *Countdown) Extend(seconds int) int {
	if !c.running || seconds <= 0 {
		return 0
	}
	added := min(seconds, c.limit-c.remaining)
	if added < 0 {
		added = 0
	}
	c.remaining += added
	return added
}

func (c *Countdown) Remaining() int { return c.remaining }
func (c *Countdown) Limit() int     { return c.limit }
func (c *Countdown) Running() bool  { return c.running }
func (c *Countdown) Token() uint64  { return c.token }
