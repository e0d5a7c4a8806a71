package progression

import "testing"

func TestCountdown_ExpiresExactlyOnce(t *testing.T) {
	c := NewCountdown(3)
	tok := c.Start()

	var expiries int
	for i := 0; i < 10; i++ {
		if c.Tick(tok) {
			expiries++
		}
		if c.Remaining() < 0 {
			t.Fatalf("Remaining = %d, must not go negative", c.Remaining())
		}
	}
	if expiries != 1 {
		t.Errorf("expiries = %d, want 1", expiries)
	}
	if c.Running() {
		t.Error("countdown still running after expiry")
	}
}

func TestCountdown_StaleTokenIgnored(t *testing.T) {
	c := NewCountdown(5)
	old := c.Start()
	fresh := c.Start()
	if c.Tick(old) {
		t.Error("stale tick expired countdown")
	}
	if c.Remaining() != 5 {
		t.Errorf("Remaining = %d, want 5 (stale tick ignored)", c.Remaining())
	}
	c.Tick(fresh)
	if c.Remaining() != 4 {
		t.Errorf("Remaining = %d, want 4", c.Remaining())
	}
}

func TestCountdown_StopInvalidatesTicks(t *testing.T) {
	c := NewCountdown(5)
	tok := c.Start()
	c.Stop()
	c.Tick(tok)
	if c.Remaining() != 5 {
		t.Errorf("Remaining = %d, want 5", c.Remaining())
	}
}

func TestCountdown_ExtendCapsAtLimit(t *testing.T) {
	c := NewCountdown(30)
	tok := c.Start()
	for i := 0; i < 4; i++ {
		c.Tick(tok)
	}
	if got := c.Extend(10); got != 4 {
		t.Errorf("Extend = %d, want 4", got)
	}
	if c.Remaining() != 30 {
		t.Errorf("Remaining = %d, want 30", c.Remaining())
	}
}
