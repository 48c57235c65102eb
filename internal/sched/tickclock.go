// internal/sched/tickclock.go

package sched

// TickClock is the simulated clock of a single run. It only moves forward and
// never touches wall-clock time.
type TickClock struct {
	now int64
}

// Now returns the current tick.
func (c *TickClock) Now() int64 { return c.now }

// Advance moves the clock forward by d ticks.
func (c *TickClock) Advance(d int64) {
	if d > 0 {
		c.now += d
	}
}

// AdvanceTo moves the clock to tick t if t is in the future.
func (c *TickClock) AdvanceTo(t int64) {
	if t > c.now {
		c.now = t
	}
}
