package game

import "time"

// countdown broadcasts the seconds left in the active phase once per second,
// down to 1. It never ends a phase; the room's phase timeout is started
// separately with the same duration, owns transitions and sends the 0 tick.
type countdown struct {
	sched Scheduler
	tick  task
	seq   uint64
}

// start replaces any running countdown. Callers hold r.mu.
func (c *countdown) start(r *Room, seconds int) {
	c.stop()
	if seconds <= 1 {
		return
	}

	seq := c.seq
	left := seconds

	var next func()
	next = func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if c.seq != seq || r.closed {
			return
		}

		left--
		r.broadcast(TimerUpdate{SecondsLeft: left})

		if left <= 1 {
			c.tick.timer = nil
			return
		}
		c.tick.set(c.sched.AfterFunc(time.Second, next))
	}

	c.tick.set(c.sched.AfterFunc(time.Second, next))
}

// stop is idempotent. Callers hold r.mu.
func (c *countdown) stop() {
	c.seq++
	c.tick.cancel()
}
