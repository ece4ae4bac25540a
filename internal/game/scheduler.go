package game

import "time"

// Timer is a pending callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs callbacks after a delay. Callbacks run on their own
// goroutine and must take the room lock themselves.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// task owns at most one pending callback. cancel is safe to call any number
// of times.
type task struct {
	timer Timer
}

func (t *task) set(timer Timer) {
	t.cancel()
	t.timer = timer
}

func (t *task) cancel() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}

func (t *task) pending() bool {
	return t.timer != nil
}
