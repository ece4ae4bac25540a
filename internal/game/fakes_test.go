package game

import (
	"sort"
	"sync"
	"time"
)

// fakeScheduler is a manual clock. Timers only fire inside Advance, in
// deadline order, on the calling goroutine.
type fakeScheduler struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	s       *fakeScheduler
	at      time.Time
	seq     int
	f       func()
	stopped bool
	fired   bool
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (s *fakeScheduler) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.now
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	t := &fakeTimer{s: s, at: s.now.Add(d), seq: s.seq, f: f}
	s.timers = append(s.timers, t)

	return t
}

func (t *fakeTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	if t.stopped || t.fired {
		return false
	}
	t.stopped = true

	return true
}

// Advance moves the clock forward by d, firing every timer that comes due,
// including timers scheduled by earlier callbacks.
func (s *fakeScheduler) Advance(d time.Duration) {
	s.mu.Lock()
	target := s.now.Add(d)
	s.mu.Unlock()

	for {
		s.mu.Lock()
		pending := s.timers[:0]
		for _, t := range s.timers {
			if !t.stopped && !t.fired {
				pending = append(pending, t)
			}
		}
		s.timers = pending

		sort.Slice(pending, func(i, j int) bool {
			if pending[i].at.Equal(pending[j].at) {
				return pending[i].seq < pending[j].seq
			}
			return pending[i].at.Before(pending[j].at)
		})

		if len(pending) == 0 || pending[0].at.After(target) {
			s.now = target
			s.mu.Unlock()
			return
		}

		next := pending[0]
		next.fired = true
		s.now = next.at
		s.mu.Unlock()

		next.f()
	}
}

// fakeConn records every event delivered to it.
type fakeConn struct {
	mu     sync.Mutex
	events []Event
	closed Event
}

func (c *fakeConn) Send(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = append(c.events, ev)
}

func (c *fakeConn) Close(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = ev
	c.events = append(c.events, ev)
}

func (c *fakeConn) all(name string) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	var out []Event
	for _, ev := range c.events {
		if ev.EventName() == name {
			out = append(out, ev)
		}
	}
	return out
}

func (c *fakeConn) last(name string) Event {
	evs := c.all(name)
	if len(evs) == 0 {
		return nil
	}
	return evs[len(evs)-1]
}

func (c *fakeConn) count(name string) int {
	return len(c.all(name))
}

func (c *fakeConn) closedWith() Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed
}

// lastPrompt returns the most recent prompt of either kind.
func (c *fakeConn) lastPrompt() (Prompt, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := len(c.events) - 1; i >= 0; i-- {
		if p, ok := c.events[i].(Prompt); ok {
			return p, true
		}
	}
	return Prompt{}, false
}

// fixedSource replays vals, repeating the last one once exhausted.
type fixedSource struct {
	vals []int
	i    int
}

func (f *fixedSource) IntN(n int) int {
	v := f.vals[min(f.i, len(f.vals)-1)]
	f.i++
	return v % n
}
