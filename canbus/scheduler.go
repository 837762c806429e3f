package canbus

import (
	"errors"
	"time"
)

// TimerFunc is a periodic callback. A returned error is reported by Tick
// and does not stop other timers.
type TimerFunc func() error

type timer struct {
	period time.Duration
	last   time.Duration
	fn     TimerFunc
}

// Scheduler drives periodic callbacks from a cooperative polling loop.
//
// A timer is due once now-last >= period. After it fires, last advances by
// exactly one period so the cadence does not drift with loop latency. If
// the loop fell behind by more than a full period, last snaps to now
// instead of firing a burst of catch-up calls.
//
// Timers cannot be removed. Tick must be called from a single goroutine.
type Scheduler struct {
	timers  []timer
	ticking bool
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// AddTimer registers fn to run every period. The first fire happens at the
// first tick with now >= period.
func (s *Scheduler) AddTimer(period time.Duration, fn TimerFunc) {
	s.timers = append(s.timers, timer{period: period, fn: fn})
}

// AddMessage registers msg with reg and fires it every msg.Period.
func (s *Scheduler) AddMessage(reg *Registry, msg *Message) error {
	if err := reg.RegisterTransmit(msg); err != nil {
		return err
	}
	s.AddTimer(msg.Period, func() error {
		return reg.Send(msg)
	})
	return nil
}

// Tick fires every due timer. now is the monotonic time since the loop
// started.
func (s *Scheduler) Tick(now time.Duration) error {
	if s.ticking {
		return ErrTickReentered
	}
	s.ticking = true
	defer func() { s.ticking = false }()

	var errs []error
	for i := range s.timers {
		t := &s.timers[i]
		if t.period <= 0 || now-t.last < t.period {
			continue
		}

		if err := t.fn(); err != nil {
			errs = append(errs, err)
		}

		t.last += t.period
		if now-t.last >= t.period {
			t.last = now
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of registered timers.
func (s *Scheduler) Len() int {
	return len(s.timers)
}
