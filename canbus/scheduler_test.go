package canbus

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ms = time.Millisecond

func TestScheduler_FiresAtPeriod(t *testing.T) {
	s := NewScheduler()
	calls := 0
	s.AddTimer(100*ms, func() error { calls++; return nil })

	require.NoError(t, s.Tick(0))
	require.NoError(t, s.Tick(99*ms))
	assert.Equal(t, 0, calls)

	require.NoError(t, s.Tick(100*ms))
	assert.Equal(t, 1, calls)

	require.NoError(t, s.Tick(150*ms))
	assert.Equal(t, 1, calls)
}

func TestScheduler_AdditiveReschedule(t *testing.T) {
	s := NewScheduler()
	var fired []time.Duration
	var now time.Duration
	s.AddTimer(100*ms, func() error { fired = append(fired, now); return nil })

	// loop latency of 7ms per fire must not accumulate
	for _, now = range []time.Duration{107 * ms, 200 * ms, 307 * ms, 400 * ms} {
		require.NoError(t, s.Tick(now))
	}
	assert.Equal(t, []time.Duration{107 * ms, 200 * ms, 307 * ms, 400 * ms}, fired)
}

func TestScheduler_NoBurstAfterStall(t *testing.T) {
	s := NewScheduler()
	calls := 0
	s.AddTimer(100*ms, func() error { calls++; return nil })

	require.NoError(t, s.Tick(1050*ms))
	require.NoError(t, s.Tick(1060*ms))
	assert.Equal(t, 1, calls)

	require.NoError(t, s.Tick(1149*ms))
	assert.Equal(t, 1, calls)
	require.NoError(t, s.Tick(1150*ms))
	assert.Equal(t, 2, calls)
}

func TestScheduler_IndependentTimers(t *testing.T) {
	s := NewScheduler()
	fast, slow := 0, 0
	s.AddTimer(10*ms, func() error { fast++; return nil })
	s.AddTimer(100*ms, func() error { slow++; return nil })

	for now := time.Duration(0); now <= 100*ms; now += ms {
		require.NoError(t, s.Tick(now))
	}
	assert.Equal(t, 10, fast)
	assert.Equal(t, 1, slow)
	assert.Equal(t, 2, s.Len())
}

func TestScheduler_ErrorsDoNotStopOtherTimers(t *testing.T) {
	s := NewScheduler()
	busy := errors.New("bus busy")
	calls := 0
	s.AddTimer(100*ms, func() error { return busy })
	s.AddTimer(100*ms, func() error { calls++; return nil })

	err := s.Tick(100 * ms)
	assert.ErrorIs(t, err, busy)
	assert.Equal(t, 1, calls)

	// the failed timer is not retried within the period
	require.NoError(t, func() error {
		s.timers[0].fn = func() error { calls += 10; return nil }
		return s.Tick(150 * ms)
	}())
	assert.Equal(t, 1, calls)

	require.NoError(t, s.Tick(200*ms))
	assert.Equal(t, 12, calls)
}

func TestScheduler_RejectsReentrantTick(t *testing.T) {
	s := NewScheduler()
	var inner error
	s.AddTimer(10*ms, func() error {
		inner = s.Tick(20 * ms)
		return nil
	})

	require.NoError(t, s.Tick(10*ms))
	assert.ErrorIs(t, inner, ErrTickReentered)
}

func TestScheduler_AddMessage(t *testing.T) {
	bus := &fakeTransport{}
	reg := NewRegistry(NopLogger{}, bus)
	s := NewScheduler()
	cmd := NewSignal(0, 8, 1, 0)
	msg := NewTransmitMessage(0x242, 1, 100*ms, &cmd)

	require.NoError(t, s.AddMessage(reg, &msg))
	assert.ErrorIs(t, s.AddMessage(reg, &msg), ErrDuplicateID)
	assert.Equal(t, 1, s.Len())

	cmd.Set(2)
	require.NoError(t, s.Tick(100*ms))
	require.Len(t, bus.frames, 1)
	assert.Equal(t, uint8(2), bus.frames[0].Data[0])
}
