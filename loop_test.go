package main

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"bms-service/bms"
	"bms-service/canbus"

	"github.com/brutella/can"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBus struct {
	mu     sync.Mutex
	frames []can.Frame
}

func (b *recordingBus) Publish(frame can.Frame) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.frames = append(b.frames, frame)
	return nil
}

func (b *recordingBus) last() (can.Frame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.frames) == 0 {
		return can.Frame{}, false
	}
	return b.frames[len(b.frames)-1], true
}

func newTestLoop(t *testing.T) (*pollLoop, *recordingBus) {
	t.Helper()
	logger := NewLeveledLogger(io.Discard, LogLevelNone)
	bus := &recordingBus{}
	reg := canbus.NewRegistry(logger, bus)
	sched := canbus.NewScheduler()
	model := bms.New(bms.Config{Logger: logger})
	require.NoError(t, model.Register(reg, sched))
	return newPollLoop(logger, reg, sched, model, time.Millisecond), bus
}

func makeFrame(id uint32, data ...byte) can.Frame {
	f := can.Frame{ID: id, Length: uint8(len(data))}
	copy(f.Data[:], data)
	return f
}

func TestPollLoop_FramesAndCommands(t *testing.T) {
	loop, bus := newTestLoop(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	loop.Handle(makeFrame(bms.StatusFrameID, 2, 0, 0, 0, 0, 0, 0, 0))
	loop.commands <- bms.CommandShutdown

	require.Eventually(t, func() bool {
		f, ok := bus.last()
		return ok && f.ID == bms.CommandFrameID && f.Data[0] == uint8(bms.CommandShutdown)
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	require.NoError(t, <-done)

	// safe to read once the loop has stopped
	assert.Equal(t, bms.StateActive, loop.model.GetState())
}

func TestPollLoop_QueueFullDrops(t *testing.T) {
	loop, _ := newTestLoop(t)

	for i := 0; i < frameQueueSize+10; i++ {
		loop.Handle(makeFrame(0x123))
	}
	assert.Len(t, loop.frames, frameQueueSize)

	loop.drain()
	assert.Empty(t, loop.frames)
}
