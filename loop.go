package main

import (
	"context"
	"time"

	"bms-service/bms"
	"bms-service/canbus"

	"github.com/brutella/can"
)

const frameQueueSize = 256

// pollLoop is the only goroutine that touches the registry, scheduler and
// battery model. Frames and commands produced elsewhere reach it through
// channels.
type pollLoop struct {
	log       *LeveledLogger
	registry  *canbus.Registry
	scheduler *canbus.Scheduler
	model     *bms.Model
	frames    chan can.Frame
	commands  chan bms.Command
	interval  time.Duration
}

func newPollLoop(logger *LeveledLogger, registry *canbus.Registry, scheduler *canbus.Scheduler, model *bms.Model, interval time.Duration) *pollLoop {
	return &pollLoop{
		log:       logger,
		registry:  registry,
		scheduler: scheduler,
		model:     model,
		frames:    make(chan can.Frame, frameQueueSize),
		commands:  make(chan bms.Command, 8),
		interval:  interval,
	}
}

// Handle implements can.Handler. It runs on the bus reader goroutine and
// only queues the frame.
func (l *pollLoop) Handle(frame can.Frame) {
	select {
	case l.frames <- frame:
	default:
		l.log.Warn("Frame queue full, dropping ID=0x%03X", frame.ID)
	}
}

// Run drains frames and commands and ticks the scheduler until ctx is
// cancelled.
func (l *pollLoop) Run(ctx context.Context) error {
	start := time.Now()
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case frame := <-l.frames:
			l.registry.Handle(frame)
		case cmd := <-l.commands:
			l.model.Apply(cmd)
		case <-ticker.C:
			l.drain()
			if err := l.scheduler.Tick(time.Since(start)); err != nil {
				l.log.Warn("Timer error: %v", err)
			}
		}
	}
}

// drain processes every frame already queued so a tick never sees a
// state older than the frames that arrived before it.
func (l *pollLoop) drain() {
	for {
		select {
		case frame := <-l.frames:
			l.registry.Handle(frame)
		default:
			return
		}
	}
}
