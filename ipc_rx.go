package main

import (
	"context"
	"errors"
	"fmt"

	"bms-service/bms"

	"github.com/go-redis/redis/v8"
)

const ipcCommandChannel = "bms:command"

// IPCRx receives operator actions from the telemetry bridge and forwards
// them as commands to the polling loop.
type IPCRx struct {
	log      *LeveledLogger
	redis    *redis.Client
	commands chan<- bms.Command

	subscription *redis.PubSub
}

func NewIPCRx(logger *LeveledLogger, redis *redis.Client, commands chan<- bms.Command) *IPCRx {
	return &IPCRx{
		log:      logger,
		redis:    redis,
		commands: commands,
	}
}

// Run subscribes to the command channel and blocks until ctx is cancelled.
func (rx *IPCRx) Run(ctx context.Context) error {
	rx.subscription = rx.redis.Subscribe(ctx, ipcCommandChannel)
	defer rx.subscription.Close()

	rx.log.Info("Starting command subscription handler")

	for {
		msg, err := rx.subscription.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, redis.ErrClosed) {
				return fmt.Errorf("redis connection lost on command subscription: %w", err)
			}
			rx.log.Error("Command subscription error: %v", err)
			continue
		}

		switch m := msg.(type) {
		case *redis.Message:
			rx.log.Debug("Command message received: channel=%s, payload=%s", m.Channel, m.Payload)
			rx.handleAction(ctx, m.Payload)

		case *redis.Subscription:
			rx.log.Debug("Command subscription event: %s %s", m.Channel, m.Kind)
		}
	}
}

func (rx *IPCRx) handleAction(ctx context.Context, action string) {
	cmd, err := bms.ParseAction(action)
	if err != nil {
		rx.log.Warn("Ignoring action: %v", err)
		return
	}

	rx.log.Info("Action %q -> command %s", action, cmd)
	select {
	case rx.commands <- cmd:
	case <-ctx.Done():
	}
}
