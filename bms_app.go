package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"bms-service/bms"
	"bms-service/canbus"

	"github.com/avast/retry-go"
	"github.com/brutella/can"
	"github.com/go-redis/redis/v8"
	"golang.org/x/sync/errgroup"
)

const (
	BMSAppIPCRetryTime = 2 * time.Second
	BMSAppIPCRetries   = 3
)

type BMSApp struct {
	log   *LeveledLogger
	opts  Options
	redis *redis.Client
	bus   *can.Bus

	model     *bms.Model
	registry  *canbus.Registry
	scheduler *canbus.Scheduler
	loop      *pollLoop

	ipcTx *IPCTx
	ipcRx *IPCRx
	diag  *Diag
}

func NewBMSApp(ctx context.Context, opts Options) (*BMSApp, error) {
	app := &BMSApp{
		log:  NewLeveledLogger(os.Stderr, opts.LogLevel),
		opts: opts,
	}

	app.redis = redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", opts.RedisServerAddr, opts.RedisServerPort),
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	if err := app.connectRedis(ctx); err != nil {
		app.Destroy()
		return nil, err
	}

	app.diag = NewDiag(app.log, app.redis)
	if err := app.diag.ClearAll(ctx); err != nil {
		app.log.Warn("Failed to clear stale fault set: %v", err)
	}
	app.ipcTx = NewIPCTx(app.log, app.redis, app.diag)
	app.log.Info("IPC TX component initialized")

	bus, err := can.NewBusForInterfaceWithName(opts.CANDevice)
	if err != nil {
		app.Destroy()
		return nil, fmt.Errorf("failed to initialize CAN bus %s: %w", opts.CANDevice, err)
	}
	app.bus = bus

	app.model = bms.New(bms.Config{
		Logger:        app.log,
		StatusTimeout: opts.StatusTimeout,
	})
	app.registry = canbus.NewRegistry(app.log, bus)
	app.scheduler = canbus.NewScheduler()

	if err := app.model.Register(app.registry, app.scheduler); err != nil {
		app.Destroy()
		return nil, fmt.Errorf("invalid CAN message configuration: %w", err)
	}
	app.scheduler.AddTimer(opts.TelemetryPeriod, app.refreshTelemetry)
	app.log.Info("BMS model initialized on %s", opts.CANDevice)

	app.loop = newPollLoop(app.log, app.registry, app.scheduler, app.model, opts.PollInterval)
	bus.Subscribe(app.loop)

	app.ipcRx = NewIPCRx(app.log, app.redis, app.loop.commands)
	app.log.Info("IPC RX component initialized")

	return app, nil
}

func (app *BMSApp) connectRedis(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", app.opts.RedisServerAddr, app.opts.RedisServerPort)
	app.log.Info("Connecting to Redis at %s...", addr)

	err := retry.Do(
		func() error {
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return app.redis.Ping(pingCtx).Err()
		},
		retry.Context(ctx),
		retry.Attempts(BMSAppIPCRetries),
		retry.Delay(BMSAppIPCRetryTime),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			app.log.Warn("Redis connect attempt %d failed: %v", n+1, err)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	app.log.Info("Successfully connected to Redis")
	return nil
}

// refreshTelemetry runs on the polling loop.
func (app *BMSApp) refreshTelemetry() error {
	app.ipcTx.Enqueue(NewTelemetrySnapshot(app.model))
	return nil
}

// Run blocks until ctx is cancelled or a component fails.
func (app *BMSApp) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := app.bus.ConnectAndPublish(); err != nil && ctx.Err() == nil {
			return fmt.Errorf("CAN bus publish error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		if err := app.bus.Disconnect(); err != nil {
			app.log.Warn("CAN bus disconnect: %v", err)
		}
		return nil
	})

	g.Go(func() error { return app.loop.Run(ctx) })
	g.Go(func() error { return app.ipcTx.Run(ctx) })
	g.Go(func() error { return app.ipcRx.Run(ctx) })

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (app *BMSApp) Destroy() {
	app.log.Info("Shutting down BMS application...")

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.log.Error("Error closing Redis connection: %v", err)
		} else {
			app.log.Info("Redis connection closed")
		}
	}

	app.log.Info("BMS application shutdown complete")
}
