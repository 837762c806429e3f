package main

import (
	"context"
	"sync"

	"bms-service/bms"

	"github.com/go-redis/redis/v8"
)

const (
	diagGroupName           = "bms"
	diagFaultSetKey         = "bms:fault"
	diagEventStream         = "events:faults"
	diagEventStreamMaxLen   = 1000
	diagNotificationChannel = "bms"
)

// Diag mirrors the active fault set into Redis and appends set/clear
// events to the shared fault stream.
type Diag struct {
	log         *LeveledLogger
	redis       *redis.Client
	mu          sync.Mutex
	faultStates map[bms.FaultCode]bool
}

func NewDiag(logger *LeveledLogger, redis *redis.Client) *Diag {
	return &Diag{
		log:         logger,
		redis:       redis,
		faultStates: make(map[bms.FaultCode]bool),
	}
}

// ClearAll drops any fault set left behind by a previous run.
func (d *Diag) ClearAll(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.faultStates = make(map[bms.FaultCode]bool)
	return d.redis.Del(ctx, diagFaultSetKey).Err()
}

// SetFaults reports every fault whose presence changed since the last call.
func (d *Diag) SetFaults(ctx context.Context, faults map[bms.FaultCode]bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for fault := bms.FaultCode(1); fault <= bms.FaultLast; fault++ {
		newPresent := faults[fault]
		wasPresent := d.faultStates[fault]

		if newPresent == wasPresent {
			continue
		}

		config, ok := bms.GetFaultConfig(fault)
		if !ok {
			continue
		}

		var err error
		if newPresent {
			d.log.Warn("Fault set: code=%d, description=%s", fault, config.Description)
			err = d.reportFaultPresent(ctx, fault, config)
		} else {
			d.log.Info("Fault cleared: code=%d, description=%s", fault, config.Description)
			err = d.reportFaultAbsent(ctx, fault)
		}

		// Retry on the next refresh
		if err != nil {
			d.log.Error("Failed to report fault %d: %v", fault, err)
			continue
		}
		d.faultStates[fault] = newPresent
	}
}

func (d *Diag) reportFaultPresent(ctx context.Context, fault bms.FaultCode, config bms.FaultConfig) error {
	pipe := d.redis.Pipeline()

	pipe.SAdd(ctx, diagFaultSetKey, uint32(fault))

	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: diagEventStream,
		MaxLen: diagEventStreamMaxLen,
		Values: map[string]interface{}{
			"group":       diagGroupName,
			"code":        uint32(fault),
			"description": config.Description,
			"severity":    severityName(config.Severity),
		},
	})

	pipe.Publish(ctx, diagNotificationChannel, "fault")

	_, err := pipe.Exec(ctx)
	return err
}

func (d *Diag) reportFaultAbsent(ctx context.Context, fault bms.FaultCode) error {
	pipe := d.redis.Pipeline()

	pipe.SRem(ctx, diagFaultSetKey, uint32(fault))

	pipe.XAdd(ctx, &redis.XAddArgs{
		Stream: diagEventStream,
		MaxLen: diagEventStreamMaxLen,
		Values: map[string]interface{}{
			"group": diagGroupName,
			"code":  -int32(fault),
		},
	})

	pipe.Publish(ctx, diagNotificationChannel, "fault")

	_, err := pipe.Exec(ctx)
	return err
}

func severityName(s bms.FaultSeverity) string {
	if s == bms.SeverityCritical {
		return "critical"
	}
	return "warning"
}
