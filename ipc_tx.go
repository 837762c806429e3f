package main

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/go-redis/redis/v8"
)

const (
	ipcHashKey            = "bms"
	ipcVoltagesKey        = "bms:voltages"
	ipcTemperaturesKey    = "bms:temperatures"
	ipcTelemetryChannel   = "bms"
	ipcStateChangeChannel = "bms state"
)

// IPCTx publishes battery telemetry to Redis. Snapshots are handed over
// by the polling loop and written from Run so Redis latency never stalls
// the CAN loop.
type IPCTx struct {
	log     *LeveledLogger
	redis   *redis.Client
	diag    *Diag
	pending chan TelemetrySnapshot

	mu        sync.Mutex
	lastState string
}

func NewIPCTx(logger *LeveledLogger, redis *redis.Client, diag *Diag) *IPCTx {
	return &IPCTx{
		log:     logger,
		redis:   redis,
		diag:    diag,
		pending: make(chan TelemetrySnapshot, 1),
	}
}

// Enqueue offers a snapshot for publishing. If the previous one is still
// waiting it is replaced.
func (tx *IPCTx) Enqueue(s TelemetrySnapshot) {
	for {
		select {
		case tx.pending <- s:
			return
		default:
		}
		select {
		case <-tx.pending:
			tx.log.Debug("Telemetry publish lagging, replacing pending snapshot")
		default:
		}
	}
}

// Run writes queued snapshots until ctx is cancelled.
func (tx *IPCTx) Run(ctx context.Context) error {
	tx.log.Info("Starting telemetry publisher")

	for {
		select {
		case <-ctx.Done():
			return nil
		case s := <-tx.pending:
			if err := tx.SendTelemetry(ctx, s); err != nil {
				tx.log.Warn("%v", err)
			}
			if tx.diag != nil {
				tx.diag.SetFaults(ctx, s.ActiveFaults)
			}
		}
	}
}

// SendTelemetry writes one snapshot and notifies subscribers.
func (tx *IPCTx) SendTelemetry(ctx context.Context, s TelemetrySnapshot) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	pipe := tx.redis.Pipeline()

	pipe.HSet(ctx, ipcHashKey, map[string]interface{}{
		"state":                  s.State,
		"stale":                  onOff(s.Stale),
		"command":                s.Command,
		"current":                s.Current,
		"soc":                    s.SoC,
		"pack:voltage":           s.PackVoltage,
		"pack:temperature":       s.PackTemperature,
		"limit:discharge":        s.MaxDischargeCurrent,
		"limit:regen":            s.MaxRegenCurrent,
		"cell:voltage:max":       s.MaxCellVoltage,
		"cell:voltage:min":       s.MinCellVoltage,
		"cell:temperature:max":   s.MaxCellTemperature,
		"cell:temperature:min":   s.MinCellTemperature,
		"fault":                  onOff(s.Faults.Summary),
		"fault:undervoltage":     onOff(s.Faults.Undervoltage),
		"fault:overvoltage":      onOff(s.Faults.Overvoltage),
		"fault:undertemperature": onOff(s.Faults.Undertemperature),
		"fault:overtemperature":  onOff(s.Faults.Overtemperature),
		"fault:overcurrent":      onOff(s.Faults.Overcurrent),
		"fault:external-kill":    onOff(s.Faults.ExternalKill),
	})

	voltages := make(map[string]interface{}, len(s.Voltages))
	for i, v := range s.Voltages {
		voltages[strconv.Itoa(i)] = v
	}
	pipe.HSet(ctx, ipcVoltagesKey, voltages)

	temperatures := make(map[string]interface{}, len(s.Temperatures))
	for i, v := range s.Temperatures {
		temperatures[strconv.Itoa(i)] = v
	}
	pipe.HSet(ctx, ipcTemperaturesKey, temperatures)

	pipe.Publish(ctx, ipcTelemetryChannel, "telemetry")

	// Publish state changes
	if s.State != tx.lastState {
		pipe.Publish(ctx, ipcStateChangeChannel, s.State)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to send telemetry: %w", err)
	}

	tx.lastState = s.State
	return nil
}
