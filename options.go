package main

import (
	"fmt"
	"time"
)

type LogLevel int

const (
	LogLevelNone  LogLevel = 0
	LogLevelError LogLevel = 1
	LogLevelWarn  LogLevel = 2
	LogLevelInfo  LogLevel = 3
	LogLevelDebug LogLevel = 4
)

const (
	DefaultTelemetryPeriod = 100 * time.Millisecond
	DefaultPollInterval    = 5 * time.Millisecond
)

type Options struct {
	LogLevel        LogLevel
	RedisServerAddr string
	RedisServerPort uint16
	CANDevice       string
	TelemetryPeriod time.Duration
	StatusTimeout   time.Duration
	PollInterval    time.Duration
}

// DefaultOptions returns the built-in configuration.
func DefaultOptions() Options {
	return Options{
		LogLevel:        LogLevelInfo,
		RedisServerAddr: "127.0.0.1",
		RedisServerPort: 6379,
		CANDevice:       "can0",
		TelemetryPeriod: DefaultTelemetryPeriod,
		StatusTimeout:   2 * time.Second,
		PollInterval:    DefaultPollInterval,
	}
}

// Validate rejects values the service cannot run with.
func (o *Options) Validate() error {
	if o.LogLevel < LogLevelNone || o.LogLevel > LogLevelDebug {
		return fmt.Errorf("invalid log level %d", o.LogLevel)
	}
	if o.CANDevice == "" {
		return fmt.Errorf("CAN device name is empty")
	}
	if o.TelemetryPeriod <= 0 {
		return fmt.Errorf("invalid telemetry period %v", o.TelemetryPeriod)
	}
	if o.StatusTimeout <= 0 {
		return fmt.Errorf("invalid status timeout %v", o.StatusTimeout)
	}
	if o.PollInterval <= 0 {
		return fmt.Errorf("invalid poll interval %v", o.PollInterval)
	}
	return nil
}
