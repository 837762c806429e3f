package main

import (
	"fmt"
	"time"

	"gopkg.in/ini.v1"
)

// LoadConfigFile overlays values from an INI file onto opts. Keys that are
// absent keep their current value.
//
//	[service]
//	log = 4
//
//	[can]
//	device = can0
//
//	[redis]
//	server = 127.0.0.1
//	port = 6379
//
//	[timing]
//	telemetry_period_ms = 100
//	status_timeout_ms = 2000
//	poll_interval_ms = 5
func LoadConfigFile(path string, opts *Options) error {
	cfg, err := ini.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config %s: %w", path, err)
	}

	if key, err := cfg.Section("service").GetKey("log"); err == nil {
		level, err := key.Int()
		if err != nil {
			return fmt.Errorf("[service] log: %w", err)
		}
		opts.LogLevel = LogLevel(level)
	}

	if key, err := cfg.Section("can").GetKey("device"); err == nil {
		opts.CANDevice = key.String()
	}

	redis := cfg.Section("redis")
	if key, err := redis.GetKey("server"); err == nil {
		opts.RedisServerAddr = key.String()
	}
	if key, err := redis.GetKey("port"); err == nil {
		port, err := key.Uint()
		if err != nil || port > 0xFFFF {
			return fmt.Errorf("[redis] port: invalid value %q", key.String())
		}
		opts.RedisServerPort = uint16(port)
	}

	timing := cfg.Section("timing")
	for name, dst := range map[string]*time.Duration{
		"telemetry_period_ms": &opts.TelemetryPeriod,
		"status_timeout_ms":   &opts.StatusTimeout,
		"poll_interval_ms":    &opts.PollInterval,
	} {
		key, err := timing.GetKey(name)
		if err != nil {
			continue
		}
		ms, err := key.Uint()
		if err != nil {
			return fmt.Errorf("[timing] %s: %w", name, err)
		}
		*dst = time.Duration(ms) * time.Millisecond
	}

	return nil
}
