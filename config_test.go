package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bms.ini")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
[service]
log = 4

[can]
device = vcan0

[redis]
server = 10.0.0.2
port = 6380

[timing]
telemetry_period_ms = 250
status_timeout_ms = 5000
poll_interval_ms = 2
`)

	opts := DefaultOptions()
	require.NoError(t, LoadConfigFile(path, &opts))

	assert.Equal(t, LogLevelDebug, opts.LogLevel)
	assert.Equal(t, "vcan0", opts.CANDevice)
	assert.Equal(t, "10.0.0.2", opts.RedisServerAddr)
	assert.Equal(t, uint16(6380), opts.RedisServerPort)
	assert.Equal(t, 250*time.Millisecond, opts.TelemetryPeriod)
	assert.Equal(t, 5*time.Second, opts.StatusTimeout)
	assert.Equal(t, 2*time.Millisecond, opts.PollInterval)
	assert.NoError(t, opts.Validate())
}

func TestLoadConfigFile_PartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "[can]\ndevice = can1\n")

	opts := DefaultOptions()
	require.NoError(t, LoadConfigFile(path, &opts))

	expected := DefaultOptions()
	expected.CANDevice = "can1"
	assert.Equal(t, expected, opts)
}

func TestLoadConfigFile_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"log level", "[service]\nlog = loud\n"},
		{"port range", "[redis]\nport = 70000\n"},
		{"negative period", "[timing]\ntelemetry_period_ms = -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			assert.Error(t, LoadConfigFile(writeConfig(t, tt.content), &opts))
		})
	}
}

func TestLoadConfigFile_Missing(t *testing.T) {
	opts := DefaultOptions()
	assert.Error(t, LoadConfigFile(filepath.Join(t.TempDir(), "nope.ini"), &opts))
}

func TestOptionsValidate(t *testing.T) {
	opts := DefaultOptions()
	require.NoError(t, opts.Validate())

	bad := opts
	bad.LogLevel = 7
	assert.Error(t, bad.Validate())

	bad = opts
	bad.CANDevice = ""
	assert.Error(t, bad.Validate())

	bad = opts
	bad.PollInterval = 0
	assert.Error(t, bad.Validate())
}
