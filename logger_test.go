package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLeveledLogger_Filtering(t *testing.T) {
	var buf bytes.Buffer
	l := NewLeveledLogger(&buf, LogLevelWarn)

	l.Info("hidden %d", 1)
	l.Debug("hidden %d", 2)
	assert.Empty(t, buf.String())

	l.Warn("visible %d", 3)
	assert.Contains(t, buf.String(), "visible 3")
	assert.Equal(t, LogLevelWarn, l.GetLevel())
}

func TestLeveledLogger_None(t *testing.T) {
	var buf bytes.Buffer
	l := NewLeveledLogger(&buf, LogLevelNone)

	l.Error("nothing")
	assert.Empty(t, buf.String())
}

func TestLeveledLogger_DebugCAN(t *testing.T) {
	var buf bytes.Buffer
	l := NewLeveledLogger(&buf, LogLevelInfo)

	l.DebugCAN("RX", 0x241, []byte{0x02, 0xAB}, 2)
	assert.Empty(t, buf.String())

	l.SetLevel(LogLevelDebug)
	l.DebugCAN("RX", 0x241, []byte{0x02, 0xAB}, 2)
	assert.Contains(t, buf.String(), "ID=0x241 Len=2 Data=[02 AB ]")
}
