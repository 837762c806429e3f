package canbus

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignal_VoltageField(t *testing.T) {
	s := NewSignal(0, 8, 0.012, 2.0)

	assert.InDelta(t, 2.0, s.Decode(0), 1e-9)
	assert.InDelta(t, 5.06, s.Decode(255), 1e-9)
}

func TestSignal_TemperatureField(t *testing.T) {
	s := NewSignal(0, 8, 1, -40)

	assert.InDelta(t, -40.0, s.Decode(0), 1e-9)
	assert.InDelta(t, 215.0, s.Decode(255), 1e-9)
}

func TestSignal_SignedDecode(t *testing.T) {
	s := NewSignedSignal(48, 16, 0.01, 0)

	tests := []struct {
		raw      uint64
		expected float64
	}{
		{0x0000, 0},
		{0x0001, 0.01},
		{0x7FFF, 327.67},
		{0xFFFF, -0.01},
		{0x8000, -327.68},
		{0xFF38, -2.00},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.expected, s.Decode(tt.raw), 1e-9, "raw 0x%04X", tt.raw)
	}
}

func TestSignal_UnsignedRoundTrip(t *testing.T) {
	signals := []Signal{
		NewSignal(0, 8, 0.012, 2.0),
		NewSignal(0, 8, 1, -40),
		NewSignal(0, 12, 0.1, 0),
		NewSignal(0, 16, 0.01, 0),
		NewSignal(0, 8, 0.5, 0),
	}

	for _, s := range signals {
		lo, hi := s.Decode(0), s.Decode(s.mask())
		for i := 0; i <= 1000; i++ {
			v := lo + (hi-lo)*float64(i)/1000
			got := s.Decode(s.Encode(v))
			assert.LessOrEqual(t, math.Abs(got-v), s.Scale/2+1e-9, "signal %s value %v", &s, v)
		}
	}
}

func TestSignal_EncodeSaturates(t *testing.T) {
	s := NewSignal(0, 8, 0.012, 2.0)

	assert.Equal(t, uint64(0), s.Encode(-100))
	assert.Equal(t, uint64(255), s.Encode(100))
	assert.Equal(t, uint64(0), s.Encode(math.NaN()))
	assert.Equal(t, uint64(255), s.Encode(math.Inf(1)))

	signed := NewSignedSignal(0, 16, 0.01, 0)
	assert.Equal(t, uint64(0x7FFF), signed.Encode(1e6))
	assert.Equal(t, uint64(0x8000), signed.Encode(-1e6))
	assert.Equal(t, uint64(0xFF38), signed.Encode(-2))
}

func TestSignal_SetStoresRawBits(t *testing.T) {
	s := NewSignal(0, 8, 1, 0)

	s.Set(2)
	assert.Equal(t, uint64(2), s.Raw())
	assert.Equal(t, 2.0, s.Value())

	s.SetRaw(0x1FF)
	assert.Equal(t, uint64(0xFF), s.Raw(), "raw bits are truncated to the signal length")
}

func TestSignal_Flag(t *testing.T) {
	f := NewFlag(3)

	assert.False(t, f.Bool())
	f.SetRaw(1)
	assert.True(t, f.Bool())
}

func TestSignal_64Bit(t *testing.T) {
	u := NewSignal(0, 64, 1, 0)
	assert.Equal(t, ^uint64(0), u.Encode(math.MaxFloat64))

	s := NewSignedSignal(0, 64, 1, 0)
	assert.Equal(t, uint64(math.MaxInt64), s.Encode(math.MaxFloat64))
	assert.Equal(t, -1.0, s.Decode(^uint64(0)))
}
