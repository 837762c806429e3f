package canbus

import (
	"fmt"
	"math"
)

// Signal is a bit field inside a frame payload with a linear conversion
// physical = raw*Scale + Offset. Bits are numbered little-endian from
// byte 0 bit 0. The signal stores raw bits only; the physical value is
// recomputed on every read.
type Signal struct {
	Start  uint8
	Length uint8
	Scale  float64
	Offset float64
	Signed bool

	raw uint64
}

// NewSignal creates an unsigned signal.
func NewSignal(start, length uint8, scale, offset float64) Signal {
	return Signal{Start: start, Length: length, Scale: scale, Offset: offset}
}

// NewSignedSignal creates a two's-complement signal.
func NewSignedSignal(start, length uint8, scale, offset float64) Signal {
	return Signal{Start: start, Length: length, Scale: scale, Offset: offset, Signed: true}
}

// NewFlag creates a one bit boolean signal.
func NewFlag(start uint8) Signal {
	return NewSignal(start, 1, 1, 0)
}

func (s *Signal) validate() error {
	if s.Length == 0 || s.Length > 64 {
		return fmt.Errorf("%w: length %d", ErrSignalRange, s.Length)
	}
	if s.end() > 64 {
		return fmt.Errorf("%w: bits %d..%d exceed 64", ErrSignalRange, s.Start, s.end()-1)
	}
	if s.Scale == 0 || math.IsNaN(s.Scale) || math.IsInf(s.Scale, 0) {
		return fmt.Errorf("%w: scale %v", ErrSignalRange, s.Scale)
	}
	return nil
}

// end is the first bit after the signal.
func (s *Signal) end() uint16 {
	return uint16(s.Start) + uint16(s.Length)
}

func (s *Signal) mask() uint64 {
	if s.Length >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << s.Length) - 1
}

// rawRange returns the smallest and largest representable raw integers.
func (s *Signal) rawRange() (float64, float64) {
	if s.Signed {
		half := math.Ldexp(1, int(s.Length)-1)
		return -half, half - 1
	}
	return 0, math.Ldexp(1, int(s.Length)) - 1
}

// Decode converts raw bits to the physical value.
func (s *Signal) Decode(raw uint64) float64 {
	raw &= s.mask()
	if s.Signed && s.Length < 64 && raw&(uint64(1)<<(s.Length-1)) != 0 {
		return float64(int64(raw|^s.mask()))*s.Scale + s.Offset
	}
	if s.Signed {
		return float64(int64(raw))*s.Scale + s.Offset
	}
	return float64(raw)*s.Scale + s.Offset
}

// Encode converts a physical value to raw bits. Values outside the
// representable range saturate to the nearest raw bound; NaN encodes as
// raw zero.
func (s *Signal) Encode(v float64) uint64 {
	if math.IsNaN(v) {
		return 0
	}
	r := math.Round((v - s.Offset) / s.Scale)
	lo, hi := s.rawRange()
	if r < lo {
		r = lo
	}
	if r > hi {
		r = hi
	}
	if s.Signed {
		// hi+1 for a 64 bit signal is 2^63 which does not fit int64
		if r >= math.Ldexp(1, 63) {
			return uint64(math.MaxInt64) & s.mask()
		}
		return uint64(int64(r)) & s.mask()
	}
	if r >= math.Ldexp(1, 64) {
		return s.mask()
	}
	return uint64(r) & s.mask()
}

// Value returns the decoded physical value of the stored raw bits.
func (s *Signal) Value() float64 {
	return s.Decode(s.raw)
}

// Set stores the encoding of v.
func (s *Signal) Set(v float64) {
	s.raw = s.Encode(v)
}

// Raw returns the stored raw bits.
func (s *Signal) Raw() uint64 {
	return s.raw
}

// SetRaw stores raw bits, truncated to the signal length.
func (s *Signal) SetRaw(raw uint64) {
	s.raw = raw & s.mask()
}

// Bool reports whether any stored bit is set.
func (s *Signal) Bool() bool {
	return s.raw != 0
}

func (s *Signal) String() string {
	return fmt.Sprintf("%d:%d", s.Start, s.Length)
}
