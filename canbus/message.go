package canbus

import (
	"fmt"
	"sort"
	"time"

	"go.einride.tech/can"
)

const (
	// MaxStandardID is the largest 11-bit identifier.
	MaxStandardID = 0x7FF

	// MaxPayload is the classic CAN payload size in bytes.
	MaxPayload = 8
)

// Direction tells whether a message is decoded from the bus or sent to it.
type Direction int

const (
	Receive Direction = iota
	Transmit
)

func (d Direction) String() string {
	switch d {
	case Receive:
		return "RX"
	case Transmit:
		return "TX"
	default:
		return "unknown"
	}
}

// Message binds an ordered set of non-overlapping signals to one CAN
// identifier. The signals are not owned by the message.
type Message struct {
	ID        uint32
	Direction Direction
	Length    uint8         // payload bytes
	Period    time.Duration // transmit only

	Signals []*Signal

	// OnReceive is called after every successful decode.
	OnReceive func(m *Message)
}

// NewReceiveMessage binds signals to an 8 byte receive frame.
func NewReceiveMessage(id uint32, signals ...*Signal) Message {
	return Message{
		ID:        id,
		Direction: Receive,
		Length:    MaxPayload,
		Signals:   signals,
	}
}

// NewTransmitMessage binds signals to a periodic transmit frame of length bytes.
func NewTransmitMessage(id uint32, length uint8, period time.Duration, signals ...*Signal) Message {
	return Message{
		ID:        id,
		Direction: Transmit,
		Length:    length,
		Period:    period,
		Signals:   signals,
	}
}

// Validate checks identifier, length, period and signal layout.
func (m *Message) Validate() error {
	if m.ID > MaxStandardID {
		return fmt.Errorf("%w: id 0x%X is not an 11-bit identifier", ErrMessage, m.ID)
	}
	if m.Length == 0 || m.Length > MaxPayload {
		return fmt.Errorf("%w: id 0x%03X length %d", ErrMessage, m.ID, m.Length)
	}
	if m.Direction == Transmit && m.Period <= 0 {
		return fmt.Errorf("%w: id 0x%03X transmit period %v", ErrMessage, m.ID, m.Period)
	}
	if len(m.Signals) == 0 {
		return fmt.Errorf("%w: id 0x%03X has no signals", ErrMessage, m.ID)
	}

	sorted := make([]*Signal, 0, len(m.Signals))
	for _, s := range m.Signals {
		if s == nil {
			return fmt.Errorf("%w: id 0x%03X nil signal", ErrMessage, m.ID)
		}
		if err := s.validate(); err != nil {
			return fmt.Errorf("id 0x%03X signal %s: %w", m.ID, s, err)
		}
		if s.end() > uint16(m.Length)*8 {
			return fmt.Errorf("%w: id 0x%03X signal %s exceeds %d byte payload", ErrSignalRange, m.ID, s, m.Length)
		}
		sorted = append(sorted, s)
	}

	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })
	for i := 1; i < len(sorted); i++ {
		if uint16(sorted[i].Start) < sorted[i-1].end() {
			return fmt.Errorf("%w: id 0x%03X signals %s and %s", ErrSignalOverlap, m.ID, sorted[i-1], sorted[i])
		}
	}
	return nil
}

// span returns the number of payload bytes covered by the signals.
func (m *Message) span() int {
	var end uint16
	for _, s := range m.Signals {
		if e := s.end(); e > end {
			end = e
		}
	}
	return int(end+7) / 8
}

// Decode splits payload into the signals. A payload shorter than the
// signals' bit span is rejected and leaves every signal untouched.
func (m *Message) Decode(payload []byte) error {
	if len(payload) < m.span() {
		return fmt.Errorf("%w: id 0x%03X got %d bytes, need %d", ErrPayloadLength, m.ID, len(payload), m.span())
	}

	var data can.Data
	copy(data[:], payload)
	for _, s := range m.Signals {
		s.SetRaw(data.UnsignedBitsLittleEndian(s.Start, s.Length))
	}

	if m.OnReceive != nil {
		m.OnReceive(m)
	}
	return nil
}

// Encode packs the signals into a payload of the declared length. Bits
// not covered by a signal are zero.
func (m *Message) Encode() []byte {
	var data can.Data
	for _, s := range m.Signals {
		data.SetUnsignedBitsLittleEndian(s.Start, s.Length, s.Raw())
	}

	out := make([]byte, m.Length)
	copy(out, data[:m.Length])
	return out
}
