package canbus

import (
	"fmt"

	"github.com/brutella/can"
)

// Transport sends a frame onto the bus. *can.Bus satisfies it.
type Transport interface {
	Publish(frame can.Frame) error
}

// Registry maps identifiers to messages for decode-on-receive and
// encode-on-transmit. It holds references only; messages are owned by
// whoever registered them. Not safe for concurrent use.
type Registry struct {
	log       Logger
	transport Transport
	rx        map[uint32]*Message
	tx        map[uint32]*Message
}

func NewRegistry(logger Logger, transport Transport) *Registry {
	if logger == nil {
		logger = NopLogger{}
	}
	return &Registry{
		log:       logger,
		transport: transport,
		rx:        make(map[uint32]*Message),
		tx:        make(map[uint32]*Message),
	}
}

// RegisterReceive binds msg.ID to msg as a decode target.
func (r *Registry) RegisterReceive(msg *Message) error {
	return r.register(r.rx, Receive, msg)
}

// RegisterTransmit binds msg.ID, payload length and period for periodic send.
func (r *Registry) RegisterTransmit(msg *Message) error {
	return r.register(r.tx, Transmit, msg)
}

func (r *Registry) register(table map[uint32]*Message, dir Direction, msg *Message) error {
	if msg.Direction != dir {
		return fmt.Errorf("%w: id 0x%03X is %v, want %v", ErrDirection, msg.ID, msg.Direction, dir)
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	if _, ok := table[msg.ID]; ok {
		r.log.Error("Duplicate %v registration for id 0x%03X", dir, msg.ID)
		return fmt.Errorf("%w: %v id 0x%03X", ErrDuplicateID, dir, msg.ID)
	}
	table[msg.ID] = msg
	return nil
}

// OnFrame decodes payload into the receive message registered for id.
// Unregistered identifiers are ignored. It reports whether a message
// was updated.
func (r *Registry) OnFrame(id uint32, payload []byte) bool {
	msg, ok := r.rx[id]
	if !ok {
		return false
	}

	if err := msg.Decode(payload); err != nil {
		r.log.Warn("Dropping frame: %v", err)
		return false
	}
	return true
}

// Handle implements can.Handler.
func (r *Registry) Handle(frame can.Frame) {
	length := frame.Length
	if length > MaxPayload {
		length = MaxPayload
	}
	if _, ok := r.rx[frame.ID]; ok {
		DebugCANFrame(r.log, "RX", frame)
	}
	r.OnFrame(frame.ID, frame.Data[:length])
}

// BuildFrame encodes msg into a frame of its declared length.
func (r *Registry) BuildFrame(msg *Message) can.Frame {
	frame := can.Frame{
		ID:     msg.ID,
		Length: msg.Length,
	}
	copy(frame.Data[:], msg.Encode())
	return frame
}

// Send builds and publishes the transmit message registered for msg.ID.
// Transport failures are wrapped in ErrTransmit and are not retried here.
func (r *Registry) Send(msg *Message) error {
	if registered, ok := r.tx[msg.ID]; !ok || registered != msg {
		return fmt.Errorf("%w: id 0x%03X is not a registered transmit message", ErrMessage, msg.ID)
	}
	if r.transport == nil {
		return fmt.Errorf("%w: id 0x%03X: no transport", ErrTransmit, msg.ID)
	}

	frame := r.BuildFrame(msg)
	DebugCANFrame(r.log, "TX", frame)

	if err := r.transport.Publish(frame); err != nil {
		return fmt.Errorf("%w: id 0x%03X: %v", ErrTransmit, msg.ID, err)
	}
	return nil
}

// Receiving returns the receive message registered for id.
func (r *Registry) Receiving(id uint32) (*Message, bool) {
	msg, ok := r.rx[id]
	return msg, ok
}
