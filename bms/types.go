package bms

import (
	"errors"
	"fmt"
)

var (
	ErrIndexOutOfRange = errors.New("bms: index out of range")
	ErrUnknownAction   = errors.New("bms: unknown action")
)

// State is the operating state reported by the remote controller.
type State uint8

const (
	StateShutdown State = iota
	StatePrecharge
	StateActive
	StateCharging
	StateFault
)

func (s State) String() string {
	switch s {
	case StateShutdown:
		return "Shutdown"
	case StatePrecharge:
		return "Precharge"
	case StateActive:
		return "Active"
	case StateCharging:
		return "Charging"
	case StateFault:
		return "Fault"
	default:
		return "Error"
	}
}

// Command is written locally and carried to the controller by the
// periodic command frame.
type Command uint8

const (
	CommandNoAction Command = iota
	CommandPrechargeAndCloseContactors
	CommandShutdown
	CommandClearFaults
)

func (c Command) String() string {
	switch c {
	case CommandNoAction:
		return "no-action"
	case CommandPrechargeAndCloseContactors:
		return "precharge-and-close-contactors"
	case CommandShutdown:
		return "shutdown"
	case CommandClearFaults:
		return "clear-faults"
	default:
		return fmt.Sprintf("command(%d)", uint8(c))
	}
}

// ParseAction maps a bridge action to a command.
func ParseAction(action string) (Command, error) {
	switch action {
	case "estop", "shutdown":
		return CommandShutdown, nil
	case "enable":
		return CommandPrechargeAndCloseContactors, nil
	case "clear-faults":
		return CommandClearFaults, nil
	default:
		return CommandNoAction, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}
}

// Fault is the decoded value of one fault flag.
type Fault bool

const (
	NotFaulted Fault = false
	Faulted    Fault = true
)

func (f Fault) String() string {
	if f {
		return "faulted"
	}
	return "ok"
}

// FaultFlags is the full content of the fault frame.
type FaultFlags struct {
	Summary          bool
	Undervoltage     bool
	Overvoltage      bool
	Undertemperature bool
	Overtemperature  bool
	Overcurrent      bool
	ExternalKill     bool
}

// Any reports whether any flag is set.
func (f FaultFlags) Any() bool {
	return f.Summary || f.Undervoltage || f.Overvoltage || f.Undertemperature ||
		f.Overtemperature || f.Overcurrent || f.ExternalKill
}
