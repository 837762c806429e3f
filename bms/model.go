package bms

import (
	"fmt"
	"time"

	"bms-service/canbus"
)

// Config contains configuration for the battery model
type Config struct {
	Logger        canbus.Logger
	StatusTimeout time.Duration
	Clock         func() time.Time
}

type statusSignals struct {
	state   canbus.Signal
	maxTemp canbus.Signal
	minTemp canbus.Signal
	maxV    canbus.Signal
	minV    canbus.Signal
	soc     canbus.Signal
}

type faultSignals struct {
	summary          canbus.Signal
	undertemperature canbus.Signal
	undervoltage     canbus.Signal
	overvoltage      canbus.Signal
	overtemperature  canbus.Signal
	overcurrent      canbus.Signal
	externalKill     canbus.Signal
}

type energySignals struct {
	maxDischarge canbus.Signal
	maxRegen     canbus.Signal
	packVoltage  canbus.Signal
	packTemp     canbus.Signal
	packCurrent  canbus.Signal
}

// Model mirrors the battery controller. It owns every signal and message
// it decodes or transmits; a Registry only borrows them.
//
// All methods must be called from the goroutine that feeds frames and
// ticks the scheduler.
type Model struct {
	log           canbus.Logger
	clock         func() time.Time
	statusTimeout time.Duration

	voltages     [NumCells]canbus.Signal
	temperatures [NumThermistors]canbus.Signal
	status       statusSignals
	faults       faultSignals
	energy       energySignals
	command      canbus.Signal

	voltageMsgs     [NumVoltageMessages]canbus.Message
	temperatureMsgs [NumTemperatureMessages]canbus.Message
	statusMsg       canbus.Message
	faultMsg        canbus.Message
	energyMsg       canbus.Message
	commandMsg      canbus.Message

	lastState  State
	lastStatus time.Time
}

// New builds the model. A Model must not be copied after creation.
func New(config Config) *Model {
	m := &Model{
		log:           config.Logger,
		clock:         config.Clock,
		statusTimeout: config.StatusTimeout,
	}
	if m.log == nil {
		m.log = canbus.NopLogger{}
	}
	if m.clock == nil {
		m.clock = time.Now
	}
	if m.statusTimeout <= 0 {
		m.statusTimeout = StatusTimeout
	}
	m.lastStatus = m.clock()

	m.createCellMessages()
	m.createStatusMessages()
	return m
}

func (m *Model) createCellMessages() {
	for i := range m.voltageMsgs {
		signals := make([]*canbus.Signal, SignalsPerMessage)
		for j := range signals {
			s := &m.voltages[i*SignalsPerMessage+j]
			*s = canbus.NewSignal(uint8(j*8), 8, VoltageScale, VoltageOffset)
			signals[j] = s
		}
		m.voltageMsgs[i] = canbus.NewReceiveMessage(uint32(VoltageBaseFrameID+i), signals...)
	}

	for i := range m.temperatureMsgs {
		signals := make([]*canbus.Signal, SignalsPerMessage)
		for j := range signals {
			s := &m.temperatures[i*SignalsPerMessage+j]
			*s = canbus.NewSignal(uint8(j*8), 8, TemperatureScale, TemperatureOffset)
			signals[j] = s
		}
		m.temperatureMsgs[i] = canbus.NewReceiveMessage(uint32(TemperatureBaseFrameID+i), signals...)
	}
}

func (m *Model) createStatusMessages() {
	st := &m.status
	st.state = canbus.NewSignal(0, 8, 1, 0)
	st.maxTemp = canbus.NewSignal(8, 8, TemperatureScale, TemperatureOffset)
	st.minTemp = canbus.NewSignal(16, 8, TemperatureScale, TemperatureOffset)
	st.maxV = canbus.NewSignal(24, 8, VoltageScale, VoltageOffset)
	st.minV = canbus.NewSignal(32, 8, VoltageScale, VoltageOffset)
	st.soc = canbus.NewSignal(40, 8, 0.5, 0)
	m.statusMsg = canbus.NewReceiveMessage(StatusFrameID,
		&st.state, &st.maxTemp, &st.minTemp, &st.maxV, &st.minV, &st.soc)
	m.statusMsg.OnReceive = m.handleStatus

	f := &m.faults
	f.summary = canbus.NewFlag(faultSummaryBit)
	f.undertemperature = canbus.NewFlag(faultUndertemperatureBit)
	f.undervoltage = canbus.NewFlag(faultUndervoltageBit)
	f.overvoltage = canbus.NewFlag(faultOvervoltageBit)
	f.overtemperature = canbus.NewFlag(faultOvertemperatureBit)
	f.overcurrent = canbus.NewFlag(faultOvercurrentBit)
	f.externalKill = canbus.NewFlag(faultExternalKillBit)
	m.faultMsg = canbus.NewReceiveMessage(FaultFrameID,
		&f.summary, &f.undertemperature, &f.undervoltage, &f.overvoltage,
		&f.overtemperature, &f.overcurrent, &f.externalKill)
	m.faultMsg.OnReceive = m.handleFaults

	e := &m.energy
	e.maxDischarge = canbus.NewSignal(0, 12, 0.1, 0)
	e.maxRegen = canbus.NewSignal(12, 12, 0.1, 0)
	e.packVoltage = canbus.NewSignal(24, 16, 0.01, 0)
	e.packTemp = canbus.NewSignal(40, 8, TemperatureScale, TemperatureOffset)
	e.packCurrent = canbus.NewSignedSignal(48, 16, 0.01, 0)
	m.energyMsg = canbus.NewReceiveMessage(StateOfEnergyFrameID,
		&e.maxDischarge, &e.maxRegen, &e.packVoltage, &e.packTemp, &e.packCurrent)

	m.command = canbus.NewSignal(0, 8, 1, 0)
	m.commandMsg = canbus.NewTransmitMessage(CommandFrameID, CommandLength, CommandPeriod, &m.command)
}

// Register binds every receive message to reg and schedules the command
// frame. Any error is a configuration error.
func (m *Model) Register(reg *canbus.Registry, sched *canbus.Scheduler) error {
	for i := range m.voltageMsgs {
		if err := reg.RegisterReceive(&m.voltageMsgs[i]); err != nil {
			return fmt.Errorf("voltage block %d: %w", i, err)
		}
	}
	for i := range m.temperatureMsgs {
		if err := reg.RegisterReceive(&m.temperatureMsgs[i]); err != nil {
			return fmt.Errorf("temperature block %d: %w", i, err)
		}
	}
	for _, msg := range []*canbus.Message{&m.statusMsg, &m.faultMsg, &m.energyMsg} {
		if err := reg.RegisterReceive(msg); err != nil {
			return err
		}
	}
	if err := sched.AddMessage(reg, &m.commandMsg); err != nil {
		return fmt.Errorf("command frame: %w", err)
	}
	return nil
}

func (m *Model) handleStatus(*canbus.Message) {
	m.lastStatus = m.clock()

	state := m.GetState()
	if state != m.lastState {
		m.log.Info("BMS state changed: %s -> %s", m.lastState, state)
		m.lastState = state
	}
}

func (m *Model) handleFaults(*canbus.Message) {
	if flags := m.GetFaults(); flags.Any() {
		m.log.Debug("BMS fault frame: %+v", flags)
	}
}

func (m *Model) setCommand(cmd Command) {
	if Command(m.command.Raw()) != cmd {
		m.log.Info("BMS command: %s", cmd)
	}
	m.command.Set(float64(cmd))
}

// Shutdown requests the controller to open the contactors. The local
// state only changes once the controller reports it.
func (m *Model) Shutdown() {
	m.setCommand(CommandShutdown)
}

// PrechargeAndCloseContactors requests precharge followed by contactor close.
func (m *Model) PrechargeAndCloseContactors() {
	m.setCommand(CommandPrechargeAndCloseContactors)
}

// ClearFaults requests the controller to clear latched faults.
func (m *Model) ClearFaults() {
	m.setCommand(CommandClearFaults)
}

// Apply writes cmd as the current command.
func (m *Model) Apply(cmd Command) {
	m.setCommand(cmd)
}

func (m *Model) GetCommand() Command {
	return Command(m.command.Raw())
}

// GetState returns the last reported state, StateShutdown before the
// first status frame.
func (m *Model) GetState() State {
	return State(m.status.state.Raw())
}

// IsStale reports whether no status frame arrived within the status
// timeout, counted from creation until the first frame.
func (m *Model) IsStale() bool {
	return m.clock().Sub(m.lastStatus) > m.statusTimeout
}

// GetVoltage returns cell idx in volts. idx must be in [0, NumCells).
func (m *Model) GetVoltage(idx int) (float64, error) {
	if idx < 0 || idx >= NumCells {
		return 0, fmt.Errorf("%w: cell %d (num cells: %d)", ErrIndexOutOfRange, idx, NumCells)
	}
	return m.voltages[idx].Value(), nil
}

// GetTemperature returns thermistor idx in degC. idx must be in [0, NumThermistors).
func (m *Model) GetTemperature(idx int) (float64, error) {
	if idx < 0 || idx >= NumThermistors {
		return 0, fmt.Errorf("%w: thermistor %d (num thermistors: %d)", ErrIndexOutOfRange, idx, NumThermistors)
	}
	return m.temperatures[idx].Value(), nil
}

func (m *Model) GetCurrent() float64             { return m.energy.packCurrent.Value() }
func (m *Model) GetPackVoltage() float64         { return m.energy.packVoltage.Value() }
func (m *Model) GetPackTemperature() float64     { return m.energy.packTemp.Value() }
func (m *Model) GetMaxDischargeCurrent() float64 { return m.energy.maxDischarge.Value() }
func (m *Model) GetMaxRegenCurrent() float64     { return m.energy.maxRegen.Value() }

func (m *Model) GetSoC() float64                { return m.status.soc.Value() }
func (m *Model) GetMaxCellVoltage() float64     { return m.status.maxV.Value() }
func (m *Model) GetMinCellVoltage() float64     { return m.status.minV.Value() }
func (m *Model) GetMaxCellTemperature() float64 { return m.status.maxTemp.Value() }
func (m *Model) GetMinCellTemperature() float64 { return m.status.minTemp.Value() }

func (m *Model) GetFaultSummary() Fault     { return Fault(m.faults.summary.Bool()) }
func (m *Model) GetUndervoltage() Fault     { return Fault(m.faults.undervoltage.Bool()) }
func (m *Model) GetOvervoltage() Fault      { return Fault(m.faults.overvoltage.Bool()) }
func (m *Model) GetUndertemperature() Fault { return Fault(m.faults.undertemperature.Bool()) }
func (m *Model) GetOvertemperature() Fault  { return Fault(m.faults.overtemperature.Bool()) }
func (m *Model) GetOvercurrent() Fault      { return Fault(m.faults.overcurrent.Bool()) }
func (m *Model) GetExternalKill() Fault     { return Fault(m.faults.externalKill.Bool()) }

func (m *Model) GetFaults() FaultFlags {
	return FaultFlags{
		Summary:          m.faults.summary.Bool(),
		Undervoltage:     m.faults.undervoltage.Bool(),
		Overvoltage:      m.faults.overvoltage.Bool(),
		Undertemperature: m.faults.undertemperature.Bool(),
		Overtemperature:  m.faults.overtemperature.Bool(),
		Overcurrent:      m.faults.overcurrent.Bool(),
		ExternalKill:     m.faults.externalKill.Bool(),
	}
}

func (m *Model) ActiveFaults() map[FaultCode]bool {
	faults := m.GetFaults().faultCodes()
	faults[FaultStatusTimeout] = m.IsStale()
	return faults
}

var (
	_ Telemetry  = (*Model)(nil)
	_ Controller = (*Model)(nil)
)
