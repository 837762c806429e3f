package bms

// Telemetry is the read side used by the telemetry bridge.
type Telemetry interface {
	// GetState returns the state last reported by the controller
	GetState() State

	// GetCurrent returns pack current in A, negative while charging
	GetCurrent() float64

	// GetVoltage returns the voltage of cell idx in V
	GetVoltage(idx int) (float64, error)

	// GetTemperature returns thermistor idx in degC
	GetTemperature(idx int) (float64, error)

	GetSoC() float64
	GetPackVoltage() float64
	GetPackTemperature() float64
	GetMaxDischargeCurrent() float64
	GetMaxRegenCurrent() float64
	GetMaxCellVoltage() float64
	GetMinCellVoltage() float64
	GetMaxCellTemperature() float64
	GetMinCellTemperature() float64

	GetFaultSummary() Fault
	GetUndervoltage() Fault
	GetOvervoltage() Fault
	GetUndertemperature() Fault
	GetOvertemperature() Fault
	GetOvercurrent() Fault
	GetExternalKill() Fault
	GetFaults() FaultFlags

	// ActiveFaults returns the diagnostic view of the fault frame plus
	// status staleness
	ActiveFaults() map[FaultCode]bool

	// IsStale returns true if status frames stopped arriving
	IsStale() bool

	GetCommand() Command
}

// Controller is the write side used by the telemetry bridge.
type Controller interface {
	Shutdown()
	PrechargeAndCloseContactors()
	ClearFaults()
}
