package bms

import "time"

const (
	// Receive frames
	VoltageBaseFrameID     = 512 // 512..531
	TemperatureBaseFrameID = 544 // 544..559
	StateOfEnergyFrameID   = 576
	StatusFrameID          = 577
	FaultFrameID           = 592

	// Transmit frames
	CommandFrameID = 0x242
	CommandLength  = 1
	CommandPeriod  = 100 * time.Millisecond

	SignalsPerMessage      = 7
	NumVoltageMessages     = 20
	NumTemperatureMessages = 16
	NumCells               = NumVoltageMessages * SignalsPerMessage
	NumThermistors         = NumTemperatureMessages * SignalsPerMessage

	// Cell voltage: 0.012 V/bit from 2.0 V
	VoltageScale  = 0.012
	VoltageOffset = 2.0

	// Temperature: 1 degC/bit from -40 degC
	TemperatureScale  = 1.0
	TemperatureOffset = -40.0

	// StatusTimeout is how long the mirrored state is trusted without a
	// status frame.
	StatusTimeout = 2 * time.Second
)

// Fault frame bit positions. The controller documentation places both
// over-voltage and under-temperature at bit 3; under-temperature is read
// from the otherwise unused bit 1.
const (
	faultSummaryBit          = 0
	faultUndertemperatureBit = 1
	faultUndervoltageBit     = 2
	faultOvervoltageBit      = 3
	faultOvertemperatureBit  = 4
	faultOvercurrentBit      = 5
	faultExternalKillBit     = 6
)
