package bms

// FaultCode identifies a diagnostic fault raised by the service.
type FaultCode uint32

const (
	FaultNone FaultCode = iota
	FaultSummary
	FaultUndervoltage
	FaultOvervoltage
	FaultUndertemperature
	FaultOvertemperature
	FaultOvercurrent
	FaultExternalKill
	FaultStatusTimeout
)

// FaultLast is the highest defined fault code.
const FaultLast = FaultStatusTimeout

type FaultSeverity int

const (
	SeverityWarning FaultSeverity = iota
	SeverityCritical
)

type FaultConfig struct {
	Code        FaultCode
	Description string
	Severity    FaultSeverity
}

var faultConfigs = map[FaultCode]FaultConfig{
	FaultSummary:          {FaultSummary, "BMS fault present", SeverityCritical},
	FaultUndervoltage:     {FaultUndervoltage, "Cell under-voltage", SeverityCritical},
	FaultOvervoltage:      {FaultOvervoltage, "Cell over-voltage", SeverityCritical},
	FaultUndertemperature: {FaultUndertemperature, "Cell under-temperature", SeverityWarning},
	FaultOvertemperature:  {FaultOvertemperature, "Cell over-temperature", SeverityCritical},
	FaultOvercurrent:      {FaultOvercurrent, "Pack over-current", SeverityCritical},
	FaultExternalKill:     {FaultExternalKill, "External kill asserted", SeverityCritical},
	FaultStatusTimeout:    {FaultStatusTimeout, "BMS status frame timeout", SeverityWarning},
}

func GetFaultConfig(fault FaultCode) (FaultConfig, bool) {
	config, ok := faultConfigs[fault]
	return config, ok
}

// faultCodes maps the decoded flags to diagnostic codes.
func (f FaultFlags) faultCodes() map[FaultCode]bool {
	return map[FaultCode]bool{
		FaultSummary:          f.Summary,
		FaultUndervoltage:     f.Undervoltage,
		FaultOvervoltage:      f.Overvoltage,
		FaultUndertemperature: f.Undertemperature,
		FaultOvertemperature:  f.Overtemperature,
		FaultOvercurrent:      f.Overcurrent,
		FaultExternalKill:     f.ExternalKill,
	}
}
