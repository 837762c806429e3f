package main

import "bms-service/bms"

// TelemetrySnapshot is one refresh of the battery mirror as written to Redis
type TelemetrySnapshot struct {
	State   string
	Stale   bool
	Command string

	Current             float64
	SoC                 float64
	PackVoltage         float64
	PackTemperature     float64
	MaxDischargeCurrent float64
	MaxRegenCurrent     float64
	MaxCellVoltage      float64
	MinCellVoltage      float64
	MaxCellTemperature  float64
	MinCellTemperature  float64

	Voltages     [bms.NumCells]float64
	Temperatures [bms.NumThermistors]float64

	Faults       bms.FaultFlags
	ActiveFaults map[bms.FaultCode]bool
}

// NewTelemetrySnapshot copies everything the bridge publishes out of t.
func NewTelemetrySnapshot(t bms.Telemetry) TelemetrySnapshot {
	s := TelemetrySnapshot{
		State:               t.GetState().String(),
		Stale:               t.IsStale(),
		Command:             t.GetCommand().String(),
		Current:             t.GetCurrent(),
		SoC:                 t.GetSoC(),
		PackVoltage:         t.GetPackVoltage(),
		PackTemperature:     t.GetPackTemperature(),
		MaxDischargeCurrent: t.GetMaxDischargeCurrent(),
		MaxRegenCurrent:     t.GetMaxRegenCurrent(),
		MaxCellVoltage:      t.GetMaxCellVoltage(),
		MinCellVoltage:      t.GetMinCellVoltage(),
		MaxCellTemperature:  t.GetMaxCellTemperature(),
		MinCellTemperature:  t.GetMinCellTemperature(),
		Faults:              t.GetFaults(),
		ActiveFaults:        t.ActiveFaults(),
	}

	for i := range s.Voltages {
		if v, err := t.GetVoltage(i); err == nil {
			s.Voltages[i] = v
		}
	}
	for i := range s.Temperatures {
		if v, err := t.GetTemperature(i); err == nil {
			s.Temperatures[i] = v
		}
	}
	return s
}

func onOff(b bool) string {
	return map[bool]string{true: "on", false: "off"}[b]
}
