package power

import (
	"math"

	"github.com/DoyleJ11/arcade-lobby/internal/mathx"
)

// Calibration converts a raw divider reading into millivolts and a charge
// percentage. Defaults match a 12-bit ADC with a 3.1 V reference behind a
// 10k/10k divider on a single Li-ion cell.
type Calibration struct {
	ADCMax       uint16 // full-scale raw reading
	RefMilliV    uint32 // ADC reference
	DividerMilli uint32 // divider factor x1000
	EmptyMilliV  uint32 // maps to 0%
	FullMilliV   uint32 // maps to 100%
}

func DefaultCalibration() Calibration {
	return Calibration{
		ADCMax:       4095,
		RefMilliV:    3100,
		DividerMilli: 2000,
		EmptyMilliV:  3000,
		FullMilliV:   4200,
	}
}

// MilliVolts returns raw / ADCMax * ref * divider, saturated to uint16.
func (c Calibration) MilliVolts(raw uint16) uint16 {
	mv := mathx.ScaleU32(uint32(raw), c.RefMilliV*c.DividerMilli, uint32(c.ADCMax)*1000)
	return uint16(mathx.Clamp(mv, 0, math.MaxUint16))
}

// Percent maps millivolts linearly onto [0,100], saturating outside the
// calibration points.
func (c Calibration) Percent(mv uint16) uint8 {
	return uint8(mathx.MapU32(uint32(mv), c.EmptyMilliV, c.FullMilliV, 0, 100))
}

// Sample converts a raw reading in one step.
func (c Calibration) Sample(raw uint16, charging bool) Reading {
	mv := c.MilliVolts(raw)
	return Reading{Percent: c.Percent(mv), Charging: charging, MilliVolts: mv}
}
