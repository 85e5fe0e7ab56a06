// Package hal describes the board-level inputs and outputs the controller
// drives: the battery sense divider, the charge-detect pin, the RGB status
// light and the power/radio controller.
package hal

// AnalogInput is a single ADC channel.
type AnalogInput interface {
	ReadRaw() (uint16, error)
}

// DigitalInput is a GPIO configured as input.
type DigitalInput interface {
	Get() bool
}

// Color is an 8-bit-per-channel RGB value.
type Color struct {
	R, G, B uint8
}

var (
	Off   = Color{}
	Red   = Color{R: 255, G: 16}
	Amber = Color{R: 255, G: 120}
	Green = Color{G: 255}
)

// RGB is the status light.
type RGB interface {
	Set(c Color)
}

// PowerControl switches the radio off and powers the board down.
// EnterLowPowerHalt does not return on real hardware.
type PowerControl interface {
	DisableRadio() error
	EnterLowPowerHalt()
}
