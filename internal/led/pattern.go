package led

import (
	"time"

	"github.com/DoyleJ11/arcade-lobby/internal/hal"
)

// Mode is the indicator state for one tick.
type Mode uint8

const (
	Idle       Mode = iota // discharging: steady base colour
	Blink                  // charging: base colour at charge rate
	TopUpSolid             // charging and full
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Blink:
		return "blink"
	case TopUpSolid:
		return "top_up"
	default:
		return "unknown"
	}
}

// Pattern is what the indicator shows for one tick: Color for On, then dark
// for Off. Off == 0 means no dark phase.
type Pattern struct {
	Mode  Mode
	Color hal.Color
	On    time.Duration
	Off   time.Duration
}

const (
	lowPercent   = 20
	midPercent   = 60
	toppedUp     = 99
	chargeOn     = 500 * time.Millisecond
	chargeOff    = 500 * time.Millisecond
	dischargeOn  = 200 * time.Millisecond
	toppedUpHold = 500 * time.Millisecond
)

// Base returns the colour band for a charge percentage.
func Base(percent uint8) hal.Color {
	switch {
	case percent < lowPercent:
		return hal.Red
	case percent < midPercent:
		return hal.Amber
	default:
		return hal.Green
	}
}

// Select is level-triggered: the result depends only on the two inputs.
func Select(percent uint8, charging bool) Pattern {
	switch {
	case charging && percent >= toppedUp:
		return Pattern{Mode: TopUpSolid, Color: hal.Green, On: toppedUpHold}
	case charging:
		return Pattern{Mode: Blink, Color: Base(percent), On: chargeOn, Off: chargeOff}
	default:
		return Pattern{Mode: Idle, Color: Base(percent), On: dischargeOn}
	}
}
