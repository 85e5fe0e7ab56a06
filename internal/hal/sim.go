package hal

import (
	"errors"
	"sync/atomic"

	"go.uber.org/zap"
)

var ErrSenseUnavailable = errors.New("battery sense unavailable")

// SimSense is a host stand-in for the battery divider ADC and the
// charge-detect pin. Values are set by configuration or the debug endpoint.
type SimSense struct {
	raw      atomic.Uint32
	charging atomic.Bool
	fail     atomic.Bool
}

func NewSimSense(raw uint16, charging bool) *SimSense {
	s := &SimSense{}
	s.Set(raw, charging)
	return s
}

func (s *SimSense) Set(raw uint16, charging bool) {
	s.raw.Store(uint32(raw))
	s.charging.Store(charging)
}

// SetFailing makes ReadRaw return ErrSenseUnavailable until cleared.
func (s *SimSense) SetFailing(fail bool) { s.fail.Store(fail) }

func (s *SimSense) ReadRaw() (uint16, error) {
	if s.fail.Load() {
		return 0, ErrSenseUnavailable
	}
	return uint16(s.raw.Load()), nil
}

// Charge returns the charge-detect pin view of s.
func (s *SimSense) Charge() DigitalInput { return simPin{s} }

type simPin struct{ s *SimSense }

func (p simPin) Get() bool { return p.s.charging.Load() }

// LogLED records the status light colour and logs transitions.
type LogLED struct {
	log *zap.Logger
	cur atomic.Uint32
}

func NewLogLED(log *zap.Logger) *LogLED {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogLED{log: log}
}

func (l *LogLED) Set(c Color) {
	packed := uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
	if l.cur.Swap(packed) != packed {
		l.log.Debug("led", zap.Uint8("r", c.R), zap.Uint8("g", c.G), zap.Uint8("b", c.B))
	}
}

// Current returns the last colour written.
func (l *LogLED) Current() Color {
	v := l.cur.Load()
	return Color{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}
}

// HostPower maps the power collaborator onto a host process: the radio is
// the HTTP listener and halting exits the process.
type HostPower struct {
	log          *zap.Logger
	disableRadio func() error
	exit         func(code int)
}

func NewHostPower(log *zap.Logger, disableRadio func() error, exit func(code int)) *HostPower {
	if log == nil {
		log = zap.NewNop()
	}
	return &HostPower{log: log, disableRadio: disableRadio, exit: exit}
}

func (p *HostPower) DisableRadio() error {
	p.log.Warn("radio off")
	if p.disableRadio == nil {
		return nil
	}
	return p.disableRadio()
}

func (p *HostPower) EnterLowPowerHalt() {
	p.log.Error("entering low-power halt")
	_ = p.log.Sync()
	if p.exit != nil {
		p.exit(0)
	}
	select {}
}
