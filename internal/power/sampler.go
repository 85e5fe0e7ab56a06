package power

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/arcade-lobby/internal/hal"
	"github.com/DoyleJ11/arcade-lobby/internal/types"
)

const (
	DefaultInterval   = 5 * time.Second
	DefaultHold       = 2 * time.Second
	DefaultLowPercent = 20
)

// Broadcaster is the part of the transport the sampler needs.
type Broadcaster interface {
	BroadcastAll(b []byte)
	CloseAll()
	ConnectedCount() int
}

// Alerter takes the status light away from the indicator and shows c.
type Alerter interface {
	Alert(c hal.Color)
}

type Config struct {
	Interval    time.Duration
	Hold        time.Duration // alert visible before connections drop
	LowPercent  uint8         // shutdown when percent < LowPercent and not charging
	Calibration Calibration
}

func DefaultConfig() Config {
	return Config{
		Interval:    DefaultInterval,
		Hold:        DefaultHold,
		LowPercent:  DefaultLowPercent,
		Calibration: DefaultCalibration(),
	}
}

// Sampler is the periodic battery task and the only writer of State.
type Sampler struct {
	cfg    Config
	state  *State
	sense  hal.AnalogInput
	charge hal.DigitalInput
	out    Broadcaster
	alert  Alerter
	power  hal.PowerControl
	log    *zap.Logger
	sleep  func(time.Duration)
}

func NewSampler(cfg Config, state *State, sense hal.AnalogInput, charge hal.DigitalInput,
	out Broadcaster, alert Alerter, pc hal.PowerControl, log *zap.Logger) *Sampler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Sampler{
		cfg:    cfg,
		state:  state,
		sense:  sense,
		charge: charge,
		out:    out,
		alert:  alert,
		power:  pc,
		log:    log,
		sleep:  time.Sleep,
	}
}

// Run samples immediately, then every Interval, until ctx ends or the
// shutdown protocol completes.
func (s *Sampler) Run(ctx context.Context) error {
	if s.Tick() {
		return nil
	}
	tick := time.NewTicker(s.cfg.Interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("sampler stopping")
			return nil
		case <-tick.C:
			if s.Tick() {
				return nil
			}
		}
	}
}

// Tick takes one sample. It reports true once the device has been halted.
func (s *Sampler) Tick() bool {
	if !s.state.Running() {
		return true
	}
	raw, err := s.sense.ReadRaw()
	if err != nil {
		s.log.Warn("battery sense read failed", zap.Error(err))
		return false
	}
	r := s.cfg.Calibration.Sample(raw, s.charge.Get())
	s.state.Store(r)
	s.log.Debug("battery",
		zap.Uint16("raw", raw),
		zap.Uint16("mv", r.MilliVolts),
		zap.Uint8("percent", r.Percent),
		zap.Bool("charging", r.Charging))

	if s.out.ConnectedCount() > 0 {
		if b, err := json.Marshal(types.NewBattery(r.Percent)); err == nil {
			s.out.BroadcastAll(b)
		}
	}

	if r.Percent < s.cfg.LowPercent && !r.Charging {
		s.shutdown(r)
		return true
	}
	return false
}

// shutdown is terminal; the hold is not cancelable.
func (s *Sampler) shutdown(r Reading) {
	s.state.setPhase(ShuttingDown)
	s.log.Warn("battery critical, shutting down",
		zap.Uint8("percent", r.Percent),
		zap.Uint16("mv", r.MilliVolts))

	s.alert.Alert(hal.Red)
	s.sleep(s.cfg.Hold)

	s.out.CloseAll()
	if err := s.power.DisableRadio(); err != nil {
		s.log.Error("disable radio", zap.Error(err))
	}
	s.state.setPhase(Halted)
	s.power.EnterLowPowerHalt()
}
