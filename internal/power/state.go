package power

import "sync/atomic"

// Phase is the shutdown state machine: Running -> ShuttingDown -> Halted.
type Phase uint8

const (
	Running Phase = iota
	ShuttingDown
	Halted
)

func (p Phase) String() string {
	switch p {
	case Running:
		return "running"
	case ShuttingDown:
		return "shutting_down"
	case Halted:
		return "halted"
	default:
		return "unknown"
	}
}

// Reading is one battery sample.
type Reading struct {
	Percent    uint8
	Charging   bool
	MilliVolts uint16
}

// State is the process-wide power cell. The sampler is its only writer;
// every field lives in one 64-bit word so readers never observe a reading
// split across two ticks. A reader may see the previous tick's value.
//
// layout: [0:8) percent, [8] charging, [16:32) millivolts, [32:40) phase
type State struct {
	word atomic.Uint64
}

func NewState() *State { return &State{} }

func (s *State) Load() Reading {
	return unpack(s.word.Load())
}

func (s *State) Phase() Phase {
	return Phase(s.word.Load() >> 32)
}

// Running reports whether the shutdown protocol has not started.
func (s *State) Running() bool { return s.Phase() == Running }

// Store publishes r. Only the sampler calls it.
func (s *State) Store(r Reading) {
	old := s.word.Load()
	s.word.Store(old&^0xFFFFFFFF | pack(r))
}

func (s *State) setPhase(p Phase) {
	old := s.word.Load()
	s.word.Store(old&0xFFFFFFFF | uint64(p)<<32)
}

func pack(r Reading) uint64 {
	w := uint64(r.Percent) | uint64(r.MilliVolts)<<16
	if r.Charging {
		w |= 1 << 8
	}
	return w
}

func unpack(w uint64) Reading {
	return Reading{
		Percent:    uint8(w),
		Charging:   w&(1<<8) != 0,
		MilliVolts: uint16(w >> 16),
	}
}
