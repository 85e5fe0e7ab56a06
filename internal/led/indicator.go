package led

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/arcade-lobby/internal/hal"
	"github.com/DoyleJ11/arcade-lobby/internal/power"
)

// Indicator renders the power state on the status light. Its period adapts
// to the pattern: each iteration lasts On+Off of the selected pattern.
type Indicator struct {
	state *power.State
	light hal.RGB
	log   *zap.Logger
}

func NewIndicator(state *power.State, light hal.RGB, log *zap.Logger) *Indicator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Indicator{state: state, light: light, log: log}
}

func (in *Indicator) Run(ctx context.Context) error {
	last := Mode(255)
	for in.state.Running() {
		r := in.state.Load()
		p := Select(r.Percent, r.Charging)
		if p.Mode != last {
			in.log.Debug("pattern", zap.Stringer("mode", p.Mode), zap.Uint8("percent", r.Percent))
			last = p.Mode
		}
		if !in.render(ctx, p) {
			return nil
		}
	}
	in.log.Info("indicator stopped", zap.Stringer("phase", in.state.Phase()))
	return nil
}

// render shows one period of p. It reports false when ctx ended.
func (in *Indicator) render(ctx context.Context, p Pattern) bool {
	in.light.Set(p.Color)
	if !wait(ctx, p.On) {
		return false
	}
	if p.Off <= 0 || !in.state.Running() {
		return true
	}
	in.light.Set(hal.Off)
	return wait(ctx, p.Off)
}

func wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
