package led

import (
	"sync"

	"github.com/DoyleJ11/arcade-lobby/internal/hal"
)

// Gate sits between the status light and its two writers. Once Alert has
// latched a colour, Set is ignored for the rest of the process lifetime.
type Gate struct {
	mu      sync.Mutex
	dev     hal.RGB
	latched bool
}

func NewGate(dev hal.RGB) *Gate { return &Gate{dev: dev} }

// Set writes c unless an alert is latched.
func (g *Gate) Set(c hal.Color) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.latched {
		return
	}
	g.dev.Set(c)
}

// Alert writes c and latches it.
func (g *Gate) Alert(c hal.Color) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.latched = true
	g.dev.Set(c)
}

func (g *Gate) Latched() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.latched
}
