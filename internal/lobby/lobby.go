package lobby

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/DoyleJ11/arcade-lobby/internal/power"
	"github.com/DoyleJ11/arcade-lobby/internal/queue"
	"github.com/DoyleJ11/arcade-lobby/internal/types"
)

// Transport is the connection layer the game talks back through.
type Transport interface {
	Unicast(id types.ClientID, b []byte) error
	BroadcastAll(b []byte)
	CloseAll()
	ConnectedCount() int
}

type Options struct {
	// IncludeType keeps the discriminator in forwarded records.
	IncludeType bool
}

// Lobby is the single consumer of the routed-message queue. All game-side
// decisions happen on its goroutine, so it needs no locks of its own.
type Lobby struct {
	q     *queue.Queue[Msg]
	out   Transport
	power *power.State
	opts  Options
	log   *zap.Logger
}

func NewLobby(q *queue.Queue[Msg], out Transport, ps *power.State, opts Options, log *zap.Logger) *Lobby {
	if log == nil {
		log = zap.NewNop()
	}
	return &Lobby{q: q, out: out, power: ps, opts: opts, log: log}
}

// Run blocks on the queue until ctx ends or the device starts shutting down.
func (l *Lobby) Run(ctx context.Context) error {
	for {
		m, err := l.q.Receive(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
		if !l.power.Running() {
			l.log.Info("power phase left running, game stopped", zap.Stringer("phase", l.power.Phase()))
			return nil
		}
		l.handle(m)
	}
}

func (l *Lobby) handle(m Msg) {
	switch msg := m.(type) {
	case Join:
		l.welcome(msg.Origin)
		l.sendPlayers()

	case Leave:
		l.sendPlayers()

	case Game:
		l.forward(msg)

	case Unknown:
		l.log.Warn("dropping unroutable message",
			zap.Uint32("client", uint32(msg.Origin)),
			zap.String("reason", msg.Reason),
			zap.Int("bytes", len(msg.Payload)))
	}
}

func (l *Lobby) welcome(id types.ClientID) {
	b, err := json.Marshal(types.NewWelcome(id, l.power.Load().Percent))
	if err != nil {
		return
	}
	if err := l.out.Unicast(id, b); err != nil {
		l.log.Debug("welcome not delivered", zap.Uint32("client", uint32(id)), zap.Error(err))
	}
}

func (l *Lobby) sendPlayers() {
	b, err := json.Marshal(types.NewPlayers(l.out.ConnectedCount()))
	if err != nil {
		return
	}
	l.out.BroadcastAll(b)
}

// forward relays to every client, the sender included.
func (l *Lobby) forward(m Game) {
	fields := m.Fields
	if l.opts.IncludeType {
		fields = make(map[string]json.RawMessage, len(m.Fields)+1)
		for k, v := range m.Fields {
			fields[k] = v
		}
		kind, _ := json.Marshal(m.Kind)
		fields["type"] = kind
	}
	l.out.BroadcastAll(types.EncodeForward(m.Origin, fields))
}
