package hub

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/DoyleJ11/arcade-lobby/internal/types"
)

var (
	ErrUnknownClient = errors.New("unknown client")
	ErrClientGone    = errors.New("client outbox full, dropped")
	ErrClosed        = errors.New("hub closed")
)

type HubMsg interface{ isHubMsg() }

type Register struct {
	Outbox chan []byte // hub closes it when the client is dropped
	Reply  chan RegisterResult
}

type RegisterResult struct {
	ID  types.ClientID
	Err error
}

type Unregister struct {
	ID types.ClientID
}

type Unicast struct {
	ID    types.ClientID
	Data  []byte
	Reply chan error
}

type Broadcast struct {
	Data []byte
}

type CloseAll struct {
	Done chan struct{}
}

type Count struct {
	Reply chan int
}

func (Register) isHubMsg()   {}
func (Unregister) isHubMsg() {}
func (Unicast) isHubMsg()    {}
func (Broadcast) isHubMsg()  {}
func (CloseAll) isHubMsg()   {}
func (Count) isHubMsg()      {}

// Hub owns the set of live connections. Only its loop touches clients.
type Hub struct {
	inbox   chan HubMsg
	clients map[types.ClientID]chan []byte
	nextID  types.ClientID
	closed  bool
	log     *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
}

func NewHub(parent context.Context, log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:   make(chan HubMsg, 64),
		clients: make(map[types.ClientID]chan []byte),
		nextID:  1,
		log:     log,
		ctx:     ctx,
		cancel:  cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.dropAll()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Register:
				if h.closed {
					msg.Reply <- RegisterResult{Err: ErrClosed}
					break
				}
				id := h.nextID
				h.nextID++
				h.clients[id] = msg.Outbox
				msg.Reply <- RegisterResult{ID: id}

			case Unregister:
				if ch, ok := h.clients[msg.ID]; ok {
					close(ch)
					delete(h.clients, msg.ID)
				}

			case Unicast:
				ch, ok := h.clients[msg.ID]
				if !ok {
					msg.Reply <- ErrUnknownClient
					break
				}
				if !h.deliver(msg.ID, ch, msg.Data) {
					msg.Reply <- ErrClientGone
					break
				}
				msg.Reply <- nil

			case Broadcast:
				for id, ch := range h.clients {
					h.deliver(id, ch, msg.Data)
				}

			case CloseAll:
				h.closed = true
				h.dropAll()
				close(msg.Done)

			case Count:
				msg.Reply <- len(h.clients)
			}
		}
	}
}

// deliver queues b for one client. A client whose outbox is full is slow;
// it is dropped rather than allowed to stall everyone else.
func (h *Hub) deliver(id types.ClientID, ch chan []byte, b []byte) bool {
	select {
	case ch <- b:
		return true
	default:
		h.log.Debug("slow client dropped", zap.Uint32("client", uint32(id)))
		close(ch)
		delete(h.clients, id)
		return false
	}
}

func (h *Hub) dropAll() {
	for id, ch := range h.clients {
		close(ch)
		delete(h.clients, id)
	}
}

// send hands m to the loop unless the hub has stopped.
func (h *Hub) send(m HubMsg) bool {
	select {
	case h.inbox <- m:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Join registers a connection and returns the id assigned to it.
func (h *Hub) Join(outbox chan []byte) (types.ClientID, error) {
	reply := make(chan RegisterResult, 1)
	if !h.send(Register{Outbox: outbox, Reply: reply}) {
		return 0, ErrClosed
	}
	select {
	case r := <-reply:
		return r.ID, r.Err
	case <-h.ctx.Done():
		return 0, ErrClosed
	}
}

func (h *Hub) Leave(id types.ClientID) {
	h.send(Unregister{ID: id})
}

func (h *Hub) Unicast(id types.ClientID, b []byte) error {
	reply := make(chan error, 1)
	if !h.send(Unicast{ID: id, Data: b, Reply: reply}) {
		return ErrClosed
	}
	select {
	case err := <-reply:
		return err
	case <-h.ctx.Done():
		return ErrClosed
	}
}

func (h *Hub) BroadcastAll(b []byte) {
	h.send(Broadcast{Data: b})
}

// CloseAll disconnects every client and refuses new ones. It returns once
// every outbox has been closed.
func (h *Hub) CloseAll() {
	done := make(chan struct{})
	if !h.send(CloseAll{Done: done}) {
		return
	}
	select {
	case <-done:
	case <-h.ctx.Done():
	}
}

func (h *Hub) ConnectedCount() int {
	reply := make(chan int, 1)
	if !h.send(Count{Reply: reply}) {
		return 0
	}
	select {
	case n := <-reply:
		return n
	case <-h.ctx.Done():
		return 0
	}
}

// Shutdown stops the loop.
func (h *Hub) Shutdown() { h.cancel() }
