package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/DoyleJ11/arcade-lobby/internal/hub"
	"github.com/DoyleJ11/arcade-lobby/internal/lobby"
	"github.com/DoyleJ11/arcade-lobby/internal/types"
)

// Events receives connection lifecycle callbacks. lobby.Handler implements it.
type Events interface {
	OnConnect(id types.ClientID)
	OnData(id types.ClientID, f lobby.Frame) bool
	OnDisconnect(id types.ClientID)
}

type Options struct {
	Outbox       int           // per-client outbound buffer
	WriteTimeout time.Duration // per frame
	ReadLimit    int64         // bytes per inbound message
}

func DefaultOptions() Options {
	return Options{Outbox: 16, WriteTimeout: 3 * time.Second, ReadLimit: 4096}
}

func Handler(h *hub.Hub, ev Events, opts Options, log *zap.Logger) http.HandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Outbox <= 0 {
		opts.Outbox = DefaultOptions().Outbox
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultOptions().WriteTimeout
	}
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			log.Debug("accept failed", zap.Error(err))
			return
		}
		defer conn.CloseNow()
		if opts.ReadLimit > 0 {
			conn.SetReadLimit(opts.ReadLimit)
		}

		out := make(chan []byte, opts.Outbox)
		id, err := h.Join(out)
		if err != nil {
			conn.Close(websocket.StatusTryAgainLater, "lobby closed")
			return
		}
		clog := log.With(zap.Uint32("client", uint32(id)))
		clog.Info("connected", zap.String("remote", r.RemoteAddr))

		ctx := r.Context()
		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			writePump(ctx, conn, out, opts.WriteTimeout, clog)
		}()

		ev.OnConnect(id)

		// Reader loop
		for {
			typ, data, err := conn.Read(ctx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					clog.Info("disconnected")
				default:
					clog.Debug("read ended", zap.Error(err))
				}
				break
			}
			ev.OnData(id, lobby.Frame{Type: frameType(typ), Final: true, Data: data})
		}

		h.Leave(id)
		ev.OnDisconnect(id)
		<-writerDone
	}
}

// writePump drains out until the hub closes it, then closes the socket.
func writePump(ctx context.Context, conn *websocket.Conn, out <-chan []byte, timeout time.Duration, log *zap.Logger) {
	failed := false
	for b := range out {
		if failed {
			continue
		}
		wctx, cancel := context.WithTimeout(ctx, timeout)
		err := conn.Write(wctx, websocket.MessageText, b)
		cancel()
		if err != nil {
			log.Debug("write failed", zap.Error(err))
			failed = true
			conn.CloseNow()
		}
	}
	if !failed {
		conn.Close(websocket.StatusGoingAway, "closing")
	}
}

// coder/websocket hands over whole messages, so every frame is final.
func frameType(t websocket.MessageType) lobby.FrameType {
	if t == websocket.MessageText {
		return lobby.FrameText
	}
	return lobby.FrameBinary
}
