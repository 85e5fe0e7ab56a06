package lobby

import (
	"go.uber.org/zap"

	"github.com/DoyleJ11/arcade-lobby/internal/queue"
	"github.com/DoyleJ11/arcade-lobby/internal/types"
)

type FrameType uint8

const (
	FrameText FrameType = iota
	FrameBinary
	FrameContinuation
)

// Frame is one inbound transport frame.
type Frame struct {
	Type  FrameType
	Final bool
	Data  []byte
}

// Handler turns transport events into routed messages. The send mode for
// each event kind is chosen here, per call site.
type Handler struct {
	q   *queue.Queue[Msg]
	log *zap.Logger

	JoinMode  queue.Mode
	DataMode  queue.Mode
	LeaveMode queue.Mode
}

func NewHandler(q *queue.Queue[Msg], log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		q:         q,
		log:       log,
		JoinMode:  queue.Blocking,
		DataMode:  queue.NonBlocking,
		LeaveMode: queue.Blocking,
	}
}

// OnConnect queues a join. Joins are rare and must not be lost.
func (h *Handler) OnConnect(id types.ClientID) {
	h.q.Send(Join{Origin: id}, h.JoinMode)
}

// OnDisconnect queues a leave.
func (h *Handler) OnDisconnect(id types.ClientID) {
	h.q.Send(Leave{Origin: id}, h.LeaveMode)
}

// OnData accepts complete text frames only; fragments are discarded, not
// reassembled. It reports whether the message was queued.
func (h *Handler) OnData(id types.ClientID, f Frame) bool {
	if !f.Final || f.Type != FrameText {
		h.log.Debug("frame rejected",
			zap.Uint32("client", uint32(id)),
			zap.Uint8("frame_type", uint8(f.Type)),
			zap.Bool("final", f.Final))
		return false
	}
	data := append([]byte(nil), f.Data...)
	if !h.q.Send(Classify(id, data), h.DataMode) {
		h.log.Debug("queue full, message dropped",
			zap.Uint32("client", uint32(id)),
			zap.Uint64("dropped_total", h.q.Dropped()))
		return false
	}
	return true
}
