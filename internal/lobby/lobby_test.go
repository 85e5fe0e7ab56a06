package lobby

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/arcade-lobby/internal/hal"
	"github.com/DoyleJ11/arcade-lobby/internal/power"
	"github.com/DoyleJ11/arcade-lobby/internal/queue"
	"github.com/DoyleJ11/arcade-lobby/internal/types"
)

var errGone = errors.New("client gone")

type sent struct {
	to   types.ClientID // 0 for broadcast
	data []byte
}

// fakeTransport records what the lobby sends. Unicast to an id in gone fails.
type fakeTransport struct {
	out     chan sent
	count   atomic.Int32
	gone    map[types.ClientID]bool
	closeds atomic.Int32
}

func newFakeTransport(clients int) *fakeTransport {
	f := &fakeTransport{out: make(chan sent, 64), gone: map[types.ClientID]bool{}}
	f.count.Store(int32(clients))
	return f
}

func (f *fakeTransport) Unicast(id types.ClientID, b []byte) error {
	if f.gone[id] {
		return errGone
	}
	f.out <- sent{to: id, data: b}
	return nil
}
func (f *fakeTransport) BroadcastAll(b []byte) { f.out <- sent{data: b} }
func (f *fakeTransport) CloseAll()             { f.closeds.Add(1); f.count.Store(0) }
func (f *fakeTransport) ConnectedCount() int   { return int(f.count.Load()) }

// helper: receive one send with a timeout so tests never hang
func recvSent(t *testing.T, f *fakeTransport, within time.Duration) sent {
	t.Helper()
	select {
	case s := <-f.out:
		return s
	case <-time.After(within):
		t.Fatalf("timed out waiting for transport send")
		return sent{}
	}
}

func recvNothing(t *testing.T, f *fakeTransport, within time.Duration) {
	t.Helper()
	select {
	case s := <-f.out:
		t.Fatalf("expected no send within %v, got to=%d %s", within, s.to, s.data)
	case <-time.After(within):
	}
}

func startLobby(t *testing.T, f *fakeTransport, ps *power.State, opts Options) (*queue.Queue[Msg], *Handler) {
	t.Helper()
	q := queue.New[Msg](queue.DefaultCapacity)
	l := NewLobby(q, f, ps, opts, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = l.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return q, NewHandler(q, nil)
}

func text(s string) Frame { return Frame{Type: FrameText, Final: true, Data: []byte(s)} }

func TestLobby_JoinUnicastsWelcomeWithCurrentBattery(t *testing.T) {
	ps := power.NewState()
	ps.Store(power.Reading{Percent: 64})
	f := newFakeTransport(1)
	_, h := startLobby(t, f, ps, Options{})

	h.OnConnect(5)

	w := recvSent(t, f, 200*time.Millisecond)
	assert.Equal(t, types.ClientID(5), w.to)
	assert.JSONEq(t, `{"type":"welcome","id":5,"bat":64}`, string(w.data))

	p := recvSent(t, f, 200*time.Millisecond)
	assert.Zero(t, p.to)
	assert.Equal(t, `{"type":"players","count":1}`, string(p.data))

	// the percentage is read when the join is processed, not when queued
	ps.Store(power.Reading{Percent: 41})
	h.OnConnect(6)
	w = recvSent(t, f, 200*time.Millisecond)
	assert.JSONEq(t, `{"type":"welcome","id":6,"bat":41}`, string(w.data))
}

func TestLobby_ExplicitJoinFrameWelcomesAgain(t *testing.T) {
	f := newFakeTransport(1)
	_, h := startLobby(t, f, power.NewState(), Options{})

	require.True(t, h.OnData(2, text(`{"type":"join"}`)))
	w := recvSent(t, f, 200*time.Millisecond)
	assert.Equal(t, types.ClientID(2), w.to)
}

func TestLobby_GameMessageBroadcastOnceWithSenderID(t *testing.T) {
	f := newFakeTransport(2)
	_, h := startLobby(t, f, power.NewState(), Options{})

	require.True(t, h.OnData(3, text(`{"type":"move","x":140}`)))

	b := recvSent(t, f, 200*time.Millisecond)
	assert.Zero(t, b.to, "must be a broadcast")
	assert.Equal(t, `{"id":3,"x":140}`, string(b.data))
	recvNothing(t, f, 50*time.Millisecond)
}

func TestLobby_ForwardCanKeepDiscriminator(t *testing.T) {
	f := newFakeTransport(2)
	_, h := startLobby(t, f, power.NewState(), Options{IncludeType: true})

	require.True(t, h.OnData(3, text(`{"type":"pause"}`)))
	b := recvSent(t, f, 200*time.Millisecond)
	assert.Equal(t, `{"id":3,"type":"pause"}`, string(b.data))
}

func TestLobby_MalformedIsDroppedAndTaskContinues(t *testing.T) {
	f := newFakeTransport(1)
	_, h := startLobby(t, f, power.NewState(), Options{})

	require.True(t, h.OnData(1, text(`not json`)))
	require.True(t, h.OnData(1, text(`{"x":1}`)))
	require.True(t, h.OnData(1, text(`{"type":7}`)))
	require.True(t, h.OnData(1, text(`{"type":"reset"}`)))

	b := recvSent(t, f, 200*time.Millisecond)
	assert.Equal(t, `{"id":1}`, string(b.data))
	recvNothing(t, f, 50*time.Millisecond)
}

func TestLobby_UnreachableClientIsIgnored(t *testing.T) {
	f := newFakeTransport(0)
	f.gone[9] = true
	_, h := startLobby(t, f, power.NewState(), Options{})

	h.OnConnect(9)
	p := recvSent(t, f, 200*time.Millisecond)
	assert.Equal(t, `{"type":"players","count":0}`, string(p.data))

	require.True(t, h.OnData(4, text(`{"type":"move"}`)))
	b := recvSent(t, f, 200*time.Millisecond)
	assert.Equal(t, `{"id":4}`, string(b.data))
}

func TestLobby_LeaveBroadcastsPlayerCount(t *testing.T) {
	f := newFakeTransport(3)
	_, h := startLobby(t, f, power.NewState(), Options{})

	h.OnDisconnect(2)
	p := recvSent(t, f, 200*time.Millisecond)
	assert.Equal(t, `{"type":"players","count":3}`, string(p.data))
}

func TestLobby_PreservesQueueOrder(t *testing.T) {
	f := newFakeTransport(2)
	_, h := startLobby(t, f, power.NewState(), Options{})

	for i := 0; i < 10; i++ {
		b, _ := json.Marshal(map[string]any{"type": "move", "seq": i})
		require.True(t, h.OnData(1, text(string(b))))
	}
	for i := 0; i < 10; i++ {
		var got map[string]int
		require.NoError(t, json.Unmarshal(recvSent(t, f, 200*time.Millisecond).data, &got))
		assert.Equal(t, i, got["seq"])
	}
}

type nopLight struct{}

func (nopLight) Alert(hal.Color) {}

type haltRecorder struct{ halted atomic.Bool }

func (h *haltRecorder) DisableRadio() error { return nil }
func (h *haltRecorder) EnterLowPowerHalt()  { h.halted.Store(true) }

func TestLobby_NoProcessingAfterShutdown(t *testing.T) {
	ps := power.NewState()
	f := newFakeTransport(2)
	q, h := startLobby(t, f, ps, Options{})

	sense := hal.NewSimSense(2135, false) // 19%
	cfg := power.DefaultConfig()
	cfg.Hold = 0
	pc := &haltRecorder{}
	s := power.NewSampler(cfg, ps, sense, sense.Charge(), f, nopLight{}, pc, nil)

	require.True(t, s.Tick())
	assert.True(t, pc.halted.Load())
	assert.Equal(t, int32(1), f.closeds.Load())

	// telemetry from the final tick
	bat := recvSent(t, f, 200*time.Millisecond)
	assert.Equal(t, `{"type":"battery","val":19}`, string(bat.data))

	require.True(t, h.OnData(1, text(`{"type":"move"}`)))
	recvNothing(t, f, 100*time.Millisecond)
	require.Eventually(t, func() bool { return q.Len() == 0 }, time.Second, time.Millisecond)
}
