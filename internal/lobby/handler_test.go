package lobby

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/arcade-lobby/internal/queue"
	"github.com/DoyleJ11/arcade-lobby/internal/types"
)

func next(t *testing.T, q *queue.Queue[Msg]) Msg {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	m, err := q.Receive(ctx)
	require.NoError(t, err)
	return m
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		want    Msg
	}{
		{"join", `{"type":"join"}`, Join{Origin: 1}},
		{"game", `{"type":"move","x":3}`, Game{Origin: 1, Kind: "move", Fields: map[string]json.RawMessage{"x": json.RawMessage(`3`)}}},
		{"kind fallback", `{"kind":"pause"}`, Game{Origin: 1, Kind: "pause", Fields: map[string]json.RawMessage{}}},
		{"not json", `move`, Unknown{Origin: 1, Payload: []byte(`move`), Reason: "not a json object"}},
		{"array", `[1,2]`, Unknown{Origin: 1, Payload: []byte(`[1,2]`), Reason: "not a json object"}},
		{"null", `null`, Unknown{Origin: 1, Payload: []byte(`null`), Reason: "not a json object"}},
		{"missing", `{"x":1}`, Unknown{Origin: 1, Payload: []byte(`{"x":1}`), Reason: "missing discriminator"}},
		{"empty", `{"type":""}`, Unknown{Origin: 1, Payload: []byte(`{"type":""}`), Reason: "invalid discriminator"}},
		{"number", `{"type":5}`, Unknown{Origin: 1, Payload: []byte(`{"type":5}`), Reason: "invalid discriminator"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(1, []byte(tc.payload)))
		})
	}
}

func TestHandler_ConnectAndDisconnect(t *testing.T) {
	q := queue.New[Msg](4)
	h := NewHandler(q, nil)

	h.OnConnect(7)
	h.OnDisconnect(7)

	assert.Equal(t, Join{Origin: 7}, next(t, q))
	assert.Equal(t, Leave{Origin: 7}, next(t, q))
}

func TestHandler_RejectsNonFinalAndNonText(t *testing.T) {
	q := queue.New[Msg](4)
	h := NewHandler(q, nil)

	assert.False(t, h.OnData(1, Frame{Type: FrameText, Final: false, Data: []byte(`{"type":"move"}`)}))
	assert.False(t, h.OnData(1, Frame{Type: FrameContinuation, Final: true, Data: []byte(`}`)}))
	assert.False(t, h.OnData(1, Frame{Type: FrameBinary, Final: true, Data: []byte{0x01}}))
	assert.Equal(t, 0, q.Len())
	assert.Zero(t, q.Dropped(), "rejected frames are not queue drops")
}

func TestHandler_DataDropsWhenFull(t *testing.T) {
	q := queue.New[Msg](2)
	h := NewHandler(q, nil)

	assert.True(t, h.OnData(1, text(`{"type":"a"}`)))
	assert.True(t, h.OnData(1, text(`{"type":"b"}`)))
	assert.False(t, h.OnData(1, text(`{"type":"c"}`)))
	assert.Equal(t, uint64(1), q.Dropped())

	assert.Equal(t, "a", next(t, q).(Game).Kind)
	assert.Equal(t, "b", next(t, q).(Game).Kind)
}

func TestHandler_JoinWaitsInsteadOfDropping(t *testing.T) {
	q := queue.New[Msg](1)
	h := NewHandler(q, nil)
	require.True(t, h.OnData(1, text(`{"type":"a"}`)))

	done := make(chan struct{})
	go func() {
		h.OnConnect(2)
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("join returned while queue was full")
	case <-time.After(50 * time.Millisecond):
	}

	assert.Equal(t, "a", next(t, q).(Game).Kind)
	<-done
	assert.Equal(t, Join{Origin: 2}, next(t, q))
}

func TestHandler_CopiesFrameBytes(t *testing.T) {
	q := queue.New[Msg](1)
	h := NewHandler(q, nil)
	buf := []byte(`{"type":"zz"}`)
	require.True(t, h.OnData(1, Frame{Type: FrameText, Final: true, Data: buf}))
	copy(buf, `{"type":"yy"}`)
	assert.Equal(t, "zz", next(t, q).(Game).Kind)
}

func TestMsg_From(t *testing.T) {
	for _, m := range []Msg{Join{Origin: 3}, Leave{Origin: 3}, Game{Origin: 3}, Unknown{Origin: 3}} {
		assert.Equal(t, types.ClientID(3), m.From())
	}
}
