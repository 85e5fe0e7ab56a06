package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeForward_PrefixesSenderAndKeepsFields(t *testing.T) {
	fields := map[string]json.RawMessage{
		"x":    json.RawMessage(`12.5`),
		"name": json.RawMessage(`"ana"`),
	}
	got := EncodeForward(7, fields)
	assert.Equal(t, `{"id":7,"name":"ana","x":12.5}`, string(got))

	var back map[string]any
	require.NoError(t, json.Unmarshal(got, &back))
	assert.EqualValues(t, 7, back["id"])
}

func TestEncodeForward_SenderIDCannotBeSpoofed(t *testing.T) {
	fields := map[string]json.RawMessage{"id": json.RawMessage(`99`), "x": json.RawMessage(`1`)}
	assert.Equal(t, `{"id":3,"x":1}`, string(EncodeForward(3, fields)))
}

func TestEncodeForward_NoFields(t *testing.T) {
	assert.Equal(t, `{"id":1}`, string(EncodeForward(1, nil)))
}

func TestServerRecordsWireShape(t *testing.T) {
	b, err := json.Marshal(NewWelcome(4, 77))
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"welcome","id":4,"bat":77}`, string(b))

	b, err = json.Marshal(NewBattery(55))
	require.NoError(t, err)
	assert.Equal(t, `{"type":"battery","val":55}`, string(b))

	b, err = json.Marshal(NewPlayers(2))
	require.NoError(t, err)
	assert.Equal(t, `{"type":"players","count":2}`, string(b))
}
