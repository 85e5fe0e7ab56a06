package lobby

import (
	"encoding/json"

	"github.com/DoyleJ11/arcade-lobby/internal/types"
)

// Msg is a routed message: every variant carries the client it came from.
type Msg interface {
	isLobbyMsg()
	From() types.ClientID
}

// Join is queued once per new connection (and for an explicit join frame).
type Join struct {
	Origin types.ClientID
}

// Leave is queued when the transport drops a connection.
type Leave struct {
	Origin types.ClientID
}

// Game is any frame with a usable discriminator other than join.
// Fields holds the remaining top-level fields, discriminator removed.
type Game struct {
	Origin types.ClientID
	Kind   string
	Fields map[string]json.RawMessage
}

// Unknown is a frame the consumer cannot route.
type Unknown struct {
	Origin  types.ClientID
	Payload []byte
	Reason  string
}

func (Join) isLobbyMsg()    {}
func (Leave) isLobbyMsg()   {}
func (Game) isLobbyMsg()    {}
func (Unknown) isLobbyMsg() {}

func (m Join) From() types.ClientID    { return m.Origin }
func (m Leave) From() types.ClientID   { return m.Origin }
func (m Game) From() types.ClientID    { return m.Origin }
func (m Unknown) From() types.ClientID { return m.Origin }

// Classify turns a text payload into a routed message. The discriminator is
// "type", falling back to "kind"; it must be a non-empty JSON string.
func Classify(origin types.ClientID, payload []byte) Msg {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil || fields == nil {
		return Unknown{Origin: origin, Payload: payload, Reason: "not a json object"}
	}

	key := "type"
	raw, ok := fields[key]
	if !ok {
		key = "kind"
		raw, ok = fields[key]
	}
	if !ok {
		return Unknown{Origin: origin, Payload: payload, Reason: "missing discriminator"}
	}
	var kind string
	if err := json.Unmarshal(raw, &kind); err != nil || kind == "" {
		return Unknown{Origin: origin, Payload: payload, Reason: "invalid discriminator"}
	}

	if kind == types.TypeJoin {
		return Join{Origin: origin}
	}
	delete(fields, key)
	return Game{Origin: origin, Kind: kind, Fields: fields}
}
