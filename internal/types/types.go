package types

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
)

// ClientID identifies one live transport connection. Assigned by the hub.
type ClientID uint32

// Message discriminators on the wire.
const (
	TypeJoin    = "join"
	TypeWelcome = "welcome"
	TypeBattery = "battery"
	TypePlayers = "players"
)

// ClientMessage is the envelope every inbound frame must carry.
// Kind is accepted as a fallback discriminator name.
type ClientMessage struct {
	Type string `json:"type"`
	Kind string `json:"kind,omitempty"`
}

// Server -> Client
type Welcome struct {
	Type string   `json:"type"` // "welcome"
	ID   ClientID `json:"id"`
	Bat  uint8    `json:"bat"`
}

type Battery struct {
	Type string `json:"type"` // "battery"
	Val  uint8  `json:"val"`
}

type Players struct {
	Type  string `json:"type"` // "players"
	Count int    `json:"count"`
}

func NewWelcome(id ClientID, pct uint8) Welcome {
	return Welcome{Type: TypeWelcome, ID: id, Bat: pct}
}

func NewBattery(pct uint8) Battery { return Battery{Type: TypeBattery, Val: pct} }

func NewPlayers(n int) Players { return Players{Type: TypePlayers, Count: n} }

// EncodeForward builds the record relayed to every client for a game message:
// the sender id first, then the sender's fields in key order. Any "id" in
// fields is overwritten by the real sender.
func EncodeForward(sender ClientID, fields map[string]json.RawMessage) []byte {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == "id" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	buf.WriteString(`{"id":`)
	buf.WriteString(strconv.FormatUint(uint64(sender), 10))
	for _, k := range keys {
		buf.WriteByte(',')
		kb, _ := json.Marshal(k) // string keys always marshal
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(fields[k])
	}
	buf.WriteByte('}')
	return buf.Bytes()
}
