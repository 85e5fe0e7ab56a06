package types

// Wire protocol. One JSON object per text frame.

// Client -> Server
// Any object carrying a string "type" (or, for older clients, "kind"):
//   type: string            // discriminator; "join" re-requests the welcome
//   ...                     // game fields, relayed untouched
//
// Frames that are binary, fragmented, not an object, or missing the
// discriminator are dropped.

// Server -> Client
// Welcome (unicast, once per connect or "join"):
//   type: "welcome"
//   id: number              // connection id, from 1
//   bat: number             // battery percent 0-100
//
// Battery (broadcast every sample period while clients are connected):
//   type: "battery"
//   val: number             // battery percent 0-100
//
// Players (broadcast after each join and leave):
//   type: "players"
//   count: number
//
// Forwarded game message (broadcast to everyone, sender included):
//   id: number              // sender's connection id, always first
//   ...                     // sender's fields in key order; "type" is
//                           // stripped unless FORWARD_INCLUDE_TYPE=true
//
// On low battery the server closes every socket with 1001 (going away).
// Connections attempted during shutdown are closed with 1013 (try again later).
