package proto

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind classifies an envelope.
type Kind string

const (
	KindChat   Kind = "chat"
	KindSystem Kind = "system"
	KindImage  Kind = "image"
	KindRoster Kind = "roster"
)

// Known reports whether k belongs to the closed set of kinds this client understands.
func (k Kind) Known() bool {
	switch k {
	case KindChat, KindSystem, KindImage, KindRoster:
		return true
	default:
		return false
	}
}

// ErrMalformedFrame is returned when an inbound frame is not a JSON envelope.
var ErrMalformedFrame = errors.New("malformed frame")

// Envelope is the unit exchanged with the server, one JSON object per frame.
type Envelope struct {
	Kind      Kind           `json:"kind"`
	Sender    string         `json:"sender"`
	Body      string         `json:"body"`
	Timestamp string         `json:"timestamp"`
	Roster    []PresenceInfo `json:"roster,omitempty"`
}

// PresenceInfo is one entry of a roster snapshot.
type PresenceInfo struct {
	Sender  string `json:"sender"`
	Address string `json:"address"`
}

// Decode parses a single frame. Any parse failure wraps ErrMalformedFrame.
func Decode(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return env, nil
}

// Encode serializes an envelope into a frame.
func Encode(env Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}
	return data, nil
}
