// Package relay carries gesture events between processes as newline-delimited JSON over TCP.
//
// Two line shapes are accepted:
//
//	{"source": "gestos", "type": "gesture", "data": {...}}
//	{"event": "rotation", "data": {...}, "timestamp": 1712345678.9}
//
// The first is the general message; the second is what the hologram renderer consumes.
package relay

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// DefaultAddr is the default hub address.
const DefaultAddr = "127.0.0.1:65432"

// Message types used by gestos peers.
const (
	TypeGesture = "gesture"
	TypeCursor  = "cursor"
)

// ErrMalformed is returned for lines that are neither message shape.
var ErrMalformed = errors.New("malformed relay message")

// Variant identifies the wire shape of a decoded line.
type Variant int

const (
	VariantMessage Variant = 1 // {"source","type","data"}
	VariantEvent   Variant = 2 // {"event","data","timestamp"}
)

// Message is the general wire shape.
type Message struct {
	Source string         `json:"source"`
	Type   string         `json:"type"`
	Data   map[string]any `json:"data"`
}

// Event is the renderer bridge wire shape. Timestamp is Unix seconds.
type Event struct {
	Event     string         `json:"event"`
	Data      map[string]any `json:"data"`
	Timestamp float64        `json:"timestamp"`
}

// Envelope is a decoded line of either shape.
type Envelope struct {
	Variant Variant
	// Kind is the message type or the event name.
	Kind   string
	Source string
	Data   map[string]any
	// At is zero for VariantMessage.
	At time.Time
}

// Decode parses one line.
func Decode(line []byte) (Envelope, error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Envelope{}, fmt.Errorf("%w: empty line", ErrMalformed)
	}

	var raw struct {
		Source    string         `json:"source"`
		Type      string         `json:"type"`
		Event     string         `json:"event"`
		Data      map[string]any `json:"data"`
		Timestamp float64        `json:"timestamp"`
	}
	if err := json.Unmarshal(line, &raw); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw.Data == nil {
		raw.Data = map[string]any{}
	}

	switch {
	case raw.Event != "":
		return Envelope{
			Variant: VariantEvent,
			Kind:    raw.Event,
			Source:  raw.Source,
			Data:    raw.Data,
			At:      fromUnix(raw.Timestamp),
		}, nil
	case raw.Type != "":
		return Envelope{
			Variant: VariantMessage,
			Kind:    raw.Type,
			Source:  raw.Source,
			Data:    raw.Data,
		}, nil
	}
	return Envelope{}, fmt.Errorf("%w: neither type nor event set", ErrMalformed)
}

// EncodeMessage renders a VariantMessage line, including the trailing newline.
func EncodeMessage(source, typ string, data map[string]any) ([]byte, error) {
	if data == nil {
		data = map[string]any{}
	}
	return encodeLine(Message{Source: source, Type: typ, Data: data})
}

// EncodeEvent renders a VariantEvent line, including the trailing newline.
func EncodeEvent(name string, data map[string]any, at time.Time) ([]byte, error) {
	if data == nil {
		data = map[string]any{}
	}
	return encodeLine(Event{Event: name, Data: data, Timestamp: toUnix(at)})
}

func encodeLine(v any) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode relay message: %w", err)
	}
	return append(b, '\n'), nil
}

func toUnix(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

func fromUnix(sec float64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	whole, frac := math.Modf(sec)
	return time.Unix(int64(whole), int64(frac*1e9))
}

// Float reads a numeric field from message data.
func Float(data map[string]any, key string) (float64, bool) {
	switch v := data[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}

// String reads a string field from message data.
func String(data map[string]any, key string) (string, bool) {
	s, ok := data[key].(string)
	return s, ok
}
