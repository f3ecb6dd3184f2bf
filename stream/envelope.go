// Package stream turns provider text fragments into the envelopes a streaming
// caller consumes, and frames envelopes as Server-Sent Events.
package stream

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var (
	emptyJSON = []byte(`{}`)

	ErrInvalidEnvelope = errors.New("invalid envelope")
)

// Envelope is one unit of a streamed response: a Chunk, an Error or an End.
type Envelope interface {
	// Event is the SSE event name the envelope is sent under; empty for the
	// default message event.
	Event() string

	envelope()
}

// Chunk carries a text fragment.
type Chunk struct {
	Text string
}

func (Chunk) envelope() {}

func (Chunk) Event() string { return "" }

// MarshalJSON renders {"chunk": text}.
func (c Chunk) MarshalJSON() ([]byte, error) {
	return sjson.SetBytes(emptyJSON, "chunk", c.Text)
}

// Error reports a failure. It is always followed by an End.
type Error struct {
	Message string
}

func (Error) envelope() {}

func (Error) Event() string { return "error" }

// MarshalJSON renders {"error": message}.
func (e Error) MarshalJSON() ([]byte, error) {
	return sjson.SetBytes(emptyJSON, "error", e.Message)
}

// End terminates every stream.
type End struct{}

func (End) envelope() {}

func (End) Event() string { return "end" }

func (End) MarshalJSON() ([]byte, error) {
	return emptyJSON, nil
}

// Decode parses an SSE frame's event name and data back into an envelope.
func Decode(event string, data []byte) (Envelope, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid json: %s", ErrInvalidEnvelope, data)
	}

	switch event {
	case "end":
		return End{}, nil
	case "error":
		msg := gjson.GetBytes(data, "error")
		if !msg.Exists() {
			return nil, fmt.Errorf("%w: missing required field 'error'", ErrInvalidEnvelope)
		}
		return Error{Message: msg.String()}, nil
	case "", "message":
		chunk := gjson.GetBytes(data, "chunk")
		if !chunk.Exists() {
			return nil, fmt.Errorf("%w: missing required field 'chunk'", ErrInvalidEnvelope)
		}
		return Chunk{Text: chunk.String()}, nil
	default:
		return nil, fmt.Errorf("%w: unknown event %q", ErrInvalidEnvelope, event)
	}
}
