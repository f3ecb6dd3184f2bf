package stream

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/casualjim/llmgate/pkg/slogx"
	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

type flusher interface {
	Flush()
}

// Encoder writes envelopes as Server-Sent Events frames:
//
//	data: {"chunk":"..."}
//
//	event: error
//	data: {"error":"..."}
//
//	event: end
//	data: {}
type Encoder struct {
	w io.Writer
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Frame renders env as one SSE frame.
func Frame(env Envelope) ([]byte, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid json: %s", ErrInvalidEnvelope, data)
	}

	var buf bytes.Buffer
	if name := env.Event(); name != "" {
		buf.WriteString("event: ")
		buf.WriteString(name)
		buf.WriteByte('\n')
	}
	buf.WriteString("data: ")
	buf.Write(data)
	buf.WriteString("\n\n")
	return buf.Bytes(), nil
}

// Encode writes env and flushes the writer when it supports flushing.
// Envelopes that do not encode to valid JSON are dropped and logged; only
// write failures are returned.
func (e *Encoder) Encode(env Envelope) error {
	frame, err := Frame(env)
	if err != nil {
		slog.Error("dropping stream envelope", slogx.LoggerName("stream"), slogx.Error(err))
		return nil
	}
	if _, err := e.w.Write(frame); err != nil {
		return err
	}
	if f, ok := e.w.(flusher); ok {
		f.Flush()
	}
	return nil
}
