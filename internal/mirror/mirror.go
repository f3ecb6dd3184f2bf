// Package mirror republishes streamed envelopes to NATS so other processes
// can observe responses while they are produced.
package mirror

import (
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/casualjim/llmgate/pkg/slogx"
	"github.com/casualjim/llmgate/stream"
	"github.com/go-openapi/strfmt"
	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Publisher is the part of *nats.Conn the mirror needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// Event is one mirrored envelope.
type Event struct {
	RequestID string
	Seq       int
	Timestamp strfmt.DateTime
	Envelope  stream.Envelope
}

// Mirror publishes envelopes to <subject>.<request id>.
type Mirror struct {
	pub     Publisher
	subject string
	now     func() time.Time
}

func New(pub Publisher, subject string) *Mirror {
	return &Mirror{pub: pub, subject: subject, now: time.Now}
}

// Subject is where the envelopes of requestID are published.
func (m *Mirror) Subject(requestID string) string {
	return m.subject + "." + requestID
}

// Tap returns envelopes unchanged while publishing a copy of each one.
// Publishing failures are logged and never interrupt the stream. A nil
// Mirror returns envelopes as is.
func (m *Mirror) Tap(requestID string, envelopes iter.Seq[stream.Envelope]) iter.Seq[stream.Envelope] {
	if m == nil || m.pub == nil {
		return envelopes
	}

	subject := m.Subject(requestID)
	return func(yield func(stream.Envelope) bool) {
		seq := 0
		for env := range envelopes {
			seq++
			m.publish(subject, Event{
				RequestID: requestID,
				Seq:       seq,
				Timestamp: strfmt.DateTime(m.now().UTC()),
				Envelope:  env,
			})
			if !yield(env) {
				return
			}
		}
	}
}

func (m *Mirror) publish(subject string, event Event) {
	data, err := event.MarshalJSON()
	if err == nil {
		err = m.pub.Publish(subject, data)
	}
	if err != nil {
		slog.Warn("failed to mirror stream envelope",
			slogx.LoggerName("mirror"),
			slog.String("subject", subject),
			slog.Int("seq", event.Seq),
			slogx.Error(err),
		)
	}
}

func eventType(env stream.Envelope) string {
	if name := env.Event(); name != "" {
		return name
	}
	return "chunk"
}

// MarshalJSON renders
// {"request_id","seq","timestamp","type","envelope"}.
func (e Event) MarshalJSON() ([]byte, error) {
	if e.Envelope == nil {
		return nil, fmt.Errorf("mirror event %d has no envelope", e.Seq)
	}
	payload, err := json.Marshal(e.Envelope)
	if err != nil {
		return nil, err
	}

	result := []byte(`{}`)
	if result, err = sjson.SetBytes(result, "request_id", e.RequestID); err != nil {
		return nil, err
	}
	if result, err = sjson.SetBytes(result, "seq", e.Seq); err != nil {
		return nil, err
	}
	if result, err = sjson.SetBytes(result, "timestamp", e.Timestamp.String()); err != nil {
		return nil, err
	}
	if result, err = sjson.SetBytes(result, "type", eventType(e.Envelope)); err != nil {
		return nil, err
	}
	return sjson.SetRawBytes(result, "envelope", payload)
}

// UnmarshalJSON parses an event published by Tap.
func (e *Event) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}
	parsed := gjson.ParseBytes(data)

	ts, err := strfmt.ParseDateTime(parsed.Get("timestamp").String())
	if err != nil {
		return fmt.Errorf("invalid timestamp: %w", err)
	}

	event := parsed.Get("type").String()
	if event == "chunk" {
		event = ""
	}
	env, err := stream.Decode(event, []byte(parsed.Get("envelope").Raw))
	if err != nil {
		return err
	}

	e.RequestID = parsed.Get("request_id").String()
	e.Seq = int(parsed.Get("seq").Int())
	e.Timestamp = ts
	e.Envelope = env
	return nil
}

// Subscribe calls handler with every event published for requests under
// subject. Undecodable messages are logged and skipped.
func Subscribe(conn *nats.Conn, subject string, handler func(Event)) (*nats.Subscription, error) {
	if handler == nil {
		return nil, fmt.Errorf("handler is required")
	}
	return conn.Subscribe(subject+".>", func(msg *nats.Msg) {
		var event Event
		if err := event.UnmarshalJSON(msg.Data); err != nil {
			slog.Error("failed to unmarshal mirrored event", slogx.LoggerName("mirror"), slogx.Error(err))
			return
		}
		handler(event)
	})
}
