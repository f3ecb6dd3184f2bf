package stream

import (
	"bytes"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenEnvelope struct{}

func (brokenEnvelope) envelope() {}

func (brokenEnvelope) Event() string { return "" }

func (brokenEnvelope) MarshalJSON() ([]byte, error) {
	return []byte(`{"chunk":`), nil
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("client gone")
}

func TestFrame(t *testing.T) {
	tests := []struct {
		name string
		env  Envelope
		want string
	}{
		{"chunk", Chunk{Text: "The"}, "data: {\"chunk\":\"The\"}\n\n"},
		{"error", Error{Message: "Error in streaming response: boom"}, "event: error\ndata: {\"error\":\"Error in streaming response: boom\"}\n\n"},
		{"end", End{}, "event: end\ndata: {}\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := Frame(tt.env)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(frame))
		})
	}
}

func TestFrame_InvalidJSON(t *testing.T) {
	_, err := Frame(brokenEnvelope{})
	require.ErrorIs(t, err, ErrInvalidEnvelope)
}

func TestEncoder_Encode(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)

	require.NoError(t, enc.Encode(Chunk{Text: "The"}))
	require.NoError(t, enc.Encode(brokenEnvelope{}))
	require.NoError(t, enc.Encode(Chunk{Text: " World"}))
	require.NoError(t, enc.Encode(End{}))

	assert.Equal(t,
		"data: {\"chunk\":\"The\"}\n\n"+
			"data: {\"chunk\":\" World\"}\n\n"+
			"event: end\ndata: {}\n\n",
		buf.String())
}

func TestEncoder_Flushes(t *testing.T) {
	rec := httptest.NewRecorder()
	enc := NewEncoder(rec)

	require.NoError(t, enc.Encode(Chunk{Text: "x"}))
	assert.True(t, rec.Flushed)
}

func TestEncoder_WriteError(t *testing.T) {
	enc := NewEncoder(failingWriter{})
	require.Error(t, enc.Encode(End{}))
}
