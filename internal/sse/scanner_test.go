package sse

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, body string) []Event {
	t.Helper()
	s := NewScanner(strings.NewReader(body))
	var events []Event
	for {
		ev, err := s.Next()
		if err == io.EOF {
			return events
		}
		require.NoError(t, err)
		events = append(events, ev)
	}
}

func TestScanner(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []Event
	}{
		{
			name: "named events",
			body: "event: ping\ndata: {}\n\nevent: content_block_delta\ndata: {\"a\":1}\n\n",
			want: []Event{{Name: "ping", Data: "{}"}, {Name: "content_block_delta", Data: `{"a":1}`}},
		},
		{
			name: "comments and blank lines",
			body: ": keepalive\n\n\ndata: x\n\n",
			want: []Event{{Data: "x"}},
		},
		{
			name: "multi line data",
			body: "data: one\ndata: two\n\n",
			want: []Event{{Data: "one\ntwo"}},
		},
		{
			name: "done sentinel stops",
			body: "data: a\n\ndata: [DONE]\n\ndata: b\n\n",
			want: []Event{{Data: "a"}},
		},
		{
			name: "trailing event without blank line",
			body: "data: tail",
			want: []Event{{Data: "tail"}},
		},
		{
			name: "no space after colon",
			body: "event:x\ndata:y\n\n",
			want: []Event{{Name: "x", Data: "y"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, collect(t, tt.body))
		})
	}
}
