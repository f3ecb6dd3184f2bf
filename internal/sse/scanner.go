// Package sse reads Server-Sent Events from vendor streaming responses.
package sse

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxLineSize caps a single SSE line. bufio.Scanner's default of 64 KiB is
// too small for long deltas.
const maxLineSize = 1 << 20

// Event is one dispatched SSE event.
type Event struct {
	Name string
	Data string
}

// Scanner yields events from an SSE body.
type Scanner struct {
	scanner *bufio.Scanner
}

func NewScanner(r io.Reader) *Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Scanner{scanner: s}
}

// Next returns the next event carrying data. It returns io.EOF at the end of
// the body or when the "[DONE]" sentinel arrives.
func (s *Scanner) Next() (Event, error) {
	var (
		name string
		data []string
	)

	for s.scanner.Scan() {
		line := s.scanner.Text()

		if line == "" {
			if len(data) > 0 {
				return Event{Name: name, Data: strings.Join(data, "\n")}, nil
			}
			name = ""
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		value = strings.TrimPrefix(value, " ")
		switch field {
		case "event":
			name = value
		case "data":
			if value == "[DONE]" {
				return Event{}, io.EOF
			}
			data = append(data, value)
		}
	}

	if err := s.scanner.Err(); err != nil {
		return Event{}, fmt.Errorf("sse scanner: %w", err)
	}
	if len(data) > 0 {
		return Event{Name: name, Data: strings.Join(data, "\n")}, nil
	}
	return Event{}, io.EOF
}
