// Package transport builds the HTTP clients provider integrations use.
package transport

import (
	"io"
	"net"
	"net/http"
	"sync"
	"time"
)

// DefaultResponseHeaderTimeout bounds how long a vendor may take to start
// answering. Streams themselves are not bounded.
const DefaultResponseHeaderTimeout = 60 * time.Second

// NewHTTPClient returns a client whose transport is owned by the caller, so
// CloseIdleConnections on it affects nobody else.
func NewHTTPClient(responseHeaderTimeout time.Duration) *http.Client {
	if responseHeaderTimeout <= 0 {
		responseHeaderTimeout = DefaultResponseHeaderTimeout
	}
	return &http.Client{
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: responseHeaderTimeout,
			MaxIdleConns:          10,
			IdleConnTimeout:       90 * time.Second,
		},
	}
}

// Tracker remembers response bodies that are still being read so they can be
// closed when the owning client shuts down.
type Tracker struct {
	mu     sync.Mutex
	nextID int
	open   map[int]io.Closer
}

// Track registers c and returns a function that closes and forgets it.
// The returned function is safe to call more than once.
func (t *Tracker) Track(c io.Closer) func() error {
	t.mu.Lock()
	if t.open == nil {
		t.open = make(map[int]io.Closer)
	}
	id := t.nextID
	t.nextID++
	t.open[id] = c
	t.mu.Unlock()

	return func() error {
		t.mu.Lock()
		cl, ok := t.open[id]
		delete(t.open, id)
		t.mu.Unlock()
		if !ok {
			return nil
		}
		return cl.Close()
	}
}

// CloseAll closes every tracked body and returns the first failure.
func (t *Tracker) CloseAll() error {
	t.mu.Lock()
	open := t.open
	t.open = nil
	t.mu.Unlock()

	var first error
	for _, c := range open {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Len is the number of bodies still open.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.open)
}
