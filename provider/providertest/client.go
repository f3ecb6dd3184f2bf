// Package providertest provides a scriptable provider.Client for tests.
package providertest

import (
	"context"
	"iter"
	"sync"

	"github.com/casualjim/llmgate/provider"
)

var _ provider.Client = (*Client)(nil)

// Call records one invocation with its forwardable parameters flattened.
type Call struct {
	Prompt string
	Model  string
	Params map[string]any
	// Keys lists the forwardable parameter names in request order.
	Keys []string
}

// Client replays a scripted outcome and records every call.
type Client struct {
	ProviderName string

	// Response is returned by Generate when Err is nil.
	Response string
	// Err fails Generate.
	Err error

	// Fragments are yielded by the stream returned from GenerateStream.
	Fragments []string
	// StreamErr fails GenerateStream before a stream is returned.
	StreamErr error
	// MidStreamErr is yielded after all Fragments.
	MidStreamErr error

	// CloseErr is returned by Close.
	CloseErr error

	mu            sync.Mutex
	generateCalls []Call
	streamCalls   []Call
	closeCalls    int
	pulled        int
	streamDone    bool
}

// New returns a client registered as name.
func New(name string) *Client {
	return &Client{ProviderName: name}
}

func (c *Client) Name() string {
	return c.ProviderName
}

func (c *Client) Generate(ctx context.Context, req provider.Request) (string, error) {
	c.mu.Lock()
	c.generateCalls = append(c.generateCalls, toCall(req))
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.Err != nil {
		return "", c.Err
	}
	return c.Response, nil
}

func (c *Client) GenerateStream(ctx context.Context, req provider.Request) (iter.Seq2[string, error], error) {
	c.mu.Lock()
	c.streamCalls = append(c.streamCalls, toCall(req))
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.StreamErr != nil {
		return nil, c.StreamErr
	}

	return func(yield func(string, error) bool) {
		defer func() {
			c.mu.Lock()
			c.streamDone = true
			c.mu.Unlock()
		}()
		for _, f := range c.Fragments {
			c.mu.Lock()
			c.pulled++
			c.mu.Unlock()
			if !yield(f, nil) {
				return
			}
		}
		if c.MidStreamErr != nil {
			yield("", c.MidStreamErr)
		}
	}, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeCalls++
	return c.CloseErr
}

// GenerateCalls returns the recorded Generate invocations.
func (c *Client) GenerateCalls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.generateCalls...)
}

// StreamCalls returns the recorded GenerateStream invocations.
func (c *Client) StreamCalls() []Call {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Call(nil), c.streamCalls...)
}

// CloseCalls is the number of times Close was called.
func (c *Client) CloseCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeCalls
}

// Pulled is the number of fragments handed to the stream consumer.
func (c *Client) Pulled() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pulled
}

// StreamDone reports whether a returned stream has finished running.
func (c *Client) StreamDone() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.streamDone
}

func toCall(req provider.Request) Call {
	call := Call{Prompt: req.Prompt, Model: req.Model, Params: make(map[string]any)}
	for k, v := range req.Params() {
		call.Params[k] = v
		call.Keys = append(call.Keys, k)
	}
	return call
}
