package provider

import (
	"context"
	"iter"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Client is implemented by each LLM vendor integration.
type Client interface {
	// Name is the provider name the client is registered under.
	Name() string

	// Generate sends the request and returns the complete text response.
	Generate(context.Context, Request) (string, error)

	// GenerateStream sends the request in streaming mode. Errors that occur
	// before the vendor accepts the request are returned directly; errors
	// after that are yielded by the sequence, which then ends.
	GenerateStream(context.Context, Request) (iter.Seq2[string, error], error)

	// Close releases the network client and any streams still open.
	Close() error
}

// Request is one invocation of a provider.
type Request struct {
	// Prompt is the rendered prompt text sent as the single user message.
	Prompt string

	// Model is the vendor model name.
	Model string

	// Extra holds passthrough parameters in merge order. Keys in ReservedKeys
	// are never forwarded.
	Extra *orderedmap.OrderedMap[string, any]

	// Prevents unkeyed literals
	_ struct{}
}

// ReservedKeys are parameters controlled by the client itself.
var ReservedKeys = map[string]struct{}{
	"stream":   {},
	"prompt":   {},
	"model":    {},
	"messages": {},
}

// Params yields the forwardable extra parameters in order.
func (r Request) Params() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		if r.Extra == nil {
			return
		}
		for pair := r.Extra.Oldest(); pair != nil; pair = pair.Next() {
			if _, reserved := ReservedKeys[pair.Key]; reserved {
				continue
			}
			if !yield(pair.Key, pair.Value) {
				return
			}
		}
	}
}

// Param returns a forwardable extra parameter.
func (r Request) Param(key string) (any, bool) {
	if r.Extra == nil {
		return nil, false
	}
	if _, reserved := ReservedKeys[key]; reserved {
		return nil, false
	}
	return r.Extra.Get(key)
}
