package provider

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/casualjim/llmgate/internal/registry"
	"github.com/casualjim/llmgate/llmerr"
	"github.com/casualjim/llmgate/pkg/slogx"
)

// Registry resolves provider names to clients. Its composition is fixed when
// it is built.
type Registry struct {
	clients   registry.Registry[Client]
	closeOnce sync.Once
	closeErr  error
}

// NewRegistry registers each client under its Name.
func NewRegistry(clients ...Client) *Registry {
	entries := make([]registry.Entry[Client], 0, len(clients))
	for _, c := range clients {
		if c == nil {
			continue
		}
		entries = append(entries, registry.Entry[Client]{Name: c.Name(), Value: c})
	}
	return &Registry{clients: registry.New(entries...)}
}

// Resolve returns the client registered as name.
func (r *Registry) Resolve(name string) (Client, error) {
	c, ok := r.clients.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", llmerr.ErrUnknownProvider, name)
	}
	return c, nil
}

// Names lists the registered providers in registration order.
func (r *Registry) Names() []string {
	return r.clients.Names()
}

// Close closes every registered client once. Failures are logged and joined;
// one failing client does not prevent the others from closing.
func (r *Registry) Close() error {
	r.closeOnce.Do(func() {
		var errs []error
		for _, name := range r.clients.Names() {
			c, _ := r.clients.Get(name)
			if err := c.Close(); err != nil {
				slog.Warn("failed to close provider", slogx.Provider(name), slogx.Error(err))
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
			}
		}
		r.closeErr = errors.Join(errs...)
	})
	return r.closeErr
}
