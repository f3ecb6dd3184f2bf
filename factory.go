package llmgate

import (
	"github.com/casualjim/llmgate/modelconfig"
	"github.com/casualjim/llmgate/provider"
	"github.com/fogfish/opts"
)

// ClientsFunc returns new, uninitialized provider clients.
type ClientsFunc func() []provider.Client

// Factory builds one Gateway per request. Plans are shared; provider clients
// are created fresh for every gateway.
type Factory struct {
	plans   *modelconfig.Resolver
	clients ClientsFunc
	options []opts.Option[Gateway]
}

func NewFactory(plans *modelconfig.Resolver, clients ClientsFunc, options ...opts.Option[Gateway]) *Factory {
	return &Factory{
		plans:   plans,
		clients: clients,
		options: options,
	}
}

// New returns a gateway with its own registry. The caller must Close it, or
// fully consume a Stream from it.
func (f *Factory) New() *Gateway {
	var clients []provider.Client
	if f.clients != nil {
		clients = f.clients()
	}
	return New(f.plans, provider.NewRegistry(clients...), f.options...)
}

// Plans exposes the resolver the factory's gateways use.
func (f *Factory) Plans() *modelconfig.Resolver {
	return f.plans
}
