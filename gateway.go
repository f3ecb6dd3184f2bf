package llmgate

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"sync"

	"github.com/casualjim/llmgate/llmerr"
	"github.com/casualjim/llmgate/modelconfig"
	"github.com/casualjim/llmgate/pkg/slogx"
	"github.com/casualjim/llmgate/prompt"
	"github.com/casualjim/llmgate/provider"
	"github.com/casualjim/llmgate/stream"
	"github.com/fogfish/opts"
)

// Gateway runs the fallback plan for a single request. It owns its provider
// registry and closes it in Close.
type Gateway struct {
	plans    *modelconfig.Resolver
	registry *provider.Registry
	prompts  *prompt.Builder
	logger   *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

var (
	// WithPrompts replaces the default prompt builder.
	WithPrompts = opts.ForName[Gateway, *prompt.Builder]("prompts")
	// WithLogger sets the logger used for attempt diagnostics.
	WithLogger = opts.ForName[Gateway, *slog.Logger]("logger")
)

// New returns a gateway over plans that resolves providers from registry.
func New(plans *modelconfig.Resolver, registry *provider.Registry, options ...opts.Option[Gateway]) *Gateway {
	g := &Gateway{
		plans:    plans,
		registry: registry,
	}
	if err := opts.Apply(g, options); err != nil {
		panic(err)
	}
	if g.prompts == nil {
		g.prompts = prompt.New()
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	g.logger = g.logger.With(slogx.LoggerName("gateway"))
	return g
}

// attempt is the successful outcome of one plan step.
type attempt struct {
	index     int
	step      modelconfig.Step
	model     string
	text      string
	fragments iter.Seq2[string, error]
}

// generate walks the plan for modelType and returns the first step that
// succeeds. Configuration and validation errors are returned before any
// provider is called; otherwise the last step failure is returned.
func (g *Gateway) generate(ctx context.Context, modelType string, params Params, streaming bool) (modelconfig.Plan, attempt, error) {
	plan, err := g.plans.PlanFor(modelType)
	if err != nil {
		return plan, attempt{}, err
	}

	text, err := g.prompts.Build(params)
	if err != nil {
		return plan, attempt{}, err
	}

	steps := plan.Steps()
	if len(steps) == 0 {
		return plan, attempt{}, llmerr.ErrNoProviderAvailable
	}

	var lastErr error
	for i, step := range steps {
		if err := ctx.Err(); err != nil {
			return plan, attempt{}, err
		}

		model := params.modelFor(step)
		log := g.logger.With(slogx.Provider(step.Provider), slogx.Model(model), slog.Int("step", i))

		client, err := g.registry.Resolve(step.Provider)
		if err != nil {
			lastErr = err
			log.Warn("provider step failed", slogx.Error(err))
			continue
		}

		req := provider.Request{
			Prompt: text,
			Model:  model,
			Extra:  params.merge(step),
		}

		result := attempt{index: i, step: step, model: model}
		if streaming {
			result.fragments, err = client.GenerateStream(ctx, req)
		} else {
			result.text, err = client.Generate(ctx, req)
		}
		if err != nil {
			lastErr = err
			log.Warn("provider step failed", slogx.Error(err))
			continue
		}

		log.Debug("provider step succeeded", slog.Bool("fallback", i > 0))
		return plan, result, nil
	}

	if lastErr == nil {
		lastErr = llmerr.ErrNoProviderAvailable
	}
	return plan, attempt{}, lastErr
}

// Generate returns the complete response of the first plan step that
// succeeds.
func (g *Gateway) Generate(ctx context.Context, modelType string, params Params) (Result, error) {
	plan, served, err := g.generate(ctx, modelType, params, false)
	if err != nil {
		g.logger.Error("error generating response", slog.String("model_type", modelType), slogx.Error(err))
		return Result{}, err
	}

	return Result{
		Content:      served.text,
		Provider:     plan.Primary.Provider,
		Model:        params.modelFor(plan.Primary),
		FallbackUsed: false,
	}, nil
}

// Stream returns the response as envelopes. Nothing is sent until the
// sequence is iterated. A failure to open any provider stream is reported as
// an Error envelope; every iteration ends with an End envelope unless the
// consumer stops first. The gateway is closed when the sequence finishes, on
// any path.
func (g *Gateway) Stream(ctx context.Context, modelType string, params Params) iter.Seq[stream.Envelope] {
	return func(yield func(stream.Envelope) bool) {
		_, served, err := g.generate(ctx, modelType, params, true)
		if err != nil {
			g.logger.Error("error opening stream", slog.String("model_type", modelType), slogx.Error(err))
		}

		for env := range stream.Adapt(served.fragments, err, g.release) {
			if !yield(env) {
				return
			}
		}
	}
}

func (g *Gateway) release() {
	if err := g.Close(); err != nil {
		g.logger.Warn("failed to close gateway", slogx.Error(err))
	}
}

// Close closes every provider client. It is safe to call more than once.
func (g *Gateway) Close() error {
	g.closeOnce.Do(func() {
		if g.registry == nil {
			return
		}
		if err := g.registry.Close(); err != nil {
			g.closeErr = fmt.Errorf("close providers: %w", err)
		}
	})
	return g.closeErr
}
