// Package modelconfig holds the static fallback plans: for each model type, the
// primary provider step followed by its fallbacks.
package modelconfig

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/casualjim/llmgate/llmerr"
)

const (
	ModelTypeChat       = "chat"
	ModelTypeCompletion = "completion"

	// DefaultProvider is the primary provider of the built-in plans.
	DefaultProvider = "openai"
)

// Step names one provider invocation with its default parameters.
type Step struct {
	Provider string         `mapstructure:"provider" json:"provider" yaml:"provider"`
	Model    string         `mapstructure:"model" json:"model" yaml:"model"`
	Params   map[string]any `mapstructure:"params" json:"params,omitempty" yaml:"params,omitempty"`
}

// Plan is the ordered list of steps tried for a model type.
type Plan struct {
	Primary   Step   `mapstructure:"primary" json:"primary" yaml:"primary"`
	Fallbacks []Step `mapstructure:"fallbacks" json:"fallbacks,omitempty" yaml:"fallbacks,omitempty"`
}

// Steps returns the primary followed by the fallbacks, in configured order.
func (p Plan) Steps() []Step {
	steps := make([]Step, 0, 1+len(p.Fallbacks))
	steps = append(steps, p.Primary)
	return append(steps, p.Fallbacks...)
}

func (s Step) clone() Step {
	s.Params = maps.Clone(s.Params)
	return s
}

func (p Plan) clone() Plan {
	p.Primary = p.Primary.clone()
	fallbacks := make([]Step, len(p.Fallbacks))
	for i, f := range p.Fallbacks {
		fallbacks[i] = f.clone()
	}
	p.Fallbacks = fallbacks
	return p
}

// Config maps a model type to its plan.
type Config map[string]Plan

// Resolver answers plan lookups against a validated Config.
type Resolver struct {
	plans Config
}

// New validates cfg and returns a resolver over a private copy of it.
func New(cfg Config) (*Resolver, error) {
	if len(cfg) == 0 {
		return nil, fmt.Errorf("%w: no model types configured", llmerr.ErrConfiguration)
	}

	var errs []error
	plans := make(Config, len(cfg))
	for modelType, plan := range cfg {
		for i, step := range plan.Steps() {
			if strings.TrimSpace(step.Provider) == "" {
				errs = append(errs, fmt.Errorf("%w: %s step %d has no provider", llmerr.ErrConfiguration, modelType, i))
			}
			if strings.TrimSpace(step.Model) == "" {
				errs = append(errs, fmt.Errorf("%w: %s step %d has no model", llmerr.ErrConfiguration, modelType, i))
			}
		}
		plans[modelType] = plan.clone()
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &Resolver{plans: plans}, nil
}

// PlanFor returns the plan for modelType.
func (r *Resolver) PlanFor(modelType string) (Plan, error) {
	plan, ok := r.plans[modelType]
	if !ok {
		return Plan{}, fmt.Errorf("%w: %q", llmerr.ErrUnknownModelType, modelType)
	}
	return plan.clone(), nil
}

// ModelTypes lists the configured model types, sorted.
func (r *Resolver) ModelTypes() []string {
	return slices.Sorted(maps.Keys(r.plans))
}

var builtinSteps = []Step{
	{Provider: "openai", Model: "gpt-3.5-turbo"},
	{Provider: "anthropic", Model: "claude-3-haiku-20240307"},
}

func defaultParams() map[string]any {
	return map[string]any{
		"temperature": 0.7,
		"max_tokens":  1000,
	}
}

// Default returns the built-in plans for the chat and completion model types.
// The step whose provider is primary is tried first; an unknown or empty
// primary keeps the built-in order.
func Default(primary string) Config {
	steps := make([]Step, 0, len(builtinSteps))
	for _, s := range builtinSteps {
		if s.Provider == primary {
			steps = append(steps, s)
		}
	}
	for _, s := range builtinSteps {
		if s.Provider != primary {
			steps = append(steps, s)
		}
	}

	plan := func() Plan {
		p := Plan{Primary: steps[0].clone()}
		p.Primary.Params = defaultParams()
		for _, s := range steps[1:] {
			s = s.clone()
			s.Params = defaultParams()
			p.Fallbacks = append(p.Fallbacks, s)
		}
		return p
	}

	return Config{
		ModelTypeChat:       plan(),
		ModelTypeCompletion: plan(),
	}
}
