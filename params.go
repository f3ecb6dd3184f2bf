package llmgate

import (
	"maps"
	"slices"

	"github.com/casualjim/llmgate/modelconfig"
	"github.com/casualjim/llmgate/prompt"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// KeyModel is the caller parameter that overrides the configured model.
const KeyModel = "model"

// Params are the caller supplied request parameters.
type Params map[string]any

// ModelOverride returns the caller's model override, if any.
func (p Params) ModelOverride() (string, bool) {
	model, ok := p[KeyModel].(string)
	if !ok || model == "" {
		return "", false
	}
	return model, true
}

// modelFor picks the model a step is invoked with.
func (p Params) modelFor(step modelconfig.Step) string {
	if model, ok := p.ModelOverride(); ok {
		return model
	}
	return step.Model
}

// merge layers the caller's passthrough parameters over the step defaults.
// Each layer is added in key order; a caller key that collides with a default
// keeps the default's position and takes the caller's value.
func (p Params) merge(step modelconfig.Step) *orderedmap.OrderedMap[string, any] {
	merged := orderedmap.New[string, any](len(step.Params) + len(p))
	for _, key := range slices.Sorted(maps.Keys(step.Params)) {
		merged.Set(key, step.Params[key])
	}
	for _, key := range slices.Sorted(maps.Keys(p)) {
		if prompt.Consumed(key) {
			continue
		}
		merged.Set(key, p[key])
	}
	return merged
}
