package modelconfig

import (
	"testing"

	"github.com/casualjim/llmgate/llmerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	tests := []struct {
		name      string
		primary   string
		wantOrder []string
	}{
		{"openai first", "openai", []string{"openai", "anthropic"}},
		{"anthropic first", "anthropic", []string{"anthropic", "openai"}},
		{"unknown keeps built-in order", "mistral", []string{"openai", "anthropic"}},
		{"empty keeps built-in order", "", []string{"openai", "anthropic"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(tt.primary)
			require.Len(t, cfg, 2)
			for _, modelType := range []string{ModelTypeChat, ModelTypeCompletion} {
				plan, ok := cfg[modelType]
				require.True(t, ok, modelType)

				var order []string
				for _, s := range plan.Steps() {
					order = append(order, s.Provider)
					assert.Equal(t, 0.7, s.Params["temperature"])
					assert.Equal(t, 1000, s.Params["max_tokens"])
				}
				assert.Equal(t, tt.wantOrder, order)
			}
		})
	}
}

func TestDefault_Models(t *testing.T) {
	plan := Default(DefaultProvider)[ModelTypeCompletion]
	assert.Equal(t, Step{Provider: "openai", Model: "gpt-3.5-turbo", Params: map[string]any{"temperature": 0.7, "max_tokens": 1000}}, plan.Primary)
	require.Len(t, plan.Fallbacks, 1)
	assert.Equal(t, "claude-3-haiku-20240307", plan.Fallbacks[0].Model)
}

func TestResolver_PlanFor(t *testing.T) {
	r, err := New(Default(DefaultProvider))
	require.NoError(t, err)

	t.Run("every configured type resolves", func(t *testing.T) {
		for _, modelType := range r.ModelTypes() {
			plan, err := r.PlanFor(modelType)
			require.NoError(t, err)
			assert.NotEmpty(t, plan.Primary.Provider)
			assert.NotEmpty(t, plan.Primary.Model)
		}
		assert.Equal(t, []string{"chat", "completion"}, r.ModelTypes())
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := r.PlanFor("embedding")
		require.ErrorIs(t, err, llmerr.ErrUnknownModelType)
		assert.ErrorIs(t, err, llmerr.ErrConfiguration)
		assert.Contains(t, err.Error(), `"embedding"`)
	})

	t.Run("returned plan is a copy", func(t *testing.T) {
		plan, err := r.PlanFor(ModelTypeChat)
		require.NoError(t, err)
		plan.Primary.Params["temperature"] = 2.0
		plan.Fallbacks[0].Provider = "other"

		again, err := r.PlanFor(ModelTypeChat)
		require.NoError(t, err)
		assert.Equal(t, 0.7, again.Primary.Params["temperature"])
		assert.Equal(t, "anthropic", again.Fallbacks[0].Provider)
	})
}

func TestNew_IsolatedFromInput(t *testing.T) {
	cfg := Config{"chat": {Primary: Step{Provider: "openai", Model: "m", Params: map[string]any{"a": 1}}}}
	r, err := New(cfg)
	require.NoError(t, err)

	cfg["chat"].Primary.Params["a"] = 2
	plan, err := r.PlanFor("chat")
	require.NoError(t, err)
	assert.Equal(t, 1, plan.Primary.Params["a"])
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"empty", Config{}},
		{"missing primary provider", Config{"chat": {Primary: Step{Model: "m"}}}},
		{"missing primary model", Config{"chat": {Primary: Step{Provider: "openai"}}}},
		{"bad fallback", Config{"chat": {Primary: Step{Provider: "openai", Model: "m"}, Fallbacks: []Step{{Provider: " "}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := New(tt.cfg)
			require.Error(t, err)
			assert.Nil(t, r)
			assert.ErrorIs(t, err, llmerr.ErrConfiguration)
		})
	}
}

func TestPlan_Steps(t *testing.T) {
	plan := Plan{
		Primary:   Step{Provider: "a", Model: "1"},
		Fallbacks: []Step{{Provider: "b", Model: "2"}, {Provider: "c", Model: "3"}},
	}
	steps := plan.Steps()
	require.Len(t, steps, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{steps[0].Provider, steps[1].Provider, steps[2].Provider})

	steps[1].Provider = "changed"
	assert.Equal(t, "b", plan.Fallbacks[0].Provider)
}
