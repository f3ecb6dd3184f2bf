package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/casualjim/llmgate/llmerr"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"AI_PROVIDER", "LISTEN_ADDR", "PROVIDER_TIMEOUT", "PROVIDER_MAX_RETRIES", "STREAM_SUBJECT", "ANTHROPIC_BASE_URL", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	s, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "openai", s.AIProvider)
	assert.Equal(t, ":8000", s.ListenAddr)
	assert.Equal(t, 60*time.Second, s.ProviderTimeout)
	assert.Equal(t, 2, s.ProviderMaxRetries)
	assert.Equal(t, "llmgate.stream", s.StreamSubject)
	assert.Equal(t, "https://api.anthropic.com", s.AnthropicBaseURL)
	assert.Equal(t, slog.LevelInfo, s.Level())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("ANTHROPIC_API_KEY", "ak-test")
	t.Setenv("AI_PROVIDER", " Anthropic ")
	t.Setenv("PROVIDER_TIMEOUT", "5s")
	t.Setenv("PROVIDER_MAX_RETRIES", "0")
	t.Setenv("LISTEN_ADDR", "127.0.0.1:9000")
	t.Setenv("LOG_LEVEL", "debug")

	s, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "sk-test", s.OpenAIAPIKey)
	assert.Equal(t, "ak-test", s.AnthropicAPIKey)
	assert.Equal(t, "anthropic", s.AIProvider)
	assert.Equal(t, 5*time.Second, s.ProviderTimeout)
	assert.Equal(t, 0, s.ProviderMaxRetries)
	assert.Equal(t, "127.0.0.1:9000", s.ListenAddr)
	assert.Equal(t, slog.LevelDebug, s.Level())
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "llmgate.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen_addr: \":9999\"\nstream_subject: custom\n"), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	s, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, ":9999", s.ListenAddr)
	assert.Equal(t, "custom", s.StreamSubject)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("LLMGATE_DOTENV_PROBE=from-file\n"), 0o600))

	t.Setenv("LLMGATE_DOTENV_PROBE", "")
	require.NoError(t, os.Unsetenv("LLMGATE_DOTENV_PROBE"))

	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), path))
	assert.Equal(t, "from-file", os.Getenv("LLMGATE_DOTENV_PROBE"))
}

func TestSettings_Models(t *testing.T) {
	t.Run("built-in plans follow AI_PROVIDER", func(t *testing.T) {
		cfg, err := Settings{AIProvider: "anthropic"}.Models()
		require.NoError(t, err)
		assert.Equal(t, "anthropic", cfg["chat"].Primary.Provider)
		assert.Equal(t, "openai", cfg["chat"].Fallbacks[0].Provider)
	})

	t.Run("models file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "models.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
summary:
  primary:
    provider: anthropic
    model: claude-3-haiku-20240307
    params:
      max_tokens: 200
  fallbacks:
    - provider: openai
      model: gpt-4o-mini
`), 0o600))

		cfg, err := Settings{ModelsFile: path}.Models()
		require.NoError(t, err)
		plan, ok := cfg["summary"]
		require.True(t, ok)
		assert.Equal(t, "anthropic", plan.Primary.Provider)
		assert.EqualValues(t, 200, plan.Primary.Params["max_tokens"])
		require.Len(t, plan.Fallbacks, 1)
		assert.Equal(t, "gpt-4o-mini", plan.Fallbacks[0].Model)
	})

	t.Run("keys keep their case", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "models.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
Chat:
  primary:
    provider: openai
    model: gpt-4o-mini
    params:
      topP: 0.5
`), 0o600))

		cfg, err := Settings{ModelsFile: path}.Models()
		require.NoError(t, err)
		require.Contains(t, cfg, "Chat")
		assert.Equal(t, map[string]any{"topP": 0.5}, cfg["Chat"].Primary.Params)
	})

	t.Run("json models file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "models.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"chat":{"primary":{"provider":"openai","model":"gpt-4o-mini","params":{"topP":0.5}}}}`), 0o600))

		cfg, err := Settings{ModelsFile: path}.Models()
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"topP": 0.5}, cfg["chat"].Primary.Params)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "models.toml")
		require.NoError(t, os.WriteFile(path, []byte(`x = 1`), 0o600))

		_, err := Settings{ModelsFile: path}.Models()
		require.ErrorIs(t, err, llmerr.ErrConfiguration)
	})

	t.Run("missing models file", func(t *testing.T) {
		_, err := Settings{ModelsFile: filepath.Join(t.TempDir(), "nope.yaml")}.Models()
		require.Error(t, err)
	})
}

func TestSettings_Clients(t *testing.T) {
	clients := Settings{OpenAIAPIKey: "a", AnthropicAPIKey: "b"}.Clients()
	require.Len(t, clients, 2)
	assert.Equal(t, "openai", clients[0].Name())
	assert.Equal(t, "anthropic", clients[1].Name())

	again := Settings{}.Clients()
	assert.NotSame(t, clients[0], again[0])
}

func TestSettings_Factory(t *testing.T) {
	f, err := Settings{AIProvider: "openai"}.Factory()
	require.NoError(t, err)
	assert.Equal(t, []string{"chat", "completion"}, f.Plans().ModelTypes())

	path := filepath.Join(t.TempDir(), "models.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"chat":{"primary":{"provider":"openai"}}}`), 0o600))
	_, err = Settings{ModelsFile: path}.Factory()
	require.ErrorIs(t, err, llmerr.ErrConfiguration)
}

func TestSettings_Prompts(t *testing.T) {
	t.Run("no template file", func(t *testing.T) {
		b, err := Settings{}.Prompts()
		require.NoError(t, err)
		assert.Nil(t, b)
	})

	t.Run("template file feeds the factory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prompt.tmpl")
		require.NoError(t, os.WriteFile(path, []byte("{{.Instruction}}: {{.Content}}"), 0o600))

		s := Settings{PromptTemplateFile: path}
		b, err := s.Prompts()
		require.NoError(t, err)
		text, err := b.Build(map[string]any{"content": "gravity", "instruction": "Explain"})
		require.NoError(t, err)
		assert.Equal(t, "Explain: gravity", text)

		_, err = s.Factory()
		require.NoError(t, err)
	})

	t.Run("invalid template", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prompt.tmpl")
		require.NoError(t, os.WriteFile(path, []byte("{{.Content"), 0o600))

		_, err := Settings{PromptTemplateFile: path}.Factory()
		require.ErrorIs(t, err, llmerr.ErrConfiguration)
	})
}
