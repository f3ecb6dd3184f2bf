// Package config loads process settings from the environment, an optional
// .env file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/casualjim/llmgate"
	"github.com/casualjim/llmgate/internal/transport"
	"github.com/casualjim/llmgate/llmerr"
	"github.com/casualjim/llmgate/modelconfig"
	"github.com/casualjim/llmgate/prompt"
	"github.com/casualjim/llmgate/provider"
	"github.com/casualjim/llmgate/provider/anthropic"
	"github.com/casualjim/llmgate/provider/openai"
	"github.com/fogfish/opts"
	"github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	KeyOpenAIAPIKey       = "openai_api_key"
	KeyOpenAIBaseURL      = "openai_base_url"
	KeyAnthropicAPIKey    = "anthropic_api_key"
	KeyAnthropicBaseURL   = "anthropic_base_url"
	KeyAIProvider         = "ai_provider"
	KeyListenAddr         = "listen_addr"
	KeyProviderTimeout    = "provider_timeout"
	KeyProviderMaxRetries = "provider_max_retries"
	KeyModelsFile         = "models_file"
	KeyPromptTemplateFile = "prompt_template_file"
	KeyNatsURL            = "nats_url"
	KeyStreamSubject      = "stream_subject"
	KeyLogLevel           = "log_level"
)

// Settings is the resolved process configuration.
type Settings struct {
	OpenAIAPIKey       string        `mapstructure:"openai_api_key"`
	OpenAIBaseURL      string        `mapstructure:"openai_base_url"`
	AnthropicAPIKey    string        `mapstructure:"anthropic_api_key"`
	AnthropicBaseURL   string        `mapstructure:"anthropic_base_url"`
	AIProvider         string        `mapstructure:"ai_provider"`
	ListenAddr         string        `mapstructure:"listen_addr"`
	ProviderTimeout    time.Duration `mapstructure:"provider_timeout"`
	ProviderMaxRetries int           `mapstructure:"provider_max_retries"`
	ModelsFile         string        `mapstructure:"models_file"`
	PromptTemplateFile string        `mapstructure:"prompt_template_file"`
	NatsURL            string        `mapstructure:"nats_url"`
	StreamSubject      string        `mapstructure:"stream_subject"`
	LogLevel           string        `mapstructure:"log_level"`
}

// SetDefaults registers every key with its default. AutomaticEnv only feeds
// Unmarshal for keys viper already knows about.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyOpenAIAPIKey, "")
	v.SetDefault(KeyOpenAIBaseURL, "")
	v.SetDefault(KeyAnthropicAPIKey, "")
	v.SetDefault(KeyAnthropicBaseURL, anthropic.DefaultBaseURL)
	v.SetDefault(KeyAIProvider, modelconfig.DefaultProvider)
	v.SetDefault(KeyListenAddr, ":8000")
	v.SetDefault(KeyProviderTimeout, transport.DefaultResponseHeaderTimeout)
	v.SetDefault(KeyProviderMaxRetries, 2)
	v.SetDefault(KeyModelsFile, "")
	v.SetDefault(KeyPromptTemplateFile, "")
	v.SetDefault(KeyNatsURL, "")
	v.SetDefault(KeyStreamSubject, "llmgate.stream")
	v.SetDefault(KeyLogLevel, "info")
}

// LoadDotEnv loads the named .env files, ".env" when none are given. Missing
// files are ignored and existing environment variables are never overridden.
func LoadDotEnv(filenames ...string) error {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, name := range filenames {
		if err := godotenv.Load(name); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", name, err)
		}
		slog.Debug("loaded environment file", slog.String("file", name))
	}
	return nil
}

// Load resolves Settings from v, binding environment variables by upper-cased
// key. A nil v uses a fresh viper instance.
func Load(v *viper.Viper) (Settings, error) {
	if v == nil {
		v = viper.New()
	}
	SetDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("read config %s: %w", v.ConfigFileUsed(), err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	s.AIProvider = strings.ToLower(strings.TrimSpace(s.AIProvider))
	return s, nil
}

// Models returns the model plans: the built-in plans led by AIProvider, or
// the plans decoded from ModelsFile when it is set. Model types and step
// parameter keys keep their case.
func (s Settings) Models() (modelconfig.Config, error) {
	if s.ModelsFile == "" {
		return modelconfig.Default(s.AIProvider), nil
	}

	data, err := os.ReadFile(s.ModelsFile)
	if err != nil {
		return nil, fmt.Errorf("read models file: %w", err)
	}

	var cfg modelconfig.Config
	switch ext := strings.ToLower(filepath.Ext(s.ModelsFile)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".json":
		err = json.Unmarshal(data, &cfg)
	default:
		return nil, fmt.Errorf("%w: unsupported models file type %q", llmerr.ErrConfiguration, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: decode models file: %w", llmerr.ErrConfiguration, err)
	}
	return cfg, nil
}

// Prompts returns the prompt builder for PromptTemplateFile, or nil when no
// template file is set.
func (s Settings) Prompts() (*prompt.Builder, error) {
	if s.PromptTemplateFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(s.PromptTemplateFile)
	if err != nil {
		return nil, fmt.Errorf("read prompt template: %w", err)
	}
	return prompt.NewWithTemplate(string(data))
}

// Clients builds fresh, uninitialized provider clients.
func (s Settings) Clients() []provider.Client {
	openaiOpts := []openai.Option{
		openai.MaxRetries(s.ProviderMaxRetries),
		openai.ResponseHeaderTimeout(s.ProviderTimeout),
	}
	if s.OpenAIBaseURL != "" {
		openaiOpts = append(openaiOpts, openai.BaseURL(s.OpenAIBaseURL))
	}

	anthropicOpts := []anthropic.Option{
		anthropic.ResponseHeaderTimeout(s.ProviderTimeout),
	}
	if s.AnthropicBaseURL != "" {
		anthropicOpts = append(anthropicOpts, anthropic.BaseURL(s.AnthropicBaseURL))
	}

	return []provider.Client{
		openai.New(s.OpenAIAPIKey, openaiOpts...),
		anthropic.New(s.AnthropicAPIKey, anthropicOpts...),
	}
}

// Factory validates the model plans and returns a gateway factory that
// builds clients from s.
func (s Settings) Factory() (*llmgate.Factory, error) {
	models, err := s.Models()
	if err != nil {
		return nil, err
	}
	plans, err := modelconfig.New(models)
	if err != nil {
		return nil, err
	}

	var options []opts.Option[llmgate.Gateway]
	prompts, err := s.Prompts()
	if err != nil {
		return nil, err
	}
	if prompts != nil {
		options = append(options, llmgate.WithPrompts(prompts))
	}
	return llmgate.NewFactory(plans, s.Clients, options...), nil
}

// Level parses LogLevel, defaulting to info.
func (s Settings) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
