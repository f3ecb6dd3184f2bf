package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/casualjim/llmgate/config"
	"github.com/phsym/zeroslog"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	envFile string
)

var rootCmd = &cobra.Command{
	Use:           "llmgate",
	Short:         "LLM gateway with provider fallback",
	Long:          "llmgate forwards text-generation requests to OpenAI or Anthropic, falling back to the next provider when one fails.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := config.LoadDotEnv(envFile); err != nil {
			return err
		}
		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "environment file loaded before reading settings")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("provider", "", "default provider placed first in the built-in plans")
	rootCmd.PersistentFlags().String("models", "", "file with model plans")
	rootCmd.PersistentFlags().String("prompt-template", "", "file with a custom prompt template")

	_ = viper.BindPFlag(config.KeyLogLevel, rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag(config.KeyAIProvider, rootCmd.PersistentFlags().Lookup("provider"))
	_ = viper.BindPFlag(config.KeyModelsFile, rootCmd.PersistentFlags().Lookup("models"))
	_ = viper.BindPFlag(config.KeyPromptTemplateFile, rootCmd.PersistentFlags().Lookup("prompt-template"))

	rootCmd.AddCommand(serveCmd, generateCmd, watchCmd)
}

// loadSettings resolves settings and installs the process logger.
func loadSettings() (config.Settings, error) {
	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return config.Settings{}, err
	}
	setupLogging(settings.Level())
	return settings, nil
}

func setupLogging(level slog.Level) {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Stamp}
	log := zerolog.New(output).With().Timestamp().Logger()
	slog.SetDefault(slog.New(
		zeroslog.NewHandler(log, &zeroslog.HandlerOptions{Level: level}),
	))
}
