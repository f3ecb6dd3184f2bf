package main

import (
	"log/slog"

	"github.com/casualjim/llmgate/config"
	"github.com/casualjim/llmgate/internal/httpapi"
	"github.com/casualjim/llmgate/internal/mirror"
	"github.com/casualjim/llmgate/pkg/natsx"
	"github.com/casualjim/llmgate/pkg/slogx"
	"github.com/fogfish/opts"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the generation API over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("listen", "", "listen address (default :8000)")
	serveCmd.Flags().String("nats-url", "", "mirror streamed responses to this NATS server")
	_ = viper.BindPFlag(config.KeyListenAddr, serveCmd.Flags().Lookup("listen"))
	_ = viper.BindPFlag(config.KeyNatsURL, serveCmd.Flags().Lookup("nats-url"))
}

func runServe(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	factory, err := settings.Factory()
	if err != nil {
		return err
	}

	var options []opts.Option[httpapi.Server]
	if settings.NatsURL != "" {
		nc, err := natsx.Connect(settings.NatsURL)
		if err != nil {
			return err
		}
		defer nc.Close()
		slog.Info("mirroring streams", slog.String("subject", settings.StreamSubject+".>"))
		options = append(options, httpapi.WithMirror(mirror.New(nc, settings.StreamSubject)))
	}

	slog.Info("starting llmgate",
		slogx.Provider(settings.AIProvider),
		slog.Any("model_types", factory.Plans().ModelTypes()),
	)
	return httpapi.New(factory, options...).ListenAndServe(cmd.Context(), settings.ListenAddr)
}
