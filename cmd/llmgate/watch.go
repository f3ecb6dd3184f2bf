package main

import (
	"errors"
	"fmt"

	"github.com/casualjim/llmgate/internal/mirror"
	"github.com/casualjim/llmgate/pkg/natsx"
	"github.com/casualjim/llmgate/stream"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print streamed responses mirrored to NATS",
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	if settings.NatsURL == "" {
		return errors.New("NATS_URL is not configured")
	}

	nc, err := natsx.Connect(settings.NatsURL)
	if err != nil {
		return err
	}
	defer nc.Close()

	out := cmd.OutOrStdout()
	sub, err := mirror.Subscribe(nc, settings.StreamSubject, func(e mirror.Event) {
		prefix := color.CyanString("%s #%d", e.RequestID, e.Seq)
		switch env := e.Envelope.(type) {
		case stream.Chunk:
			fmt.Fprintf(out, "%s %q\n", prefix, env.Text)
		case stream.Error:
			fmt.Fprintf(out, "%s %s\n", prefix, color.RedString(env.Message))
		case stream.End:
			fmt.Fprintf(out, "%s %s\n", prefix, color.GreenString("end"))
		}
	})
	if err != nil {
		return err
	}
	defer func() { _ = sub.Unsubscribe() }()

	<-cmd.Context().Done()
	return nil
}
