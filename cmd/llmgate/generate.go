package main

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"github.com/casualjim/llmgate"
	"github.com/casualjim/llmgate/modelconfig"
	"github.com/casualjim/llmgate/stream"
	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/k0kubun/pp/v3"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate [content]",
	Short: "Run one generation from the command line",
	Long:  "Run one generation. Content is read from the arguments, or from stdin when none are given.",
	RunE:  runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringP("type", "t", modelconfig.ModelTypeCompletion, "model type")
	f.StringP("instruction", "i", "", "instruction applied to the content")
	f.StringP("model", "m", "", "model override")
	f.StringToString("param", nil, "extra provider parameter (key=value), repeatable")
	f.BoolP("stream", "s", false, "stream the response")
	f.Bool("render", false, "render the response as markdown")
	f.Bool("debug", false, "dump the full result")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	factory, err := settings.Factory()
	if err != nil {
		return err
	}

	content := strings.Join(args, " ")
	if content == "" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		content = string(data)
	}

	flags := cmd.Flags()
	modelType, _ := flags.GetString("type")
	instruction, _ := flags.GetString("instruction")
	model, _ := flags.GetString("model")
	extra, _ := flags.GetStringToString("param")
	streaming, _ := flags.GetBool("stream")
	render, _ := flags.GetBool("render")
	debug, _ := flags.GetBool("debug")

	params := llmgate.Params{"content": content}
	if instruction != "" {
		params["instruction"] = instruction
	}
	if model != "" {
		params[llmgate.KeyModel] = model
	}
	for k, v := range extra {
		params[k] = v
	}

	gw := factory.New()
	defer gw.Close()

	out := cmd.OutOrStdout()
	if streaming && render {
		text, errMsg := stream.Collect(gw.Stream(cmd.Context(), modelType, params))
		if errMsg != "" {
			return errors.New(errMsg)
		}
		if text, err = renderMarkdown(text); err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, text)
		return err
	}
	if streaming {
		return printStream(out, gw.Stream(cmd.Context(), modelType, params))
	}

	res, err := gw.Generate(cmd.Context(), modelType, params)
	if err != nil {
		return err
	}
	if debug {
		_, _ = pp.Fprintln(os.Stderr, res)
	}

	text := res.Content
	if render {
		if text, err = renderMarkdown(text); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(out, text)
	return err
}

func printStream(out io.Writer, envelopes iter.Seq[stream.Envelope]) error {
	var failed error
	for env := range envelopes {
		switch e := env.(type) {
		case stream.Chunk:
			fmt.Fprint(out, e.Text)
		case stream.Error:
			failed = errors.New(e.Message)
			fmt.Fprintln(os.Stderr, color.RedString(e.Message))
		case stream.End:
			fmt.Fprintln(out)
		}
	}
	return failed
}

func renderMarkdown(text string) (string, error) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle())
	if err != nil {
		return "", err
	}
	return r.Render(text)
}
