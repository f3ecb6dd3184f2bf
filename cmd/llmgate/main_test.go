package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"slices"
	"testing"

	"github.com/casualjim/llmgate/llmerr"
	"github.com/casualjim/llmgate/stream"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestPrintStream(t *testing.T) {
	var out bytes.Buffer
	err := printStream(&out, slices.Values([]stream.Envelope{
		stream.Chunk{Text: "The"},
		stream.Chunk{Text: " World"},
		stream.End{},
	}))
	require.NoError(t, err)
	assert.Equal(t, "The World\n", out.String())

	out.Reset()
	err = printStream(&out, slices.Values([]stream.Envelope{
		stream.Error{Message: "Error in streaming response: down"},
		stream.End{},
	}))
	require.Error(t, err)
	assert.Equal(t, "Error in streaming response: down", err.Error())
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetIn(bytes.NewReader(nil))
	rootCmd.SetArgs(append(args, "--env-file", filepath.Join(t.TempDir(), "none.env")))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGenerateCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "gpt-4o-mini", gjson.GetBytes(body, "model").String())
		assert.Equal(t, "formal", gjson.GetBytes(body, "tone").String())
		assert.Contains(t, gjson.GetBytes(body, "messages.0.content").String(), "<content>Explain gravity</content>")

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"1","object":"chat.completion","created":1,"model":"gpt-4o-mini","choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"Masses attract."}}]}`)
	}))
	t.Cleanup(server.Close)

	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", server.URL+"/v1/")
	t.Setenv("PROVIDER_MAX_RETRIES", "0")
	t.Setenv("AI_PROVIDER", "openai")

	out, err := runCLI(t, "generate", "--model", "gpt-4o-mini", "--param", "tone=formal", "Explain", "gravity")
	require.NoError(t, err)
	assert.Equal(t, "Masses attract.\n", out)
}

func TestGenerateCommand_AllProvidersFail(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := runCLI(t, "generate", "hello")
	require.ErrorIs(t, err, llmerr.ErrMissingCredential)

	_, err = runCLI(t, "generate")
	require.ErrorIs(t, err, llmerr.ErrEmptyContent)
}

func TestGenerateCommand_StreamRender(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.True(t, gjson.GetBytes(body, "stream").Bool())

		w.Header().Set("Content-Type", "text/event-stream")
		for _, text := range []string{"Masses", " attract."} {
			fmt.Fprintf(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"created\":1,\"model\":\"gpt-4o-mini\",\"choices\":[{\"index\":0,\"delta\":{\"content\":%q}}]}\n\n", text)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() {
		_ = generateCmd.Flags().Set("stream", "false")
		_ = generateCmd.Flags().Set("render", "false")
	})

	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("OPENAI_BASE_URL", server.URL+"/v1/")
	t.Setenv("PROVIDER_MAX_RETRIES", "0")
	t.Setenv("AI_PROVIDER", "openai")

	out, err := runCLI(t, "generate", "--stream", "--render", "Explain", "gravity")
	require.NoError(t, err)
	assert.Contains(t, out, "Masses attract.")
}
