package openai

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/casualjim/llmgate/internal/transport"
	"github.com/casualjim/llmgate/llmerr"
	"github.com/casualjim/llmgate/pkg/slogx"
	"github.com/casualjim/llmgate/provider"
	"github.com/fogfish/opts"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tidwall/gjson"
)

const (
	// ProviderName is the registry name of this client.
	ProviderName = "openai"
	// DefaultModel is used when a request names no model.
	DefaultModel = "gpt-3.5-turbo"
)

var _ provider.Client = (*Provider)(nil)

type Provider struct {
	apiKey         string
	baseURL        string
	maxRetries     int
	headerTimeout  time.Duration
	requestOptions []option.RequestOption

	httpClient *http.Client
	client     *openai.Client
	streams    transport.Tracker
}

// Option configures a Provider.
type Option = opts.Option[Provider]

var (
	// BaseURL points the client at a different API root.
	BaseURL = opts.ForName[Provider, string]("baseURL")
	// MaxRetries sets the SDK retry budget for a single call. Negative keeps the SDK default.
	MaxRetries = opts.ForName[Provider, int]("maxRetries")
	// ResponseHeaderTimeout bounds the wait for the API to start responding.
	ResponseHeaderTimeout = opts.ForName[Provider, time.Duration]("headerTimeout")
)

// RequestOptions appends raw SDK options applied when the client is built.
func RequestOptions(options ...option.RequestOption) Option {
	return opts.Type[Provider](func(p *Provider) error {
		p.requestOptions = append(p.requestOptions, options...)
		return nil
	})
}

// New returns an uninitialized client; nothing touches the network until the
// first call.
func New(apiKey string, options ...Option) *Provider {
	p := &Provider{
		apiKey:     apiKey,
		maxRetries: -1,
	}
	if err := opts.Apply(p, options); err != nil {
		panic(err)
	}
	return p
}

func (p *Provider) Name() string {
	return ProviderName
}

func (p *Provider) ensureClient() (*openai.Client, error) {
	if p.client != nil {
		return p.client, nil
	}
	if strings.TrimSpace(p.apiKey) == "" {
		return nil, fmt.Errorf("openai: %w", llmerr.ErrMissingCredential)
	}

	p.httpClient = transport.NewHTTPClient(p.headerTimeout)
	options := []option.RequestOption{
		option.WithAPIKey(p.apiKey),
		option.WithHTTPClient(p.httpClient),
	}
	if p.baseURL != "" {
		options = append(options, option.WithBaseURL(p.baseURL))
	}
	if p.maxRetries >= 0 {
		options = append(options, option.WithMaxRetries(p.maxRetries))
	}
	options = append(options, p.requestOptions...)

	p.client = openai.NewClient(options...)
	return p.client, nil
}

func (p *Provider) buildRequest(req provider.Request) (openai.ChatCompletionNewParams, []option.RequestOption) {
	model := req.Model
	if model == "" {
		model = DefaultModel
	}

	params := openai.ChatCompletionNewParams{
		Messages: openai.F([]openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(req.Prompt),
		}),
		Model: openai.F(model),
	}

	var extra []option.RequestOption
	for key, value := range req.Params() {
		// WithJSONSet takes a path; escape it so the key is sent as is.
		extra = append(extra, option.WithJSONSet(gjson.Escape(key), value))
	}
	return params, extra
}

func (p *Provider) Generate(ctx context.Context, req provider.Request) (string, error) {
	client, err := p.ensureClient()
	if err != nil {
		return "", err
	}

	params, extra := p.buildRequest(req)
	chat, err := client.Chat.Completions.New(ctx, params, extra...)
	if err != nil {
		slog.Error("openai api error", slogx.Model(req.Model), slogx.Error(err))
		return "", wrapError(err)
	}

	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return "", llmerr.NewProviderError(ProviderName, llmerr.KindEmptyResponse, errors.New("no content in response"))
	}
	return chat.Choices[0].Message.Content, nil
}

func (p *Provider) GenerateStream(ctx context.Context, req provider.Request) (iter.Seq2[string, error], error) {
	client, err := p.ensureClient()
	if err != nil {
		return nil, err
	}

	params, extra := p.buildRequest(req)
	strm := client.Chat.Completions.NewStreaming(ctx, params, extra...)
	if err := strm.Err(); err != nil {
		_ = strm.Close()
		slog.Error("openai streaming api error", slogx.Model(req.Model), slogx.Error(err))
		return nil, wrapError(err)
	}

	release := p.streams.Track(strm)
	return func(yield func(string, error) bool) {
		defer func() { _ = release() }()

		for strm.Next() {
			chunk := strm.Current()
			if len(chunk.Choices) == 0 {
				continue
			}
			text := chunk.Choices[0].Delta.Content
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}

		if err := strm.Err(); err != nil {
			slog.Error("openai stream interrupted", slogx.Model(req.Model), slogx.Error(err))
			yield("", wrapError(err))
		}
	}, nil
}

// Close drops the SDK client, closes open streams and idle connections.
// A later call builds a fresh client.
func (p *Provider) Close() error {
	err := p.streams.CloseAll()
	if p.httpClient != nil {
		p.httpClient.CloseIdleConnections()
	}
	p.client = nil
	p.httpClient = nil
	return err
}

func wrapError(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return &llmerr.ProviderError{
			Provider:   ProviderName,
			Kind:       provider.ClassifyStatus(apierr.StatusCode),
			StatusCode: apierr.StatusCode,
			Err:        err,
		}
	}
	return llmerr.NewProviderError(ProviderName, provider.ClassifyTransport(err), err)
}
