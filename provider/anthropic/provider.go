package anthropic

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/casualjim/llmgate/internal/transport"
	"github.com/casualjim/llmgate/llmerr"
	"github.com/casualjim/llmgate/pkg/slogx"
	"github.com/casualjim/llmgate/provider"
	"github.com/fogfish/opts"
	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

const (
	// ProviderName is the registry name of this client.
	ProviderName = "anthropic"
	// DefaultModel is used when a request names no model.
	DefaultModel = "claude-3-opus-20240229"
	// DefaultBaseURL is the public API root.
	DefaultBaseURL = "https://api.anthropic.com"
	// APIVersion is sent as the anthropic-version header.
	APIVersion = "2023-06-01"
	// DefaultMaxTokens caps the response length unless the request overrides it.
	DefaultMaxTokens = 1000

	messagesEndpoint = "/v1/messages"
)

var _ provider.Client = (*Provider)(nil)

type Provider struct {
	apiKey        string
	baseURL       string
	headerTimeout time.Duration

	httpClient *http.Client
	streams    transport.Tracker
}

// Option configures a Provider.
type Option = opts.Option[Provider]

var (
	// BaseURL points the client at a different API root.
	BaseURL = opts.ForName[Provider, string]("baseURL")
	// ResponseHeaderTimeout bounds the wait for the API to start responding.
	ResponseHeaderTimeout = opts.ForName[Provider, time.Duration]("headerTimeout")
)

// New returns an uninitialized client; nothing touches the network until the
// first call.
func New(apiKey string, options ...Option) *Provider {
	p := &Provider{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
	}
	if err := opts.Apply(p, options); err != nil {
		panic(err)
	}
	p.baseURL = strings.TrimRight(p.baseURL, "/")
	return p
}

func (p *Provider) Name() string {
	return ProviderName
}

func (p *Provider) ensureClient() (*http.Client, error) {
	if p.httpClient != nil {
		return p.httpClient, nil
	}
	if strings.TrimSpace(p.apiKey) == "" {
		return nil, fmt.Errorf("anthropic: %w", llmerr.ErrMissingCredential)
	}
	p.httpClient = transport.NewHTTPClient(p.headerTimeout)
	return p.httpClient, nil
}

// requestBody renders the Messages API payload. Extra parameters are applied
// last and may override max_tokens.
func requestBody(req provider.Request, stream bool) ([]byte, error) {
	model := req.Model
	if model == "" {
		model = DefaultModel
	}

	body := map[string]any{
		"model":      model,
		"max_tokens": DefaultMaxTokens,
		"messages": []map[string]string{
			{"role": "user", "content": req.Prompt},
		},
	}
	for key, value := range req.Params() {
		body[key] = value
	}
	if stream {
		body["stream"] = true
	}
	return json.Marshal(body)
}

func (p *Provider) do(ctx context.Context, req provider.Request, stream bool) (*http.Response, error) {
	client, err := p.ensureClient()
	if err != nil {
		return nil, err
	}

	payload, err := requestBody(req, stream)
	if err != nil {
		return nil, fmt.Errorf("anthropic: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+messagesEndpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("anthropic: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", APIVersion)
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, llmerr.NewProviderError(ProviderName, provider.ClassifyTransport(err), err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer resp.Body.Close()
		return nil, apiError(resp)
	}
	return resp, nil
}

func (p *Provider) Generate(ctx context.Context, req provider.Request) (string, error) {
	resp, err := p.do(ctx, req, false)
	if err != nil {
		slog.Error("anthropic api error", slogx.Model(req.Model), slogx.Error(err))
		return "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", llmerr.NewProviderError(ProviderName, provider.ClassifyTransport(err), err)
	}
	if !gjson.ValidBytes(data) {
		return "", llmerr.NewProviderError(ProviderName, llmerr.KindMalformedResponse, errors.New("response is not valid json"))
	}

	text := gjson.GetBytes(data, "content.0.text").String()
	if text == "" {
		return "", llmerr.NewProviderError(ProviderName, llmerr.KindEmptyResponse, errors.New("no content in response"))
	}
	return text, nil
}

// Close closes open streams and drops the HTTP client. A later call builds a
// fresh one.
func (p *Provider) Close() error {
	err := p.streams.CloseAll()
	if p.httpClient != nil {
		p.httpClient.CloseIdleConnections()
	}
	p.httpClient = nil
	return err
}

// apiError turns a non-2xx response into a ProviderError, using the API's own
// error message when the body carries one.
func apiError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	msg := gjson.GetBytes(data, "error.message").String()
	if msg == "" {
		msg = strings.TrimSpace(string(data))
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	return &llmerr.ProviderError{
		Provider:   ProviderName,
		Kind:       provider.ClassifyStatus(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Err:        errors.New(msg),
	}
}
