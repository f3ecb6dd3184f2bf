package anthropic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/casualjim/llmgate/internal/sse"
	"github.com/casualjim/llmgate/llmerr"
	"github.com/casualjim/llmgate/pkg/slogx"
	"github.com/casualjim/llmgate/provider"
	"github.com/tidwall/gjson"
)

// GenerateStream opens a streaming Messages request. Only text deltas are
// yielded; the sequence ends at message_stop or when the body ends.
//
// Event lifecycle:
//
//	message_start -> content_block_start -> content_block_delta(s) ->
//	content_block_stop -> message_delta -> message_stop
func (p *Provider) GenerateStream(ctx context.Context, req provider.Request) (iter.Seq2[string, error], error) {
	resp, err := p.do(ctx, req, true)
	if err != nil {
		slog.Error("anthropic streaming api error", slogx.Model(req.Model), slogx.Error(err))
		return nil, err
	}

	release := p.streams.Track(resp.Body)
	scanner := sse.NewScanner(resp.Body)

	return func(yield func(string, error) bool) {
		defer func() { _ = release() }()

		for {
			event, err := scanner.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield("", llmerr.NewProviderError(ProviderName, provider.ClassifyTransport(err), err))
				return
			}

			text, done, err := decodeEvent(event)
			if err != nil {
				slog.Error("anthropic stream interrupted", slogx.Model(req.Model), slogx.Error(err))
				yield("", err)
				return
			}
			if done {
				return
			}
			if text == "" {
				continue
			}
			if !yield(text, nil) {
				return
			}
		}
	}, nil
}

// decodeEvent extracts the text carried by one SSE event. done is set once
// the message is complete.
func decodeEvent(event sse.Event) (text string, done bool, err error) {
	if !gjson.Valid(event.Data) {
		return "", false, llmerr.NewProviderError(ProviderName, llmerr.KindMalformedResponse,
			fmt.Errorf("invalid event payload: %.64q", event.Data))
	}

	payload := gjson.Parse(event.Data)
	typ := payload.Get("type").String()
	if typ == "" {
		typ = event.Name
	}

	switch typ {
	case "content_block_delta":
		if payload.Get("delta.type").String() != "text_delta" {
			return "", false, nil
		}
		return payload.Get("delta.text").String(), false, nil
	case "message_stop":
		return "", true, nil
	case "error":
		kind := llmerr.KindAPI
		switch payload.Get("error.type").String() {
		case "rate_limit_error", "overloaded_error":
			kind = llmerr.KindRateLimited
		case "timeout_error":
			kind = llmerr.KindTimeout
		}
		msg := payload.Get("error.message").String()
		if msg == "" {
			msg = "stream error"
		}
		return "", false, llmerr.NewProviderError(ProviderName, kind, errors.New(msg))
	default:
		return "", false, nil
	}
}
