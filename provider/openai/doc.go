/*
Package openai implements provider.Client on top of OpenAI's chat completions
API using the official openai-go SDK.

# Design Decisions

  - Lazy Initialization: the SDK client and its HTTP transport are created on
    the first Generate or GenerateStream call, never in New
  - Owned Transport: every Provider has its own http.Client, so Close can drop
    idle connections without touching other requests
  - Passthrough Parameters: extra request parameters are written into the JSON
    body verbatim with option.WithJSONSet
  - Single User Message: the rendered prompt is sent as the only message

# Usage

	p := openai.New(os.Getenv("OPENAI_API_KEY"), openai.MaxRetries(0))
	defer p.Close()

	text, err := p.Generate(ctx, provider.Request{
	    Prompt: "Summarize this",
	    Model:  "gpt-3.5-turbo",
	})

# Errors

API failures are returned as *llmerr.ProviderError. HTTP 429 maps to
llmerr.KindRateLimited, 408/504 to llmerr.KindTimeout, other statuses to
llmerr.KindAPI; transport failures are classified with
provider.ClassifyTransport. A completion without text content fails with
llmerr.KindEmptyResponse.

Lazy initialization is not synchronized; use one Provider per request.
*/
package openai
