/*
Package llmgate forwards text-generation requests to LLM providers and falls
back to alternates when a provider fails.

A Gateway serves one request. It resolves the fallback plan for the requested
model type, renders the prompt once, and tries each plan step in order until a
provider succeeds:

	plans, _ := modelconfig.New(modelconfig.Default("openai"))
	gw := llmgate.New(plans, provider.NewRegistry(
		openai.New(os.Getenv("OPENAI_API_KEY")),
		anthropic.New(os.Getenv("ANTHROPIC_API_KEY")),
	))
	defer gw.Close()

	res, err := gw.Generate(ctx, "completion", llmgate.Params{
		"content":     "Explain gravity",
		"instruction": "Keep it short",
	})

Streaming requests yield stream envelopes and close the gateway once the
sequence is done:

	for env := range gw.Stream(ctx, "chat", params) {
		switch e := env.(type) {
		case stream.Chunk:
			fmt.Print(e.Text)
		case stream.Error:
			log.Println(e.Message)
		}
	}

A Factory builds a fresh Gateway with fresh provider clients for each request;
nothing is shared between requests.

# Parameters

The content and instruction parameters feed the prompt and are never
forwarded. A string model parameter overrides the model of every plan step.
All other parameters are forwarded to the provider, overriding the step's
defaults on collision.
*/
package llmgate
