// Package provider defines the contract every LLM vendor client implements and
// the registry the gateway resolves clients from.
//
// Design decisions:
//   - One interface: Client exposes Generate, GenerateStream and Close; vendors
//     are independent types selected through a Registry, there is no shared base.
//   - Lazy clients: the underlying SDK or HTTP client is built on first use and
//     requires a non-empty API key (llmerr.ErrMissingCredential otherwise).
//   - Deterministic release: Close tears down the network client and any open
//     response streams. It is idempotent and safe on an unused client.
//   - Streams as iterators: GenerateStream returns once the vendor accepted the
//     request; fragments are pulled through an iter.Seq2[string, error].
//   - Classified failures: vendor errors surface as *llmerr.ProviderError with a
//     Kind (rate limited, timeout, connection, malformed, empty, api).
//
// Example usage:
//
//	reg := provider.NewRegistry(openai.New(key), anthropic.New(other))
//	defer reg.Close()
//
//	client, err := reg.Resolve("openai")
//	if err != nil {
//	    return err
//	}
//	fragments, err := client.GenerateStream(ctx, provider.Request{Prompt: "hi", Model: "gpt-4o-mini"})
//	if err != nil {
//	    return err
//	}
//	for text, err := range fragments {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(text)
//	}
//
// Lazy initialization is not synchronized. A client instance belongs to one
// request at a time; two concurrent first uses of the same instance race.
package provider
