package natsx

import (
	"log/slog"

	"github.com/casualjim/llmgate/pkg/slogx"
	"github.com/nats-io/nats.go"
)

// Connect opens a connection to the NATS server at url. Without options the
// connection is named "llmgate", compressed, and logs disconnects.
func Connect(url string, opts ...nats.Option) (*nats.Conn, error) {
	if len(opts) == 0 {
		opts = append(opts,
			nats.Name("llmgate"),
			nats.Compression(true),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				if err != nil {
					slog.Warn("nats disconnected", slogx.LoggerName("natsx"), slogx.Error(err))
				}
			}),
		)
	}
	return nats.Connect(url, opts...)
}
