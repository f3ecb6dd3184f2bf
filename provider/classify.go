package provider

import (
	"context"
	"errors"
	"net"
	"net/http"

	"github.com/casualjim/llmgate/llmerr"
)

// ClassifyStatus maps a vendor HTTP status code to a failure kind.
func ClassifyStatus(code int) llmerr.Kind {
	switch code {
	case http.StatusTooManyRequests:
		return llmerr.KindRateLimited
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return llmerr.KindTimeout
	default:
		return llmerr.KindAPI
	}
}

// ClassifyTransport maps an error raised while talking to a vendor to a
// failure kind.
func ClassifyTransport(err error) llmerr.Kind {
	if err == nil {
		return llmerr.KindUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return llmerr.KindTimeout
	}
	if errors.Is(err, context.Canceled) {
		return llmerr.KindUnknown
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return llmerr.KindTimeout
		}
		return llmerr.KindConnection
	}
	return llmerr.KindUnknown
}
