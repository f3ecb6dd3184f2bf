// Package llmerr defines the error taxonomy shared by the gateway, the model
// configuration and the provider clients.
//
// Errors fall into three classes, each matched with errors.Is:
//
//   - ErrConfiguration: unknown model type, unknown provider, missing credential.
//   - ErrProvider: a vendor call failed (see ProviderError and Kind).
//   - ErrValidation: the caller supplied unusable input.
package llmerr

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrValidation    = errors.New("validation error")
	ErrProvider      = errors.New("provider error")

	ErrUnknownModelType  = fmt.Errorf("%w: unknown model type", ErrConfiguration)
	ErrUnknownProvider   = fmt.Errorf("%w: unknown provider", ErrConfiguration)
	ErrMissingCredential = fmt.Errorf("%w: api key is not configured", ErrConfiguration)

	ErrEmptyContent = fmt.Errorf("%w: no content provided for prompt", ErrValidation)

	ErrNoProviderAvailable = errors.New("no providers available")
)

// Kind classifies a provider failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindRateLimited
	KindTimeout
	KindConnection
	KindMalformedResponse
	KindEmptyResponse
	KindAPI
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindTimeout:
		return "timeout"
	case KindConnection:
		return "connection"
	case KindMalformedResponse:
		return "malformed_response"
	case KindEmptyResponse:
		return "empty_response"
	case KindAPI:
		return "api"
	default:
		return "unknown"
	}
}

// ProviderError is returned by provider clients when a vendor call does not
// produce usable text.
type ProviderError struct {
	Provider   string
	Kind       Kind
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s %s error", e.Provider, e.Kind)
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is makes every ProviderError match ErrProvider.
func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

// NewProviderError builds a ProviderError for the named provider.
func NewProviderError(provider string, kind Kind, err error) *ProviderError {
	return &ProviderError{Provider: provider, Kind: kind, Err: err}
}

// KindOf returns the Kind of the first ProviderError in err's chain, or
// KindUnknown.
func KindOf(err error) Kind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// IsClientFault reports whether err was caused by the caller's input or the
// requested model type rather than by a provider or the deployment.
func IsClientFault(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrUnknownModelType)
}
