package llmclient

import (
	"context"
	"errors"
)

// LLMClient sends one prompt to a text generation model and returns the
// response text. Implementations do the API call only; retries, logging,
// metrics, and tracing are layered on with middleware.
type LLMClient interface {
	Name() string
	Generate(ctx context.Context, prompt string, cfg GenerationConfig) (string, error)
	Close() error
}

var (
	ErrEmptyResponse = errors.New("empty response from model")
	// ErrConfiguration marks failures caused by the service's own setup,
	// such as a missing or rejected API key.
	ErrConfiguration = errors.New("model client misconfigured")
)

// PermanentError indicates an error that will not resolve with retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err, or anything it wraps, is a PermanentError.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// UnavailableClient fails every call with Err. It stands in for a provider
// that could not be built so that requests report a configuration error
// while the rest of the service keeps running.
type UnavailableClient struct {
	Err error
}

func (u *UnavailableClient) Name() string { return "Unavailable" }
func (u *UnavailableClient) Close() error { return nil }
func (u *UnavailableClient) Generate(ctx context.Context, _ string, _ GenerationConfig) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "", u.Err
}
