package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

var (
	ErrRateLimited = errors.New("rate limited")
	ErrService     = errors.New("service error")
	// ErrEmptyCompletion means the provider answered without usable text.
	ErrEmptyCompletion = errors.New("empty completion")
)

func wrap(kind error, provider string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", provider, kind)
	}
	return fmt.Errorf("%s: %w: %w", provider, kind, err)
}

// classify maps an SDK error onto ErrRateLimited or ErrService. kind reports
// what the provider itself signalled and returns nil for errors it never
// produced. Context expiry and transport failures are service errors.
// Anything else, such as a response that fails to decode, is returned
// without a kind so callers treat it as unexpected.
func classify(provider string, err error, kind func(error) error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return wrap(ErrService, provider, err)
	}
	if k := kind(err); k != nil {
		return wrap(k, provider, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return wrap(ErrService, provider, err)
	}
	return fmt.Errorf("%s: %w", provider, err)
}

func statusKind(code int) error {
	if code == http.StatusTooManyRequests {
		return ErrRateLimited
	}
	return ErrService
}
