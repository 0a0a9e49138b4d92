package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// Gateway failures are reduced to two classes. The conversation loop uses
// them to decide what to show the user; neither class is ever persisted.
var (
	// ErrNetwork marks transport-level failures reaching the model endpoint.
	ErrNetwork = errors.New("ai: network error")
	// ErrUnknown marks every other gateway failure.
	ErrUnknown = errors.New("ai: unknown error")
)

// Classify wraps a raw gateway error into one of the two failure classes.
// Already-classified errors pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNetwork) || errors.Is(err, ErrUnknown) {
		return err
	}
	if isNetworkError(err) {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	return fmt.Errorf("%w: %v", ErrUnknown, err)
}

func isNetworkError(err error) bool {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
