package provider

import (
	"errors"
	"fmt"
	"strings"
)

var errNotInitialized = errors.New("provider is not initialized")

// ChannelSendError reports that a messaging or email provider rejected a request
// or could not be reached.
type ChannelSendError struct {
	Channel    Channel
	StatusCode int
	Code       int
	Message    string
	Cause      error
}

func (e *ChannelSendError) Error() string {
	if e == nil {
		return "<nil>"
	}

	parts := make([]string, 0, 5)
	parts = append(parts, fmt.Sprintf("%s send failed", e.Channel))

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("status=%d", e.StatusCode))
	}
	if e.Code > 0 {
		parts = append(parts, fmt.Sprintf("code=%d", e.Code))
	}
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	if e.Cause != nil {
		parts = append(parts, e.Cause.Error())
	}

	return strings.Join(parts, ": ")
}

func (e *ChannelSendError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// IsChannelSendError reports whether err came from a provider send.
func IsChannelSendError(err error) bool {
	var sendErr *ChannelSendError
	return errors.As(err, &sendErr)
}

// FailureReason returns a low-cardinality label for metrics.
func FailureReason(err error) string {
	var sendErr *ChannelSendError
	if !errors.As(err, &sendErr) {
		return "unknown"
	}
	switch {
	case sendErr.StatusCode == 0:
		return "unreachable"
	case sendErr.StatusCode == 401 || sendErr.StatusCode == 403:
		return "unauthorized"
	case sendErr.StatusCode == 429:
		return "rate_limited"
	case sendErr.StatusCode >= 500:
		return "provider_error"
	default:
		return "rejected"
	}
}
