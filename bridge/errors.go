package bridge

import (
	"errors"
	"fmt"

	"github.com/flagbridge/flagbridge/flagapi"
)

// ErrorKind is the fixed failure taxonomy surfaced to agents.
type ErrorKind string

const (
	// KindInvalidInput covers schema and query-option violations. Never retried.
	KindInvalidInput ErrorKind = "invalid_input"
	// KindMissingConfiguration names a required value with no default. Never retried.
	KindMissingConfiguration ErrorKind = "missing_configuration"
	// KindRemoteError is a remote call failure, surfaced as-is with no retry here.
	KindRemoteError ErrorKind = "remote_error"
	// KindToolNotFound means the invoked tool name is not registered.
	KindToolNotFound ErrorKind = "tool_not_found"
	// KindUnknown is the fallback for unrecognized causes.
	KindUnknown ErrorKind = "unknown"
)

// NormalizedError is the fixed-shape failure representation surfaced to
// callers regardless of internal cause. Instances are freshly produced per
// failure and never retained or mutated.
type NormalizedError struct {
	Kind    ErrorKind
	Message string
	Hint    string
}

func (e *NormalizedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// MissingConfigError reports a required value that neither the call
// arguments nor the configured defaults supply.
type MissingConfigError struct {
	// Value names what is missing, e.g. "project key".
	Value string
	// EnvVar names the configuration knob that would supply a default.
	EnvVar string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("missing %s", e.Value)
}

// MissingConfig builds a MissingConfigError.
func MissingConfig(value, envVar string) error {
	return &MissingConfigError{Value: value, EnvVar: envVar}
}

// Normalize maps any failure cause onto the fixed taxonomy. It is pure and
// idempotent: re-normalizing a normalized error returns it unchanged.
// A nil error normalizes to nil.
func Normalize(err error) *NormalizedError {
	if err == nil {
		return nil
	}

	var ne *NormalizedError
	if errors.As(err, &ne) {
		return ne
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return &NormalizedError{Kind: KindInvalidInput, Message: ve.Error()}
	}

	var mc *MissingConfigError
	if errors.As(err, &mc) {
		return &NormalizedError{
			Kind:    KindMissingConfiguration,
			Message: mc.Error(),
			Hint:    fmt.Sprintf("pass it explicitly or set %s", mc.EnvVar),
		}
	}

	var ae *flagapi.APIError
	if errors.As(err, &ae) {
		n := &NormalizedError{Kind: KindRemoteError, Message: ae.Error()}
		switch {
		case ae.IsAuth():
			n.Hint = "verify FLAGBRIDGE_API_TOKEN grants access to this project"
		case ae.Status == 0:
			n.Hint = "check FLAGBRIDGE_API_BASE_URL and network connectivity"
		}
		return n
	}

	return &NormalizedError{Kind: KindUnknown, Message: err.Error()}
}
