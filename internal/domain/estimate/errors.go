package estimate

import (
	"errors"
	"fmt"
)

// Kind classifies an estimate error for transport mapping and assertions.
type Kind string

const (
	KindInvalidRequest Kind = "invalid_request"
	KindCredential     Kind = "credential_failure"
	KindUpstream       Kind = "upstream_failure"
	KindNotFound       Kind = "not_found"
)

// Error is a typed estimate failure. ProviderID is set for per-provider
// failures and empty for request-level ones.
type Error struct {
	Kind       Kind
	ProviderID string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.ProviderID != "" && e.Err != nil:
		return fmt.Sprintf("%s (provider %s): %s: %v", e.Kind, e.ProviderID, e.Message, e.Err)
	case e.ProviderID != "":
		return fmt.Sprintf("%s (provider %s): %s", e.Kind, e.ProviderID, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewInvalidRequestError reports a malformed client request.
func NewInvalidRequestError(message string) *Error {
	return &Error{Kind: KindInvalidRequest, Message: message}
}

// NewCredentialError reports a failed credential resolution for a provider.
func NewCredentialError(providerID string, err error) *Error {
	return &Error{Kind: KindCredential, ProviderID: providerID, Message: "credential resolution failed", Err: err}
}

// NewUpstreamError reports a failed or malformed upstream provider call.
func NewUpstreamError(providerID, message string, err error) *Error {
	return &Error{Kind: KindUpstream, ProviderID: providerID, Message: message, Err: err}
}

// NewNotFoundError reports an estimate id absent from or expired in the cache.
func NewNotFoundError(estimateID string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("estimate %q not found or expired", estimateID)}
}

// KindOf extracts the Kind from err, or empty if err is not an estimate Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
