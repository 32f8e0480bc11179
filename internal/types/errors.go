package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrNoTargets     = errors.New("no target URLs configured")
	ErrAuthRejected  = errors.New("mail server rejected credentials")
	ErrEmptyResponse = errors.New("empty response body")
	ErrInvalidURL    = errors.New("invalid URL")
	ErrNotFound      = errors.New("ad not found on page")
	ErrUnknownSite   = errors.New("unknown site")
)

// FetchError wraps errors that occur during fetching.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError wraps errors that occur during parsing.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur while loading or saving state.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// MailError wraps errors returned by a mail transport.
type MailError struct {
	Transport string
	Hint      string
	Err       error
}

func (e *MailError) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("mail error (%s): %v; %s", e.Transport, e.Err, e.Hint)
	}
	return fmt.Sprintf("mail error (%s): %v", e.Transport, e.Err)
}

func (e *MailError) Unwrap() error { return e.Err }

// IsAuthError reports whether err is a rejected-credentials mail failure.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrAuthRejected)
}
