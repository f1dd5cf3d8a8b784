package action

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error (unreachable host, broken connection)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates the backend did not answer in time
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates nothing is listening at the backend address
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeHTTP indicates an HTTP-level error (non-200 status code)
	ErrTypeHTTP
	// ErrTypeParse indicates a malformed reply
	ErrTypeParse
	// ErrTypeRejected indicates the backend understood and refused the command
	ErrTypeRejected
	// ErrTypeClosed indicates the connection was closed before a reply arrived
	ErrTypeClosed
	// ErrTypeConfig indicates an unusable backend definition
	ErrTypeConfig
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeRejected:
		return "Rejected"
	case ErrTypeClosed:
		return "Connection Closed"
	case ErrTypeConfig:
		return "Configuration Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// SinkError represents a failed submission
type SinkError struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status or backend reply code (if applicable)
	Err        error     // Underlying error (if any)
	Retryable  bool      // Whether the error is retryable
}

// Error implements the error interface
func (e *SinkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *SinkError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError analyzes a transport error and returns a more
// specific error type.
func ClassifyNetworkError(err error) *SinkError {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return &SinkError{Type: ErrTypeTimeout, Message: "Request timed out", Err: err, Retryable: true}
	}
	if errors.Is(err, context.Canceled) {
		return &SinkError{Type: ErrTypeNetwork, Message: "Request cancelled", Err: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &SinkError{Type: ErrTypeDNS, Message: fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name), Err: err}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return &SinkError{Type: ErrTypeConnectionRefused, Message: "Backend refused connection", Err: err, Retryable: true}
		}
		if errors.Is(opErr.Err, syscall.EHOSTUNREACH) {
			return &SinkError{Type: ErrTypeNetwork, Message: "Host unreachable", Err: err, Retryable: true}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return ClassifyNetworkError(urlErr.Err)
	}

	return &SinkError{Type: ErrTypeNetwork, Message: "Network error occurred", Err: err, Retryable: true}
}

// NewNetworkError creates a network-level error with automatic classification
func NewNetworkError(message string, err error) *SinkError {
	classified := ClassifyNetworkError(err)
	if classified == nil {
		return &SinkError{Type: ErrTypeNetwork, Message: message, Retryable: true}
	}
	classified.Message = message
	return classified
}

// NewHTTPError creates an HTTP-level error
func NewHTTPError(statusCode int, message string) *SinkError {
	return &SinkError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  statusCode >= 500, // Server errors are retryable
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *SinkError {
	return &SinkError{Type: ErrTypeParse, Message: message, Err: err}
}

// NewRejectedError reports a command the backend refused
func NewRejectedError(code int, message string) *SinkError {
	return &SinkError{Type: ErrTypeRejected, Message: message, StatusCode: code}
}

// NewClosedError reports a submission cut short by the connection closing
func NewClosedError(err error) *SinkError {
	return &SinkError{Type: ErrTypeClosed, Message: "connection closed before reply", Err: err, Retryable: true}
}

// NewConfigError reports an unusable backend definition
func NewConfigError(message string) *SinkError {
	return &SinkError{Type: ErrTypeConfig, Message: message}
}

func errType(err error) (ErrorType, bool) {
	var se *SinkError
	if errors.As(err, &se) {
		return se.Type, true
	}
	return 0, false
}

// IsNetworkError checks if an error is a network error (including timeout, connection refused, DNS)
func IsNetworkError(err error) bool {
	t, ok := errType(err)
	return ok && (t == ErrTypeNetwork || t == ErrTypeTimeout || t == ErrTypeConnectionRefused || t == ErrTypeDNS)
}

// IsHTTPError checks if an error is an HTTP error
func IsHTTPError(err error) bool {
	t, ok := errType(err)
	return ok && t == ErrTypeHTTP
}

// IsRejectedError checks if the backend refused the command
func IsRejectedError(err error) bool {
	t, ok := errType(err)
	return ok && t == ErrTypeRejected
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var se *SinkError
	if errors.As(err, &se) {
		return se.Retryable
	}
	// Unknown errors are not retryable by default
	return false
}

// ShortMessage returns a concise, user-friendly error message
func ShortMessage(err error) string {
	var se *SinkError
	if !errors.As(err, &se) {
		return err.Error()
	}

	switch se.Type {
	case ErrTypeTimeout:
		return "Backend not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Backend refused connection - is it running?"
	case ErrTypeDNS:
		return "Cannot resolve backend hostname"
	case ErrTypeNetwork:
		return "Network error - check connection"
	case ErrTypeHTTP:
		return fmt.Sprintf("Backend error (HTTP %d)", se.StatusCode)
	case ErrTypeParse:
		return "Failed to parse backend reply"
	case ErrTypeRejected:
		return "Backend rejected command: " + se.Message
	case ErrTypeClosed:
		return "Backend connection lost"
	default:
		return se.Message
	}
}
