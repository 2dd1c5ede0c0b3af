package mmapi

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
	// ErrTypeNetwork indicates a network-level error
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates the request did not complete in time
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates nothing is listening at the endpoint
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates the endpoint host name could not be resolved
	ErrTypeDNS
	// ErrTypeHTTP indicates an unexpected HTTP status code
	ErrTypeHTTP
	// ErrTypeParse indicates a response body that could not be decoded
	ErrTypeParse
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
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// APIError represents a failed call to the management endpoint
type APIError struct {
	Type       ErrorType // Category of error
	Op         string    // Operation that failed (connect, list devices, upload)
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (if applicable)
	Body       string    // Response body (if applicable)
	Err        error     // Underlying error (if any)
}

// Error implements the error interface
func (e *APIError) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, msg)
}

// Unwrap returns the underlying error for error chain inspection
func (e *APIError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError turns a transport error into an APIError with a
// specific type. Returns nil for a nil error.
func ClassifyNetworkError(op string, err error) *APIError {
	if err == nil {
		return nil
	}

	if os.IsTimeout(err) || errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return &APIError{Type: ErrTypeTimeout, Op: op, Message: "request timed out", Err: err}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &APIError{Type: ErrTypeDNS, Op: op, Message: fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name), Err: err}
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return &APIError{Type: ErrTypeConnectionRefused, Op: op, Message: "endpoint refused connection", Err: err}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return &APIError{Type: ErrTypeTimeout, Op: op, Message: "request timed out", Err: err}
	}

	return &APIError{Type: ErrTypeNetwork, Op: op, Message: "network error occurred", Err: err}
}

// NewHTTPError creates an error for an unexpected status code
func NewHTTPError(op string, statusCode int, body string) *APIError {
	return &APIError{
		Type:       ErrTypeHTTP,
		Op:         op,
		Message:    fmt.Sprintf("unexpected status %d: %s", statusCode, body),
		StatusCode: statusCode,
		Body:       body,
	}
}

// NewParseError creates an error for an undecodable response
func NewParseError(op string, message string, err error) *APIError {
	return &APIError{Type: ErrTypeParse, Op: op, Message: message, Err: err}
}

func asAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNetworkError checks if an error is a network error (including timeout, connection refused, DNS)
func IsNetworkError(err error) bool {
	apiErr, ok := asAPIError(err)
	if !ok {
		return false
	}
	switch apiErr.Type {
	case ErrTypeNetwork, ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeDNS:
		return true
	}
	return false
}

// IsHTTPError checks if an error is an HTTP status error
func IsHTTPError(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && apiErr.Type == ErrTypeHTTP
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	apiErr, ok := asAPIError(err)
	return ok && apiErr.Type == ErrTypeParse
}

// StatusCode returns the HTTP status carried by err, or 0
func StatusCode(err error) int {
	if apiErr, ok := asAPIError(err); ok {
		return apiErr.StatusCode
	}
	return 0
}

// TroubleshootingHints returns user-facing advice for a failed endpoint call
func TroubleshootingHints(err error) []string {
	apiErr, ok := asAPIError(err)
	if !ok {
		return nil
	}

	switch apiErr.Type {
	case ErrTypeConnectionRefused:
		return []string{
			"Check that Motion Master Client is running",
			"Make sure its HTTP API is enabled",
			"Verify the port in --base-url (63526 is the default)",
		}
	case ErrTypeTimeout:
		return []string{
			"The endpoint did not answer in time",
			"Check the network path to the endpoint host",
			"For uploads, raise --request-timeout",
		}
	case ErrTypeDNS:
		return []string{
			"Use an IP address in --base-url instead of a host name",
			"Try 'fwfleet discover' to locate the endpoint via mDNS",
		}
	case ErrTypeHTTP:
		if apiErr.StatusCode == 404 {
			return []string{
				"The base URL is probably missing the /api prefix",
				"Example: http://localhost:63526/api",
			}
		}
		if apiErr.StatusCode >= 500 {
			return []string{
				"The endpoint reported an internal error",
				"Check the Motion Master system log",
				"Make sure the EtherCAT chain is powered and cabled",
			}
		}
		return []string{fmt.Sprintf("The endpoint answered HTTP %d; check the request parameters", apiErr.StatusCode)}
	case ErrTypeParse:
		return []string{
			"The endpoint returned a response fwfleet could not decode",
			"Check that --base-url points at the Motion Master HTTP API",
		}
	default:
		return []string{
			"Check your network connection",
			"Verify the endpoint host is reachable",
		}
	}
}
