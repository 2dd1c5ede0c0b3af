package mmapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"
)

func TestClassifyNetworkError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{name: "deadline", err: context.DeadlineExceeded, want: ErrTypeTimeout},
		{name: "dns", err: &net.DNSError{Name: "mm.local", Err: "no such host"}, want: ErrTypeDNS},
		{name: "refused", err: &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, want: ErrTypeConnectionRefused},
		{name: "generic", err: errors.New("broken pipe"), want: ErrTypeNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyNetworkError("connect", tt.err)
			if got.Type != tt.want {
				t.Errorf("Type = %v, want %v", got.Type, tt.want)
			}
			if !errors.Is(got, tt.err) {
				t.Error("classified error should unwrap to the cause")
			}
		})
	}

	if ClassifyNetworkError("connect", nil) != nil {
		t.Error("ClassifyNetworkError(nil) should return nil")
	}
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	base := NewHTTPError("connect", 500, "boom")
	wrapped := fmt.Errorf("session: %w", base)

	if !IsHTTPError(wrapped) {
		t.Error("IsHTTPError should find a wrapped APIError")
	}
	if StatusCode(wrapped) != 500 {
		t.Errorf("StatusCode() = %d, want 500", StatusCode(wrapped))
	}
	if IsNetworkError(wrapped) || IsParseError(wrapped) {
		t.Error("HTTP error misclassified")
	}
	if IsHTTPError(errors.New("plain")) {
		t.Error("plain errors are not HTTP errors")
	}
}

func TestAPIError_Error(t *testing.T) {
	err := NewHTTPError("list devices", 404, "not found")
	want := "HTTP Error: list devices: unexpected status 404: not found"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestTroubleshootingHints(t *testing.T) {
	if hints := TroubleshootingHints(errors.New("x")); hints != nil {
		t.Errorf("non-API errors should have no hints, got %v", hints)
	}
	if hints := TroubleshootingHints(NewHTTPError("connect", 404, "")); len(hints) == 0 {
		t.Error("404 should produce hints")
	}
	refused := ClassifyNetworkError("connect", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED})
	if hints := TroubleshootingHints(refused); len(hints) == 0 {
		t.Error("connection refused should produce hints")
	}
}
