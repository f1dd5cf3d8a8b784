package action

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
	"testing"
)

func TestClassifyNetworkError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantType      ErrorType
		wantRetryable bool
	}{
		{"deadline", context.DeadlineExceeded, ErrTypeTimeout, true},
		{"cancelled", context.Canceled, ErrTypeNetwork, false},
		{"dns", &net.DNSError{Name: "gw.invalid", Err: "no such host"}, ErrTypeDNS, false},
		{"refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, ErrTypeConnectionRefused, true},
		{"unreachable", &net.OpError{Op: "dial", Err: syscall.EHOSTUNREACH}, ErrTypeNetwork, true},
		{"generic", errors.New("broken pipe"), ErrTypeNetwork, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyNetworkError(tt.err)
			if got.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", got.Type, tt.wantType)
			}
			if got.Retryable != tt.wantRetryable {
				t.Errorf("Retryable = %v, want %v", got.Retryable, tt.wantRetryable)
			}
			if !errors.Is(got, tt.err) {
				t.Error("classified error should wrap the original")
			}
		})
	}

	if ClassifyNetworkError(nil) != nil {
		t.Error("ClassifyNetworkError(nil) should be nil")
	}
}

func TestPredicates(t *testing.T) {
	wrapped := fmt.Errorf("submit lounge: %w", NewHTTPError(503, "unavailable"))

	if !IsHTTPError(wrapped) {
		t.Error("IsHTTPError should see through wrapping")
	}
	if !IsRetryable(wrapped) {
		t.Error("5xx should be retryable")
	}
	if IsRetryable(NewHTTPError(400, "bad request")) {
		t.Error("4xx should not be retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("unknown errors should not be retryable")
	}
	if !IsRejectedError(NewRejectedError(2, "nope")) {
		t.Error("IsRejectedError(NewRejectedError) = false")
	}
	if IsNetworkError(NewParseError("bad", nil)) {
		t.Error("parse errors are not network errors")
	}
}

func TestShortMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{NewHTTPError(502, "x"), "Backend error (HTTP 502)"},
		{NewRejectedError(1, "device offline"), "Backend rejected command: device offline"},
		{ClassifyNetworkError(context.DeadlineExceeded), "Backend not responding (timeout)"},
		{errors.New("plain"), "plain"},
	}

	for _, tt := range tests {
		if got := ShortMessage(tt.err); got != tt.want {
			t.Errorf("ShortMessage(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestSinkErrorString(t *testing.T) {
	err := NewNetworkError("command request failed", errors.New("reset"))
	if !strings.Contains(err.Error(), "command request failed") || !strings.Contains(err.Error(), "reset") {
		t.Errorf("Error() = %q", err.Error())
	}
}
