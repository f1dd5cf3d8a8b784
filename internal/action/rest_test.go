package action

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/muurk/rangectl/internal/rangectl"
)

func fastSink(url string) *RESTSink {
	s := NewRESTSink(url, "plcbus", "A1", "preset_dim")
	s.RetryDelay = time.Millisecond
	s.MaxRetryDelay = 5 * time.Millisecond
	return s
}

func TestRESTSink_CommandURL(t *testing.T) {
	tests := []struct {
		name    string
		sink    *RESTSink
		value   float64
		wantURL string
	}{
		{
			name:    "integer",
			sink:    NewRESTSink("http://gw:40405", "plcbus", "A1", "preset_dim"),
			value:   60,
			wantURL: "http://gw:40405/command/plcbus/A1/preset_dim/60",
		},
		{
			name:    "fraction and trailing slash",
			sink:    NewRESTSink("http://gw/", "x10", "B2", "dim"),
			value:   21.5,
			wantURL: "http://gw/command/x10/B2/dim/21.5",
		},
		{
			name:    "escaped address",
			sink:    NewRESTSink("http://gw", "knx", "1/2/3", "set"),
			value:   0,
			wantURL: "http://gw/command/knx/1%2F2%2F3/set/0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sink.CommandURL(tt.value); got != tt.wantURL {
				t.Errorf("CommandURL() = %q, want %q", got, tt.wantURL)
			}
		})
	}
}

func TestRESTSink_Submit(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantErr      bool
		wantRejected bool
		wantCalls    int32
	}{
		{"ok reply", http.StatusOK, `{"status":"OK","code":0,"description":"done"}`, false, false, 1},
		{"empty body", http.StatusOK, "", false, false, 1},
		{"error reply", http.StatusOK, `{"status":"ERROR","code":3,"description":"device offline"}`, true, true, 1},
		{"malformed reply", http.StatusOK, `not json`, true, false, 1},
		{"not found is final", http.StatusNotFound, `no such command`, true, false, 1},
		{"server error retries", http.StatusInternalServerError, `boom`, true, false, DefaultMaxRetries + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				if r.Method != http.MethodGet {
					t.Errorf("method = %s, want GET", r.Method)
				}
				if r.URL.Path != "/command/plcbus/A1/preset_dim/42" {
					t.Errorf("path = %s", r.URL.Path)
				}
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			err := fastSink(server.URL).Submit(context.Background(), rangectl.Action{Value: 42})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Submit() error = %v, wantErr %v", err, tt.wantErr)
			}
			if IsRejectedError(err) != tt.wantRejected {
				t.Errorf("IsRejectedError(%v) = %v, want %v", err, !tt.wantRejected, tt.wantRejected)
			}
			if got := atomic.LoadInt32(&calls); got != tt.wantCalls {
				t.Errorf("server called %d times, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestRESTSink_RecoversAfterTransientFailure(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"status":"OK","code":0}`)
	}))
	defer server.Close()

	if err := fastSink(server.URL).Submit(context.Background(), rangectl.Action{Value: 42}); err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server called %d times, want 3", got)
	}
}

func TestRESTSink_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	sink := fastSink(url)
	sink.MaxRetries = 1
	err := sink.Submit(context.Background(), rangectl.Action{Value: 1})
	if !IsNetworkError(err) {
		t.Errorf("Submit() error = %v, want a network error", err)
	}
}

func TestRESTSink_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sink := fastSink(server.URL)
	sink.MaxRetries = 100
	if err := sink.Submit(ctx, rangectl.Action{Value: 1}); err == nil {
		t.Error("Submit() with a cancelled context should fail")
	}
}
