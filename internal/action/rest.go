package action

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"go.uber.org/zap"

	"github.com/muurk/rangectl/internal/logging"
	"github.com/muurk/rangectl/internal/protocol"
	"github.com/muurk/rangectl/internal/rangectl"
	"github.com/muurk/rangectl/internal/version"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for failed requests
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the initial delay between retry attempts
	DefaultRetryDelay = 500 * time.Millisecond

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 5 * time.Second
)

// RESTSink submits actions to a Domogik-style REST gateway.
type RESTSink struct {
	// BaseURL is the gateway root (e.g., "http://gateway:40405")
	BaseURL string

	// Technology, Address and Command select the device command.
	Technology string
	Address    string
	Command    string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the maximum number of retry attempts for failed requests
	MaxRetries uint64

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration
}

// NewRESTSink creates a REST sink with default retry settings.
func NewRESTSink(baseURL, technology, address, command string) *RESTSink {
	return &RESTSink{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		Technology:    technology,
		Address:       address,
		Command:       command,
		HTTPClient:    &http.Client{Timeout: DefaultTimeout},
		MaxRetries:    DefaultMaxRetries,
		RetryDelay:    DefaultRetryDelay,
		MaxRetryDelay: DefaultMaxRetryDelay,
	}
}

// CommandURL returns the request URL for value.
func (s *RESTSink) CommandURL(value float64) string {
	return s.BaseURL + protocol.CommandPath(s.Technology, s.Address, s.Command, value)
}

// Submit sends the action, retrying retryable failures with exponential
// backoff until MaxRetries is exhausted or ctx ends.
func (s *RESTSink) Submit(ctx context.Context, a rangectl.Action) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.RetryDelay
	policy.MaxInterval = s.MaxRetryDelay
	policy.MaxElapsedTime = 0

	attempt := 0
	operation := func() error {
		attempt++
		err := s.submitAttempt(ctx, a)
		if err != nil && !IsRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, next time.Duration) {
		logging.Warn("Command failed, retrying",
			zap.String("url", s.CommandURL(a.Value)),
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", next),
			zap.Error(err),
		)
	}

	b := backoff.WithContext(backoff.WithMaxRetries(policy, s.MaxRetries), ctx)
	return backoff.RetryNotify(operation, b, notify)
}

// submitAttempt performs a single request.
func (s *RESTSink) submitAttempt(ctx context.Context, a rangectl.Action) error {
	target := s.CommandURL(a.Value)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return NewConfigError(fmt.Sprintf("invalid command URL %q: %v", target, err))
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return NewNetworkError("command request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return NewNetworkError("failed to read response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		return NewHTTPError(resp.StatusCode, fmt.Sprintf("command failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	// Some gateways answer with an empty body.
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	var reply protocol.RESTReply
	if err := json.Unmarshal(body, &reply); err != nil {
		return NewParseError("failed to parse gateway reply", err)
	}
	if reply.Status != protocol.ReplyOK {
		return NewRejectedError(reply.Code, reply.Description)
	}

	logging.Debug("Command accepted",
		zap.String("url", target),
		zap.Int("code", reply.Code),
	)
	return nil
}
