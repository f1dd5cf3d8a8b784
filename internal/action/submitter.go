package action

import (
	"context"
	"fmt"

	"github.com/muurk/rangectl/internal/config"
	"github.com/muurk/rangectl/internal/rangectl"
)

// Submitter delivers one action and blocks until the backend answers or
// ctx ends.
type Submitter interface {
	Submit(ctx context.Context, a rangectl.Action) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, a rangectl.Action) error

// Submit implements Submitter.
func (f SubmitterFunc) Submit(ctx context.Context, a rangectl.Action) error {
	return f(ctx, a)
}

// FromBackend builds the Submitter a backend definition describes. A nil
// definition logs only. WebSocket backends are dialled here; the caller
// owns the returned sink and closes it when it implements io.Closer.
func FromBackend(ctx context.Context, control string, def *config.BackendDef) (Submitter, error) {
	if def == nil {
		return NewLogSink(control), nil
	}

	switch def.Kind {
	case config.BackendLog:
		return NewLogSink(control), nil
	case config.BackendREST:
		return NewRESTSink(def.URL, def.Technology, def.Address, def.Command), nil
	case config.BackendWebSocket:
		return DialWebSocket(ctx, def.URL, def.Device)
	default:
		return nil, NewConfigError(fmt.Sprintf("unknown backend kind %q", def.Kind))
	}
}
