package action

import (
	"context"

	"go.uber.org/zap"

	"github.com/muurk/rangectl/internal/logging"
	"github.com/muurk/rangectl/internal/rangectl"
)

// LogSink accepts every action and only logs it.
type LogSink struct {
	Control string
}

// NewLogSink creates a dry-run sink for the named control.
func NewLogSink(control string) *LogSink {
	return &LogSink{Control: control}
}

// Submit implements Submitter.
func (s *LogSink) Submit(ctx context.Context, a rangectl.Action) error {
	if err := ctx.Err(); err != nil {
		return NewNetworkError("command cancelled", err)
	}
	logging.Info("Dry-run command",
		zap.String("control", s.Control),
		zap.Float64("value", a.Value),
	)
	return nil
}
