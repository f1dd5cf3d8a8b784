package rangectl

import (
	"go.uber.org/zap"

	"github.com/muurk/rangectl/internal/logging"
)

// animateTo points the arc at p. If no animation is running one starts now,
// with its first frame drawn synchronously; otherwise the running loop picks
// up the new target on its next frame.
func (c *Control) animateTo(p float64) {
	c.target = arcUnits(p)
	if c.animating {
		return
	}
	c.animating = true
	logging.Debug("Arc animation started",
		zap.String("control", c.opts.Name),
		zap.Int("from", c.displayed),
		zap.Int("to", c.target),
	)
	c.frameTick()
}

// frameTick moves the arc one unit toward the target and reschedules itself
// until they meet.
func (c *Control) frameTick() {
	c.frame = nil

	switch {
	case c.target < c.displayed:
		c.displayed--
	case c.target > c.displayed:
		c.displayed++
	}
	c.presenter.DrawArc(c.displayed)

	if c.displayed == c.target {
		c.animating = false
		return
	}
	c.frame = c.sched.AfterFunc(c.opts.FrameInterval, c.frameTick)
}
