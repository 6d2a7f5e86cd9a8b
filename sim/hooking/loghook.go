package hooking

import (
	"github.com/sarchlab/hydrocouple/sim/naming"
	"github.com/sirupsen/logrus"
)

// A LogHook writes one structured log entry every time it is invoked.
type LogHook struct {
	logger logrus.FieldLogger
}

// NewLogHook creates a LogHook that writes to the given logger.
func NewLogHook(logger logrus.FieldLogger) *LogHook {
	return &LogHook{logger: logger}
}

// Func logs the hook position, the domain, and the step.
func (h *LogHook) Func(ctx HookCtx) {
	fields := logrus.Fields{
		"step": ctx.Step,
	}

	if ctx.Pos != nil {
		fields["pos"] = ctx.Pos.Name
	}

	if named, ok := ctx.Domain.(naming.Named); ok {
		fields["domain"] = named.Name()
	}

	h.logger.WithFields(fields).Trace("hook invoked")
}
