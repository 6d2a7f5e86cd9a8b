package statedump

import (
	"github.com/sarchlab/hydrocouple/executor"
	"github.com/sarchlab/hydrocouple/sim/hooking"
	"github.com/sirupsen/logrus"
)

// A Hook dumps the states of an executor once initialised and after every
// step. The dumped step is the number of steps completed. The dump file is
// created on the first invocation.
type Hook struct {
	path   string
	dump   *Dump
	logger logrus.FieldLogger
	err    error
}

// NewHook creates a hook dumping into the file at path. An empty path picks
// a unique name.
func NewHook(path string, logger logrus.FieldLogger) *Hook {
	return &Hook{path: path, logger: logger}
}

// Func records the states at the positions that matter.
func (h *Hook) Func(ctx hooking.HookCtx) {
	if ctx.Pos != executor.HookPosAfterInitialise &&
		ctx.Pos != executor.HookPosAfterStep {
		return
	}

	e, ok := ctx.Domain.(*executor.Executor)
	if !ok || h.err != nil {
		return
	}

	if h.dump == nil {
		d, err := Create(h.path, e)
		if err != nil {
			h.fail(err, ctx.Step)
			return
		}

		h.dump = d
		h.logger.WithField("path", d.Path()).Info("dumping states")
	}

	if err := h.dump.Update(ctx.Step, e.States()); err != nil {
		h.fail(err, ctx.Step)
	}
}

func (h *Hook) fail(err error, step int) {
	h.logger.WithError(err).
		WithField("step", step).
		Error("dumping states failed")

	h.err = err
}

// Dump returns the dump written to, or nil before the first invocation.
func (h *Hook) Dump() *Dump {
	return h.dump
}

// Err returns the error that stopped dumping, if any.
func (h *Hook) Err() error {
	return h.err
}

// Close flushes and closes the dump.
func (h *Hook) Close() error {
	if h.dump == nil {
		return h.err
	}

	return h.dump.Close()
}
