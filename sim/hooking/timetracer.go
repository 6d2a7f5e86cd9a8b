package hooking

import (
	"sync"
	"time"
)

// A TimeTracer collects the total and average wall time spent between two
// hook positions, such as before and after a component runs a step. Spans
// are tracked per domain, so one tracer can watch several domains.
type TimeTracer struct {
	start, end *HookPos
	now        func() time.Time

	lock     sync.Mutex
	inflight map[Hookable]time.Time
	total    time.Duration
	count    uint64
}

// NewTimeTracer creates a tracer for the spans from start to end.
func NewTimeTracer(start, end *HookPos) *TimeTracer {
	return &TimeTracer{
		start:    start,
		end:      end,
		now:      time.Now,
		inflight: make(map[Hookable]time.Time),
	}
}

// WithClock replaces the clock of the tracer.
func (t *TimeTracer) WithClock(now func() time.Time) *TimeTracer {
	t.now = now
	return t
}

// Func opens or closes a span.
func (t *TimeTracer) Func(ctx HookCtx) {
	switch ctx.Pos {
	case t.start:
		t.lock.Lock()
		t.inflight[ctx.Domain] = t.now()
		t.lock.Unlock()
	case t.end:
		t.lock.Lock()
		defer t.lock.Unlock()

		startTime, ok := t.inflight[ctx.Domain]
		if !ok {
			return
		}

		t.total += t.now().Sub(startTime)
		t.count++

		delete(t.inflight, ctx.Domain)
	}
}

// TotalTime returns the time spent in completed spans.
func (t *TimeTracer) TotalTime() time.Duration {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.total
}

// AverageTime returns the mean duration of the completed spans, or zero if
// there is none.
func (t *TimeTracer) AverageTime() time.Duration {
	t.lock.Lock()
	defer t.lock.Unlock()

	if t.count == 0 {
		return 0
	}

	return t.total / time.Duration(t.count)
}

// Count returns the number of completed spans.
func (t *TimeTracer) Count() uint64 {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.count
}
