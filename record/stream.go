// Package record aggregates the states, outwards, and outputs of an
// executor over fixed periods of timesteps.
package record

import (
	"fmt"
	"sort"

	"github.com/sarchlab/hydrocouple/component"
	"github.com/sarchlab/hydrocouple/exchange"
	"github.com/sarchlab/hydrocouple/executor"
	"github.com/sarchlab/hydrocouple/field"
	"github.com/sarchlab/hydrocouple/ndarray"
	"github.com/sarchlab/hydrocouple/sim/hooking"
)

// A Record is one field aggregated with one method over one period.
type Record struct {
	StartStep int
	EndStep   int
	Name      string
	Method    string
	Value     *ndarray.Array
}

type recorded struct {
	category field.Category
	methods  []string
	values   []*ndarray.Array
}

// A Stream aggregates fields every period timesteps and writes the results
// to a sink. It is attached to an executor as a hook. Steps of a period that
// is not complete when the run ends are not written.
type Stream struct {
	typ       *component.Type
	period    int
	sink      Sink
	records   map[string]*recorded
	startStep int
	count     int
	err       error
}

// NewStream creates a stream for the fields of a component type.
func NewStream(t *component.Type, period int, sink Sink) (*Stream, error) {
	if period <= 0 {
		return nil, fmt.Errorf("record period must be positive, got %d", period)
	}

	return &Stream{
		typ:     t,
		period:  period,
		sink:    sink,
		records: make(map[string]*recorded),
	}, nil
}

// Period returns the number of timesteps aggregated into one entry.
func (s *Stream) Period() int {
	return s.period
}

// Add records a field with aggregation methods. The field can be an
// outward, an output, or a state of the component type. Aliases such as
// "average" resolve to their method.
func (s *Stream) Add(name string, methods ...string) error {
	c, ok := s.categoryOf(name)
	if !ok {
		return fmt.Errorf("%s: %q is not a recordable field",
			s.typ.Name(), name)
	}

	if len(methods) == 0 {
		return fmt.Errorf("%s: no aggregation method for %q",
			s.typ.Name(), name)
	}

	r, ok := s.records[name]
	if !ok {
		r = &recorded{category: c}
		s.records[name] = r
	}

	for _, m := range methods {
		canonical, ok := field.CanonicalMethod(m)
		if !ok {
			return fmt.Errorf("%s: unknown aggregation method %q for %q",
				s.typ.Name(), m, name)
		}

		if _, err := exchange.LookupReducer(canonical); err != nil {
			return fmt.Errorf("%s: %w", s.typ.Name(), err)
		}

		if !contains(r.methods, canonical) {
			r.methods = append(r.methods, canonical)
		}
	}

	sort.Strings(r.methods)

	return nil
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}

	return false
}

func (s *Stream) categoryOf(name string) (field.Category, bool) {
	for _, c := range []field.Category{field.Outward, field.Output, field.State} {
		if _, ok := s.typ.Schema().Lookup(c, name); ok {
			return c, true
		}
	}

	return 0, false
}

// Names returns the recorded field names, sorted.
func (s *Stream) Names() []string {
	names := make([]string, 0, len(s.records))
	for name := range s.records {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Func collects the values of a step and writes entries when a period is
// complete.
func (s *Stream) Func(ctx hooking.HookCtx) {
	if ctx.Pos != executor.HookPosAfterRun {
		return
	}

	rec, ok := ctx.Item.(executor.StepRecord)
	if !ok {
		return
	}

	if err := s.Update(rec); err != nil && s.err == nil {
		s.err = err
	}
}

// Update adds the values of one step.
func (s *Stream) Update(rec executor.StepRecord) error {
	if s.count == 0 {
		s.startStep = rec.Step
	}

	for name, r := range s.records {
		v, err := valueOf(rec, r.category, name)
		if err != nil {
			return err
		}

		r.values = append(r.values, v.Clone())
	}

	s.count++
	if s.count < s.period {
		return nil
	}

	return s.flush(rec.Step)
}

func valueOf(
	rec executor.StepRecord,
	c field.Category,
	name string,
) (*ndarray.Array, error) {
	var v *ndarray.Array

	switch c {
	case field.Outward:
		v = rec.Outwards[name]
	case field.Output:
		v = rec.Outputs[name]
	case field.State:
		if h, ok := rec.States[name]; ok {
			v = h.MustGet(0)
		}
	}

	if v == nil {
		return nil, fmt.Errorf("step %d: no value for %s %q", rec.Step, c, name)
	}

	return v, nil
}

func (s *Stream) flush(endStep int) error {
	var err error

	for _, name := range s.Names() {
		r := s.records[name]

		for _, m := range r.methods {
			reducer, lookupErr := exchange.LookupReducer(m)
			if lookupErr != nil {
				return lookupErr
			}

			value, reduceErr := reducer(r.values)
			if reduceErr != nil {
				return fmt.Errorf("%s %s: %w", name, m, reduceErr)
			}

			writeErr := s.sink.Write(Record{
				StartStep: s.startStep,
				EndStep:   endStep,
				Name:      name,
				Method:    m,
				Value:     value,
			})
			if writeErr != nil && err == nil {
				err = writeErr
			}
		}

		r.values = nil
	}

	s.count = 0

	return err
}

// Err returns the first error met while recording as a hook.
func (s *Stream) Err() error {
	return s.err
}
