// Package executor drives one component instance through its lifecycle:
// initialise once, run timestep after timestep, finalise once.
package executor

import (
	"context"
	"errors"
	"fmt"

	"github.com/sarchlab/hydrocouple/component"
	"github.com/sarchlab/hydrocouple/dataset"
	"github.com/sarchlab/hydrocouple/exchange"
	"github.com/sarchlab/hydrocouple/field"
	"github.com/sarchlab/hydrocouple/ndarray"
	"github.com/sarchlab/hydrocouple/routing"
	"github.com/sarchlab/hydrocouple/sim/hooking"
	"github.com/sarchlab/hydrocouple/sim/naming"
	"github.com/sarchlab/hydrocouple/state"
	"github.com/sirupsen/logrus"
)

// Phase is where an executor stands in its lifecycle.
type Phase int

// The phases, in order.
const (
	Uninitialised Phase = iota
	Ready
	Finalised
)

func (p Phase) String() string {
	switch p {
	case Uninitialised:
		return "uninitialised"
	case Ready:
		return "ready"
	case Finalised:
		return "finalised"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Hook positions of an executor.
var (
	// HookPosAfterInitialise is invoked once the states hold their initial
	// conditions. Item is the state set.
	HookPosAfterInitialise = &hooking.HookPos{Name: "AfterInitialise"}

	// HookPosBeforeRun is invoked before the implementation runs a step.
	// Item is the *component.RunArgs.
	HookPosBeforeRun = &hooking.HookPos{Name: "BeforeRun"}

	// HookPosAfterRun is invoked after a step is validated and routed, before
	// the states advance. Item is a StepRecord.
	HookPosAfterRun = &hooking.HookPos{Name: "AfterRun"}

	// HookPosAfterStep is invoked after the states advance. Item is the state
	// set.
	HookPosAfterStep = &hooking.HookPos{Name: "AfterStep"}

	// HookPosAfterFinalise is invoked once the implementation is finalised.
	HookPosAfterFinalise = &hooking.HookPos{Name: "AfterFinalise"}
)

// A StepRecord is everything one timestep saw and produced.
type StepRecord struct {
	Step     int
	Inwards  exchange.Transfers
	Outwards exchange.Transfers
	Outputs  map[string]*ndarray.Array
	States   state.Set
}

// An Executor runs one instance of a component type.
type Executor struct {
	naming.NamedBase
	hooking.HookableBase

	typ    *component.Type
	impl   component.Implementation
	space  []int
	data   *dataset.DataSet
	router routing.Router
	logger logrus.FieldLogger

	parameters  map[string]*ndarray.Array
	constants   map[string]float64
	stateShapes map[string][]int

	states   state.Set
	phase    Phase
	step     int
	restored bool
}

// Type returns the component type.
func (e *Executor) Type() *component.Type {
	return e.typ
}

// Variant returns the name of the implementation.
func (e *Executor) Variant() string {
	return e.impl.Variant()
}

// Phase returns the current phase.
func (e *Executor) Phase() Phase {
	return e.phase
}

// CurrentStep returns the index of the next timestep to run.
func (e *Executor) CurrentStep() int {
	return e.step
}

// Space returns the shape of the space.
func (e *Executor) Space() []int {
	return append([]int{}, e.space...)
}

// Constants returns the constant values in use.
func (e *Executor) Constants() map[string]float64 {
	constants := make(map[string]float64, len(e.constants))
	for k, v := range e.constants {
		constants[k] = v
	}

	return constants
}

// States returns the state histories. They are nil before Initialise or
// RestoreStates.
func (e *Executor) States() state.Set {
	return e.states
}

func (e *Executor) log() *logrus.Entry {
	return e.logger.WithFields(logrus.Fields{
		"component": e.Name(),
		"variant":   e.impl.Variant(),
		"step":      e.step,
	})
}

func (e *Executor) invoke(pos *hooking.HookPos, item interface{}) {
	if e.NumHooks() == 0 {
		return
	}

	e.InvokeHook(hooking.HookCtx{
		Domain: e,
		Pos:    pos,
		Step:   e.step,
		Item:   item,
	})
}

func (e *Executor) lifecycleArgs() *component.LifecycleArgs {
	return &component.LifecycleArgs{
		Space:      e.Space(),
		Parameters: e.parameters,
		Constants:  e.constants,
		States:     e.states,
	}
}

// RestoreStates loads every state history from slots ordered oldest first,
// for example from a dump. Initialise then keeps them instead of asking the
// implementation for initial conditions.
func (e *Executor) RestoreStates(slots map[string][]*ndarray.Array) error {
	if e.phase != Uninitialised {
		return &LifecycleError{
			Component: e.Name(), Variant: e.impl.Variant(),
			Op: "restore states", Phase: e.phase,
		}
	}

	states := e.allocateStates()

	for _, name := range states.Names() {
		s, ok := slots[name]
		if !ok {
			return fmt.Errorf("%s: %w: no dumped values for state %q",
				e.Name(), ErrInput, name)
		}

		if err := states[name].Restore(s); err != nil {
			return fmt.Errorf("%s: %w: %w", e.Name(), ErrShape, err)
		}
	}

	e.states = states
	e.restored = true

	e.log().Debug("states restored")

	return nil
}

// Initialise prepares the states. Unless they were restored, the
// implementation writes the initial conditions into offset -1, which are
// then copied into offset 0.
func (e *Executor) Initialise(ctx context.Context) error {
	if e.phase != Uninitialised {
		return &LifecycleError{
			Component: e.Name(), Variant: e.impl.Variant(),
			Op: "initialise", Phase: e.phase,
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	if !e.restored {
		e.states = e.allocateStates()

		if err := e.impl.Initialise(ctx, e.lifecycleArgs()); err != nil {
			e.states = nil
			return fmt.Errorf("%s: initialise: %w", e.Name(), err)
		}

		e.copyBaseline()
	}

	e.phase = Ready
	e.log().Debug("initialised")
	e.invoke(HookPosAfterInitialise, e.states)

	return nil
}

func (e *Executor) copyBaseline() {
	for _, h := range e.states {
		if h.Depth() == 0 {
			continue
		}

		// Histories of one executor share shapes across slots.
		_ = h.MustGet(0).CopyFrom(h.MustGet(-1))
	}
}

// Step runs one timestep with the given inwards and advances the states.
// The returned outwards and outputs have already been routed where
// declared.
func (e *Executor) Step(
	ctx context.Context,
	inwards exchange.Transfers,
) (*component.Result, error) {
	if e.phase != Ready {
		return nil, &LifecycleError{
			Component: e.Name(), Variant: e.impl.Variant(),
			Op: "run", Phase: e.phase,
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	args, err := e.runArgs(inwards)
	if err != nil {
		return nil, err
	}

	e.invoke(HookPosBeforeRun, args)

	res, err := e.impl.Run(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("%s: step %d: %w", e.Name(), e.step, err)
	}

	if err := e.checkResult(res); err != nil {
		return nil, err
	}

	if err := e.route(res); err != nil {
		return nil, err
	}

	if err := e.checkResult(res); err != nil {
		return nil, err
	}

	e.log().Debug("step done")
	e.invoke(HookPosAfterRun, StepRecord{
		Step:     e.step,
		Inwards:  args.Inwards,
		Outwards: res.Outwards,
		Outputs:  res.Outputs,
		States:   e.states,
	})

	e.states.AdvanceAll()
	e.step++
	e.invoke(HookPosAfterStep, e.states)

	return res, nil
}

func (e *Executor) runArgs(inwards exchange.Transfers) (*component.RunArgs, error) {
	schema := e.typ.Schema()

	if err := e.checkDeclared("inward", field.Inward, inwards); err != nil {
		return nil, err
	}

	for name, v := range inwards {
		if !ndarray.ShapeEqual(v.Shape(), e.space) {
			return nil, fmt.Errorf("%s: %w: inward %q has shape %v, want %v",
				e.Name(), ErrShape, name, v.Shape(), e.space)
		}
	}

	args := &component.RunArgs{
		Step:       e.step,
		Space:      e.Space(),
		Inwards:    inwards,
		Driving:    make(map[string]*ndarray.Array),
		Ancillary:  make(map[string]*ndarray.Array),
		Parameters: e.parameters,
		Constants:  e.constants,
		States:     e.states,
	}

	for _, d := range schema.Descriptors(field.Input) {
		v, err := e.data.At(d.Name, e.step)
		if err != nil {
			return nil, fmt.Errorf("%s: %w: %w", e.Name(), ErrInput, err)
		}

		if d.Kind == field.Dynamic {
			args.Driving[d.Name] = v
		} else {
			args.Ancillary[d.Name] = v
		}
	}

	return args, nil
}

func (e *Executor) checkDeclared(
	kind string,
	c field.Category,
	got exchange.Transfers,
) error {
	err := exchange.CheckDeclared(e.Name(), kind, e.typ.Schema().Names(c), got)

	var keyErr *exchange.KeyError
	if errors.As(err, &keyErr) {
		keyErr.Variant = e.impl.Variant()
	}

	return err
}

// checkResult runs before and after routing, as routers may replace fields.
func (e *Executor) checkResult(res *component.Result) error {
	if res == nil {
		return fmt.Errorf("%s: step %d: no result", e.Name(), e.step)
	}

	if err := e.checkDeclared("outward", field.Outward, res.Outwards); err != nil {
		return err
	}

	if err := e.checkDeclared("output", field.Output, res.Outputs); err != nil {
		return err
	}

	for name, v := range res.Outwards {
		if !ndarray.ShapeEqual(v.Shape(), e.space) {
			return fmt.Errorf("%s: %w: outward %q has shape %v, want %v",
				e.Name(), ErrShape, name, v.Shape(), e.space)
		}
	}

	return nil
}

func (e *Executor) route(res *component.Result) error {
	schema := e.typ.Schema()

	routeAll := func(c field.Category, values map[string]*ndarray.Array) error {
		for _, d := range schema.Descriptors(c) {
			if !d.Routed {
				continue
			}

			routed, _, err := e.router.Route(values[d.Name])
			if err != nil {
				return fmt.Errorf("%s: routing %q: %w", e.Name(), d.Name, err)
			}

			values[d.Name] = routed
		}

		return nil
	}

	if err := routeAll(field.Outward, res.Outwards); err != nil {
		return err
	}

	return routeAll(field.Output, res.Outputs)
}

// Finalise ends the lifecycle. No step can run afterwards.
func (e *Executor) Finalise(ctx context.Context) error {
	if e.phase != Ready {
		return &LifecycleError{
			Component: e.Name(), Variant: e.impl.Variant(),
			Op: "finalise", Phase: e.phase,
		}
	}

	if err := e.impl.Finalise(ctx, e.lifecycleArgs()); err != nil {
		return fmt.Errorf("%s: finalise: %w", e.Name(), err)
	}

	e.phase = Finalised
	e.log().Debug("finalised")
	e.invoke(HookPosAfterFinalise, nil)

	return nil
}
