package backend

import (
	"context"
	"fmt"

	"github.com/sarchlab/hydrocouple/component"
	"github.com/sarchlab/hydrocouple/exchange"
	"github.com/sarchlab/hydrocouple/field"
	"github.com/sarchlab/hydrocouple/ndarray"
	"github.com/sarchlab/hydrocouple/state"
)

// A Delegate implements a component type by calling an external routine.
// Creating a delegate always succeeds. If the backend of the token is not
// available, every lifecycle call fails with an UnavailableError.
type Delegate struct {
	token      *Token
	variant    string
	schema     *field.Schema
	fieldOrder ndarray.Order
}

// A DelegateOption customizes a Delegate.
type DelegateOption func(*Delegate)

// WithFieldOrder sets the layout of the buffers that are not states.
// Row-major is the default.
func WithFieldOrder(order ndarray.Order) DelegateOption {
	return func(d *Delegate) {
		d.fieldOrder = order
	}
}

// WithVariant names the variant in errors and logs. The backend name is the
// default.
func WithVariant(name string) DelegateOption {
	return func(d *Delegate) {
		d.variant = name
	}
}

// NewDelegate creates an implementation of t backed by the routine of token.
func NewDelegate(
	t *component.Type,
	token *Token,
	opts ...DelegateOption,
) *Delegate {
	d := &Delegate{
		token:   token,
		variant: token.Name,
		schema:  t.Schema(),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Variant returns the variant name.
func (d *Delegate) Variant() string {
	return d.variant
}

func (d *Delegate) routine() (Routine, error) {
	if !d.token.Available {
		return nil, &UnavailableError{
			Backend: d.token.Name,
			Variant: d.variant,
			Reason:  d.token.Reason,
		}
	}

	return d.token.routine, nil
}

// Initialise lets the routine write the initial conditions of the states.
func (d *Delegate) Initialise(
	_ context.Context,
	args *component.LifecycleArgs,
) error {
	routine, err := d.routine()
	if err != nil {
		return err
	}

	call := d.lifecycleCall(args)

	if err := routine.Initialise(call); err != nil {
		return fmt.Errorf("%s: initialise: %w", d.variant, err)
	}

	return d.unmarshalStates(call, args.States)
}

// Run lets the routine compute one timestep.
func (d *Delegate) Run(
	_ context.Context,
	args *component.RunArgs,
) (*component.Result, error) {
	routine, err := d.routine()
	if err != nil {
		return nil, err
	}

	call := &Call{
		Step:       args.Step,
		Space:      args.Space,
		Order:      d.fieldOrder,
		Inwards:    d.flattenAll(args.Inwards),
		Driving:    d.flattenAll(args.Driving),
		Ancillary:  d.flattenAll(args.Ancillary),
		Parameters: d.flattenAll(args.Parameters),
		Constants:  args.Constants,
		States:     marshalStates(args.States),
		Outwards:   d.allocate(field.Outward, args.Space),
		Outputs:    d.allocate(field.Output, args.Space),
	}

	if err := routine.Run(call); err != nil {
		return nil, fmt.Errorf("%s: run step %d: %w", d.variant, args.Step, err)
	}

	if err := d.unmarshalStates(call, args.States); err != nil {
		return nil, err
	}

	outwards, err := d.unflattenAll(call.Outwards, args.Space)
	if err != nil {
		return nil, err
	}

	outputs, err := d.unflattenAll(call.Outputs, args.Space)
	if err != nil {
		return nil, err
	}

	return &component.Result{
		Outwards: exchange.Transfers(outwards),
		Outputs:  outputs,
	}, nil
}

// Finalise lets the routine release its resources.
func (d *Delegate) Finalise(
	_ context.Context,
	args *component.LifecycleArgs,
) error {
	routine, err := d.routine()
	if err != nil {
		return err
	}

	if err := routine.Finalise(d.lifecycleCall(args)); err != nil {
		return fmt.Errorf("%s: finalise: %w", d.variant, err)
	}

	return nil
}

func (d *Delegate) lifecycleCall(args *component.LifecycleArgs) *Call {
	return &Call{
		Space:      args.Space,
		Order:      d.fieldOrder,
		Parameters: d.flattenAll(args.Parameters),
		Constants:  args.Constants,
		States:     marshalStates(args.States),
	}
}

func (d *Delegate) flattenAll(arrays map[string]*ndarray.Array) map[string][]float64 {
	flat := make(map[string][]float64, len(arrays))
	for name, a := range arrays {
		flat[name] = a.Flatten(d.fieldOrder)
	}

	return flat
}

func (d *Delegate) allocate(c field.Category, space []int) map[string][]float64 {
	buffers := make(map[string][]float64)
	for _, name := range d.schema.Names(c) {
		buffers[name] = make([]float64, ndarray.SizeOf(space))
	}

	return buffers
}

func (d *Delegate) unflattenAll(
	flat map[string][]float64,
	space []int,
) (map[string]*ndarray.Array, error) {
	arrays := make(map[string]*ndarray.Array, len(flat))

	for name, data := range flat {
		a := ndarray.New(space...)
		if err := a.Unflatten(data, d.fieldOrder); err != nil {
			return nil, fmt.Errorf("%s: %s: %w", d.variant, name, err)
		}

		arrays[name] = a
	}

	return arrays, nil
}

func marshalStates(states state.Set) map[string]*StateBuffers {
	buffers := make(map[string]*StateBuffers, len(states))

	for name, h := range states {
		b := &StateBuffers{
			Shape: h.Shape(),
			Order: h.Order(),
		}

		for offset := -h.Depth(); offset <= 0; offset++ {
			b.Slots = append(b.Slots, h.MustGet(offset).Flatten(h.Order()))
		}

		buffers[name] = b
	}

	return buffers
}

func (d *Delegate) unmarshalStates(call *Call, states state.Set) error {
	for name, h := range states {
		b, ok := call.States[name]
		if !ok {
			continue
		}

		for i, slot := range b.Slots {
			err := h.MustGet(i-h.Depth()).Unflatten(slot, h.Order())
			if err != nil {
				return fmt.Errorf("%s: state %q: %w", d.variant, name, err)
			}
		}
	}

	return nil
}
