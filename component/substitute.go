package component

import (
	"context"

	"github.com/sarchlab/hydrocouple/exchange"
	"github.com/sarchlab/hydrocouple/field"
	"github.com/sarchlab/hydrocouple/ndarray"
)

func substituteType(
	t *Type,
	prefix string,
	decl field.Declaration,
) (*Type, error) {
	schema, err := field.NewSchema(prefix+"_"+t.Name(), t.Role(), decl,
		field.WithRoles(t.schema.Roles()...))
	if err != nil {
		return nil, err
	}

	return NewType(schema, 0), nil
}

// NewNull creates a stand-in for a component type that sends zeros for every
// outward. It is used to leave a compartment out of a simulation.
func NewNull(substituted *Type) (*Type, Implementation, error) {
	t, err := substituteType(substituted, "null", field.Declaration{
		Outwards: substituted.schema.Descriptors(field.Outward),
	})
	if err != nil {
		return nil, nil, err
	}

	return t, &Null{outwards: t.schema.Names(field.Outward)}, nil
}

// Null is the implementation behind NewNull.
type Null struct {
	outwards []string
}

// Variant returns "null".
func (n *Null) Variant() string {
	return "null"
}

// Initialise does nothing.
func (n *Null) Initialise(context.Context, *LifecycleArgs) error {
	return nil
}

// Run returns zero outwards.
func (n *Null) Run(_ context.Context, args *RunArgs) (*Result, error) {
	outwards := make(exchange.Transfers)
	for _, name := range n.outwards {
		outwards[name] = ndarray.New(args.Space...)
	}

	return &Result{
		Outwards: outwards,
		Outputs:  map[string]*ndarray.Array{},
	}, nil
}

// Finalise does nothing.
func (n *Null) Finalise(context.Context, *LifecycleArgs) error {
	return nil
}

// NewData creates a stand-in for a component type that replays its outwards
// from data, such as measurements or an earlier run. The returned type
// declares one dynamic input per outward of the substituted type.
func NewData(substituted *Type) (*Type, Implementation, error) {
	outwards := substituted.schema.Descriptors(field.Outward)

	inputs := make([]field.Descriptor, 0, len(outwards))
	for _, d := range outwards {
		inputs = append(inputs, field.Descriptor{
			Name:        d.Name,
			Units:       d.Units,
			Description: d.Description,
			Kind:        field.Dynamic,
		})
	}

	t, err := substituteType(substituted, "data", field.Declaration{
		Inputs:   inputs,
		Outwards: outwards,
	})
	if err != nil {
		return nil, nil, err
	}

	return t, &Data{outwards: t.schema.Names(field.Outward)}, nil
}

// Data is the implementation behind NewData.
type Data struct {
	outwards []string
}

// Variant returns "data".
func (d *Data) Variant() string {
	return "data"
}

// Initialise does nothing.
func (d *Data) Initialise(context.Context, *LifecycleArgs) error {
	return nil
}

// Run sends the driving data of the step as outwards.
func (d *Data) Run(_ context.Context, args *RunArgs) (*Result, error) {
	outwards := make(exchange.Transfers)
	for _, name := range d.outwards {
		if v, ok := args.Driving[name]; ok {
			outwards[name] = v.Clone()
		}
	}

	return &Result{
		Outwards: outwards,
		Outputs:  map[string]*ndarray.Array{},
	}, nil
}

// Finalise does nothing.
func (d *Data) Finalise(context.Context, *LifecycleArgs) error {
	return nil
}
