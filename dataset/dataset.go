// Package dataset holds the input data a component reads while it runs:
// driving data that changes every timestep, ancillary data that does not,
// and climatologic data repeating over a calendar year.
package dataset

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sarchlab/hydrocouple/field"
	"github.com/sarchlab/hydrocouple/ndarray"
	"go.uber.org/multierr"
)

// ErrIncompatible is matched by errors reporting data that does not fit a
// component.
var ErrIncompatible = errors.New("incompatible data")

// A Variable is one named input series.
type Variable struct {
	Name  string
	Units string
	Kind  field.Kind

	// Dynamic and climatologic values carry a leading time axis.
	Values *ndarray.Array
}

// A DataSet is a collection of variables.
type DataSet struct {
	vars map[string]*Variable
}

// New creates an empty data set.
func New() *DataSet {
	return &DataSet{vars: make(map[string]*Variable)}
}

// Add puts a variable into the data set. Names must be unique.
func (d *DataSet) Add(v *Variable) error {
	if _, ok := d.vars[v.Name]; ok {
		return fmt.Errorf("variable %q already in data set", v.Name)
	}

	if v.Values == nil {
		return fmt.Errorf("variable %q has no values", v.Name)
	}

	d.vars[v.Name] = v

	return nil
}

// AddDynamic adds a variable from one array per timestep.
func (d *DataSet) AddDynamic(
	name, units string,
	steps ...*ndarray.Array,
) error {
	values, err := ndarray.Stack(steps...)
	if err != nil {
		return fmt.Errorf("variable %q: %w", name, err)
	}

	return d.Add(&Variable{
		Name: name, Units: units, Kind: field.Dynamic, Values: values,
	})
}

// AddStatic adds a variable that does not change over time.
func (d *DataSet) AddStatic(name, units string, values *ndarray.Array) error {
	return d.Add(&Variable{
		Name: name, Units: units, Kind: field.Static, Values: values,
	})
}

// AddClimatologic adds a variable from one array per climatologic period,
// for example one per month.
func (d *DataSet) AddClimatologic(
	name, units string,
	periods ...*ndarray.Array,
) error {
	values, err := ndarray.Stack(periods...)
	if err != nil {
		return fmt.Errorf("variable %q: %w", name, err)
	}

	return d.Add(&Variable{
		Name: name, Units: units, Kind: field.Climatologic, Values: values,
	})
}

// Get finds a variable by name.
func (d *DataSet) Get(name string) (*Variable, bool) {
	v, ok := d.vars[name]
	return v, ok
}

// Len returns the number of variables.
func (d *DataSet) Len() int {
	return len(d.vars)
}

// Names returns the sorted variable names.
func (d *DataSet) Names() []string {
	names := make([]string, 0, len(d.vars))
	for name := range d.vars {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Steps returns the number of timesteps covered by every dynamic variable,
// or -1 if there is none.
func (d *DataSet) Steps() int {
	steps := -1

	for _, v := range d.vars {
		if v.Kind != field.Dynamic {
			continue
		}

		n := v.Values.Shape()[0]
		if steps < 0 || n < steps {
			steps = n
		}
	}

	return steps
}

// Check verifies that the data set provides every input a schema declares,
// with matching units, kind, and shape for the given space.
func (d *DataSet) Check(schema *field.Schema, space []int) error {
	var err error

	for _, desc := range schema.Descriptors(field.Input) {
		err = multierr.Append(err, d.checkInput(desc, space))
	}

	return err
}

func (d *DataSet) checkInput(desc field.Descriptor, space []int) error {
	v, ok := d.vars[desc.Name]
	if !ok {
		return fmt.Errorf("%w: input %q missing", ErrIncompatible, desc.Name)
	}

	if v.Units != desc.Units {
		return fmt.Errorf("%w: input %q in %q, want %q",
			ErrIncompatible, desc.Name, v.Units, desc.Units)
	}

	if v.Kind != desc.Kind {
		return fmt.Errorf("%w: input %q is %s, want %s",
			ErrIncompatible, desc.Name, v.Kind, desc.Kind)
	}

	shape := v.Values.Shape()

	switch desc.Kind {
	case field.Static:
		if !ndarray.ShapeEqual(shape, space) {
			return fmt.Errorf("%w: input %q has shape %v, want %v",
				ErrIncompatible, desc.Name, shape, space)
		}
	case field.Climatologic:
		n, err := field.FrequencyLength(desc.Frequency)
		if err != nil {
			return err
		}

		if len(shape) == 0 || shape[0] != n ||
			!ndarray.ShapeEqual(shape[1:], space) {
			return fmt.Errorf("%w: input %q has shape %v, want %v",
				ErrIncompatible, desc.Name, shape,
				append([]int{n}, space...))
		}
	default:
		if len(shape) == 0 || !ndarray.ShapeEqual(shape[1:], space) {
			return fmt.Errorf("%w: input %q has shape %v, want (time, %v)",
				ErrIncompatible, desc.Name, shape, space)
		}
	}

	return nil
}

// At returns the value of a variable at a timestep. Dynamic variables give
// the slice of the step, other kinds give all their values.
func (d *DataSet) At(name string, step int) (*ndarray.Array, error) {
	v, ok := d.vars[name]
	if !ok {
		return nil, fmt.Errorf("no variable named %q", name)
	}

	if v.Kind != field.Dynamic {
		return v.Values.Clone(), nil
	}

	n := v.Values.Shape()[0]
	if step < 0 || step >= n {
		return nil, fmt.Errorf("variable %q has no step %d, it covers %d",
			name, step, n)
	}

	return v.Values.Index(step), nil
}
