package dummy

import (
	"github.com/sarchlab/hydrocouple/component"
	"github.com/sarchlab/hydrocouple/dataset"
	"github.com/sarchlab/hydrocouple/exchange"
	"github.com/sarchlab/hydrocouple/field"
	"github.com/sarchlab/hydrocouple/ndarray"
)

// UniformData creates a dataset holding the same value for every input of
// the dummy type, at every point of the space, for a number of steps.
func UniformData(value float64, steps int, space ...int) (*dataset.DataSet, error) {
	d := dataset.New()

	for _, desc := range Type().Schema().Descriptors(field.Input) {
		var err error

		switch desc.Kind {
		case field.Dynamic:
			values := make([]*ndarray.Array, steps)
			for i := range values {
				values[i] = ndarray.Full(value, space...)
			}

			err = d.AddDynamic(desc.Name, desc.Units, values...)
		default:
			err = d.AddStatic(desc.Name, desc.Units, ndarray.Full(value, space...))
		}

		if err != nil {
			return nil, err
		}
	}

	return d, nil
}

// UniformInwards creates inwards of a type holding the same value
// everywhere.
func UniformInwards(t *component.Type, value float64, space ...int) exchange.Transfers {
	inwards := make(exchange.Transfers)
	for _, name := range t.Schema().Names(field.Inward) {
		inwards[name] = ndarray.Full(value, space...)
	}

	return inwards
}
