package exchange

import (
	"fmt"
	"sync"

	"github.com/sarchlab/hydrocouple/field"
	"github.com/sarchlab/hydrocouple/ndarray"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// A Reducer combines the contributions of several components to one field.
// Contributions are never empty.
type Reducer func(contributions []*ndarray.Array) (*ndarray.Array, error)

var (
	reducersLock sync.RWMutex
	reducers     = map[string]Reducer{
		"mean":    Mean,
		"sum":     Sum,
		"point":   Point,
		"minimum": Minimum,
		"maximum": Maximum,
	}
)

// RegisterReducer adds a reducer under a method name and its aliases. The
// method becomes valid in field descriptors.
func RegisterReducer(name string, r Reducer, aliases ...string) {
	reducersLock.Lock()
	reducers[name] = r
	reducersLock.Unlock()

	field.RegisterMethod(name, aliases...)
}

// LookupReducer finds the reducer of a method name or alias.
func LookupReducer(method string) (Reducer, error) {
	canonical, ok := field.CanonicalMethod(method)
	if !ok {
		return nil, fmt.Errorf("unknown aggregation method %q", method)
	}

	reducersLock.RLock()
	defer reducersLock.RUnlock()

	r, ok := reducers[canonical]
	if !ok {
		return nil, fmt.Errorf("no reducer for aggregation method %q", canonical)
	}

	return r, nil
}

func reduce(
	contributions []*ndarray.Array,
	f func(xs []float64) float64,
) (*ndarray.Array, error) {
	if len(contributions) == 0 {
		return nil, fmt.Errorf("no contribution to reduce")
	}

	return ndarray.Combine(f, contributions...)
}

// Mean averages the contributions element by element.
func Mean(contributions []*ndarray.Array) (*ndarray.Array, error) {
	return reduce(contributions, func(xs []float64) float64 {
		return stat.Mean(xs, nil)
	})
}

// Sum adds the contributions element by element.
func Sum(contributions []*ndarray.Array) (*ndarray.Array, error) {
	return reduce(contributions, floats.Sum)
}

// Point keeps the last contribution.
func Point(contributions []*ndarray.Array) (*ndarray.Array, error) {
	if len(contributions) == 0 {
		return nil, fmt.Errorf("no contribution to reduce")
	}

	return contributions[len(contributions)-1].Clone(), nil
}

// Minimum keeps the smallest contribution element by element.
func Minimum(contributions []*ndarray.Array) (*ndarray.Array, error) {
	return reduce(contributions, floats.Min)
}

// Maximum keeps the largest contribution element by element.
func Maximum(contributions []*ndarray.Array) (*ndarray.Array, error) {
	return reduce(contributions, floats.Max)
}
