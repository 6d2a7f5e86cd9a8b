package component

import (
	"context"

	"github.com/sarchlab/hydrocouple/exchange"
	"github.com/sarchlab/hydrocouple/ndarray"
	"github.com/sarchlab/hydrocouple/state"
)

// LifecycleArgs are given to Initialise and Finalise.
type LifecycleArgs struct {
	Space      []int
	Parameters map[string]*ndarray.Array
	Constants  map[string]float64
	States     state.Set
}

// RunArgs are given to Run. Driving holds the dynamic inputs at the current
// step, Ancillary the static and climatologic ones.
type RunArgs struct {
	Step       int
	Space      []int
	Inwards    exchange.Transfers
	Driving    map[string]*ndarray.Array
	Ancillary  map[string]*ndarray.Array
	Parameters map[string]*ndarray.Array
	Constants  map[string]float64
	States     state.Set
}

// A Result is what one timestep produces.
type Result struct {
	Outwards exchange.Transfers
	Outputs  map[string]*ndarray.Array
}

// An Implementation carries out the timesteps of a component type.
//
// Initialise writes the initial conditions into offset -1 of the states. Run
// reads offsets -depth..-1 and writes offset 0, then returns the outwards and
// outputs of the step. Finalise releases whatever Initialise acquired.
type Implementation interface {
	Variant() string
	Initialise(ctx context.Context, args *LifecycleArgs) error
	Run(ctx context.Context, args *RunArgs) (*Result, error)
	Finalise(ctx context.Context, args *LifecycleArgs) error
}
