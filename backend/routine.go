// Package backend runs component implementations provided by external
// routines that work on flat numeric buffers.
package backend

import "github.com/sarchlab/hydrocouple/ndarray"

// StateBuffers carry the history of one state across the boundary. Slots
// hold offsets -depth..0, oldest first, each laid out in Order.
type StateBuffers struct {
	Shape []int
	Order ndarray.Order
	Slots [][]float64
}

// At returns the slot at an offset in -depth..0.
func (s *StateBuffers) At(offset int) []float64 {
	return s.Slots[len(s.Slots)-1+offset]
}

// A Call is the argument of every routine entry point. Buffers other than
// states are laid out in Order and have the shape of the space, except
// climatologic inputs which carry a leading period axis.
type Call struct {
	Step  int
	Space []int
	Order ndarray.Order

	Inwards    map[string][]float64
	Driving    map[string][]float64
	Ancillary  map[string][]float64
	Parameters map[string][]float64
	Constants  map[string]float64
	States     map[string]*StateBuffers

	// Filled by Run. Preallocated with the size of the space.
	Outwards map[string][]float64
	Outputs  map[string][]float64
}

// A Routine is an externally implemented component.
type Routine interface {
	Initialise(call *Call) error
	Run(call *Call) error
	Finalise(call *Call) error
}
