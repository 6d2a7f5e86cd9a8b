// Package routing defines how executors hand fields to a routing algorithm.
// The algorithms themselves live outside this module.
package routing

import "github.com/sarchlab/hydrocouple/ndarray"

// Diagnostics are auxiliary values a router reports along with the routed
// field, such as flow that left the domain.
type Diagnostics map[string]interface{}

// A Router moves a field along a flow network.
type Router interface {
	Route(f *ndarray.Array) (*ndarray.Array, Diagnostics, error)
}

// RouterFunc adapts a function to the Router interface.
type RouterFunc func(f *ndarray.Array) (*ndarray.Array, Diagnostics, error)

// Route calls the function.
func (r RouterFunc) Route(f *ndarray.Array) (*ndarray.Array, Diagnostics, error) {
	return r(f)
}

// Passthrough returns fields unchanged.
type Passthrough struct{}

// Route returns a copy of f.
func (Passthrough) Route(f *ndarray.Array) (*ndarray.Array, Diagnostics, error) {
	return f.Clone(), nil, nil
}
