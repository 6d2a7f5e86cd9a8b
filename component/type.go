// Package component defines component types and the implementations that
// carry out their timesteps.
package component

import (
	"fmt"
	"strings"

	"github.com/sarchlab/hydrocouple/field"
	"github.com/sarchlab/hydrocouple/ndarray"
)

// A Type is the declared interface of a kind of component. One type can be
// carried out by several interchangeable implementations.
type Type struct {
	schema                *field.Schema
	solverHistory         int
	requiresLandSeaMask   bool
	requiresFlowDirection bool
}

// A TypeOption sets optional attributes of a type.
type TypeOption func(*Type)

// RequiresLandSeaMask marks a type that needs a land-sea mask on its space.
func RequiresLandSeaMask() TypeOption {
	return func(t *Type) {
		t.requiresLandSeaMask = true
	}
}

// RequiresFlowDirection marks a type that needs flow directions on its space.
func RequiresFlowDirection() TypeOption {
	return func(t *Type) {
		t.requiresFlowDirection = true
	}
}

// NewType creates a type from a validated schema. It panics if the solver
// history is negative.
func NewType(
	schema *field.Schema,
	solverHistory int,
	opts ...TypeOption,
) *Type {
	if solverHistory < 0 {
		panic(fmt.Sprintf("%s: negative solver history %d",
			schema.TypeName(), solverHistory))
	}

	t := &Type{
		schema:        schema,
		solverHistory: solverHistory,
	}

	for _, opt := range opts {
		opt(t)
	}

	return t
}

// TypeFromManifest creates a type declared in an HCL manifest.
func TypeFromManifest(m field.Manifest) *Type {
	var opts []TypeOption

	if m.RequiresLandSeaMask {
		opts = append(opts, RequiresLandSeaMask())
	}

	if m.RequiresFlowDirection {
		opts = append(opts, RequiresFlowDirection())
	}

	return NewType(m.Schema, m.SolverHistory, opts...)
}

// Name returns the name of the type.
func (t *Type) Name() string {
	return t.schema.TypeName()
}

// Role returns the peer role of the type.
func (t *Type) Role() string {
	return t.schema.Role()
}

// Schema returns the declared fields.
func (t *Type) Schema() *field.Schema {
	return t.schema
}

// SolverHistory returns the number of past timesteps every state keeps.
func (t *Type) SolverHistory() int {
	return t.solverHistory
}

// NeedsLandSeaMask tells if the type requires a land-sea mask.
func (t *Type) NeedsLandSeaMask() bool {
	return t.requiresLandSeaMask
}

// NeedsFlowDirection tells if the type requires flow directions.
func (t *Type) NeedsFlowDirection() bool {
	return t.requiresFlowDirection
}

// WithStateOrder derives a type whose states use another layout order.
func (t *Type) WithStateOrder(order ndarray.Order) *Type {
	c := *t
	c.schema = t.schema.WithStateOrder(order)

	return &c
}

func (t *Type) String() string {
	lines := []string{
		t.Name() + "(",
		"    category: " + t.Role(),
	}

	if fields := t.schema.String(); fields != "" {
		lines = append(lines, fields)
	}

	lines = append(lines,
		fmt.Sprintf("    solver history: %d", t.solverHistory),
		fmt.Sprintf("    land sea mask: %t", t.requiresLandSeaMask),
		fmt.Sprintf("    flow direction: %t", t.requiresFlowDirection),
		")",
	)

	return strings.Join(lines, "\n")
}
