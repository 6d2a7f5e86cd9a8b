// Package dummy provides a surface layer component with trivial physics. It
// is used to check the coupling machinery end to end and comes in three
// variants that must agree: a pure Go one and two backed by routines with
// row-major and column-major layouts.
package dummy

import (
	"context"
	_ "embed"
	"fmt"
	"sync"

	"github.com/sarchlab/hydrocouple/backend"
	"github.com/sarchlab/hydrocouple/component"
	"github.com/sarchlab/hydrocouple/exchange"
	"github.com/sarchlab/hydrocouple/field"
	"github.com/sarchlab/hydrocouple/ndarray"
)

// Variant names.
const (
	VariantPure    = "pure"
	VariantC       = "dummyc"
	VariantFortran = "dummyfortran"
)

// Variants lists every variant name.
var Variants = []string{VariantPure, VariantC, VariantFortran}

//go:embed dummy.hcl
var manifest []byte

var (
	typeOnce sync.Once
	dummy    *component.Type
)

// Type returns the dummy component type.
func Type() *component.Type {
	typeOnce.Do(func() {
		manifests, err := field.ParseManifest(manifest, "dummy.hcl")
		if err != nil {
			panic(err)
		}

		dummy = component.TypeFromManifest(manifests[0])
	})

	return dummy
}

// FortranType returns the dummy type with column-major states, as the
// dummyfortran routine expects.
func FortranType() *component.Type {
	return Type().WithStateOrder(ndarray.ColumnMajor)
}

// New creates the type and implementation of a variant. Backed variants
// resolve their routine through the registry. An unavailable backend is only
// reported when the implementation is first used.
func New(
	variant string,
	registry *backend.Registry,
) (*component.Type, component.Implementation, error) {
	switch variant {
	case VariantPure:
		return Type(), Pure{}, nil
	case VariantC:
		return Type(), backend.NewDelegate(Type(), registry.Probe(VariantC)), nil
	case VariantFortran:
		t := FortranType()
		return t, backend.NewDelegate(t, registry.Probe(VariantFortran),
			backend.WithFieldOrder(ndarray.ColumnMajor)), nil
	default:
		return nil, nil, fmt.Errorf("unknown dummy variant %q", variant)
	}
}

// Pure is the Go implementation of the dummy component.
type Pure struct{}

// Variant returns "pure".
func (Pure) Variant() string {
	return VariantPure
}

// Initialise starts both states at zero.
func (Pure) Initialise(_ context.Context, args *component.LifecycleArgs) error {
	args.States["state_a"].MustGet(-1).Fill(0)
	args.States["state_b"].MustGet(-1).Fill(0)

	return nil
}

// Run increments the states and mixes them with the inputs and inwards.
func (Pure) Run(_ context.Context, args *component.RunArgs) (*component.Result, error) {
	a := args.Driving["driving_a"]
	b := args.Driving["driving_b"]
	c := args.Driving["driving_c"]

	stateA := args.States["state_a"]
	stateB := args.States["state_b"]

	if err := stateA.MustGet(0).CopyFrom(
		ndarray.AddScalar(stateA.MustGet(-1), 1)); err != nil {
		return nil, err
	}

	if err := stateB.MustGet(0).CopyFrom(
		ndarray.AddScalar(stateB.MustGet(-1), 2)); err != nil {
		return nil, err
	}

	transferI := ndarray.Add(a, b, args.Inwards["transfer_l"],
		ndarray.Mul(args.Ancillary["ancillary_c"], stateA.MustGet(0)))
	transferJ := ndarray.Add(a, b, c, args.Inwards["transfer_k"],
		stateB.MustGet(0))
	outputX := ndarray.Sub(ndarray.Add(a, b, c, args.Inwards["transfer_n"]),
		stateA.MustGet(0))

	return &component.Result{
		Outwards: exchange.Transfers{
			"transfer_i": transferI,
			"transfer_j": transferJ,
		},
		Outputs: map[string]*ndarray.Array{
			"output_x": outputX,
		},
	}, nil
}

// Finalise does nothing.
func (Pure) Finalise(context.Context, *component.LifecycleArgs) error {
	return nil
}
