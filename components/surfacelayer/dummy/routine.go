package dummy

import (
	"fmt"

	"github.com/sarchlab/hydrocouple/backend"
	"github.com/sarchlab/hydrocouple/ndarray"
)

// A Routine computes the dummy physics on flat buffers. It insists on the
// layout it was written for, the way compiled routines do.
type Routine struct {
	order ndarray.Order
}

// CRoutine returns the routine behind the dummyc variant. It works on
// row-major buffers.
func CRoutine() *Routine {
	return &Routine{order: ndarray.RowMajor}
}

// FortranRoutine returns the routine behind the dummyfortran variant. It
// works on column-major buffers.
func FortranRoutine() *Routine {
	return &Routine{order: ndarray.ColumnMajor}
}

// Register links both routines into a resolver.
func Register(r *backend.StaticResolver) {
	r.Register(VariantC, CRoutine())
	r.Register(VariantFortran, FortranRoutine())
}

func (r *Routine) checkLayout(call *backend.Call) error {
	if call.Order != r.order {
		return fmt.Errorf("buffers are %v, want %v", call.Order, r.order)
	}

	for name, s := range call.States {
		if s.Order != r.order {
			return fmt.Errorf("state %s is %v, want %v", name, s.Order, r.order)
		}
	}

	return nil
}

func (r *Routine) states(call *backend.Call) (a, b *backend.StateBuffers, err error) {
	a, okA := call.States["state_a"]
	b, okB := call.States["state_b"]

	if !okA || !okB {
		return nil, nil, fmt.Errorf("states state_a and state_b required")
	}

	return a, b, nil
}

// Initialise starts both states at zero.
func (r *Routine) Initialise(call *backend.Call) error {
	if err := r.checkLayout(call); err != nil {
		return err
	}

	a, b, err := r.states(call)
	if err != nil {
		return err
	}

	for _, s := range []*backend.StateBuffers{a, b} {
		prev := s.At(-1)
		for i := range prev {
			prev[i] = 0
		}
	}

	return nil
}

// Run computes one timestep.
func (r *Routine) Run(call *backend.Call) error {
	if err := r.checkLayout(call); err != nil {
		return err
	}

	sa, sb, err := r.states(call)
	if err != nil {
		return err
	}

	var (
		da = call.Driving["driving_a"]
		db = call.Driving["driving_b"]
		dc = call.Driving["driving_c"]
		ac = call.Ancillary["ancillary_c"]
		tk = call.Inwards["transfer_k"]
		tl = call.Inwards["transfer_l"]
		tn = call.Inwards["transfer_n"]
		ti = call.Outwards["transfer_i"]
		tj = call.Outwards["transfer_j"]
		ox = call.Outputs["output_x"]

		aPrev, aCur = sa.At(-1), sa.At(0)
		bPrev, bCur = sb.At(-1), sb.At(0)
	)

	for _, buf := range [][]float64{da, db, dc, ac, tk, tl, tn, ti, tj, ox, aCur, bCur} {
		if len(buf) != len(aPrev) {
			return fmt.Errorf("buffers of unequal sizes %d and %d",
				len(buf), len(aPrev))
		}
	}

	for i := range aCur {
		aCur[i] = aPrev[i] + 1
		bCur[i] = bPrev[i] + 2

		ti[i] = da[i] + db[i] + tl[i] + ac[i]*aCur[i]
		tj[i] = da[i] + db[i] + dc[i] + tk[i] + bCur[i]
		ox[i] = da[i] + db[i] + dc[i] + tn[i] - aCur[i]
	}

	return nil
}

// Finalise does nothing.
func (r *Routine) Finalise(call *backend.Call) error {
	return r.checkLayout(call)
}
