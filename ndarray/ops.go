package ndarray

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Combine applies f element by element across arrays. Arrays must share one
// shape, except that single-element arrays broadcast to any shape.
func Combine(f func(xs []float64) float64, arrays ...*Array) (*Array, error) {
	if len(arrays) == 0 {
		return nil, fmt.Errorf("nothing to combine")
	}

	shape, err := broadcastShape(arrays)
	if err != nil {
		return nil, err
	}

	out := New(shape...)
	xs := make([]float64, len(arrays))

	for i := range out.data {
		for j, arr := range arrays {
			if len(arr.data) == 1 {
				xs[j] = arr.data[0]
			} else {
				xs[j] = arr.data[i]
			}
		}

		out.data[i] = f(xs)
	}

	return out, nil
}

func broadcastShape(arrays []*Array) ([]int, error) {
	var shape []int

	for _, arr := range arrays {
		if len(arr.data) == 1 && len(arr.shape) <= len(shape) {
			continue
		}

		if shape == nil || SizeOf(shape) == 1 {
			shape = arr.shape
			continue
		}

		if !ShapeEqual(shape, arr.shape) {
			return nil, fmt.Errorf("shapes %v and %v are not compatible",
				shape, arr.shape)
		}
	}

	return shape, nil
}

// spread returns the elements of a for an array of n elements. Single
// elements are repeated.
func (a *Array) spread(n int) []float64 {
	if len(a.data) == n {
		return a.data
	}

	out := make([]float64, n)
	floats.AddConst(a.data[0], out)

	return out
}

// elementwise folds arrays into the first one with op, which works on
// destination and source slices in the way of the floats package.
func elementwise(op func(dst, s []float64), arrays ...*Array) *Array {
	if len(arrays) == 0 {
		panic("no array to combine")
	}

	shape, err := broadcastShape(arrays)
	if err != nil {
		panic(err)
	}

	out := New(shape...)
	copy(out.data, arrays[0].spread(len(out.data)))

	for _, arr := range arrays[1:] {
		op(out.data, arr.spread(len(out.data)))
	}

	return out
}

// Add returns the element-wise sum of the arrays. It panics if the shapes are
// not compatible.
func Add(arrays ...*Array) *Array {
	return elementwise(floats.Add, arrays...)
}

// Sub returns a - b element-wise. It panics if the shapes are not compatible.
func Sub(a, b *Array) *Array {
	return elementwise(floats.Sub, a, b)
}

// Mul returns the element-wise product of the arrays. It panics if the shapes
// are not compatible.
func Mul(arrays ...*Array) *Array {
	return elementwise(floats.Mul, arrays...)
}

// AddScalar returns a + v element-wise.
func AddScalar(a *Array, v float64) *Array {
	out := a.Clone()
	floats.AddConst(v, out.data)

	return out
}
