// Package ndarray provides the dense float64 arrays that carry field values
// between components, state history slots, and backends.
package ndarray

import (
	"fmt"
	"math"
	"strings"
)

// Order is the memory layout used when an array is flattened.
type Order int

// The supported layouts.
const (
	RowMajor Order = iota
	ColumnMajor
)

// String returns the conventional single-letter name of the order.
func (o Order) String() string {
	switch o {
	case RowMajor:
		return "C"
	case ColumnMajor:
		return "F"
	default:
		return fmt.Sprintf("Order(%d)", int(o))
	}
}

// ParseOrder converts a layout name to an Order. An empty string is treated
// as row-major.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(s) {
	case "", "c", "row", "row-major", "row_major":
		return RowMajor, nil
	case "f", "column", "column-major", "column_major":
		return ColumnMajor, nil
	default:
		return RowMajor, fmt.Errorf("unknown array order %q", s)
	}
}

// An Array is a dense n-dimensional array of float64. Data is always held in
// row-major order; other layouts only exist in flattened copies.
type Array struct {
	shape []int
	data  []float64
}

// New creates a zero-filled array of the given shape. An empty shape creates
// a scalar.
func New(shape ...int) *Array {
	return &Array{
		shape: copyShape(shape),
		data:  make([]float64, SizeOf(shape)),
	}
}

// Full creates an array of the given shape with every element set to v.
func Full(v float64, shape ...int) *Array {
	a := New(shape...)
	a.Fill(v)

	return a
}

// Scalar creates a zero-dimensional array holding v.
func Scalar(v float64) *Array {
	return Full(v)
}

// FromSlice creates an array that takes ownership of row-major data. It
// panics if the length of data does not match the shape.
func FromSlice(data []float64, shape ...int) *Array {
	if len(data) != SizeOf(shape) {
		panic(fmt.Sprintf("data of length %d does not fit shape %v",
			len(data), shape))
	}

	return &Array{shape: copyShape(shape), data: data}
}

// SizeOf returns the number of elements of an array of the given shape.
func SizeOf(shape []int) int {
	size := 1
	for _, n := range shape {
		size *= n
	}

	return size
}

func copyShape(shape []int) []int {
	s := make([]int, len(shape))
	copy(s, shape)

	return s
}

// Shape returns a copy of the shape of the array.
func (a *Array) Shape() []int {
	return copyShape(a.shape)
}

// NDim returns the number of dimensions.
func (a *Array) NDim() int {
	return len(a.shape)
}

// Size returns the number of elements.
func (a *Array) Size() int {
	return len(a.data)
}

// Data returns the underlying row-major storage. Writes are visible to the
// array.
func (a *Array) Data() []float64 {
	return a.data
}

// SameShape tells if two arrays have identical shapes.
func (a *Array) SameShape(b *Array) bool {
	return ShapeEqual(a.shape, b.shape)
}

// ShapeEqual tells if two shapes are identical.
func ShapeEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func (a *Array) offset(idx []int) int {
	if len(idx) != len(a.shape) {
		panic(fmt.Sprintf("index %v does not match shape %v", idx, a.shape))
	}

	off := 0
	for i, n := range a.shape {
		if idx[i] < 0 || idx[i] >= n {
			panic(fmt.Sprintf("index %v out of bounds for shape %v",
				idx, a.shape))
		}

		off = off*n + idx[i]
	}

	return off
}

// At returns the element at the given index.
func (a *Array) At(idx ...int) float64 {
	return a.data[a.offset(idx)]
}

// Set writes v at the given index.
func (a *Array) Set(v float64, idx ...int) {
	a.data[a.offset(idx)] = v
}

// Item returns the single element of a one-element array.
func (a *Array) Item() float64 {
	if len(a.data) != 1 {
		panic(fmt.Sprintf("array of shape %v is not a single element",
			a.shape))
	}

	return a.data[0]
}

// Fill sets every element to v.
func (a *Array) Fill(v float64) {
	for i := range a.data {
		a.data[i] = v
	}
}

// Clone returns a deep copy.
func (a *Array) Clone() *Array {
	data := make([]float64, len(a.data))
	copy(data, a.data)

	return &Array{shape: copyShape(a.shape), data: data}
}

// CopyFrom overwrites the elements of a with those of src. The shapes must
// match.
func (a *Array) CopyFrom(src *Array) error {
	if !a.SameShape(src) {
		return fmt.Errorf("cannot copy array of shape %v into shape %v",
			src.shape, a.shape)
	}

	copy(a.data, src.data)

	return nil
}

// Index returns a copy of the sub-array at position i along the first axis.
func (a *Array) Index(i int) *Array {
	if len(a.shape) == 0 {
		panic("cannot index a scalar")
	}

	if i < 0 || i >= a.shape[0] {
		panic(fmt.Sprintf("index %d out of bounds for axis of length %d",
			i, a.shape[0]))
	}

	sub := New(a.shape[1:]...)
	n := sub.Size()
	copy(sub.data, a.data[i*n:(i+1)*n])

	return sub
}

// Reshape returns a copy of the array with a new shape of the same size.
func (a *Array) Reshape(shape ...int) (*Array, error) {
	if SizeOf(shape) != len(a.data) {
		return nil, fmt.Errorf("cannot reshape %v into %v", a.shape, shape)
	}

	b := a.Clone()
	b.shape = copyShape(shape)

	return b, nil
}

// Stack joins arrays of identical shape along a new leading axis.
func Stack(arrays ...*Array) (*Array, error) {
	if len(arrays) == 0 {
		return nil, fmt.Errorf("nothing to stack")
	}

	inner := arrays[0].shape
	out := New(append([]int{len(arrays)}, inner...)...)
	n := SizeOf(inner)

	for i, arr := range arrays {
		if !ShapeEqual(arr.shape, inner) {
			return nil, fmt.Errorf("cannot stack shape %v with shape %v",
				arr.shape, inner)
		}

		copy(out.data[i*n:(i+1)*n], arr.data)
	}

	return out, nil
}

// Flatten returns a copy of the elements laid out in the given order.
func (a *Array) Flatten(order Order) []float64 {
	out := make([]float64, len(a.data))
	if order == RowMajor || len(a.shape) < 2 {
		copy(out, a.data)
		return out
	}

	a.walk(func(rowOff, colOff int) {
		out[colOff] = a.data[rowOff]
	})

	return out
}

// Unflatten overwrites the elements of a with data laid out in the given
// order.
func (a *Array) Unflatten(data []float64, order Order) error {
	if len(data) != len(a.data) {
		return fmt.Errorf("cannot unflatten %d values into shape %v",
			len(data), a.shape)
	}

	if order == RowMajor || len(a.shape) < 2 {
		copy(a.data, data)
		return nil
	}

	a.walk(func(rowOff, colOff int) {
		a.data[rowOff] = data[colOff]
	})

	return nil
}

// walk visits every element and reports its row-major and column-major
// offsets.
func (a *Array) walk(visit func(rowOff, colOff int)) {
	idx := make([]int, len(a.shape))

	colStrides := make([]int, len(a.shape))
	stride := 1
	for i := range a.shape {
		colStrides[i] = stride
		stride *= a.shape[i]
	}

	for rowOff := range a.data {
		colOff := 0
		for i, v := range idx {
			colOff += v * colStrides[i]
		}

		visit(rowOff, colOff)

		for d := len(idx) - 1; d >= 0; d-- {
			idx[d]++
			if idx[d] < a.shape[d] {
				break
			}
			idx[d] = 0
		}
	}
}

// AllClose tells if two arrays have the same shape and all elements satisfy
// |a-b| <= atol + rtol*|b|.
func AllClose(a, b *Array, rtol, atol float64) bool {
	if !a.SameShape(b) {
		return false
	}

	for i := range a.data {
		x, y := a.data[i], b.data[i]
		if math.IsNaN(x) || math.IsNaN(y) {
			if !(math.IsNaN(x) && math.IsNaN(y)) {
				return false
			}
			continue
		}

		if math.Abs(x-y) > atol+rtol*math.Abs(y) {
			return false
		}
	}

	return true
}

// String renders the shape and values of the array.
func (a *Array) String() string {
	return fmt.Sprintf("Array%v%v", a.shape, a.data)
}
