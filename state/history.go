// Package state keeps the time-indexed history of component states.
package state

import (
	"errors"
	"fmt"

	"github.com/sarchlab/hydrocouple/ndarray"
)

// ErrOffset is matched by every OffsetError.
var ErrOffset = errors.New("state offset out of range")

// An OffsetError reports an access to a history slot that does not exist.
type OffsetError struct {
	State  string
	Offset int
	Depth  int
}

func (e *OffsetError) Error() string {
	return fmt.Sprintf("state %q has no offset %d, valid offsets are %d..0",
		e.State, e.Offset, -e.Depth)
}

// Unwrap makes OffsetError match ErrOffset.
func (e *OffsetError) Unwrap() error {
	return ErrOffset
}

// A History holds the current value of a state and a fixed number of past
// values. Offset 0 is the timestep being computed, -1 the one before, down to
// -depth.
type History struct {
	name  string
	depth int
	shape []int
	order ndarray.Order

	// slots[head] is offset 0, slots[head-1] (wrapping) is offset -1.
	slots []*ndarray.Array
	head  int
}

// Allocate creates a zero-filled history with depth past slots. It panics if
// depth is negative.
func Allocate(name string, depth int, shape []int, order ndarray.Order) *History {
	if depth < 0 {
		panic(fmt.Sprintf("state %q: negative history depth %d", name, depth))
	}

	h := &History{
		name:  name,
		depth: depth,
		shape: append([]int{}, shape...),
		order: order,
		slots: make([]*ndarray.Array, depth+1),
		head:  depth,
	}

	for i := range h.slots {
		h.slots[i] = ndarray.New(shape...)
	}

	return h
}

// Name returns the name of the state.
func (h *History) Name() string {
	return h.name
}

// Depth returns the number of past slots.
func (h *History) Depth() int {
	return h.depth
}

// Shape returns the shape of every slot.
func (h *History) Shape() []int {
	return append([]int{}, h.shape...)
}

// Order returns the layout in which the state crosses backend boundaries.
func (h *History) Order() ndarray.Order {
	return h.order
}

func (h *History) index(offset int) int {
	n := len(h.slots)
	return ((h.head+offset)%n + n) % n
}

// Get returns the slot at the given offset. Writes to the returned array are
// writes to the history.
func (h *History) Get(offset int) (*ndarray.Array, error) {
	if offset > 0 || offset < -h.depth {
		return nil, &OffsetError{State: h.name, Offset: offset, Depth: h.depth}
	}

	return h.slots[h.index(offset)], nil
}

// MustGet is Get for offsets known to be valid. It panics otherwise.
func (h *History) MustGet(offset int) *ndarray.Array {
	a, err := h.Get(offset)
	if err != nil {
		panic(err)
	}

	return a
}

// Advance moves the history one timestep forward. The value at offset k
// moves to k-1, the oldest value is dropped, and the new offset 0 starts at
// zero.
func (h *History) Advance() {
	h.head = h.index(1)
	h.slots[h.head].Fill(0)
}

// Snapshot returns copies of every slot, oldest first.
func (h *History) Snapshot() []*ndarray.Array {
	out := make([]*ndarray.Array, 0, len(h.slots))
	for offset := -h.depth; offset <= 0; offset++ {
		out = append(out, h.MustGet(offset).Clone())
	}

	return out
}

// Restore overwrites every slot from values ordered oldest first, as
// returned by Snapshot.
func (h *History) Restore(slots []*ndarray.Array) error {
	if len(slots) != len(h.slots) {
		return fmt.Errorf("state %q: got %d slots to restore, want %d",
			h.name, len(slots), len(h.slots))
	}

	for i, s := range slots {
		if err := h.MustGet(i - h.depth).CopyFrom(s); err != nil {
			return fmt.Errorf("state %q: %w", h.name, err)
		}
	}

	return nil
}
