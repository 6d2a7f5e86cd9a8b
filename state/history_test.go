package state

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/hydrocouple/ndarray"
)

var _ = Describe("History", func() {
	var h *History

	BeforeEach(func() {
		h = Allocate("state_a", 2, []int{2, 3}, ndarray.RowMajor)
	})

	It("should start with zeros", func() {
		for offset := -2; offset <= 0; offset++ {
			slot, err := h.Get(offset)
			Expect(err).NotTo(HaveOccurred())
			Expect(slot.Shape()).To(Equal([]int{2, 3}))
			Expect(slot.Data()).To(HaveEach(0.0))
		}
	})

	It("should reject offsets out of range", func() {
		_, err := h.Get(1)
		Expect(err).To(MatchError(ErrOffset))

		_, err = h.Get(-3)
		Expect(err).To(MatchError(ErrOffset))

		var offsetErr *OffsetError
		Expect(errors.As(err, &offsetErr)).To(BeTrue())
		Expect(offsetErr.State).To(Equal("state_a"))
		Expect(offsetErr.Offset).To(Equal(-3))
		Expect(err.Error()).To(ContainSubstring("-2..0"))

		Expect(func() { h.MustGet(1) }).To(Panic())
	})

	It("should shift values on advance", func() {
		h.MustGet(0).Fill(5)
		h.Advance()

		Expect(h.MustGet(-1).Data()).To(HaveEach(5.0))
		Expect(h.MustGet(0).Data()).To(HaveEach(0.0))

		h.MustGet(0).Fill(7)
		h.Advance()

		Expect(h.MustGet(-2).Data()).To(HaveEach(5.0))
		Expect(h.MustGet(-1).Data()).To(HaveEach(7.0))
		Expect(h.MustGet(0).Data()).To(HaveEach(0.0))
	})

	It("should keep values in the slots they were written to", func() {
		for step := 1; step <= 5; step++ {
			prev := h.MustGet(-1).At(0, 0)
			h.MustGet(0).Fill(prev + 1)
			h.Advance()

			Expect(h.MustGet(-1).At(0, 0)).To(Equal(float64(step)))
		}
	})

	It("should drop the oldest value", func() {
		h.MustGet(-2).Fill(9)
		h.Advance()

		for offset := -2; offset <= 0; offset++ {
			Expect(h.MustGet(offset).Data()).NotTo(ContainElement(9.0))
		}
	})

	It("should work without past slots", func() {
		h := Allocate("state_b", 0, []int{1}, ndarray.ColumnMajor)
		h.MustGet(0).Fill(1)

		_, err := h.Get(-1)
		Expect(err).To(MatchError(ErrOffset))

		h.Advance()
		Expect(h.MustGet(0).Item()).To(Equal(0.0))
		Expect(h.Order()).To(Equal(ndarray.ColumnMajor))
	})

	It("should panic on negative depth", func() {
		Expect(func() {
			Allocate("state_a", -1, []int{1}, ndarray.RowMajor)
		}).To(Panic())
	})

	It("should snapshot and restore", func() {
		h.MustGet(-2).Fill(1)
		h.MustGet(-1).Fill(2)
		h.MustGet(0).Fill(3)

		snap := h.Snapshot()
		Expect(snap).To(HaveLen(3))
		Expect(snap[0].Data()).To(HaveEach(1.0))
		Expect(snap[2].Data()).To(HaveEach(3.0))

		other := Allocate("state_a", 2, []int{2, 3}, ndarray.RowMajor)
		other.Advance()
		Expect(other.Restore(snap)).To(Succeed())

		for offset := -2; offset <= 0; offset++ {
			Expect(other.MustGet(offset).Data()).
				To(Equal(h.MustGet(offset).Data()))
		}
	})

	It("should refuse snapshots that do not fit", func() {
		Expect(h.Restore(h.Snapshot()[1:])).NotTo(Succeed())

		wrong := []*ndarray.Array{
			ndarray.New(3), ndarray.New(3), ndarray.New(3),
		}
		Expect(h.Restore(wrong)).NotTo(Succeed())
	})
})

var _ = Describe("Set", func() {
	It("should advance every history", func() {
		s := Set{
			"state_b": Allocate("state_b", 1, nil, ndarray.RowMajor),
			"state_a": Allocate("state_a", 1, nil, ndarray.RowMajor),
		}

		s["state_a"].MustGet(0).Fill(1)
		s["state_b"].MustGet(0).Fill(2)
		s.AdvanceAll()

		Expect(s["state_a"].MustGet(-1).Item()).To(Equal(1.0))
		Expect(s["state_b"].MustGet(-1).Item()).To(Equal(2.0))
		Expect(s.Names()).To(Equal([]string{"state_a", "state_b"}))

		_, err := s.Get("state_c")
		Expect(err).To(HaveOccurred())
	})
})
