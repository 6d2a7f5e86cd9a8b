package routing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/hydrocouple/ndarray"
)

var _ = Describe("Router", func() {
	It("should pass fields through as copies", func() {
		f := ndarray.FromSlice([]float64{1, 2, 3, 4}, 2, 2)

		routed, diags, err := Passthrough{}.Route(f)

		Expect(err).NotTo(HaveOccurred())
		Expect(diags).To(BeEmpty())
		Expect(routed.Data()).To(Equal(f.Data()))

		routed.Set(10, 0, 0)
		Expect(f.At(0, 0)).To(Equal(1.0))
	})

	It("should adapt functions", func() {
		var r Router = RouterFunc(
			func(f *ndarray.Array) (*ndarray.Array, Diagnostics, error) {
				out := ndarray.AddScalar(f, -1)
				return out, Diagnostics{"outflow": 1.0}, nil
			})

		routed, diags, err := r.Route(ndarray.Full(3, 2))

		Expect(err).NotTo(HaveOccurred())
		Expect(routed.Data()).To(Equal([]float64{2, 2}))
		Expect(diags).To(HaveKeyWithValue("outflow", 1.0))
	})
})
