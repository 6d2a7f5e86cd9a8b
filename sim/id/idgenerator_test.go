package id

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("IDGenerator", func() {
	It("should generate sequential ids", func() {
		g := NewIDGenerator()

		Expect(g.Generate()).To(Equal("1"))
		Expect(g.Generate()).To(Equal("2"))
		Expect(g.Generate()).To(Equal("3"))
	})

	It("should generate unique parallel ids", func() {
		g := NewParallelIDGenerator()

		a := g.Generate()
		b := g.Generate()

		Expect(a).NotTo(BeEmpty())
		Expect(a).NotTo(Equal(b))
	})
})
