package backend

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sirupsen/logrus/hooks/test"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Registry", func() {
	var (
		mockCtrl *gomock.Controller
		resolver *MockResolver
		registry *Registry
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		resolver = NewMockResolver(mockCtrl)

		logger, _ := test.NewNullLogger()
		registry = NewRegistry(resolver).WithLogger(logger)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should probe each backend once", func() {
		routine := NewMockRoutine(mockCtrl)
		resolver.EXPECT().Resolve("dummyc").Return(routine, nil).Times(1)

		first := registry.Probe("dummyc")
		second := registry.Probe("dummyc")

		Expect(first).To(BeIdenticalTo(second))
		Expect(first.Available).To(BeTrue())
		Expect(first.Reason).To(BeEmpty())
	})

	It("should hand out tokens for missing backends", func() {
		resolver.EXPECT().
			Resolve("dummyfortran").
			Return(nil, errors.New("not built")).
			Times(1)

		token := registry.Probe("dummyfortran")
		registry.Probe("dummyfortran")

		Expect(token.Available).To(BeFalse())
		Expect(token.Reason).To(Equal("not built"))
	})

	It("should list tokens by name", func() {
		resolver.EXPECT().Resolve(gomock.Any()).
			Return(nil, ErrNotFound).AnyTimes()

		registry.Probe("b")
		registry.Probe("a")

		tokens := registry.Tokens()
		Expect(tokens).To(HaveLen(2))
		Expect(tokens[0].Name).To(Equal("a"))
		Expect(tokens[1].Name).To(Equal("b"))
	})
})

var _ = Describe("Resolvers", func() {
	var mockCtrl *gomock.Controller

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should serve registered routines", func() {
		r := NewStaticResolver()
		routine := NewMockRoutine(mockCtrl)
		r.Register("dummyc", routine)

		got, err := r.Resolve("dummyc")
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(BeIdenticalTo(routine))

		_, err = r.Resolve("dummyfortran")
		Expect(err).To(MatchError(ErrNotFound))

		Expect(func() { r.Register("dummyc", routine) }).To(Panic())
	})

	It("should not find plugins without a directory", func() {
		_, err := PluginResolver{}.Resolve("dummyc")

		Expect(err).To(MatchError(ErrNotFound))
	})

	It("should not find plugins that do not exist", func() {
		_, err := PluginResolver{Dir: GinkgoT().TempDir()}.Resolve("dummyc")

		Expect(err).To(MatchError(ErrNotFound))
	})

	It("should ask resolvers in turn", func() {
		first := NewMockResolver(mockCtrl)
		second := NewMockResolver(mockCtrl)
		routine := NewMockRoutine(mockCtrl)

		gomock.InOrder(
			first.EXPECT().Resolve("dummyc").Return(nil, ErrNotFound),
			second.EXPECT().Resolve("dummyc").Return(routine, nil),
		)

		got, err := ChainResolver{first, second}.Resolve("dummyc")

		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(BeIdenticalTo(routine))
	})

	It("should combine the errors of every resolver", func() {
		first := NewMockResolver(mockCtrl)
		second := NewMockResolver(mockCtrl)

		first.EXPECT().Resolve("x").Return(nil, errors.New("first"))
		second.EXPECT().Resolve("x").Return(nil, errors.New("second"))

		_, err := ChainResolver{first, second}.Resolve("x")

		Expect(err).To(MatchError(ContainSubstring("first")))
		Expect(err).To(MatchError(ContainSubstring("second")))

		_, err = ChainResolver{}.Resolve("x")
		Expect(err).To(MatchError(ErrNotFound))
	})
})
