package executor

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/hydrocouple/component"
	"github.com/sarchlab/hydrocouple/dataset"
	"github.com/sarchlab/hydrocouple/exchange"
	"github.com/sarchlab/hydrocouple/field"
	"github.com/sarchlab/hydrocouple/ndarray"
	"github.com/sarchlab/hydrocouple/routing"
	"github.com/sarchlab/hydrocouple/sim/hooking"
	"github.com/sirupsen/logrus/hooks/test"
	"go.uber.org/mock/gomock"
)

func bucketType() *component.Type {
	schema, err := field.NewSchema("bucket", "subsurface", field.Declaration{
		Inwards: []field.Descriptor{
			{Name: "transfer_i", Units: "1", From: "surfacelayer", Method: "mean"},
		},
		Outwards: []field.Descriptor{
			{Name: "transfer_k", Units: "1", To: []string{"surfacelayer"},
				Method: "mean", Routed: true},
		},
		Inputs: []field.Descriptor{
			{Name: "rain", Units: "mm"},
			{Name: "soil", Units: "1", Kind: field.Static},
		},
		Parameters: []field.Descriptor{
			{Name: "porosity", Units: "1"},
		},
		Constants: []field.Descriptor{
			{Name: "layers", Units: "1", DefaultValue: field.DefaultOf(2)},
		},
		States: []field.Descriptor{
			{Name: "storage", Units: "mm"},
			{Name: "moisture", Units: "1",
				Divisions: []field.Division{field.DivisionFrom("layers")}},
		},
		Outputs: []field.Descriptor{
			{Name: "runoff", Units: "mm"},
		},
	})
	Expect(err).NotTo(HaveOccurred())

	return component.NewType(schema, 1)
}

func bucketData() *dataset.DataSet {
	d := dataset.New()
	Expect(d.AddDynamic("rain", "mm",
		ndarray.Full(1, 2), ndarray.Full(2, 2), ndarray.Full(3, 2),
	)).To(Succeed())
	Expect(d.AddStatic("soil", "1", ndarray.Full(0.5, 2))).To(Succeed())

	return d
}

func inwards(v float64) exchange.Transfers {
	return exchange.Transfers{"transfer_i": ndarray.Full(v, 2)}
}

var _ = Describe("Executor", func() {
	var (
		mockCtrl *gomock.Controller
		impl     *MockImplementation
		router   *MockRouter
		builder  Builder
		ctx      context.Context
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		impl = NewMockImplementation(mockCtrl)
		router = NewMockRouter(mockCtrl)
		ctx = context.Background()

		impl.EXPECT().Variant().Return("mock").AnyTimes()

		logger, _ := test.NewNullLogger()
		builder = MakeBuilder().
			WithSpaceShape(2).
			WithDataset(bucketData()).
			WithParameter("porosity", ndarray.Scalar(0.3)).
			WithRouter(router).
			WithLogger(logger)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	build := func(b Builder) *Executor {
		e, err := b.Build(bucketType(), impl)
		Expect(err).NotTo(HaveOccurred())

		return e
	}

	stepResult := func(args *component.RunArgs) *component.Result {
		storage := args.States["storage"]
		storage.MustGet(0).CopyFrom(
			ndarray.Add(storage.MustGet(-1), args.Driving["rain"]))

		return &component.Result{
			Outwards: exchange.Transfers{
				"transfer_k": ndarray.Add(storage.MustGet(0), args.Inwards["transfer_i"]),
			},
			Outputs: map[string]*ndarray.Array{
				"runoff": ndarray.Mul(args.Ancillary["soil"], storage.MustGet(0)),
			},
		}
	}

	passthrough := func() {
		router.EXPECT().Route(gomock.Any()).
			DoAndReturn(routing.Passthrough{}.Route).AnyTimes()
	}

	It("should name instances after their type", func() {
		e := build(builder)

		Expect(e.Name()).To(MatchRegexp(`^bucket_\d+$`))
		Expect(e.Variant()).To(Equal("mock"))
		Expect(e.Phase()).To(Equal(Uninitialised))
		Expect(e.States()).To(BeNil())

		e = build(builder.WithName("upper_bucket"))
		Expect(e.Name()).To(Equal("upper_bucket"))
	})

	It("should spread scalar parameters and default constants", func() {
		e := build(builder.WithConstant("layers", 3))

		impl.EXPECT().Initialise(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, args *component.LifecycleArgs) error {
				Expect(args.Space).To(Equal([]int{2}))
				Expect(args.Parameters["porosity"].Data()).To(Equal([]float64{0.3, 0.3}))
				Expect(args.Constants).To(HaveKeyWithValue("layers", 3.0))
				Expect(args.States["moisture"].Shape()).To(Equal([]int{2, 3}))
				Expect(args.States["storage"].Shape()).To(Equal([]int{2}))

				return nil
			})

		Expect(e.Initialise(ctx)).To(Succeed())
		Expect(e.Constants()).To(HaveKeyWithValue("layers", 3.0))
	})

	DescribeTable("should refuse to build",
		func(b func(Builder) Builder, sentinel error) {
			_, err := b(builder).Build(bucketType(), impl)

			Expect(err).To(MatchError(sentinel))
		},
		Entry("without parameters",
			func(b Builder) Builder {
				return MakeBuilder().WithSpaceShape(2).WithDataset(bucketData())
			}, ErrInput),
		Entry("with undeclared parameters",
			func(b Builder) Builder {
				return b.WithParameter("depth", ndarray.Scalar(1))
			}, ErrInput),
		Entry("with parameters of the wrong shape",
			func(b Builder) Builder {
				return b.WithParameter("porosity", ndarray.New(3))
			}, ErrShape),
		Entry("with undeclared constants",
			func(b Builder) Builder {
				return b.WithConstant("depth", 1)
			}, ErrInput),
		Entry("with zero divisions",
			func(b Builder) Builder {
				return b.WithConstant("layers", 0)
			}, field.ErrSchema),
		Entry("with data that does not fit",
			func(b Builder) Builder {
				return b.WithDataset(dataset.New())
			}, dataset.ErrIncompatible),
	)

	It("should panic on invalid spaces", func() {
		Expect(func() {
			_, _ = MakeBuilder().WithSpaceShape(0).Build(bucketType(), impl)
		}).To(Panic())
	})

	It("should start from the initial conditions", func() {
		e := build(builder)

		impl.EXPECT().Initialise(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, args *component.LifecycleArgs) error {
				args.States["storage"].MustGet(-1).Fill(10)
				return nil
			})

		Expect(e.Initialise(ctx)).To(Succeed())

		storage := e.States()["storage"]
		Expect(storage.MustGet(-1).Data()).To(Equal([]float64{10, 10}))
		Expect(storage.MustGet(0).Data()).To(Equal([]float64{10, 10}))
		Expect(e.Phase()).To(Equal(Ready))
	})

	It("should run steps and advance the states", func() {
		passthrough()
		e := build(builder)

		impl.EXPECT().Initialise(gomock.Any(), gomock.Any()).Return(nil)
		impl.EXPECT().Run(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, args *component.RunArgs) (*component.Result, error) {
				return stepResult(args), nil
			}).Times(3)

		Expect(e.Initialise(ctx)).To(Succeed())

		for step, want := range []float64{1, 3, 6} {
			Expect(e.CurrentStep()).To(Equal(step))

			res, err := e.Step(ctx, inwards(1))

			Expect(err).NotTo(HaveOccurred())
			Expect(res.Outwards["transfer_k"].Data()).To(HaveEach(want + 1))
			Expect(res.Outputs["runoff"].Data()).To(HaveEach(want * 0.5))
			Expect(e.States()["storage"].MustGet(-1).Data()).To(HaveEach(want))
			Expect(e.States()["storage"].MustGet(0).Data()).To(HaveEach(0.0))
		}
	})

	It("should route routed fields only", func() {
		e := build(builder)

		impl.EXPECT().Initialise(gomock.Any(), gomock.Any()).Return(nil)
		impl.EXPECT().Run(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, args *component.RunArgs) (*component.Result, error) {
				return stepResult(args), nil
			})
		router.EXPECT().Route(gomock.Any()).
			DoAndReturn(func(f *ndarray.Array) (*ndarray.Array, routing.Diagnostics, error) {
				return ndarray.AddScalar(f, 100), routing.Diagnostics{"lost": 1.0}, nil
			}).Times(1)

		Expect(e.Initialise(ctx)).To(Succeed())
		res, err := e.Step(ctx, inwards(0))

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Outwards["transfer_k"].Data()).To(HaveEach(101.0))
		Expect(res.Outputs["runoff"].Data()).To(HaveEach(0.5))
	})

	It("should report routing failures", func() {
		e := build(builder)

		impl.EXPECT().Initialise(gomock.Any(), gomock.Any()).Return(nil)
		impl.EXPECT().Run(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, args *component.RunArgs) (*component.Result, error) {
				return stepResult(args), nil
			})
		router.EXPECT().Route(gomock.Any()).Return(nil, nil, errors.New("no flow"))

		Expect(e.Initialise(ctx)).To(Succeed())
		_, err := e.Step(ctx, inwards(0))

		Expect(err).To(MatchError(ContainSubstring("no flow")))
		Expect(e.CurrentStep()).To(Equal(0))
	})

	It("should refuse inwards that do not match the declaration", func() {
		e := build(builder)
		impl.EXPECT().Initialise(gomock.Any(), gomock.Any()).Return(nil)
		Expect(e.Initialise(ctx)).To(Succeed())

		_, err := e.Step(ctx, exchange.Transfers{})
		Expect(err).To(MatchError(exchange.ErrKey))

		_, err = e.Step(ctx, exchange.Transfers{
			"transfer_i": ndarray.New(2),
			"transfer_z": ndarray.New(2),
		})
		Expect(err).To(MatchError(exchange.ErrKey))

		_, err = e.Step(ctx, exchange.Transfers{"transfer_i": ndarray.New(3)})
		Expect(err).To(MatchError(ErrShape))
	})

	It("should refuse results that do not match the declaration", func() {
		e := build(builder)
		impl.EXPECT().Initialise(gomock.Any(), gomock.Any()).Return(nil)
		impl.EXPECT().Run(gomock.Any(), gomock.Any()).Return(&component.Result{
			Outwards: exchange.Transfers{},
			Outputs:  map[string]*ndarray.Array{"runoff": ndarray.New(2)},
		}, nil)
		impl.EXPECT().Run(gomock.Any(), gomock.Any()).Return(&component.Result{
			Outwards: exchange.Transfers{"transfer_k": ndarray.New(2)},
			Outputs:  map[string]*ndarray.Array{},
		}, nil)
		impl.EXPECT().Run(gomock.Any(), gomock.Any()).Return(&component.Result{
			Outwards: exchange.Transfers{"transfer_k": ndarray.New(5)},
			Outputs:  map[string]*ndarray.Array{"runoff": ndarray.New(2)},
		}, nil)

		Expect(e.Initialise(ctx)).To(Succeed())

		var keyErr *exchange.KeyError

		_, err := e.Step(ctx, inwards(0))
		Expect(errors.As(err, &keyErr)).To(BeTrue())
		Expect(keyErr.Kind).To(Equal("outward"))
		Expect(keyErr.Missing).To(Equal([]string{"transfer_k"}))

		_, err = e.Step(ctx, inwards(0))
		Expect(errors.As(err, &keyErr)).To(BeTrue())
		Expect(keyErr.Kind).To(Equal("output"))

		_, err = e.Step(ctx, inwards(0))
		Expect(err).To(MatchError(ErrShape))
	})

	It("should check fields returned by the router", func() {
		e := build(builder.WithRouter(routing.RouterFunc(
			func(*ndarray.Array) (*ndarray.Array, routing.Diagnostics, error) {
				return nil, nil, nil
			})))

		impl.EXPECT().Initialise(gomock.Any(), gomock.Any()).Return(nil)
		impl.EXPECT().Run(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, args *component.RunArgs) (*component.Result, error) {
				return stepResult(args), nil
			})

		Expect(e.Initialise(ctx)).To(Succeed())

		res, err := e.Step(ctx, inwards(0))
		Expect(res).To(BeNil())
		Expect(err).To(MatchError(exchange.ErrKey))

		var keyErr *exchange.KeyError
		Expect(errors.As(err, &keyErr)).To(BeTrue())
		Expect(keyErr.Kind).To(Equal("outward"))
		Expect(keyErr.Variant).To(Equal("mock"))
		Expect(keyErr.Missing).To(Equal([]string{"transfer_k"}))
		Expect(e.CurrentStep()).To(Equal(0))
	})

	It("should check the shape of routed outwards", func() {
		e := build(builder.WithRouter(routing.RouterFunc(
			func(*ndarray.Array) (*ndarray.Array, routing.Diagnostics, error) {
				return ndarray.New(3), nil, nil
			})))

		impl.EXPECT().Initialise(gomock.Any(), gomock.Any()).Return(nil)
		impl.EXPECT().Run(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, args *component.RunArgs) (*component.Result, error) {
				return stepResult(args), nil
			})

		Expect(e.Initialise(ctx)).To(Succeed())

		_, err := e.Step(ctx, inwards(0))
		Expect(err).To(MatchError(ErrShape))
	})

	It("should run out of driving data", func() {
		passthrough()
		e := build(builder)

		impl.EXPECT().Initialise(gomock.Any(), gomock.Any()).Return(nil)
		impl.EXPECT().Run(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, args *component.RunArgs) (*component.Result, error) {
				return stepResult(args), nil
			}).Times(3)

		Expect(e.Initialise(ctx)).To(Succeed())
		for i := 0; i < 3; i++ {
			_, err := e.Step(ctx, inwards(0))
			Expect(err).NotTo(HaveOccurred())
		}

		_, err := e.Step(ctx, inwards(0))
		Expect(err).To(MatchError(ErrInput))
	})

	It("should enforce the lifecycle", func() {
		e := build(builder)

		_, err := e.Step(ctx, inwards(0))
		Expect(err).To(MatchError(ErrLifecycle))
		Expect(e.Finalise(ctx)).To(MatchError(ErrLifecycle))

		impl.EXPECT().Initialise(gomock.Any(), gomock.Any()).Return(nil)
		Expect(e.Initialise(ctx)).To(Succeed())
		Expect(e.Initialise(ctx)).To(MatchError(ErrLifecycle))

		impl.EXPECT().Finalise(gomock.Any(), gomock.Any()).Return(nil)
		Expect(e.Finalise(ctx)).To(Succeed())
		Expect(e.Phase()).To(Equal(Finalised))

		_, err = e.Step(ctx, inwards(0))
		Expect(err).To(MatchError(ErrLifecycle))

		var lifecycleErr *LifecycleError
		Expect(errors.As(err, &lifecycleErr)).To(BeTrue())
		Expect(lifecycleErr.Phase).To(Equal(Finalised))
		Expect(lifecycleErr.Variant).To(Equal("mock"))
		Expect(err.Error()).To(ContainSubstring("(mock): cannot run when finalised"))

		Expect(e.Finalise(ctx)).To(MatchError(ErrLifecycle))
	})

	It("should stay uninitialised when the implementation fails", func() {
		e := build(builder)

		impl.EXPECT().Initialise(gomock.Any(), gomock.Any()).
			Return(errors.New("backend gone"))

		Expect(e.Initialise(ctx)).To(MatchError(ContainSubstring("backend gone")))
		Expect(e.Phase()).To(Equal(Uninitialised))
		Expect(e.States()).To(BeNil())
	})

	It("should stop on cancelled contexts", func() {
		e := build(builder)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		Expect(e.Initialise(cancelled)).To(MatchError(context.Canceled))
	})

	It("should keep restored states", func() {
		passthrough()
		e := build(builder)

		Expect(e.RestoreStates(map[string][]*ndarray.Array{
			"storage":  {ndarray.Full(4, 2), ndarray.Full(5, 2)},
			"moisture": {ndarray.New(2, 2), ndarray.New(2, 2)},
		})).To(Succeed())

		impl.EXPECT().Run(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, args *component.RunArgs) (*component.Result, error) {
				Expect(args.States["storage"].MustGet(-1).Data()).To(HaveEach(4.0))
				Expect(args.States["storage"].MustGet(0).Data()).To(HaveEach(5.0))
				return stepResult(args), nil
			})

		Expect(e.Initialise(ctx)).To(Succeed())
		_, err := e.Step(ctx, inwards(0))
		Expect(err).NotTo(HaveOccurred())
	})

	It("should refuse incomplete restores", func() {
		e := build(builder)

		err := e.RestoreStates(map[string][]*ndarray.Array{
			"storage": {ndarray.Full(4, 2), ndarray.Full(5, 2)},
		})
		Expect(err).To(MatchError(ErrInput))

		err = e.RestoreStates(map[string][]*ndarray.Array{
			"storage":  {ndarray.Full(4, 3), ndarray.Full(5, 3)},
			"moisture": {ndarray.New(2, 2), ndarray.New(2, 2)},
		})
		Expect(err).To(MatchError(ErrShape))
	})

	It("should invoke hooks in lifecycle order", func() {
		passthrough()
		hook := NewMockHook(mockCtrl)
		e := build(builder.WithHook(hook))

		impl.EXPECT().Initialise(gomock.Any(), gomock.Any()).Return(nil)
		impl.EXPECT().Run(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, args *component.RunArgs) (*component.Result, error) {
				return stepResult(args), nil
			})
		impl.EXPECT().Finalise(gomock.Any(), gomock.Any()).Return(nil)

		var positions []string
		hook.EXPECT().Func(gomock.Any()).
			Do(func(ctx hooking.HookCtx) {
				Expect(ctx.Domain).To(BeIdenticalTo(e))
				positions = append(positions, ctx.Pos.Name)

				if ctx.Pos == HookPosAfterRun {
					record := ctx.Item.(StepRecord)
					Expect(record.Step).To(Equal(0))
					Expect(record.States["storage"].MustGet(0).Data()).To(HaveEach(1.0))
				}
			}).Times(5)

		Expect(e.Initialise(ctx)).To(Succeed())
		_, err := e.Step(ctx, inwards(0))
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Finalise(ctx)).To(Succeed())

		Expect(positions).To(Equal([]string{
			"AfterInitialise", "BeforeRun", "AfterRun", "AfterStep", "AfterFinalise",
		}))
	})
})
