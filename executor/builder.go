package executor

import (
	"fmt"

	"github.com/sarchlab/hydrocouple/component"
	"github.com/sarchlab/hydrocouple/dataset"
	"github.com/sarchlab/hydrocouple/field"
	"github.com/sarchlab/hydrocouple/ndarray"
	"github.com/sarchlab/hydrocouple/routing"
	"github.com/sarchlab/hydrocouple/sim/hooking"
	"github.com/sarchlab/hydrocouple/sim/id"
	"github.com/sarchlab/hydrocouple/sim/naming"
	"github.com/sarchlab/hydrocouple/state"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

var instanceIDs = id.NewIDGenerator()

// Builder can be used to build executors.
type Builder struct {
	name       string
	space      []int
	data       *dataset.DataSet
	parameters map[string]*ndarray.Array
	constants  map[string]float64
	router     routing.Router
	logger     logrus.FieldLogger
	hooks      []hooking.Hook
}

// MakeBuilder creates a builder with a single-cell space, no data, and a
// router that leaves fields unchanged.
func MakeBuilder() Builder {
	return Builder{
		space:  []int{1},
		router: routing.Passthrough{},
	}
}

// WithName sets the instance name. By default it is the type name followed
// by a sequence number.
func (b Builder) WithName(name string) Builder {
	b.name = name
	return b
}

// WithSpaceShape sets the shape of the space the component runs on.
func (b Builder) WithSpaceShape(shape ...int) Builder {
	b.space = append([]int{}, shape...)
	return b
}

// WithDataset sets the driving, ancillary, and climatologic data.
func (b Builder) WithDataset(data *dataset.DataSet) Builder {
	b.data = data
	return b
}

// WithParameter sets a parameter. Single-element values are spread over
// the space.
func (b Builder) WithParameter(name string, value *ndarray.Array) Builder {
	parameters := make(map[string]*ndarray.Array, len(b.parameters)+1)
	for k, v := range b.parameters {
		parameters[k] = v
	}

	parameters[name] = value
	b.parameters = parameters

	return b
}

// WithConstant overrides the default value of a constant.
func (b Builder) WithConstant(name string, value float64) Builder {
	constants := make(map[string]float64, len(b.constants)+1)
	for k, v := range b.constants {
		constants[k] = v
	}

	constants[name] = value
	b.constants = constants

	return b
}

// WithRouter sets the router applied to routed outwards and outputs.
func (b Builder) WithRouter(router routing.Router) Builder {
	b.router = router
	return b
}

// WithLogger sets the logger. By default warnings go to stderr.
func (b Builder) WithLogger(logger logrus.FieldLogger) Builder {
	b.logger = logger
	return b
}

// WithHook registers a hook on the built executor.
func (b Builder) WithHook(hook hooking.Hook) Builder {
	b.hooks = append(append([]hooking.Hook{}, b.hooks...), hook)
	return b
}

func (b Builder) parametersMustBeValid() {
	if len(b.space) == 0 {
		panic("space shape must have at least one axis")
	}

	for _, n := range b.space {
		if n <= 0 {
			panic(fmt.Sprintf("invalid space shape %v", b.space))
		}
	}

	if b.router == nil {
		panic("router cannot be nil")
	}
}

// Build creates an executor running a component type with an
// implementation. It checks the parameters, constants, and data against the
// type.
func (b Builder) Build(
	t *component.Type,
	impl component.Implementation,
) (*Executor, error) {
	b.parametersMustBeValid()

	name := b.name
	if name == "" {
		name = t.Name() + "_" + instanceIDs.Generate()
	}

	e := &Executor{
		NamedBase: naming.MakeNamedBase(name),
		typ:       t,
		impl:      impl,
		space:     append([]int{}, b.space...),
		data:      b.data,
		router:    b.router,
		logger:    b.logger,
	}

	if e.data == nil {
		e.data = dataset.New()
	}

	if e.logger == nil {
		e.logger = defaultLogger()
	}

	for _, h := range b.hooks {
		e.AcceptHook(h)
	}

	var err error

	e.parameters, err = b.checkParameters(t.Schema())
	if err != nil {
		return nil, err
	}

	e.constants, err = b.checkConstants(t.Schema())
	if err != nil {
		return nil, err
	}

	if err := e.data.Check(t.Schema(), e.space); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", name, ErrInput, err)
	}

	if err := e.planStates(); err != nil {
		return nil, err
	}

	return e, nil
}

func defaultLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	return logger
}

func (b Builder) checkParameters(
	schema *field.Schema,
) (map[string]*ndarray.Array, error) {
	var err error

	parameters := make(map[string]*ndarray.Array)

	for _, name := range schema.Names(field.Parameter) {
		value, ok := b.parameters[name]
		if !ok {
			err = multierr.Append(err,
				fmt.Errorf("%w: value missing for parameter %q", ErrInput, name))
			continue
		}

		switch {
		case value.SameShape(ndarray.New(b.space...)):
			parameters[name] = value.Clone()
		case value.Size() == 1:
			parameters[name] = ndarray.Full(value.Data()[0], b.space...)
		default:
			err = multierr.Append(err,
				fmt.Errorf("%w: parameter %q has shape %v, want %v",
					ErrShape, name, value.Shape(), b.space))
		}
	}

	for name := range b.parameters {
		if _, ok := schema.Lookup(field.Parameter, name); !ok {
			err = multierr.Append(err,
				fmt.Errorf("%w: undeclared parameter %q", ErrInput, name))
		}
	}

	return parameters, err
}

func (b Builder) checkConstants(
	schema *field.Schema,
) (map[string]float64, error) {
	var err error

	constants := schema.ConstantDefaults()

	for name, value := range b.constants {
		if _, ok := constants[name]; !ok {
			err = multierr.Append(err,
				fmt.Errorf("%w: undeclared constant %q", ErrInput, name))
			continue
		}

		constants[name] = value
	}

	return constants, err
}

// planStates works out the shape of every state so that shape problems
// surface when the executor is built.
func (e *Executor) planStates() error {
	divisions, err := e.typ.Schema().ResolveDivisions(e.constants)
	if err != nil {
		return err
	}

	e.stateShapes = make(map[string][]int)
	for name, axes := range divisions {
		e.stateShapes[name] = append(append([]int{}, e.space...), axes...)
	}

	return nil
}

func (e *Executor) allocateStates() state.Set {
	states := make(state.Set)

	for _, d := range e.typ.Schema().Descriptors(field.State) {
		states[d.Name] = state.Allocate(d.Name, e.typ.SolverHistory(),
			e.stateShapes[d.Name], d.Order)
	}

	return states
}
