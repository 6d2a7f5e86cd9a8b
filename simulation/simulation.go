// Package simulation couples several executors through an exchanger and
// runs them in lockstep.
package simulation

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/sarchlab/hydrocouple/component"
	"github.com/sarchlab/hydrocouple/exchange"
	"github.com/sarchlab/hydrocouple/executor"
	"github.com/sarchlab/hydrocouple/field"
	"github.com/sarchlab/hydrocouple/ndarray"
	"github.com/sarchlab/hydrocouple/sim/naming"
	"github.com/sarchlab/hydrocouple/statedump"
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// A Simulation steps registered executors in registration order. Each
// executor collects its inwards from what the others published last, runs
// one step, and publishes its outwards. Before the first step every outward
// is published as zeros.
type Simulation struct {
	id        string
	logger    logrus.FieldLogger
	exchanger *exchange.Exchanger

	executors []*executor.Executor
	nameIndex map[string]int

	dumpOn  bool
	dumpDir string
	dumps   []*statedump.Hook

	step int
}

// ID returns the unique identifier of the simulation.
func (s *Simulation) ID() string {
	return s.id
}

// Exchanger returns the exchanger carrying the transfers.
func (s *Simulation) Exchanger() *exchange.Exchanger {
	return s.exchanger
}

// CurrentStep returns the index of the next timestep to run.
func (s *Simulation) CurrentStep() int {
	return s.step
}

// RegisterExecutor registers an executor with the simulation. It panics if
// an executor of the same name is already registered.
func (s *Simulation) RegisterExecutor(e *executor.Executor) {
	name := e.Name()
	if _, ok := s.nameIndex[name]; ok {
		panic("executor " + name + " already registered")
	}

	s.executors = append(s.executors, e)
	s.nameIndex[name] = len(s.executors) - 1

	if s.dumpOn && e.Type().Schema().Len(field.State) > 0 {
		path := filepath.Join(s.dumpDir, naming.BuildName(s.id, name))
		hook := statedump.NewHook(path, s.logger)
		e.AcceptHook(hook)
		s.dumps = append(s.dumps, hook)
	}
}

// GetExecutorByName returns the executor with the given name, or nil.
func (s *Simulation) GetExecutorByName(name string) *executor.Executor {
	i, ok := s.nameIndex[name]
	if !ok {
		return nil
	}

	return s.executors[i]
}

// Executors returns all registered executors in registration order.
func (s *Simulation) Executors() []*executor.Executor {
	return append([]*executor.Executor{}, s.executors...)
}

// Initialise initialises every executor and publishes zero outwards.
func (s *Simulation) Initialise(ctx context.Context) error {
	for _, e := range s.executors {
		if err := e.Initialise(ctx); err != nil {
			return err
		}
	}

	for _, e := range s.executors {
		schema := e.Type().Schema()

		zeros := make(exchange.Transfers)
		for _, name := range schema.Names(field.Outward) {
			zeros[name] = ndarray.New(e.Space()...)
		}

		if err := s.exchanger.Publish(e.Name(), schema, zeros); err != nil {
			return err
		}
	}

	s.logger.WithFields(logrus.Fields{
		"simulation": s.id,
		"executors":  len(s.executors),
	}).Debug("simulation initialised")

	return nil
}

// Step runs one timestep of every executor and returns their results by
// executor name.
func (s *Simulation) Step(ctx context.Context) (map[string]*component.Result, error) {
	results := make(map[string]*component.Result, len(s.executors))

	for _, e := range s.executors {
		schema := e.Type().Schema()

		inwards, err := s.exchanger.Collect(e.Name(), schema)
		if err != nil {
			var keyErr *exchange.KeyError
			if errors.As(err, &keyErr) {
				keyErr.Variant = e.Variant()
			}

			return nil, fmt.Errorf("step %d: %w", s.step, err)
		}

		res, err := e.Step(ctx, inwards)
		if err != nil {
			return nil, err
		}

		if err := s.exchanger.Publish(e.Name(), schema, res.Outwards); err != nil {
			return nil, err
		}

		results[e.Name()] = res
	}

	s.step++

	return results, nil
}

// Run runs a number of timesteps.
func (s *Simulation) Run(ctx context.Context, steps int) error {
	for i := 0; i < steps; i++ {
		if _, err := s.Step(ctx); err != nil {
			return err
		}
	}

	return nil
}

// Finalise finalises every executor and closes the state dumps. Every
// executor is finalised even if some fail.
func (s *Simulation) Finalise(ctx context.Context) error {
	var err error

	for _, e := range s.executors {
		err = multierr.Append(err, e.Finalise(ctx))
	}

	for _, d := range s.dumps {
		err = multierr.Append(err, d.Close())
	}

	return err
}

// Dumps returns the files the states were dumped to.
func (s *Simulation) Dumps() []string {
	var paths []string

	for _, d := range s.dumps {
		if dump := d.Dump(); dump != nil {
			paths = append(paths, dump.Path())
		}
	}

	return paths
}
