package simulation

import (
	"github.com/sarchlab/hydrocouple/exchange"
	"github.com/sarchlab/hydrocouple/sim/id"
	"github.com/sirupsen/logrus"
)

var simulationIDs = id.NewParallelIDGenerator()

// Builder can be used to build a simulation.
type Builder struct {
	logger  logrus.FieldLogger
	dumpOn  bool
	dumpDir string
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithLogger sets the logger of the simulation.
func (b Builder) WithLogger(logger logrus.FieldLogger) Builder {
	b.logger = logger
	return b
}

// WithStateDumps dumps the states of every registered executor that has
// states into a directory.
func (b Builder) WithStateDumps(dir string) Builder {
	b.dumpOn = true
	b.dumpDir = dir

	return b
}

// Build builds the simulation.
func (b Builder) Build() *Simulation {
	s := &Simulation{
		id:        simulationIDs.Generate(),
		logger:    b.logger,
		exchanger: exchange.NewExchanger(),
		nameIndex: make(map[string]int),
		dumpOn:    b.dumpOn,
		dumpDir:   b.dumpDir,
	}

	if s.logger == nil {
		logger := logrus.New()
		logger.SetLevel(logrus.WarnLevel)
		s.logger = logger
	}

	return s
}
