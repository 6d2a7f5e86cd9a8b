package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sarchlab/hydrocouple/components/surfacelayer/dummy"
	"github.com/sarchlab/hydrocouple/executor"
	"github.com/sarchlab/hydrocouple/record"
	"github.com/sarchlab/hydrocouple/sim/hooking"
	"github.com/sarchlab/hydrocouple/statedump"
	"github.com/shirou/gopsutil/process"
	"github.com/spf13/cobra"
)

type runOptions struct {
	variant      string
	steps        int
	space        []int
	value        float64
	dump         bool
	resume       string
	records      []string
	recordPeriod int
	quiet        bool
}

func (o *runOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.variant, "variant", dummy.VariantPure,
		"Variant of the dummy component: "+strings.Join(dummy.Variants, ", "))
	cmd.Flags().IntVar(&o.steps, "steps", 3, "Number of timesteps to run")
	cmd.Flags().IntSliceVar(&o.space, "space", []int{2, 3},
		"Shape of the space")
	cmd.Flags().Float64Var(&o.value, "value", 1,
		"Value of every input and inward")
}

// A printSink writes record entries as text.
type printSink struct {
	w io.Writer
}

func (p printSink) Write(e record.Record) error {
	_, err := fmt.Fprintf(p.w, "record %s %s steps %d-%d: %v\n",
		e.Name, e.Method, e.StartStep, e.EndStep, e.Value.Data())

	return err
}

// parseRecord reads "name:method,method".
func parseRecord(s string) (string, []string, error) {
	name, methods, ok := strings.Cut(s, ":")
	if !ok || name == "" || methods == "" {
		return "", nil, fmt.Errorf("invalid record %q, want name:method[,method]", s)
	}

	return name, strings.Split(methods, ","), nil
}

type simulation struct {
	executor *executor.Executor
	timer    *hooking.TimeTracer
	dump     *statedump.Hook
	streams  []*record.Stream
}

func (a *app) buildSimulation(o *runOptions, out io.Writer) (*simulation, error) {
	if o.steps < 0 {
		return nil, fmt.Errorf("steps cannot be negative")
	}

	t, impl, err := dummy.New(o.variant, a.registry())
	if err != nil {
		return nil, err
	}

	data, err := dummy.UniformData(o.value, o.steps, o.space...)
	if err != nil {
		return nil, err
	}

	sim := &simulation{
		timer: hooking.NewTimeTracer(
			executor.HookPosBeforeRun, executor.HookPosAfterRun),
	}

	builder := executor.MakeBuilder().
		WithSpaceShape(o.space...).
		WithDataset(data).
		WithLogger(a.logger).
		WithHook(hooking.NewLogHook(a.logger)).
		WithHook(sim.timer)

	if len(o.records) > 0 {
		stream, err := record.NewStream(t, o.recordPeriod, printSink{w: out})
		if err != nil {
			return nil, err
		}

		for _, r := range o.records {
			name, methods, err := parseRecord(r)
			if err != nil {
				return nil, err
			}

			if err := stream.Add(name, methods...); err != nil {
				return nil, err
			}
		}

		sim.streams = append(sim.streams, stream)
		builder = builder.WithHook(stream)
	}

	if o.dump {
		sim.dump = statedump.NewHook(a.cfg.DumpDir, a.logger)
		builder = builder.WithHook(sim.dump)
	}

	sim.executor, err = builder.Build(t, impl)
	if err != nil {
		return nil, err
	}

	if o.resume != "" {
		if err := restore(sim.executor, o.resume); err != nil {
			return nil, err
		}
	}

	return sim, nil
}

func restore(e *executor.Executor, path string) error {
	d, err := statedump.Open(path)
	if err != nil {
		return err
	}
	defer d.Close()

	slots, err := d.Load(-1)
	if err != nil {
		return err
	}

	return e.RestoreStates(slots)
}

func (s *simulation) run(ctx context.Context, o *runOptions, out io.Writer) error {
	e := s.executor

	if err := e.Initialise(ctx); err != nil {
		return err
	}

	for i := 0; i < o.steps; i++ {
		res, err := e.Step(ctx, dummy.UniformInwards(e.Type(), o.value, o.space...))
		if err != nil {
			return err
		}

		if o.quiet {
			continue
		}

		for _, name := range res.Outwards.Names() {
			fmt.Fprintf(out, "step %d %s: %v\n", i, name, res.Outwards[name].Data())
		}
	}

	if err := e.Finalise(ctx); err != nil {
		return err
	}

	for _, stream := range s.streams {
		if err := stream.Err(); err != nil {
			return err
		}
	}

	if s.dump != nil {
		if err := s.dump.Close(); err != nil {
			return err
		}

		if err := s.dump.Err(); err != nil {
			return err
		}

		fmt.Fprintf(out, "states dumped to %s\n", s.dump.Dump().Path())
	}

	return nil
}

func reportMemory(out io.Writer) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	mem, err := p.MemoryInfo()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "memory: %.1f MiB resident\n", float64(mem.RSS)/(1<<20))

	return nil
}

func newRunCmd(a *app) *cobra.Command {
	o := &runOptions{}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the dummy component with uniform inputs.",
		Long: "`run` runs a variant of the dummy component, printing the " +
			"outwards of every step. States can be dumped to SQLite with " +
			"--dump and a run can resume from a dump with --resume.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()

			sim, err := a.buildSimulation(o, out)
			if err != nil {
				return err
			}

			if err := sim.run(cmd.Context(), o, out); err != nil {
				return err
			}

			fmt.Fprintf(out, "%d steps, %v per step\n",
				sim.timer.Count(), sim.timer.AverageTime())

			if err := reportMemory(out); err != nil {
				a.logger.WithError(err).Warn("cannot read memory usage")
			}

			return nil
		},
	}

	o.addFlags(runCmd)
	runCmd.Flags().BoolVar(&o.dump, "dump", false,
		"Dump states to SQLite in HYDROCOUPLE_DUMP_DIR")
	runCmd.Flags().StringVar(&o.resume, "resume", "",
		"Start from the last states of a dump file")
	runCmd.Flags().StringArrayVar(&o.records, "record", nil,
		"Record a field as name:method[,method]")
	runCmd.Flags().IntVar(&o.recordPeriod, "record-period", 1,
		"Number of steps aggregated into one record")
	runCmd.Flags().BoolVar(&o.quiet, "quiet", false,
		"Do not print the outwards")

	return runCmd
}
