package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/san-kum/quadsim/internal/experiment"
	"github.com/san-kum/quadsim/internal/sim"
	"github.com/san-kum/quadsim/internal/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRunCmd() *cobra.Command {
	var (
		noSave   bool
		ensemble int
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "simulate and store a run",
		RunE: func(cmd *cobra.Command, args []string) error {
			if ensemble > 0 {
				return runEnsemble(ensemble)
			}
			return runSimulation(noSave)
		},
	}
	cmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	cmd.Flags().IntVar(&ensemble, "ensemble", 0, "run this many seeds concurrently instead of a single stored run")
	return cmd
}

func runSimulation(noSave bool) error {
	ctx, cancel := signalContext()
	defer cancel()

	exp := experiment.New(cfg)
	if err := exp.Setup(log); err != nil {
		return err
	}

	start := time.Now()
	result, runErr := exp.Run(ctx)
	elapsed := time.Since(start)
	if result == nil {
		return runErr
	}
	if runErr != nil {
		// keep what was simulated before the failure or interrupt
		log.Warn("run stopped early", zap.Int("steps", result.StepsTaken), zap.Error(runErr))
	}

	runID := "-"
	if !noSave {
		st := storage.New(cfg.Run.DataDir)
		if err := st.Init(); err != nil {
			return err
		}
		info := storage.RunInfo{
			Preset: cfg.Preset,
			Seed:   cfg.Particles.Seed,
			World:  cfg.WorldRegion(),
			Params: cfg.SimParams(),
		}
		id, err := st.Save(info, result)
		if err != nil {
			return err
		}
		runID = id
		log.Info("run saved", zap.String("run_id", runID), zap.String("dir", cfg.Run.DataDir))
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "run\t%s\n", runID)
	fmt.Fprintf(w, "particles\t%d\n", len(exp.Initial()))
	fmt.Fprintf(w, "steps\t%d\n", result.StepsTaken)
	fmt.Fprintf(w, "elapsed\t%v\n", elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "energy drift\t%.3e\n", result.EnergyDrift)
	fmt.Fprintf(w, "calls/body\t%.1f\n", result.Metrics["interactions"])
	fmt.Fprintf(w, "tree depth\t%.0f\n", result.Metrics["tree_depth"])
	fmt.Fprintf(w, "clamped\t%d\n", result.Clamped)
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func runEnsemble(n int) error {
	ctx, cancel := signalContext()
	defer cancel()

	if err := cfg.Validate(); err != nil {
		return err
	}
	s := sim.New(cfg.WorldRegion(), cfg.SimParams(), sim.WithLogger(log))
	results, err := sim.NewEnsemble(s, n, cfg.Particles.Seed).Run(ctx, experiment.Seeder(cfg), cfg.RunConfig())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tSTEPS\tENERGY DRIFT\tCALLS/BODY\tCLAMPED")
	for i, r := range results {
		calls := 0.0
		if r.StepsTaken > 0 && cfg.Particles.Count > 0 {
			calls = float64(r.Interactions) / float64(r.StepsTaken*cfg.Particles.Count)
		}
		fmt.Fprintf(w, "%d\t%d\t%.3e\t%.1f\t%d\n",
			cfg.Particles.Seed+int64(i), r.StepsTaken, r.EnergyDrift, calls, r.Clamped)
	}
	return w.Flush()
}
