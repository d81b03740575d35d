package main

import (
	"fmt"
	"math"
	"os"
	"text/tabwriter"
	"time"

	"github.com/san-kum/quadsim/internal/experiment"
	"github.com/san-kum/quadsim/internal/particle"
	"github.com/san-kum/quadsim/internal/sim"
	"github.com/spf13/cobra"
)

func newBenchCmd() *cobra.Command {
	var (
		counts    []int
		directMax int
		repeat    int
	)
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "compare Barnes-Hut with direct summation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return bench(counts, directMax, max(repeat, 1))
		},
	}
	cmd.Flags().IntSliceVar(&counts, "counts", []int{100, 500, 1000, 2000, 5000}, "particle counts")
	cmd.Flags().IntVar(&directMax, "direct-max", 5000, "skip direct summation above this count")
	cmd.Flags().IntVar(&repeat, "repeat", 3, "steps timed per measurement")
	return cmd
}

func bench(counts []int, directMax, repeat int) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "N\tMETHOD\tSTEP\tCALLS/BODY\tDEPTH\tMAX DV ERR")

	for _, n := range counts {
		c := *cfg
		c.Particles.Count = n
		ps, err := experiment.Seeder(&c)(cfg.Particles.Seed)
		if err != nil {
			return err
		}

		var exact []particle.Particle
		if n <= directMax {
			params := cfg.SimParams()
			params.Method = sim.Direct
			out, stats, took, err := timeStep(ps, params, repeat)
			if err != nil {
				return err
			}
			exact = out
			fmt.Fprintf(w, "%d\t%s\t%v\t%.1f\t-\t-\n", n, sim.Direct, took, stats.MeanInteractions(n))
		}

		params := cfg.SimParams()
		params.Method = sim.BarnesHut
		out, stats, took, err := timeStep(ps, params, repeat)
		if err != nil {
			return err
		}
		errCol := "-"
		if exact != nil {
			errCol = fmt.Sprintf("%.2e", maxRelativeError(out, exact))
		}
		fmt.Fprintf(w, "%d\t%s\t%v\t%.1f\t%d\t%s\n", n, sim.BarnesHut, took, stats.MeanInteractions(n), stats.TreeDepth, errCol)
	}
	return w.Flush()
}

func timeStep(ps []particle.Particle, params sim.Params, repeat int) ([]particle.Particle, sim.StepStats, time.Duration, error) {
	var (
		out   []particle.Particle
		stats sim.StepStats
		err   error
	)
	start := time.Now()
	for i := 0; i < repeat; i++ {
		out, stats, err = sim.Step(ps, cfg.WorldRegion(), params)
		if err != nil {
			return nil, stats, 0, err
		}
	}
	return out, stats, (time.Since(start) / time.Duration(repeat)).Round(time.Microsecond), nil
}

// maxRelativeError compares velocity changes against the exact result,
// relative to the largest exact change.
func maxRelativeError(got, want []particle.Particle) float64 {
	var worst, scale float64
	for i := range want {
		scale = math.Max(scale, want[i].Velocity.Magnitude())
		worst = math.Max(worst, got[i].Velocity.Distance(want[i].Velocity))
	}
	if scale == 0 {
		return 0
	}
	return worst / scale
}
