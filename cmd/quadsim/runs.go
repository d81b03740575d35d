package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/quadsim/internal/physics"
	"github.com/san-kum/quadsim/internal/storage"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}
}

func newPlotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot energy and momentum of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export [run_id] [file]",
		Short: "export a stored run as JSON",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			st := storage.New(cfg.Run.DataDir)
			if err := st.ExportJSON(args[1], args[0]); err != nil {
				return err
			}
			fmt.Printf("exported %s to %s\n", args[0], args[1])
			return nil
		},
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(cfg.Run.DataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tPARTICLES\tSTEPS\tMETHOD\tTHETA\tDRIFT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\t%.2e\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Particles,
			run.Steps,
			run.Params.Method,
			run.Params.OpeningAngle,
			run.Metrics["energy_drift"],
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(cfg.Run.DataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	params, err := meta.SimParams()
	if err != nil {
		return err
	}

	frames, err := st.LoadFrames(runID)
	if err != nil {
		return err
	}
	if len(frames) < 2 {
		return fmt.Errorf("run %s has %d frames, need at least 2 to plot", runID, len(frames))
	}

	energy := make([]float64, len(frames))
	momentum := make([]float64, len(frames))
	for i, f := range frames {
		energy[i] = physics.TotalEnergy(f.Particles, params.Law)
		momentum[i] = physics.Momentum(f.Particles).Magnitude()
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s\n", meta.Preset)
	fmt.Printf("frames: %d (steps %d..%d)\n\n", len(frames), frames[0].Step, frames[len(frames)-1].Step)

	for _, series := range []struct {
		caption string
		data    []float64
	}{
		{"total energy", energy},
		{"|momentum|", momentum},
	} {
		graph := asciigraph.Plot(series.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(series.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}
