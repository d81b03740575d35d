package main

import (
	"time"

	"github.com/san-kum/quadsim/internal/experiment"
	"github.com/san-kum/quadsim/internal/observability"
	"github.com/san-kum/quadsim/internal/viz"
	"github.com/spf13/cobra"
)

func newLiveCmd() *cobra.Command {
	var fps int
	cmd := &cobra.Command{
		Use:   "live",
		Short: "watch the simulation in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}

			// console logs would tear the alternate screen
			l := observability.Nop()
			if cfg.Log.File != "" {
				var err error
				if l, err = observability.New(cfg.Log, discard{}); err != nil {
					return err
				}
			}

			m, err := viz.NewModel(
				cfg.WorldRegion(),
				cfg.SimParams(),
				experiment.Seeder(cfg),
				cfg.Particles.Seed,
				viz.WithTitle(cfg.Preset),
				viz.WithTickRate(time.Second/time.Duration(max(fps, 1))),
				viz.WithLogger(l),
			)
			if err != nil {
				return err
			}
			return viz.Run(m)
		},
	}
	cmd.Flags().IntVar(&fps, "fps", 30, "steps per second")
	return cmd
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
func (discard) Sync() error                 { return nil }
