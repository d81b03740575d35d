package main

import (
	"os"

	"github.com/san-kum/quadsim/internal/experiment"
	"github.com/san-kum/quadsim/internal/storage"
	"github.com/spf13/cobra"
)

func newGenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "print a generated particle set as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			ps, err := experiment.Seeder(cfg)(cfg.Particles.Seed)
			if err != nil {
				return err
			}
			return storage.WriteParticles(os.Stdout, ps)
		},
	}
}
