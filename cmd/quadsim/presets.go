package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/san-kum/quadsim/internal/config"
	"github.com/spf13/cobra"
)

func newPresetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "presets",
		Short: "list presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPARTICLES\tWORLD\tMASS\tMETHOD\tTHETA")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%d\t%gx%g\t%g\t%s\t%g\n",
					name,
					p.Particles.Count,
					p.World.Width, p.World.Height,
					p.Particles.Mass,
					p.Physics.Method,
					p.Physics.OpeningAngle,
				)
			}
			return w.Flush()
		},
	}
}

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "configuration helpers",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "write the resolved configuration as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "quadsim.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s exists, use --force to overwrite", path)
			}
			if err := config.Save(path, cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	configCmd.AddCommand(initCmd)
	return configCmd
}
