package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/san-kum/quadsim/internal/config"
	"github.com/san-kum/quadsim/internal/observability"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configFile string
	preset     string

	v   = viper.New()
	cfg *config.Config
	log = observability.Nop()
)

// main registers the commands and exits with status 1 when one fails.
func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "quadsim",
		Short:         "Barnes-Hut gravity simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = observability.Sync(log)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "config file (yaml)")
	pf.StringVarP(&preset, "preset", "p", "default", "preset to start from")
	pf.String("data", config.DefaultDataDir, "data directory")
	pf.String("log-level", "info", "log level")
	pf.String("log-format", "console", "log format (console, json)")
	pf.String("log-file", "", "also write JSON logs to this rotating file")
	pf.Int("particles", config.DefaultCount, "number of particles")
	pf.Int64("seed", 1, "random seed")
	pf.Float64("theta", 0.5, "opening angle (0 is exact)")
	pf.String("method", "barnes-hut", "force method (barnes-hut, direct)")
	pf.String("bounds", "clamp", "out of bounds policy (clamp, reject)")
	pf.Int("workers", 0, "force workers (0 uses every CPU)")
	pf.Int("steps", config.DefaultSteps, "steps to simulate")
	pf.Int("record-every", config.DefaultRecordEvery, "keep a frame every n steps")

	rootCmd.AddCommand(
		newRunCmd(),
		newGenerateCmd(),
		newLiveCmd(),
		newListCmd(),
		newPlotCmd(),
		newExportCmd(),
		newPresetsCmd(),
		newBenchCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

var envReplacer = strings.NewReplacer(".", "_")

// flagKeys maps persistent flags onto config keys. The same keys can be
// set from the environment as QUADSIM_<SECTION>_<KEY>.
var flagKeys = map[string]string{
	"data":         "run.data_dir",
	"log-level":    "log.level",
	"log-format":   "log.format",
	"log-file":     "log.file",
	"particles":    "particles.count",
	"seed":         "particles.seed",
	"theta":        "physics.opening_angle",
	"method":       "physics.method",
	"bounds":       "physics.bounds",
	"workers":      "physics.workers",
	"steps":        "run.steps",
	"record-every": "run.record_every",
}

// setup resolves the configuration: preset, then config file, then
// environment, then explicitly set flags.
func setup(cmd *cobra.Command) error {
	base := config.GetPreset(preset)
	if base == nil {
		return fmt.Errorf("unknown preset %q (try: %s)", preset, strings.Join(config.ListPresets(), ", "))
	}
	if configFile != "" {
		if err := config.Overlay(configFile, base); err != nil {
			return err
		}
	}

	v.SetEnvPrefix("QUADSIM")
	v.SetEnvKeyReplacer(envReplacer)
	v.AutomaticEnv()
	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, cmd.Root().PersistentFlags().Lookup(flag)); err != nil {
			return err
		}
	}
	applyOverrides(v, base)
	if err := base.ExpandPaths(); err != nil {
		return err
	}
	cfg = base

	l, err := observability.New(cfg.Log, zapcore.Lock(os.Stderr))
	if err != nil {
		return err
	}
	log = l.With(zap.String("preset", cfg.Preset))
	return nil
}

func applyOverrides(v *viper.Viper, c *config.Config) {
	setString := func(key string, dst *string) {
		if v.IsSet(key) {
			*dst = v.GetString(key)
		}
	}
	setInt := func(key string, dst *int) {
		if v.IsSet(key) {
			*dst = v.GetInt(key)
		}
	}
	setString("run.data_dir", &c.Run.DataDir)
	setString("log.level", &c.Log.Level)
	setString("log.format", &c.Log.Format)
	setString("log.file", &c.Log.File)
	setInt("particles.count", &c.Particles.Count)
	if v.IsSet("particles.seed") {
		c.Particles.Seed = v.GetInt64("particles.seed")
	}
	if v.IsSet("physics.opening_angle") {
		c.Physics.OpeningAngle = v.GetFloat64("physics.opening_angle")
	}
	setString("physics.method", &c.Physics.Method)
	setString("physics.bounds", &c.Physics.Bounds)
	setInt("physics.workers", &c.Physics.Workers)
	setInt("run.steps", &c.Run.Steps)
	setInt("run.record_every", &c.Run.RecordEvery)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
