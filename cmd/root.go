package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tbrossard/evtwin/config"
	"github.com/tbrossard/evtwin/core/scenario"
	"github.com/tbrossard/evtwin/core/sim"
	"github.com/tbrossard/evtwin/core/twin"
	"github.com/tbrossard/evtwin/infra/logger"
	"github.com/tbrossard/evtwin/infra/metrics"
	"github.com/tbrossard/evtwin/pkg/export"
)

var (
	cfgPath      string
	scenarioName string
	profilePath  string
	outPath      string
	logInterval  int
	csvOut       bool
)

var rootCmd = &cobra.Command{
	Use:   "evtwin",
	Short: "EV digital twin simulation",
	RunE:  runSimulate,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.Flags().StringVarP(&scenarioName, "scenario", "s", "urban", "driving scenario")
	rootCmd.Flags().StringVar(&profilePath, "profile", "", "custom scenario profile file (YAML)")
	rootCmd.Flags().StringVarP(&outPath, "out", "o", "", "telemetry export path (default <output_dir>/telemetry_<scenario>.json)")
	rootCmd.Flags().IntVar(&logInterval, "log-interval", 0, "steps between telemetry log entries (default from config)")
	rootCmd.Flags().BoolVar(&csvOut, "csv", false, "export CSV instead of JSON")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New("simulate")
	sink, err := metrics.BuildSinks(cfg.Metrics)
	if err != nil {
		return err
	}

	reg := scenario.DefaultRegistry()
	name := scenarioName
	if profilePath != "" {
		sc, err := scenario.LoadProfile(profilePath)
		if err != nil {
			return fmt.Errorf("load profile: %w", err)
		}
		if err := reg.Register(sc); err != nil {
			return err
		}
		name = sc.Name
	}

	var topts []twin.Option
	if cfg.Sim.Seed != 0 {
		topts = append(topts, twin.WithSeed(cfg.Sim.Seed))
	}
	tw, err := twin.New(cfg.TwinConfig(), topts...)
	if err != nil {
		return err
	}

	eng, err := sim.New(tw, reg, cfg.Sim.TimeStepS, sim.WithLogger(log), sim.WithSink(sink))
	if err != nil {
		return err
	}

	interval := logInterval
	if interval <= 0 {
		interval = cfg.Sim.LogInterval
	}
	if _, err := eng.RunScenario(ctx, name, interval); err != nil {
		return err
	}

	path, err := exportLog(tw, name, cfg.Sim.OutputDir)
	if err != nil {
		return err
	}
	log.Infof("telemetry exported to %s", path)
	return nil
}

func exportLog(tw *twin.DigitalTwin, name, outputDir string) (string, error) {
	path := outPath
	if path == "" {
		ext := "json"
		if csvOut {
			ext = "csv"
		}
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return "", err
		}
		path = filepath.Join(outputDir, fmt.Sprintf("telemetry_%s.%s", name, ext))
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()
	if csvOut {
		err = export.WriteCSV(f, tw.Log())
	} else {
		err = tw.ExportTelemetry(f)
	}
	if err != nil {
		return "", err
	}
	return path, nil
}
