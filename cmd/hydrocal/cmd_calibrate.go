package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hydrocal/calibration-core/internal/agent"
	"github.com/hydrocal/calibration-core/internal/search"
	"github.com/hydrocal/calibration-core/pkg/config"
	"github.com/hydrocal/calibration-core/pkg/logger"
	"github.com/hydrocal/calibration-core/pkg/utils"
)

var calibrateFlags struct {
	config string
	json   bool
}

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Run the calibration search loop",
	Long: `Calibrate loads a run configuration, builds the adjustable units for the
configured strategy, and drives the search algorithm until the iteration
budget is exhausted. State is checkpointed after every iteration.`,
	RunE: runCalibrate,
}

func init() {
	f := calibrateCmd.Flags()
	f.StringVarP(&calibrateFlags.config, "config", "c", "", "Path to the calibration configuration YAML")
	f.BoolVar(&calibrateFlags.json, "json", false, "Emit structured JSON logs instead of text")
	calibrateCmd.MarkFlagRequired("config")
}

func runCalibrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(calibrateFlags.config)
	if err != nil {
		return err
	}

	log := logger.NewText(cfg.General.LogLevel, os.Stderr)
	if calibrateFlags.json {
		log = logger.New(cfg.General.LogLevel, os.Stderr)
	}
	logger.SetDefault(log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rng := utils.NewRandSource(cfg.General.RandomSeed)

	ag, err := agent.New(cfg, nil, log)
	if err != nil {
		return err
	}
	log.Info("starting calibration",
		"algorithm", cfg.General.Strategy.Algorithm,
		"strategy", cfg.Model.Strategy,
		"iterations", cfg.General.Iterations,
		"workdir", ag.Job().Workdir)

	if err := search.Run(ctx, ag, rng); err != nil {
		log.Error("calibration aborted", "error", err)
		return err
	}

	for _, set := range ag.Sets() {
		log.Info("calibration finished",
			"catchment", set.OutputID(),
			"best_score", set.BestScore(),
			"best_iteration", set.BestIteration())
	}
	return nil
}
