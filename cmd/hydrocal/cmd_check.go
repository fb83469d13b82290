package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hydrocal/calibration-core/pkg/config"
)

var checkCmd = &cobra.Command{
	Use:   "check <config.yaml>",
	Short: "Validate a calibration configuration without running anything",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(args[0])
		if err != nil {
			return err
		}
		fmt.Printf("ok: %d catchment(s), %s search over %d iterations (%s strategy)\n",
			len(cfg.Model.Catchments),
			cfg.General.Strategy.Algorithm,
			cfg.General.Iterations,
			cfg.Model.Strategy)
		return nil
	},
}
