package cmd

import (
	"context"
	"fmt"

	"github.com/kozaktomas/face-overlay/internal/detector"
	"github.com/spf13/cobra"
)

var detectorsCmd = &cobra.Command{
	Use:   "detectors",
	Short: "List face detector backends and whether they can run",
	RunE:  runDetectors,
}

func init() {
	rootCmd.AddCommand(detectorsCmd)
}

func runDetectors(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := loadConfig(cmd)
	logger := newLogger(cfg)

	for _, name := range detector.Names() {
		factory, err := detector.NewFactoryFor(name, cfg, logger)
		if err != nil {
			return err
		}
		d, err := factory(ctx, detector.Options{})
		if err != nil {
			fmt.Printf("  %-12s error: %v\n", name, err)
			continue
		}

		status := "not operational"
		if d.IsOperational() {
			status = "operational"
		}
		marker := " "
		if name == cfg.Detector.Backend {
			marker = "*"
		}
		fmt.Printf("%s %-12s %s\n", marker, name, status)

		if err := d.Release(); err != nil {
			logger.WithError(err).WithField("detector", name).Warn("failed to release detector")
		}
	}
	return nil
}
