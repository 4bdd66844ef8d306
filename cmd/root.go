package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/kozaktomas/face-overlay/internal/config"
	"github.com/kozaktomas/face-overlay/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "face-overlay",
	Short: "Cover faces in photos with an overlay image",
	Long: `Face Overlay detects faces in a photo and draws an overlay image
(by default the bundled "blue screen") over every face it finds.

Faces are detected with pigo (pure Go), a remote InsightFace server,
Gemini or OpenAI vision models, or OpenCV when built with -tags gocv.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging (same as LOG_DEBUG=true)")
	rootCmd.PersistentFlags().String("detector", "", "Face detector backend (overrides DETECTOR)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// loadConfig loads configuration and applies the persistent flag overrides.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg := config.Load()
	if debug, err := cmd.Flags().GetBool("debug"); err == nil && debug {
		cfg.Debug = true
	}
	if name, err := cmd.Flags().GetString("detector"); err == nil && name != "" {
		cfg.Detector.Backend = name
	}
	return cfg
}

func newLogger(cfg *config.Config) *logrus.Logger {
	return logging.New(cfg.Debug)
}
