package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/kozaktomas/face-overlay/internal/detector"
	"github.com/spf13/cobra"
)

// Build metadata variables, set by -ldflags at compile time.
var (
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("face-overlay %s\n", Version)
		fmt.Printf("  Commit:    %s\n", CommitSHA)
		fmt.Printf("  Built:     %s\n", BuildDate)
		fmt.Printf("  Go:        %s\n", runtime.Version())
		fmt.Printf("  Detectors: %s\n", strings.Join(detector.Names(), ", "))
		if !detector.OpenCVCompiled() {
			fmt.Println("             (opencv needs a build with -tags gocv)")
		}
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
