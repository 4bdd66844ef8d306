package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kozaktomas/face-overlay/internal/acquire"
	"github.com/kozaktomas/face-overlay/internal/overlay"
	"github.com/kozaktomas/face-overlay/internal/raster"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var overlayCmd = &cobra.Command{
	Use:   "overlay <photo>...",
	Short: "Cover the faces in one or more photos",
	Long: `Detect faces in each photo and write a copy with the overlay drawn
over every face. Input photos are never modified.

Examples:
  # Single photo, explicit output
  face-overlay overlay party.jpg -o party-covered.png

  # Many photos into a directory (4 concurrent workers)
  face-overlay overlay photos/*.jpg --out-dir covered --concurrency 4

  # Use a remote InsightFace server
  face-overlay overlay team.jpg --detector insightface`,
	Args: cobra.MinimumNArgs(1),
	RunE: runOverlay,
}

func init() {
	rootCmd.AddCommand(overlayCmd)

	overlayCmd.Flags().StringP("out", "o", "", "Output file (single input only)")
	overlayCmd.Flags().String("out-dir", "", "Output directory (defaults to next to each input)")
	overlayCmd.Flags().String("suffix", "-covered", "Suffix added to output file names")
	overlayCmd.Flags().Int("concurrency", 1, "Number of parallel workers")
}

// outputPath derives where the processed copy of input is written.
func outputPath(input, outDir, suffix string) string {
	dir := filepath.Dir(input)
	if outDir != "" {
		dir = outDir
	}
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)

	// Formats without an encoder (gif, webp, bmp, tiff) are written as PNG.
	if outputFormat(ext) == "png" {
		ext = ".png"
	}
	return filepath.Join(dir, name+suffix+ext)
}

// outputFormat picks the encoder from a file extension.
func outputFormat(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "jpeg"
	default:
		return "png"
	}
}

// planOutputs resolves the output path of every input. It refuses outputs
// that would overwrite an input or another output of the same batch.
func planOutputs(inputs []string, out, outDir, suffix string) ([]string, error) {
	inputSet := make(map[string]string, len(inputs))
	for _, input := range inputs {
		abs, err := filepath.Abs(input)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", input, err)
		}
		inputSet[abs] = input
	}

	outputs := make([]string, len(inputs))
	seen := make(map[string]string, len(inputs))
	for i, input := range inputs {
		output := out
		if output == "" {
			output = outputPath(input, outDir, suffix)
		}
		abs, err := filepath.Abs(output)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", output, err)
		}
		if src, ok := inputSet[abs]; ok {
			return nil, fmt.Errorf("output %s would overwrite input %s; use --suffix or --out-dir", output, src)
		}
		if prev, ok := seen[abs]; ok {
			return nil, fmt.Errorf("%s and %s would both be written to %s", prev, input, output)
		}
		seen[abs] = input
		outputs[i] = output
	}
	return outputs, nil
}

func writePhoto(path string, result *overlay.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := raster.Encode(f, result.Image, outputFormat(filepath.Ext(path))); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func processFile(ctx context.Context, processor *overlay.Processor, input, output string) (*overlay.Result, error) {
	photo, err := acquire.FromFile(input)
	if err != nil {
		return nil, err
	}
	result, err := processor.Process(ctx, photo.Image)
	if err != nil {
		return nil, err
	}
	if err := writePhoto(output, result); err != nil {
		return nil, err
	}
	return result, nil
}

func runOverlay(cmd *cobra.Command, args []string) error {
	out := mustGetString(cmd, "out")
	outDir := mustGetString(cmd, "out-dir")
	suffix := mustGetString(cmd, "suffix")
	concurrency := max(1, mustGetInt(cmd, "concurrency"))

	if out != "" && len(args) > 1 {
		return errors.New("--out can only be used with a single input; use --out-dir")
	}
	outputs, err := planOutputs(args, out, outDir, suffix)
	if err != nil {
		return err
	}
	if outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	ctx := context.Background()
	cfg := loadConfig(cmd)
	logger := newLogger(cfg)

	processor, err := newProcessor(cfg, logger)
	if err != nil {
		return err
	}

	if len(args) == 1 {
		output := outputs[0]
		result, err := processFile(ctx, processor, args[0], output)
		if err != nil {
			if errors.Is(err, overlay.ErrDetectorUnavailable) {
				return fmt.Errorf("could not set up the face detector (%s): %w", cfg.Detector.Backend, err)
			}
			return err
		}
		fmt.Printf("Covered %d face(s) in %s -> %s\n", len(result.Faces), args[0], output)
		return nil
	}

	bar := progressbar.NewOptions(len(args),
		progressbar.OptionSetDescription("Covering faces"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("photos"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	// Process photos with concurrency
	var successCount, totalFaces int
	var failures []string
	var mu sync.Mutex

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup

	for i, input := range args {
		wg.Add(1)
		go func(input, output string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result, err := processFile(ctx, processor, input, output)

			mu.Lock()
			if err != nil {
				failures = append(failures, fmt.Sprintf("%s: %v", input, err))
			} else {
				successCount++
				totalFaces += len(result.Faces)
			}
			mu.Unlock()
			bar.Add(1)
		}(input, outputs[i])
	}

	wg.Wait()
	bar.Finish()

	fmt.Printf("\nProcessed: %d, Failed: %d, Faces covered: %d\n", successCount, len(failures), totalFaces)
	for _, f := range failures {
		fmt.Printf("  %s\n", f)
	}
	if len(failures) > 0 {
		return fmt.Errorf("%d photo(s) failed", len(failures))
	}
	return nil
}
