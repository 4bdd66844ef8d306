package detector

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"

	pigo "github.com/esimov/pigo/core"
	"github.com/kozaktomas/face-overlay/internal/config"
	"github.com/kozaktomas/face-overlay/internal/raster"
	"github.com/sirupsen/logrus"
)

// PigoDetector runs the pure Go pigo cascade classifier.
type PigoDetector struct {
	classifier *pigo.Pigo
	params     config.PigoConfig
	loadErr    error
	logger     logrus.FieldLogger
}

// NewPigoFactory returns a factory that unpacks the cascade at
// cfg.CascadePath for every run. A missing or corrupt cascade yields a
// non-operational detector.
func NewPigoFactory(cfg config.PigoConfig, logger logrus.FieldLogger) Factory {
	return func(ctx context.Context, opts Options) (Detector, error) {
		d := &PigoDetector{params: cfg, logger: logger}
		d.loadErr = d.load(cfg.CascadePath)
		if d.loadErr != nil {
			logger.WithError(d.loadErr).Warn("pigo cascade not loaded")
		}
		return d, nil
	}
}

func (d *PigoDetector) load(path string) error {
	if path == "" {
		return errors.New("PIGO_CASCADE_PATH is not set")
	}
	cascadeFile, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading the cascade file: %w", err)
	}
	// Unpack the binary file. This will return the number of cascade trees,
	// the tree depth, the threshold and the prediction from tree's leaf nodes.
	classifier, err := pigo.NewPigo().Unpack(cascadeFile)
	if err != nil {
		return fmt.Errorf("error unpacking the cascade file: %w", err)
	}
	d.classifier = classifier
	return nil
}

func (d *PigoDetector) Name() string {
	return "pigo"
}

func (d *PigoDetector) IsOperational() bool {
	return d.loadErr == nil && d.classifier != nil
}

func (d *PigoDetector) Detect(ctx context.Context, img image.Image) ([]Face, error) {
	if !d.IsOperational() {
		return nil, ErrUnavailable
	}

	src := raster.ToNRGBA(img)
	pixels := pigo.RgbToGrayscale(src)
	cols, rows := src.Bounds().Max.X, src.Bounds().Max.Y

	cParams := pigo.CascadeParams{
		MinSize:     d.params.MinSize,
		MaxSize:     d.params.MaxSize,
		ShiftFactor: d.params.ShiftFactor,
		ScaleFactor: d.params.ScaleFactor,

		ImageParams: pigo.ImageParams{
			Pixels: pixels,
			Rows:   rows,
			Cols:   cols,
			Dim:    cols,
		},
	}

	// 0.0 is the cascade rotation angle (upright faces only).
	dets := d.classifier.RunCascade(cParams, 0.0)
	dets = d.classifier.ClusterDetections(dets, d.params.IoUThreshold)

	faces := make([]Face, 0, len(dets))
	for _, det := range dets {
		if float64(det.Q) < d.params.MinScore {
			continue
		}
		// Row/Col is the centre of a square detection of side Scale.
		size := float64(det.Scale)
		faces = append(faces, Face{
			X:      float64(det.Col) - size/2,
			Y:      float64(det.Row) - size/2,
			Width:  size,
			Height: size,
			Score:  float64(det.Q),
		})
	}

	d.logger.WithFields(logrus.Fields{
		"candidates": len(dets),
		"faces":      len(faces),
	}).Debug("pigo detection finished")

	return faces, nil
}

// Release drops the unpacked cascade.
func (d *PigoDetector) Release() error {
	d.classifier = nil
	return nil
}
