//go:build gocv

package detector

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"
)

// OpenCVDetector runs an OpenCV Haar cascade through gocv.
type OpenCVDetector struct {
	classifier gocv.CascadeClassifier
	loaded     bool
	logger     logrus.FieldLogger
}

// NewOpenCVFactory loads the cascade XML at cascadePath for every run.
func NewOpenCVFactory(cascadePath string, logger logrus.FieldLogger) Factory {
	return func(ctx context.Context, opts Options) (Detector, error) {
		d := &OpenCVDetector{classifier: gocv.NewCascadeClassifier(), logger: logger}
		switch {
		case cascadePath == "":
			logger.Warn("OPENCV_CASCADE_PATH is not set")
		case !d.classifier.Load(cascadePath):
			logger.WithField("path", cascadePath).Warn("error reading cascade file")
		default:
			d.loaded = true
		}
		return d, nil
	}
}

func (d *OpenCVDetector) Name() string {
	return "opencv"
}

func (d *OpenCVDetector) IsOperational() bool {
	return d.loaded
}

func (d *OpenCVDetector) Detect(ctx context.Context, img image.Image) ([]Face, error) {
	if !d.loaded {
		return nil, ErrUnavailable
	}

	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return nil, fmt.Errorf("failed to convert image: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return nil, errors.New("converted image is empty")
	}

	rects := d.classifier.DetectMultiScale(mat)
	faces := make([]Face, 0, len(rects))
	for _, r := range rects {
		faces = append(faces, Face{
			X:      float64(r.Min.X),
			Y:      float64(r.Min.Y),
			Width:  float64(r.Dx()),
			Height: float64(r.Dy()),
		})
	}
	return faces, nil
}

// Release frees the native classifier.
func (d *OpenCVDetector) Release() error {
	d.loaded = false
	return d.classifier.Close()
}

// OpenCVCompiled reports whether this binary carries the gocv backend.
func OpenCVCompiled() bool {
	return true
}
