//go:build !gocv

package detector

import (
	"context"
	"image"

	"github.com/sirupsen/logrus"
)

// NewOpenCVFactory returns a detector that is never operational: this binary
// was built without the gocv tag.
func NewOpenCVFactory(cascadePath string, logger logrus.FieldLogger) Factory {
	return func(ctx context.Context, opts Options) (Detector, error) {
		logger.Warn("opencv detector requires building with -tags gocv")
		return &unavailable{name: "opencv"}, nil
	}
}

type unavailable struct {
	name string
}

func (u *unavailable) Name() string {
	return u.name
}

func (u *unavailable) IsOperational() bool {
	return false
}

func (u *unavailable) Detect(ctx context.Context, img image.Image) ([]Face, error) {
	return nil, ErrUnavailable
}

func (u *unavailable) Release() error {
	return nil
}

// OpenCVCompiled reports whether this binary carries the gocv backend.
func OpenCVCompiled() bool {
	return false
}
