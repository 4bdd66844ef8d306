// Package detector defines the face-detection collaborator used by the
// overlay processor and the backends that implement it.
//
// A detector is built per processing run and released exactly once when the
// run ends. Detection is always single-frame: no backend keeps tracking state
// between runs.
package detector

import (
	"context"
	"errors"
	"image"
	"math"
	"sync"
)

// ErrUnavailable is returned when a detector reports itself non-operational.
var ErrUnavailable = errors.New("face detector is not operational")

// Face is a detected face in photo pixel coordinates, relative to the
// top-left corner of the photo.
type Face struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Score  float64 `json:"score,omitempty"`
}

// Rect returns the destination rectangle (x, y, x+width, y+height), widened
// to whole pixels.
func (f Face) Rect() image.Rectangle {
	return image.Rect(
		int(math.Floor(f.X)),
		int(math.Floor(f.Y)),
		int(math.Ceil(f.X+f.Width)),
		int(math.Ceil(f.Y+f.Height)),
	)
}

// Options configure a detector instance.
type Options struct {
	// TrackingEnabled is kept for parity with tracking-capable detectors.
	// Processing always passes false.
	TrackingEnabled bool
}

// Detector is the face-detection collaborator.
type Detector interface {
	Name() string
	IsOperational() bool
	Detect(ctx context.Context, img image.Image) ([]Face, error)
	Release() error
}

// Factory builds a fresh detector for one processing run. A factory returns
// an error only when the detector cannot be constructed at all; a detector
// that was built but cannot work reports IsOperational() == false.
type Factory func(ctx context.Context, opts Options) (Detector, error)

// Guard wraps a detector so that Release reaches it at most once.
type Guard struct {
	Detector

	once sync.Once
	err  error
}

// NewGuard wraps d.
func NewGuard(d Detector) *Guard {
	return &Guard{Detector: d}
}

// Release releases the wrapped detector on the first call and returns the
// same result on every later call.
func (g *Guard) Release() error {
	g.once.Do(func() {
		g.err = g.Detector.Release()
	})
	return g.err
}
