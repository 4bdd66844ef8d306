// Package overlay covers every detected face in a photo with the overlay
// image.
//
// A Processor is stateless between runs: the overlay asset is decoded and a
// fresh detector is built for each call to Process, and the detector is
// released before Process returns.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/kozaktomas/face-overlay/internal/assets"
	"github.com/kozaktomas/face-overlay/internal/detector"
	"github.com/kozaktomas/face-overlay/internal/raster"
	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"
)

// ErrDetectorUnavailable is returned when the face detector reports that it
// cannot run. The photo is left untouched.
var ErrDetectorUnavailable = errors.New("face detector unavailable")

// Options tune how the overlay is drawn.
type Options struct {
	// Opacity of the overlay, 1-255. Zero means fully opaque.
	Opacity int
	// Interpolation names the scaler: nearest, approxbilinear, bilinear or
	// catmullrom. Empty means catmullrom.
	Interpolation string
}

// Result is the outcome of one processing run.
type Result struct {
	Image    *image.RGBA
	Faces    []detector.Face
	Rects    []image.Rectangle
	Detector string
	Duration time.Duration
}

// Processor composites the overlay asset onto detected faces.
type Processor struct {
	asset   assets.Source
	factory detector.Factory
	scaler  xdraw.Interpolator
	opacity uint8
	logger  logrus.FieldLogger
}

// New returns a processor. It fails only on an unknown interpolation name.
func New(asset assets.Source, factory detector.Factory, opts Options, logger logrus.FieldLogger) (*Processor, error) {
	scaler, err := Interpolator(opts.Interpolation)
	if err != nil {
		return nil, err
	}

	opacity := uint8(255)
	if opts.Opacity > 0 && opts.Opacity < 255 {
		opacity = uint8(opts.Opacity)
	}

	return &Processor{
		asset:   asset,
		factory: factory,
		scaler:  scaler,
		opacity: opacity,
		logger:  logger,
	}, nil
}

// Interpolator resolves a scaler by name.
func Interpolator(name string) (xdraw.Interpolator, error) {
	switch name {
	case "", "catmullrom":
		return xdraw.CatmullRom, nil
	case "bilinear":
		return xdraw.BiLinear, nil
	case "approxbilinear":
		return xdraw.ApproxBiLinear, nil
	case "nearest":
		return xdraw.NearestNeighbor, nil
	default:
		return nil, fmt.Errorf("unknown interpolation %q", name)
	}
}

// ValidateAsset decodes the overlay once so that a broken overlay file is
// reported at startup instead of panicking inside a run.
func ValidateAsset(asset assets.Source) error {
	data, err := asset()
	if err != nil {
		return err
	}
	if _, _, err := raster.DecodeBytes(data); err != nil {
		return fmt.Errorf("invalid overlay image: %w", err)
	}
	return nil
}

// Process detects faces in photo and returns a copy of it with the overlay
// drawn over each face. photo is never modified. With no faces the returned
// raster is a pixel-identical copy.
func (p *Processor) Process(ctx context.Context, photo image.Image) (*Result, error) {
	start := time.Now()
	overlayImg := p.decodeAsset()
	out := raster.Copy(photo)

	d, err := p.factory(ctx, detector.Options{TrackingEnabled: false})
	if err != nil {
		return nil, fmt.Errorf("failed to create face detector: %w", err)
	}
	guard := detector.NewGuard(d)
	defer func() {
		if err := guard.Release(); err != nil {
			p.logger.WithError(err).WithField("detector", guard.Name()).Warn("failed to release face detector")
		}
	}()

	if !guard.IsOperational() {
		return nil, fmt.Errorf("%w: %s: %w", ErrDetectorUnavailable, guard.Name(), detector.ErrUnavailable)
	}

	faces, err := guard.Detect(ctx, photo)
	if err != nil {
		return nil, fmt.Errorf("face detection failed: %w", err)
	}

	rects := make([]image.Rectangle, 0, len(faces))
	for _, face := range faces {
		r := face.Rect()
		rects = append(rects, r)
		p.draw(out, overlayImg, r)
	}
	p.logOverlaps(rects)

	result := &Result{
		Image:    out,
		Faces:    faces,
		Rects:    rects,
		Detector: guard.Name(),
		Duration: time.Since(start),
	}

	p.logger.WithFields(logrus.Fields{
		"detector": result.Detector,
		"faces":    len(faces),
		"width":    out.Bounds().Dx(),
		"height":   out.Bounds().Dy(),
		"duration": result.Duration.String(),
	}).Info("photo processed")

	return result, nil
}

func (p *Processor) decodeAsset() image.Image {
	data, err := p.asset()
	if err != nil {
		panic(fmt.Sprintf("failed to read overlay asset: %v", err))
	}
	img, _, err := raster.DecodeBytes(data)
	if err != nil {
		panic(fmt.Sprintf("failed to decode overlay asset: %v", err))
	}
	return img
}

// draw scales src into r on dst. The scaler clips to dst's bounds, so faces
// reaching past the photo edge are partially covered and empty rectangles
// draw nothing.
func (p *Processor) draw(dst *image.RGBA, src image.Image, r image.Rectangle) {
	if r.Empty() || !r.Overlaps(dst.Bounds()) {
		return
	}

	var opts *xdraw.Options
	if p.opacity < 255 {
		opts = &xdraw.Options{DstMask: image.NewUniform(color.Alpha{A: p.opacity})}
	}
	p.scaler.Scale(dst, r, src, src.Bounds(), xdraw.Over, opts)
}
