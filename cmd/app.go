package cmd

import (
	"fmt"

	"github.com/kozaktomas/face-overlay/internal/assets"
	"github.com/kozaktomas/face-overlay/internal/config"
	"github.com/kozaktomas/face-overlay/internal/detector"
	"github.com/kozaktomas/face-overlay/internal/overlay"
	"github.com/sirupsen/logrus"
)

// overlayAsset returns the configured overlay, checking that it decodes.
func overlayAsset(cfg *config.Config) (assets.Source, error) {
	if cfg.Overlay.Path == "" {
		return assets.Bundled(), nil
	}
	asset := assets.FromFile(cfg.Overlay.Path)
	if err := overlay.ValidateAsset(asset); err != nil {
		return nil, fmt.Errorf("OVERLAY_PATH: %w", err)
	}
	return asset, nil
}

// newProcessor wires the overlay processor for the configured detector.
func newProcessor(cfg *config.Config, logger logrus.FieldLogger) (*overlay.Processor, error) {
	asset, err := overlayAsset(cfg)
	if err != nil {
		return nil, err
	}

	factory, err := detector.NewFactory(cfg, logger)
	if err != nil {
		return nil, err
	}

	return overlay.New(asset, factory, overlay.Options{
		Opacity:       cfg.Overlay.Opacity,
		Interpolation: cfg.Overlay.Interpolation,
	}, logger)
}
