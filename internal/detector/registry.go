package detector

import (
	"fmt"
	"net/http"
	"time"

	"github.com/kozaktomas/face-overlay/internal/config"
	"github.com/sirupsen/logrus"
)

// remoteTimeout bounds a single call to a remote detection service.
const remoteTimeout = 2 * time.Minute

// Names lists the supported backends in the order they are documented.
func Names() []string {
	return []string{"pigo", "insightface", "gemini", "openai", "opencv"}
}

// NewFactory returns the factory for the backend selected in cfg.
func NewFactory(cfg *config.Config, logger logrus.FieldLogger) (Factory, error) {
	return NewFactoryFor(cfg.Detector.Backend, cfg, logger)
}

// NewFactoryFor returns the factory for the named backend.
func NewFactoryFor(name string, cfg *config.Config, logger logrus.FieldLogger) (Factory, error) {
	logger = logger.WithField("detector", name)

	switch name {
	case "pigo":
		return NewPigoFactory(cfg.Pigo, logger), nil
	case "insightface":
		return NewInsightFaceFactory(cfg.InsightFace.URL, &http.Client{Timeout: remoteTimeout}, logger), nil
	case "gemini":
		return NewGeminiFactory(cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Vision.MinScore, logger), nil
	case "openai":
		return NewOpenAIFactory(cfg.OpenAI.Token, cfg.OpenAI.Model, cfg.Vision.MinScore, logger), nil
	case "opencv":
		return NewOpenCVFactory(cfg.OpenCV.CascadePath, logger), nil
	default:
		return nil, fmt.Errorf("unknown detector %q (available: %v)", name, Names())
	}
}
