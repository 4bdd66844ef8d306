package detector

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/kozaktomas/face-overlay/internal/constants"
	"github.com/kozaktomas/face-overlay/internal/raster"
	"github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// GeminiDetector asks a Gemini vision model for face bounding boxes.
type GeminiDetector struct {
	client   *genai.Client
	model    string
	minScore float64
	logger   logrus.FieldLogger
}

// NewGeminiFactory returns a factory that creates a Gemini client per run.
// Without an API key the detector is not operational.
func NewGeminiFactory(apiKey, model string, minScore float64, logger logrus.FieldLogger) Factory {
	if model == "" {
		model = constants.DefaultGeminiModel
	}
	return func(ctx context.Context, opts Options) (Detector, error) {
		d := &GeminiDetector{model: model, minScore: minScore, logger: logger}
		if apiKey == "" {
			logger.Warn("GEMINI_API_KEY is not set")
			return d, nil
		}
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		d.client = client
		return d, nil
	}
}

func (d *GeminiDetector) Name() string {
	return "gemini"
}

func (d *GeminiDetector) IsOperational() bool {
	return d.client != nil
}

func (d *GeminiDetector) Detect(ctx context.Context, img image.Image) ([]Face, error) {
	if d.client == nil {
		return nil, ErrUnavailable
	}

	bounds := img.Bounds()
	resized, _ := raster.Fit(img, constants.VisionMaxImageSize)
	imageData, err := raster.EncodeJPEG(resized, 85)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: visionFacesPrompt},
				{InlineData: &genai.Blob{Data: imageData, MIMEType: "image/jpeg"}},
			},
		},
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}

	var lastError error
	for range visionMaxRetries {
		result, err := d.client.Models.GenerateContent(ctx, d.model, contents, config)
		if err != nil {
			return nil, fmt.Errorf("gemini API error: %w", err)
		}

		content := result.Text()
		if content == "" {
			return nil, errors.New("no response from Gemini")
		}

		faces, err := parseVisionFaces(content, bounds.Dx(), bounds.Dy(), d.minScore)
		if err == nil {
			return faces, nil
		}
		lastError = err
		d.logger.WithError(err).Debug("gemini returned unparsable faces JSON, retrying")

		// Add model response and error feedback to contents for retry
		contents = append(contents,
			&genai.Content{
				Role:  "model",
				Parts: []*genai.Part{{Text: content}},
			},
			&genai.Content{
				Role:  "user",
				Parts: []*genai.Part{{Text: fmt.Sprintf("JSON parse error: %v. Please answer with valid JSON only.", err)}},
			},
		)
	}

	return nil, fmt.Errorf("failed to parse faces JSON after %d attempts: %w", visionMaxRetries, lastError)
}

// Release drops the client; the genai client holds no resources that need closing.
func (d *GeminiDetector) Release() error {
	d.client = nil
	return nil
}
