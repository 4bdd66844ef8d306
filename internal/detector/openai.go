package detector

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"

	"github.com/kozaktomas/face-overlay/internal/constants"
	"github.com/kozaktomas/face-overlay/internal/raster"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"github.com/sirupsen/logrus"
)

// OpenAIDetector asks an OpenAI vision model for face bounding boxes.
type OpenAIDetector struct {
	client   *openai.Client
	model    string
	minScore float64
	logger   logrus.FieldLogger
}

// NewOpenAIFactory returns a factory for OpenAI-backed detectors. Extra
// request options (base URL, HTTP client) are passed to the SDK as is.
// Without a token the detector is not operational.
func NewOpenAIFactory(token, model string, minScore float64, logger logrus.FieldLogger, opts ...option.RequestOption) Factory {
	if model == "" {
		model = constants.DefaultOpenAIModel
	}
	return func(ctx context.Context, _ Options) (Detector, error) {
		d := &OpenAIDetector{model: model, minScore: minScore, logger: logger}
		if token == "" {
			logger.Warn("OPENAI_TOKEN is not set")
			return d, nil
		}
		client := openai.NewClient(append([]option.RequestOption{option.WithAPIKey(token)}, opts...)...)
		d.client = &client
		return d, nil
	}
}

func (d *OpenAIDetector) Name() string {
	return "openai"
}

func (d *OpenAIDetector) IsOperational() bool {
	return d.client != nil
}

func (d *OpenAIDetector) Detect(ctx context.Context, img image.Image) ([]Face, error) {
	if d.client == nil {
		return nil, ErrUnavailable
	}

	bounds := img.Bounds()
	resized, _ := raster.Fit(img, constants.VisionMaxImageSize)
	imageData, err := raster.EncodeJPEG(resized, 85)
	if err != nil {
		return nil, err
	}
	imageURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(imageData)

	messages := []openai.ChatCompletionMessageParamUnion{
		{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(visionFacesPrompt),
				},
			},
		},
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{
					OfArrayOfContentParts: []openai.ChatCompletionContentPartUnionParam{
						openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
							URL:    imageURL,
							Detail: "high",
						}),
					},
				},
			},
		},
	}

	var lastError error
	for range visionMaxRetries {
		resp, err := d.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model:    openai.ChatModel(d.model),
			Messages: messages,
			ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
				OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
			},
			MaxTokens: openai.Int(1000),
		})
		if err != nil {
			return nil, fmt.Errorf("OpenAI API error: %w", err)
		}

		if len(resp.Choices) == 0 {
			return nil, errors.New("no response from OpenAI")
		}

		content := resp.Choices[0].Message.Content
		faces, err := parseVisionFaces(content, bounds.Dx(), bounds.Dy(), d.minScore)
		if err == nil {
			return faces, nil
		}
		lastError = err
		d.logger.WithError(err).Debug("openai returned unparsable faces JSON, retrying")

		// Add assistant response and error feedback to messages for retry
		messages = append(messages,
			openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Content: openai.ChatCompletionAssistantMessageParamContentUnion{
						OfString: openai.String(content),
					},
				},
			},
			openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(fmt.Sprintf("JSON parse error: %v. Please answer with valid JSON only.", err)),
					},
				},
			},
		)
	}

	return nil, fmt.Errorf("failed to parse faces JSON after %d attempts: %w", visionMaxRetries, lastError)
}

func (d *OpenAIDetector) Release() error {
	d.client = nil
	return nil
}
