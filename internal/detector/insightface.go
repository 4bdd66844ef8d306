package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/kozaktomas/face-overlay/internal/constants"
	"github.com/kozaktomas/face-overlay/internal/raster"
	"github.com/sirupsen/logrus"
)

const insightFaceHealthTimeout = 5 * time.Second

// InsightFaceDetector sends the photo to a remote InsightFace server
// (POST /embed/face) and uses the returned bounding boxes.
type InsightFaceDetector struct {
	baseURL     string
	client      *http.Client
	operational bool
	logger      logrus.FieldLogger
}

// insightFaceDetection represents a single detected face
type insightFaceDetection struct {
	FaceIndex int       `json:"face_index"`
	BBox      []float64 `json:"bbox"` // [x1, y1, x2, y2]
	DetScore  float64   `json:"det_score"`
}

// insightFaceResponse represents the response from the face endpoint
type insightFaceResponse struct {
	FacesCount int                    `json:"faces_count"`
	Faces      []insightFaceDetection `json:"faces"`
	Model      string                 `json:"model"`
}

// NewInsightFaceFactory returns a factory that probes the server's health
// endpoint on every run. An unreachable server yields a non-operational
// detector.
func NewInsightFaceFactory(baseURL string, client *http.Client, logger logrus.FieldLogger) Factory {
	if baseURL == "" {
		baseURL = constants.DefaultInsightFaceURL
	}
	if client == nil {
		client = &http.Client{}
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	return func(ctx context.Context, opts Options) (Detector, error) {
		d := &InsightFaceDetector{baseURL: baseURL, client: client, logger: logger}
		if err := d.health(ctx); err != nil {
			logger.WithError(err).WithField("url", baseURL).Warn("face detection server is not healthy")
		} else {
			d.operational = true
		}
		return d, nil
	}
}

func (d *InsightFaceDetector) health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, insightFaceHealthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

func (d *InsightFaceDetector) Name() string {
	return "insightface"
}

func (d *InsightFaceDetector) IsOperational() bool {
	return d.operational
}

func (d *InsightFaceDetector) Detect(ctx context.Context, img image.Image) ([]Face, error) {
	if !d.operational {
		return nil, ErrUnavailable
	}

	imageData, err := raster.EncodeJPEG(img, 95)
	if err != nil {
		return nil, err
	}

	body, err := d.postMultipartImage(ctx, "/embed/face", imageData)
	if err != nil {
		return nil, err
	}

	var faceResp insightFaceResponse
	if err := json.Unmarshal(body, &faceResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	faces := make([]Face, 0, len(faceResp.Faces))
	for _, f := range faceResp.Faces {
		if len(f.BBox) != 4 {
			d.logger.WithField("face_index", f.FaceIndex).Warn("skipping face with malformed bbox")
			continue
		}
		faces = append(faces, Face{
			X:      f.BBox[0],
			Y:      f.BBox[1],
			Width:  f.BBox[2] - f.BBox[0],
			Height: f.BBox[3] - f.BBox[1],
			Score:  f.DetScore,
		})
	}
	return faces, nil
}

// postMultipartImage constructs a multipart form with the image data and posts it to the given endpoint.
func (d *InsightFaceDetector) postMultipartImage(ctx context.Context, endpoint string, imageData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="image.jpg"`)
	h.Set("Content-Type", raster.DetectMIMEType(imageData))
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}

	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+endpoint, &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

// Release closes idle keep-alive connections.
func (d *InsightFaceDetector) Release() error {
	d.client.CloseIdleConnections()
	return nil
}
