package detector

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed prompts/faces.txt
var visionFacesPrompt string

// visionMaxRetries bounds how often a model is asked to fix unparsable JSON.
const visionMaxRetries = 3

// visionResponse is the JSON shape requested from vision models.
type visionResponse struct {
	Faces []struct {
		Box2D      []float64 `json:"box_2d"` // [ymin, xmin, ymax, xmax], 0-1000
		Confidence *float64  `json:"confidence"`
	} `json:"faces"`
}

// parseVisionFaces converts a model answer into faces in pixel coordinates of
// a width x height photo. Boxes below minScore are dropped; a missing
// confidence counts as certain.
func parseVisionFaces(content string, width, height int, minScore float64) ([]Face, error) {
	content = stripCodeFence(content)

	var resp visionResponse
	if err := json.Unmarshal([]byte(content), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse faces JSON: %w", err)
	}

	faces := make([]Face, 0, len(resp.Faces))
	for _, f := range resp.Faces {
		if len(f.Box2D) != 4 {
			continue
		}
		score := 1.0
		if f.Confidence != nil {
			score = *f.Confidence
		}
		if score < minScore {
			continue
		}

		ymin, xmin := clampNormalized(f.Box2D[0]), clampNormalized(f.Box2D[1])
		ymax, xmax := clampNormalized(f.Box2D[2]), clampNormalized(f.Box2D[3])
		if xmax <= xmin || ymax <= ymin {
			continue
		}

		x1 := xmin / 1000 * float64(width)
		y1 := ymin / 1000 * float64(height)
		x2 := xmax / 1000 * float64(width)
		y2 := ymax / 1000 * float64(height)
		faces = append(faces, Face{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1, Score: score})
	}
	return faces, nil
}

func clampNormalized(v float64) float64 {
	return min(max(v, 0), 1000)
}

// stripCodeFence removes a ```json ... ``` wrapper some models add.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
