package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"

	"github.com/kozaktomas/face-overlay/internal/constants"
	"gopkg.in/yaml.v3"
)

//go:embed detector.yaml
var detectorYAML []byte

type Config struct {
	Detector    DetectorConfig
	Pigo        PigoConfig
	InsightFace InsightFaceConfig
	Gemini      GeminiConfig
	OpenAI      OpenAIConfig
	OpenCV      OpenCVConfig
	Vision      VisionConfig
	Overlay     OverlayConfig
	Camera      CameraConfig
	Web         WebConfig
	Language    string // BCP 47 tag for notices when the client sends none (e.g. "cs")
	Debug       bool
}

type DetectorConfig struct {
	Backend string // pigo, insightface, gemini, openai, opencv
}

type PigoConfig struct {
	CascadePath  string  `yaml:"-"`
	MinSize      int     `yaml:"min_size"`
	MaxSize      int     `yaml:"max_size"`
	ShiftFactor  float64 `yaml:"shift_factor"`
	ScaleFactor  float64 `yaml:"scale_factor"`
	IoUThreshold float64 `yaml:"iou_threshold"`
	MinScore     float64 `yaml:"min_score"`
}

type InsightFaceConfig struct {
	URL string // defaults to http://localhost:8000
}

type GeminiConfig struct {
	APIKey string
	Model  string // defaults to gemini-2.5-flash
}

type OpenAIConfig struct {
	Token string
	Model string // defaults to gpt-4.1-mini
}

type OpenCVConfig struct {
	CascadePath string // haarcascade_frontalface_default.xml
}

type VisionConfig struct {
	MinScore float64 `yaml:"min_score"`
}

type OverlayConfig struct {
	Path          string // optional file replacing the bundled overlay
	Opacity       int    // 1-255
	Interpolation string // nearest, bilinear, catmullrom
}

type CameraConfig struct {
	URLs []string // snapshot endpoints the server may capture from; the first is the default
}

type WebConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string // CORS origins besides localhost
}

// detectorDefaults mirrors the layout of detector.yaml.
type detectorDefaults struct {
	Pigo   PigoConfig   `yaml:"pigo"`
	Vision VisionConfig `yaml:"vision"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList splits a comma-separated environment variable, dropping blanks.
func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func envBool(key string) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	return err == nil && b
}

func Load() *Config {
	var defaults detectorDefaults
	if err := yaml.Unmarshal(detectorYAML, &defaults); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded detector.yaml: " + err.Error())
	}

	opacity := envInt("OVERLAY_OPACITY", constants.DefaultOverlayOpacity)
	if opacity > 255 {
		opacity = constants.DefaultOverlayOpacity
	}

	return &Config{
		Detector: DetectorConfig{
			Backend: strings.ToLower(envString("DETECTOR", constants.DefaultDetector)),
		},
		Pigo: PigoConfig{
			CascadePath:  os.Getenv("PIGO_CASCADE_PATH"),
			MinSize:      envInt("PIGO_MIN_SIZE", defaults.Pigo.MinSize),
			MaxSize:      envInt("PIGO_MAX_SIZE", defaults.Pigo.MaxSize),
			ShiftFactor:  envFloat("PIGO_SHIFT_FACTOR", defaults.Pigo.ShiftFactor),
			ScaleFactor:  envFloat("PIGO_SCALE_FACTOR", defaults.Pigo.ScaleFactor),
			IoUThreshold: envFloat("PIGO_IOU_THRESHOLD", defaults.Pigo.IoUThreshold),
			MinScore:     envFloat("PIGO_MIN_SCORE", defaults.Pigo.MinScore),
		},
		InsightFace: InsightFaceConfig{
			URL: envString("INSIGHTFACE_URL", constants.DefaultInsightFaceURL),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
			Model:  envString("GEMINI_MODEL", constants.DefaultGeminiModel),
		},
		OpenAI: OpenAIConfig{
			Token: os.Getenv("OPENAI_TOKEN"),
			Model: envString("OPENAI_MODEL", constants.DefaultOpenAIModel),
		},
		OpenCV: OpenCVConfig{
			CascadePath: os.Getenv("OPENCV_CASCADE_PATH"),
		},
		Vision: VisionConfig{
			MinScore: envFloat("VISION_MIN_SCORE", defaults.Vision.MinScore),
		},
		Overlay: OverlayConfig{
			Path:          os.Getenv("OVERLAY_PATH"),
			Opacity:       opacity,
			Interpolation: strings.ToLower(envString("OVERLAY_INTERPOLATION", constants.DefaultInterpolation)),
		},
		Camera: CameraConfig{
			URLs: envList("CAMERA_URLS"),
		},
		Web: WebConfig{
			Host: envString("WEB_HOST", constants.DefaultWebHost),
			Port: envInt("WEB_PORT", constants.DefaultWebPort),

			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
		},
		Language: os.Getenv("NOTICE_LANGUAGE"),
		Debug:    envBool("LOG_DEBUG"),
	}
}
