// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Detector constants
const (
	// DefaultDetector is the backend used when DETECTOR is not set
	DefaultDetector = "pigo"

	// DefaultInsightFaceURL is the default address of the remote face detection server
	DefaultInsightFaceURL = "http://localhost:8000"

	// DefaultGeminiModel is the Gemini model used for vision face detection
	DefaultGeminiModel = "gemini-2.5-flash"

	// DefaultOpenAIModel is the OpenAI model used for vision face detection
	DefaultOpenAIModel = "gpt-4.1-mini"

	// VisionMaxImageSize is the maximum dimension sent to remote vision models.
	// Returned boxes are scaled back to the original photo coordinates.
	VisionMaxImageSize = 1024
)

// Overlay constants
const (
	// DefaultOverlayOpacity draws the overlay fully opaque
	DefaultOverlayOpacity = 255

	// DefaultInterpolation is the scaler used to fit the overlay into a face box
	DefaultInterpolation = "catmullrom"
)

// Event channel constants
const (
	// EventChannelBuffer is the buffer size for session event listeners
	EventChannelBuffer = 100
)

// Upload constants
const (
	// MaxUploadSize is the largest accepted photo upload (50 MB)
	MaxUploadSize = 50 << 20
)

// Web constants
const (
	// DefaultWebPort is the port used by the serve command
	DefaultWebPort = 8080

	// DefaultWebHost is the host used by the serve command
	DefaultWebHost = "0.0.0.0"
)
