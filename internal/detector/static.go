package detector

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
)

// Static is a detector that returns a fixed set of faces. It counts calls so
// tests can verify the acquire/detect/release discipline.
type Static struct {
	Faces       []Face
	Operational bool
	Err         error

	detectCalls  atomic.Int32
	releaseCalls atomic.Int32

	mu       sync.Mutex
	lastSeen image.Image
}

// NewStatic returns an operational detector reporting faces.
func NewStatic(faces ...Face) *Static {
	return &Static{Faces: faces, Operational: true}
}

// NewUnavailable returns a detector that is never operational.
func NewUnavailable() *Static {
	return &Static{}
}

func (s *Static) Name() string {
	return "static"
}

func (s *Static) IsOperational() bool {
	return s.Operational
}

func (s *Static) Detect(ctx context.Context, img image.Image) ([]Face, error) {
	s.detectCalls.Add(1)
	s.mu.Lock()
	s.lastSeen = img
	s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	faces := make([]Face, len(s.Faces))
	copy(faces, s.Faces)
	return faces, nil
}

func (s *Static) Release() error {
	s.releaseCalls.Add(1)
	return nil
}

// DetectCalls returns how many times Detect ran.
func (s *Static) DetectCalls() int {
	return int(s.detectCalls.Load())
}

// ReleaseCalls returns how many times Release ran.
func (s *Static) ReleaseCalls() int {
	return int(s.releaseCalls.Load())
}

// LastImage returns the image passed to the most recent Detect call.
func (s *Static) LastImage() image.Image {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Factory returns a factory that hands out s on every run.
func (s *Static) Factory() Factory {
	return func(ctx context.Context, opts Options) (Detector, error) {
		return s, nil
	}
}
