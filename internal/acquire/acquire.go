// Package acquire loads the photo the user picked (a file or an upload) or
// captured (a snapshot fetched from a camera URL).
package acquire

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"os"
	"slices"
	"time"

	"github.com/kozaktomas/face-overlay/internal/constants"
	"github.com/kozaktomas/face-overlay/internal/raster"
)

// ErrCannotOpenPhoto wraps every acquisition failure.
var ErrCannotOpenPhoto = errors.New("cannot open photo")

// ErrTooLarge is returned for photos above constants.MaxUploadSize.
var ErrTooLarge = errors.New("photo is too large")

// ErrUnknownCamera is returned when a capture names a URL that is not one of
// the configured cameras.
var ErrUnknownCamera = errors.New("camera is not configured")

const captureTimeout = 30 * time.Second

// Photo is a decoded photo with the format it was stored in.
type Photo struct {
	Image  image.Image
	Format string
}

// FromFile opens and decodes a photo from disk.
func FromFile(path string) (*Photo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCannotOpenPhoto, err)
	}
	defer f.Close()

	return FromReader(f)
}

// FromReader decodes a photo from r, reading at most constants.MaxUploadSize
// bytes.
func FromReader(r io.Reader) (*Photo, error) {
	data, err := io.ReadAll(io.LimitReader(r, constants.MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read photo: %w", ErrCannotOpenPhoto, err)
	}
	if len(data) > constants.MaxUploadSize {
		return nil, fmt.Errorf("%w: %w", ErrCannotOpenPhoto, ErrTooLarge)
	}

	img, format, err := raster.DecodeBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCannotOpenPhoto, err)
	}
	return &Photo{Image: img, Format: format}, nil
}

// Camera fetches still snapshots from HTTP camera endpoints.
type Camera struct {
	client *http.Client
	urls   []string
}

// NewCamera returns a camera client for the given snapshot URLs. A nil client
// gets a default one with a capture timeout.
func NewCamera(client *http.Client, urls ...string) *Camera {
	if client == nil {
		client = &http.Client{Timeout: captureTimeout}
	}
	return &Camera{client: client, urls: urls}
}

// Resolve maps a requested snapshot URL to a configured one. An empty request
// picks the first configured camera.
func (c *Camera) Resolve(requested string) (string, error) {
	if len(c.urls) == 0 {
		return "", ErrUnknownCamera
	}
	if requested == "" {
		return c.urls[0], nil
	}
	if slices.Contains(c.urls, requested) {
		return requested, nil
	}
	return "", ErrUnknownCamera
}

// Capture downloads and decodes one snapshot from url.
func (c *Camera) Capture(ctx context.Context, url string) (*Photo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrCannotOpenPhoto, err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %w", ErrCannotOpenPhoto, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))
		return nil, fmt.Errorf("%w: camera returned status %d", ErrCannotOpenPhoto, resp.StatusCode)
	}

	return FromReader(resp.Body)
}

// FromURL captures a snapshot with a default camera client.
func FromURL(ctx context.Context, url string) (*Photo, error) {
	return NewCamera(nil).Capture(ctx, url)
}
