// Package assets holds the images bundled into the binary.
package assets

import (
	_ "embed"
	"fmt"
	"os"
)

//go:embed bsod.png
var bsodPNG []byte

// Source returns the encoded bytes of an overlay image.
type Source func() ([]byte, error)

// Bundled is the overlay shipped with the binary.
func Bundled() Source {
	return func() ([]byte, error) {
		return bsodPNG, nil
	}
}

// BundledBytes returns the raw bundled overlay, used as the placeholder
// shown while no photo has been picked.
func BundledBytes() []byte {
	return bsodPNG
}

// FromFile reads the overlay from disk on every call.
func FromFile(path string) Source {
	return func() ([]byte, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read overlay %s: %w", path, err)
		}
		return data, nil
	}
}
