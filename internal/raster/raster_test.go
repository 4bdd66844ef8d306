package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// Helper functions for creating test images

func createTestImage(width, height int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := range width {
		for y := range height {
			img.Set(x, y, c)
		}
	}
	return img
}

func encodePNG(img image.Image) []byte {
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func encodeJPEG(img image.Image) []byte {
	var buf bytes.Buffer
	jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90})
	return buf.Bytes()
}

func TestDecodeBytes_PNG(t *testing.T) {
	data := encodePNG(createTestImage(12, 8, color.White))

	img, format, err := DecodeBytes(data)
	if err != nil {
		t.Fatalf("DecodeBytes failed: %v", err)
	}
	if format != "png" {
		t.Errorf("expected png, got %s", format)
	}
	if img.Bounds().Dx() != 12 || img.Bounds().Dy() != 8 {
		t.Errorf("expected 12x8, got %v", img.Bounds())
	}
}

func TestDecodeBytes_Garbage(t *testing.T) {
	if _, _, err := DecodeBytes([]byte("definitely not an image")); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestCopy_IsIndependent(t *testing.T) {
	src := createTestImage(4, 4, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	dst := Copy(src)
	dst.Set(0, 0, color.RGBA{R: 255, A: 255})

	if got := src.RGBAAt(0, 0); got != (color.RGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Errorf("source was modified: %v", got)
	}
	if got := dst.RGBAAt(1, 1); got != (color.RGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Errorf("copy has wrong pixel: %v", got)
	}
}

func TestCopy_AnchorsAtOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 15, 10))
	src.Set(5, 5, color.RGBA{G: 255, A: 255})

	dst := Copy(src)

	if dst.Bounds() != image.Rect(0, 0, 10, 5) {
		t.Errorf("expected bounds (0,0)-(10,5), got %v", dst.Bounds())
	}
	if got := dst.RGBAAt(0, 0); got != (color.RGBA{G: 255, A: 255}) {
		t.Errorf("expected top-left pixel to be copied, got %v", got)
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		name       string
		width      int
		height     int
		maxSize    int
		wantWidth  int
		wantHeight int
		wantScale  float64
	}{
		{"no resize needed", 100, 50, 200, 100, 50, 1},
		{"landscape", 2000, 1000, 500, 500, 250, 4},
		{"portrait", 1000, 2000, 500, 250, 500, 4},
		{"disabled", 2000, 1000, 0, 2000, 1000, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, scale := Fit(createTestImage(tt.width, tt.height, color.White), tt.maxSize)
			if img.Bounds().Dx() != tt.wantWidth || img.Bounds().Dy() != tt.wantHeight {
				t.Errorf("expected %dx%d, got %dx%d", tt.wantWidth, tt.wantHeight, img.Bounds().Dx(), img.Bounds().Dy())
			}
			if scale != tt.wantScale {
				t.Errorf("expected scale %v, got %v", tt.wantScale, scale)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	img := createTestImage(10, 10, color.White)

	for _, format := range []string{"png", "jpeg", "jpg", ""} {
		var buf bytes.Buffer
		if err := Encode(&buf, img, format); err != nil {
			t.Errorf("Encode(%q) failed: %v", format, err)
		}
		if buf.Len() == 0 {
			t.Errorf("Encode(%q) wrote nothing", format)
		}
	}

	var buf bytes.Buffer
	if err := Encode(&buf, img, "heic"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestDetectMIMEType(t *testing.T) {
	img := createTestImage(10, 10, color.White)

	tests := []struct {
		name     string
		data     []byte
		expected string
	}{
		{"jpeg", encodeJPEG(img), "image/jpeg"},
		{"png", encodePNG(img), "image/png"},
		{"gif", []byte("GIF89a\x00\x00\x00\x00"), "image/gif"},
		{"webp", []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), "image/webp"},
		{"too short", []byte{0xFF, 0xD8}, "application/octet-stream"},
		{"unknown", []byte("hello world!"), "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectMIMEType(tt.data); got != tt.expected {
				t.Errorf("DetectMIMEType() = %q, want %q", got, tt.expected)
			}
		})
	}
}
