// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package imaging

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// createTestImage creates a simple test image with the given dimensions.
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	return img
}

func pngBytes(t *testing.T, width, height int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, createTestImage(width, height)); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"jpeg magic bytes", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "jpeg"},
		{"png magic bytes", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "png"},
		{"gif magic bytes", []byte{0x47, 0x49, 0x46, 0x38, 0x39, 0x61}, "gif"},
		{"tiff rejected", []byte{0x49, 0x49, 0x2A, 0x00}, ""},
		{"unknown", []byte{0x00, 0x01, 0x02, 0x03}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectFormat(tt.data); got != tt.want {
				t.Errorf("detectFormat() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectFormatFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"image.jpg", "jpeg"},
		{"image.JPEG", "jpeg"},
		{"image.PNG", "png"},
		{"image.gif", "gif"},
		{"image.webp", "webp"},
		{"noextension", "jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := detectFormatFromFilename(tt.filename); got != tt.want {
				t.Errorf("detectFormatFromFilename(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestApplyOrientation(t *testing.T) {
	img := createTestImage(20, 10)
	for orientation := 0; orientation <= 9; orientation++ {
		t.Run("orientation_"+strconv.Itoa(orientation), func(t *testing.T) {
			result := applyOrientation(img, orientation)
			b := result.Bounds()
			rotated := orientation >= 5 && orientation <= 8
			if rotated && (b.Dx() != 10 || b.Dy() != 20) {
				t.Errorf("orientation %d: got %dx%d, want 10x20", orientation, b.Dx(), b.Dy())
			}
			if !rotated && (b.Dx() != 20 || b.Dy() != 10) {
				t.Errorf("orientation %d: got %dx%d, want 20x10", orientation, b.Dx(), b.Dy())
			}
		})
	}
}

func TestDecode_Unsupported(t *testing.T) {
	_, err := Decode([]byte("definitely not an image"))
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Decode error = %v, want ErrUnsupportedFormat", err)
	}
}

// hugePNG returns a valid 1x1 PNG whose header declares width x height.
func hugePNG(t *testing.T, width, height uint32) []byte {
	t.Helper()
	data := pngBytes(t, 1, 1)
	// Signature (8), IHDR length (4) and type (4) precede width and height.
	binary.BigEndian.PutUint32(data[16:20], width)
	binary.BigEndian.PutUint32(data[20:24], height)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))
	return data
}

func TestDecode_RejectsHugeDimensions(t *testing.T) {
	data := hugePNG(t, 50000, 50000)

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("patched header should still parse: %v", err)
	}
	if cfg.Width != 50000 || cfg.Height != 50000 {
		t.Fatalf("header = %dx%d, want 50000x50000", cfg.Width, cfg.Height)
	}

	if _, err := Decode(data); !errors.Is(err, ErrImageTooLarge) {
		t.Errorf("Decode error = %v, want ErrImageTooLarge", err)
	}
}

func TestThumbnailer_WriteRejectsHugeDimensions(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "huge.png")
	if err := NewThumbnailer().Write(hugePNG(t, 20000, 20000), dst); !errors.Is(err, ErrImageTooLarge) {
		t.Fatalf("Write error = %v, want ErrImageTooLarge", err)
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("no file should be written for an oversized image")
	}
}

func TestThumbnailer_Write(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "thumbs", "pic.png")
	th := &Thumbnailer{Width: 40, Height: 25, Quality: 80}

	if err := th.Write(pngBytes(t, 120, 90), dst); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := os.Open(dst)
	if err != nil {
		t.Fatalf("thumbnail not written: %v", err)
	}
	defer func() { _ = f.Close() }()

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("DecodeConfig: %v", err)
	}
	if format != "png" || cfg.Width != 40 || cfg.Height != 25 {
		t.Errorf("thumbnail = %s %dx%d, want png 40x25", format, cfg.Width, cfg.Height)
	}
}

func TestThumbnailer_WriteRejectsGarbage(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "bad.jpg")
	if err := NewThumbnailer().Write([]byte("garbage"), dst); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("no file should be written for invalid input")
	}
}
