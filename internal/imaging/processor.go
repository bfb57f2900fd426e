// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging decodes uploaded post images and writes list thumbnails.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder
)

// Decode errors.
var (
	// ErrUnsupportedFormat is returned when data is not a JPEG, PNG, GIF or WebP image.
	ErrUnsupportedFormat = errors.New("unsupported image format")
	// ErrImageTooLarge is returned when the declared dimensions exceed MaxPixels.
	ErrImageTooLarge = errors.New("image dimensions too large")
)

// MaxPixels caps width*height of a decoded image.
const MaxPixels = 40_000_000

// Default thumbnail box for list cards.
const (
	ThumbWidth   = 400
	ThumbHeight  = 250
	ThumbQuality = 82
)

// Thumbnailer writes cropped thumbnails of uploaded images.
type Thumbnailer struct {
	Width   int
	Height  int
	Quality int
}

// NewThumbnailer returns a Thumbnailer with the default list card size.
func NewThumbnailer() *Thumbnailer {
	return &Thumbnailer{Width: ThumbWidth, Height: ThumbHeight, Quality: ThumbQuality}
}

// Decode checks that data is a supported image and returns it upright.
func Decode(data []byte) (image.Image, error) {
	if detectFormat(data) == "" {
		return nil, ErrUnsupportedFormat
	}
	// The header is checked first so a small file cannot claim a huge canvas.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	return applyOrientation(img, readExifOrientation(bytes.NewReader(data))), nil
}

// Write decodes src and writes a center-cropped thumbnail to dst.
// The output format follows the extension of dst; WebP is written as JPEG data.
func (t *Thumbnailer) Write(src []byte, dst string) error {
	img, err := Decode(src)
	if err != nil {
		return err
	}

	thumb := imaging.Fill(img, t.Width, t.Height, imaging.Center, imaging.Lanczos)
	data, err := encodeImage(thumb, detectFormatFromFilename(dst), t.Quality)
	if err != nil {
		return fmt.Errorf("encoding thumbnail: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating thumbnail directory: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("writing thumbnail: %w", err)
	}
	return nil
}

// readExifOrientation reads the EXIF orientation tag from image data.
// Returns 1 (normal) if orientation cannot be determined.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}

	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}

	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}

	return orientation
}

// applyOrientation applies an EXIF orientation (1-8) to an image.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// encodeImage encodes an image in the given format.
func encodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case "png":
		err = png.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default:
		// No pure Go WebP encoder; JPEG covers jpeg and webp.
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality})
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// detectFormat detects the image format from raw bytes.
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	// TIFF is rejected outright (CVE-2023-36308 in disintegration/imaging).
	if strings.Contains(contentType, "tiff") {
		return ""
	}
	switch {
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}

// detectFormatFromFilename extracts the format from a filename extension.
func detectFormatFromFilename(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "png"
	case ".gif":
		return "gif"
	case ".webp":
		return "webp"
	default:
		return "jpeg"
	}
}
