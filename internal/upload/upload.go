// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package upload stores post images under per-kind directories.
package upload

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/brainswarm/brainswarm/internal/imaging"
)

// Upload errors.
var (
	ErrUploadFailed = errors.New("upload failed")
	ErrInvalidType  = errors.New("invalid file type")
)

// Message returns the validation message shown for an upload error.
func Message(err error) string {
	if errors.Is(err, ErrInvalidType) {
		return "Invalid file type"
	}
	return "Upload failed"
}

// ImageExtensions are the extensions accepted for post images.
var ImageExtensions = []string{"jpg", "jpeg", "png", "gif", "webp"}

// MaxImageSize caps a single image upload.
const MaxImageSize = 10 << 20

// ThumbDir is the subdirectory of each image directory holding thumbnails.
const ThumbDir = "thumbs"

// Store writes uploaded files below a root directory.
type Store struct {
	root   string
	thumbs *imaging.Thumbnailer
}

// NewStore returns a Store rooted at root. Thumbnails are written when thumbs is non-nil.
func NewStore(root string, thumbs *imaging.Thumbnailer) *Store {
	return &Store{root: root, thumbs: thumbs}
}

// Root returns the upload root directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the disk path of a stored file.
func (s *Store) Path(dir, name string) string {
	return filepath.Join(s.root, dir, filepath.Base(name))
}

// ThumbPath returns the disk path of a stored file's thumbnail.
func (s *Store) ThumbPath(dir, name string) string {
	return filepath.Join(s.root, dir, ThumbDir, filepath.Base(name))
}

// Extension returns the lower-cased extension of name without the dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// Allowed reports whether ext is in the allowed set.
func Allowed(ext string, allowed []string) bool {
	for _, a := range allowed {
		if ext == a {
			return true
		}
	}
	return false
}

// Save validates fh against allowed, writes it to dir under a generated
// unique name and returns that name. Nothing is left on disk on failure.
func (s *Store) Save(fh *multipart.FileHeader, dir string, allowed []string) (string, error) {
	if fh == nil || fh.Filename == "" {
		return "", ErrUploadFailed
	}
	if fh.Size > MaxImageSize {
		return "", ErrUploadFailed
	}

	ext := Extension(fh.Filename)
	if !Allowed(ext, allowed) {
		return "", ErrInvalidType
	}

	src, err := fh.Open()
	if err != nil {
		slog.Error("failed to open uploaded file", "error", err)
		return "", ErrUploadFailed
	}
	defer func() { _ = src.Close() }()

	data, err := io.ReadAll(io.LimitReader(src, MaxImageSize+1))
	if err != nil || len(data) > MaxImageSize {
		return "", ErrUploadFailed
	}

	if err := os.MkdirAll(filepath.Join(s.root, dir), 0o755); err != nil {
		slog.Error("failed to create upload directory", "error", err, "dir", dir)
		return "", ErrUploadFailed
	}

	name := uuid.New().String() + "." + ext
	path := s.Path(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		slog.Error("failed to write upload", "error", err, "path", path)
		_ = os.Remove(path)
		return "", ErrUploadFailed
	}

	if s.thumbs != nil {
		if err := s.thumbs.Write(data, s.ThumbPath(dir, name)); err != nil {
			_ = s.Remove(dir, name)
			if errors.Is(err, imaging.ErrUnsupportedFormat) {
				return "", ErrInvalidType
			}
			if errors.Is(err, imaging.ErrImageTooLarge) {
				return "", ErrUploadFailed
			}
			slog.Error("failed to write thumbnail", "error", err, "path", path)
			return "", ErrUploadFailed
		}
	}

	return name, nil
}

// Remove deletes a stored file and its thumbnail. Missing files are ignored.
func (s *Store) Remove(dir, name string) error {
	if name == "" {
		return nil
	}
	var errs []error
	for _, p := range []string{s.Path(dir, name), s.ThumbPath(dir, name)} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, fmt.Errorf("removing %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}
