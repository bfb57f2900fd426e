// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package upload

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/brainswarm/brainswarm/internal/imaging"
)

// fileHeader builds a multipart.FileHeader the way net/http would for a form upload.
func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("image", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("writing part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing writer: %v", err)
	}

	r := httptest.NewRequest(http.MethodPost, "/", &body)
	r.Header.Set("Content-Type", w.FormDataContentType())
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		t.Fatalf("ParseMultipartForm: %v", err)
	}
	_, fh, err := r.FormFile("image")
	if err != nil {
		t.Fatalf("FormFile: %v", err)
	}
	return fh
}

func pngData(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 32))
	img.Set(1, 1, color.White)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	n := 0
	_ = filepath.WalkDir(dir, func(_ string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			n++
		}
		return nil
	})
	return n
}

func TestSave_AllowedExtension(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root, nil)

	name, err := s.Save(fileHeader(t, "Photo.JPG", []byte("jpeg-bytes")), "event_images", ImageExtensions)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !strings.HasSuffix(name, ".jpg") {
		t.Errorf("name = %q, want lower-cased .jpg suffix", name)
	}
	if name == "Photo.JPG" {
		t.Error("original filename must not be reused")
	}
	data, err := os.ReadFile(s.Path("event_images", name))
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Errorf("stored content = %q", data)
	}
}

func TestSave_UniqueNames(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	a, err := s.Save(fileHeader(t, "a.png", []byte("a")), "blog_images", ImageExtensions)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	b, err := s.Save(fileHeader(t, "a.png", []byte("b")), "blog_images", ImageExtensions)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if a == b {
		t.Errorf("two uploads got the same name %q", a)
	}
}

func TestSave_RejectedExtensionLeavesNoFile(t *testing.T) {
	for _, filename := range []string{"shell.php", "doc.pdf", "noext", "image.png.exe", "x.svg"} {
		t.Run(filename, func(t *testing.T) {
			root := t.TempDir()
			s := NewStore(root, nil)

			_, err := s.Save(fileHeader(t, filename, []byte("data")), "event_images", ImageExtensions)
			if !errors.Is(err, ErrInvalidType) {
				t.Fatalf("Save error = %v, want ErrInvalidType", err)
			}
			if got := Message(err); got != "Invalid file type" {
				t.Errorf("Message = %q", got)
			}
			if n := countFiles(t, root); n != 0 {
				t.Errorf("%d files left on disk", n)
			}
		})
	}
}

func TestSave_NilHeader(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	_, err := s.Save(nil, "event_images", ImageExtensions)
	if !errors.Is(err, ErrUploadFailed) {
		t.Errorf("Save(nil) error = %v, want ErrUploadFailed", err)
	}
	if got := Message(err); got != "Upload failed" {
		t.Errorf("Message = %q", got)
	}
}

func TestSave_WithThumbnails(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root, &imaging.Thumbnailer{Width: 16, Height: 16, Quality: 80})

	name, err := s.Save(fileHeader(t, "pic.png", pngData(t)), "blog_images", ImageExtensions)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(s.ThumbPath("blog_images", name)); err != nil {
		t.Errorf("thumbnail missing: %v", err)
	}

	if err := s.Remove("blog_images", name); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if n := countFiles(t, root); n != 0 {
		t.Errorf("%d files left after Remove", n)
	}
}

func TestSave_UndecodableImageRejected(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root, imaging.NewThumbnailer())

	_, err := s.Save(fileHeader(t, "fake.png", []byte("not really a png")), "blog_images", ImageExtensions)
	if !errors.Is(err, ErrInvalidType) {
		t.Fatalf("Save error = %v, want ErrInvalidType", err)
	}
	if n := countFiles(t, root); n != 0 {
		t.Errorf("%d files left on disk", n)
	}
}

func TestSave_OversizedDimensionsRejected(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root, imaging.NewThumbnailer())

	// A small PNG whose header claims 30000x30000 pixels.
	data := pngData(t)
	binary.BigEndian.PutUint32(data[16:20], 30000)
	binary.BigEndian.PutUint32(data[20:24], 30000)
	binary.BigEndian.PutUint32(data[29:33], crc32.ChecksumIEEE(data[12:29]))

	_, err := s.Save(fileHeader(t, "bomb.png", data), "blog_images", ImageExtensions)
	if !errors.Is(err, ErrUploadFailed) {
		t.Fatalf("Save error = %v, want ErrUploadFailed", err)
	}
	if n := countFiles(t, root); n != 0 {
		t.Errorf("%d files left on disk", n)
	}
}

func TestRemove_MissingFileIgnored(t *testing.T) {
	s := NewStore(t.TempDir(), nil)
	if err := s.Remove("event_images", "gone.png"); err != nil {
		t.Errorf("Remove(missing) = %v", err)
	}
	if err := s.Remove("event_images", ""); err != nil {
		t.Errorf("Remove(empty) = %v", err)
	}
}

func TestPath_StripsDirectories(t *testing.T) {
	s := NewStore("/srv/uploads", nil)
	if got := s.Path("event_images", "../../etc/passwd"); got != filepath.Join("/srv/uploads", "event_images", "passwd") {
		t.Errorf("Path = %q", got)
	}
}
