// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"context"
	"database/sql"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alexedwards/scs/v2"

	"github.com/brainswarm/brainswarm/internal/imaging"
	"github.com/brainswarm/brainswarm/internal/middleware"
	"github.com/brainswarm/brainswarm/internal/render"
	"github.com/brainswarm/brainswarm/internal/store"
	"github.com/brainswarm/brainswarm/internal/testutil"
	"github.com/brainswarm/brainswarm/internal/upload"
	"github.com/brainswarm/brainswarm/web"
)

const testEventDir = "event_images"

// testEnv bundles a migrated database, a session manager, a renderer and
// an upload store rooted in a temp dir.
type testEnv struct {
	db       *sql.DB
	queries  *store.Queries
	sm       *scs.SessionManager
	renderer *render.Renderer
	uploads  *upload.Store
	root     string
	h        *Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testutil.TestMemoryDB(t)
	sm := scs.New()
	renderer, err := render.New(render.Config{
		TemplatesFS:    web.Templates(),
		StaticFS:       web.Static(),
		SessionManager: sm,
		SiteName:       "Brain Swarm",
		ImageDirs: map[store.PostKind]string{
			store.KindEvent: testEventDir,
			store.KindBlog:  "blog_images",
		},
	})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	root := t.TempDir()
	return &testEnv{
		db:       db,
		queries:  store.New(db),
		sm:       sm,
		renderer: renderer,
		uploads:  upload.NewStore(root, imaging.NewThumbnailer()),
		root:     root,
		h:        NewHandler(db, renderer, sm),
	}
}

func (e *testEnv) eventHandler() *PostHandler {
	return NewPostHandler(e.h, store.KindEvent, e.uploads, testEventDir)
}

// createUser inserts an active user with a profile.
func (e *testEnv) createUser(t *testing.T, username string, admin bool) *store.UserWithProfile {
	t.Helper()
	ctx := context.Background()
	u, err := e.queries.CreateUser(ctx, store.CreateUserParams{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "x",
		IsActive:     true,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if _, err := e.queries.CreateProfile(ctx, store.CreateProfileParams{UserID: u.ID, IsAdmin: admin}); err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	uwp, err := e.queries.GetUserWithProfile(ctx, u.ID)
	if err != nil {
		t.Fatalf("GetUserWithProfile: %v", err)
	}
	return &uwp
}

func (e *testEnv) createPost(t *testing.T, kind store.PostKind, title, image string) store.Post {
	t.Helper()
	p, err := e.queries.CreatePost(context.Background(), kind, store.CreatePostParams{
		Title:   title,
		Content: "Some content for " + title,
		Image:   image,
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	return p
}

// writeUpload places a file in an upload directory as if it had been saved.
func (e *testEnv) writeUpload(t *testing.T, dir, name string) string {
	t.Helper()
	path := e.uploads.Path(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("img"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// postForm builds a urlencoded POST request.
func postForm(target string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "192.0.2.10:4321"
	return req
}

// postMultipart builds a multipart POST request with an optional file under "image".
func postMultipart(t *testing.T, target string, values url.Values, filename string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, vs := range values {
		for _, v := range vs {
			if err := mw.WriteField(k, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("image", filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func asUser(r *http.Request, u *store.UserWithProfile) *http.Request {
	return middleware.WithUser(r, u)
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 40; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 5), G: uint8(y * 5), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

// filesIn lists regular files below dir, recursively.
func filesIn(t *testing.T, dir string) []string {
	t.Helper()
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walking %s: %v", dir, err)
	}
	return files
}

func mustRedirect(t *testing.T, res Result) Redirect {
	t.Helper()
	rd, ok := res.(Redirect)
	if !ok {
		t.Fatalf("result = %#v, want Redirect", res)
	}
	return rd
}

func mustPage(t *testing.T, res Result) Page {
	t.Helper()
	p, ok := res.(Page)
	if !ok {
		t.Fatalf("result = %#v, want Page", res)
	}
	return p
}
