// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/brainswarm/brainswarm/internal/render"
	"github.com/brainswarm/brainswarm/internal/store"
	"github.com/brainswarm/brainswarm/web"
)

func TestServe_Page(t *testing.T) {
	env := newTestEnv(t)

	rr, _ := serveResult(env, env.h.Team, httptest.NewRequest(http.MethodGet, "/team", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "<title>Our Team | Brain Swarm</title>") {
		t.Error("page title missing")
	}
}

func TestServe_RedirectWithFlash(t *testing.T) {
	env := newTestEnv(t)

	var flashes []render.Flash
	show := func(r *http.Request) Result {
		flashes = env.renderer.PopFlashes(r)
		return Page{Template: "pages/support", Title: "Support"}
	}

	rr, _ := serveResult(env, func(*http.Request) Result {
		return flashSuccess("/event/list", "Saved.")
	}, httptest.NewRequest(http.MethodPost, "/x", nil))

	if rr.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want 303", rr.Code)
	}
	if loc := rr.Header().Get("Location"); loc != "/event/list" {
		t.Errorf("Location = %q", loc)
	}

	req := httptest.NewRequest(http.MethodGet, "/support", nil)
	for _, c := range rr.Result().Cookies() {
		req.AddCookie(c)
	}
	serveResult(env, show, req)
	if len(flashes) != 1 || flashes[0].Message != "Saved." {
		t.Errorf("flashes = %v", flashes)
	}
}

func TestServe_RedirectUnderBasePath(t *testing.T) {
	env := newTestEnv(t)
	renderer, err := render.New(render.Config{
		TemplatesFS:    web.Templates(),
		StaticFS:       web.Static(),
		SessionManager: env.sm,
		BasePath:       "/site",
	})
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	h := NewHandler(env.db, renderer, env.sm)

	tests := []struct {
		rd   Redirect
		code int
		want string
	}{
		{Redirect{URL: "/blog/list"}, http.StatusSeeOther, "/site/blog/list"},
		{Redirect{URL: "/blog/detail?id=2", Status: http.StatusMovedPermanently}, http.StatusMovedPermanently, "/site/blog/detail?id=2"},
		{Redirect{URL: "https://example.org/x"}, http.StatusSeeOther, "https://example.org/x"},
	}
	for _, tt := range tests {
		rr := httptest.NewRecorder()
		h.Serve(func(*http.Request) Result { return tt.rd }).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
		if rr.Code != tt.code || rr.Header().Get("Location") != tt.want {
			t.Errorf("%s: got %d %q, want %d %q", tt.rd.URL, rr.Code, rr.Header().Get("Location"), tt.code, tt.want)
		}
	}
}

func TestServe_Failure(t *testing.T) {
	env := newTestEnv(t)

	rr, _ := serveResult(env, func(*http.Request) Result {
		return internalError(errors.New("boom"))
	}, httptest.NewRequest(http.MethodGet, "/x", nil))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "boom") {
		t.Error("internal error leaked to the response")
	}
	if !strings.Contains(rr.Body.String(), MsgGenericError) {
		t.Error("generic message missing")
	}

	rr = httptest.NewRecorder()
	env.sm.LoadAndSave(http.HandlerFunc(env.h.NotFound)).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if rr.Code != http.StatusNotFound {
		t.Errorf("NotFound status = %d", rr.Code)
	}
}

func TestParseID(t *testing.T) {
	tests := map[string]struct {
		id int64
		ok bool
	}{
		"12":  {12, true},
		" 3 ": {3, true},
		"0":   {0, false},
		"-4":  {0, false},
		"abc": {0, false},
		"":    {0, false},
		"1e3": {0, false},
	}
	for in, want := range tests {
		id, ok := parseID(in)
		if id != want.id || ok != want.ok {
			t.Errorf("parseID(%q) = %d, %v; want %d, %v", in, id, ok, want.id, want.ok)
		}
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	hh := NewHealthHandler(env.db)

	rr := httptest.NewRecorder()
	hh.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var body HealthStatus
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Status != "ok" {
		t.Errorf("Status = %q", body.Status)
	}

	_ = env.db.Close()
	rr = httptest.NewRecorder()
	hh.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status with closed db = %d, want 503", rr.Code)
	}
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin", true)
	env.createPost(t, store.KindEvent, "One event", "")

	page := mustPage(t, env.h.Dashboard(asUser(httptest.NewRequest(http.MethodGet, "/admin", nil), admin)))
	data := page.Data.(DashboardData)
	if data.EventCount != 1 || data.UserCount != 1 || len(data.LatestEvents) != 1 {
		t.Errorf("DashboardData = %+v", data)
	}
}
