// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package render composes pages from the base layout, the shared partials
// and a page template, and manages read-once flash messages.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"

	"github.com/brainswarm/brainswarm/internal/store"
)

// Flash types, in display order.
const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashInfo    = "info"
	FlashWarning = "warning"
)

var flashTypes = []string{FlashSuccess, FlashError, FlashInfo, FlashWarning}

// Flash is a one-time message shown after navigation.
type Flash struct {
	Type    string
	Message string
}

// CSSClass returns the Bootstrap alert modifier for the flash type.
func (f Flash) CSSClass() string {
	if f.Type == FlashError {
		return "danger"
	}
	return f.Type
}

// flashKey returns the session key for a flash type.
func flashKey(flashType string) string {
	return "flash_" + flashType
}

// TemplateData holds data passed to templates.
type TemplateData struct {
	Title       string
	SiteName    string
	User        *store.UserWithProfile
	IsAdmin     bool
	Flashes     []Flash
	BaseURL     string
	CurrentPath string
	CurrentYear int
	ExtraCSS    []string // static paths, e.g. "css/lightbox.css"
	ExtraJS     []string
	Data        any
}

// Config holds renderer configuration.
type Config struct {
	TemplatesFS    fs.FS
	StaticFS       fs.FS
	SessionManager *scs.SessionManager
	SiteName       string
	SiteURL        string
	BasePath       string
	ImageDirs      map[store.PostKind]string
	CDN            map[string]string
	IsDev          bool
}

// Renderer handles template rendering with caching.
type Renderer struct {
	templates      map[string]*template.Template
	sessionManager *scs.SessionManager
	assets         *Assets
	siteName       string
	siteURL        string
	basePath       string
	imageDirs      map[store.PostKind]string
}

// New creates a new Renderer with parsed templates.
func New(cfg Config) (*Renderer, error) {
	cdn := cfg.CDN
	if cdn == nil {
		cdn = DefaultCDN
	}
	r := &Renderer{
		templates:      make(map[string]*template.Template),
		sessionManager: cfg.SessionManager,
		assets:         NewAssets(cfg.StaticFS, cdn),
		siteName:       cfg.SiteName,
		siteURL:        strings.TrimRight(cfg.SiteURL, "/"),
		basePath:       strings.TrimRight(cfg.BasePath, "/"),
		imageDirs:      cfg.ImageDirs,
	}

	if err := r.parseTemplates(cfg.TemplatesFS); err != nil {
		return nil, err
	}

	return r, nil
}

// parseTemplates parses every page template together with the base layout
// and all partials. A page is named by its directory and base name, e.g.
// "posts/list" for posts/list.html.
func (r *Renderer) parseTemplates(templatesFS fs.FS) error {
	partials, err := fs.Glob(templatesFS, "partials/*.html")
	if err != nil {
		return fmt.Errorf("getting partials: %w", err)
	}

	pages, err := fs.Glob(templatesFS, "*/*.html")
	if err != nil {
		return fmt.Errorf("getting pages: %w", err)
	}

	for _, page := range pages {
		dir := path.Dir(page)
		if dir == "layouts" || dir == "partials" {
			continue
		}
		name := strings.TrimSuffix(page, ".html")

		files := append([]string{"layouts/base.html"}, partials...)
		files = append(files, page)

		tmpl, err := template.New("").Funcs(r.templateFuncs()).ParseFS(templatesFS, files...)
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}
		r.templates[name] = tmpl
	}

	if len(r.templates) == 0 {
		return fmt.Errorf("no page templates found")
	}
	return nil
}

// Has reports whether a page template exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.templates[name]
	return ok
}

// Render renders a page with the given data and status code.
// Pending flash messages are consumed.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, name string, data TemplateData, status int) error {
	tmpl, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %s not found", name)
	}

	data.SiteName = r.siteName
	data.BaseURL = r.BaseURL(req)
	data.CurrentPath = req.URL.Path
	data.CurrentYear = time.Now().Year()
	data.Flashes = append(data.Flashes, r.PopFlashes(req)...)
	if data.Title == "" {
		data.Title = r.siteName
	}

	buf := new(bytes.Buffer)
	if err := tmpl.ExecuteTemplate(buf, "base", data); err != nil {
		return fmt.Errorf("executing template %s: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Debug("writing response", "error", err)
	}
	return nil
}

// SetFlash stores a flash message of the given type in the session.
func (r *Renderer) SetFlash(req *http.Request, flashType, message string) {
	if r.sessionManager == nil || message == "" {
		return
	}
	r.sessionManager.Put(req.Context(), flashKey(flashType), message)
}

// PopFlashes returns and clears every pending flash message.
func (r *Renderer) PopFlashes(req *http.Request) []Flash {
	if r.sessionManager == nil {
		return nil
	}
	var flashes []Flash
	for _, t := range flashTypes {
		if msg := r.sessionManager.PopString(req.Context(), flashKey(t)); msg != "" {
			flashes = append(flashes, Flash{Type: t, Message: msg})
		}
	}
	return flashes
}

// BaseURL returns the absolute URL of the site root for links and assets.
// A configured site URL wins; otherwise scheme and host come from the request.
func (r *Renderer) BaseURL(req *http.Request) string {
	if r.siteURL != "" {
		return r.siteURL + r.basePath
	}
	scheme := "http"
	if req.TLS != nil || strings.EqualFold(req.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	return scheme + "://" + req.Host + r.basePath
}

// Path prefixes a site-relative path with the configured base path.
func (r *Renderer) Path(p string) string {
	if p == "/" && r.basePath != "" {
		return r.basePath
	}
	return r.basePath + p
}
