// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package server assembles the HTTP route table and middleware stack.
package server

import (
	"database/sql"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/brainswarm/brainswarm/internal/config"
	"github.com/brainswarm/brainswarm/internal/handler"
	"github.com/brainswarm/brainswarm/internal/middleware"
	"github.com/brainswarm/brainswarm/internal/render"
	"github.com/brainswarm/brainswarm/internal/store"
	"github.com/brainswarm/brainswarm/internal/upload"
)

const (
	requestTimeout = 30 * time.Second
	staticMaxAge   = 7 * 24 * time.Hour
	uploadsMaxAge  = 24 * time.Hour
)

// Deps holds everything the router needs. Notifier and LoginProtection may be nil.
type Deps struct {
	Config          *config.Config
	DB              *sql.DB
	Sessions        *scs.SessionManager
	Renderer        *render.Renderer
	Uploads         *upload.Store
	StaticFS        fs.FS
	Notifier        handler.SubmissionNotifier
	LoginProtection *middleware.LoginProtection
}

// NewRouter returns the site handler. When Config.BasePath is set every
// route lives below it.
func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	base := strings.TrimRight(cfg.BasePath, "/")

	h := handler.NewHandler(d.DB, d.Renderer, d.Sessions)
	withSession := func(next http.HandlerFunc) http.HandlerFunc {
		return d.Sessions.LoadAndSave(middleware.LoadUser(d.Sessions, d.DB)(next)).ServeHTTP
	}
	notFound := withSession(h.NotFound)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.GetHead)
	r.Use(chimw.Timeout(requestTimeout))
	r.Use(middleware.StripPHPExtension)
	r.Use(middleware.StripTrailingSlash)
	r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.IsDevelopment())))
	r.NotFound(notFound)

	site := chi.NewRouter()
	site.NotFound(notFound)
	site.MethodNotAllowed(withSession(h.MethodNotAllowed))

	// Files and probes skip sessions.
	site.Get("/health", handler.NewHealthHandler(d.DB).Health)
	site.With(middleware.StaticCache(staticMaxAge)).Handle("/static/*", fileServer(base+"/static/", d.StaticFS))
	site.With(middleware.StaticCache(uploadsMaxAge)).Handle("/uploads/*", fileServer(base+"/uploads/", noDirFS{os.DirFS(d.Uploads.Root())}))

	site.Group(func(r chi.Router) {
		r.Use(d.Sessions.LoadAndSave)
		r.Use(middleware.CSRF(middleware.DefaultCSRFConfig([]byte(cfg.SessionSecret), cfg.SiteURL, cfg.IsDevelopment())))
		r.Use(middleware.LoadUser(d.Sessions, d.DB))
		registerRoutes(r, h, d)
	})

	if base == "" {
		r.Mount("/", site)
	} else {
		r.Mount(base, site)
	}
	return r
}

func registerRoutes(r chi.Router, h *handler.Handler, d Deps) {
	cfg := d.Config
	serve := h.Serve
	requireAdmin := middleware.RequireAdmin(d.Renderer)

	forms := handler.NewFormsHandler(h, d.Notifier)
	auth := handler.NewAuthHandler(h, d.LoginProtection, cfg.PasswordMinLength)
	events := handler.NewPostHandler(h, store.KindEvent, d.Uploads, cfg.EventImagesDir)
	blogs := handler.NewPostHandler(h, store.KindBlog, d.Uploads, cfg.BlogImagesDir)
	users := handler.NewUsersHandler(h)
	contributors := handler.NewContributorsHandler(h)

	r.Get("/", serve(forms.Home))
	r.Post("/", serve(forms.HomeSubmit))
	r.Get("/team", serve(h.Team))
	r.Get("/support", serve(h.Support))
	r.Get("/contact", serve(forms.Contact))
	r.Post("/contact", serve(forms.ContactSubmit))
	r.Get("/meeting", serve(forms.Meeting))
	r.Post("/meeting", serve(forms.MeetingSubmit))

	r.Get("/sign-in", serve(auth.SignInForm))
	r.Post("/sign-in", serve(auth.SignIn))
	r.Get("/sign-up", serve(auth.SignUpForm))
	r.Post("/sign-up", serve(auth.SignUp))
	r.With(middleware.RequireLogin(d.Renderer)).Post("/sign-out", serve(auth.SignOut))

	for _, p := range []*handler.PostHandler{events, blogs} {
		registerPostRoutes(r, serve, requireAdmin, p)
	}

	r.Route("/admin", func(r chi.Router) {
		r.Use(requireAdmin)
		r.Get("/", serve(h.Dashboard))
		r.Get("/users", serve(users.List))
		r.Post("/users", serve(users.Action))
		r.Get("/contributors", serve(contributors.List))
		r.Post("/contributors", serve(contributors.Action))
		r.Get("/forms", serve(forms.AdminList))
		r.Post("/forms", serve(forms.AdminAction))
		r.Get("/events", serve(events.AdminList))
		r.Post("/events", serve(events.AdminAction))
		r.Get("/blogs", serve(blogs.AdminList))
		r.Post("/blogs", serve(blogs.AdminAction))
	})
}

func registerPostRoutes(r chi.Router, serve func(handler.ResultFunc) http.HandlerFunc, requireAdmin func(http.Handler) http.Handler, p *handler.PostHandler) {
	prefix := "/" + string(p.Kind())

	// The directory index of the old site listed the posts.
	r.Get(prefix, serve(func(*http.Request) handler.Result {
		return handler.Redirect{URL: prefix + "/list", Status: http.StatusMovedPermanently}
	}))
	r.Get(prefix+"/list", serve(p.List))
	r.Get(prefix+"/detail", serve(p.Detail))
	r.Get(prefix+"/read", serve(p.Read))

	r.Group(func(r chi.Router) {
		r.Use(requireAdmin)
		r.Get(prefix+"/create", serve(p.NewForm))
		r.Post(prefix+"/create", serve(p.Create))
		r.Get(prefix+"/edit", serve(p.EditForm))
		r.Post(prefix+"/edit", serve(p.Update))
		r.Get(prefix+"/delete", serve(p.ConfirmDelete))
		r.Post(prefix+"/delete", serve(p.Delete))
	})
}

// fileServer serves fsys below prefix.
func fileServer(prefix string, fsys fs.FS) http.Handler {
	return http.StripPrefix(prefix, http.FileServerFS(fsys))
}

// noDirFS hides directories so upload folders cannot be listed.
type noDirFS struct {
	fsys fs.FS
}

func (n noDirFS) Open(name string) (fs.File, error) {
	f, err := n.fsys.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}
