// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler provides HTTP handlers for the public site and the admin
// back-office. Handlers return a Result which Handler.Serve writes out.
package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/alexedwards/scs/v2"

	"github.com/brainswarm/brainswarm/internal/middleware"
	"github.com/brainswarm/brainswarm/internal/render"
	"github.com/brainswarm/brainswarm/internal/store"
)

// MsgGenericError is shown when a data access error is hidden from the visitor.
const MsgGenericError = "An error occurred. Please try again."

// Result is the outcome of a request handler.
type Result interface {
	isResult()
}

// Page renders a template. ExtraCSS and ExtraJS name static files linked
// after the shared stylesheets and scripts.
type Page struct {
	Template string
	Title    string
	Data     any
	Status   int
	ExtraCSS []string
	ExtraJS  []string
}

// Redirect sends the client elsewhere, optionally leaving a flash message.
// Site-relative URLs are prefixed with the configured base path.
type Redirect struct {
	URL    string
	Status int
	Flash  render.Flash
}

// Failure renders the error page with the given status.
type Failure struct {
	Status int
	Err    error
}

func (Page) isResult()     {}
func (Redirect) isResult() {}
func (Failure) isResult()  {}

// ResultFunc is a request handler returning a Result.
type ResultFunc func(r *http.Request) Result

// Handler holds the dependencies shared by every handler family.
type Handler struct {
	db       *sql.DB
	queries  *store.Queries
	renderer *render.Renderer
	sessions *scs.SessionManager
}

// NewHandler creates a Handler.
func NewHandler(db *sql.DB, renderer *render.Renderer, sm *scs.SessionManager) *Handler {
	return &Handler{
		db:       db,
		queries:  store.New(db),
		renderer: renderer,
		sessions: sm,
	}
}

// Serve adapts fn to an http.HandlerFunc.
func (h *Handler) Serve(fn ResultFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch res := fn(r).(type) {
		case Page:
			h.writePage(w, r, res)
		case Redirect:
			h.writeRedirect(w, r, res)
		case Failure:
			h.writeFailure(w, r, res)
		default:
			h.writeFailure(w, r, Failure{
				Status: http.StatusInternalServerError,
				Err:    fmt.Errorf("unexpected result %T", res),
			})
		}
	}
}

func (h *Handler) writePage(w http.ResponseWriter, r *http.Request, p Page) {
	data := render.TemplateData{
		Title:    p.Title,
		User:     middleware.GetUser(r),
		IsAdmin:  middleware.IsAdmin(r),
		ExtraCSS: p.ExtraCSS,
		ExtraJS:  p.ExtraJS,
		Data:     p.Data,
	}
	if err := h.renderer.Render(w, r, p.Template, data, p.Status); err != nil {
		slog.Error("render error", "error", err, "template", p.Template)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) writeRedirect(w http.ResponseWriter, r *http.Request, rd Redirect) {
	if rd.Flash.Message != "" {
		h.renderer.SetFlash(r, rd.Flash.Type, rd.Flash.Message)
	}
	target := rd.URL
	if strings.HasPrefix(target, "/") && !strings.HasPrefix(target, "//") {
		target = h.renderer.Path(target)
	}
	status := rd.Status
	if status == 0 {
		status = http.StatusSeeOther
	}
	http.Redirect(w, r, target, status)
}

// ErrorData is passed to the error page.
type ErrorData struct {
	Status  int
	Message string
}

func (h *Handler) writeFailure(w http.ResponseWriter, r *http.Request, f Failure) {
	status := f.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	if f.Err != nil {
		slog.Error("request failed", "error", f.Err, "status", status, "method", r.Method, "path", r.URL.Path)
	}

	data := render.TemplateData{
		Title: http.StatusText(status),
		User:  middleware.GetUser(r),
		Data:  ErrorData{Status: status, Message: errorMessage(status)},
	}
	if err := h.renderer.Render(w, r, "errors/error", data, status); err != nil {
		slog.Error("render error", "error", err, "template", "errors/error")
		http.Error(w, http.StatusText(status), status)
	}
}

func errorMessage(status int) string {
	switch status {
	case http.StatusNotFound:
		return "The page you are looking for does not exist."
	case http.StatusForbidden:
		return "You do not have permission to access this page."
	case http.StatusMethodNotAllowed:
		return "This request method is not allowed here."
	default:
		return MsgGenericError
	}
}

// NotFound renders the 404 page.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.writeFailure(w, r, Failure{Status: http.StatusNotFound})
}

// MethodNotAllowed renders the 405 page.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.writeFailure(w, r, Failure{Status: http.StatusMethodNotAllowed})
}

// flashRedirect returns a 303 redirect carrying a flash message.
func flashRedirect(url, flashType, message string) Redirect {
	return Redirect{URL: url, Flash: render.Flash{Type: flashType, Message: message}}
}

func flashSuccess(url, message string) Redirect {
	return flashRedirect(url, render.FlashSuccess, message)
}

func flashError(url, message string) Redirect {
	return flashRedirect(url, render.FlashError, message)
}

// internalError logs err and returns a 500 Failure.
func internalError(err error) Failure {
	return Failure{Status: http.StatusInternalServerError, Err: err}
}

// parseID parses a positive integer id. It reports false for anything else.
func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryID reads a positive integer id from the URL query.
func queryID(r *http.Request, name string) (int64, bool) {
	return parseID(r.URL.Query().Get(name))
}

// formID reads a positive integer id from the posted form.
func formID(r *http.Request, name string) (int64, bool) {
	return parseID(r.PostFormValue(name))
}

// requireEntity loads an entity and maps sql.ErrNoRows to a flash redirect.
// Other errors become a 500 Failure.
func requireEntity[T any](load func() (T, error), notFound Redirect) (T, Result) {
	v, err := load()
	if err == nil {
		return v, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return v, notFound
	}
	return v, internalError(err)
}
