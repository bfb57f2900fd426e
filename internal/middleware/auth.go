// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package middleware provides HTTP middleware for authentication,
// authorization, and request context handling.
package middleware

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/alexedwards/scs/v2"

	"github.com/brainswarm/brainswarm/internal/logging"
	"github.com/brainswarm/brainswarm/internal/session"
	"github.com/brainswarm/brainswarm/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyUser holds the signed-in *store.UserWithProfile.
const ContextKeyUser ContextKey = "user"

// Authorization failure messages.
const (
	MsgLoginRequired    = "Please log in to access this page."
	MsgPermissionDenied = "You do not have permission to access this page."
)

// Flasher stores flash messages and resolves site paths.
// *render.Renderer satisfies it.
type Flasher interface {
	SetFlash(r *http.Request, flashType, message string)
	Path(p string) string
}

// LoadUser creates middleware that loads the signed-in user into the request
// context. A session pointing at a missing or inactive user loses its user_id.
func LoadUser(sm *scs.SessionManager, db *sql.DB) func(http.Handler) http.Handler {
	queries := store.New(db)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := sm.GetInt64(r.Context(), session.KeyUserID)
			if userID == 0 {
				next.ServeHTTP(w, r)
				return
			}

			user, err := queries.GetUserWithProfile(r.Context(), userID)
			if err != nil || !user.IsActive {
				if err != nil && !errors.Is(err, sql.ErrNoRows) {
					slog.Error("loading user", "error", err, "user_id", userID)
				}
				sm.Remove(r.Context(), session.KeyUserID)
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyUser, &user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithUser returns a copy of r carrying user as the signed-in user.
func WithUser(r *http.Request, user *store.UserWithProfile) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ContextKeyUser, user))
}

// GetUser retrieves the current user from the request context.
// Returns nil if no user is in context.
func GetUser(r *http.Request) *store.UserWithProfile {
	user, _ := r.Context().Value(ContextKeyUser).(*store.UserWithProfile)
	return user
}

// GetUserID returns the current user's ID from context, or 0 if not found.
func GetUserID(r *http.Request) int64 {
	if user := GetUser(r); user != nil {
		return user.ID
	}
	return 0
}

// IsLoggedIn reports whether a user is signed in.
func IsLoggedIn(r *http.Request) bool {
	return GetUser(r) != nil
}

// IsAdmin reports whether the signed-in user's profile grants admin rights.
func IsAdmin(r *http.Request) bool {
	user := GetUser(r)
	return user != nil && user.IsAdmin
}

// RequireLogin redirects anonymous visitors to the sign-in page.
func RequireLogin(f Flasher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsLoggedIn(r) {
				f.SetFlash(r, "error", MsgLoginRequired)
				http.Redirect(w, r, f.Path("/sign-in"), http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin redirects anonymous visitors to the sign-in page and
// non-admin users to the home page.
func RequireAdmin(f Flasher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := GetUser(r)
			if user == nil {
				f.SetFlash(r, "error", MsgLoginRequired)
				http.Redirect(w, r, f.Path("/sign-in"), http.StatusSeeOther)
				return
			}

			if !user.IsAdmin {
				slog.Warn("access denied",
					logging.Audit(user.ID, ClientIP(r)),
					"method", r.Method,
					"path", r.URL.Path,
				)
				f.SetFlash(r, "error", MsgPermissionDenied)
				http.Redirect(w, r, f.Path("/"), http.StatusSeeOther)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// ClientIP returns the client address without the port. It relies on chi's
// RealIP middleware for proxied requests.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
