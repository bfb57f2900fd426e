// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"log/slog"
	"net/http"
	"net/url"

	"filippo.io/csrf/gorilla"

	"github.com/brainswarm/brainswarm/internal/logging"
)

// CSRFConfig holds configuration for cross-origin request protection.
// filippo.io/csrf/gorilla checks Fetch metadata and Origin headers, so forms
// carry no token field.
type CSRFConfig struct {
	// AuthKey is passed to csrf.Protect. The session secret is used.
	AuthKey []byte

	// ErrorHandler is called when validation fails. Defaults to a plain 403.
	ErrorHandler http.Handler

	// TrustedOrigins are host[:port] values allowed to post cross-origin.
	TrustedOrigins []string
}

// DefaultCSRFConfig trusts the configured site URL host, and localhost in development.
func DefaultCSRFConfig(authKey []byte, siteURL string, isDev bool) CSRFConfig {
	cfg := CSRFConfig{AuthKey: authKey}

	if u, err := url.Parse(siteURL); err == nil && u.Host != "" {
		cfg.TrustedOrigins = append(cfg.TrustedOrigins, u.Host)
	}
	if isDev {
		cfg.TrustedOrigins = append(cfg.TrustedOrigins, "localhost:8080", "127.0.0.1:8080")
	}
	return cfg
}

// CSRF returns a middleware that rejects cross-origin state-changing requests.
func CSRF(cfg CSRFConfig) func(http.Handler) http.Handler {
	var opts []csrf.Option

	if cfg.ErrorHandler != nil {
		opts = append(opts, csrf.ErrorHandler(cfg.ErrorHandler))
	} else {
		opts = append(opts, csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)))
	}

	if len(cfg.TrustedOrigins) > 0 {
		opts = append(opts, csrf.TrustedOrigins(cfg.TrustedOrigins))
	}

	return csrf.Protect(cfg.AuthKey, opts...)
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	slog.Warn("cross-origin request rejected",
		logging.Audit(GetUserID(r), ClientIP(r)),
		"reason", reason,
		"method", r.Method,
		"path", r.URL.Path,
		"origin", r.Header.Get("Origin"),
		"sec_fetch_site", r.Header.Get("Sec-Fetch-Site"),
	)
	http.Error(w, "Forbidden - cross-origin request rejected", http.StatusForbidden)
}

// SkipCSRF disables the check for the given exact paths.
func SkipCSRF(paths ...string) func(http.Handler) http.Handler {
	skip := make(map[string]bool, len(paths))
	for _, p := range paths {
		skip[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] {
				r = csrf.UnsafeSkipCheck(r)
			}
			next.ServeHTTP(w, r)
		})
	}
}
