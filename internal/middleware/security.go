// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strconv"
	"strings"
)

// SecurityHeadersConfig holds configuration for security headers.
type SecurityHeadersConfig struct {
	// IsDevelopment disables HSTS.
	IsDevelopment bool

	// ContentSecurityPolicy is the CSP header value. Empty disables the header.
	ContentSecurityPolicy string

	// HSTSMaxAge is the Strict-Transport-Security max-age in seconds. 0 disables HSTS.
	HSTSMaxAge int

	// FrameOptions is the X-Frame-Options value, e.g. "SAMEORIGIN".
	FrameOptions string

	// ReferrerPolicy is the Referrer-Policy value.
	ReferrerPolicy string
}

// cdnHosts are the origins the layout loads Bootstrap, jQuery and icon fonts from.
var cdnHosts = []string{
	"https://cdn.jsdelivr.net",
	"https://code.jquery.com",
	"https://cdnjs.cloudflare.com",
}

// DefaultSecurityHeadersConfig returns the headers used by the site.
func DefaultSecurityHeadersConfig(isDev bool) SecurityHeadersConfig {
	cdn := strings.Join(cdnHosts, " ")
	return SecurityHeadersConfig{
		IsDevelopment: isDev,
		ContentSecurityPolicy: buildCSP([][2]string{
			{"default-src", "'self'"},
			{"script-src", "'self' " + cdn},
			{"style-src", "'self' 'unsafe-inline' https://fonts.googleapis.com " + cdn},
			{"img-src", "'self' data: https:"},
			{"font-src", "'self' data: https://fonts.gstatic.com " + cdn},
			{"media-src", "'self'"},
			{"object-src", "'none'"},
			{"base-uri", "'self'"},
			{"form-action", "'self'"},
		}),
		HSTSMaxAge:     31536000,
		FrameOptions:   "SAMEORIGIN",
		ReferrerPolicy: "strict-origin-when-cross-origin",
	}
}

func buildCSP(directives [][2]string) string {
	parts := make([]string, 0, len(directives))
	for _, d := range directives {
		parts = append(parts, d[0]+" "+d[1])
	}
	return strings.Join(parts, "; ")
}

// SecurityHeaders returns a middleware that adds security headers to responses.
func SecurityHeaders(cfg SecurityHeadersConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if cfg.ContentSecurityPolicy != "" {
				h.Set("Content-Security-Policy", cfg.ContentSecurityPolicy)
			}
			if !cfg.IsDevelopment && cfg.HSTSMaxAge > 0 {
				h.Set("Strict-Transport-Security", "max-age="+strconv.Itoa(cfg.HSTSMaxAge)+"; includeSubDomains")
			}
			if cfg.FrameOptions != "" {
				h.Set("X-Frame-Options", cfg.FrameOptions)
			}
			h.Set("X-Content-Type-Options", "nosniff")
			if cfg.ReferrerPolicy != "" {
				h.Set("Referrer-Policy", cfg.ReferrerPolicy)
			}
			next.ServeHTTP(w, r)
		})
	}
}
