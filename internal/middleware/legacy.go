// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"strings"
)

// StripPHPExtension serves legacy ".php" URLs by rewriting the path in place:
// /admin/users.php becomes /admin/users and /event/index.php becomes /event/.
func StripPHPExtension(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if strings.HasSuffix(p, ".php") {
			p = strings.TrimSuffix(p, ".php")
			if p == "/index" || strings.HasSuffix(p, "/index") {
				p = strings.TrimSuffix(p, "index")
			}
			r.URL.Path = p
			r.URL.RawPath = ""
		}
		next.ServeHTTP(w, r)
	})
}

// StripTrailingSlash redirects GET and HEAD requests for URLs with trailing
// slashes to their non-trailing equivalents (HTTP 301). Other methods are
// rewritten in place so form posts keep their body. The root path is left alone.
func StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if p == "/" || !strings.HasSuffix(p, "/") {
			next.ServeHTTP(w, r)
			return
		}

		// A leading "//" or "/\" would make the Location protocol-relative.
		target := "/" + strings.TrimLeft(strings.TrimRight(p, "/"), "/\\")
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			r.URL.Path = target
			r.URL.RawPath = ""
			next.ServeHTTP(w, r)
			return
		}

		if r.URL.RawQuery != "" {
			target += "?" + r.URL.RawQuery
		}
		http.Redirect(w, r, target, http.StatusMovedPermanently)
	})
}
