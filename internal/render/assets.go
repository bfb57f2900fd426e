// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"io/fs"
	"strings"
)

// DefaultCDN maps asset keys to their CDN URLs.
var DefaultCDN = map[string]string{
	"bootstrap_css":   "https://cdn.jsdelivr.net/npm/bootstrap@5.3.2/dist/css/bootstrap.min.css",
	"bootstrap_js":    "https://cdn.jsdelivr.net/npm/bootstrap@5.3.2/dist/js/bootstrap.bundle.min.js",
	"jquery":          "https://code.jquery.com/jquery-3.7.1.min.js",
	"fontawesome":     "https://cdnjs.cloudflare.com/ajax/libs/font-awesome/6.4.0/css/all.min.css",
	"bootstrap_icons": "https://cdn.jsdelivr.net/npm/bootstrap-icons@1.11.0/font/bootstrap-icons.css",
}

// Assets resolves static asset URLs, preferring local files over the CDN.
type Assets struct {
	fsys fs.FS
	cdn  map[string]string
}

// NewAssets returns an Assets resolving against fsys. A nil fsys has no local files.
func NewAssets(fsys fs.FS, cdn map[string]string) *Assets {
	return &Assets{fsys: fsys, cdn: cdn}
}

// URL returns the local URL of the asset when it exists, else the CDN URL
// for cdnKey, else the local URL unresolved so a missing file shows up in
// the browser console.
func (a *Assets) URL(baseURL, local, cdnKey string) string {
	local = strings.TrimPrefix(local, "/")
	localURL := baseURL + "/static/" + local

	if a.fsys != nil {
		if info, err := fs.Stat(a.fsys, local); err == nil && !info.IsDir() {
			return localURL
		}
	}
	if cdnURL, ok := a.cdn[cdnKey]; ok && cdnURL != "" {
		return cdnURL
	}
	return localURL
}
