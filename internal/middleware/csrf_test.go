// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
)

var testCSRFKey = []byte("0123456789abcdef0123456789abcdef")

func TestDefaultCSRFConfig(t *testing.T) {
	cfg := DefaultCSRFConfig(testCSRFKey, "https://brainswarm.example/site", false)
	if !slices.Equal(cfg.TrustedOrigins, []string{"brainswarm.example"}) {
		t.Errorf("TrustedOrigins = %v", cfg.TrustedOrigins)
	}

	cfg = DefaultCSRFConfig(testCSRFKey, "", true)
	if !slices.Contains(cfg.TrustedOrigins, "localhost:8080") {
		t.Errorf("development TrustedOrigins = %v", cfg.TrustedOrigins)
	}
}

func TestCSRF(t *testing.T) {
	h := CSRF(DefaultCSRFConfig(testCSRFKey, "", false))(http.HandlerFunc(okHandler))

	tests := []struct {
		name     string
		method   string
		fetch    string
		wantCode int
	}{
		{"safe method cross-site", http.MethodGet, "cross-site", http.StatusOK},
		{"same-origin post", http.MethodPost, "same-origin", http.StatusOK},
		{"cross-site post", http.MethodPost, "cross-site", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "http://example.com/contact", nil)
			req.Header.Set("Sec-Fetch-Site", tt.fetch)
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			if rr.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantCode)
			}
		})
	}
}

func TestSkipCSRF(t *testing.T) {
	h := SkipCSRF("/health")(CSRF(DefaultCSRFConfig(testCSRFKey, "", false))(http.HandlerFunc(okHandler)))

	req := httptest.NewRequest(http.MethodPost, "http://example.com/health", nil)
	req.Header.Set("Sec-Fetch-Site", "cross-site")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}
}
