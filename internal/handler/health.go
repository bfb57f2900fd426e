// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// healthTimeout bounds the database ping.
const healthTimeout = 2 * time.Second

// HealthHandler handles health check requests.
type HealthHandler struct {
	db *sql.DB
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(db *sql.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// HealthStatus is the health response body.
type HealthStatus struct {
	Status string `json:"status"`
}

// Health handles GET /health. It answers 503 when the database is unreachable.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	status, code := "ok", http.StatusOK
	if err := h.db.PingContext(ctx); err != nil {
		slog.Error("health check failed", "error", err)
		status, code = "unavailable", http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(HealthStatus{Status: status})
}
