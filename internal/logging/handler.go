// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package logging provides a slog handler that persists security-relevant
// records to the audit log.
package logging

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/brainswarm/brainswarm/internal/store"
)

// AuditKey is the attribute group that marks a record for the audit log.
const AuditKey = "audit"

// Audit returns the attribute group that marks a record for the audit log.
// userID may be 0 for anonymous requests.
func Audit(userID int64, ip string) slog.Attr {
	return slog.Group(AuditKey, slog.Int64("user_id", userID), slog.String("ip", ip))
}

// AuditHandler is a slog.Handler that wraps another handler and also writes
// audit-tagged records at or above its level to the audit_log table.
//
// Records must not be emitted while the caller holds an open transaction on
// a single-connection pool.
type AuditHandler struct {
	inner   slog.Handler
	queries *store.Queries
	level   slog.Level
	attrs   []slog.Attr
}

// NewAuditHandler creates an AuditHandler persisting WARN and above.
func NewAuditHandler(inner slog.Handler, db *sql.DB) *AuditHandler {
	return NewAuditHandlerWithLevel(inner, db, slog.LevelWarn)
}

// NewAuditHandlerWithLevel creates an AuditHandler with a custom minimum level.
func NewAuditHandlerWithLevel(inner slog.Handler, db *sql.DB, level slog.Level) *AuditHandler {
	return &AuditHandler{
		inner:   inner,
		queries: store.New(db),
		level:   level,
	}
}

// Enabled implements slog.Handler.
func (h *AuditHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level) || level >= h.level
}

// Handle implements slog.Handler.
func (h *AuditHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.inner.Enabled(ctx, r.Level) {
		if err := h.inner.Handle(ctx, r); err != nil {
			return err
		}
	}

	if r.Level < h.level {
		return nil
	}
	entry, ok := h.entry(r)
	if !ok {
		return nil
	}
	// The request context may already be cancelled.
	if err := h.queries.CreateAuditEntry(context.Background(), entry); err != nil {
		rec := slog.NewRecord(r.Time, slog.LevelError, "writing audit entry failed", 0)
		rec.AddAttrs(slog.Any("error", err))
		_ = h.inner.Handle(ctx, rec)
	}
	return nil
}

// WithAttrs implements slog.Handler.
func (h *AuditHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &AuditHandler{
		inner:   h.inner.WithAttrs(attrs),
		queries: h.queries,
		level:   h.level,
		attrs:   merged,
	}
}

// WithGroup implements slog.Handler.
func (h *AuditHandler) WithGroup(name string) slog.Handler {
	return &AuditHandler{
		inner:   h.inner.WithGroup(name),
		queries: h.queries,
		level:   h.level,
		attrs:   h.attrs,
	}
}

// entry builds the audit entry for r. It reports false when the record
// carries no audit group.
func (h *AuditHandler) entry(r slog.Record) (store.CreateAuditEntryParams, bool) {
	var (
		tagged  bool
		entry   = store.CreateAuditEntryParams{Level: levelName(r.Level), Message: r.Message}
		details = make(map[string]string)
	)

	visit := func(a slog.Attr) {
		if a.Key != AuditKey || a.Value.Kind() != slog.KindGroup {
			details[a.Key] = a.Value.Resolve().String()
			return
		}
		tagged = true
		for _, ga := range a.Value.Group() {
			switch ga.Key {
			case "user_id":
				if id := ga.Value.Int64(); id > 0 {
					entry.UserID = sql.NullInt64{Int64: id, Valid: true}
				}
			case "ip":
				entry.IPAddress = ga.Value.String()
			}
		}
	}

	for _, a := range h.attrs {
		visit(a)
	}
	r.Attrs(func(a slog.Attr) bool {
		visit(a)
		return true
	})
	if !tagged {
		return entry, false
	}

	entry.Details = "{}"
	if len(details) > 0 {
		if b, err := json.Marshal(details); err == nil {
			entry.Details = string(b)
		}
	}
	return entry, true
}

func levelName(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "error"
	case level >= slog.LevelWarn:
		return "warning"
	default:
		return "info"
	}
}
