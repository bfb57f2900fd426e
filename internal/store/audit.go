// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
)

// CreateAuditEntryParams holds the columns for an audit entry.
type CreateAuditEntryParams struct {
	Level     string
	Message   string
	UserID    sql.NullInt64
	IPAddress string
	Details   string
}

// CreateAuditEntry persists an audit entry.
func (q *Queries) CreateAuditEntry(ctx context.Context, arg CreateAuditEntryParams) error {
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO audit_log (level, message, user_id, ip_address, details, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		arg.Level, arg.Message, arg.UserID, arg.IPAddress, arg.Details, now())
	return err
}

// ListRecentAuditEntries returns at most limit entries, newest first.
func (q *Queries) ListRecentAuditEntries(ctx context.Context, limit int) ([]AuditEntry, error) {
	return collect(ctx, q.db, func(s scanner) (AuditEntry, error) {
		var e AuditEntry
		err := s.Scan(&e.ID, &e.Level, &e.Message, &e.UserID, &e.IPAddress, &e.Details, &e.CreatedAt)
		return e, err
	}, `SELECT id, level, message, user_id, ip_address, details, created_at
		FROM audit_log ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
}
