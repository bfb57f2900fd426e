// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/brainswarm/brainswarm/internal/auth"
)

// AdminParams describes the administrator created by EnsureAdmin.
type AdminParams struct {
	Username string
	Email    string
	Password string
}

// EnsureAdmin creates an administrator account unless the username already
// exists, in which case the existing account is granted admin rights.
func EnsureAdmin(ctx context.Context, db *sql.DB, p AdminParams) error {
	return RunInTx(ctx, db, func(q *Queries) error {
		existing, err := q.GetActiveUserByUsername(ctx, p.Username)
		if err == nil {
			slog.Info("admin user already exists, granting admin", "user_id", existing.ID)
			return q.SetUserAdmin(ctx, existing.ID, true)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("checking for admin user: %w", err)
		}

		hash, err := auth.HashPassword(p.Password)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		user, err := q.CreateUser(ctx, CreateUserParams{
			Username:     p.Username,
			Email:        p.Email,
			PasswordHash: hash,
			IsActive:     true,
			IsSuperuser:  true,
			IsStaff:      true,
		})
		if err != nil {
			return fmt.Errorf("creating admin user: %w", err)
		}
		if _, err := q.CreateProfile(ctx, CreateProfileParams{UserID: user.ID, FullName: p.Username, IsAdmin: true}); err != nil {
			return fmt.Errorf("creating admin profile: %w", err)
		}

		slog.Info("created admin user", "id", user.ID, "username", user.Username)
		return nil
	})
}
