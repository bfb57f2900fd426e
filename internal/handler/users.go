// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/brainswarm/brainswarm/internal/logging"
	"github.com/brainswarm/brainswarm/internal/middleware"
	"github.com/brainswarm/brainswarm/internal/store"
)

const usersPath = "/admin/users"

// MsgCannotModifySelf is shown when an admin targets their own account.
const MsgCannotModifySelf = "You cannot modify your own account."

// UsersHandler manages accounts from the admin back-office.
type UsersHandler struct {
	*Handler
}

// NewUsersHandler creates a UsersHandler.
func NewUsersHandler(h *Handler) *UsersHandler {
	return &UsersHandler{Handler: h}
}

// UsersData is passed to admin/users.
type UsersData struct {
	Users         []store.UserWithProfile
	CurrentUserID int64
}

// List handles GET /admin/users.
func (h *UsersHandler) List(r *http.Request) Result {
	users, err := h.queries.ListUsersWithProfiles(r.Context())
	if err != nil {
		return internalError(fmt.Errorf("listing users: %w", err))
	}
	return Page{
		Template: "admin/users",
		Title:    "Manage Users",
		Data:     UsersData{Users: users, CurrentUserID: middleware.GetUserID(r)},
	}
}

// Action handles POST /admin/users: toggle_active, toggle_admin or delete.
func (h *UsersHandler) Action(r *http.Request) Result {
	id, ok := formID(r, "user_id")
	if !ok {
		return Redirect{URL: usersPath}
	}
	action := r.PostFormValue("action")
	if action != "toggle_active" && action != "toggle_admin" && action != "delete" {
		return Redirect{URL: usersPath}
	}
	if id == middleware.GetUserID(r) {
		return flashError(usersPath, MsgCannotModifySelf)
	}

	ctx := r.Context()
	target, err := h.queries.GetUserWithProfile(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return flashError(usersPath, "User not found.")
		}
		slog.Error("failed to load user", "error", err, "user_id", id)
		return flashError(usersPath, MsgGenericError)
	}

	audit := logging.Audit(middleware.GetUserID(r), middleware.ClientIP(r))

	switch action {
	case "toggle_active":
		if err := h.queries.SetUserActive(ctx, id, !target.IsActive); err != nil {
			slog.Error("failed to update user status", "error", err, "user_id", id)
			return flashError(usersPath, MsgGenericError)
		}
		slog.Info("user status changed", "user_id", id, "active", !target.IsActive)
		return flashSuccess(usersPath, "User status updated successfully.")

	case "toggle_admin":
		if err := h.queries.SetUserAdmin(ctx, id, !target.IsAdmin); err != nil {
			slog.Error("failed to update admin rights", "error", err, "user_id", id)
			return flashError(usersPath, MsgGenericError)
		}
		slog.Warn("admin rights changed", audit, "target_id", id, "username", target.Username, "admin", !target.IsAdmin)
		return flashSuccess(usersPath, "Admin rights updated successfully.")

	default:
		err := store.RunInTx(ctx, h.db, func(q *store.Queries) error {
			return q.DeleteUser(ctx, id)
		})
		if err != nil {
			slog.Error("failed to delete user", "error", err, "user_id", id)
			return flashError(usersPath, MsgGenericError)
		}
		slog.Warn("user deleted", audit, "target_id", id, "username", target.Username)
		return flashSuccess(usersPath, "User deleted successfully.")
	}
}
