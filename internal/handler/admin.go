// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/brainswarm/brainswarm/internal/store"
)

// Dashboard list sizes.
const (
	dashboardRecentLimit = 5
	dashboardWindow      = 7 * 24 * time.Hour
)

// DashboardData is passed to admin/dashboard.
type DashboardData struct {
	EventCount        int64
	BlogCount         int64
	UserCount         int64
	SubmissionCount   int64
	RecentSubmissions int64
	LatestEvents      []store.Post
	LatestSubmissions []store.FormSubmission
	AuditEntries      []store.AuditEntry
}

// Dashboard handles GET /admin.
func (h *Handler) Dashboard(r *http.Request) Result {
	ctx := r.Context()
	var (
		data DashboardData
		err  error
	)

	if data.EventCount, err = h.queries.CountPosts(ctx, store.KindEvent); err != nil {
		return internalError(fmt.Errorf("counting events: %w", err))
	}
	if data.BlogCount, err = h.queries.CountPosts(ctx, store.KindBlog); err != nil {
		return internalError(fmt.Errorf("counting blogs: %w", err))
	}
	if data.UserCount, err = h.queries.CountUsers(ctx); err != nil {
		return internalError(fmt.Errorf("counting users: %w", err))
	}
	if data.SubmissionCount, err = h.queries.CountSubmissions(ctx); err != nil {
		return internalError(fmt.Errorf("counting submissions: %w", err))
	}
	since := time.Now().UTC().Add(-dashboardWindow)
	if data.RecentSubmissions, err = h.queries.CountSubmissionsSince(ctx, since); err != nil {
		return internalError(fmt.Errorf("counting recent submissions: %w", err))
	}

	if data.LatestEvents, err = h.queries.ListRecentPosts(ctx, store.KindEvent, dashboardRecentLimit); err != nil {
		return internalError(fmt.Errorf("listing recent events: %w", err))
	}
	if data.LatestSubmissions, err = h.queries.ListRecentSubmissions(ctx, dashboardRecentLimit); err != nil {
		return internalError(fmt.Errorf("listing recent submissions: %w", err))
	}
	if data.AuditEntries, err = h.queries.ListRecentAuditEntries(ctx, dashboardRecentLimit); err != nil {
		return internalError(fmt.Errorf("listing audit entries: %w", err))
	}

	return Page{Template: "admin/dashboard", Title: "Admin Dashboard", Data: data}
}
