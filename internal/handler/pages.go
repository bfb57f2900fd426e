// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import "net/http"

// Team handles GET /team.
func (h *Handler) Team(_ *http.Request) Result {
	return Page{Template: "pages/team", Title: "Our Team"}
}

// Support handles GET /support.
func (h *Handler) Support(_ *http.Request) Result {
	return Page{Template: "pages/support", Title: "Support"}
}
