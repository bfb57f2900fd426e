// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/brainswarm/brainswarm/internal/middleware"
	"github.com/brainswarm/brainswarm/internal/store"
	"github.com/brainswarm/brainswarm/internal/validation"
)

const contributorsPath = "/admin/contributors"

// ContributorsHandler manages contributors from the admin back-office.
type ContributorsHandler struct {
	*Handler
}

// NewContributorsHandler creates a ContributorsHandler.
func NewContributorsHandler(h *Handler) *ContributorsHandler {
	return &ContributorsHandler{Handler: h}
}

// ContributorsData is passed to admin/contributors. Form holds the values
// shown in the add/edit form; IsEdit switches it to update mode.
type ContributorsData struct {
	Contributors []store.Contributor
	Events       []store.PostOption
	Blogs        []store.PostOption
	Form         *store.Contributor
	IsEdit       bool
	Errors       []string
}

// List handles GET /admin/contributors. ?edit=N preloads the form.
func (h *ContributorsHandler) List(r *http.Request) Result {
	var data ContributorsData
	if id, ok := queryID(r, "edit"); ok {
		c, err := h.queries.GetContributor(r.Context(), id)
		switch {
		case err == nil:
			data.Form = &c
			data.IsEdit = true
		case !errors.Is(err, sql.ErrNoRows):
			return internalError(fmt.Errorf("loading contributor: %w", err))
		}
	}
	return h.page(r, data)
}

// page loads the table and post options around data.
func (h *ContributorsHandler) page(r *http.Request, data ContributorsData) Result {
	ctx := r.Context()

	var err error
	if data.Contributors, err = h.queries.ListContributors(ctx); err != nil {
		return internalError(fmt.Errorf("listing contributors: %w", err))
	}
	if data.Events, err = h.queries.ListPostOptions(ctx, store.KindEvent); err != nil {
		return internalError(fmt.Errorf("listing events: %w", err))
	}
	if data.Blogs, err = h.queries.ListPostOptions(ctx, store.KindBlog); err != nil {
		return internalError(fmt.Errorf("listing blogs: %w", err))
	}

	return Page{Template: "admin/contributors", Title: "Manage Contributors", Data: data}
}

// invalid re-renders the form with the submitted values and errs.
func (h *ContributorsHandler) invalid(r *http.Request, id int64, p store.ContributorParams, errs validation.Errors) Result {
	form := &store.Contributor{
		ID:       id,
		Name:     p.Name,
		Email:    p.Email,
		Github:   p.Github,
		Linkedin: p.Linkedin,
		BlogID:   p.BlogID,
		EventID:  p.EventID,
	}
	return h.page(r, ContributorsData{Form: form, IsEdit: id != 0, Errors: errs})
}

// Action handles POST /admin/contributors.
func (h *ContributorsHandler) Action(r *http.Request) Result {
	switch r.PostFormValue("action") {
	case "create":
		return h.create(r)
	case "update":
		return h.update(r)
	case "delete":
		return h.delete(r)
	default:
		return Redirect{URL: contributorsPath}
	}
}

func (h *ContributorsHandler) create(r *http.Request) Result {
	params, errs, err := h.parseContributor(r)
	if err != nil {
		slog.Error("failed to validate contributor", "error", err)
		return flashError(contributorsPath, MsgGenericError)
	}
	if errs.Any() {
		return h.invalid(r, 0, params, errs)
	}

	id, err := h.queries.CreateContributor(r.Context(), params)
	if err != nil {
		slog.Error("failed to create contributor", "error", err)
		return flashError(contributorsPath, MsgGenericError)
	}

	slog.Info("contributor created", "contributor_id", id, "created_by", middleware.GetUserID(r))
	return flashSuccess(contributorsPath, "Contributor added successfully.")
}

func (h *ContributorsHandler) update(r *http.Request) Result {
	id, ok := formID(r, "contributor_id")
	if !ok {
		return Redirect{URL: contributorsPath}
	}

	params, errs, err := h.parseContributor(r)
	if err != nil {
		slog.Error("failed to validate contributor", "error", err)
		return flashError(contributorsPath, MsgGenericError)
	}
	if errs.Any() {
		return h.invalid(r, id, params, errs)
	}

	if err := h.queries.UpdateContributor(r.Context(), id, params); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return flashError(contributorsPath, "Contributor not found.")
		}
		slog.Error("failed to update contributor", "error", err, "contributor_id", id)
		return flashError(contributorsPath, MsgGenericError)
	}

	slog.Info("contributor updated", "contributor_id", id, "updated_by", middleware.GetUserID(r))
	return flashSuccess(contributorsPath, "Contributor updated successfully.")
}

func (h *ContributorsHandler) delete(r *http.Request) Result {
	id, ok := formID(r, "contributor_id")
	if !ok {
		return Redirect{URL: contributorsPath}
	}

	if err := h.queries.DeleteContributor(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return flashError(contributorsPath, "Contributor not found.")
		}
		slog.Error("failed to delete contributor", "error", err, "contributor_id", id)
		return flashError(contributorsPath, MsgGenericError)
	}

	slog.Info("contributor deleted", "contributor_id", id, "deleted_by", middleware.GetUserID(r))
	return flashSuccess(contributorsPath, "Contributor deleted successfully.")
}

// parseContributor reads the contributor fields and collects every
// validation failure in form order. The post reference must exist.
func (h *ContributorsHandler) parseContributor(r *http.Request) (store.ContributorParams, validation.Errors, error) {
	var errs validation.Errors
	p := store.ContributorParams{
		Name:     validation.Sanitize(r.PostFormValue("name")),
		Email:    validation.Sanitize(r.PostFormValue("email")),
		Github:   validation.Sanitize(r.PostFormValue("github")),
		Linkedin: validation.Sanitize(r.PostFormValue("linkedin")),
	}

	if p.Name == "" {
		errs.Add("Name is required.")
	}
	if p.Email != "" {
		if msg := validation.Email(p.Email); msg != "" {
			errs.Add(msg + ".")
		}
	}
	if p.Github != "" {
		if msg := validation.URL(p.Github, "GitHub URL"); msg != "" {
			errs.Add(msg + ".")
		}
	}
	if p.Linkedin != "" {
		if msg := validation.URL(p.Linkedin, "LinkedIn URL"); msg != "" {
			errs.Add(msg + ".")
		}
	}

	kind := store.KindEvent
	if store.PostKind(r.PostFormValue("post_kind")) == store.KindBlog {
		kind = store.KindBlog
	}
	invalid := "Please select a valid event."
	if kind == store.KindBlog {
		invalid = "Please select a valid blog post."
	}

	postID, ok := formID(r, string(kind)+"_id")
	if !ok {
		if kind == store.KindBlog {
			p.BlogID = sql.NullInt64{Valid: true}
		}
		errs.Add(invalid)
		return p, errs, nil
	}
	ref := sql.NullInt64{Int64: postID, Valid: true}
	if kind == store.KindBlog {
		p.BlogID = ref
	} else {
		p.EventID = ref
	}

	exists, err := h.queries.PostExists(r.Context(), kind, postID)
	if err != nil {
		return p, nil, err
	}
	if !exists {
		errs.Add(invalid)
	}
	return p, errs, nil
}
