// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/brainswarm/brainswarm/internal/auth"
	"github.com/brainswarm/brainswarm/internal/logging"
	"github.com/brainswarm/brainswarm/internal/middleware"
	"github.com/brainswarm/brainswarm/internal/session"
	"github.com/brainswarm/brainswarm/internal/store"
	"github.com/brainswarm/brainswarm/internal/validation"
)

// Sign-in and sign-up messages.
const (
	MsgInvalidCredentials = "Invalid username or password."
	MsgPasswordMismatch   = "Passwords do not match."
	MsgAccountExists      = "Username or email already exists."
	MsgAccountCreated     = "Account created successfully! You can now log in."
	MsgSignedOut          = "You have been signed out."
)

// Account field bounds.
const (
	UsernameMinLength = 3
	UsernameMaxLength = 30
	PasswordMaxLength = 128
)

// AuthHandler handles sign-in, sign-up and sign-out.
type AuthHandler struct {
	*Handler
	protection        *middleware.LoginProtection
	passwordMinLength int
}

// NewAuthHandler creates an AuthHandler. protection may be nil.
func NewAuthHandler(h *Handler, protection *middleware.LoginProtection, passwordMinLength int) *AuthHandler {
	return &AuthHandler{
		Handler:           h,
		protection:        protection,
		passwordMinLength: passwordMinLength,
	}
}

// SignInData is passed to auth/sign_in.
type SignInData struct {
	Username string
	Errors   []string
}

// SignUpForm holds the sticky sign-up fields. Passwords are never echoed.
type SignUpForm struct {
	Username string
	Email    string
	FullName string
}

// SignUpData is passed to auth/sign_up.
type SignUpData struct {
	Form              SignUpForm
	Errors            []string
	PasswordMinLength int
}

func signInPage(data SignInData, status int) Page {
	return Page{Template: "auth/sign_in", Title: "Sign In", Data: data, Status: status}
}

// SignInForm handles GET /sign-in.
func (h *AuthHandler) SignInForm(r *http.Request) Result {
	if middleware.IsLoggedIn(r) {
		return Redirect{URL: "/"}
	}
	return signInPage(SignInData{}, http.StatusOK)
}

// SignIn handles POST /sign-in.
func (h *AuthHandler) SignIn(r *http.Request) Result {
	ctx := r.Context()
	ip := middleware.ClientIP(r)

	if h.protection != nil && !h.protection.AllowIP(ip) {
		return signInPage(SignInData{Errors: []string{middleware.MsgTooManyAttempts}}, http.StatusTooManyRequests)
	}

	username := validation.Sanitize(r.PostFormValue("username"))
	password := r.PostFormValue("password")

	var errs validation.Errors
	errs.Add(validation.Required(username, "Username"))
	errs.Add(validation.Required(password, "Password"))
	if errs.Any() {
		return signInPage(SignInData{Username: username, Errors: errs}, http.StatusOK)
	}

	if h.protection != nil {
		if locked, remaining := h.protection.IsAccountLocked(username); locked {
			slog.Warn("sign-in attempt on locked account",
				logging.Audit(0, ip), "username", username, "remaining", remaining.Round(time.Second).String())
			return signInPage(SignInData{Username: username, Errors: []string{middleware.MsgTooManyAttempts}}, http.StatusTooManyRequests)
		}
	}

	user, err := h.queries.GetActiveUserByUsername(ctx, username)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		slog.Error("failed to load user for sign-in", "error", err)
		return signInPage(SignInData{Username: username, Errors: []string{MsgGenericError}}, http.StatusOK)
	}

	valid := false
	if err == nil {
		valid, err = auth.CheckPassword(password, user.PasswordHash)
		if err != nil {
			slog.Error("failed to verify password", "error", err, "user_id", user.ID)
			valid = false
		}
	}

	if !valid {
		slog.Warn("failed sign-in", logging.Audit(0, ip), "username", username)
		if h.protection != nil {
			if locked, _ := h.protection.RecordFailedAttempt(username, ip); locked {
				return signInPage(SignInData{Username: username, Errors: []string{middleware.MsgTooManyAttempts}}, http.StatusTooManyRequests)
			}
		}
		return signInPage(SignInData{Username: username, Errors: []string{MsgInvalidCredentials}}, http.StatusOK)
	}

	if h.protection != nil {
		h.protection.RecordSuccessfulLogin(username)
	}
	h.upgradeHash(ctx, user.ID, password, user.PasswordHash)
	if err := h.queries.UpdateLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		slog.Error("failed to update last login", "error", err, "user_id", user.ID)
	}

	if err := h.sessions.RenewToken(ctx); err != nil {
		return internalError(fmt.Errorf("renewing session token: %w", err))
	}
	h.sessions.Put(ctx, session.KeyUserID, user.ID)

	slog.Info("user signed in", "user_id", user.ID, "username", user.Username, "ip", ip)
	return flashSuccess("/", "Welcome back, "+user.Username+"!")
}

// upgradeHash replaces bcrypt or outdated argon2 hashes after a verified sign-in.
func (h *AuthHandler) upgradeHash(ctx context.Context, userID int64, password, hash string) {
	if !auth.NeedsRehash(hash) {
		return
	}
	newHash, err := auth.HashPassword(password)
	if err != nil {
		slog.Error("failed to rehash password", "error", err, "user_id", userID)
		return
	}
	if err := h.queries.UpdatePasswordHash(ctx, userID, newHash); err != nil {
		slog.Error("failed to store rehashed password", "error", err, "user_id", userID)
	}
}

func (h *AuthHandler) signUpPage(data SignUpData) Page {
	data.PasswordMinLength = h.passwordMinLength
	return Page{Template: "auth/sign_up", Title: "Sign Up", Data: data}
}

// SignUpForm handles GET /sign-up.
func (h *AuthHandler) SignUpForm(r *http.Request) Result {
	if middleware.IsLoggedIn(r) {
		return Redirect{URL: "/"}
	}
	return h.signUpPage(SignUpData{})
}

// SignUp handles POST /sign-up.
func (h *AuthHandler) SignUp(r *http.Request) Result {
	if middleware.IsLoggedIn(r) {
		return Redirect{URL: "/"}
	}
	ctx := r.Context()

	form := SignUpForm{
		Username: validation.Sanitize(r.PostFormValue("username")),
		Email:    validation.Sanitize(r.PostFormValue("email")),
		FullName: validation.Sanitize(r.PostFormValue("full_name")),
	}
	password1 := r.PostFormValue("password1")
	password2 := r.PostFormValue("password2")

	var errs validation.Errors
	errs.Add(validation.Required(form.Username, "Username"))
	errs.Add(validation.Required(form.Email, "Email"))
	if form.Email != "" {
		errs.Add(validation.Email(form.Email))
	}
	errs.Add(validation.Required(password1, "Password"))
	errs.Add(validation.Required(password2, "Confirm Password"))
	if form.Username != "" {
		errs.Add(validation.Length(form.Username, UsernameMinLength, UsernameMaxLength, "Username"))
	}
	if strings.TrimSpace(password1) != "" {
		errs.Add(validation.Length(password1, h.passwordMinLength, PasswordMaxLength, "Password"))
	}
	if password1 != password2 {
		errs.Add(MsgPasswordMismatch)
	}
	if errs.Any() {
		return h.signUpPage(SignUpData{Form: form, Errors: errs})
	}

	exists, err := h.queries.UsernameOrEmailExists(ctx, form.Username, form.Email)
	if err != nil {
		slog.Error("failed to check existing account", "error", err)
		return h.signUpPage(SignUpData{Form: form, Errors: []string{MsgGenericError}})
	}
	if exists {
		return h.signUpPage(SignUpData{Form: form, Errors: []string{MsgAccountExists}})
	}

	hash, err := auth.HashPassword(password1)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		return h.signUpPage(SignUpData{Form: form, Errors: []string{MsgGenericError}})
	}

	var user store.User
	err = store.RunInTx(ctx, h.db, func(q *store.Queries) error {
		var err error
		user, err = q.CreateUser(ctx, store.CreateUserParams{
			Username:     form.Username,
			Email:        form.Email,
			PasswordHash: hash,
			IsActive:     true,
		})
		if err != nil {
			return fmt.Errorf("creating user: %w", err)
		}
		_, err = q.CreateProfile(ctx, store.CreateProfileParams{UserID: user.ID, FullName: form.FullName})
		return err
	})
	if err != nil {
		slog.Error("failed to create account", "error", err, "username", form.Username)
		return h.signUpPage(SignUpData{
			Form:   form,
			Errors: []string{"An error occurred while creating your account. Please try again."},
		})
	}

	slog.Info("account created", "user_id", user.ID, "username", user.Username)
	return flashSuccess("/sign-in", MsgAccountCreated)
}

// SignOut handles POST /sign-out.
func (h *AuthHandler) SignOut(r *http.Request) Result {
	ctx := r.Context()
	userID := middleware.GetUserID(r)

	if err := h.sessions.RenewToken(ctx); err != nil {
		return internalError(fmt.Errorf("renewing session token: %w", err))
	}
	h.sessions.Remove(ctx, session.KeyUserID)

	if userID > 0 {
		slog.Info("user signed out", "user_id", userID)
	}
	return flashSuccess("/", MsgSignedOut)
}
