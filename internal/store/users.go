// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const userColumns = `u.id, u.username, u.email, u.password, u.is_active, u.is_superuser, u.is_staff, u.date_joined, u.last_login`

func scanUser(s scanner) (User, error) {
	var u User
	err := s.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsActive,
		&u.IsSuperuser, &u.IsStaff, &u.DateJoined, &u.LastLogin)
	return u, err
}

func scanUserWithProfile(s scanner) (UserWithProfile, error) {
	var (
		u         UserWithProfile
		profileID *int64
		fullName  *string
		picture   *string
		isAdmin   *bool
	)
	err := s.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsActive,
		&u.IsSuperuser, &u.IsStaff, &u.DateJoined, &u.LastLogin,
		&profileID, &fullName, &picture, &isAdmin)
	if err != nil {
		return u, err
	}
	u.HasProfile = profileID != nil
	if fullName != nil {
		u.FullName = *fullName
	}
	if picture != nil {
		u.ProfilePicture = *picture
	}
	if isAdmin != nil {
		u.IsAdmin = *isAdmin
	}
	return u, nil
}

const userWithProfileSelect = `SELECT ` + userColumns + `, p.id, p.full_name, p.profile_picture, p.is_admin
FROM users u LEFT JOIN profiles p ON p.user_id = u.id`

// GetUserByID returns a user by id.
func (q *Queries) GetUserByID(ctx context.Context, id int64) (User, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users u WHERE u.id = ?`, id)
	return scanUser(row)
}

// GetUserWithProfile returns a user joined with its profile.
func (q *Queries) GetUserWithProfile(ctx context.Context, id int64) (UserWithProfile, error) {
	row := q.db.QueryRowContext(ctx, userWithProfileSelect+` WHERE u.id = ?`, id)
	return scanUserWithProfile(row)
}

// GetActiveUserByUsername returns an active user for sign-in.
func (q *Queries) GetActiveUserByUsername(ctx context.Context, username string) (User, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users u WHERE u.username = ? AND u.is_active = 1`, username)
	return scanUser(row)
}

// UsernameOrEmailExists reports whether either value is already taken.
func (q *Queries) UsernameOrEmailExists(ctx context.Context, username, email string) (bool, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE username = ? OR email = ?`, username, email).Scan(&n)
	return n > 0, err
}

// CreateUserParams holds the columns for a new user.
type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
	IsActive     bool
	IsSuperuser  bool
	IsStaff      bool
}

// CreateUser inserts a user and returns it.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	joined := now()
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password, is_active, is_superuser, is_staff, date_joined)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		arg.Username, arg.Email, arg.PasswordHash, arg.IsActive, arg.IsSuperuser, arg.IsStaff, joined)
	if err != nil {
		return User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, err
	}
	return User{
		ID:           id,
		Username:     arg.Username,
		Email:        arg.Email,
		PasswordHash: arg.PasswordHash,
		IsActive:     arg.IsActive,
		IsSuperuser:  arg.IsSuperuser,
		IsStaff:      arg.IsStaff,
		DateJoined:   joined,
	}, nil
}

// CreateProfileParams holds the columns for a new profile.
type CreateProfileParams struct {
	UserID   int64
	FullName string
	IsAdmin  bool
}

// CreateProfile inserts the profile row of a user.
func (q *Queries) CreateProfile(ctx context.Context, arg CreateProfileParams) (Profile, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, full_name, profile_picture, is_admin) VALUES (?, ?, '', ?)`,
		arg.UserID, arg.FullName, arg.IsAdmin)
	if err != nil {
		return Profile{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Profile{}, err
	}
	return Profile{ID: id, UserID: arg.UserID, FullName: arg.FullName, IsAdmin: arg.IsAdmin}, nil
}

// UpdateLastLogin records a successful sign-in.
func (q *Queries) UpdateLastLogin(ctx context.Context, id int64, at time.Time) error {
	_, err := q.db.ExecContext(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, at.UTC(), id)
	return err
}

// UpdatePasswordHash replaces a user's password hash.
func (q *Queries) UpdatePasswordHash(ctx context.Context, id int64, hash string) error {
	_, err := q.db.ExecContext(ctx, `UPDATE users SET password = ? WHERE id = ?`, hash, id)
	return err
}

// ListUsersWithProfiles returns all users, newest first.
func (q *Queries) ListUsersWithProfiles(ctx context.Context) ([]UserWithProfile, error) {
	return collect(ctx, q.db, scanUserWithProfile, userWithProfileSelect+` ORDER BY u.date_joined DESC, u.id DESC`)
}

// SetUserActive sets the is_active flag.
func (q *Queries) SetUserActive(ctx context.Context, id int64, active bool) error {
	_, err := q.db.ExecContext(ctx, `UPDATE users SET is_active = ? WHERE id = ?`, active, id)
	return err
}

// SetUserAdmin sets profile.is_admin, creating the profile when the user has none.
func (q *Queries) SetUserAdmin(ctx context.Context, userID int64, admin bool) error {
	var n int64
	if err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM profiles WHERE user_id = ?`, userID).Scan(&n); err != nil {
		return err
	}
	if n == 0 {
		_, err := q.CreateProfile(ctx, CreateProfileParams{UserID: userID, IsAdmin: admin})
		return err
	}
	_, err := q.db.ExecContext(ctx, `UPDATE profiles SET is_admin = ? WHERE user_id = ?`, admin, userID)
	return err
}

// DeleteUser removes a user and its profile and orphans the user's posts.
// Run it inside RunInTx so the statements apply together.
func (q *Queries) DeleteUser(ctx context.Context, id int64) error {
	stmts := []string{
		`DELETE FROM profiles WHERE user_id = ?`,
		`UPDATE blogs SET author_id = NULL WHERE author_id = ?`,
		`UPDATE event SET author_id = NULL WHERE author_id = ?`,
		`DELETE FROM users WHERE id = ?`,
	}
	for _, stmt := range stmts {
		if _, err := q.db.ExecContext(ctx, stmt, id); err != nil {
			return err
		}
	}
	return nil
}

// CountUsers returns the number of users.
func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n)
	return n, err
}
