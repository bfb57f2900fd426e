// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"database/sql"
	"time"
)

// User is an account that can sign in.
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	IsActive     bool
	IsSuperuser  bool
	IsStaff      bool
	DateJoined   time.Time
	LastLogin    sql.NullTime
}

// Profile holds the per-user fields that drive authorization.
type Profile struct {
	ID             int64
	UserID         int64
	FullName       string
	ProfilePicture string
	IsAdmin        bool
}

// UserWithProfile is a user joined with its optional profile.
type UserWithProfile struct {
	User
	HasProfile     bool
	FullName       string
	ProfilePicture string
	IsAdmin        bool
}

// Post is a blog or event post. Both kinds share the same columns.
type Post struct {
	ID             int64
	Kind           PostKind
	Title          string
	Content        string
	AuthorID       sql.NullInt64
	AuthorUsername sql.NullString
	Image          string
	PublishDate    time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// AuthorName returns the author's username, or "deleted" when the author no longer exists.
func (p Post) AuthorName() string {
	if p.AuthorUsername.Valid {
		return p.AuthorUsername.String
	}
	return "deleted"
}

// Contributor is a person credited on exactly one post.
type Contributor struct {
	ID        int64
	Name      string
	Email     string
	Github    string
	Linkedin  string
	BlogID    sql.NullInt64
	EventID   sql.NullInt64
	PostTitle sql.NullString
	CreatedAt time.Time
}

// PostKind returns the kind of post the contributor belongs to.
func (c Contributor) PostKind() PostKind {
	if c.BlogID.Valid {
		return KindBlog
	}
	return KindEvent
}

// PostID returns the id of the owning post.
func (c Contributor) PostID() int64 {
	if c.BlogID.Valid {
		return c.BlogID.Int64
	}
	return c.EventID.Int64
}

// Form submission types.
const (
	FormTypeContact = "contact"
	FormTypeMeeting = "meeting"
	FormTypeHome    = "home"
)

// FormTypes lists the valid form types in display order.
var FormTypes = []string{FormTypeContact, FormTypeMeeting, FormTypeHome}

// FormSubmission is a write-once public form entry.
type FormSubmission struct {
	ID             int64
	FormType       string
	Name           string
	Email          string
	Subject        string
	Phone          string
	Message        string
	MeetingPurpose string
	PreferredDate  string
	IPAddress      string
	UserAgent      string
	SubmittedAt    time.Time
}

// AuditEntry is a persisted security-relevant log record.
type AuditEntry struct {
	ID        int64
	Level     string
	Message   string
	UserID    sql.NullInt64
	IPAddress string
	Details   string
	CreatedAt time.Time
}
