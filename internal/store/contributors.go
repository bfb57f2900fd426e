// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
)

const contributorSelect = `SELECT c.id, c.name, c.email, c.github, c.linkedin, c.blog_id, c.event_id,
COALESCE(e.title, b.title), c.created_at
FROM contributors c
LEFT JOIN event e ON e.id = c.event_id
LEFT JOIN blogs b ON b.id = c.blog_id`

func scanContributor(s scanner) (Contributor, error) {
	var c Contributor
	err := s.Scan(&c.ID, &c.Name, &c.Email, &c.Github, &c.Linkedin, &c.BlogID, &c.EventID,
		&c.PostTitle, &c.CreatedAt)
	return c, err
}

// ListContributors returns all contributors with their post titles, newest first.
func (q *Queries) ListContributors(ctx context.Context) ([]Contributor, error) {
	return collect(ctx, q.db, scanContributor, contributorSelect+` ORDER BY c.created_at DESC, c.id DESC`)
}

// ListContributorsForPost returns the contributors of one post ordered by name.
func (q *Queries) ListContributorsForPost(ctx context.Context, kind PostKind, postID int64) ([]Contributor, error) {
	column, err := kind.contributorColumn()
	if err != nil {
		return nil, err
	}
	return collect(ctx, q.db, scanContributor, contributorSelect+` WHERE c.`+column+` = ? ORDER BY c.name`, postID)
}

// GetContributor returns a contributor by id.
func (q *Queries) GetContributor(ctx context.Context, id int64) (Contributor, error) {
	return scanContributor(q.db.QueryRowContext(ctx, contributorSelect+` WHERE c.id = ?`, id))
}

// ContributorParams holds the editable columns of a contributor.
// Exactly one of BlogID and EventID must be valid.
type ContributorParams struct {
	Name     string
	Email    string
	Github   string
	Linkedin string
	BlogID   sql.NullInt64
	EventID  sql.NullInt64
}

// CreateContributor inserts a contributor and returns its id.
func (q *Queries) CreateContributor(ctx context.Context, arg ContributorParams) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO contributors (name, email, github, linkedin, blog_id, event_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		arg.Name, arg.Email, arg.Github, arg.Linkedin, arg.BlogID, arg.EventID, now())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpdateContributor saves a contributor. It returns sql.ErrNoRows when absent.
func (q *Queries) UpdateContributor(ctx context.Context, id int64, arg ContributorParams) error {
	if _, err := q.GetContributor(ctx, id); err != nil {
		return err
	}
	_, err := q.db.ExecContext(ctx,
		`UPDATE contributors SET name = ?, email = ?, github = ?, linkedin = ?, blog_id = ?, event_id = ? WHERE id = ?`,
		arg.Name, arg.Email, arg.Github, arg.Linkedin, arg.BlogID, arg.EventID, id)
	return err
}

// DeleteContributor removes a contributor. It returns sql.ErrNoRows when absent.
func (q *Queries) DeleteContributor(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM contributors WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
