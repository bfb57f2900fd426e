// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrInvalidKind is returned for a PostKind outside the known set.
var ErrInvalidKind = errors.New("invalid post kind")

// PostKind selects one of the two post tables.
type PostKind string

// Post kinds.
const (
	KindBlog  PostKind = "blog"
	KindEvent PostKind = "event"
)

// table returns the table name. It is the only value ever interpolated into SQL.
func (k PostKind) table() (string, error) {
	switch k {
	case KindBlog:
		return "blogs", nil
	case KindEvent:
		return "event", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, string(k))
	}
}

// contributorColumn returns the contributors column referencing this kind.
func (k PostKind) contributorColumn() (string, error) {
	switch k {
	case KindBlog:
		return "blog_id", nil
	case KindEvent:
		return "event_id", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, string(k))
	}
}

// Label returns the human-readable name of the kind.
func (k PostKind) Label() string {
	if k == KindBlog {
		return "Blog post"
	}
	return "Event"
}

// Valid reports whether k is a known kind.
func (k PostKind) Valid() bool {
	_, err := k.table()
	return err == nil
}

func postSelect(table string) string {
	return `SELECT t.id, t.title, t.content, t.author_id, u.username, t.image, t.publish_date, t.created_at, t.updated_at
FROM ` + table + ` t LEFT JOIN users u ON u.id = t.author_id`
}

func postScanner(kind PostKind) func(scanner) (Post, error) {
	return func(s scanner) (Post, error) {
		p := Post{Kind: kind}
		err := s.Scan(&p.ID, &p.Title, &p.Content, &p.AuthorID, &p.AuthorUsername,
			&p.Image, &p.PublishDate, &p.CreatedAt, &p.UpdatedAt)
		return p, err
	}
}

// ListPosts returns all posts of a kind, newest publish date first.
func (q *Queries) ListPosts(ctx context.Context, kind PostKind) ([]Post, error) {
	table, err := kind.table()
	if err != nil {
		return nil, err
	}
	return collect(ctx, q.db, postScanner(kind), postSelect(table)+` ORDER BY t.publish_date DESC, t.id DESC`)
}

// ListRecentPosts returns at most limit posts of a kind, newest publish date first.
func (q *Queries) ListRecentPosts(ctx context.Context, kind PostKind, limit int) ([]Post, error) {
	table, err := kind.table()
	if err != nil {
		return nil, err
	}
	return collect(ctx, q.db, postScanner(kind),
		postSelect(table)+` ORDER BY t.publish_date DESC, t.id DESC LIMIT ?`, limit)
}

// ListPostsByCreated returns all posts of a kind, most recently created first.
func (q *Queries) ListPostsByCreated(ctx context.Context, kind PostKind) ([]Post, error) {
	table, err := kind.table()
	if err != nil {
		return nil, err
	}
	return collect(ctx, q.db, postScanner(kind), postSelect(table)+` ORDER BY t.created_at DESC, t.id DESC`)
}

// GetPost returns a post by id. It returns sql.ErrNoRows when absent.
func (q *Queries) GetPost(ctx context.Context, kind PostKind, id int64) (Post, error) {
	table, err := kind.table()
	if err != nil {
		return Post{}, err
	}
	row := q.db.QueryRowContext(ctx, postSelect(table)+` WHERE t.id = ?`, id)
	return postScanner(kind)(row)
}

// PostExists reports whether a post with the id exists.
func (q *Queries) PostExists(ctx context.Context, kind PostKind, id int64) (bool, error) {
	table, err := kind.table()
	if err != nil {
		return false, err
	}
	var n int64
	err = q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table+` WHERE id = ?`, id).Scan(&n)
	return n > 0, err
}

// CreatePostParams holds the columns for a new post.
type CreatePostParams struct {
	Title    string
	Content  string
	AuthorID sql.NullInt64
	Image    string
}

// CreatePost inserts a post published now and returns it.
func (q *Queries) CreatePost(ctx context.Context, kind PostKind, arg CreatePostParams) (Post, error) {
	table, err := kind.table()
	if err != nil {
		return Post{}, err
	}
	ts := now()
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO `+table+` (title, content, author_id, image, publish_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		arg.Title, arg.Content, arg.AuthorID, arg.Image, ts, ts, ts)
	if err != nil {
		return Post{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Post{}, err
	}
	return Post{
		ID:          id,
		Kind:        kind,
		Title:       arg.Title,
		Content:     arg.Content,
		AuthorID:    arg.AuthorID,
		Image:       arg.Image,
		PublishDate: ts,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}, nil
}

// UpdatePostParams holds the editable columns of a post.
type UpdatePostParams struct {
	ID      int64
	Title   string
	Content string
	Image   string
}

// UpdatePost saves title, content and image and bumps updated_at.
func (q *Queries) UpdatePost(ctx context.Context, kind PostKind, arg UpdatePostParams) error {
	table, err := kind.table()
	if err != nil {
		return err
	}
	_, err = q.db.ExecContext(ctx,
		`UPDATE `+table+` SET title = ?, content = ?, image = ?, updated_at = ? WHERE id = ?`,
		arg.Title, arg.Content, arg.Image, now(), arg.ID)
	return err
}

// DeletePostCascade deletes the post's contributors and then the post.
// It returns sql.ErrNoRows when the post does not exist. Run it inside RunInTx.
func (q *Queries) DeletePostCascade(ctx context.Context, kind PostKind, id int64) error {
	table, err := kind.table()
	if err != nil {
		return err
	}
	column, err := kind.contributorColumn()
	if err != nil {
		return err
	}
	if _, err := q.db.ExecContext(ctx, `DELETE FROM contributors WHERE `+column+` = ?`, id); err != nil {
		return fmt.Errorf("deleting contributors: %w", err)
	}
	res, err := q.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", kind, err)
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

// CountPosts returns the number of posts of a kind.
func (q *Queries) CountPosts(ctx context.Context, kind PostKind) (int64, error) {
	table, err := kind.table()
	if err != nil {
		return 0, err
	}
	var n int64
	err = q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+table).Scan(&n)
	return n, err
}

// PostOption is an id/title pair for select inputs.
type PostOption struct {
	ID    int64
	Title string
}

// ListPostOptions returns all posts of a kind ordered by title.
func (q *Queries) ListPostOptions(ctx context.Context, kind PostKind) ([]PostOption, error) {
	table, err := kind.table()
	if err != nil {
		return nil, err
	}
	return collect(ctx, q.db, func(s scanner) (PostOption, error) {
		var o PostOption
		err := s.Scan(&o.ID, &o.Title)
		return o, err
	}, `SELECT id, title FROM `+table+` ORDER BY title`)
}

// ListPostImages returns every non-empty image filename of a kind.
func (q *Queries) ListPostImages(ctx context.Context, kind PostKind) ([]string, error) {
	table, err := kind.table()
	if err != nil {
		return nil, err
	}
	return collect(ctx, q.db, func(s scanner) (string, error) {
		var name string
		err := s.Scan(&name)
		return name, err
	}, `SELECT image FROM `+table+` WHERE image <> ''`)
}
