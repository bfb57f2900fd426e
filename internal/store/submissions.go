// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const submissionSelect = `SELECT id, form_type, name, email, subject, phone, message, meeting_purpose,
preferred_date, ip_address, user_agent, submitted_at FROM form_submissions`

func scanSubmission(s scanner) (FormSubmission, error) {
	var f FormSubmission
	err := s.Scan(&f.ID, &f.FormType, &f.Name, &f.Email, &f.Subject, &f.Phone, &f.Message,
		&f.MeetingPurpose, &f.PreferredDate, &f.IPAddress, &f.UserAgent, &f.SubmittedAt)
	return f, err
}

// CreateSubmission stores a form submission and returns it with id and timestamp set.
func (q *Queries) CreateSubmission(ctx context.Context, f FormSubmission) (FormSubmission, error) {
	f.SubmittedAt = now()
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO form_submissions (form_type, name, email, subject, phone, message, meeting_purpose,
		 preferred_date, ip_address, user_agent, submitted_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.FormType, f.Name, f.Email, f.Subject, f.Phone, f.Message, f.MeetingPurpose,
		f.PreferredDate, f.IPAddress, f.UserAgent, f.SubmittedAt)
	if err != nil {
		return FormSubmission{}, err
	}
	f.ID, err = res.LastInsertId()
	return f, err
}

// ListSubmissions returns submissions newest first. An empty formType returns all types.
func (q *Queries) ListSubmissions(ctx context.Context, formType string) ([]FormSubmission, error) {
	if formType == "" {
		return collect(ctx, q.db, scanSubmission, submissionSelect+` ORDER BY submitted_at DESC, id DESC`)
	}
	return collect(ctx, q.db, scanSubmission,
		submissionSelect+` WHERE form_type = ? ORDER BY submitted_at DESC, id DESC`, formType)
}

// ListRecentSubmissions returns at most limit submissions, newest first.
func (q *Queries) ListRecentSubmissions(ctx context.Context, limit int) ([]FormSubmission, error) {
	return collect(ctx, q.db, scanSubmission, submissionSelect+` ORDER BY submitted_at DESC, id DESC LIMIT ?`, limit)
}

// CountSubmissionsByType returns the number of submissions per form type.
func (q *Queries) CountSubmissionsByType(ctx context.Context) (map[string]int64, error) {
	type typeCount struct {
		formType string
		n        int64
	}
	rows, err := collect(ctx, q.db, func(s scanner) (typeCount, error) {
		var tc typeCount
		err := s.Scan(&tc.formType, &tc.n)
		return tc, err
	}, `SELECT form_type, COUNT(*) FROM form_submissions GROUP BY form_type`)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.formType] = r.n
	}
	return counts, nil
}

// CountSubmissions returns the total number of submissions.
func (q *Queries) CountSubmissions(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM form_submissions`).Scan(&n)
	return n, err
}

// CountSubmissionsSince returns the number of submissions at or after since.
func (q *Queries) CountSubmissionsSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM form_submissions WHERE submitted_at >= ?`, since.UTC()).Scan(&n)
	return n, err
}

// DeleteSubmission removes a submission. It returns sql.ErrNoRows when absent.
func (q *Queries) DeleteSubmission(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM form_submissions WHERE id = ?`, id)
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
