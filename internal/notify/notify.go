// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package notify e-mails the site administrator about new form submissions.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/brainswarm/brainswarm/internal/store"
)

// ErrNoRecipient indicates no recipient was specified.
var ErrNoRecipient = errors.New("email must have at least one recipient")

// Email is a plain-text message ready for delivery.
type Email struct {
	To      []string
	ReplyTo string
	Subject string
	Text    string
}

// Sender delivers a prepared Email.
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// sendTimeout bounds a single delivery.
const sendTimeout = 30 * time.Second

// Notifier sends submission notifications in the background.
// A nil *Notifier is valid and does nothing.
type Notifier struct {
	sender   Sender
	to       string
	siteName string
	wg       sync.WaitGroup
}

// New returns a Notifier delivering to the admin address.
func New(sender Sender, to, siteName string) *Notifier {
	return &Notifier{sender: sender, to: to, siteName: siteName}
}

// SubmissionReceived queues a notification for f. Failures are logged only.
func (n *Notifier) SubmissionReceived(f store.FormSubmission) {
	if n == nil || n.sender == nil {
		return
	}
	email := n.submissionEmail(f)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		if err := n.send(ctx, email); err != nil {
			slog.Error("sending submission notification", "error", err, "submission_id", f.ID)
		}
	}()
}

// Wait blocks until queued notifications have been sent.
func (n *Notifier) Wait() {
	if n != nil {
		n.wg.Wait()
	}
}

func (n *Notifier) send(ctx context.Context, email *Email) error {
	if len(email.To) == 0 || email.To[0] == "" {
		return ErrNoRecipient
	}
	return n.sender.Send(ctx, email)
}

func (n *Notifier) submissionEmail(f store.FormSubmission) *Email {
	var b strings.Builder
	fmt.Fprintf(&b, "A new %s form submission was received.\n\n", f.FormType)
	line := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, value)
		}
	}
	line("Name", f.Name)
	line("Email", f.Email)
	line("Subject", f.Subject)
	line("Phone", f.Phone)
	line("Meeting purpose", f.MeetingPurpose)
	line("Preferred date", f.PreferredDate)
	if f.Message != "" {
		fmt.Fprintf(&b, "\n%s\n", f.Message)
	}

	return &Email{
		To:      []string{n.to},
		ReplyTo: f.Email,
		Subject: fmt.Sprintf("[%s] New %s submission from %s", n.siteName, f.FormType, f.Name),
		Text:    b.String(),
	}
}
