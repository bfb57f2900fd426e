// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package notify

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"
)

// ResendSender delivers mail through the Resend API.
type ResendSender struct {
	client *resend.Client
	from   string
}

// NewResendSender creates a ResendSender.
func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{client: resend.NewClient(apiKey), from: from}
}

// Send implements Sender.
func (s *ResendSender) Send(ctx context.Context, email *Email) error {
	req := &resend.SendEmailRequest{
		From:    s.from,
		To:      email.To,
		Subject: email.Subject,
		Text:    email.Text,
		ReplyTo: email.ReplyTo,
	}
	if _, err := s.client.Emails.SendWithContext(ctx, req); err != nil {
		return fmt.Errorf("resend: failed to send email: %w", err)
	}
	return nil
}
