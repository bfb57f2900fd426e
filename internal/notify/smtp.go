// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package notify

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

// SMTPConfig describes an SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPSender delivers mail through an SMTP relay using PLAIN auth.
type SMTPSender struct {
	cfg      SMTPConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPSender creates an SMTPSender.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg, sendMail: smtp.SendMail}
}

// Send implements Sender. smtp.SendMail is not context aware, so ctx only
// guards against sending after cancellation.
func (s *SMTPSender) Send(ctx context.Context, email *Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	if err := s.sendMail(addr, auth, s.cfg.From, email.To, s.message(email)); err != nil {
		return fmt.Errorf("smtp: sending to %s: %w", addr, err)
	}
	return nil
}

// message renders the RFC 5322 message. Header values are stripped of line
// breaks so user input cannot inject headers.
func (s *SMTPSender) message(email *Email) []byte {
	clean := strings.NewReplacer("\r", "", "\n", "")

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", clean.Replace(s.cfg.From))
	fmt.Fprintf(&b, "To: %s\r\n", clean.Replace(strings.Join(email.To, ", ")))
	if email.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", clean.Replace(email.ReplyTo))
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", clean.Replace(email.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	b.WriteString(strings.ReplaceAll(email.Text, "\n", "\r\n"))
	return b.Bytes()
}
