// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package validation holds the form field checks shared by all handlers.
// Each check returns an empty string when the value passes and a
// human-readable message otherwise.
package validation

import (
	"fmt"
	"html"
	"net/mail"
	"net/url"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicy *bluemonday.Policy
	policyOnce   sync.Once
)

// Sanitize trims s and strips any markup from it. The result is plain text;
// escaping is left to html/template at render time.
func Sanitize(s string) string {
	policyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(strings.TrimSpace(s))))
}

// Required reports a missing value.
func Required(value, field string) string {
	if strings.TrimSpace(value) == "" {
		return field + " is required"
	}
	return ""
}

// Length reports a value whose trimmed rune count is outside [min, max].
func Length(value string, min, max int, field string) string {
	n := utf8.RuneCountInString(strings.TrimSpace(value))
	if n < min || n > max {
		return fmt.Sprintf("%s must be between %d and %d characters", field, min, max)
	}
	return ""
}

// Email reports a malformed email address. Display-name forms such as
// "Jane <jane@example.com>" are rejected.
func Email(value string) string {
	value = strings.TrimSpace(value)
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != value {
		return "Please enter a valid email address"
	}
	return ""
}

// URL reports a value that is not an absolute http or https URL.
func URL(value, field string) string {
	u, err := url.Parse(strings.TrimSpace(value))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return field + " must be a valid URL"
	}
	return ""
}

// OneOf reports a value outside the allowed set.
func OneOf(value string, allowed []string, message string) string {
	for _, a := range allowed {
		if value == a {
			return ""
		}
	}
	return message
}

// Errors is an ordered list of validation messages.
type Errors []string

// Add appends msg unless it is empty.
func (e *Errors) Add(msg string) {
	if msg != "" {
		*e = append(*e, msg)
	}
}

// Any reports whether any message was added.
func (e Errors) Any() bool {
	return len(e) > 0
}
