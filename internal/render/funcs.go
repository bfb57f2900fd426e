// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package render

import (
	"bytes"
	"html/template"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/brainswarm/brainswarm/internal/store"
)

// ExcerptWords is the word count of list excerpts.
const ExcerptWords = 30

var (
	markdown = goldmark.New(
		goldmark.WithExtensions(extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps()),
	)
	ugcPolicy     *bluemonday.Policy
	ugcPolicyOnce sync.Once
	titleCaser    = cases.Title(language.English)
)

// TruncateWords returns the first limit space-separated words of text,
// followed by "..." when anything was cut.
func TruncateWords(text string, limit int) string {
	words := strings.Fields(text)
	if len(words) <= limit {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:limit], " ") + "..."
}

// Markdown renders post content to sanitized HTML. Single newlines become
// line breaks so plain text keeps its layout.
func Markdown(content string) template.HTML {
	ugcPolicyOnce.Do(func() {
		ugcPolicy = bluemonday.UGCPolicy()
	})

	var buf bytes.Buffer
	if err := markdown.Convert([]byte(content), &buf); err != nil {
		slog.Warn("markdown conversion failed", "error", err)
		return template.HTML(template.HTMLEscapeString(content))
	}
	return template.HTML(ugcPolicy.SanitizeBytes(buf.Bytes()))
}

// Title returns s with each word capitalised, e.g. "contact" -> "Contact".
func Title(s string) string {
	return titleCaser.String(strings.ReplaceAll(s, "_", " "))
}

// imageURL returns the public URL of a post image, or "" when it has none.
func (r *Renderer) imageURL(baseURL string, p store.Post) string {
	if p.Image == "" {
		return ""
	}
	return baseURL + "/uploads/" + r.imageDirs[p.Kind] + "/" + p.Image
}

// thumbURL returns the public URL of a post image thumbnail.
func (r *Renderer) thumbURL(baseURL string, p store.Post) string {
	if p.Image == "" {
		return ""
	}
	return baseURL + "/uploads/" + r.imageDirs[p.Kind] + "/thumbs/" + p.Image
}

// templateFuncs returns custom template functions.
func (r *Renderer) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatDate": func(t time.Time) string {
			return t.Format("January 2, 2006")
		},
		"formatDateTime": func(t time.Time) string {
			return t.Format("Jan 2, 2006 3:04 PM")
		},
		"excerpt": func(s string) string {
			return TruncateWords(s, ExcerptWords)
		},
		"truncate": func(s string, length int) string {
			runes := []rune(s)
			if len(runes) <= length {
				return s
			}
			return string(runes[:length]) + "..."
		},
		"markdown": Markdown,
		"title":    Title,
		"asset":    r.assets.URL,
		"imageURL": r.imageURL,
		"thumbURL": r.thumbURL,
		"eq64": func(a, b int64) bool {
			return a == b
		},
	}
}
