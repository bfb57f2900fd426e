// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/brainswarm/brainswarm/internal/render"
	"github.com/brainswarm/brainswarm/internal/store"
)

type recordingNotifier struct {
	received []store.FormSubmission
}

func (n *recordingNotifier) SubmissionReceived(f store.FormSubmission) {
	n.received = append(n.received, f)
}

func TestFormsHandler_ContactValidationOrder(t *testing.T) {
	env := newTestEnv(t)
	notifier := &recordingNotifier{}
	fh := NewFormsHandler(env.h, notifier)

	page := mustPage(t, fh.ContactSubmit(postForm("/contact", url.Values{"name": {"Jo"}})))
	data := page.Data.(ContactData)

	want := []string{
		"Email is required",
		"Please enter a valid email address",
		"Subject is required",
		"Message is required",
	}
	if len(data.Errors) != len(want) {
		t.Fatalf("Errors = %v, want %v", data.Errors, want)
	}
	for i := range want {
		if data.Errors[i] != want[i] {
			t.Errorf("Errors[%d] = %q, want %q", i, data.Errors[i], want[i])
		}
	}
	if data.Form.Name != "Jo" {
		t.Errorf("name not echoed: %q", data.Form.Name)
	}
	if len(notifier.received) != 0 {
		t.Errorf("notified for an invalid form: %v", notifier.received)
	}
}

func TestFormsHandler_ContactStores(t *testing.T) {
	env := newTestEnv(t)
	notifier := &recordingNotifier{}
	fh := NewFormsHandler(env.h, notifier)

	values := url.Values{
		"name":    {"Jo <b>Smith</b>"},
		"email":   {"jo@example.com"},
		"subject": {"Kits"},
		"message": {"How much?"},
	}
	req := postForm("/contact", values)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	rd := mustRedirect(t, fh.ContactSubmit(req))

	if rd.URL != "/contact" || rd.Flash.Type != render.FlashSuccess {
		t.Errorf("redirect = %+v", rd)
	}

	subs, err := env.queries.ListSubmissions(context.Background(), store.FormTypeContact)
	if err != nil {
		t.Fatalf("ListSubmissions: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("got %d submissions, want 1", len(subs))
	}
	s := subs[0]
	if s.Name != "Jo Smith" {
		t.Errorf("Name = %q, want markup stripped", s.Name)
	}
	if s.IPAddress != "192.0.2.10" {
		t.Errorf("IPAddress = %q", s.IPAddress)
	}
	if s.UserAgent == "" {
		t.Error("UserAgent not stored")
	}
	if len(notifier.received) != 1 || notifier.received[0].ID != s.ID {
		t.Errorf("notifier got %v", notifier.received)
	}
}

func TestFormsHandler_MeetingPurpose(t *testing.T) {
	env := newTestEnv(t)
	fh := NewFormsHandler(env.h, nil)

	values := url.Values{
		"name":            {"Sam"},
		"email":           {"sam@example.com"},
		"phone":           {"+1 555 0100"},
		"meeting_purpose": {"other"},
		"preferred_date":  {"2026-11-02"},
	}
	page := mustPage(t, fh.MeetingSubmit(postForm("/meeting", values)))
	data := page.Data.(MeetingData)
	if len(data.Errors) != 1 || data.Errors[0] != "Please select a valid meeting purpose." {
		t.Errorf("Errors = %v", data.Errors)
	}
	if len(data.Purposes) != len(MeetingPurposes) {
		t.Errorf("Purposes = %v", data.Purposes)
	}

	values.Set("meeting_purpose", PurposeBuyKit)
	rd := mustRedirect(t, fh.MeetingSubmit(postForm("/meeting", values)))
	if rd.URL != "/meeting" || rd.Flash.Type != render.FlashSuccess {
		t.Errorf("redirect = %+v", rd)
	}

	subs, err := env.queries.ListSubmissions(context.Background(), store.FormTypeMeeting)
	if err != nil {
		t.Fatalf("ListSubmissions: %v", err)
	}
	if len(subs) != 1 || subs[0].MeetingPurpose != PurposeBuyKit || subs[0].PreferredDate != "2026-11-02" {
		t.Errorf("submissions = %+v", subs)
	}
}

func TestFormsHandler_HomeShowsLatestEvents(t *testing.T) {
	env := newTestEnv(t)
	fh := NewFormsHandler(env.h, nil)
	for i := range 5 {
		env.createPost(t, store.KindEvent, "Event number "+strconv.Itoa(i), "")
	}

	page := mustPage(t, fh.Home(httptest.NewRequest(http.MethodGet, "/", nil)))
	data := page.Data.(HomeData)
	if len(data.Events) != HomeEventCount {
		t.Errorf("got %d events, want %d", len(data.Events), HomeEventCount)
	}

	values := url.Values{"name": {"Jo"}, "email": {"jo@example.com"}, "subject": {"Hi"}, "message": {"Hello"}}
	rd := mustRedirect(t, fh.HomeSubmit(postForm("/", values)))
	if rd.URL != "/" {
		t.Errorf("URL = %q", rd.URL)
	}
	counts, err := env.queries.CountSubmissionsByType(context.Background())
	if err != nil {
		t.Fatalf("CountSubmissionsByType: %v", err)
	}
	if counts[store.FormTypeHome] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestFormsHandler_AdminListAndDelete(t *testing.T) {
	env := newTestEnv(t)
	fh := NewFormsHandler(env.h, nil)
	admin := env.createUser(t, "admin", true)
	ctx := context.Background()

	var meetingID int64
	for _, formType := range []string{store.FormTypeContact, store.FormTypeContact, store.FormTypeMeeting} {
		s, err := env.queries.CreateSubmission(ctx, store.FormSubmission{FormType: formType, Name: "N", Email: "n@example.com"})
		if err != nil {
			t.Fatalf("CreateSubmission: %v", err)
		}
		if formType == store.FormTypeMeeting {
			meetingID = s.ID
		}
	}

	tests := []struct {
		query  string
		filter string
		rows   int
	}{
		{"", "all", 3},
		{"?filter=contact", "contact", 2},
		{"?filter=meeting", "meeting", 1},
		{"?filter=bogus", "all", 3},
	}
	for _, tt := range tests {
		page := mustPage(t, fh.AdminList(asUser(httptest.NewRequest(http.MethodGet, "/admin/forms"+tt.query, nil), admin)))
		data := page.Data.(FormsData)
		if data.Filter != tt.filter || len(data.Submissions) != tt.rows || data.Total != 3 {
			t.Errorf("%q: filter=%q rows=%d total=%d", tt.query, data.Filter, len(data.Submissions), data.Total)
		}
	}

	values := url.Values{"submission_id": {strconv.FormatInt(meetingID, 10)}, "action": {"delete"}}
	rd := mustRedirect(t, fh.AdminAction(asUser(postForm("/admin/forms", values), admin)))
	if rd.Flash.Message != "Form submission deleted successfully." {
		t.Errorf("delete = %+v", rd)
	}
	rd = mustRedirect(t, fh.AdminAction(asUser(postForm("/admin/forms", values), admin)))
	if rd.Flash.Message != "Form submission not found." {
		t.Errorf("second delete = %+v", rd)
	}
}

func TestBrowserSummary(t *testing.T) {
	tests := []struct {
		ua   string
		want string
	}{
		{"", "Unknown"},
		{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36", "Chrome on Windows"},
		{"Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", "Googlebot (bot)"},
	}
	for _, tt := range tests {
		if got := BrowserSummary(tt.ua); got != tt.want {
			t.Errorf("BrowserSummary(%q) = %q, want %q", tt.ua, got, tt.want)
		}
	}
}
