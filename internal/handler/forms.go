// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/mileusna/useragent"

	"github.com/brainswarm/brainswarm/internal/middleware"
	"github.com/brainswarm/brainswarm/internal/store"
	"github.com/brainswarm/brainswarm/internal/validation"
)

const formsPath = "/admin/forms"

// HomeEventCount is the number of latest events shown on the home page.
const HomeEventCount = 3

// Meeting purposes accepted by the meeting form.
const (
	PurposeBuyKit        = "buy_kit"
	PurposeCustomProject = "custom_project"
)

// MeetingPurposes lists the accepted meeting purposes in display order.
var MeetingPurposes = []string{PurposeBuyKit, PurposeCustomProject}

// SubmissionNotifier is told about every stored form submission.
type SubmissionNotifier interface {
	SubmissionReceived(f store.FormSubmission)
}

// FormsHandler handles the public contact, meeting and home forms and the
// admin submissions list.
type FormsHandler struct {
	*Handler
	notifier SubmissionNotifier
}

// NewFormsHandler creates a FormsHandler. notifier may be nil.
func NewFormsHandler(h *Handler, notifier SubmissionNotifier) *FormsHandler {
	return &FormsHandler{Handler: h, notifier: notifier}
}

// ContactForm holds the contact and home form fields.
type ContactForm struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// MeetingForm holds the meeting form fields.
type MeetingForm struct {
	Name           string
	Email          string
	Phone          string
	MeetingPurpose string
	PreferredDate  string
	Message        string
}

// ContactData is passed to pages/contact.
type ContactData struct {
	Form   ContactForm
	Errors []string
}

// HomeData is passed to pages/home.
type HomeData struct {
	Events []store.Post
	Form   ContactForm
	Errors []string
}

// MeetingData is passed to pages/meeting.
type MeetingData struct {
	Form     MeetingForm
	Errors   []string
	Purposes []string
}

// SubmissionRow is a submission with its parsed user agent.
type SubmissionRow struct {
	store.FormSubmission
	Browser string
}

// FormsData is passed to admin/forms.
type FormsData struct {
	Submissions []SubmissionRow
	Filter      string
	Types       []string
	Counts      map[string]int64
	Total       int64
}

// Home handles GET /.
func (h *FormsHandler) Home(r *http.Request) Result {
	return h.homePage(r, HomeData{})
}

// HomeSubmit handles POST /.
func (h *FormsHandler) HomeSubmit(r *http.Request) Result {
	form, errs := parseContactForm(r)
	if errs.Any() {
		return h.homePage(r, HomeData{Form: form, Errors: errs})
	}

	if _, err := h.store(r, store.FormSubmission{
		FormType: store.FormTypeHome,
		Name:     form.Name,
		Email:    form.Email,
		Subject:  form.Subject,
		Message:  form.Message,
	}); err != nil {
		return h.homePage(r, HomeData{
			Form:   form,
			Errors: []string{"There was an error submitting your message. Please try again."},
		})
	}
	return flashSuccess("/", "Thank you for your message! We will get back to you soon.")
}

func (h *FormsHandler) homePage(r *http.Request, data HomeData) Result {
	events, err := h.queries.ListRecentPosts(r.Context(), store.KindEvent, HomeEventCount)
	if err != nil {
		return internalError(fmt.Errorf("listing recent events: %w", err))
	}
	data.Events = events
	return Page{Template: "pages/home", Data: data}
}

// Contact handles GET /contact.
func (h *FormsHandler) Contact(_ *http.Request) Result {
	return contactPage(ContactData{})
}

// ContactSubmit handles POST /contact.
func (h *FormsHandler) ContactSubmit(r *http.Request) Result {
	form, errs := parseContactForm(r)
	if errs.Any() {
		return contactPage(ContactData{Form: form, Errors: errs})
	}

	if _, err := h.store(r, store.FormSubmission{
		FormType: store.FormTypeContact,
		Name:     form.Name,
		Email:    form.Email,
		Subject:  form.Subject,
		Message:  form.Message,
	}); err != nil {
		return contactPage(ContactData{
			Form:   form,
			Errors: []string{"There was an error submitting your message. Please try again."},
		})
	}
	return flashSuccess("/contact", "Thank you for contacting us! We will respond to your inquiry soon.")
}

func contactPage(data ContactData) Page {
	return Page{Template: "pages/contact", Title: "Contact Us", Data: data}
}

// Meeting handles GET /meeting.
func (h *FormsHandler) Meeting(_ *http.Request) Result {
	return meetingPage(MeetingData{})
}

// MeetingSubmit handles POST /meeting.
func (h *FormsHandler) MeetingSubmit(r *http.Request) Result {
	form := MeetingForm{
		Name:           validation.Sanitize(r.PostFormValue("name")),
		Email:          validation.Sanitize(r.PostFormValue("email")),
		Phone:          validation.Sanitize(r.PostFormValue("phone")),
		MeetingPurpose: validation.Sanitize(r.PostFormValue("meeting_purpose")),
		PreferredDate:  validation.Sanitize(r.PostFormValue("preferred_date")),
		Message:        validation.Sanitize(r.PostFormValue("message")),
	}

	var errs validation.Errors
	errs.Add(validation.Required(form.Name, "Name"))
	errs.Add(validation.Required(form.Email, "Email"))
	errs.Add(validation.Email(form.Email))
	errs.Add(validation.Required(form.Phone, "Phone"))
	errs.Add(validation.Required(form.MeetingPurpose, "Meeting Purpose"))
	errs.Add(validation.Required(form.PreferredDate, "Preferred Date"))
	errs.Add(validation.OneOf(form.MeetingPurpose, MeetingPurposes, "Please select a valid meeting purpose."))
	if errs.Any() {
		return meetingPage(MeetingData{Form: form, Errors: errs})
	}

	if _, err := h.store(r, store.FormSubmission{
		FormType:       store.FormTypeMeeting,
		Name:           form.Name,
		Email:          form.Email,
		Phone:          form.Phone,
		MeetingPurpose: form.MeetingPurpose,
		PreferredDate:  form.PreferredDate,
		Message:        form.Message,
	}); err != nil {
		return meetingPage(MeetingData{
			Form:   form,
			Errors: []string{"There was an error submitting your meeting request. Please try again."},
		})
	}
	return flashSuccess("/meeting", "Thank you for scheduling a meeting! We will contact you to confirm the details.")
}

func meetingPage(data MeetingData) Page {
	data.Purposes = MeetingPurposes
	return Page{Template: "pages/meeting", Title: "Schedule a Meeting", Data: data}
}

func parseContactForm(r *http.Request) (ContactForm, validation.Errors) {
	form := ContactForm{
		Name:    validation.Sanitize(r.PostFormValue("name")),
		Email:   validation.Sanitize(r.PostFormValue("email")),
		Subject: validation.Sanitize(r.PostFormValue("subject")),
		Message: validation.Sanitize(r.PostFormValue("message")),
	}

	var errs validation.Errors
	errs.Add(validation.Required(form.Name, "Name"))
	errs.Add(validation.Required(form.Email, "Email"))
	errs.Add(validation.Email(form.Email))
	errs.Add(validation.Required(form.Subject, "Subject"))
	errs.Add(validation.Required(form.Message, "Message"))
	return form, errs
}

// store writes the submission with the client address and user agent and
// queues the admin notification.
func (h *FormsHandler) store(r *http.Request, f store.FormSubmission) (store.FormSubmission, error) {
	f.IPAddress = middleware.ClientIP(r)
	f.UserAgent = r.UserAgent()

	saved, err := h.queries.CreateSubmission(r.Context(), f)
	if err != nil {
		slog.Error("failed to store form submission", "error", err, "form_type", f.FormType)
		return saved, err
	}

	slog.Info("form submitted", "form_type", saved.FormType, "submission_id", saved.ID)
	if h.notifier != nil {
		h.notifier.SubmissionReceived(saved)
	}
	return saved, nil
}

// AdminList handles GET /admin/forms?filter=all|contact|meeting|home.
func (h *FormsHandler) AdminList(r *http.Request) Result {
	ctx := r.Context()

	filter := r.URL.Query().Get("filter")
	if !slices.Contains(store.FormTypes, filter) {
		filter = "all"
	}
	formType := filter
	if filter == "all" {
		formType = ""
	}

	submissions, err := h.queries.ListSubmissions(ctx, formType)
	if err != nil {
		return internalError(fmt.Errorf("listing submissions: %w", err))
	}
	counts, err := h.queries.CountSubmissionsByType(ctx)
	if err != nil {
		return internalError(fmt.Errorf("counting submissions: %w", err))
	}

	var total int64
	for _, n := range counts {
		total += n
	}

	rows := make([]SubmissionRow, 0, len(submissions))
	for _, s := range submissions {
		rows = append(rows, SubmissionRow{FormSubmission: s, Browser: BrowserSummary(s.UserAgent)})
	}

	return Page{
		Template: "admin/forms",
		Title:    "Form Submissions",
		Data: FormsData{
			Submissions: rows,
			Filter:      filter,
			Types:       store.FormTypes,
			Counts:      counts,
			Total:       total,
		},
	}
}

// AdminAction handles POST /admin/forms. The only action is delete.
func (h *FormsHandler) AdminAction(r *http.Request) Result {
	id, ok := formID(r, "submission_id")
	if !ok || r.PostFormValue("action") != "delete" {
		return Redirect{URL: formsPath}
	}

	if err := h.queries.DeleteSubmission(r.Context(), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return flashError(formsPath, "Form submission not found.")
		}
		slog.Error("failed to delete form submission", "error", err, "submission_id", id)
		return flashError(formsPath, MsgGenericError)
	}

	slog.Info("form submission deleted", "submission_id", id, "deleted_by", middleware.GetUserID(r))
	return flashSuccess(formsPath, "Form submission deleted successfully.")
}

// BrowserSummary condenses a user agent string to "Browser on OS".
func BrowserSummary(uaString string) string {
	if strings.TrimSpace(uaString) == "" {
		return "Unknown"
	}
	ua := useragent.Parse(uaString)

	browser := ua.Name
	if browser == "" {
		browser = "Unknown"
	}
	if ua.Bot {
		return browser + " (bot)"
	}
	if ua.OS == "" {
		return browser
	}
	return browser + " on " + ua.OS
}
