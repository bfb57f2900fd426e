// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/brainswarm/brainswarm/internal/logging"
	"github.com/brainswarm/brainswarm/internal/middleware"
	"github.com/brainswarm/brainswarm/internal/store"
	"github.com/brainswarm/brainswarm/internal/upload"
	"github.com/brainswarm/brainswarm/internal/validation"
)

// Post title bounds.
const (
	TitleMinLength = 3
	TitleMaxLength = 200
)

// Post images open full size in an overlay on the public pages.
var (
	lightboxCSS = []string{"css/lightbox.css"}
	lightboxJS  = []string{"js/lightbox.js"}
)

// PostHandler serves one post kind: the public list and detail pages, the
// admin create/edit/delete forms and the admin list.
type PostHandler struct {
	*Handler
	kind     store.PostKind
	uploads  *upload.Store
	imageDir string
}

// NewPostHandler creates a PostHandler for kind storing images in imageDir.
func NewPostHandler(h *Handler, kind store.PostKind, uploads *upload.Store, imageDir string) *PostHandler {
	return &PostHandler{
		Handler:  h,
		kind:     kind,
		uploads:  uploads,
		imageDir: imageDir,
	}
}

// Kind returns the post kind served.
func (p *PostHandler) Kind() store.PostKind {
	return p.kind
}

// PostForm holds the submitted post fields.
type PostForm struct {
	Title   string
	Content string
}

// PostListData is passed to posts/list.
type PostListData struct {
	Kind      store.PostKind
	Label     string
	Posts     []store.Post
	CanManage bool
}

// PostDetailData is passed to posts/detail.
type PostDetailData struct {
	Kind         store.PostKind
	Label        string
	Post         store.Post
	Contributors []store.Contributor
	CanManage    bool
}

// PostFormData is passed to posts/form.
type PostFormData struct {
	Kind   store.PostKind
	Label  string
	IsEdit bool
	Post   store.Post
	Form   PostForm
	Errors []string
}

// PostDeleteData is passed to posts/delete.
type PostDeleteData struct {
	Kind  store.PostKind
	Label string
	Post  store.Post
}

// AdminPostsData is passed to admin/posts.
type AdminPostsData struct {
	Kind    store.PostKind
	Label   string
	IDField string
	Posts   []store.Post
}

func (p *PostHandler) path(suffix string) string {
	return "/" + string(p.kind) + suffix
}

func (p *PostHandler) detailPath(id int64) string {
	return p.path("/detail?id=" + strconv.FormatInt(id, 10))
}

// pluralTitle is the page title of the list.
func (p *PostHandler) pluralTitle() string {
	if p.kind == store.KindBlog {
		return "Blog"
	}
	return "Events"
}

func (p *PostHandler) notFound() Redirect {
	return flashError(p.path("/list"), p.kind.Label()+" not found.")
}

// List handles GET /{kind}/list.
func (p *PostHandler) List(r *http.Request) Result {
	posts, err := p.queries.ListPosts(r.Context(), p.kind)
	if err != nil {
		return internalError(fmt.Errorf("listing %s posts: %w", p.kind, err))
	}
	return Page{
		Template: "posts/list",
		Title:    p.pluralTitle(),
		Data: PostListData{
			Kind:      p.kind,
			Label:     p.kind.Label(),
			Posts:     posts,
			CanManage: middleware.IsAdmin(r),
		},
		ExtraCSS: lightboxCSS,
		ExtraJS:  lightboxJS,
	}
}

// Detail handles GET /{kind}/detail?id=N.
func (p *PostHandler) Detail(r *http.Request) Result {
	id, ok := queryID(r, "id")
	if !ok {
		return p.notFound()
	}
	post, res := requireEntity(func() (store.Post, error) {
		return p.queries.GetPost(r.Context(), p.kind, id)
	}, p.notFound())
	if res != nil {
		return res
	}

	contributors, err := p.queries.ListContributorsForPost(r.Context(), p.kind, id)
	if err != nil {
		return internalError(fmt.Errorf("listing contributors: %w", err))
	}

	return Page{
		Template: "posts/detail",
		Title:    post.Title,
		Data: PostDetailData{
			Kind:         p.kind,
			Label:        p.kind.Label(),
			Post:         post,
			Contributors: contributors,
			CanManage:    middleware.IsAdmin(r),
		},
		ExtraCSS: lightboxCSS,
		ExtraJS:  lightboxJS,
	}
}

// Read handles the legacy GET /{kind}/read?id=N.
func (p *PostHandler) Read(r *http.Request) Result {
	if id, ok := queryID(r, "id"); ok {
		return Redirect{URL: p.detailPath(id), Status: http.StatusMovedPermanently}
	}
	return Redirect{URL: p.path("/list"), Status: http.StatusMovedPermanently}
}

func (p *PostHandler) formPage(data PostFormData) Page {
	title := "Create " + p.kind.Label()
	if data.IsEdit {
		title = "Edit " + p.kind.Label()
	}
	data.Kind = p.kind
	data.Label = p.kind.Label()
	return Page{Template: "posts/form", Title: title, Data: data}
}

// NewForm handles GET /{kind}/create.
func (p *PostHandler) NewForm(_ *http.Request) Result {
	return p.formPage(PostFormData{})
}

// Create handles POST /{kind}/create.
func (p *PostHandler) Create(r *http.Request) Result {
	form, errs := p.parsePostForm(r)
	if errs.Any() {
		return p.formPage(PostFormData{Form: form, Errors: errs})
	}

	image, msg := p.saveImage(r)
	if msg != "" {
		return p.formPage(PostFormData{Form: form, Errors: []string{msg}})
	}

	post, err := p.queries.CreatePost(r.Context(), p.kind, store.CreatePostParams{
		Title:    form.Title,
		Content:  form.Content,
		AuthorID: sql.NullInt64{Int64: middleware.GetUserID(r), Valid: middleware.GetUserID(r) > 0},
		Image:    image,
	})
	if err != nil {
		slog.Error("failed to create post", "error", err, "kind", p.kind)
		p.removeImage(image)
		return p.formPage(PostFormData{
			Form:   form,
			Errors: []string{fmt.Sprintf("There was an error creating the %s. Please try again.", strings.ToLower(p.kind.Label()))},
		})
	}

	slog.Info("post created", "kind", p.kind, "post_id", post.ID, "created_by", middleware.GetUserID(r))
	return flashSuccess(p.detailPath(post.ID), p.kind.Label()+" created successfully!")
}

// EditForm handles GET /{kind}/edit?id=N.
func (p *PostHandler) EditForm(r *http.Request) Result {
	post, res := p.loadPost(r)
	if res != nil {
		return res
	}
	return p.formPage(PostFormData{
		IsEdit: true,
		Post:   post,
		Form:   PostForm{Title: post.Title, Content: post.Content},
	})
}

// Update handles POST /{kind}/edit?id=N.
func (p *PostHandler) Update(r *http.Request) Result {
	post, res := p.loadPost(r)
	if res != nil {
		return res
	}

	form, errs := p.parsePostForm(r)
	if errs.Any() {
		return p.formPage(PostFormData{IsEdit: true, Post: post, Form: form, Errors: errs})
	}

	newImage, msg := p.saveImage(r)
	if msg != "" {
		return p.formPage(PostFormData{IsEdit: true, Post: post, Form: form, Errors: []string{msg}})
	}

	image := post.Image
	if newImage != "" {
		image = newImage
	}
	err := p.queries.UpdatePost(r.Context(), p.kind, store.UpdatePostParams{
		ID:      post.ID,
		Title:   form.Title,
		Content: form.Content,
		Image:   image,
	})
	if err != nil {
		slog.Error("failed to update post", "error", err, "kind", p.kind, "post_id", post.ID)
		p.removeImage(newImage)
		return p.formPage(PostFormData{
			IsEdit: true,
			Post:   post,
			Form:   form,
			Errors: []string{fmt.Sprintf("There was an error updating the %s. Please try again.", strings.ToLower(p.kind.Label()))},
		})
	}

	if newImage != "" {
		p.removeImage(post.Image)
	}

	slog.Info("post updated", "kind", p.kind, "post_id", post.ID, "updated_by", middleware.GetUserID(r))
	return flashSuccess(p.detailPath(post.ID), p.kind.Label()+" updated successfully!")
}

// ConfirmDelete handles GET /{kind}/delete?id=N.
func (p *PostHandler) ConfirmDelete(r *http.Request) Result {
	post, res := p.loadPost(r)
	if res != nil {
		return res
	}
	return Page{
		Template: "posts/delete",
		Title:    "Delete " + p.kind.Label(),
		Data:     PostDeleteData{Kind: p.kind, Label: p.kind.Label(), Post: post},
	}
}

// Delete handles POST /{kind}/delete?id=N.
func (p *PostHandler) Delete(r *http.Request) Result {
	id, ok := queryID(r, "id")
	if !ok {
		id, ok = formID(r, "id")
	}
	if !ok {
		return p.notFound()
	}
	if r.PostFormValue("confirm_delete") == "" {
		return Redirect{URL: p.detailPath(id)}
	}

	if _, err := p.deletePost(r, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p.notFound()
		}
		slog.Error("failed to delete post", "error", err, "kind", p.kind, "post_id", id)
		return flashError(p.detailPath(id), MsgGenericError)
	}
	return flashSuccess(p.path("/list"), p.kind.Label()+" deleted successfully!")
}

// AdminList handles GET /admin/{kind}s.
func (p *PostHandler) AdminList(r *http.Request) Result {
	posts, err := p.queries.ListPostsByCreated(r.Context(), p.kind)
	if err != nil {
		return internalError(fmt.Errorf("listing %s posts: %w", p.kind, err))
	}
	return Page{
		Template: "admin/posts",
		Title:    "Manage " + p.pluralTitle(),
		Data: AdminPostsData{
			Kind:    p.kind,
			Label:   p.kind.Label(),
			IDField: p.idField(),
			Posts:   posts,
		},
	}
}

// AdminAction handles POST /admin/{kind}s. The only action is delete.
func (p *PostHandler) AdminAction(r *http.Request) Result {
	back := p.adminPath()
	id, ok := formID(r, p.idField())
	if !ok || r.PostFormValue("action") != "delete" {
		return Redirect{URL: back}
	}

	if _, err := p.deletePost(r, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return flashError(back, p.kind.Label()+" not found.")
		}
		slog.Error("failed to delete post", "error", err, "kind", p.kind, "post_id", id)
		return flashError(back, MsgGenericError)
	}
	return flashSuccess(back, p.kind.Label()+" deleted successfully.")
}

// idField is the form field carrying the post id on the admin list.
func (p *PostHandler) idField() string {
	return string(p.kind) + "_id"
}

func (p *PostHandler) adminPath() string {
	if p.kind == store.KindBlog {
		return "/admin/blogs"
	}
	return "/admin/events"
}

// deletePost removes the post and its contributors in one transaction and
// then its image file.
func (p *PostHandler) deletePost(r *http.Request, id int64) (store.Post, error) {
	ctx := r.Context()
	var post store.Post
	err := store.RunInTx(ctx, p.db, func(q *store.Queries) error {
		var err error
		if post, err = q.GetPost(ctx, p.kind, id); err != nil {
			return err
		}
		return q.DeletePostCascade(ctx, p.kind, id)
	})
	if err != nil {
		return store.Post{}, err
	}

	p.removeImage(post.Image)
	slog.Warn("post deleted",
		logging.Audit(middleware.GetUserID(r), middleware.ClientIP(r)),
		"kind", string(p.kind),
		"post_id", id,
		"title", post.Title,
	)
	return post, nil
}

func (p *PostHandler) loadPost(r *http.Request) (store.Post, Result) {
	id, ok := queryID(r, "id")
	if !ok {
		return store.Post{}, p.notFound()
	}
	return requireEntity(func() (store.Post, error) {
		return p.queries.GetPost(r.Context(), p.kind, id)
	}, p.notFound())
}

// parsePostForm reads and validates title and content.
func (p *PostHandler) parsePostForm(r *http.Request) (PostForm, validation.Errors) {
	var errs validation.Errors
	if err := parseMultipart(r); err != nil {
		slog.Warn("failed to parse post form", "error", err)
		errs.Add(upload.Message(upload.ErrUploadFailed))
	}

	form := PostForm{
		Title:   validation.Sanitize(r.PostFormValue("title")),
		Content: validation.Sanitize(r.PostFormValue("content")),
	}
	errs.Add(validation.Required(form.Title, "Title"))
	errs.Add(validation.Required(form.Content, "Content"))
	if form.Title != "" {
		errs.Add(validation.Length(form.Title, TitleMinLength, TitleMaxLength, "Title"))
	}
	return form, errs
}

// saveImage stores the optional image upload. It returns "" and no message
// when nothing was uploaded.
func (p *PostHandler) saveImage(r *http.Request) (string, string) {
	fh := formFile(r, "image")
	if fh == nil {
		return "", ""
	}
	name, err := p.uploads.Save(fh, p.imageDir, upload.ImageExtensions)
	if err != nil {
		return "", upload.Message(err)
	}
	return name, ""
}

func (p *PostHandler) removeImage(name string) {
	if err := p.uploads.Remove(p.imageDir, name); err != nil {
		slog.Warn("failed to remove image", "error", err, "kind", p.kind, "image", name)
	}
}

// parseMultipart parses a multipart body. Plain urlencoded bodies are accepted.
func parseMultipart(r *http.Request) error {
	err := r.ParseMultipartForm(upload.MaxImageSize)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return err
	}
	return nil
}

// formFile returns the first file posted under name, or nil.
func formFile(r *http.Request, name string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File[name]
	if len(files) == 0 || files[0].Filename == "" {
		return nil
	}
	return files[0]
}
