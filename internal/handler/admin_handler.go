package handler

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/blogdesk/internal/db"
	"github.com/blogdesk/internal/panel"
	"github.com/blogdesk/internal/service"
	"github.com/gin-gonic/gin"
)

const (
	adminListPath   = "/Blog/BlogAdmin"
	addNewBlogPath  = "/Blog/BlogAdmin/AddNewBlog"
	editBlogPathFmt = "/Blog/BlogAdmin/EditBlog/%d"
	multipartMemory = 8 << 20
)

// postForm mirrors the fields of the post form template.
type postForm struct {
	ID            uint
	Title         string
	Content       string
	ContentFormat string
	ImageURL      string
}

type formView struct {
	heading string
	action  string
}

// formConfirmer approves the prompt when the form's confirm box was ticked.
func formConfirmer(c *gin.Context) service.Confirmer {
	ticked := strings.EqualFold(strings.TrimSpace(c.PostForm("confirm")), "yes")
	return service.ConfirmFunc(func(ctx context.Context, prompt string) bool {
		return ticked
	})
}

// ShowAdminList renders the admin panel with every post and its edited state.
func (a *API) ShowAdminList(c *gin.Context) {
	p := panel.New(a.posts, a.revalidation)
	data := gin.H{
		"title":        "Blog Admin Page",
		"nav":          "admin",
		"flashSuccess": popFlashes(c, flashSuccess),
		"flashErrors":  popFlashes(c, flashError),
	}

	if err := p.Load(c.Request.Context()); err != nil {
		c.Error(err)
		data["error"] = fmt.Sprintf("Error fetching blogs: %v", err)
		data["posts"] = nil
		data["editedCount"] = 0
		a.renderHTML(c, http.StatusInternalServerError, "admin_list.html", data)
		return
	}

	data["posts"] = p.Posts()
	data["editedCount"] = len(p.EditedIDs())
	a.renderHTML(c, http.StatusOK, "admin_list.html", data)
}

// ShowNewPost renders an empty post form.
func (a *API) ShowNewPost(c *gin.Context) {
	a.renderForm(c, http.StatusOK, newPostView(), postForm{ContentFormat: "html"}, nil, gin.H{})
}

// CreatePost handles the create form.
func (a *API) CreatePost(c *gin.Context) {
	form, image, cleanup, err := a.readPostForm(c)
	defer cleanup()
	if err != nil {
		a.renderForm(c, http.StatusRequestEntityTooLarge, newPostView(), form, nil, gin.H{"error": err.Error()})
		return
	}

	draft := service.CreateDraft{
		Title:         form.Title,
		Content:       form.Content,
		ContentFormat: form.ContentFormat,
		Image:         image,
	}
	if _, err := a.posts.Submit(c.Request.Context(), draft, formConfirmer(c)); err != nil {
		a.handleSubmitError(c, newPostView(), form, err)
		return
	}

	addFlash(c, flashSuccess, "The blog was saved successfully")
	c.Redirect(http.StatusSeeOther, adminListPath)
}

// ShowEditPost renders the form pre-filled with a stored post.
func (a *API) ShowEditPost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		a.renderNotFound(c, "Invalid post id!")
		return
	}

	post, err := a.posts.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			a.renderNotFound(c, "No blog found.")
			return
		}
		c.Error(err)
		a.renderForm(c, http.StatusInternalServerError, editPostView(id), postForm{ID: id}, nil, gin.H{
			"error": fmt.Sprintf("Error fetching blog: %v", err),
		})
		return
	}

	a.renderForm(c, http.StatusOK, editPostView(id), formFromPost(post), nil, gin.H{})
}

// UpdatePost handles the edit form.
func (a *API) UpdatePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		a.renderNotFound(c, "Invalid post id!")
		return
	}

	form, image, cleanup, err := a.readPostForm(c)
	defer cleanup()
	form.ID = id
	if err != nil {
		a.renderForm(c, http.StatusRequestEntityTooLarge, editPostView(id), a.withCurrentImage(c, form), nil, gin.H{"error": err.Error()})
		return
	}

	draft := service.EditDraft{
		ID:            id,
		Title:         form.Title,
		Content:       form.Content,
		ContentFormat: form.ContentFormat,
		Image:         image,
	}
	if _, err := a.posts.Submit(c.Request.Context(), draft, formConfirmer(c)); err != nil {
		a.handleSubmitError(c, editPostView(id), a.withCurrentImage(c, form), err)
		return
	}

	addFlash(c, flashSuccess, "The blog was saved successfully")
	c.Redirect(http.StatusSeeOther, adminListPath)
}

// DeletePost removes a post through the admin panel.
func (a *API) DeletePost(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		addFlash(c, flashError, "Invalid post id")
		c.Redirect(http.StatusSeeOther, adminListPath)
		return
	}

	p := panel.New(a.posts, a.revalidation)
	if err := p.Load(c.Request.Context()); err != nil {
		addFlash(c, flashError, fmt.Sprintf("Error fetching blogs: %v", err))
		c.Redirect(http.StatusSeeOther, adminListPath)
		return
	}

	switch err := p.Delete(c.Request.Context(), id, formConfirmer(c)); {
	case err == nil:
		addFlash(c, flashSuccess, "The blog was deleted")
	case errors.Is(err, service.ErrCancelled):
		addFlash(c, flashError, "Delete cancelled, nothing was changed")
	case errors.Is(err, service.ErrPostNotFound):
		addFlash(c, flashError, "That blog no longer exists")
	default:
		c.Error(err)
		addFlash(c, flashError, fmt.Sprintf("There was a problem deleting the blog: %v", err))
	}
	c.Redirect(http.StatusSeeOther, adminListPath)
}

// RevalidateEdited sends every edited post to the revalidation endpoint.
func (a *API) RevalidateEdited(c *gin.Context) {
	p := panel.New(a.posts, a.revalidation)
	if err := p.Load(c.Request.Context()); err != nil {
		addFlash(c, flashError, fmt.Sprintf("Error fetching blogs: %v", err))
		c.Redirect(http.StatusSeeOther, adminListPath)
		return
	}

	message, err := p.Revalidate(c.Request.Context())
	switch {
	case err == nil:
		addFlash(c, flashSuccess, message)
	case errors.Is(err, panel.ErrNothingToRevalidate):
		addFlash(c, flashError, "No edited blogs to revalidate")
	default:
		c.Error(err)
		addFlash(c, flashError, fmt.Sprintf("Revalidation failed: %v", err))
	}
	c.Redirect(http.StatusSeeOther, adminListPath)
}

func (a *API) handleSubmitError(c *gin.Context, view formView, form postForm, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		a.renderForm(c, http.StatusBadRequest, view, form, map[string]string{verr.Field: verr.Message}, gin.H{})
	case errors.Is(err, service.ErrCancelled):
		a.renderForm(c, http.StatusOK, view, form, nil, gin.H{"notice": "Save cancelled, nothing was changed."})
	case errors.Is(err, service.ErrPostNotFound):
		a.renderNotFound(c, "No blog found.")
	case errors.Is(err, service.ErrUpload):
		c.Error(err)
		a.renderForm(c, http.StatusUnprocessableEntity, view, form, nil, gin.H{
			"error": fmt.Sprintf("Error uploading image: %v", err),
		})
	default:
		c.Error(err)
		a.renderForm(c, http.StatusInternalServerError, view, form, nil, gin.H{
			"error": fmt.Sprintf("There was a problem saving the blog: %v", err),
		})
	}
}

func (a *API) renderForm(c *gin.Context, status int, view formView, form postForm, fieldErrors map[string]string, extra gin.H) {
	if fieldErrors == nil {
		fieldErrors = map[string]string{}
	}
	data := gin.H{
		"title":       view.heading,
		"nav":         "admin",
		"heading":     view.heading,
		"action":      view.action,
		"form":        form,
		"fieldErrors": fieldErrors,
	}
	for key, value := range extra {
		data[key] = value
	}
	a.renderHTML(c, status, "blog_form.html", data)
}

// readPostForm parses the multipart body. The returned cleanup closes the image file.
func (a *API) readPostForm(c *gin.Context) (postForm, *service.ImageUpload, func(), error) {
	noop := func() {}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, a.maxUpload+multipartMemory)

	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return postForm{}, nil, noop, errors.New("the upload is too large")
		}
		return postForm{}, nil, noop, fmt.Errorf("could not read the form: %w", err)
	}

	form := postForm{
		Title:         c.PostForm("title"),
		Content:       c.PostForm("content"),
		ContentFormat: c.DefaultPostForm("content_format", "html"),
	}

	header, err := c.FormFile("image")
	if err != nil {
		return form, nil, noop, nil
	}
	file, err := header.Open()
	if err != nil {
		return form, nil, noop, fmt.Errorf("could not read the image: %w", err)
	}
	return form, &service.ImageUpload{Filename: header.Filename, Data: file}, closer(file), nil
}

func (a *API) withCurrentImage(c *gin.Context, form postForm) postForm {
	if post, err := a.posts.Get(c.Request.Context(), form.ID); err == nil {
		form.ImageURL = post.Image()
	}
	return form
}

func closer(file multipart.File) func() {
	return func() {
		file.Close()
	}
}

func formFromPost(post *db.Post) postForm {
	return postForm{
		ID:            post.ID,
		Title:         post.Title,
		Content:       post.Content,
		ContentFormat: "html",
		ImageURL:      post.Image(),
	}
}

func newPostView() formView {
	return formView{heading: "Add New Blog", action: addNewBlogPath}
}

func editPostView(id uint) formView {
	return formView{heading: "Edit Blog", action: fmt.Sprintf(editBlogPathFmt, id)}
}
