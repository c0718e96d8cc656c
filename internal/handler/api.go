package handler

import (
	"bytes"
	"html/template"
	"net/http"
	"time"

	"github.com/blogdesk/internal/content"
	"github.com/blogdesk/internal/db"
	"github.com/blogdesk/internal/pagecache"
	"github.com/blogdesk/internal/panel"
	"github.com/blogdesk/internal/service"
	"github.com/blogdesk/web"
	"github.com/gin-gonic/gin"
)

const defaultMaxUploadBytes = 10 << 20

// Options carries the collaborators the handlers need.
type Options struct {
	Posts          *service.PostService
	Revalidator    *service.Revalidator
	Revalidation   panel.RevalidationClient
	Pages          pagecache.Cache
	Templates      *template.Template
	MaxUploadBytes int64
}

// API bundles shared dependencies for HTTP handlers.
type API struct {
	posts        *service.PostService
	revalidator  *service.Revalidator
	revalidation panel.RevalidationClient
	pages        pagecache.Cache
	templates    *template.Template
	maxUpload    int64
}

// NewAPI constructs a handler set with shared services.
func NewAPI(opts Options) *API {
	if opts.Pages == nil {
		opts.Pages = pagecache.Nop{}
	}
	if opts.Revalidation == nil {
		opts.Revalidation = panel.LocalClient{Revalidator: opts.Revalidator}
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = defaultMaxUploadBytes
	}
	return &API{
		posts:        opts.Posts,
		revalidator:  opts.Revalidator,
		revalidation: opts.Revalidation,
		pages:        opts.Pages,
		templates:    opts.Templates,
		maxUpload:    opts.MaxUploadBytes,
	}
}

// TemplateFuncs are the helpers available to every template.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"year": func() int {
			return time.Now().Year()
		},
		"excerpt": content.Excerpt,
		"render":  content.Render,
		"imageOrPlaceholder": func(post *db.Post) string {
			if post == nil || !post.HasImage() {
				return web.PlaceholderImage
			}
			return post.Image()
		},
	}
}

// renderPage executes a template into memory so the result can be cached.
func (a *API) renderPage(name string, data gin.H) ([]byte, error) {
	var buf bytes.Buffer
	if err := a.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (a *API) renderHTML(c *gin.Context, status int, name string, data gin.H) {
	page, err := a.renderPage(name, data)
	if err != nil {
		c.Error(err)
		c.String(http.StatusInternalServerError, "template error")
		return
	}
	c.Data(status, "text/html; charset=utf-8", page)
}
