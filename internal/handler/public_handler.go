package handler

import (
	"errors"
	"net/http"

	"github.com/blogdesk/internal/pagecache"
	"github.com/blogdesk/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const cacheHeader = "X-Cache"

// errPageNotCacheable marks renders that must not be stored (404s and failures).
var errPageNotCacheable = errors.New("page not cacheable")

// ShowHome renders the landing page.
func (a *API) ShowHome(c *gin.Context) {
	a.renderHTML(c, http.StatusOK, "home.html", gin.H{
		"title": "Home",
		"nav":   "home",
	})
}

// ShowBlogList renders every post, served from the page cache when possible.
func (a *API) ShowBlogList(c *gin.Context) {
	a.serveCached(c, pagecache.ListKey, func() (int, []byte, error) {
		posts, err := a.posts.List(c.Request.Context())
		if err != nil {
			c.Error(err)
			page, renderErr := a.renderPage("blog_list.html", gin.H{
				"title": "Blogs",
				"nav":   "blog",
				"posts": nil,
			})
			if renderErr != nil {
				return http.StatusInternalServerError, nil, renderErr
			}
			return http.StatusInternalServerError, page, errPageNotCacheable
		}

		page, err := a.renderPage("blog_list.html", gin.H{
			"title": "Blogs",
			"nav":   "blog",
			"posts": posts,
		})
		return http.StatusOK, page, err
	})
}

// ShowBlogDetail renders one post by its numeric id.
func (a *API) ShowBlogDetail(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		a.renderNotFound(c, "Invalid post id!")
		return
	}

	a.serveCached(c, pagecache.DetailKey(id), func() (int, []byte, error) {
		post, err := a.posts.Get(c.Request.Context(), id)
		if err != nil {
			status := http.StatusInternalServerError
			message := "Could not load the post."
			if errors.Is(err, service.ErrPostNotFound) {
				status = http.StatusNotFound
				message = "This post does not exist."
			} else {
				c.Error(err)
			}
			page, renderErr := a.renderPage("not_found.html", gin.H{
				"title":   "Post not found",
				"nav":     "blog",
				"message": message,
			})
			if renderErr != nil {
				return http.StatusInternalServerError, nil, renderErr
			}
			return status, page, errPageNotCacheable
		}

		page, err := a.renderPage("blog_detail.html", gin.H{
			"title": post.Title,
			"nav":   "blog",
			"post":  post,
		})
		return http.StatusOK, page, err
	})
}

func (a *API) renderNotFound(c *gin.Context, message string) {
	a.renderHTML(c, http.StatusNotFound, "not_found.html", gin.H{
		"title":   "Post not found",
		"nav":     "blog",
		"message": message,
	})
}

// serveCached answers from the page cache, or renders, stores and answers.
// Cache read or write failures degrade to an uncached render.
func (a *API) serveCached(c *gin.Context, key string, render func() (int, []byte, error)) {
	ctx := c.Request.Context()

	page, hit, err := a.pages.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("page cache read failed")
	}
	if hit {
		c.Header(cacheHeader, "HIT")
		c.Data(http.StatusOK, "text/html; charset=utf-8", page)
		return
	}

	status, page, err := render()
	if err != nil && !errors.Is(err, errPageNotCacheable) {
		c.Error(err)
		c.String(http.StatusInternalServerError, "template error")
		return
	}

	if err == nil && status == http.StatusOK {
		if setErr := a.pages.Set(ctx, key, page); setErr != nil {
			log.Warn().Err(setErr).Str("key", key).Msg("page cache write failed")
		}
	}

	c.Header(cacheHeader, "MISS")
	c.Data(status, "text/html; charset=utf-8", page)
}

// GetBlogs returns all posts as JSON.
func (a *API) GetBlogs(c *gin.Context) {
	posts, err := a.posts.List(c.Request.Context())
	if err != nil {
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"blogs": posts})
}

// GetBlog returns a single post as JSON.
func (a *API) GetBlog(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	post, err := a.posts.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrPostNotFound) {
			respondError(c, http.StatusNotFound, err.Error())
			return
		}
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"blog": post})
}
