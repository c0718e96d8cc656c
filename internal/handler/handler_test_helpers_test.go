package handler

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/blogdesk/internal/blob"
	"github.com/blogdesk/internal/db"
	"github.com/blogdesk/internal/pagecache"
	"github.com/blogdesk/internal/service"
	"github.com/blogdesk/internal/store"
	"github.com/blogdesk/web"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testEnv struct {
	engine *gin.Engine
	posts  store.PostStore
	blobs  *blob.MemoryStore
	pages  *pagecache.Memory
}

func setupHandlerTestDB(t *testing.T) store.PostStore {
	t.Helper()
	dsn := fmt.Sprintf("file:handler-%d?mode=memory&cache=shared", time.Now().UnixNano())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return store.NewGormStore(gdb)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, setupHandlerTestDB(t))
}

func newTestEnvWithStore(t *testing.T, posts store.PostStore) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tmpl, err := web.Templates(TemplateFuncs())
	if err != nil {
		t.Fatalf("failed to parse templates: %v", err)
	}

	blobs := blob.NewMemoryStore("https://cdn.test")
	pages := pagecache.NewMemory(0)
	api := NewAPI(Options{
		Posts:       service.NewPostService(posts, blobs, service.PostServiceOptions{Bucket: "IMG", Pages: pages}),
		Revalidator: service.NewRevalidator(posts, pages),
		Pages:       pages,
		Templates:   tmpl,
	})

	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("test-secret"))))
	r.GET("/", api.ShowHome)
	r.GET("/Blog", api.ShowBlogList)
	r.GET("/Blog/:id", api.ShowBlogDetail)
	r.GET("/Blog/BlogAdmin", api.ShowAdminList)
	r.GET("/Blog/BlogAdmin/AddNewBlog", api.ShowNewPost)
	r.POST("/Blog/BlogAdmin/AddNewBlog", api.CreatePost)
	r.GET("/Blog/BlogAdmin/EditBlog/:id", api.ShowEditPost)
	r.POST("/Blog/BlogAdmin/EditBlog/:id", api.UpdatePost)
	r.POST("/Blog/BlogAdmin/delete/:id", api.DeletePost)
	r.POST("/Blog/BlogAdmin/revalidate", api.RevalidateEdited)
	r.Any("/api/revalidate", api.Revalidate)
	r.GET("/api/blogs", api.GetBlogs)
	r.GET("/api/blogs/:id", api.GetBlog)

	return &testEnv{engine: r, posts: posts, blobs: blobs, pages: pages}
}

func (e *testEnv) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rr := httptest.NewRecorder()
	e.engine.ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil), cookies...)
}

func (e *testEnv) postForm(path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return e.do(req)
}

func (e *testEnv) seed(t *testing.T, posts ...db.Post) []uint {
	t.Helper()
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		post := p
		if err := e.posts.Insert(context.Background(), &post); err != nil {
			t.Fatalf("seed: %v", err)
		}
		ids = append(ids, post.ID)
	}
	return ids
}

func (e *testEnv) mustGet(t *testing.T, id uint) *db.Post {
	t.Helper()
	post, err := e.posts.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get %d: %v", id, err)
	}
	return post
}

// multipartRequest builds a post form body; image is skipped when filename is empty.
func multipartRequest(t *testing.T, path string, fields map[string]string, filename string, image []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if filename != "" {
		part, err := writer.CreateFormFile("image", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := io.Copy(part, bytes.NewReader(image)); err != nil {
			t.Fatalf("write image: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
