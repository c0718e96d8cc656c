package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/blogdesk/internal/db"
	"github.com/blogdesk/internal/pagecache"
)

// followRedirect 携带会话 cookie 打开跳转目标，用于读取提示信息。
func followRedirect(t *testing.T, env *testEnv, rr *httptest.ResponseRecorder) string {
	t.Helper()
	res := rr.Result()
	if res.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", res.StatusCode)
	}
	location := res.Header.Get("Location")
	if location != "/Blog/BlogAdmin" {
		t.Fatalf("unexpected redirect %q", location)
	}
	return env.get(location, res.Cookies()...).Body.String()
}

func TestShowAdminListMarksEditedPosts(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t,
		db.Post{Title: "Clean"},
		db.Post{Title: "Dirty", Edited: true},
	)

	rr := env.get("/Blog/BlogAdmin")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	if strings.Count(body, `<mark class="edited">`) != 1 {
		t.Fatalf("expected exactly one edited badge")
	}
	if !strings.Contains(body, "Revalidate 1 edited post(s)") {
		t.Fatalf("expected revalidate button with edited count")
	}
	if !strings.Contains(body, `action="/Blog/BlogAdmin/delete/2"`) {
		t.Fatalf("expected delete form per post")
	}
}

func TestShowPostForms(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, db.Post{Title: "Existing", Content: "<p>Body</p>", ImageURL: db.ImageURLPtr("https://cdn.test/IMG/1_x.png")})

	rr := env.get("/Blog/BlogAdmin/AddNewBlog")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `action="/Blog/BlogAdmin/AddNewBlog"`) {
		t.Fatalf("unexpected new form %d", rr.Code)
	}

	rr = env.get("/Blog/BlogAdmin/EditBlog/1")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{`value="Existing"`, "https://cdn.test/IMG/1_x.png", `action="/Blog/BlogAdmin/EditBlog/1"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("edit form missing %q", want)
		}
	}

	if rr := env.get("/Blog/BlogAdmin/EditBlog/99"); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing post, got %d", rr.Code)
	}
}

func TestCreatePostRequiresTitle(t *testing.T) {
	env := newTestEnv(t)

	req := multipartRequest(t, "/Blog/BlogAdmin/AddNewBlog", map[string]string{
		"title": "   ", "content": "<p>x</p>", "confirm": "yes",
	}, "", nil)
	rr := env.do(req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Title is required") {
		t.Fatalf("expected title error in form")
	}
	if posts, _ := env.posts.List(context.Background()); len(posts) != 0 {
		t.Fatalf("nothing should be written")
	}
}

func TestCreatePostWithoutConfirmationChangesNothing(t *testing.T) {
	env := newTestEnv(t)

	req := multipartRequest(t, "/Blog/BlogAdmin/AddNewBlog", map[string]string{
		"title": "Maybe", "content": "<p>x</p>",
	}, "photo.png", pngBytes(t))
	rr := env.do(req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "Save cancelled") {
		t.Fatalf("expected cancellation notice")
	}
	if env.blobs.Count() != 0 {
		t.Fatalf("no upload should happen without confirmation")
	}
	if posts, _ := env.posts.List(context.Background()); len(posts) != 0 {
		t.Fatalf("no record should be written without confirmation")
	}
}

func TestCreatePostUploadsImageAndSaves(t *testing.T) {
	env := newTestEnv(t)
	env.pages.Set(context.Background(), pagecache.ListKey, []byte("stale list"))

	req := multipartRequest(t, "/Blog/BlogAdmin/AddNewBlog", map[string]string{
		"title": "Hello", "content": "# Heading", "content_format": "markdown", "confirm": "yes",
	}, "my photo.png", pngBytes(t))
	rr := env.do(req)

	body := followRedirect(t, env, rr)
	if !strings.Contains(body, "The blog was saved successfully") {
		t.Fatalf("expected success flash, got %q", body)
	}

	post := env.mustGet(t, 1)
	if post.Title != "Hello" || post.Edited {
		t.Fatalf("unexpected post %+v", post)
	}
	if !strings.Contains(post.Content, "<h1") {
		t.Fatalf("markdown should be converted, got %q", post.Content)
	}
	if !strings.HasPrefix(post.Image(), "https://cdn.test/IMG/") {
		t.Fatalf("unexpected image url %q", post.Image())
	}
	if env.blobs.Count() != 1 {
		t.Fatalf("expected one uploaded object")
	}
	if _, ok, _ := env.pages.Get(context.Background(), pagecache.ListKey); ok {
		t.Fatalf("list page should be dropped after a create")
	}
}

func TestCreatePostUploadFailureWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	env.blobs.Err = errors.New("bucket offline")

	req := multipartRequest(t, "/Blog/BlogAdmin/AddNewBlog", map[string]string{
		"title": "Hello", "content": "<p>x</p>", "confirm": "yes",
	}, "photo.png", pngBytes(t))
	rr := env.do(req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "bucket offline") {
		t.Fatalf("expected upload error in form")
	}
	if posts, _ := env.posts.List(context.Background()); len(posts) != 0 {
		t.Fatalf("a failed upload must not write a record")
	}
}

func TestCreatePostRejectsNonImages(t *testing.T) {
	env := newTestEnv(t)

	req := multipartRequest(t, "/Blog/BlogAdmin/AddNewBlog", map[string]string{
		"title": "Hello", "content": "<p>x</p>", "confirm": "yes",
	}, "notes.txt", []byte("just text"))
	rr := env.do(req)

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
	if env.blobs.Count() != 0 {
		t.Fatalf("non images must not be uploaded")
	}
}

func TestUpdatePostMarksEdited(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, db.Post{Title: "Before", Content: "<p>Body</p>"})

	req := multipartRequest(t, "/Blog/BlogAdmin/EditBlog/1", map[string]string{
		"title": "After", "content": "<p>Body</p>", "confirm": "yes",
	}, "", nil)
	followRedirect(t, env, env.do(req))

	post := env.mustGet(t, 1)
	if post.Title != "After" || !post.Edited {
		t.Fatalf("expected edited post, got %+v", post)
	}
}

func TestUpdatePostWithoutChangesKeepsFlag(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, db.Post{Title: "Same", Content: "<p>Body</p>"})

	req := multipartRequest(t, "/Blog/BlogAdmin/EditBlog/1", map[string]string{
		"title": "Same", "content": "<p>Body</p>", "confirm": "yes",
	}, "", nil)
	followRedirect(t, env, env.do(req))

	if env.mustGet(t, 1).Edited {
		t.Fatalf("an unchanged save should not flag the post")
	}
}

func TestUpdatePostMissing(t *testing.T) {
	env := newTestEnv(t)

	req := multipartRequest(t, "/Blog/BlogAdmin/EditBlog/5", map[string]string{
		"title": "Ghost", "confirm": "yes",
	}, "", nil)
	if rr := env.do(req); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestDeletePost(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, db.Post{Title: "Keep"}, db.Post{Title: "Drop"})

	rr := env.postForm("/Blog/BlogAdmin/delete/2", url.Values{"confirm": {"yes"}})
	body := followRedirect(t, env, rr)
	if !strings.Contains(body, "The blog was deleted") {
		t.Fatalf("expected delete flash")
	}
	if strings.Contains(body, "admin-post-2") {
		t.Fatalf("deleted post should be gone from the panel")
	}

	posts, _ := env.posts.List(context.Background())
	if len(posts) != 1 || posts[0].Title != "Keep" {
		t.Fatalf("unexpected posts %+v", posts)
	}
}

func TestDeletePostRequiresConfirmation(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, db.Post{Title: "Keep"})

	body := followRedirect(t, env, env.postForm("/Blog/BlogAdmin/delete/1", url.Values{}))
	if !strings.Contains(body, "Delete cancelled") {
		t.Fatalf("expected cancellation flash")
	}
	env.mustGet(t, 1)
}

func TestDeleteMissingPostFlashesError(t *testing.T) {
	env := newTestEnv(t)

	body := followRedirect(t, env, env.postForm("/Blog/BlogAdmin/delete/3", url.Values{"confirm": {"yes"}}))
	if !strings.Contains(body, "That blog no longer exists") {
		t.Fatalf("expected not found flash")
	}
}

func TestRevalidateEditedFromPanel(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t,
		db.Post{Title: "a", Edited: true},
		db.Post{Title: "b"},
		db.Post{Title: "c", Edited: true},
	)

	body := followRedirect(t, env, env.postForm("/Blog/BlogAdmin/revalidate", url.Values{}))
	if !strings.Contains(body, "Revalidation successful!") {
		t.Fatalf("expected success flash")
	}
	if strings.Contains(body, `<mark class="edited">`) {
		t.Fatalf("no post should be flagged after revalidation")
	}

	for _, id := range []uint{1, 2, 3} {
		if env.mustGet(t, id).Edited {
			t.Fatalf("post %d should be clean", id)
		}
	}
}

func TestRevalidateEditedWithNothingToSend(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, db.Post{Title: "clean"})

	body := followRedirect(t, env, env.postForm("/Blog/BlogAdmin/revalidate", url.Values{}))
	if !strings.Contains(body, "No edited blogs to revalidate") {
		t.Fatalf("expected nothing-to-revalidate flash")
	}
}
