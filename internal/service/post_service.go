package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/blogdesk/internal/blob"
	"github.com/blogdesk/internal/content"
	"github.com/blogdesk/internal/db"
	"github.com/blogdesk/internal/pagecache"
	"github.com/blogdesk/internal/store"
	"github.com/rs/zerolog/log"
)

var (
	ErrPostNotFound  = errors.New("post not found")
	ErrCancelled     = errors.New("submission cancelled")
	ErrUpload        = errors.New("image upload failed")
	ErrStore         = errors.New("record store request failed")
	ErrImageTooLarge = errors.New("image exceeds the upload limit")
)

const (
	// SavePrompt is shown before a post is written.
	SavePrompt = "Are you sure you want to save?"
	// DeletePrompt is shown before a post is removed.
	DeletePrompt = "Are you sure you want to delete this post?"

	defaultMaxImageBytes = 10 << 20
)

// ValidationError reports a field-level problem with a draft.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ImageUpload is a replacement image chosen in the form.
type ImageUpload struct {
	Filename string
	Data     io.Reader
}

// Draft is either a CreateDraft or an EditDraft.
type Draft interface {
	values() draftValues
}

type draftValues struct {
	title         string
	content       string
	contentFormat string
	image         *ImageUpload
}

// CreateDraft holds form input for a new post.
type CreateDraft struct {
	Title         string
	Content       string
	ContentFormat string
	Image         *ImageUpload
}

func (d CreateDraft) values() draftValues {
	return draftValues{title: d.Title, content: d.Content, contentFormat: d.ContentFormat, image: d.Image}
}

// EditDraft holds form input for an existing post.
type EditDraft struct {
	ID            uint
	Title         string
	Content       string
	ContentFormat string
	Image         *ImageUpload
}

func (d EditDraft) values() draftValues {
	return draftValues{title: d.Title, content: d.Content, contentFormat: d.ContentFormat, image: d.Image}
}

// Confirmer asks the user to approve an action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	return f(ctx, prompt)
}

// Confirmed approves every prompt.
var Confirmed Confirmer = ConfirmFunc(func(context.Context, string) bool { return true })

// Declined rejects every prompt.
var Declined Confirmer = ConfirmFunc(func(context.Context, string) bool { return false })

// PostServiceOptions tunes uploads.
type PostServiceOptions struct {
	Bucket        string
	MaxImageBytes int64
	// Pages, when set, drops the listing page after a post is created or deleted.
	Pages pagecache.Cache
	Now   func() time.Time
}

// PostService runs the post form workflow against the record and blob stores.
type PostService struct {
	posts store.PostStore
	blobs blob.Store
	opts  PostServiceOptions
}

// NewPostService creates a PostService instance.
func NewPostService(posts store.PostStore, blobs blob.Store, opts PostServiceOptions) *PostService {
	if opts.MaxImageBytes <= 0 {
		opts.MaxImageBytes = defaultMaxImageBytes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Pages == nil {
		opts.Pages = pagecache.Nop{}
	}
	return &PostService{posts: posts, blobs: blobs, opts: opts}
}

// List returns all posts.
func (s *PostService) List(ctx context.Context) ([]db.Post, error) {
	posts, err := s.posts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return posts, nil
}

// Get fetches a post by id.
func (s *PostService) Get(ctx context.Context, id uint) (*db.Post, error) {
	post, err := s.posts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return post, nil
}

// Validate checks the fields the form requires.
func Validate(d Draft) error {
	if strings.TrimSpace(d.values().title) == "" {
		return &ValidationError{Field: "title", Message: "Title is required"}
	}
	return nil
}

// Submit validates, confirms, uploads the image if one was chosen and persists the draft.
// A failed upload aborts before anything is written.
func (s *PostService) Submit(ctx context.Context, d Draft, confirm Confirmer) (*db.Post, error) {
	if err := Validate(d); err != nil {
		return nil, err
	}

	v := d.values()
	body, err := content.Normalize(v.contentFormat, v.content)
	if err != nil {
		return nil, &ValidationError{Field: "content", Message: "Content could not be converted"}
	}

	var existing *db.Post
	if edit, ok := d.(EditDraft); ok {
		existing, err = s.Get(ctx, edit.ID)
		if err != nil {
			return nil, err
		}
	}

	if confirm == nil || !confirm.Confirm(ctx, SavePrompt) {
		return nil, ErrCancelled
	}

	imageURL := ""
	if v.image != nil {
		imageURL, err = s.uploadImage(ctx, v.image)
		if err != nil {
			return nil, err
		}
	}

	if existing == nil {
		post := &db.Post{
			Title:    v.title,
			Content:  body,
			ImageURL: db.ImageURLPtr(imageURL),
			Edited:   false,
		}
		if err := s.posts.Insert(ctx, post); err != nil {
			s.logOrphan(imageURL, err)
			return nil, fmt.Errorf("%w: %w", ErrStore, err)
		}
		s.dropPages(ctx, pagecache.ListKey)
		return post, nil
	}

	updated := *existing
	updated.Title = v.title
	updated.Content = body
	if imageURL != "" {
		updated.ImageURL = db.ImageURLPtr(imageURL)
	}
	if changed(existing, &updated) {
		updated.Edited = true
	}

	if err := s.posts.Update(ctx, &updated); err != nil {
		s.logOrphan(imageURL, err)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("%w: %w", ErrStore, err)
	}
	return &updated, nil
}

// Delete removes a post after confirmation.
func (s *PostService) Delete(ctx context.Context, id uint) error {
	if err := s.posts.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("%w: %w", ErrStore, err)
	}
	s.dropPages(ctx, pagecache.ListKey, pagecache.DetailKey(id))
	return nil
}

func (s *PostService) uploadImage(ctx context.Context, image *ImageUpload) (string, error) {
	if image.Data == nil {
		return "", fmt.Errorf("%w: %w", ErrUpload, blob.ErrNotImage)
	}

	data, err := io.ReadAll(io.LimitReader(image.Data, s.opts.MaxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpload, err)
	}
	if int64(len(data)) > s.opts.MaxImageBytes {
		return "", fmt.Errorf("%w: %w", ErrUpload, ErrImageTooLarge)
	}
	if _, err := blob.DetectImage(data); err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpload, err)
	}

	objectPath := blob.ObjectPath(s.opts.Bucket, image.Filename, s.opts.Now())
	url, err := s.blobs.Upload(ctx, objectPath, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrUpload, err)
	}
	return url, nil
}

func (s *PostService) logOrphan(imageURL string, cause error) {
	if imageURL == "" {
		return
	}
	log.Warn().Err(cause).Str("image_url", imageURL).Msg("post write failed after upload, image left orphaned")
}

func (s *PostService) dropPages(ctx context.Context, keys ...string) {
	if err := s.opts.Pages.Invalidate(ctx, keys...); err != nil {
		log.Error().Err(err).Strs("keys", keys).Msg("failed to drop cached pages")
	}
}

func changed(before, after *db.Post) bool {
	return before.Title != after.Title ||
		before.Content != after.Content ||
		before.Image() != after.Image()
}
