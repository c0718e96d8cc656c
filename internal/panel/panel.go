// Package panel holds the admin list state: loaded posts, deletes and revalidation.
package panel

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/blogdesk/internal/db"
	"github.com/blogdesk/internal/service"
)

var (
	// ErrNothingToRevalidate is returned when no loaded post is flagged edited.
	ErrNothingToRevalidate = errors.New("no edited posts to revalidate")
	// ErrBusy is returned while another action on the same panel is in flight.
	ErrBusy = errors.New("another action is in progress")
)

// Posts is the part of the post service the panel needs.
type Posts interface {
	List(ctx context.Context) ([]db.Post, error)
	Delete(ctx context.Context, id uint) error
}

// RevalidationClient sends edited post ids to the revalidation endpoint.
type RevalidationClient interface {
	Revalidate(ctx context.Context, ids []uint) (string, error)
}

// Panel is the admin list view state.
type Panel struct {
	posts       Posts
	revalidator RevalidationClient

	mu    sync.Mutex
	busy  bool
	items []db.Post
}

// New creates an empty panel; call Load before reading it.
func New(posts Posts, revalidator RevalidationClient) *Panel {
	return &Panel{posts: posts, revalidator: revalidator}
}

// Load replaces the view state with the full post collection.
func (p *Panel) Load(ctx context.Context) error {
	items, err := p.posts.List(ctx)
	if err != nil {
		return err
	}
	p.mu.Lock()
	p.items = items
	p.mu.Unlock()
	return nil
}

// Posts returns a copy of the loaded posts.
func (p *Panel) Posts() []db.Post {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]db.Post(nil), p.items...)
}

// EditedIDs returns the ids of loaded posts flagged edited, ascending.
func (p *Panel) EditedIDs() []uint {
	p.mu.Lock()
	defer p.mu.Unlock()
	var ids []uint
	for _, item := range p.items {
		if item.Edited {
			ids = append(ids, item.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Delete confirms, deletes by id and removes the post from the view state.
// On error the view state is left as it was.
func (p *Panel) Delete(ctx context.Context, id uint, confirm service.Confirmer) error {
	if confirm == nil || !confirm.Confirm(ctx, service.DeletePrompt) {
		return service.ErrCancelled
	}
	if err := p.begin(); err != nil {
		return err
	}
	defer p.end()

	if err := p.posts.Delete(ctx, id); err != nil {
		return err
	}

	p.mu.Lock()
	kept := p.items[:0:0]
	for _, item := range p.items {
		if item.ID != id {
			kept = append(kept, item)
		}
	}
	p.items = kept
	p.mu.Unlock()
	return nil
}

// Revalidate sends every edited id to the endpoint and, on success, clears the
// local flag for exactly those ids.
func (p *Panel) Revalidate(ctx context.Context) (string, error) {
	ids := p.EditedIDs()
	if len(ids) == 0 {
		return "", ErrNothingToRevalidate
	}
	if err := p.begin(); err != nil {
		return "", err
	}
	defer p.end()

	message, err := p.revalidator.Revalidate(ctx, ids)
	if err != nil {
		return "", err
	}

	sent := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		sent[id] = struct{}{}
	}
	p.mu.Lock()
	for i := range p.items {
		if _, ok := sent[p.items[i].ID]; ok {
			p.items[i].Edited = false
		}
	}
	p.mu.Unlock()
	return message, nil
}

func (p *Panel) begin() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.busy {
		return ErrBusy
	}
	p.busy = true
	return nil
}

func (p *Panel) end() {
	p.mu.Lock()
	p.busy = false
	p.mu.Unlock()
}
