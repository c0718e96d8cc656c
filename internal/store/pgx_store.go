package store

import (
	"context"
	"errors"

	"github.com/blogdesk/internal/db"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const blogsSchema = `
CREATE TABLE IF NOT EXISTS blogs (
	id         BIGSERIAL PRIMARY KEY,
	title      TEXT NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	image_url  TEXT,
	edited     BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PgxStore is the hosted Postgres record store.
type PgxStore struct {
	DB *pgxpool.Pool
}

// NewPgxStore connects to databaseURL and verifies the connection.
func NewPgxStore(ctx context.Context, databaseURL string) (*PgxStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &PgxStore{DB: pool}, nil
}

// EnsureSchema creates the blogs table when missing.
func (s *PgxStore) EnsureSchema(ctx context.Context) error {
	_, err := s.DB.Exec(ctx, blogsSchema)
	return err
}

// Close releases the pool.
func (s *PgxStore) Close() {
	s.DB.Close()
}

func (s *PgxStore) List(ctx context.Context) ([]db.Post, error) {
	query := `
	SELECT id, title, content, image_url, edited, created_at
	FROM blogs
	ORDER BY id ASC
	`
	rows, err := s.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []db.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *PgxStore) Get(ctx context.Context, id uint) (*db.Post, error) {
	query := `
	SELECT id, title, content, image_url, edited, created_at
	FROM blogs
	WHERE id = $1
	`
	p, err := scanPost(s.DB.QueryRow(ctx, query, int64(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *PgxStore) Insert(ctx context.Context, post *db.Post) error {
	query := `
	INSERT INTO blogs (title, content, image_url, edited)
	VALUES ($1, $2, $3, $4)
	RETURNING id, created_at
	`
	var id int64
	if err := s.DB.QueryRow(ctx, query, post.Title, post.Content, post.ImageURL, post.Edited).
		Scan(&id, &post.CreatedAt); err != nil {
		return err
	}
	post.ID = uint(id)
	return nil
}

func (s *PgxStore) Update(ctx context.Context, post *db.Post) error {
	query := `
	UPDATE blogs
	SET title = $2, content = $3, image_url = $4, edited = $5
	WHERE id = $1
	`
	tag, err := s.DB.Exec(ctx, query, int64(post.ID), post.Title, post.Content, post.ImageURL, post.Edited)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PgxStore) Delete(ctx context.Context, id uint) error {
	tag, err := s.DB.Exec(ctx, `DELETE FROM blogs WHERE id = $1`, int64(id))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PgxStore) ClearEdited(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	params := make([]int64, len(ids))
	for i, id := range ids {
		params[i] = int64(id)
	}
	tag, err := s.DB.Exec(ctx, `UPDATE blogs SET edited = FALSE WHERE id = ANY($1)`, params)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanPost(row pgx.Row) (db.Post, error) {
	var (
		p  db.Post
		id int64
	)
	err := row.Scan(&id, &p.Title, &p.Content, &p.ImageURL, &p.Edited, &p.CreatedAt)
	p.ID = uint(id)
	return p, err
}
