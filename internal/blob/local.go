package blob

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes blobs below a directory that the router serves statically.
type LocalStore struct {
	root      string
	publicURL string
}

// NewLocalStore creates the upload root and returns a store whose URLs start with publicURL.
func NewLocalStore(root, publicURL string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{root: root, publicURL: strings.TrimRight(publicURL, "/")}, nil
}

// Root returns the directory holding uploaded files.
func (s *LocalStore) Root() string {
	return s.root
}

// Upload stores the file and returns its public URL. Existing files are never replaced.
func (s *LocalStore) Upload(ctx context.Context, objectPath string, r io.Reader) (string, error) {
	cleaned, err := validObjectPath(objectPath)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	target := filepath.Join(s.root, filepath.FromSlash(cleaned))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", err
	}

	file, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return "", ErrExists
		}
		return "", err
	}

	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		os.Remove(target)
		return "", err
	}
	if err := file.Close(); err != nil {
		os.Remove(target)
		return "", err
	}

	return s.publicURL + "/" + cleaned, nil
}
