// Package blob uploads post images and hands back durable public URLs.
package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"
	"unicode"
)

var (
	ErrInvalidPath = errors.New("invalid blob path")
	ErrExists      = errors.New("blob already exists")
)

// Store uploads a binary file under a path and returns its public URL.
type Store interface {
	Upload(ctx context.Context, objectPath string, r io.Reader) (string, error)
}

// ObjectPath builds "<bucket>/<unix millis>_<filename>" for an uploaded file.
func ObjectPath(bucket, filename string, now time.Time) string {
	name := cleanFilename(filename)
	object := fmt.Sprintf("%d_%s", now.UnixMilli(), name)
	bucket = strings.Trim(bucket, "/")
	if bucket == "" {
		return object
	}
	return bucket + "/" + object
}

func cleanFilename(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == ".." {
		base = ""
	}

	var b strings.Builder
	for _, r := range base {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	cleaned := strings.Trim(b.String(), "._")
	if cleaned == "" {
		return "image"
	}
	return cleaned
}

// validObjectPath rejects absolute paths and traversal outside the bucket root.
func validObjectPath(objectPath string) (string, error) {
	trimmed := strings.TrimSpace(objectPath)
	if trimmed == "" || strings.HasPrefix(trimmed, "/") || strings.Contains(trimmed, "\\") {
		return "", ErrInvalidPath
	}
	cleaned := path.Clean(trimmed)
	if cleaned != trimmed || cleaned == "." || strings.HasPrefix(cleaned, "../") || cleaned == ".." {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}
