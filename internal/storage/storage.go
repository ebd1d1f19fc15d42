// Package storage stores uploaded photos and hands back retrievable URLs.
package storage

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
)

//go:generate mockgen -destination=mocks/mock_storage.go -package=mocks squadmatch/server/internal/storage ObjectStore

var (
	ErrObjectNotFound = errors.New("object not found")
	ErrTooLarge       = errors.New("object exceeds size limit")
	ErrInvalidPath    = errors.New("invalid object path")
)

// ObjectStore stores bytes at a slash separated path
type ObjectStore interface {
	// Put writes r at path and returns the public URL of the object.
	Put(ctx context.Context, path string, r io.Reader) (string, error)
	Delete(ctx context.Context, path string) error
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}

// CleanPath normalizes an object path and rejects anything escaping the root
func CleanPath(path string) (string, error) {
	cleaned := filepath.ToSlash(filepath.Clean("/" + path))
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." || strings.Contains(path, "..") {
		return "", ErrInvalidPath
	}
	return cleaned, nil
}

// ContentType returns the MIME type served for an object path
func ContentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}

// AllowedImageExts lists the upload extensions accepted for photos
const AllowedImageExts = ".jpg,.jpeg,.png,.gif,.webp"

// IsImage reports whether filename carries an accepted image extension
func IsImage(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return false
	}
	for _, allowed := range strings.Split(AllowedImageExts, ",") {
		if ext == allowed {
			return true
		}
	}
	return false
}
