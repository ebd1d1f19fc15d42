package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Local keeps objects on disk under Root and serves them from BaseURL/uploads
type Local struct {
	Root     string
	BaseURL  string
	MaxBytes int64
}

func NewLocal(root, baseURL string, maxBytes int64) *Local {
	return &Local{Root: root, BaseURL: baseURL, MaxBytes: maxBytes}
}

func (l *Local) fullPath(path string) (string, string, error) {
	cleaned, err := CleanPath(path)
	if err != nil {
		return "", "", err
	}
	return cleaned, filepath.Join(l.Root, filepath.FromSlash(cleaned)), nil
}

func (l *Local) Put(ctx context.Context, path string, r io.Reader) (string, error) {
	cleaned, full, err := l.fullPath(path)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", errors.Wrap(err, "local.Put.MkdirAll")
	}

	// write to a temp file first so readers never see a partial object
	tmp := fmt.Sprintf("%s.%s.tmp", full, uuid.NewString())
	f, err := os.Create(tmp)
	if err != nil {
		return "", errors.Wrap(err, "local.Put.Create")
	}

	src := r
	if l.MaxBytes > 0 {
		src = io.LimitReader(r, l.MaxBytes+1)
	}
	n, err := io.Copy(f, src)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err == nil && l.MaxBytes > 0 && n > l.MaxBytes {
		err = ErrTooLarge
	}
	if err != nil {
		os.Remove(tmp)
		if errors.Is(err, ErrTooLarge) {
			return "", err
		}
		return "", errors.Wrap(err, "local.Put.Copy")
	}

	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return "", errors.Wrap(err, "local.Put.Rename")
	}
	return l.URL(cleaned), nil
}

func (l *Local) Delete(_ context.Context, path string) error {
	_, full, err := l.fullPath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			return ErrObjectNotFound
		}
		return errors.Wrap(err, "local.Delete.Remove")
	}
	return nil
}

func (l *Local) Open(_ context.Context, path string) (io.ReadCloser, error) {
	_, full, err := l.fullPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrObjectNotFound
		}
		return nil, errors.Wrap(err, "local.Open.Open")
	}
	return f, nil
}

// URL returns the public address of an already cleaned path
func (l *Local) URL(path string) string {
	return l.BaseURL + "/uploads/" + path
}
