// Package blobstore stores uploaded credential documents and prescriptions
// under path-addressed keys. Contents are never interpreted; only the
// extension and size are checked before a write.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

var (
	ErrBlobNotFound     = errors.New("blob not found")
	ErrFileTooLarge     = errors.New("file size exceeds 5MB limit")
	ErrInvalidExtension = errors.New("only PDF, PNG, JPG, and JPEG files are allowed")
	ErrInvalidPath      = errors.New("invalid blob path")
	ErrMissingFile      = errors.New("file is required")
)

// MaxFileSize is the largest accepted upload (5 MB).
const MaxFileSize = 5 * 1024 * 1024

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// Store is the contract the services need from blob storage.
type Store interface {
	// Save writes content at key and returns a stable locator for it.
	Save(ctx context.Context, key string, content io.Reader) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	URL(key string) string
}

// ValidateFile checks name and declared size of an upload.
func ValidateFile(name string, size int64) error {
	if !allowedExtensions[strings.ToLower(filepath.Ext(name))] {
		return ErrInvalidExtension
	}
	if size > MaxFileSize {
		return ErrFileTooLarge
	}
	return nil
}

// Upload is a file received from a client, not yet stored.
type Upload struct {
	Name    string
	Size    int64
	Content io.Reader
}

// Validate applies ValidateFile to the upload.
func (u *Upload) Validate() error {
	if u == nil || u.Content == nil {
		return ErrMissingFile
	}
	return ValidateFile(u.Name, u.Size)
}

// NewKey builds "<prefix>/<uuid><ext>" preserving the lower-cased extension
// of the original file name.
func NewKey(prefix, filename string) string {
	return path.Join(prefix, uuid.NewString()+strings.ToLower(filepath.Ext(filename)))
}

// FSStore keeps blobs on an afero filesystem. Production uses an OS
// directory, tests use an in-memory filesystem.
type FSStore struct {
	fs      afero.Fs
	baseURL string
}

// NewFSStore roots the store at dir on the host filesystem.
func NewFSStore(dir, baseURL string) (*FSStore, error) {
	osFs := afero.NewOsFs()
	if err := osFs.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create blob root %s: %w", dir, err)
	}
	return NewStore(afero.NewBasePathFs(osFs, dir), baseURL), nil
}

func NewStore(fs afero.Fs, baseURL string) *FSStore {
	return &FSStore{fs: fs, baseURL: strings.TrimRight(baseURL, "/")}
}

func cleanKey(key string) (string, error) {
	k := path.Clean("/" + key)
	if k == "/" || strings.Contains(key, "..") {
		return "", ErrInvalidPath
	}
	return k, nil
}

func (s *FSStore) Save(ctx context.Context, key string, content io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	k, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	if err := s.fs.MkdirAll(path.Dir(k), 0o750); err != nil {
		return "", fmt.Errorf("failed to create blob directory: %w", err)
	}

	f, err := s.fs.OpenFile(k, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o640)
	if err != nil {
		return "", fmt.Errorf("failed to create blob %s: %w", key, err)
	}

	n, err := io.Copy(f, io.LimitReader(content, MaxFileSize+1))
	closeErr := f.Close()
	if err == nil && n > MaxFileSize {
		err = ErrFileTooLarge
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = s.fs.Remove(k)
		if errors.Is(err, ErrFileTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("failed to write blob %s: %w", key, err)
	}

	return s.URL(key), nil
}

func (s *FSStore) Exists(ctx context.Context, key string) (bool, error) {
	k, err := cleanKey(key)
	if err != nil {
		return false, err
	}
	ok, err := afero.Exists(s.fs, k)
	if err != nil {
		return false, fmt.Errorf("failed to stat blob %s: %w", key, err)
	}
	return ok, nil
}

func (s *FSStore) Delete(ctx context.Context, key string) error {
	k, err := cleanKey(key)
	if err != nil {
		return err
	}
	if err := s.fs.Remove(k); err != nil {
		if os.IsNotExist(err) {
			return ErrBlobNotFound
		}
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}

func (s *FSStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	k, err := cleanKey(key)
	if err != nil {
		return nil, err
	}
	f, err := s.fs.Open(k)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to open blob %s: %w", key, err)
	}
	return f, nil
}

// URL is the public locator of key.
func (s *FSStore) URL(key string) string {
	return s.baseURL + "/" + strings.TrimLeft(key, "/")
}
