package objectstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// FilesystemStore keeps objects as plain files under a root directory. The
// router serves that directory so the returned URLs resolve.
type FilesystemStore struct {
	root    string
	baseURL string
}

func NewFilesystemStore(root, publicBaseURL string) (*FilesystemStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("objectstore: filesystem root is required")
	}
	if strings.TrimSpace(publicBaseURL) == "" {
		return nil, errors.New("objectstore: public base url is required")
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("objectstore: resolve root: %w", err)
	}

	if err := os.MkdirAll(absRoot, 0o755); err != nil {
		return nil, fmt.Errorf("objectstore: create root: %w", err)
	}

	return &FilesystemStore{root: absRoot, baseURL: publicBaseURL}, nil
}

func (s *FilesystemStore) Root() string {
	return s.root
}

func (s *FilesystemStore) Put(ctx context.Context, key string, data []byte, contentType string) (*PutResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, keyError(fmt.Errorf("objectstore: create directory: %w", err))
	}

	// Write to a sibling temp file and rename so readers never see a partial object.
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return nil, fmt.Errorf("objectstore: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return nil, fmt.Errorf("objectstore: write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return nil, fmt.Errorf("objectstore: close object: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return nil, keyError(fmt.Errorf("objectstore: commit object: %w", err))
	}

	return &PutResult{
		Key:  key,
		URL:  PublicURL(s.baseURL, key),
		Size: int64(len(data)),
	}, nil
}

func (s *FilesystemStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("objectstore: delete object: %w", err)
	}

	return nil
}

func (s *FilesystemStore) Ping(ctx context.Context) error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("objectstore: stat root: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("objectstore: root %s is not a directory", s.root)
	}
	return nil
}

// keyError marks path length failures as ErrInvalidKey: the key is at fault,
// not the backend.
func keyError(err error) error {
	if errors.Is(err, syscall.ENAMETOOLONG) {
		return fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	return err
}

func (s *FilesystemStore) resolve(key string) (string, error) {
	if err := ValidateKey(key); err != nil {
		return "", err
	}

	path := filepath.Join(s.root, filepath.FromSlash(key))

	rel, err := filepath.Rel(s.root, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", ErrInvalidKey
	}

	return path, nil
}
