package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

var (
	errPhotoNotFound = errors.New("photo not found")
	errPhotoExists   = errors.New("photo already exists")
)

type LocalPhotoStore struct {
	basePath string
}

func NewLocalPhotoStore(basePath string) (*LocalPhotoStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create photo directory: %w", err)
	}
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("invalid base path: %w", err)
	}
	return &LocalPhotoStore{basePath: abs}, nil
}

// Persist moves sourcePath into the photo directory as name. The returned
// reference is the absolute path of the stored file. An existing photo with
// the same name is never replaced.
func (s *LocalPhotoStore) Persist(ctx context.Context, sourcePath, name string) (string, error) {
	dest, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	if err := moveFile(sourcePath, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// Restore moves a stored photo back out of the store to destPath, undoing
// Persist. destPath must not exist.
func (s *LocalPhotoStore) Restore(ctx context.Context, ref, destPath string) error {
	src, err := s.resolve(ref)
	if err != nil {
		return err
	}
	return moveFile(src, destPath)
}

func (s *LocalPhotoStore) Get(ctx context.Context, ref string) (io.ReadCloser, string, error) {
	filePath, err := s.resolve(ref)
	if err != nil {
		return nil, "", err
	}

	f, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", errPhotoNotFound
		}
		return nil, "", fmt.Errorf("failed to open file: %w", err)
	}
	return f, extToMimeType(filePath), nil
}

func (s *LocalPhotoStore) Delete(ctx context.Context, ref string) error {
	filePath, err := s.resolve(ref)
	if err != nil {
		return err
	}

	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// resolve maps a reference (a bare name or an absolute path inside the store)
// to a file path and rejects anything outside basePath.
func (s *LocalPhotoStore) resolve(ref string) (string, error) {
	ref = strings.TrimPrefix(ref, "file://")
	if ref == "" {
		return "", fmt.Errorf("empty photo reference")
	}

	path := ref
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.basePath, ref)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	if !strings.HasPrefix(absPath, s.basePath+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal attempt")
	}
	return absPath, nil
}

// moveFile moves src to dest without ever replacing dest. A hard link is
// tried first; across filesystems it falls back to an exclusive copy.
func moveFile(src, dest string) error {
	err := os.Link(src, dest)
	switch {
	case err == nil:
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("%w: %s", errPhotoExists, dest)
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("failed to open source photo: %w", err)
	default:
		if err := copyFile(src, dest); err != nil {
			return err
		}
	}

	if err := os.Remove(src); err != nil {
		slog.Warn("failed to remove source photo after move", "path", src, "error", err)
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source photo: %w", err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", errPhotoExists, dest)
		}
		return fmt.Errorf("failed to create file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		if cerr := out.Close(); cerr != nil {
			slog.Error("failed to close file after write error", "error", cerr)
		}
		if rerr := os.Remove(dest); rerr != nil {
			slog.Error("failed to remove file after write error", "error", rerr)
		}
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := out.Close(); err != nil {
		if rerr := os.Remove(dest); rerr != nil {
			slog.Error("failed to remove file after close error", "error", rerr)
		}
		return fmt.Errorf("failed to close file: %w", err)
	}
	return nil
}

func extToMimeType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
