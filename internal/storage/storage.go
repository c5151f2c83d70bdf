// Package storage owns the upload directory: raw presentation files live here
// under server-generated names until they are parsed or deleted.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"slidedeck/internal/model"
)

var (
	ErrInvalidName = errors.New("invalid stored file name")

	unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)
)

// StoredFile describes a file written by Save.
type StoredFile struct {
	DocumentID string
	Name       string
	Path       string
	Size       int64
}

type Store struct {
	dir      string
	maxBytes int64
}

// New creates dir if needed. maxBytes <= 0 disables the size limit.
func New(dir string, maxBytes int64) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory failed: %w", err)
	}
	return &Store{dir: dir, maxBytes: maxBytes}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Save copies src to {dir}/{uuid}.{ext}. A body over the size limit is
// discarded and reported as model.ErrFileTooLarge.
func (s *Store) Save(src io.Reader, ext string) (StoredFile, error) {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if ext == "" || unsafeFilenameChars.MatchString(ext) {
		return StoredFile{}, fmt.Errorf("%w: extension %q", ErrInvalidName, ext)
	}

	id := uuid.NewString()
	name := id + "." + ext
	path := filepath.Join(s.dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return StoredFile{}, fmt.Errorf("create upload file failed: %w", err)
	}

	reader := src
	if s.maxBytes > 0 {
		reader = io.LimitReader(src, s.maxBytes+1)
	}
	n, copyErr := io.Copy(dst, reader)
	closeErr := dst.Close()

	switch {
	case copyErr != nil:
		_ = os.Remove(path)
		return StoredFile{}, fmt.Errorf("write upload file failed: %w", copyErr)
	case closeErr != nil:
		_ = os.Remove(path)
		return StoredFile{}, fmt.Errorf("close upload file failed: %w", closeErr)
	case s.maxBytes > 0 && n > s.maxBytes:
		_ = os.Remove(path)
		return StoredFile{}, model.ErrFileTooLarge
	}

	return StoredFile{DocumentID: id, Name: name, Path: path, Size: n}, nil
}

// Remove deletes a stored file. A file that is already gone is not an error.
func (s *Store) Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete upload file failed: %w", err)
	}
	return nil
}

// Resolve maps a bare stored file name to its path. Names that could escape
// the upload directory are rejected; a missing file yields os.ErrNotExist.
func (s *Store) Resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) {
		return "", ErrInvalidName
	}
	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", ErrInvalidName
	}
	return path, nil
}

// SanitizeFilename reduces a client supplied name to a safe display name:
// directory parts dropped, whitespace collapsed to underscores, anything
// outside [A-Za-z0-9_.-] removed. It never returns an empty string.
func SanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, `\`, "/")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	name = strings.Join(strings.Fields(name), "_")
	name = unsafeFilenameChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	if name == "" {
		return "upload"
	}
	return name
}

// Extension returns the lowercased extension of name without the dot.
func Extension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}
