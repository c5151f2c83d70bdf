package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slidedeck/internal/model"
)

func newTestStore(t *testing.T, maxBytes int64) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "uploads"), maxBytes)
	require.NoError(t, err)
	return s
}

func TestSave_UsesGeneratedName(t *testing.T) {
	s := newTestStore(t, 0)

	stored, err := s.Save(strings.NewReader("deck bytes"), ".PPTX")
	require.NoError(t, err)

	_, err = uuid.Parse(stored.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, stored.DocumentID+".pptx", stored.Name)
	assert.Equal(t, filepath.Join(s.Dir(), stored.Name), stored.Path)
	assert.EqualValues(t, len("deck bytes"), stored.Size)

	content, err := os.ReadFile(stored.Path)
	require.NoError(t, err)
	assert.Equal(t, "deck bytes", string(content))
}

func TestSave_RejectsOversizedBody(t *testing.T) {
	s := newTestStore(t, 8)

	_, err := s.Save(bytes.NewReader(make([]byte, 9)), "pdf")
	require.ErrorIs(t, err, model.ErrFileTooLarge)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "oversized upload must not be kept")

	stored, err := s.Save(bytes.NewReader(make([]byte, 8)), "pdf")
	require.NoError(t, err)
	assert.EqualValues(t, 8, stored.Size)
}

func TestSave_RejectsBadExtension(t *testing.T) {
	s := newTestStore(t, 0)
	_, err := s.Save(strings.NewReader("x"), "../pdf")
	require.ErrorIs(t, err, ErrInvalidName)
	_, err = s.Save(strings.NewReader("x"), "")
	require.ErrorIs(t, err, ErrInvalidName)
}

func TestRemove_IsIdempotent(t *testing.T) {
	s := newTestStore(t, 0)
	stored, err := s.Save(strings.NewReader("x"), "pdf")
	require.NoError(t, err)

	require.NoError(t, s.Remove(stored.Path))
	assert.NoFileExists(t, stored.Path)
	require.NoError(t, s.Remove(stored.Path))
}

func TestResolve(t *testing.T) {
	s := newTestStore(t, 0)
	stored, err := s.Save(strings.NewReader("x"), "pdf")
	require.NoError(t, err)

	path, err := s.Resolve(stored.Name)
	require.NoError(t, err)
	assert.Equal(t, stored.Path, path)

	for _, name := range []string{"", ".", "..", "../secret.pdf", "a/b.pdf", `..\b.pdf`} {
		_, err := s.Resolve(name)
		assert.ErrorIs(t, err, ErrInvalidName, name)
	}

	_, err = s.Resolve("missing.pdf")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Seed Deck 2024.pptx", "Seed_Deck_2024.pptx"},
		{"../../etc/passwd", "passwd"},
		{`C:\Users\jane\My Deck.pdf`, "My_Deck.pdf"},
		{"naïve résumé.pdf", "nave_rsum.pdf"},
		{"...", "upload"},
		{"", "upload"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), tt.in)
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "pdf", Extension("Deck.PDF"))
	assert.Equal(t, "", Extension("README"))
}
