package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sagarc03/fragments"
	"github.com/sagarc03/fragments/config"
	"github.com/sagarc03/fragments/keybackend"
)

func TestResolveOwner(t *testing.T) {
	t.Run("user is hashed", func(t *testing.T) {
		got, err := resolveOwner("alice@example.com", "")
		require.NoError(t, err)
		assert.Equal(t, keybackend.OwnerID("alice@example.com"), got)
	})

	t.Run("owner is used as is", func(t *testing.T) {
		got, err := resolveOwner("", "abc123")
		require.NoError(t, err)
		assert.Equal(t, "abc123", got)
	})

	t.Run("invalid owner", func(t *testing.T) {
		_, err := resolveOwner("", "../etc")
		assert.Error(t, err)
	})

	t.Run("neither", func(t *testing.T) {
		_, err := resolveOwner("", "")
		assert.Error(t, err)
	})
}

func TestCollectFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.md"), []byte("# a"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b.txt"), []byte("b"), 0o600))

	t.Run("single file", func(t *testing.T) {
		files, err := collectFiles(filepath.Join(dir, "a.md"), false)
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "a.md")}, files)
	})

	t.Run("directory requires recursive", func(t *testing.T) {
		_, err := collectFiles(dir, false)
		assert.ErrorContains(t, err, "use -r")
	})

	t.Run("recursive", func(t *testing.T) {
		files, err := collectFiles(dir, true)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{
			filepath.Join(dir, "a.md"),
			filepath.Join(dir, "sub", "b.txt"),
		}, files)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := collectFiles(filepath.Join(dir, "missing"), false)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestDetectType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	tests := []struct {
		name string
		path string
		data []byte
		want string
	}{
		{"markdown extension", "notes.md", []byte("# hi"), fragments.TypeMarkdown},
		{"uppercase extension", "PHOTO.JPG", nil, fragments.TypeJPEG},
		{"sniffed image", "image", png, fragments.TypePNG},
		{"unknown", "archive.zip", []byte("PK\x03\x04"), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, detectType(tt.path, tt.data))
		})
	}
}

func TestRequirePersistent(t *testing.T) {
	cfg := &config.Config{}
	cfg.Database.Type = "memory"
	assert.ErrorIs(t, requirePersistent(cfg), errEphemeralBackend)

	cfg.Database.Type = "sqlite"
	assert.NoError(t, requirePersistent(cfg))
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}

	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}
