// Package filesystem provides a file system payload store for fragments.
// Payloads are kept at <owner>/<id> under a sandboxed root, written
// atomically through a temp file and rename. Compressed payloads are kept at
// <owner>/<id>.zst instead; keys never contain a dot, so the two names
// cannot collide.
package filesystem

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"github.com/sagarc03/fragments"
)

// compressedSuffix marks a payload file written zstd-encoded by Put.
const compressedSuffix = ".zst"

// Options configures a Store.
type Options struct {
	// Compress zstd-encodes payloads on write. Reads go by file name, not
	// content, so payloads written under either setting stay readable after
	// the option is toggled.
	Compress bool
}

// Store provides file system storage operations.
type Store struct {
	root     *os.Root
	compress bool
	encoder  *zstd.Encoder
	decoder  *zstd.Decoder
}

// NewFileStorage creates a new Store with the given root directory.
// The root provides sandboxed file operations preventing path traversal.
func NewFileStorage(root *os.Root, opts Options) (*Store, error) {
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("new file storage: zstd decoder: %w", err)
	}

	s := &Store{root: root, compress: opts.Compress, decoder: decoder}

	if opts.Compress {
		encoder, err := zstd.NewWriter(nil)
		if err != nil {
			decoder.Close()
			return nil, fmt.Errorf("new file storage: zstd encoder: %w", err)
		}
		s.encoder = encoder
	}

	return s, nil
}

// Close releases the zstd decoder.
func (s *Store) Close() {
	s.decoder.Close()
}

func blobPath(ownerID, id string) (string, error) {
	if !fragments.IsValidKey(ownerID) || !fragments.IsValidKey(id) {
		return "", fmt.Errorf("%w: invalid blob key", fragments.ErrInvalidInput)
	}
	return path.Join(ownerID, id), nil
}

// Get reads the payload for (ownerID, id). Returns fragments.ErrNotFound if
// the file does not exist.
func (s *Store) Get(ctx context.Context, ownerID, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := blobPath(ownerID, id)
	if err != nil {
		return nil, fragments.ErrNotFound
	}

	data, err := s.readFile(ctx, p+compressedSuffix)
	if err == nil {
		if len(data) == 0 {
			return []byte{}, nil
		}
		decoded, err := s.decoder.DecodeAll(data, make([]byte, 0, len(data)*2))
		if err != nil {
			return nil, fmt.Errorf("could not decompress file: %w", err)
		}
		return decoded, nil
	}
	if !errors.Is(err, fragments.ErrNotFound) {
		return nil, err
	}

	return s.readFile(ctx, p)
}

func (s *Store) readFile(ctx context.Context, p string) ([]byte, error) {
	f, err := s.root.Open(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fragments.ErrNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			slog.Warn("failed to close file", "path", p, "err", closeErr)
		}
	}()

	data, err := io.ReadAll(&ctxReader{ctx: ctx, r: f})
	if err != nil {
		return nil, fmt.Errorf("could not read file: %w", err)
	}
	return data, nil
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *ctxReader) Read(p []byte) (n int, err error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}

// Put atomically writes data for (ownerID, id) using a temp file and rename,
// creating the owner directory as needed. The file written under the other
// compression setting, if any, is removed afterwards.
func (s *Store) Put(ctx context.Context, ownerID, id string, data []byte) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	p, err := blobPath(ownerID, id)
	if err != nil {
		return fmt.Errorf("put: %w", err)
	}

	target, stale := p, p+compressedSuffix
	if s.compress {
		data = s.encoder.EncodeAll(data, make([]byte, 0, len(data)))
		target, stale = stale, target
	}

	tmpFile := tmpFileName()
	t, createErr := s.root.Create(tmpFile)
	if createErr != nil {
		return fmt.Errorf("could not open temp file: %w", createErr)
	}

	success := false
	defer func() {
		if closeErr := t.Close(); closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
			slog.Warn("failed to close tmp file", "err", closeErr)
		}
		if !success {
			if rmErr := s.root.Remove(tmpFile); rmErr != nil {
				slog.Warn("failed to remove tmp file", "err", rmErr)
			}
		}
	}()

	if _, err := io.Copy(t, &ctxReader{ctx: ctx, r: bytes.NewReader(data)}); err != nil {
		return fmt.Errorf("could not copy file contents: %w", err)
	}

	if err := t.Sync(); err != nil {
		return fmt.Errorf("could not sync written file: %w", err)
	}

	if err := s.root.MkdirAll(ownerID, 0o755); err != nil {
		return fmt.Errorf("could not create owner directory: %w", err)
	}

	if renameErr := s.root.Rename(tmpFile, target); renameErr != nil {
		return fmt.Errorf("failed to rename file: %w", renameErr)
	}

	success = true

	if err := s.root.Remove(stale); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("could not remove previous payload: %w", err)
	}

	return nil
}

// Delete removes a payload. Returns fragments.ErrNotFound if the file does
// not exist.
func (s *Store) Delete(ctx context.Context, ownerID, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	p, err := blobPath(ownerID, id)
	if err != nil {
		return fragments.ErrNotFound
	}

	removed := false
	for _, name := range []string{p, p + compressedSuffix} {
		err := s.root.Remove(name)
		if err == nil {
			removed = true
			continue
		}
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("could not delete file: %w", err)
		}
	}

	if !removed {
		return fragments.ErrNotFound
	}
	return nil
}

// List walks the owner directories and returns the key of every payload,
// compressed or not. Temp files left at the root by interrupted writes are
// skipped.
func (s *Store) List(ctx context.Context) ([]fragments.BlobKey, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	owners, err := fs.ReadDir(s.root.FS(), ".")
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	keys := []fragments.BlobKey{}
	for _, owner := range owners {
		if !owner.IsDir() {
			continue
		}

		entries, err := fs.ReadDir(s.root.FS(), owner.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to list files: %w", err)
		}

		seen := make(map[string]struct{}, len(entries))
		for _, entry := range entries {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if entry.IsDir() {
				continue
			}

			id := strings.TrimSuffix(entry.Name(), compressedSuffix)
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			keys = append(keys, fragments.BlobKey{OwnerID: owner.Name(), ID: id})
		}
	}

	return keys, nil
}

func tmpFileName() string {
	return fmt.Sprintf(".t%s", uuid.New().String())
}
