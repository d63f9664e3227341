package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/formvault/document-storage-backend/interfaces"
)

const (
	// uploadDirPerm keeps the upload root out of reach of other users.
	uploadDirPerm = 0o750

	// uploadFilePerm gives the owner read-write and the group read-only.
	uploadFilePerm = 0o640

	// writeChunkSize bounds how much is written between cancellation checks.
	writeChunkSize = 8192
)

// LocalBackend stores objects as flat files under a dedicated root
// directory. Opaque names never contain path separators, so every object is
// a direct child of the root.
type LocalBackend struct {
	rootDir string
	log     *slog.Logger
}

// NewLocalBackend creates the root directory with restrictive permissions if
// it does not exist yet.
func NewLocalBackend(rootDir string, log *slog.Logger) (*LocalBackend, error) {
	if rootDir == "" {
		return nil, errors.New("upload root directory must not be empty")
	}
	if err := os.MkdirAll(rootDir, uploadDirPerm); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &LocalBackend{rootDir: rootDir, log: log}, nil
}

// Put writes data to a new file under name. Existing names are never
// overwritten; a partially written file is removed when the write fails or
// the context is cancelled mid-write.
func (b *LocalBackend) Put(ctx context.Context, name interfaces.OpaqueName, data []byte, contentType string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	filePath := b.filePath(name)
	f, err := os.OpenFile(filePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, uploadFilePerm)
	if err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: %s", interfaces.ErrNameCollision, name)
		}
		return fmt.Errorf("failed to create file: %w", err)
	}

	for offset := 0; offset < len(data); offset += writeChunkSize {
		if err := ctx.Err(); err != nil {
			b.abortWrite(f, filePath)
			return err
		}
		end := min(offset+writeChunkSize, len(data))
		if _, err := f.Write(data[offset:end]); err != nil {
			b.abortWrite(f, filePath)
			return fmt.Errorf("failed to write file: %w", err)
		}
	}

	if err := f.Close(); err != nil {
		b.removePartial(filePath)
		return fmt.Errorf("failed to close file: %w", err)
	}

	b.log.Debug("Stored object on local filesystem",
		slog.String("name", name.String()),
		slog.Int("size", len(data)))
	return nil
}

// Get reads the full content stored under name.
// Returns ErrObjectNotFound if no such file exists.
func (b *LocalBackend) Get(ctx context.Context, name interfaces.OpaqueName) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(b.filePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, interfaces.ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

// Delete removes the file under name. The bool reports whether it existed.
func (b *LocalBackend) Delete(ctx context.Context, name interfaces.OpaqueName) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	filePath := b.filePath(name)
	if err := os.Remove(filePath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to delete file: %w", err)
	}

	b.log.Debug("Deleted object from local filesystem", slog.String("name", name.String()))
	return true, nil
}

// Exists reports whether name is taken.
func (b *LocalBackend) Exists(ctx context.Context, name interfaces.OpaqueName) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	_, err := os.Stat(b.filePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat file: %w", err)
	}
	return true, nil
}

// Head returns size and modification time without reading content.
func (b *LocalBackend) Head(ctx context.Context, name interfaces.OpaqueName) (interfaces.ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return interfaces.ObjectInfo{}, err
	}

	info, err := os.Stat(b.filePath(name))
	if err != nil {
		if os.IsNotExist(err) {
			return interfaces.ObjectInfo{}, interfaces.ErrObjectNotFound
		}
		return interfaces.ObjectInfo{}, fmt.Errorf("failed to stat file: %w", err)
	}
	return interfaces.ObjectInfo{Size: info.Size(), ModifiedAt: info.ModTime()}, nil
}

// Presign is not supported by the filesystem backend.
func (b *LocalBackend) Presign(ctx context.Context, name interfaces.OpaqueName, ttl time.Duration) (string, error) {
	return "", interfaces.ErrPresignUnsupported
}

// Available checks that the upload root still exists and is a directory.
func (b *LocalBackend) Available(ctx context.Context) bool {
	info, err := os.Stat(b.rootDir)
	if err != nil || !info.IsDir() {
		b.log.Debug("Local backend unavailable", "err", err)
		return false
	}
	return true
}

// Kind identifies the storage medium.
func (b *LocalBackend) Kind() interfaces.BackendKind {
	return interfaces.BackendLocal
}

// Name returns a unique identifier for this storage backend.
func (b *LocalBackend) Name() string {
	return fmt.Sprintf("local-%s", filepath.Base(b.rootDir))
}

// filePath maps an opaque name to its path under the root. Names are
// validated at the boundary, but Base is applied again so a bad name can
// never escape the root.
func (b *LocalBackend) filePath(name interfaces.OpaqueName) string {
	return filepath.Join(b.rootDir, filepath.Base(name.String()))
}

func (b *LocalBackend) abortWrite(f *os.File, filePath string) {
	f.Close()
	b.removePartial(filePath)
}

func (b *LocalBackend) removePartial(filePath string) {
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		b.log.Warn("Failed to remove partial file", slog.String("path", filePath), "err", err)
	}
}
