package direct

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/mwantia/x4vfs/backend"
	"github.com/mwantia/x4vfs/data"
	dataerrors "github.com/mwantia/x4vfs/data/errors"
)

// DirectBackend serves archives straight from a local directory. Every read
// opens the file read-only and closes it again, so nothing is held open
// between calls and other processes may read the same files.
type DirectBackend struct {
	mu   sync.RWMutex
	path string
}

func NewDirectBackend(path string) (*DirectBackend, error) {
	return &DirectBackend{
		path: filepath.Clean(path),
	}, nil
}

// Returns the identifier name defined for this backend
func (*DirectBackend) Name() string {
	return "direct"
}

// Open verifies the root directory exists.
func (db *DirectBackend) Open(ctx context.Context) error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	info, err := os.Stat(db.path)
	if err != nil {
		return dataerrors.MountFailed(err, db.path)
	}

	if !info.IsDir() {
		return dataerrors.NotDirectory(db.path)
	}

	return nil
}

// Close is part of the lifecycle behaviour and gets called when closing this backend.
func (db *DirectBackend) Close(ctx context.Context) error {
	// The underlying filesystem persists independently
	return nil
}

// GetCapabilities returns a list of capabilities supported by this backend.
func (db *DirectBackend) GetCapabilities() *backend.BackendCapabilities {
	return &backend.BackendCapabilities{
		Capabilities: []backend.BackendCapability{
			backend.CapabilityListing,
			backend.CapabilityRangeRead,
			backend.CapabilitySharedRead,
			backend.CapabilityPersistence,
		},
	}
}

func (db *DirectBackend) ListObjects(ctx context.Context, dir string) ([]*data.ObjectStat, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	entries, err := os.ReadDir(db.resolvePath(dir))
	if err != nil {
		return nil, convertError(err)
	}

	stats := make([]*data.ObjectStat, 0, len(entries))
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			// Entry vanished between ReadDir and Info
			continue
		}

		stats = append(stats, &data.ObjectStat{
			Key:        data.JoinPath(dir, entry.Name()),
			Name:       entry.Name(),
			Size:       info.Size(),
			IsDir:      entry.IsDir(),
			ModifyTime: info.ModTime(),
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].Name < stats[j].Name
	})

	return stats, nil
}

func (db *DirectBackend) OpenObject(ctx context.Context, key string) (io.ReadCloser, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	file, err := os.Open(db.resolvePath(key))
	if err != nil {
		return nil, convertError(err)
	}

	return file, nil
}

func (db *DirectBackend) ReadObject(ctx context.Context, key string, offset int64, buf []byte) (int, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	file, err := os.Open(db.resolvePath(key))
	if err != nil {
		return 0, convertError(err)
	}
	defer file.Close()

	return file.ReadAt(buf, offset)
}

// resolvePath joins the backend path with the relative key.
func (db *DirectBackend) resolvePath(key string) string {
	return filepath.Join(db.path, filepath.FromSlash(data.NormalizePath(key)))
}

func convertError(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return errors.Join(data.ErrNotExist, err)
	}
	return err
}
