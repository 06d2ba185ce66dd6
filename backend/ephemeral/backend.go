package ephemeral

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/mwantia/x4vfs/backend"
	"github.com/mwantia/x4vfs/data"
	"github.com/tidwall/btree"
)

// EphemeralBackend keeps archive files in memory, ordered by key.
// Directories are implied by the keys stored below them.
type EphemeralBackend struct {
	mu sync.RWMutex

	objects  *btree.Map[string, []byte]
	modified map[string]time.Time
}

func NewEphemeralBackend() *EphemeralBackend {
	return &EphemeralBackend{
		objects:  btree.NewMap[string, []byte](0),
		modified: make(map[string]time.Time),
	}
}

// Returns the identifier name defined for this backend
func (*EphemeralBackend) Name() string {
	return "ephemeral"
}

// Open is part of the lifecycle behaviour and gets called before the first read.
func (eb *EphemeralBackend) Open(ctx context.Context) error {
	// No initialization needed - backend is ready to use
	return nil
}

// Close drops every stored object.
func (eb *EphemeralBackend) Close(ctx context.Context) error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.objects.Clear()
	clear(eb.modified)

	return nil
}

// GetCapabilities returns a list of capabilities supported by this backend.
func (eb *EphemeralBackend) GetCapabilities() *backend.BackendCapabilities {
	return &backend.BackendCapabilities{
		Capabilities: []backend.BackendCapability{
			backend.CapabilityListing,
			backend.CapabilityRangeRead,
		},
		MaxObjectSize: 1 << 30,
	}
}

// Put stores content under key, replacing any previous object.
func (eb *EphemeralBackend) Put(key string, content []byte) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	key = data.NormalizePath(key)
	eb.objects.Set(key, bytes.Clone(content))
	eb.modified[key] = time.Now()
}

// Delete removes the object at key, if any.
func (eb *EphemeralBackend) Delete(key string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	key = data.NormalizePath(key)
	eb.objects.Delete(key)
	delete(eb.modified, key)
}

func (eb *EphemeralBackend) ListObjects(ctx context.Context, dir string) ([]*data.ObjectStat, error) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	dir = data.NormalizePath(dir)
	prefix := ""
	if dir != "" {
		prefix = dir + "/"
	}

	var stats []*data.ObjectStat
	seen := make(map[string]struct{})
	found := dir == ""

	eb.objects.Ascend(prefix, func(key string, content []byte) bool {
		if !strings.HasPrefix(key, prefix) {
			return false
		}
		found = true

		rest := key[len(prefix):]
		name, _, nested := strings.Cut(rest, "/")
		if _, ok := seen[name]; ok {
			return true
		}
		seen[name] = struct{}{}

		stat := &data.ObjectStat{
			Key:   prefix + name,
			Name:  name,
			IsDir: nested,
		}
		if !nested {
			stat.Size = int64(len(content))
			stat.ModifyTime = eb.modified[key]
		}
		stats = append(stats, stat)

		return true
	})

	if !found {
		return nil, data.ErrNotExist
	}

	return stats, nil
}

func (eb *EphemeralBackend) OpenObject(ctx context.Context, key string) (io.ReadCloser, error) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	content, ok := eb.objects.Get(data.NormalizePath(key))
	if !ok {
		return nil, data.ErrNotExist
	}

	return io.NopCloser(bytes.NewReader(content)), nil
}

func (eb *EphemeralBackend) ReadObject(ctx context.Context, key string, offset int64, buf []byte) (int, error) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	content, ok := eb.objects.Get(data.NormalizePath(key))
	if !ok {
		return 0, data.ErrNotExist
	}

	return bytes.NewReader(content).ReadAt(buf, offset)
}
