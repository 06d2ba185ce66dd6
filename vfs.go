package vfs

import (
	"context"
	"errors"
	"sync"

	"github.com/beevik/etree"
	"github.com/mwantia/x4vfs/backend"
	"github.com/mwantia/x4vfs/backend/direct"
	"github.com/mwantia/x4vfs/catalog"
	"github.com/mwantia/x4vfs/data"
	dataerrors "github.com/mwantia/x4vfs/data/errors"
	"github.com/mwantia/x4vfs/log"
	"github.com/mwantia/x4vfs/overlay"
	"golang.org/x/sync/singleflight"
)

// VirtualFileSystem composes a base source with ranked overlay sources.
// Files resolve base first, then each overlay in discovery order. XML
// documents start from the base copy and fold in every overlay copy.
// It is safe for concurrent use.
type VirtualFileSystem struct {
	log     *log.Logger
	storage backend.ArchiveStorage
	merger  *overlay.Merger

	base     *Layer
	overlays []*Layer

	mu      sync.RWMutex
	indexes map[string]*etree.Document
	group   singleflight.Group
}

// Open builds a file system over a local game directory.
func Open(ctx context.Context, root string, opts ...VirtualFileSystemOption) (*VirtualFileSystem, error) {
	storage, err := direct.NewDirectBackend(root)
	if err != nil {
		return nil, err
	}

	if err := storage.Open(ctx); err != nil {
		return nil, err
	}

	vfs, err := NewVirtualFileSystem(ctx, storage, opts...)
	if err != nil {
		storage.Close(ctx)
		return nil, err
	}

	return vfs, nil
}

// NewVirtualFileSystem enumerates the base source at the storage root and
// one overlay per subdirectory of the extensions folder. No manifest is
// parsed until a lookup needs it. The storage must already be open.
func NewVirtualFileSystem(ctx context.Context, storage backend.ArchiveStorage, opts ...VirtualFileSystemOption) (*VirtualFileSystem, error) {
	options := newDefaultVirtualFileSystemOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	logger := options.Logger
	if logger == nil {
		logger = log.NewLogger("vfs", options.LogLevel, options.LogFile, options.NoTerminalLog)
	}

	vfs := &VirtualFileSystem{
		log:     logger,
		storage: storage,
		merger:  overlay.NewMerger(logger.Named("overlay")),
		indexes: make(map[string]*etree.Document),
	}

	base, err := vfs.newLayer(ctx, BaseLayerID, "", "", options)
	if err != nil {
		return nil, err
	}
	vfs.base = base

	if !options.NoExtensions {
		if err := vfs.discoverOverlays(ctx, options); err != nil {
			return nil, err
		}
	}

	vfs.log.Info("Loaded base source with %d archive pairs and %d overlays", base.Index.Pending(), len(vfs.overlays))

	return vfs, nil
}

func (vfs *VirtualFileSystem) discoverOverlays(ctx context.Context, options *VirtualFileSystemOptions) error {
	stats, err := vfs.storage.ListObjects(ctx, options.ExtensionsDir)
	if err != nil {
		if errors.Is(err, data.ErrNotExist) {
			vfs.log.Debug("No extensions folder '%s' found", options.ExtensionsDir)
			return nil
		}
		return err
	}

	// listings are sorted by name, which fixes the overlay rank
	for _, stat := range stats {
		if !stat.IsDir {
			continue
		}

		id := data.JoinPath(options.ExtensionsDir, stat.Name)
		layer, err := vfs.newLayer(ctx, id, id, id, options)
		if err != nil {
			return err
		}

		vfs.overlays = append(vfs.overlays, layer)
		vfs.log.Debug("Discovered overlay '%s' with %d archive pairs", id, layer.Index.Pending())
	}

	return nil
}

func (vfs *VirtualFileSystem) newLayer(ctx context.Context, id, dir, prefix string, options *VirtualFileSystemOptions) (*Layer, error) {
	index, err := catalog.NewIndex(ctx, vfs.storage, dir,
		catalog.WithLogger(vfs.log.Named(id)),
		catalog.WithExcludePattern(options.ExcludePattern),
	)
	if err != nil {
		return nil, dataerrors.MountFailed(err, id)
	}

	return &Layer{
		ID:     id,
		Index:  index,
		prefix: prefix,
	}, nil
}

// Layers returns the base layer followed by every overlay in rank order.
func (vfs *VirtualFileSystem) Layers() []LayerInfo {
	infos := make([]LayerInfo, 0, len(vfs.overlays)+1)
	for _, layer := range vfs.layers() {
		infos = append(infos, layer.info())
	}
	return infos
}

// Close releases the underlying storage.
func (vfs *VirtualFileSystem) Close(ctx context.Context) error {
	vfs.mu.Lock()
	clear(vfs.indexes)
	vfs.mu.Unlock()

	return vfs.storage.Close(ctx)
}

func (vfs *VirtualFileSystem) layers() []*Layer {
	return append([]*Layer{vfs.base}, vfs.overlays...)
}
