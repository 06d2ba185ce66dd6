package vfs

import (
	"context"
	"errors"

	"github.com/mwantia/x4vfs/data"
	dataerrors "github.com/mwantia/x4vfs/data/errors"
	"github.com/tidwall/btree"
	"golang.org/x/sync/errgroup"
)

// DirEntry is one name in a merged directory listing.
type DirEntry struct {
	Name  string
	IsDir bool
	Size  int64
	// Layer is the ID of the layer the entry resolves to.
	Layer string
}

// OpenFile returns the bytes stored at path by the first layer that has it.
func (vfs *VirtualFileSystem) OpenFile(ctx context.Context, path string) ([]byte, error) {
	path = data.NormalizePath(path)
	if path == "" {
		return nil, dataerrors.InvalidPath(path)
	}

	for _, layer := range vfs.layers() {
		rel, ok := layer.relative(path)
		if !ok {
			continue
		}

		content, err := layer.Index.Open(ctx, rel)
		if err == nil {
			return content, nil
		}
		if !isMiss(err) {
			return nil, err
		}
	}

	return nil, dataerrors.NotFound(path)
}

// isMiss reports whether err means a layer has no copy of a path. Read
// failures may wrap a storage ErrNotExist, but are never misses.
func isMiss(err error) bool {
	return errors.Is(err, data.ErrNotExist) && !errors.Is(err, data.ErrReadFailed)
}

// Exists reports whether any layer has a file at path.
func (vfs *VirtualFileSystem) Exists(ctx context.Context, path string) bool {
	path = data.NormalizePath(path)
	if path == "" {
		return false
	}

	for _, layer := range vfs.layers() {
		if rel, ok := layer.relative(path); ok && layer.Index.Exists(ctx, rel) {
			return true
		}
	}

	return false
}

// ReadDirectory lists the union of path across every layer, sorted by name.
// Listing requires fully loaded indexes; layers are loaded in parallel.
func (vfs *VirtualFileSystem) ReadDirectory(ctx context.Context, path string) ([]DirEntry, error) {
	path = data.NormalizePath(path)
	layers := vfs.layers()

	group, gctx := errgroup.WithContext(ctx)
	for _, layer := range layers {
		group.Go(func() error {
			parsed := layer.Index.LoadAll(gctx)
			vfs.log.Debug("Loaded %d remaining manifests of '%s'", parsed, layer.ID)
			return gctx.Err()
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	var entries btree.Map[string, DirEntry]
	found := false

	for _, layer := range layers {
		rel, ok := layer.relative(path)
		if !ok {
			rel = ""
		}

		dirs, files, err := layer.Index.ReadDirectory(ctx, rel)
		if err != nil {
			if errors.Is(err, data.ErrNotExist) {
				continue
			}
			return nil, err
		}
		found = true

		for _, dir := range dirs {
			if _, exists := entries.Get(dir); !exists {
				entries.Set(dir, DirEntry{Name: dir, IsDir: true, Layer: layer.ID})
			}
		}
		for _, file := range files {
			if _, exists := entries.Get(file.Name); !exists {
				entries.Set(file.Name, DirEntry{Name: file.Name, Size: file.Size, Layer: layer.ID})
			}
		}
	}

	if !found {
		return nil, dataerrors.NotFound(path)
	}

	return entries.Values(), nil
}
