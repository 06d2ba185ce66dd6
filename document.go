package vfs

import (
	"bytes"
	"context"
	"errors"
	"strings"

	"github.com/beevik/etree"
	"github.com/mwantia/x4vfs/data"
	dataerrors "github.com/mwantia/x4vfs/data/errors"
	"github.com/mwantia/x4vfs/overlay"
)

const (
	indexRootTag   = "index"
	indexEntryTag  = "entry"
	documentSuffix = ".xml"
)

var utf8BOM = []byte{0xef, 0xbb, 0xbf}

type mergeFunc func(base, patch *etree.Document) *overlay.Result

// OpenDocument returns the merged XML document at path. The base copy seeds
// the document; every overlay copy is merged into it in rank order. When
// the base has no copy, the first overlay copy becomes the seed.
func (vfs *VirtualFileSystem) OpenDocument(ctx context.Context, path string) (*etree.Document, error) {
	return vfs.openDocument(ctx, path, vfs.merger.Merge)
}

// OpenLocalizedDocument works like OpenDocument, but merges overlay pages
// into base pages by their id.
func (vfs *VirtualFileSystem) OpenLocalizedDocument(ctx context.Context, path string) (*etree.Document, error) {
	return vfs.openDocument(ctx, path, vfs.merger.MergeLocalization)
}

// OpenIndirected looks name up in the index document at indexPath and opens
// the document its value points to. An unknown name, or a value pointing at
// a missing document, reports ok=false without an error.
func (vfs *VirtualFileSystem) OpenIndirected(ctx context.Context, indexPath, name string) (*etree.Document, bool, error) {
	index, err := vfs.indexDocument(ctx, indexPath)
	if err != nil || index == nil {
		return nil, false, err
	}

	value := lookupIndexValue(index, name)
	if value == "" {
		return nil, false, nil
	}

	doc, err := vfs.OpenDocument(ctx, value+documentSuffix)
	if err != nil {
		if isMiss(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return doc, true, nil
}

func (vfs *VirtualFileSystem) openDocument(ctx context.Context, path string, merge mergeFunc) (*etree.Document, error) {
	path = data.NormalizePath(path)
	if path == "" {
		return nil, dataerrors.InvalidPath(path)
	}

	var doc *etree.Document

	content, err := vfs.base.Index.Open(ctx, path)
	switch {
	case err == nil:
		if doc, err = parseDocument(content, path); err != nil {
			return nil, err
		}
	case !isMiss(err):
		return nil, err
	}

	for _, layer := range vfs.overlays {
		rel, ok := layer.relative(path)
		if !ok {
			continue
		}

		content, err := layer.Index.Open(ctx, rel)
		if err != nil {
			if isMiss(err) {
				continue
			}
			return nil, err
		}

		patch, err := parseDocument(content, data.JoinPath(layer.ID, rel))
		if err != nil {
			vfs.log.Warn("Skipping overlay copy: %v", err)
			continue
		}

		if doc == nil {
			doc = patch
			continue
		}

		result := merge(doc, patch)
		vfs.log.Debug("Merged '%s' from '%s': %d applied, %d skipped", path, layer.ID, result.Applied, len(result.Skipped))
	}

	if doc == nil {
		return nil, dataerrors.NotFound(path)
	}

	return doc, nil
}

// indexDocument returns the merged index document at path, cached for the
// lifetime of the file system. Absent documents are cached as nil.
func (vfs *VirtualFileSystem) indexDocument(ctx context.Context, path string) (*etree.Document, error) {
	key := strings.ToLower(data.NormalizePath(path))
	if key == "" {
		return nil, dataerrors.InvalidPath(path)
	}

	if doc, ok := vfs.cachedIndex(key); ok {
		return doc, nil
	}

	result, err, _ := vfs.group.Do(key, func() (any, error) {
		if doc, ok := vfs.cachedIndex(key); ok {
			return doc, nil
		}

		doc, err := vfs.OpenDocument(ctx, key)
		if err != nil && !isMiss(err) {
			return nil, err
		}
		// A cancelled load may have missed copies; it is never cached
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		vfs.mu.Lock()
		vfs.indexes[key] = doc
		vfs.mu.Unlock()

		return doc, nil
	})
	if err != nil {
		return nil, err
	}

	doc, _ := result.(*etree.Document)
	return doc, nil
}

func (vfs *VirtualFileSystem) cachedIndex(key string) (*etree.Document, bool) {
	vfs.mu.RLock()
	defer vfs.mu.RUnlock()

	doc, ok := vfs.indexes[key]
	return doc, ok
}

func lookupIndexValue(index *etree.Document, name string) string {
	root := index.Root()
	if root == nil || root.Tag != indexRootTag {
		return ""
	}

	for _, entry := range root.SelectElements(indexEntryTag) {
		if entry.SelectAttrValue("name", "") == name {
			return entry.SelectAttrValue("value", "")
		}
	}

	return ""
}

func parseDocument(content []byte, path string) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(bytes.TrimPrefix(content, utf8BOM)); err != nil {
		return nil, dataerrors.MalformedDocument(err, path)
	}

	if doc.Root() == nil {
		return nil, dataerrors.MalformedDocument(errors.New("missing root element"), path)
	}

	return doc, nil
}
