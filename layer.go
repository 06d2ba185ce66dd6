package vfs

import (
	"github.com/mwantia/x4vfs/catalog"
	"github.com/mwantia/x4vfs/data"
)

// BaseLayerID identifies the base source in layer listings.
const BaseLayerID = "base"

// Layer is one data source: the base install or one overlay folder.
type Layer struct {
	// ID is the overlay key ("extensions/<name>") or BaseLayerID.
	ID    string
	Index *catalog.Index

	prefix string
}

// LayerInfo reports the loading state of a layer.
type LayerInfo struct {
	ID       string
	Dir      string
	Pending  int
	Parsed   int
	Files    int
	Failures error
}

// relative maps a logical path into this layer. Overlays accept paths
// qualified with their own key and see them without it.
func (l *Layer) relative(path string) (string, bool) {
	if l.prefix == "" || !data.HasPrefix(path, l.prefix) {
		return path, true
	}

	rel := data.ToRelativePath(path, l.prefix)
	return rel, rel != ""
}

func (l *Layer) info() LayerInfo {
	return LayerInfo{
		ID:       l.ID,
		Dir:      l.Index.Dir(),
		Pending:  l.Index.Pending(),
		Parsed:   len(l.Index.Parsed()),
		Files:    l.Index.FileCount(),
		Failures: l.Index.Failures(),
	}
}
