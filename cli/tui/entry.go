package tui

import (
	"path"
	"strings"

	"github.com/dustin/go-humanize"
	vfs "github.com/mwantia/x4vfs"
	"github.com/mwantia/x4vfs/data"
)

// Entry is one row of the browser, backed by a merged directory entry.
type Entry struct {
	Name  string
	Path  string
	Size  int64
	IsDir bool
	Layer string
}

func newEntry(dir string, e vfs.DirEntry) *Entry {
	return &Entry{
		Name:  e.Name,
		Path:  data.JoinPath(dir, e.Name),
		Size:  e.Size,
		IsDir: e.IsDir,
		Layer: e.Layer,
	}
}

// DisplayName returns the name with appropriate indicator
func (e *Entry) DisplayName() string {
	if e.IsDir {
		return e.Name + "/"
	}
	return e.Name
}

// DisplaySize returns human-readable size
func (e *Entry) DisplaySize() string {
	if e.IsDir {
		return "<DIR>"
	}
	return humanize.IBytes(uint64(e.Size))
}

// IsOverlay reports whether the entry resolves to an extension rather than
// the base game.
func (e *Entry) IsOverlay() bool {
	return e.Layer != vfs.BaseLayerID
}

// IsDocument reports whether the entry is merged as XML when previewed.
func (e *Entry) IsDocument() bool {
	return !e.IsDir && strings.EqualFold(path.Ext(e.Name), ".xml")
}
