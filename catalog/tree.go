package catalog

import (
	"github.com/mwantia/x4vfs/data"
	"github.com/tidwall/btree"
)

// NodeID addresses a directory node inside a Tree.
type NodeID int32

// RootID is the logical root of every tree.
const RootID NodeID = 0

type node struct {
	dirs  btree.Map[string, NodeID]
	files btree.Map[string, data.Entry]
}

// Tree is an arena of directory nodes. Nodes are never removed, so a NodeID
// stays valid for the lifetime of the tree. Tree is not safe for concurrent
// use; Index serializes access to it.
type Tree struct {
	nodes []*node
	files int
}

func NewTree() *Tree {
	return &Tree{
		nodes: []*node{{}},
	}
}

// Child returns the subdirectory name of parent.
func (t *Tree) Child(parent NodeID, name string) (NodeID, bool) {
	return t.nodes[parent].dirs.Get(name)
}

// EnsureChild returns the subdirectory name of parent, creating it if missing.
func (t *Tree) EnsureChild(parent NodeID, name string) NodeID {
	if id, ok := t.nodes[parent].dirs.Get(name); ok {
		return id
	}

	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, &node{})
	t.nodes[parent].dirs.Set(name, id)

	return id
}

// EnsurePath walks segments from the root, creating missing directories.
func (t *Tree) EnsurePath(segments []string) NodeID {
	id := RootID
	for _, segment := range segments {
		id = t.EnsureChild(id, segment)
	}
	return id
}

// Find walks segments from the root without creating anything.
func (t *Tree) Find(segments []string) (NodeID, bool) {
	id := RootID
	for _, segment := range segments {
		child, ok := t.Child(id, segment)
		if !ok {
			return 0, false
		}
		id = child
	}
	return id, true
}

// File returns the entry called name inside dir.
func (t *Tree) File(dir NodeID, name string) (data.Entry, bool) {
	return t.nodes[dir].files.Get(name)
}

// InsertFile registers entry inside dir unless a file with the same name is
// already present. Reports whether the entry was stored.
func (t *Tree) InsertFile(dir NodeID, entry data.Entry) bool {
	files := &t.nodes[dir].files
	if _, exists := files.Get(entry.Name); exists {
		return false
	}

	files.Set(entry.Name, entry)
	t.files++

	return true
}

// Directories returns the sorted subdirectory names of id.
func (t *Tree) Directories(id NodeID) []string {
	return t.nodes[id].dirs.Keys()
}

// Files returns the entries of id sorted by name.
func (t *Tree) Files(id NodeID) []data.Entry {
	return t.nodes[id].files.Values()
}

// Len returns the number of directory nodes, including the root.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// FileCount returns the number of registered files.
func (t *Tree) FileCount() int {
	return t.files
}
