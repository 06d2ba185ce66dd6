package cmd

import (
	"context"
	"io"

	"github.com/beevik/etree"
	vfs "github.com/mwantia/x4vfs"
)

// API is the part of the layered file system commands operate on.
type API interface {
	// OpenFile returns the bytes of the first layer that has path.
	OpenFile(ctx context.Context, path string) ([]byte, error)

	// Exists reports whether any layer has a file at path.
	Exists(ctx context.Context, path string) bool

	// OpenDocument returns the merged XML document at path.
	OpenDocument(ctx context.Context, path string) (*etree.Document, error)

	// OpenLocalizedDocument returns the merged localization document at path.
	OpenLocalizedDocument(ctx context.Context, path string) (*etree.Document, error)

	// OpenIndirected resolves name through the index document at indexPath.
	OpenIndirected(ctx context.Context, indexPath, name string) (*etree.Document, bool, error)

	// ReadDirectory lists the union of path across every layer.
	ReadDirectory(ctx context.Context, path string) ([]vfs.DirEntry, error)

	// Layers returns the loading state of every layer in rank order.
	Layers() []vfs.LayerInfo
}

// Command represents an executable command operating on the file system.
type Command interface {
	// Name returns the command identifier
	Name() string

	// Description returns human-readable help text
	Description() string

	// Usage returns a usage string for help (e.g. "xml -l [path]")
	Usage() string

	// Execute runs the command with parsed arguments
	// The writer parameter is where command output should be written
	// Returns exit code (0 = success) and error message
	Execute(ctx context.Context, api API, args *CommandArgs, writer io.Writer) (int, error)

	// GetFlags returns the flag set for this command (this is optional)
	GetFlags() *CommandFlagSet
}
