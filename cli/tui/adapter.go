package tui

import (
	"bytes"
	"context"
	"strings"
	"unicode/utf8"

	"github.com/mwantia/x4vfs/cmd"
	"github.com/mwantia/x4vfs/data"
	"github.com/mwantia/x4vfs/log"
)

// VFSAdapter gives the model synchronous, context-bound access to the
// layered file system and the command manager.
type VFSAdapter struct {
	ctx     context.Context
	api     cmd.API
	manager *cmd.Manager
	log     *log.Logger
}

func NewVFSAdapter(ctx context.Context, api cmd.API, manager *cmd.Manager, logger *log.Logger) *VFSAdapter {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	return &VFSAdapter{
		ctx:     ctx,
		api:     api,
		manager: manager,
		log:     logger,
	}
}

// ListDirectory returns the merged listing of dir as browser entries.
func (a *VFSAdapter) ListDirectory(dir string) ([]*Entry, error) {
	dir = data.NormalizePath(dir)

	listing, err := a.api.ReadDirectory(a.ctx, dir)
	if err != nil {
		return nil, err
	}

	entries := make([]*Entry, 0, len(listing))
	for _, e := range listing {
		entries = append(entries, newEntry(dir, e))
	}

	a.log.Debug("Listed '%s' with %d entries", dir, len(entries))
	return entries, nil
}

// GeneratePreview renders at most maxLines lines of the entry. XML files
// are shown merged; other files are shown raw unless they are binary.
func (a *VFSAdapter) GeneratePreview(entry *Entry, localized bool, maxLines int) (string, error) {
	if entry.IsDocument() {
		open := a.api.OpenDocument
		if localized {
			open = a.api.OpenLocalizedDocument
		}

		doc, err := open(a.ctx, entry.Path)
		if err != nil {
			return "", err
		}

		doc.Indent(2)
		content, err := doc.WriteToString()
		if err != nil {
			return "", err
		}
		return truncateLines(content, maxLines), nil
	}

	content, err := a.api.OpenFile(a.ctx, entry.Path)
	if err != nil {
		return "", err
	}

	if !utf8.Valid(content) || bytes.IndexByte(content, 0) >= 0 {
		return "(binary file)", nil
	}
	return truncateLines(string(content), maxLines), nil
}

// Execute runs a command line through the manager and captures its output.
func (a *VFSAdapter) Execute(line string) (string, int, error) {
	args := parseCommandLine(line)
	if len(args) == 0 {
		return "", 0, nil
	}

	var out bytes.Buffer
	code, err := a.manager.Execute(a.ctx, &out, args...)
	a.log.Debug("Executed '%s' with exit code %d", args[0], code)

	return out.String(), code, err
}

func truncateLines(content string, maxLines int) string {
	lines := strings.Split(content, "\n")
	if maxLines > 0 && len(lines) > maxLines {
		lines = append(lines[:maxLines], "...")
	}
	return strings.Join(lines, "\n")
}
