package export

import (
	"context"
	"strconv"
	"strings"

	vfs "github.com/mwantia/x4vfs"
	"github.com/mwantia/x4vfs/lang"
	"github.com/mwantia/x4vfs/log"
)

const WaresPath = "libraries/wares.xml"

// FileSystem is the part of the layered file system exporters read from.
type FileSystem interface {
	lang.DocumentSource
	Layers() []vfs.LayerInfo
}

// SourceExporter records every data source and how much of it was loaded.
type SourceExporter struct {
	fs FileSystem
}

func NewSourceExporter(fs FileSystem) *SourceExporter {
	return &SourceExporter{fs: fs}
}

func (*SourceExporter) Name() string {
	return "sources"
}

func (e *SourceExporter) Export(ctx context.Context, sink Sink) error {
	if err := sink.Exec(ctx, `CREATE TABLE IF NOT EXISTS Source
(
    SourceID    TEXT    NOT NULL PRIMARY KEY,
    Rank        INTEGER NOT NULL,
    Dir         TEXT    NOT NULL,
    Parsed      INTEGER NOT NULL,
    Files       INTEGER NOT NULL
)`); err != nil {
		return err
	}

	var rows [][]any
	for rank, layer := range e.fs.Layers() {
		rows = append(rows, []any{layer.ID, rank, layer.Dir, layer.Parsed, layer.Files})
	}

	return sink.Insert(ctx, "Source", []string{"SourceID", "Rank", "Dir", "Parsed", "Files"}, rows)
}

// LanguageExporter writes the declared languages.
type LanguageExporter struct {
	fs FileSystem
}

func NewLanguageExporter(fs FileSystem) *LanguageExporter {
	return &LanguageExporter{fs: fs}
}

func (*LanguageExporter) Name() string {
	return "languages"
}

func (e *LanguageExporter) Export(ctx context.Context, sink Sink) error {
	if err := sink.Exec(ctx, `CREATE TABLE IF NOT EXISTS Language
(
    LanguageID  INTEGER NOT NULL PRIMARY KEY,
    Name        TEXT    NOT NULL
)`); err != nil {
		return err
	}

	languages, err := lang.Languages(ctx, e.fs)
	if err != nil {
		return err
	}

	rows := make([][]any, 0, len(languages))
	for _, language := range languages {
		rows = append(rows, []any{language.ID, language.Name})
	}

	return sink.Insert(ctx, "Language", []string{"LanguageID", "Name"}, rows)
}

// TextExporter writes every resolved text of the loaded languages.
type TextExporter struct {
	resolver *lang.Resolver
}

func NewTextExporter(resolver *lang.Resolver) *TextExporter {
	return &TextExporter{resolver: resolver}
}

func (*TextExporter) Name() string {
	return "texts"
}

func (e *TextExporter) Export(ctx context.Context, sink Sink) error {
	if err := sink.Exec(ctx, `CREATE TABLE IF NOT EXISTS Text
(
    PageID  INTEGER NOT NULL,
    TextID  INTEGER NOT NULL,
    Text    TEXT    NOT NULL,
    PRIMARY KEY (PageID, TextID)
)`); err != nil {
		return err
	}

	entries := e.resolver.Entries()
	rows := make([][]any, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, []any{entry.Page, entry.ID, entry.Text})
	}

	return sink.Insert(ctx, "Text", []string{"PageID", "TextID", "Text"}, rows)
}

// WareExporter writes the economy wares with their names resolved.
type WareExporter struct {
	fs       FileSystem
	resolver *lang.Resolver
	log      *log.Logger
}

func NewWareExporter(fs FileSystem, resolver *lang.Resolver, logger *log.Logger) *WareExporter {
	if logger == nil {
		logger = log.NewNopLogger()
	}

	return &WareExporter{fs: fs, resolver: resolver, log: logger}
}

func (*WareExporter) Name() string {
	return "wares"
}

func (e *WareExporter) Export(ctx context.Context, sink Sink) error {
	if err := sink.Exec(ctx, `CREATE TABLE IF NOT EXISTS Ware
(
    WareID          TEXT    NOT NULL PRIMARY KEY,
    WareGroupID     TEXT    NOT NULL,
    TransportTypeID TEXT    NOT NULL,
    Name            TEXT    NOT NULL,
    Description     TEXT    NOT NULL,
    FactoryName     TEXT    NOT NULL,
    Volume          INTEGER NOT NULL,
    MinPrice        INTEGER NOT NULL,
    AvgPrice        INTEGER NOT NULL,
    MaxPrice        INTEGER NOT NULL
)`); err != nil {
		return err
	}

	doc, err := e.fs.OpenDocument(ctx, WaresPath)
	if err != nil {
		return err
	}

	var rows [][]any
	skipped := 0

	for _, ware := range doc.FindElements("/wares/ware") {
		if !hasTag(ware.SelectAttrValue("tags", ""), "economy") {
			continue
		}

		id := ware.SelectAttrValue("id", "")
		group := ware.SelectAttrValue("group", "")
		transport := ware.SelectAttrValue("transport", "")
		name := e.resolver.Resolve(ware.SelectAttrValue("name", ""))

		if id == "" || group == "" || transport == "" || name == "" {
			e.log.Debug("Skipping incomplete ware '%s'", id)
			skipped++
			continue
		}

		price := ware.SelectElement("price").NotNil()
		rows = append(rows, []any{
			id,
			group,
			transport,
			name,
			e.resolver.Resolve(ware.SelectAttrValue("description", "")),
			e.resolver.Resolve(ware.SelectAttrValue("factoryname", "")),
			atoi(ware.SelectAttrValue("volume", "")),
			atoi(price.SelectAttrValue("min", "")),
			atoi(price.SelectAttrValue("average", "")),
			atoi(price.SelectAttrValue("max", "")),
		})
	}

	if skipped > 0 {
		e.log.Warn("Skipped %d incomplete wares", skipped)
	}

	return sink.Insert(ctx, "Ware", []string{
		"WareID", "WareGroupID", "TransportTypeID", "Name", "Description",
		"FactoryName", "Volume", "MinPrice", "AvgPrice", "MaxPrice",
	}, rows)
}

func hasTag(tags, tag string) bool {
	for _, t := range strings.Fields(tags) {
		if t == tag {
			return true
		}
	}
	return false
}

// atoi treats missing and malformed numbers as zero.
func atoi(value string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(value))
	return n
}
