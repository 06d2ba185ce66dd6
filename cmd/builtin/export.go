package builtin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mwantia/x4vfs/cmd"
	"github.com/mwantia/x4vfs/export"
	"github.com/mwantia/x4vfs/lang"
	"github.com/mwantia/x4vfs/log"
)

type ExportCommand struct {
	Logger *log.Logger
}

func (e *ExportCommand) Name() string {
	return "export"
}

func (e *ExportCommand) Description() string {
	return "Export sources, languages, texts and wares into a database"
}

func (e *ExportCommand) Usage() string {
	return "export -o <file.db|postgres://...> [--lang 44]"
}

func (e *ExportCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	target := args.String("output")
	logger := e.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}

	resolver, err := loadResolver(ctx, api, args.Int("lang"), logger)
	if err != nil {
		return 1, err
	}

	// A previous export file is replaced, not appended to
	if !strings.Contains(target, "://") {
		if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
			return 1, err
		}
	}

	sink, err := export.Open(ctx, target)
	if err != nil {
		return 1, err
	}
	defer sink.Close()

	runner, err := export.NewRunner([]export.Exporter{
		export.NewSourceExporter(api),
		export.NewLanguageExporter(api),
		export.NewTextExporter(resolver),
		export.NewWareExporter(api, resolver, logger.Named("wares")),
	}, export.WithLogger(logger))
	if err != nil {
		return 1, err
	}

	if err := runner.Run(ctx, sink); err != nil {
		return 1, err
	}

	fmt.Fprintf(writer, "Exported run %s into %s\n", runner.RunID(), sink.Name())
	return 0, nil
}

func (e *ExportCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"output": {
				Name:        "output",
				Short:       "o",
				Type:        "string",
				Required:    true,
				Description: "SQLite file or PostgreSQL URL to export into",
			},
			"lang": {
				Name:        "lang",
				Type:        "int",
				Default:     int64(lang.DefaultLanguage),
				Description: "Language id of exported names",
			},
		},
	}
}

// loadResolver loads English first so texts missing in id fall back to it.
func loadResolver(ctx context.Context, api cmd.API, id int, logger *log.Logger) (*lang.Resolver, error) {
	resolver := lang.NewResolver(logger)
	if err := resolver.Load(ctx, api, lang.DefaultLanguage); err != nil {
		return nil, err
	}

	if id != lang.DefaultLanguage {
		if err := resolver.Load(ctx, api, id); err != nil {
			return nil, fmt.Errorf("language %d: %w", id, err)
		}
	}

	return resolver, nil
}
