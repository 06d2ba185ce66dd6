package builtin

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/mwantia/x4vfs/cmd"
	"github.com/mwantia/x4vfs/lang"
)

type LangCommand struct {
}

func (l *LangCommand) Name() string {
	return "lang"
}

func (l *LangCommand) Description() string {
	return "List languages, or resolve text references in one"
}

func (l *LangCommand) Usage() string {
	return "lang [--id 44] [text...]"
}

func (l *LangCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if len(args.Args) == 0 {
		languages, err := lang.Languages(ctx, api)
		if err != nil {
			return 1, err
		}

		for _, language := range languages {
			fmt.Fprintf(writer, "%4d %s\n", language.ID, language.Name)
		}
		return 0, nil
	}

	resolver, err := loadResolver(ctx, api, args.Int("id"), nil)
	if err != nil {
		return 1, err
	}

	fmt.Fprintln(writer, resolver.Resolve(strings.Join(args.Args, " ")))
	return 0, nil
}

func (l *LangCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"id": {
				Name:        "id",
				Type:        "int",
				Default:     int64(lang.DefaultLanguage),
				Description: "Language id to resolve with",
			},
		},
	}
}
