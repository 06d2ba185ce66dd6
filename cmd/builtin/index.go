package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/mwantia/x4vfs/cmd"
)

type IndexCommand struct {
}

func (i *IndexCommand) Name() string {
	return "index"
}

func (i *IndexCommand) Description() string {
	return "Resolve a name through an index document and print the target"
}

func (i *IndexCommand) Usage() string {
	return "index [-i index/macros.xml] <name>"
}

func (i *IndexCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	name := args.Arg(0, "")
	if name == "" {
		return 2, fmt.Errorf("index: missing name")
	}

	indexPath := args.String("index")
	doc, ok, err := api.OpenIndirected(ctx, indexPath, name)
	if err != nil {
		return 1, err
	}
	if !ok {
		return 1, fmt.Errorf("index: '%s' not found in '%s'", name, indexPath)
	}

	if err := writeDocument(doc, writer); err != nil {
		return 1, err
	}
	return 0, nil
}

func (i *IndexCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"index": {
				Name:        "index",
				Short:       "i",
				Type:        "string",
				Default:     "index/macros.xml",
				Description: "Index document to resolve the name in",
			},
		},
	}
}
