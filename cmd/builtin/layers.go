package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/mwantia/x4vfs/cmd"
)

type LayersCommand struct {
}

func (l *LayersCommand) Name() string {
	return "layers"
}

func (l *LayersCommand) Description() string {
	return "Show every data source in rank order"
}

func (l *LayersCommand) Usage() string {
	return "layers"
}

func (l *LayersCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	code := 0
	for rank, layer := range api.Layers() {
		fmt.Fprintf(writer, "%2d %-32s parsed=%d pending=%d files=%d\n", rank, layer.ID, layer.Parsed, layer.Pending, layer.Files)
		if layer.Failures != nil {
			fmt.Fprintf(writer, "   failures: %v\n", layer.Failures)
			code = 1
		}
	}

	return code, nil
}

func (l *LayersCommand) GetFlags() *cmd.CommandFlagSet {
	return nil
}
