package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/mwantia/x4vfs/cmd"
)

type LsCommand struct {
}

// Name returns the command identifier
func (ls *LsCommand) Name() string {
	return "ls"
}

// Description returns human-readable help text
func (ls *LsCommand) Description() string {
	return "List the merged contents of a directory"
}

// Usage returns a usage string for help (e.g. "ls -al [path]")
func (ls *LsCommand) Usage() string {
	return "ls [-l] [path]"
}

// Execute runs the command with parsed arguments
// Returns exit code (0 = success) and error message
func (ls *LsCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	entries, err := api.ReadDirectory(ctx, args.Arg(0, ""))
	if err != nil {
		return 1, err
	}

	long := args.Bool("long")
	for _, entry := range entries {
		name := entry.Name
		if entry.IsDir {
			name += "/"
		}

		if !long {
			fmt.Fprintln(writer, name)
			continue
		}

		kind := "-"
		if entry.IsDir {
			kind = "d"
		}
		fmt.Fprintf(writer, "%s %10d %-24s %s\n", kind, entry.Size, entry.Layer, name)
	}

	return 0, nil
}

// GetFlags returns the flag set for this command (this is optional)
func (ls *LsCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"long": {
				Name:        "long",
				Short:       "l",
				Type:        "bool",
				Description: "Show size and source layer",
			},
		},
	}
}
