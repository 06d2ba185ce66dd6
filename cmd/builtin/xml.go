package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/beevik/etree"
	"github.com/mwantia/x4vfs/cmd"
)

type XmlCommand struct {
}

func (x *XmlCommand) Name() string {
	return "xml"
}

func (x *XmlCommand) Description() string {
	return "Print a document with every overlay merged in"
}

func (x *XmlCommand) Usage() string {
	return "xml [-l] <path>"
}

func (x *XmlCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	path := args.Arg(0, "")
	if path == "" {
		return 2, fmt.Errorf("xml: missing path")
	}

	var (
		doc *etree.Document
		err error
	)
	if args.Bool("localized") {
		doc, err = api.OpenLocalizedDocument(ctx, path)
	} else {
		doc, err = api.OpenDocument(ctx, path)
	}
	if err != nil {
		return 1, err
	}

	if err := writeDocument(doc, writer); err != nil {
		return 1, err
	}
	return 0, nil
}

func (x *XmlCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"localized": {
				Name:        "localized",
				Short:       "l",
				Type:        "bool",
				Description: "Merge pages by id instead of applying diff directives",
			},
		},
	}
}

func writeDocument(doc *etree.Document, writer io.Writer) error {
	doc.Indent(2)
	_, err := doc.WriteTo(writer)
	return err
}
