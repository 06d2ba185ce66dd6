package builtin

import (
	"github.com/mwantia/x4vfs/cmd"
	"github.com/mwantia/x4vfs/log"
)

// Register adds every builtin command to manager.
func Register(manager *cmd.Manager, logger *log.Logger) error {
	for _, command := range []cmd.Command{
		&CatCommand{},
		&XmlCommand{},
		&IndexCommand{},
		&LsCommand{},
		&LayersCommand{},
		&LangCommand{},
		&ExportCommand{Logger: logger.Named("export")},
		&ServeCommand{Logger: logger.Named("server")},
	} {
		if err := manager.Register(command); err != nil {
			return err
		}
	}

	return nil
}
