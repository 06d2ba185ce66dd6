package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	vfs "github.com/mwantia/x4vfs"
	"github.com/mwantia/x4vfs/backend"
	"github.com/mwantia/x4vfs/backend/consul"
	"github.com/mwantia/x4vfs/backend/direct"
	"github.com/mwantia/x4vfs/backend/s3"
	"github.com/mwantia/x4vfs/cli/tui"
	"github.com/mwantia/x4vfs/cmd"
	"github.com/mwantia/x4vfs/cmd/builtin"
	"github.com/mwantia/x4vfs/log"
)

var globalFlags = &cmd.CommandFlagSet{
	Flags: map[string]*cmd.CommandFlag{
		"input":         {Name: "input", Short: "i", Type: "string", Default: ".", Description: "Game directory, bucket prefix or KV prefix"},
		"backend":       {Name: "backend", Short: "b", Type: "string", Default: "direct", Description: "Storage backend: direct, s3 or consul"},
		"log-level":     {Name: "log-level", Type: "string", Default: "warn", Description: "Log level"},
		"log-file":      {Name: "log-file", Type: "string", Description: "Write logs to a rotated file"},
		"no-extensions": {Name: "no-extensions", Type: "bool", Description: "Ignore every overlay"},
		"s3-endpoint":   {Name: "s3-endpoint", Type: "string", Description: "S3 endpoint"},
		"s3-bucket":     {Name: "s3-bucket", Type: "string", Description: "S3 bucket"},
		"s3-access-key": {Name: "s3-access-key", Type: "string", Description: "S3 access key"},
		"s3-secret-key": {Name: "s3-secret-key", Type: "string", Description: "S3 secret key"},
		"s3-ssl":        {Name: "s3-ssl", Type: "bool", Description: "Use TLS for S3"},
		"consul-addr":   {Name: "consul-addr", Type: "string", Description: "Consul address"},
		"consul-token":  {Name: "consul-token", Type: "string", Description: "Consul ACL token"},
		"consul-dc":     {Name: "consul-dc", Type: "string", Description: "Consul datacenter"},
	},
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:])
	cancel()
	os.Exit(code)
}

func run(ctx context.Context, raw []string) int {
	global, rest := splitArgs(raw)

	args, err := cmd.NewParser(globalFlags).Parse(global)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}

	level, err := log.Parse(args.String("log-level"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}

	// The browser owns the terminal, so logs only go to the file there
	logger := log.NewLogger("x4vfs", level, args.String("log-file"), len(rest) == 0)

	storage, err := newStorage(args)
	if err != nil {
		logger.Error("Failed to create '%s' backend: %v", args.String("backend"), err)
		return 1
	}

	if err := storage.Open(ctx); err != nil {
		logger.Error("Failed to open '%s' backend: %v", storage.Name(), err)
		return 1
	}

	opts := []vfs.VirtualFileSystemOption{vfs.WithLogger(logger)}
	if args.Bool("no-extensions") {
		opts = append(opts, vfs.WithoutExtensions())
	}

	fs, err := vfs.NewVirtualFileSystem(ctx, storage, opts...)
	if err != nil {
		storage.Close(ctx)
		logger.Error("Failed to load file system: %v", err)
		return 1
	}
	defer fs.Close(ctx)

	manager := cmd.NewManager(fs)
	if err := builtin.Register(manager, logger); err != nil {
		logger.Error("Failed to register commands: %v", err)
		return 1
	}

	if len(rest) == 0 {
		model := tui.NewModel(tui.NewVFSAdapter(ctx, fs, manager, logger.Named("tui")))

		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
		if _, err := p.Run(); err != nil {
			logger.Error("TUI error: %v", err)
			return 1
		}
		return 0
	}

	if rest[0] == "help" {
		fmt.Fprintln(os.Stdout, "usage: x4vfs [global flags] [command [args...]]")
		fmt.Fprintln(os.Stdout, "\nCommands:")
		manager.Usage(os.Stdout)
		return 0
	}

	code, err := manager.Execute(ctx, os.Stdout, rest...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
	}
	return code
}

func newStorage(args *cmd.CommandArgs) (backend.ArchiveStorage, error) {
	switch args.String("backend") {
	case "direct":
		return direct.NewDirectBackend(args.String("input"))
	case "s3":
		return s3.NewS3Backend(s3.S3BackendConfig{
			Endpoint:  args.String("s3-endpoint"),
			Bucket:    args.String("s3-bucket"),
			AccessKey: args.String("s3-access-key"),
			SecretKey: args.String("s3-secret-key"),
			UseSSL:    args.Bool("s3-ssl"),
			Prefix:    prefixOf(args),
		})
	case "consul":
		return consul.NewConsulBackend(&consul.ConsulBackendConfig{
			Address:    args.String("consul-addr"),
			Token:      args.String("consul-token"),
			Datacenter: args.String("consul-dc"),
			Prefix:     prefixOf(args),
		})
	}

	return nil, fmt.Errorf("unknown backend '%s'", args.String("backend"))
}

// prefixOf maps the default input directory to the bucket or KV root.
func prefixOf(args *cmd.CommandArgs) string {
	if input := args.String("input"); input != "." {
		return input
	}
	return ""
}

// splitArgs separates the global flags from the command line that follows
// them. Global flags end at the first positional argument.
func splitArgs(raw []string) ([]string, []string) {
	for i := 0; i < len(raw); i++ {
		arg := raw[i]
		if arg == "--" {
			return raw[:i], raw[i+1:]
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			return raw[:i], raw[i:]
		}
		if strings.Contains(arg, "=") || takesNoValue(arg) {
			continue
		}
		// the flag value
		i++
	}

	return raw, nil
}

func takesNoValue(arg string) bool {
	name := strings.TrimLeft(arg, "-")
	for _, flag := range globalFlags.Flags {
		if flag.Name == name || flag.Short == name {
			return flag.Type == "bool"
		}
	}
	// unknown flags are left for the parser to report
	return true
}
