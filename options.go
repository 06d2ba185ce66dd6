package vfs

import (
	"fmt"
	"regexp"

	"github.com/mwantia/x4vfs/catalog"
	"github.com/mwantia/x4vfs/data"
	"github.com/mwantia/x4vfs/log"
)

// DefaultExtensionsDir holds one overlay source per subdirectory.
const DefaultExtensionsDir = "extensions"

type VirtualFileSystemOptions struct {
	LogLevel      log.LogLevel
	LogFile       string
	NoTerminalLog bool
	Logger        *log.Logger

	ExtensionsDir  string
	NoExtensions   bool
	ExcludePattern *regexp.Regexp
}

type VirtualFileSystemOption func(*VirtualFileSystemOptions) error

func newDefaultVirtualFileSystemOptions() *VirtualFileSystemOptions {
	return &VirtualFileSystemOptions{
		LogLevel:       log.Info,
		ExtensionsDir:  DefaultExtensionsDir,
		ExcludePattern: catalog.DefaultExcludePattern,
	}
}

func WithLogLevel(logLevel log.LogLevel) VirtualFileSystemOption {
	return func(opts *VirtualFileSystemOptions) error {
		opts.LogLevel = logLevel
		return nil
	}
}

func WithoutTerminalLog() VirtualFileSystemOption {
	return func(opts *VirtualFileSystemOptions) error {
		opts.NoTerminalLog = true
		return nil
	}
}

func WithLogFile(logFile string) VirtualFileSystemOption {
	return func(opts *VirtualFileSystemOptions) error {
		opts.LogFile = logFile

		return nil
	}
}

// WithLogger replaces the logger built from the log level and file options.
func WithLogger(logger *log.Logger) VirtualFileSystemOption {
	return func(opts *VirtualFileSystemOptions) error {
		opts.Logger = logger
		return nil
	}
}

func WithExtensionsDir(dir string) VirtualFileSystemOption {
	return func(opts *VirtualFileSystemOptions) error {
		dir = data.NormalizePath(dir)
		if dir == "" {
			return fmt.Errorf("%w: extensions directory cannot be empty", data.ErrInvalidPath)
		}

		opts.ExtensionsDir = dir
		return nil
	}
}

// WithoutExtensions loads the base source only.
func WithoutExtensions() VirtualFileSystemOption {
	return func(opts *VirtualFileSystemOptions) error {
		opts.NoExtensions = true
		return nil
	}
}

// WithExcludePattern sets which manifest names every source skips.
// A nil pattern keeps every manifest.
func WithExcludePattern(pattern *regexp.Regexp) VirtualFileSystemOption {
	return func(opts *VirtualFileSystemOptions) error {
		opts.ExcludePattern = pattern
		return nil
	}
}
