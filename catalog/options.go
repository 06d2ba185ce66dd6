package catalog

import (
	"regexp"

	"github.com/mwantia/x4vfs/log"
)

// DefaultExcludePattern skips signature sidecar manifests.
var DefaultExcludePattern = regexp.MustCompile(`sig`)

type IndexOptions struct {
	Logger  *log.Logger
	Exclude *regexp.Regexp
}

type IndexOption func(*IndexOptions) error

func newDefaultIndexOptions() *IndexOptions {
	return &IndexOptions{
		Logger:  log.NewNopLogger(),
		Exclude: DefaultExcludePattern,
	}
}

func WithLogger(logger *log.Logger) IndexOption {
	return func(opts *IndexOptions) error {
		if logger != nil {
			opts.Logger = logger
		}
		return nil
	}
}

// WithExcludePattern overrides which manifest names are skipped at
// enumeration time. A nil pattern disables exclusion.
func WithExcludePattern(pattern *regexp.Regexp) IndexOption {
	return func(opts *IndexOptions) error {
		opts.Exclude = pattern
		return nil
	}
}
