package data

import "github.com/mwantia/x4vfs/data/errors"

// Errors re-exported from data/errors.
var (
	ErrInvalidPath  = errors.ErrInvalidPath
	ErrNotExist     = errors.ErrNotExist
	ErrNotDirectory = errors.ErrNotDirectory

	ErrMalformedManifest = errors.ErrMalformedManifest
	ErrReadFailed        = errors.ErrReadFailed
	ErrMountFailed       = errors.ErrMountFailed

	ErrMalformedDirective = errors.ErrMalformedDirective
	ErrSelectorNoMatch    = errors.ErrSelectorNoMatch
	ErrMissingContent     = errors.ErrMissingContent
	ErrMalformedDocument  = errors.ErrMalformedDocument

	ErrUnsupported = errors.ErrUnsupported
)

type (
	Errors         = errors.Errors
	ManifestError  = errors.ManifestError
	DirectiveError = errors.DirectiveError
)
