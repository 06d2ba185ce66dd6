package vfs

import "github.com/mwantia/x4vfs/data"

// Errors returned by the file system, re-exported for callers that only
// import the root package.
var (
	ErrInvalidPath        = data.ErrInvalidPath
	ErrNotExist           = data.ErrNotExist
	ErrNotDirectory       = data.ErrNotDirectory
	ErrMalformedManifest  = data.ErrMalformedManifest
	ErrMalformedDirective = data.ErrMalformedDirective
	ErrMalformedDocument  = data.ErrMalformedDocument
	ErrReadFailed         = data.ErrReadFailed
	ErrMountFailed        = data.ErrMountFailed
)
