package errors

import "fmt"

// ManifestError reports a manifest that failed its line-shape parse.
// Files listed in it stay unavailable for the lifetime of the index.
type ManifestError struct {
	Manifest string
	Line     int
	Err      error
}

func (e *ManifestError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%v: '%s' line %d: %v", ErrMalformedManifest, e.Manifest, e.Line, e.Err)
	}
	return fmt.Sprintf("%v: '%s': %v", ErrMalformedManifest, e.Manifest, e.Err)
}

func (e *ManifestError) Unwrap() []error {
	return []error{ErrMalformedManifest, e.Err}
}

func MalformedManifest(err error, manifest string, line int) error {
	return &ManifestError{Manifest: manifest, Line: line, Err: err}
}

func ReadFailed(err error, key string) error {
	return newError(ErrReadFailed, err, "'%s'", key)
}

func MountFailed(err error, name string) error {
	return newError(ErrMountFailed, err, "backend '%s'", name)
}

func Unsupported(name, operation string) error {
	return newError(ErrUnsupported, nil, "'%s' does not support %s", name, operation)
}
