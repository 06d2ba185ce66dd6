package errors

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// Path resolution errors
	ErrInvalidPath  = errors.New("vfs: invalid path detected")
	ErrNotExist     = errors.New("vfs: file does not exist")
	ErrNotDirectory = errors.New("vfs: not a directory")

	// Archive errors
	ErrMalformedManifest = errors.New("vfs: malformed archive manifest")
	ErrReadFailed        = errors.New("vfs: archive read failed")
	ErrMountFailed       = errors.New("vfs: storage initialization failed")

	// Merge errors
	ErrMalformedDirective = errors.New("vfs: malformed merge directive")
	ErrSelectorNoMatch    = errors.New("vfs: selector matched nothing")
	ErrMissingContent     = errors.New("vfs: directive has no content")
	ErrMalformedDocument  = errors.New("vfs: malformed xml document")

	// Backend errors
	ErrUnsupported = errors.New("vfs: operation unsupported by backend")
)

type Errors struct {
	mu     sync.RWMutex
	errors []error
}

func (e *Errors) Add(err error) {
	if err == nil {
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.errors = append(e.errors, err)
}

func (e *Errors) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return len(e.errors)
}

func (e *Errors) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.errors = make([]error, 0)
}

func (e *Errors) Errors() error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.errors) == 0 {
		return nil
	}

	return errors.Join(e.errors...)
}

func newError(sentinel, err error, format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", sentinel, text, err)
	}

	return fmt.Errorf("%w: %s", sentinel, text)
}
