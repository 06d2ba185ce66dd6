package errors

import "fmt"

// DirectiveError describes one overlay directive that was skipped.
type DirectiveError struct {
	Index     int
	Operation string
	Selector  string
	Err       error
}

func (e *DirectiveError) Error() string {
	return fmt.Sprintf("%v: #%d <%s sel=%q>: %v", ErrMalformedDirective, e.Index, e.Operation, e.Selector, e.Err)
}

func (e *DirectiveError) Unwrap() []error {
	return []error{ErrMalformedDirective, e.Err}
}

func MalformedDirective(err error, index int, operation, selector string) *DirectiveError {
	return &DirectiveError{Index: index, Operation: operation, Selector: selector, Err: err}
}

func MalformedDocument(err error, path string) error {
	return newError(ErrMalformedDocument, err, "'%s'", path)
}
