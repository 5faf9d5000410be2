// registry stores the peers of a mesh in a JSON document guarded by an
// advisory file lock
package registry

import "fmt"

// CorruptDocumentError: the registry document exists but could not be
// read or parsed
type CorruptDocumentError struct {
	Path string
	Err  error
}

func (e *CorruptDocumentError) Error() string {
	return fmt.Sprintf("registry %s is corrupt: %s", e.Path, e.Err.Error())
}

func (e *CorruptDocumentError) Unwrap() error {
	return e.Err
}

// UnreadableDocumentError: the registry document could not be opened.
// Unlike a corrupt document it is never treated as empty, since it could
// not be replaced either.
type UnreadableDocumentError struct {
	Path string
	Err  error
}

func (e *UnreadableDocumentError) Error() string {
	return fmt.Sprintf("could not open registry %s: %s", e.Path, e.Err.Error())
}

func (e *UnreadableDocumentError) Unwrap() error {
	return e.Err
}
