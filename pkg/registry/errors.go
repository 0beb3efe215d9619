package registry

import (
	"errors"
	"fmt"
)

// ErrNotFound means no handler source exists for a route key.
var ErrNotFound = errors.New("function not found")

// LoadError means the handler source exists but could not be compiled.
type LoadError struct {
	Key string
	Err error
}

func (e *LoadError) Error() string { return fmt.Sprintf("load function %q: %v", e.Key, e.Err) }
func (e *LoadError) Unwrap() error { return e.Err }

// WalkError is a filesystem error met while walking the root during a build.
type WalkError struct {
	Path string
	Err  error
}

func (e *WalkError) Error() string { return fmt.Sprintf("walk %s: %v", e.Path, e.Err) }
func (e *WalkError) Unwrap() error { return e.Err }
