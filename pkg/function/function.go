// Package function turns handler source files into invocable units.
//
// A handler is a Lua chunk. Loading parses and compiles it once into an
// immutable prototype; every invocation runs that prototype in a fresh
// Lua state, so a loaded Function is safe to share between goroutines.
//
// Handlers are trusted: the full Lua standard library is opened and no
// instruction or memory limits are applied. The only bound is the request
// context attached to the state.
package function

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

// Function is a compiled handler unit. It is never mutated after Compile.
type Function struct {
	Key      string
	Path     string
	LoadedAt time.Time

	proto *lua.FunctionProto
}

// CompileError reports handler source that does not parse or compile.
type CompileError struct {
	Path string
	Err  error
}

func (e *CompileError) Error() string { return fmt.Sprintf("compile %s: %v", e.Path, e.Err) }
func (e *CompileError) Unwrap() error { return e.Err }

// InvocationError wraps a failure raised while a handler was running.
type InvocationError struct {
	Key string
	Err error
}

func (e *InvocationError) Error() string { return fmt.Sprintf("invoke %q: %v", e.Key, e.Err) }
func (e *InvocationError) Unwrap() error { return e.Err }

// Compile builds a Function from source text. The source is not retained.
func Compile(key, path string, src []byte) (*Function, error) {
	chunk, err := parse.Parse(bytes.NewReader(src), path)
	if err != nil {
		return nil, &CompileError{Path: path, Err: err}
	}
	proto, err := lua.Compile(chunk, path)
	if err != nil {
		return nil, &CompileError{Path: path, Err: err}
	}
	return &Function{Key: key, Path: path, LoadedAt: time.Now(), proto: proto}, nil
}

// Load reads path and compiles it. A missing file, or a path that is not a
// regular file, yields an error matching fs.ErrNotExist.
func Load(key, path string) (*Function, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !st.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: not a regular file: %w", path, fs.ErrNotExist)
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Compile(key, path, src)
}

// IsCompileError reports whether err came from a failed compile.
func IsCompileError(err error) bool {
	var ce *CompileError
	return errors.As(err, &ce)
}
