// Package registry maps route keys to loaded functions.
//
// Readers always see exactly one complete Snapshot through an atomic
// pointer. Full rebuilds happen off to the side and are published with a
// single store; lazy single-key loads publish a copy-on-write successor of
// the current snapshot with compare-and-swap, so neither path ever blocks a
// lookup.
package registry

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joeydtaylor/steeze-fn/pkg/function"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultExt is the handler source extension used when none is configured.
const DefaultExt = ".lua"

type Options struct {
	Root string // handler root directory
	Ext  string // handler source extension, including the dot
}

type Registry struct {
	root string
	ext  string
	log  *zap.Logger

	current atomic.Pointer[Snapshot]
	loads   singleflight.Group
}

// New returns a registry holding an empty snapshot.
func New(opts Options, log *zap.Logger) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	ext := opts.Ext
	if ext == "" {
		ext = DefaultExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	r := &Registry{root: filepath.Clean(opts.Root), ext: ext, log: log}
	r.current.Store(NewSnapshot(nil))
	return r
}

func (r *Registry) Root() string { return r.root }
func (r *Registry) Ext() string  { return r.ext }

// Current returns the published snapshot.
func (r *Registry) Current() *Snapshot { return r.current.Load() }

// Lookup is a pure read of the current snapshot.
func (r *Registry) Lookup(key string) (*function.Function, bool) {
	return r.current.Load().Get(key)
}

// ReplaceAll publishes s as the current snapshot. Functions already handed
// out from the previous snapshot stay valid.
func (r *Registry) ReplaceAll(s *Snapshot) {
	if s == nil {
		s = NewSnapshot(nil)
	}
	r.current.Store(s)
}

// GetOrLoad returns the cached function for key or loads it from disk.
//
// A missing source yields ErrNotFound. A source that fails to compile yields
// a *LoadError and is not cached, so every call retries until it is fixed.
func (r *Registry) GetOrLoad(key string) (*function.Function, error) {
	if fn, ok := r.Lookup(key); ok {
		return fn, nil
	}
	if !ValidKey(key) {
		return nil, ErrNotFound
	}

	v, err, _ := r.loads.Do(key, func() (any, error) {
		if fn, ok := r.Lookup(key); ok {
			return fn, nil
		}
		fn, err := function.Load(key, r.PathFor(key))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, ErrNotFound
			}
			return nil, &LoadError{Key: key, Err: err}
		}
		return r.insert(key, fn), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*function.Function), nil
}

// insert publishes a successor of the current snapshot that maps key to fn.
// An entry published by a concurrent refresh wins over fn.
func (r *Registry) insert(key string, fn *function.Function) *function.Function {
	for {
		cur := r.current.Load()
		if existing, ok := cur.Get(key); ok {
			return existing
		}
		if r.current.CompareAndSwap(cur, cur.with(key, fn)) {
			return fn
		}
	}
}

// PathFor returns the source file backing key.
func (r *Registry) PathFor(key string) string {
	return filepath.Join(r.root, filepath.FromSlash(key)+r.ext)
}

// ValidKey reports whether key can name a file under the root.
func ValidKey(key string) bool {
	if key == "" || strings.ContainsAny(key, "\\\x00") {
		return false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return true
}
