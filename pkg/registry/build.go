package registry

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/joeydtaylor/steeze-fn/pkg/function"
	"go.uber.org/zap"
)

// Build walks the root and compiles every handler source into a new,
// unpublished snapshot. Per-file failures are collected into the returned
// error; the affected keys are left out and the walk continues.
func (r *Registry) Build() (*Snapshot, error) {
	funcs := map[string]*function.Function{}
	var merr *multierror.Error

	// WalkDir does not descend into a symlinked root.
	root, err := filepath.EvalSymlinks(r.root)
	if err != nil {
		return NewSnapshot(funcs), multierror.Append(merr, &WalkError{Path: r.root, Err: err})
	}

	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			merr = multierror.Append(merr, &WalkError{Path: p, Err: err})
			return nil
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), r.ext) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			merr = multierror.Append(merr, &WalkError{Path: p, Err: err})
			return nil
		}
		key := strings.TrimSuffix(filepath.ToSlash(rel), r.ext)
		if !ValidKey(key) {
			return nil
		}
		fn, err := function.Load(key, p)
		switch {
		case err == nil:
			funcs[key] = fn
		case errors.Is(err, fs.ErrNotExist):
			merr = multierror.Append(merr, &WalkError{Path: p, Err: err})
		default:
			merr = multierror.Append(merr, &LoadError{Key: key, Err: err})
		}
		return nil
	})

	return NewSnapshot(funcs), merr.ErrorOrNil()
}

// Refresh builds a new snapshot and publishes it. Build failures are logged
// and returned; they never prevent publication.
func (r *Registry) Refresh() (*Snapshot, error) {
	snap, err := r.Build()
	failures := Failures(err)
	for _, e := range failures {
		r.log.Warn("load function failed", zap.Error(e))
	}
	r.ReplaceAll(snap)
	r.log.Info("functions reloaded",
		zap.String("generation", snap.ID().String()),
		zap.String("root", r.root),
		zap.Time("builtAt", snap.BuiltAt()),
		zap.Int("count", snap.Len()),
		zap.Int("failed", len(failures)),
	)
	return snap, err
}

// Failures unpacks the per-entry errors of a Build.
func Failures(err error) []error {
	if err == nil {
		return nil
	}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		return merr.Errors
	}
	return []error{err}
}
