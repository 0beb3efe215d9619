package registry

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/joeydtaylor/steeze-fn/pkg/function"
)

// Snapshot is one complete, immutable mapping from route key to Function.
// Lazy inserts produce a copy that keeps the generation ID of the refresh
// it descends from.
type Snapshot struct {
	id      uuid.UUID
	builtAt time.Time
	funcs   map[string]*function.Function
}

// NewSnapshot copies funcs into a fresh snapshot generation.
func NewSnapshot(funcs map[string]*function.Function) *Snapshot {
	m := make(map[string]*function.Function, len(funcs))
	for k, v := range funcs {
		m[k] = v
	}
	return &Snapshot{id: uuid.New(), builtAt: time.Now(), funcs: m}
}

func (s *Snapshot) Get(key string) (*function.Function, bool) {
	fn, ok := s.funcs[key]
	return fn, ok
}

func (s *Snapshot) ID() uuid.UUID      { return s.id }
func (s *Snapshot) BuiltAt() time.Time { return s.builtAt }
func (s *Snapshot) Len() int           { return len(s.funcs) }

// Keys returns the route keys in sorted order.
func (s *Snapshot) Keys() []string {
	out := make([]string, 0, len(s.funcs))
	for k := range s.funcs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// with returns a copy of s that also maps key to fn.
func (s *Snapshot) with(key string, fn *function.Function) *Snapshot {
	m := make(map[string]*function.Function, len(s.funcs)+1)
	for k, v := range s.funcs {
		m[k] = v
	}
	m[key] = fn
	return &Snapshot{id: s.id, builtAt: s.builtAt, funcs: m}
}
