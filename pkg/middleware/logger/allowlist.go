package logger

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"sync"
)

// Bodies larger than this are never logged.
const maxLoggedBody = 1 << 16

type allowlist struct {
	mu    sync.RWMutex
	paths map[string]struct{}
}

// AddBodyLogPaths extends the set of paths whose request bodies are logged.
func (m *Middleware) AddBodyLogPaths(paths ...string) {
	m.bodies.mu.Lock()
	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p != "" {
			m.bodies.paths[p] = struct{}{}
		}
	}
	m.bodies.mu.Unlock()
}

// Only JSON writes on allowlisted routes are candidates for body logging.
func (m *Middleware) wantsBody(r *http.Request) bool {
	if r.Method != http.MethodPost && r.Method != http.MethodPut && r.Method != http.MethodPatch {
		return false
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return false
	}
	m.bodies.mu.RLock()
	_, ok := m.bodies.paths[r.URL.Path]
	m.bodies.mu.RUnlock()
	return ok
}

// bodyTap copies up to limit bytes of what the downstream reader consumes.
type bodyTap struct {
	io.ReadCloser
	buf   bytes.Buffer
	limit int
}

func (t *bodyTap) Read(p []byte) (int, error) {
	n, err := t.ReadCloser.Read(p)
	if room := t.limit - t.buf.Len(); n > 0 && room > 0 {
		t.buf.Write(p[:min(n, room)])
	}
	return n, err
}

func (t *bodyTap) bytes() []byte {
	if t == nil {
		return nil
	}
	return t.buf.Bytes()
}
