package core

import (
	"net/http"
	"path"
	"strconv"
	"strings"
)

const (
	notFoundBody = "No Found!\n"
	errorBody    = "Error!\n"
)

func writeText(w http.ResponseWriter, status int, body string) {
	h := w.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// RouteKey maps a request path to a registry key: the cleaned path without
// its leading slash. Dot segments are resolved against the root, so no key
// produced here can climb above it.
func RouteKey(p string) string {
	return strings.TrimPrefix(path.Clean("/"+p), "/")
}
