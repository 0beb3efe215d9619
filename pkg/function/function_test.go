package function

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCompile(t *testing.T, src string) *Function {
	t.Helper()
	fn, err := Compile("test", "test.lua", []byte(src))
	require.NoError(t, err)
	return fn
}

func invoke(t *testing.T, fn *Function, r *http.Request, env Env) (*httptest.ResponseRecorder, error) {
	t.Helper()
	env.Request = r
	resp, err := fn.Invoke(context.Background(), env)
	if err != nil {
		return nil, err
	}
	rec := httptest.NewRecorder()
	resp.Send(rec)
	return rec, nil
}

func TestCompileSyntaxError(t *testing.T) {
	_, err := Compile("bad", "bad.lua", []byte(`res:write(`))
	require.Error(t, err)
	assert.True(t, IsCompileError(err))
	assert.False(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("nope", filepath.Join(t.TempDir(), "nope.lua"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
	assert.False(t, IsCompileError(err))
}

func TestLoadDirectoryIsNotFound(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.lua"), 0o755))
	_, err := Load("sub", filepath.Join(dir, "sub.lua"))
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestLoadCompilesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hello.lua")
	require.NoError(t, os.WriteFile(path, []byte(`res:write("hi")`), 0o644))

	fn, err := Load("hello", path)
	require.NoError(t, err)
	assert.Equal(t, "hello", fn.Key)
	assert.Equal(t, path, fn.Path)
	assert.WithinDuration(t, time.Now(), fn.LoadedAt, time.Minute)
}

func TestInvokeEcho(t *testing.T) {
	fn := mustCompile(t, `
		local req, res = ...
		res:status(200)
		res:header("Content-Type", "text/plain")
		res:write(req.body)
	`)
	r := httptest.NewRequest(http.MethodPost, "/echo", strings.NewReader("hello"))
	rec, err := invoke(t, fn, r, Env{Body: []byte("hello")})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())
	assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
}

func TestInvokeDefaultsTo200(t *testing.T) {
	fn := mustCompile(t, `-- nothing`)
	rec, err := invoke(t, fn, httptest.NewRequest(http.MethodGet, "/x", nil), Env{})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestInvokeRequestFields(t *testing.T) {
	fn := mustCompile(t, `
		res:write(req.method, " ", req.path, " ", req.key, " ", req.query.name, " ",
			req.headers["x-thing"], " ", req.user.username, "/", req.user.role, " ",
			tostring(req.user.is_admin), " ", req.request_id)
	`)
	r := httptest.NewRequest(http.MethodGet, "/greet?name=bob", nil)
	r.Header.Set("X-Thing", "42")
	rec, err := invoke(t, fn, r, Env{
		RequestID: "rid-1",
		User:      &Principal{Username: "alice", Role: "admin", Admin: true},
	})
	require.NoError(t, err)
	assert.Equal(t, "GET /greet test bob 42 alice/admin true rid-1", rec.Body.String())
}

func TestInvokeUserNilWhenAnonymous(t *testing.T) {
	fn := mustCompile(t, `res:write(tostring(req.user == nil))`)
	rec, err := invoke(t, fn, httptest.NewRequest(http.MethodGet, "/", nil), Env{})
	require.NoError(t, err)
	assert.Equal(t, "true", rec.Body.String())
}

func TestInvokeRuntimeError(t *testing.T) {
	fn := mustCompile(t, `res:write("partial"); error("boom")`)
	_, err := invoke(t, fn, httptest.NewRequest(http.MethodGet, "/", nil), Env{})
	require.Error(t, err)
	var ie *InvocationError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "test", ie.Key)
	assert.Contains(t, err.Error(), "boom")
}

func TestInvokeBadStatus(t *testing.T) {
	fn := mustCompile(t, `res:status(42)`)
	_, err := invoke(t, fn, httptest.NewRequest(http.MethodGet, "/", nil), Env{})
	require.Error(t, err)
}

func TestInvokeHonoursContext(t *testing.T) {
	fn := mustCompile(t, `while true do end`)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := fn.Invoke(ctx, Env{Request: httptest.NewRequest(http.MethodGet, "/", nil)})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestInvokeConcurrentSharedFunction(t *testing.T) {
	fn := mustCompile(t, `local n = tonumber(req.query.n); res:write(tostring(n * 2))`)
	done := make(chan string, 16)
	for i := 0; i < 16; i++ {
		go func() {
			r := httptest.NewRequest(http.MethodGet, "/?n=21", nil)
			resp, err := fn.Invoke(context.Background(), Env{Request: r})
			if err != nil {
				done <- err.Error()
				return
			}
			done <- resp.Body.String()
		}()
	}
	for i := 0; i < 16; i++ {
		assert.Equal(t, "42", <-done)
	}
}

func TestResponseJSON(t *testing.T) {
	fn := mustCompile(t, `res:json({ok = true, items = {1, 2, 3}, name = "x"})`)
	rec, err := invoke(t, fn, httptest.NewRequest(http.MethodGet, "/", nil), Env{})
	require.NoError(t, err)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"ok":true,"items":[1,2,3],"name":"x"}`, rec.Body.String())
}
