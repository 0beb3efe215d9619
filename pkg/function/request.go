package function

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
)

func newRequestTable(L *lua.LState, key string, env Env) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("key", lua.LString(key))
	t.RawSetString("body", lua.LString(env.Body))
	t.RawSetString("request_id", lua.LString(env.RequestID))

	r := env.Request
	if r != nil {
		t.RawSetString("method", lua.LString(r.Method))
		t.RawSetString("path", lua.LString(r.URL.Path))
		t.RawSetString("remote_addr", lua.LString(r.RemoteAddr))

		query := L.NewTable()
		for k, vs := range r.URL.Query() {
			if len(vs) > 0 {
				query.RawSetString(k, lua.LString(vs[0]))
			}
		}
		t.RawSetString("query", query)

		headers := L.NewTable()
		for k, vs := range r.Header {
			if len(vs) > 0 {
				headers.RawSetString(strings.ToLower(k), lua.LString(vs[0]))
			}
		}
		t.RawSetString("headers", headers)
	}

	if u := env.User; u != nil {
		user := L.NewTable()
		user.RawSetString("username", lua.LString(u.Username))
		user.RawSetString("role", lua.LString(u.Role))
		user.RawSetString("provider", lua.LString(u.Provider))
		user.RawSetString("is_admin", lua.LBool(u.Admin))
		t.RawSetString("user", user)
	}
	return t
}
