package function

import (
	"context"

	lua "github.com/yuin/gopher-lua"
)

// newStoreModule exposes s as `db`. Queries run under ctx, so they are
// cancelled together with the request.
func newStoreModule(ctx context.Context, L *lua.LState, s Store) *lua.LTable {
	return L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		// db.query(sql, ...) -> rows | nil, err
		"query": func(L *lua.LState) int {
			q, args := storeArgs(L)
			rows, err := s.Query(ctx, q, args...)
			if err != nil {
				L.Push(lua.LNil)
				L.Push(lua.LString(err.Error()))
				return 2
			}
			t := L.CreateTable(len(rows), 0)
			for _, row := range rows {
				t.Append(toLua(L, row))
			}
			L.Push(t)
			return 1
		},
		// db.exec(sql, ...) -> affected | nil, err
		"exec": func(L *lua.LState) int {
			q, args := storeArgs(L)
			n, err := s.Exec(ctx, q, args...)
			if err != nil {
				L.Push(lua.LNil)
				L.Push(lua.LString(err.Error()))
				return 2
			}
			L.Push(lua.LNumber(n))
			return 1
		},
	})
}

// storeArgs accepts both db.query(...) and db:query(...).
func storeArgs(L *lua.LState) (string, []any) {
	first := 1
	if _, ok := L.Get(1).(*lua.LTable); ok {
		first = 2
	}
	q := L.CheckString(first)
	var args []any
	for i := first + 1; i <= L.GetTop(); i++ {
		args = append(args, toGo(L.Get(i)))
	}
	return q, args
}
