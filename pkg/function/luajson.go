package function

import (
	"github.com/joeydtaylor/steeze-fn/pkg/codec"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	lua "github.com/yuin/gopher-lua"
)

func newJSONModule(L *lua.LState) *lua.LTable {
	return L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"encode": jsonEncode,
		"decode": jsonDecode,
		"get":    jsonGet,
		"set":    jsonSet,
	})
}

// json.encode(value) -> string | nil, err
func jsonEncode(L *lua.LState) int {
	b, err := codec.JSON.Marshal(toGo(L.CheckAny(1)))
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LString(b))
	return 1
}

// json.decode(string) -> value | nil, err
func jsonDecode(L *lua.LState) int {
	var v any
	if err := codec.JSON.Unmarshal([]byte(L.CheckString(1)), &v); err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(toLua(L, v))
	return 1
}

// json.get(string, path) -> value | nil
func jsonGet(L *lua.LState) int {
	res := gjson.Get(L.CheckString(1), L.CheckString(2))
	if !res.Exists() {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(toLua(L, res.Value()))
	return 1
}

// json.set(string, path, value) -> string | nil, err
func jsonSet(L *lua.LState) int {
	out, err := sjson.Set(L.CheckString(1), L.CheckString(2), toGo(L.CheckAny(3)))
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LString(out))
	return 1
}
