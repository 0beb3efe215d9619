package function

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/joeydtaylor/steeze-fn/pkg/codec"
	lua "github.com/yuin/gopher-lua"
)

const responseTypeName = "steeze.response"

// Response is the buffered output of one invocation.
type Response struct {
	Status int
	Header http.Header
	Body   bytes.Buffer
}

func newResponse() *Response {
	return &Response{Header: http.Header{}}
}

// Send copies the buffered response to w. A handler that never set a
// status gets 200.
func (r *Response) Send(w http.ResponseWriter) {
	for k, vs := range r.Header {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}
	if w.Header().Get("Content-Length") == "" {
		w.Header().Set("Content-Length", strconv.Itoa(r.Body.Len()))
	}
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(r.Body.Bytes())
}

func registerResponseType(L *lua.LState) {
	mt := L.NewTypeMetatable(responseTypeName)
	L.SetField(mt, "__index", L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"status": resStatus,
		"header": resHeader,
		"write":  resWrite,
		"json":   resJSON,
	}))
}

func pushResponse(L *lua.LState, r *Response) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = r
	L.SetMetatable(ud, L.GetTypeMetatable(responseTypeName))
	return ud
}

func checkResponse(L *lua.LState) *Response {
	ud := L.CheckUserData(1)
	if r, ok := ud.Value.(*Response); ok {
		return r
	}
	L.ArgError(1, "response expected")
	return nil
}

// res:status(code)
func resStatus(L *lua.LState) int {
	r := checkResponse(L)
	code := L.CheckInt(2)
	if code < 100 || code > 999 {
		L.ArgError(2, "invalid status code")
	}
	r.Status = code
	L.Push(L.Get(1))
	return 1
}

// res:header(name, value)
func resHeader(L *lua.LState) int {
	r := checkResponse(L)
	r.Header.Set(L.CheckString(2), L.CheckString(3))
	L.Push(L.Get(1))
	return 1
}

// res:write(...)
func resWrite(L *lua.LState) int {
	r := checkResponse(L)
	for i := 2; i <= L.GetTop(); i++ {
		r.Body.WriteString(L.ToStringMeta(L.Get(i)).String())
	}
	L.Push(L.Get(1))
	return 1
}

// res:json(value)
func resJSON(L *lua.LState) int {
	r := checkResponse(L)
	b, err := codec.JSON.Marshal(toGo(L.CheckAny(2)))
	if err != nil {
		L.RaiseError("json: %v", err)
		return 0
	}
	if r.Header.Get("Content-Type") == "" {
		r.Header.Set("Content-Type", codec.JSON.ContentType())
	}
	r.Body.Write(b)
	L.Push(L.Get(1))
	return 1
}
