package function

import (
	"context"
	"fmt"
	"net/http"

	lua "github.com/yuin/gopher-lua"
)

// Store is the shared external-store handle exposed to handlers as `db`.
type Store interface {
	Query(ctx context.Context, query string, args ...any) ([]map[string]any, error)
	Exec(ctx context.Context, query string, args ...any) (int64, error)
}

// Principal is the authenticated caller, if any.
type Principal struct {
	Username string
	Role     string
	Provider string
	Admin    bool
}

// Env is the execution context of a single invocation. It is the whole
// capability surface a handler receives.
type Env struct {
	Request   *http.Request
	Body      []byte
	RequestID string
	User      *Principal
	Store     Store
}

// Invoke runs the handler against env and returns its buffered response.
// ctx bounds execution: cancelling it aborts the running script.
func (f *Function) Invoke(ctx context.Context, env Env) (resp *Response, err error) {
	L := lua.NewState()
	defer L.Close()
	L.SetContext(ctx)

	resp = newResponse()

	defer func() {
		if r := recover(); r != nil {
			resp = nil
			err = &InvocationError{Key: f.Key, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	registerResponseType(L)
	req := newRequestTable(L, f.Key, env)
	res := pushResponse(L, resp)

	L.SetGlobal("req", req)
	L.SetGlobal("res", res)
	L.SetGlobal("json", newJSONModule(L))
	if env.Store != nil {
		L.SetGlobal("db", newStoreModule(ctx, L, env.Store))
	} else {
		L.SetGlobal("db", lua.LNil)
	}

	L.Push(L.NewFunctionFromProto(f.proto))
	L.Push(req)
	L.Push(res)
	if err := L.PCall(2, 0, nil); err != nil {
		return nil, &InvocationError{Key: f.Key, Err: err}
	}
	return resp, nil
}
