/*
Package service implements the protocol surface: the request handler behind
every JSON-RPC method, the executor contract and the fiber HTTP server.
*/
package service

import "context"

/*
User identifies the authenticated caller of a request.  The engine treats it
as opaque; auth middleware decides what goes in it.
*/
type User struct {
	Name          string
	Authenticated bool
}

// Anonymous is the user attached to unauthenticated calls.
var Anonymous = User{Name: "anonymous"}

type callContextKey struct{}

/*
CallContext carries per-call state that is orthogonal to the RPC params,
threaded through context.Context so it crosses package boundaries without
widening signatures.
*/
type CallContext struct {
	User User
}

func WithCallContext(ctx context.Context, call *CallContext) context.Context {
	return context.WithValue(ctx, callContextKey{}, call)
}

/*
CallContextFrom extracts the call context, falling back to an anonymous one
so callers never branch on absence.
*/
func CallContextFrom(ctx context.Context) *CallContext {
	if call, ok := ctx.Value(callContextKey{}).(*CallContext); ok && call != nil {
		return call
	}

	return &CallContext{User: Anonymous}
}
