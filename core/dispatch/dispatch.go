// Package dispatch adapts client operations with different concurrency
// models behind one call shape.
//
// A client method is either direct (plain function, returns without
// blocking on I/O) or suspending (context-aware, may block). The two
// variants are an explicit sum: a Method holds exactly one of them,
// and Call is the single dispatch point the transport uses. Which
// variant a client chose is not observable from the outside; both see
// identical cancellation behavior.
package dispatch

import (
	"context"
	"errors"
)

// ErrUnbound is returned when calling a zero-value Method.
var ErrUnbound = errors.New("dispatch: method not bound")

// Method wraps one client operation. The zero value is unbound and
// fails on Call; construct with Direct or Suspending.
type Method[Req, Resp any] struct {
	direct     func(Req) (Resp, error)
	suspending func(context.Context, Req) (Resp, error)
}

// Direct wraps a plain function. It runs inline on the calling
// goroutine; the transport already gives every request its own, so a
// non-blocking implementation needs no further indirection.
func Direct[Req, Resp any](fn func(Req) (Resp, error)) Method[Req, Resp] {
	return Method[Req, Resp]{direct: fn}
}

// Suspending wraps a context-aware function that may block on I/O.
func Suspending[Req, Resp any](fn func(context.Context, Req) (Resp, error)) Method[Req, Resp] {
	return Method[Req, Resp]{suspending: fn}
}

// Bound reports whether the method holds an implementation.
func (m Method[Req, Resp]) Bound() bool {
	return m.direct != nil || m.suspending != nil
}

// Call invokes the wrapped operation. A context that is already done
// short-circuits both variants, keeping cancellation behavior
// independent of how the client was implemented.
func (m Method[Req, Resp]) Call(ctx context.Context, req Req) (Resp, error) {
	var zero Resp
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	switch {
	case m.direct != nil:
		return m.direct(req)
	case m.suspending != nil:
		return m.suspending(ctx, req)
	default:
		return zero, ErrUnbound
	}
}
