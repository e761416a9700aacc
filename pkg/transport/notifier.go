package transport

import (
	"context"

	"github.com/bruecke-dev/bruecke/pkg/api"
)

// Notifier receives host-bound signals. Implementations are supplied by the
// host when it embeds the bridge; both methods are invoked from worker
// goroutines and must not block.
type Notifier interface {
	// Request delivers the description of an admitted request. The kind
	// identifies the route class; the notification carries the request
	// snapshot. Fire-and-forget: the host answers later, through the
	// decision API, using the notification ID.
	Request(ctx context.Context, kind api.SignalKind, n *api.Notification)

	// StreamClosed reports that the stream for the given request ID has
	// truly ended: explicit close, client disconnect, or shutdown. Fired
	// exactly once per stream.
	StreamClosed(ctx context.Context, id string)
}

// NotifierFuncs adapts plain functions to the Notifier interface. Nil
// fields are treated as no-ops.
type NotifierFuncs struct {
	OnRequest      func(ctx context.Context, kind api.SignalKind, n *api.Notification)
	OnStreamClosed func(ctx context.Context, id string)
}

func (f NotifierFuncs) Request(ctx context.Context, kind api.SignalKind, n *api.Notification) {
	if f.OnRequest != nil {
		f.OnRequest(ctx, kind, n)
	}
}

func (f NotifierFuncs) StreamClosed(ctx context.Context, id string) {
	if f.OnStreamClosed != nil {
		f.OnStreamClosed(ctx, id)
	}
}

// Middleware wraps a Notifier to add cross-cutting behavior. Middleware is
// applied in order: the first middleware in the chain is the outermost
// wrapper.
type Middleware func(Notifier) Notifier

// Chain composes multiple middleware into a single middleware.
// Chain(a, b, c) produces a(b(c(notifier))).
func Chain(middlewares ...Middleware) Middleware {
	return func(next Notifier) Notifier {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
