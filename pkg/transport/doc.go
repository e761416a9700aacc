// Package transport defines the two contracts between the bridge and the
// host, plus the middleware chain that wraps the host-bound side.
//
// The bridge and the host share no call stack. Traffic flows in two
// directions:
//
//   - Bridge → host: the [Notifier] interface. For every admitted request
//     the bridge builds an [api.Notification], fires it at the host, and
//     parks the handler goroutine. Notifications are fire-and-forget; the
//     host must return quickly and do its real work elsewhere.
//
//   - Host → bridge: the [Bridge] decision API. On its own schedule the
//     host answers a notification by ID with a plain response, a stream
//     event, or a stream close. Decision calls return plain booleans; a
//     false return (unknown ID, wrong state) has no side effects and is how
//     the host discovers stale IDs.
//
// # Middleware
//
// The middleware chain wraps a Notifier with cross-cutting concerns.
// Built-in middleware provides panic recovery (a panicking host callback
// must not kill the worker goroutine) and structured logging via log/slog.
package transport
