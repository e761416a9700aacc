package transport

import (
	"context"
	"log/slog"

	"github.com/bruecke-dev/bruecke/pkg/api"
)

// Recovery returns middleware that catches panics in the host's notifier
// callbacks. The worker goroutine that delivered the signal keeps running;
// the parked request then resolves through the normal timeout path if the
// host never recovers enough to decide.
func Recovery(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Notifier) Notifier {
		return recoveryNotifier{next: next, logger: logger}
	}
}

type recoveryNotifier struct {
	next   Notifier
	logger *slog.Logger
}

func (r recoveryNotifier) Request(ctx context.Context, kind api.SignalKind, n *api.Notification) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("host notifier panicked",
				slog.String("kind", string(kind)),
				slog.String("request_id", n.ID),
				slog.Any("panic", rec))
		}
	}()
	r.next.Request(ctx, kind, n)
}

func (r recoveryNotifier) StreamClosed(ctx context.Context, id string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("host notifier panicked",
				slog.String("kind", "sse-closed"),
				slog.String("request_id", id),
				slog.Any("panic", rec))
		}
	}()
	r.next.StreamClosed(ctx, id)
}
