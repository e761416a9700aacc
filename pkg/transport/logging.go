package transport

import (
	"context"
	"log/slog"

	"github.com/bruecke-dev/bruecke/pkg/api"
)

// Logging returns middleware that emits one structured log entry per
// host-bound signal: kind, request ID, method, path, and whether the body
// was withheld from the notification.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next Notifier) Notifier {
		return loggingNotifier{next: next, logger: logger}
	}
}

type loggingNotifier struct {
	next   Notifier
	logger *slog.Logger
}

func (l loggingNotifier) Request(ctx context.Context, kind api.SignalKind, n *api.Notification) {
	l.logger.LogAttrs(ctx, slog.LevelInfo, "host notified",
		slog.String("kind", string(kind)),
		slog.String("request_id", n.ID),
		slog.String("method", n.Method),
		slog.String("path", n.Path),
		slog.Bool("body_truncated", n.BodyTruncated),
	)
	l.next.Request(ctx, kind, n)
}

func (l loggingNotifier) StreamClosed(ctx context.Context, id string) {
	l.logger.LogAttrs(ctx, slog.LevelInfo, "stream closed",
		slog.String("request_id", id),
	)
	l.next.StreamClosed(ctx, id)
}
