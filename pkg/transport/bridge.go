package transport

import (
	"log/slog"

	"github.com/bruecke-dev/bruecke/pkg/observability"
	"github.com/bruecke-dev/bruecke/pkg/registry"
)

// Bridge is the decision API the host calls to resolve pending requests.
// All methods are safe for concurrent use from any goroutine; decisions on
// one request are serialized by that request's own lock, decisions on
// different requests proceed independently.
//
// Every method returns false, without side effects, when the ID is unknown
// or the request is not in the required state.
type Bridge struct {
	reg    *registry.Registry
	logger *slog.Logger
}

// NewBridge creates the decision API over the given registry. The registry
// must be the same instance the HTTP adapter was built with.
func NewBridge(reg *registry.Registry, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{reg: reg, logger: logger}
}

// SendResponse delivers a plain HTTP response for a request still awaiting
// its first decision. The parked worker wakes and writes the response.
func (b *Bridge) SendResponse(id string, status int, headers map[string]string, body []byte) bool {
	p, found := b.reg.Get(id)
	ok := found && p.Respond(status, headers, body)
	observability.HostDecisionsTotal.WithLabelValues("send-response", outcome(ok)).Inc()
	if !ok {
		b.logger.Debug("stale send-response decision", slog.String("request_id", id))
	}
	return ok
}

// SendStreamEvent escalates a pending request to an SSE stream, or appends
// another event to one already streaming. On the first call the headers are
// captured for the response's first byte and the parked worker wakes to
// become the stream pump; on later calls the headers are ignored. An empty
// data string on the first call opens the stream without queueing an event.
func (b *Bridge) SendStreamEvent(id, data string, headers map[string]string, eventType string) bool {
	if eventType == "" {
		eventType = "message"
	}
	p, found := b.reg.Get(id)
	if !found {
		observability.HostDecisionsTotal.WithLabelValues("send-stream-event", "stale").Inc()
		return false
	}

	s, ok := p.OpenStream(headers)
	if ok && data != "" {
		s.Push(data, eventType)
	}
	observability.HostDecisionsTotal.WithLabelValues("send-stream-event", outcome(ok)).Inc()
	if !ok {
		b.logger.Debug("stale send-stream-event decision", slog.String("request_id", id))
	}
	return ok
}

// CloseStream ends an active stream. Frames queued but not yet delivered
// are still drained by the pump before the response ends; the host receives
// exactly one StreamClosed signal once the stream has truly ended.
func (b *Bridge) CloseStream(id string) bool {
	p, found := b.reg.Get(id)
	ok := found && p.CloseStream()
	observability.HostDecisionsTotal.WithLabelValues("close-stream", outcome(ok)).Inc()
	if !ok {
		b.logger.Debug("stale close-stream decision", slog.String("request_id", id))
	}
	return ok
}

// RequestBody returns the full retained body for a request whose
// notification reported bodyTruncated. The bytes are the normalized body,
// unmodified by the ceiling. The second return is false for unknown IDs.
func (b *Bridge) RequestBody(id string) (string, bool) {
	p, found := b.reg.Get(id)
	if !found {
		return "", false
	}
	return string(p.Body), true
}

func outcome(ok bool) string {
	if ok {
		return "applied"
	}
	return "stale"
}
