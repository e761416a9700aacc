package http

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/bruecke-dev/bruecke/pkg/debug"
	"github.com/bruecke-dev/bruecke/pkg/observability"
	"github.com/bruecke-dev/bruecke/pkg/registry"
	"github.com/bruecke-dev/bruecke/pkg/stream"
)

// attachStream switches the connection to SSE mode and pumps the stream
// until the host closes it, the client disconnects, or a write fails. The
// attach happens unconditionally: a stream the host has already closed is
// still attached and drained, so events pushed before the close are never
// lost. Finalization (slot release, registry removal, the StreamClosed
// acknowledgement) happens here, on the worker goroutine, exactly once.
func (a *Adapter) attachStream(w http.ResponseWriter, r *http.Request, p *registry.PendingRequest, strm *stream.Stream, counted bool) {
	for k, v := range strm.Headers() {
		if strings.EqualFold(k, "Content-Type") {
			continue
		}
		w.Header().Set(k, v)
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	rc := http.NewResponseController(w)
	rc.Flush()

	observability.StreamsActive.Inc()
	debug.Log("streaming", "stream attached", "request_id", p.ID)

	// A disconnect is not observable while we are parked in WaitForEvent;
	// surface it as a state change that the wait loop does see.
	stop := context.AfterFunc(r.Context(), strm.MarkClientGone)
	defer stop()

	a.pump(w, rc, strm, p.ID)

	observability.StreamsActive.Dec()
	debug.Log("streaming", "stream detached", "request_id", p.ID, "state", int(strm.State()))

	if counted {
		a.reg.DecrementActive()
	}
	a.reg.Remove(p.ID)

	// The request context is likely dead by now; the acknowledgement must
	// still reach the host.
	a.notifier.StreamClosed(context.Background(), p.ID)
}

// pump drains queued events to the wire, emitting a keepalive comment after
// each idle interval. It returns once the stream reports Ended with an
// empty queue, or a write fails.
func (a *Adapter) pump(w io.Writer, rc *http.ResponseController, strm *stream.Stream, id string) {
	for {
		frame, res := strm.WaitForEvent(a.config.KeepaliveInterval)
		switch res {
		case stream.NextEvent:
			if !a.writeFrame(w, rc, strm, id, frame) {
				return
			}
		case stream.Timeout:
			if !a.writeFrame(w, rc, strm, id, stream.Keepalive) {
				return
			}
		case stream.Ended:
			return
		}
	}
}

// writeFrame writes one frame and flushes it. On failure the client is
// treated as gone so the wait loop unwinds promptly.
func (a *Adapter) writeFrame(w io.Writer, rc *http.ResponseController, strm *stream.Stream, id string, frame string) bool {
	if _, err := io.WriteString(w, frame); err != nil {
		debug.Log("streaming", "write failed, marking client gone", "request_id", id, "error", err)
		strm.MarkClientGone()
		return false
	}
	if err := rc.Flush(); err != nil {
		debug.Log("streaming", "flush failed, marking client gone", "request_id", id, "error", err)
		strm.MarkClientGone()
		return false
	}
	return true
}
