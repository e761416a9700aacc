// Package http serves the bridge protocol over HTTP: route dispatch,
// admission control, encoding normalization, the worker↔host rendezvous,
// and the SSE pump.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bruecke-dev/bruecke/pkg/api"
	"github.com/bruecke-dev/bruecke/pkg/debug"
	"github.com/bruecke-dev/bruecke/pkg/encoding"
	"github.com/bruecke-dev/bruecke/pkg/observability"
	"github.com/bruecke-dev/bruecke/pkg/registry"
	"github.com/bruecke-dev/bruecke/pkg/transport"
)

// Config holds configuration for the HTTP adapter.
type Config struct {
	Addr              string
	RequestTimeout    time.Duration // host decision budget on bounded routes
	MaxConcurrent     int           // admission limit for blocking requests
	NotifyBodyLimit   int           // body ceiling in host notifications
	MessageBodyLimit  int64         // hard cap on the fire-and-forget channel
	KeepaliveInterval time.Duration // SSE idle window before a keepalive
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		Addr:              ":8080",
		RequestTimeout:    180 * time.Second,
		MaxConcurrent:     10,
		NotifyBodyLimit:   64 << 10, // 64 KiB
		MessageBodyLimit:  1 << 20,  // 1 MiB
		KeepaliveInterval: 30 * time.Second,
	}
}

// Adapter routes incoming requests, admits or rejects them, signals the
// host, and parks the handler goroutine until the host decides. It shares
// the registry instance with the decision API.
type Adapter struct {
	reg      *registry.Registry
	notifier transport.Notifier
	mux      *http.ServeMux
	config   Config
}

// NewAdapter creates an HTTP adapter over the given registry and notifier.
// Middleware is applied to the notifier in the given order.
func NewAdapter(reg *registry.Registry, notifier transport.Notifier, cfg Config, middlewares ...transport.Middleware) *Adapter {
	if len(middlewares) > 0 {
		notifier = transport.Chain(middlewares...)(notifier)
	}

	a := &Adapter{
		reg:      reg,
		notifier: notifier,
		mux:      http.NewServeMux(),
		config:   cfg,
	}

	a.mux.HandleFunc("POST /mcp", func(w http.ResponseWriter, r *http.Request) {
		a.handleBlocking(w, r, api.SignalMCPPost)
	})
	a.mux.HandleFunc("GET /mcp", a.handleSubscribe)
	a.mux.HandleFunc("POST /mcp/message", a.handleLegacyMessage)
	a.mux.HandleFunc("DELETE /mcp", func(w http.ResponseWriter, r *http.Request) {
		a.handleBlocking(w, r, api.SignalRequest)
	})
	a.mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		a.handleBlocking(w, r, api.SignalRequest)
	})
	a.mux.HandleFunc("GET /api/", func(w http.ResponseWriter, r *http.Request) {
		a.handleBlocking(w, r, api.SignalRequest)
	})
	a.mux.HandleFunc("POST /api/", func(w http.ResponseWriter, r *http.Request) {
		a.handleBlocking(w, r, api.SignalRequest)
	})
	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		transport.WriteAPIError(w, api.NewNotFoundError("not found"))
	})

	return a
}

// Handler returns the http.Handler for this adapter, wrapped with request
// metrics. Use this to integrate with an http.Server or test with httptest.
func (a *Adapter) Handler() http.Handler {
	return observability.MetricsMiddleware(a.mux)
}

// handleBlocking serves every route that occupies a synchronous worker
// slot: admission check, registration, host notification, bounded wait.
func (a *Adapter) handleBlocking(w http.ResponseWriter, r *http.Request, kind api.SignalKind) {
	if !a.reg.TryAcquire(a.config.MaxConcurrent) {
		observability.AdmissionRejectedTotal.WithLabelValues(observability.RouteLabel(r.Method, r.URL.Path)).Inc()
		transport.WriteAPIError(w, api.NewServerBusyError())
		return
	}

	p, err := a.newPending(r)
	if err != nil {
		a.reg.DecrementActive()
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("body", "reading request body: "+err.Error()),
			http.StatusBadRequest)
		return
	}
	a.reg.Register(p)
	a.notify(r, kind, p)

	sseMode := a.awaitDecision(w, r, p, a.config.RequestTimeout, true)
	if !sseMode {
		// Plain response, timeout, or disconnect: clean up here. In SSE
		// mode cleanup belongs to the pump's finalization.
		a.reg.DecrementActive()
		a.reg.Remove(p.ID)
	}
}

// handleSubscribe serves GET /mcp: a passive, long-lived subscription that
// does not occupy a worker slot and waits without a timeout for the host's
// first decision.
func (a *Adapter) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	p, err := a.newPending(r)
	if err != nil {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("body", "reading request body: "+err.Error()),
			http.StatusBadRequest)
		return
	}
	a.reg.Register(p)

	kind := api.SignalSSEConnect
	if isLegacyConnect(r) {
		kind = api.SignalSSELegacyConnect
	}
	a.notify(r, kind, p)

	sseMode := a.awaitDecision(w, r, p, 0, false)
	if !sseMode {
		// The host rejected the subscription with a plain response.
		a.reg.Remove(p.ID)
	}
}

// handleLegacyMessage serves POST /mcp/message: validated, forwarded to the
// host, and acknowledged immediately. Nothing is registered; there is no
// decision to wait for.
func (a *Adapter) handleLegacyMessage(w http.ResponseWriter, r *http.Request) {
	if !r.URL.Query().Has("session_id") {
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("session_id", "session_id is required"),
			http.StatusBadRequest)
		return
	}

	if a.reg.IsAtCapacity(a.config.MaxConcurrent) {
		observability.AdmissionRejectedTotal.WithLabelValues("message").Inc()
		transport.WriteAPIError(w, api.NewTooManyRequestsError())
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MessageBodyLimit)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			transport.WriteErrorResponse(w,
				api.NewInvalidRequestError("body", "request body too large"),
				http.StatusRequestEntityTooLarge)
			return
		}
		transport.WriteErrorResponse(w,
			api.NewInvalidRequestError("body", "reading request body: "+err.Error()),
			http.StatusBadRequest)
		return
	}

	// Full body, no ceiling: the channel is already capped above.
	n := api.NewNotification(api.NewRequestID(), r.Method, r.URL.Path,
		r.URL.Query(), lowercaseHeaders(r.Header), body, 0)
	observability.NotificationsTotal.WithLabelValues(string(api.SignalSSELegacyMessage)).Inc()
	a.notifier.Request(r.Context(), api.SignalSSELegacyMessage, n)

	w.WriteHeader(http.StatusAccepted)
}

// newPending snapshots the request into a registry entry. Bodies and query
// values on the generic API surface are normalized to UTF-8 first; the
// truncation flag is computed on the normalized body so the notification
// channel stays bounded regardless of request size.
func (a *Adapter) newPending(r *http.Request) (*registry.PendingRequest, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}

	p := registry.New(api.NewRequestID())
	p.Method = r.Method
	p.Path = r.URL.Path
	p.Headers = lowercaseHeaders(r.Header)

	if strings.HasPrefix(r.URL.Path, "/api/") {
		p.Body = []byte(encoding.Normalize(body, r.Header.Get("Content-Type")))
		p.Query = encoding.NormalizeQuery(r.URL.Query())
	} else {
		p.Body = body
		p.Query = r.URL.Query()
	}
	p.BodyTruncated = len(p.Body) > a.config.NotifyBodyLimit

	return p, nil
}

// notify builds the host notification from a registered pending request and
// fires it.
func (a *Adapter) notify(r *http.Request, kind api.SignalKind, p *registry.PendingRequest) {
	n := api.NewNotification(p.ID, p.Method, p.Path, p.Query, p.Headers, p.Body, a.config.NotifyBodyLimit)
	observability.NotificationsTotal.WithLabelValues(string(kind)).Inc()
	debug.Log("transport", "notifying host",
		"kind", string(kind), "request_id", p.ID, "path", p.Path, "truncated", n.BodyTruncated)
	a.notifier.Request(r.Context(), kind, n)
}

// awaitDecision parks the worker until the host decides, the timeout
// elapses (timeout <= 0 waits forever), or the client disconnects. It then
// serves the outcome: whenever a stream exists, even one the host already
// closed again, the worker attaches and drains it; otherwise the
// resolved plain response is written. Returns true when SSE mode was
// entered, in which case cleanup is deferred to the pump's finalization.
func (a *Adapter) awaitDecision(w http.ResponseWriter, r *http.Request, p *registry.PendingRequest, timeout time.Duration, counted bool) bool {
	var timerC <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timerC = timer.C
	}

	select {
	case <-p.Decided():
	case <-timerC:
		if p.ForceComplete(timeoutResponse()) {
			observability.TimeoutsTotal.Inc()
		}
	case <-r.Context().Done():
		// Client gone before the host decided. The response is never
		// written; force-completing just unblocks the unwind.
		p.ForceComplete(clientGoneResponse())
	}

	_, resp, strm := p.Decision()
	if strm != nil {
		a.attachStream(w, r, p, strm, counted)
		return true
	}

	writeResponse(w, resp)
	return false
}

func writeResponse(w http.ResponseWriter, resp registry.Response) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	status := resp.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	w.WriteHeader(status)
	if len(resp.Body) > 0 {
		w.Write(resp.Body)
	}
}

func timeoutResponse() registry.Response {
	body, _ := json.Marshal(api.ErrorResponse{Error: api.NewGatewayTimeoutError()})
	return registry.Response{
		Status:  http.StatusGatewayTimeout,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
	}
}

// clientGoneResponse resolves a request abandoned by its client. The 499
// status follows the nginx convention; it never reaches the wire.
func clientGoneResponse() registry.Response {
	return registry.Response{Status: 499}
}

// isLegacyConnect reports whether a GET /mcp comes from a legacy SSE
// client: none of the streamable-protocol headers are present.
func isLegacyConnect(r *http.Request) bool {
	return r.Header.Get("Mcp-Session-Id") == "" &&
		r.Header.Get("Mcp-Protocol-Version") == "" &&
		r.Header.Get("Last-Event-Id") == ""
}

// lowercaseHeaders flattens request headers to a lowercased-key map; for
// repeated headers the last value wins.
func lowercaseHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, vs := range h {
		if len(vs) == 0 {
			continue
		}
		out[strings.ToLower(k)] = vs[len(vs)-1]
	}
	return out
}
