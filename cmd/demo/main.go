// Command demo runs the bridge with an in-process host that answers a few
// routes, showing how a host embeds the library: it receives signals through
// a Notifier and resolves them from its own goroutines through the Bridge.
//
//	GET  /health       -> plain JSON response
//	POST /api/echo     -> echoes the (UTF-8 normalized) request body
//	POST /mcp          -> escalates to SSE and streams three events
//	GET  /mcp          -> subscription answered with an endpoint event
//	POST /mcp/message  -> acknowledged and logged
//
// Configuration follows the layered loader: config.yaml, BRUECKE_* env.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bruecke-dev/bruecke/pkg/api"
	"github.com/bruecke-dev/bruecke/pkg/config"
	"github.com/bruecke-dev/bruecke/pkg/debug"
	"github.com/bruecke-dev/bruecke/pkg/registry"
	"github.com/bruecke-dev/bruecke/pkg/transport"
	transporthttp "github.com/bruecke-dev/bruecke/pkg/transport/http"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("demo failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	debug.Init(cfg.Log.Debug, cfg.Log.Level)

	reg := registry.NewRegistry()
	bridge := transport.NewBridge(reg, slog.Default())
	host := &demoHost{bridge: bridge}

	srv := transporthttp.NewServer(reg, host,
		transporthttp.WithAddr(":"+strconv.Itoa(cfg.Server.Port)),
		transporthttp.WithRequestTimeout(cfg.Bridge.RequestTimeout),
		transporthttp.WithMaxConcurrent(cfg.Bridge.MaxConcurrent),
		transporthttp.WithNotifyBodyLimit(cfg.Bridge.NotifyBodyLimit),
		transporthttp.WithMessageBodyLimit(cfg.Bridge.MessageBodyLimit),
		transporthttp.WithKeepaliveInterval(cfg.Bridge.KeepaliveInterval),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
	)

	if cfg.Observability.Metrics.Enabled {
		go serveMetrics(cfg.Server.Port+1, cfg.Observability.Metrics.Path)
	}

	return srv.ListenAndServe()
}

// serveMetrics exposes the Prometheus registry on a sidecar port so the
// bridge surface itself stays entirely host-driven.
func serveMetrics(port int, path string) {
	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())
	addr := ":" + strconv.Itoa(port)
	slog.Info("metrics listening", "addr", addr, "path", path)
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("metrics server failed", "error", err)
	}
}

// demoHost is a minimal host: every decision runs on its own goroutine, the
// way an embedding application would answer from its event loop.
type demoHost struct {
	bridge *transport.Bridge
}

func (h *demoHost) Request(_ context.Context, kind api.SignalKind, n *api.Notification) {
	go h.decide(kind, n)
}

func (h *demoHost) StreamClosed(_ context.Context, id string) {
	slog.Info("stream ended", "request_id", id)
}

func (h *demoHost) decide(kind api.SignalKind, n *api.Notification) {
	switch {
	case kind == api.SignalSSELegacyMessage:
		slog.Info("message received", "request_id", n.ID, "session", n.Query["session_id"])

	case kind == api.SignalSSEConnect || kind == api.SignalSSELegacyConnect:
		h.bridge.SendStreamEvent(n.ID, `{"endpoint":"/mcp/message"}`, nil, "endpoint")
		time.AfterFunc(10*time.Second, func() { h.bridge.CloseStream(n.ID) })

	case kind == api.SignalMCPPost:
		h.stream(n)

	case n.Path == "/health":
		h.respondJSON(n.ID, http.StatusOK, map[string]string{"status": "ok"})

	case n.Path == "/api/echo":
		body := h.fullBody(n)
		h.bridge.SendResponse(n.ID, http.StatusOK,
			map[string]string{"Content-Type": "text/plain; charset=utf-8"}, []byte(body))

	default:
		h.respondJSON(n.ID, http.StatusNotFound, map[string]string{"error": "no handler for " + n.Path})
	}
}

func (h *demoHost) stream(n *api.Notification) {
	for i := 1; i <= 3; i++ {
		data := fmt.Sprintf(`{"seq":%d,"echo":%s}`, i, strconv.Quote(h.fullBody(n)))
		if !h.bridge.SendStreamEvent(n.ID, data, nil, "update") {
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	h.bridge.CloseStream(n.ID)
}

func (h *demoHost) respondJSON(id string, status int, payload any) {
	body, _ := json.Marshal(payload)
	h.bridge.SendResponse(id, status,
		map[string]string{"Content-Type": "application/json"}, body)
}

// fullBody resolves the notification body, fetching the retained bytes when
// the notification was delivered truncated.
func (h *demoHost) fullBody(n *api.Notification) string {
	if n.BodyTruncated {
		if body, ok := h.bridge.RequestBody(n.ID); ok {
			return body
		}
		return ""
	}
	if n.Body == nil {
		return ""
	}
	return *n.Body
}
