package api

// SignalKind classifies a host notification by the route that produced it.
type SignalKind string

const (
	// SignalRequest covers the generic API surface, session termination,
	// and health checks. The worker blocks with a bounded timeout.
	SignalRequest SignalKind = "request"

	// SignalMCPPost is the primary protocol entry. The host may answer
	// with a plain response or escalate to an SSE stream.
	SignalMCPPost SignalKind = "mcp-post"

	// SignalSSEConnect is a dedicated notification-stream subscription.
	// The worker waits without a timeout for the first decision.
	SignalSSEConnect SignalKind = "sse-connect"

	// SignalSSELegacyConnect is SignalSSEConnect for clients that speak
	// the legacy SSE transport (no protocol headers on the GET).
	SignalSSELegacyConnect SignalKind = "sse-legacy-connect"

	// SignalSSELegacyMessage is the legacy fire-and-forget message
	// channel. The bridge replies 202 immediately after forwarding.
	SignalSSELegacyMessage SignalKind = "sse-legacy-message"
)

// Notification describes an accepted request to the host.
//
// Body is nil when the (possibly decoded) body exceeded the configured
// ceiling; BodyTruncated is then true and the full body remains available
// through the decision API until the request is deregistered.
type Notification struct {
	ID            string              `json:"id"`
	Method        string              `json:"method"`
	Path          string              `json:"path"`
	Query         map[string][]string `json:"query"`
	Headers       map[string]string   `json:"headers"`
	Body          *string             `json:"body"`
	BodyTruncated bool                `json:"bodyTruncated"`
}

// NewNotification builds a Notification, applying the body ceiling.
// Query and header maps are never nil so they marshal as JSON objects.
func NewNotification(id, method, path string, query map[string][]string, headers map[string]string, body []byte, bodyLimit int) *Notification {
	if query == nil {
		query = map[string][]string{}
	}
	if headers == nil {
		headers = map[string]string{}
	}
	n := &Notification{
		ID:      id,
		Method:  method,
		Path:    path,
		Query:   query,
		Headers: headers,
	}
	if bodyLimit > 0 && len(body) > bodyLimit {
		n.BodyTruncated = true
	} else {
		s := string(body)
		n.Body = &s
	}
	return n
}
