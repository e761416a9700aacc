package registry

import (
	"sync"

	"github.com/bruecke-dev/bruecke/pkg/stream"
)

// State is the lifecycle position of a pending request. Transitions are
// strictly monotonic: Pending → Completed, or Pending → SSEActive →
// Completed. A Completed request never changes again.
type State int

const (
	StatePending State = iota
	StateSSEActive
	StateCompleted
)

// Response carries the host's plain-response decision (or a synthetic one
// produced by the bridge on timeout or shutdown).
type Response struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

// PendingRequest is the server-side record of one accepted request awaiting
// a host decision. The snapshot fields (ID through BodyTruncated) are
// written once, before the request is registered, and read-only afterwards.
// The state fields are guarded by one mutex per request, so decisions on
// one request are strictly ordered while different requests proceed fully
// independently. The decided channel closes exactly once, when the request
// first leaves Pending; the parked worker selects on it.
type PendingRequest struct {
	ID            string
	Method        string
	Path          string
	Query         map[string][]string
	Headers       map[string]string
	Body          []byte
	BodyTruncated bool

	mu       sync.Mutex
	state    State
	decided  chan struct{}
	response Response
	stream   *stream.Stream
}

// New creates a pending request in the Pending state. The caller fills the
// snapshot fields before handing it to Registry.Register.
func New(id string) *PendingRequest {
	return &PendingRequest{
		ID:      id,
		decided: make(chan struct{}),
	}
}

// Decided returns the channel closed when the request first leaves Pending.
func (p *PendingRequest) Decided() <-chan struct{} {
	return p.decided
}

// State returns the current lifecycle state.
func (p *PendingRequest) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Respond applies a plain-response decision. Legal only from Pending; any
// other state returns false without side effects, which is how the host
// discovers stale or already-resolved IDs.
func (p *PendingRequest) Respond(status int, headers map[string]string, body []byte) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePending {
		return false
	}
	p.state = StateCompleted
	p.response = Response{Status: status, Headers: headers, Body: body}
	close(p.decided)
	return true
}

// OpenStream returns the request's stream, lazily creating it on the first
// call. From Pending it captures the response headers, transitions to
// SSEActive, and wakes the waiter. From SSEActive it returns the existing
// stream (headers are ignored: already committed at transition time). From
// Completed it fails.
func (p *PendingRequest) OpenStream(headers map[string]string) (*stream.Stream, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case StateCompleted:
		return nil, false
	case StateSSEActive:
		return p.stream, true
	default:
		p.stream = stream.New(headers)
		p.state = StateSSEActive
		close(p.decided)
		return p.stream, true
	}
}

// CloseStream applies the host's close decision. Legal only from SSEActive;
// the stream is closed but frames already queued still drain through the
// pump before the response ends.
func (p *PendingRequest) CloseStream() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateSSEActive {
		return false
	}
	p.state = StateCompleted
	p.stream.Close()
	return true
}

// ForceComplete resolves a still-pending request with a synthetic response,
// used for host timeouts and client disconnects during the first wait.
// Returns false when the host's decision won the race, in which case the
// caller proceeds with that decision instead.
func (p *PendingRequest) ForceComplete(resp Response) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePending {
		return false
	}
	p.state = StateCompleted
	p.response = resp
	close(p.decided)
	return true
}

// Decision returns the resolved state, the response, and the stream (nil
// unless the host escalated to SSE). Valid to call once Decided has fired;
// the wake-side must attach-and-drain whenever a stream exists, even if the
// state is already Completed: the host may have opened and closed the
// stream before the worker was scheduled.
func (p *PendingRequest) Decision() (State, Response, *stream.Stream) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state, p.response, p.stream
}

// shutdown force-transitions the request to Completed for process shutdown:
// open streams are closed, plain requests get the supplied synthetic
// response, and the waiter is woken. Safe to call in any state.
func (p *PendingRequest) shutdown(resp Response) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.state {
	case StateCompleted:
		// Already terminal; nothing to wake.
	case StateSSEActive:
		p.state = StateCompleted
		p.stream.Close()
	default:
		p.state = StateCompleted
		p.response = resp
		close(p.decided)
	}
}
