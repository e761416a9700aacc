// Package stream provides the bounded event queue behind one outgoing SSE
// response. A Stream is fed by the host (via the decision API) and drained
// by exactly one pump goroutine in the transport layer. The two sides never
// share a call stack; all coordination happens through the queue.
package stream

import (
	"strings"
	"sync"
	"time"
)

// State is the observable condition of a stream. Open is the only state
// from which events are accepted; the two closed states differ only in who
// ended the stream first.
type State int

const (
	Open State = iota
	ClosedByHost
	ClosedByClient
)

// WaitResult reports why WaitForEvent returned.
type WaitResult int

const (
	// NextEvent: a frame is ready and has been dequeued.
	NextEvent WaitResult = iota
	// Timeout: the idle window elapsed; the caller should emit a keepalive.
	Timeout
	// Ended: the stream is closed and the queue is fully drained.
	Ended
)

// Stream is a FIFO of pre-formatted SSE frames with keepalive-aware waiting.
// It is owned jointly by its pending request and the response pump; both
// must observe it ended before it is released.
type Stream struct {
	headers map[string]string // response headers captured when the host opened the stream

	mu    sync.Mutex
	queue []string
	state State
	wake  chan struct{} // signals one waiter that a frame arrived
	done  chan struct{} // closed on the first transition out of Open
}

// New creates an open stream. The headers are those supplied by the host
// with its first stream decision; they are applied to the HTTP response
// before the first byte and immutable afterwards.
func New(headers map[string]string) *Stream {
	return &Stream{
		headers: headers,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Headers returns the response headers captured at open time.
func (s *Stream) Headers() map[string]string {
	return s.headers
}

// State returns the current stream state.
func (s *Stream) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Push formats data as one SSE frame and enqueues it, waking one waiter.
// It is a no-op once the stream has left the Open state.
func (s *Stream) Push(data, eventType string) {
	s.mu.Lock()
	if s.state != Open {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, Frame(data, eventType))
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Close marks the stream ended by the host and wakes all waiters.
// Idempotent; frames already queued are still drained by the pump.
func (s *Stream) Close() {
	s.closeAs(ClosedByHost)
}

// MarkClientGone marks the stream ended by client disconnect and wakes all
// waiters. Idempotent. A disconnect observed after the host already closed
// the stream does not change the recorded state.
func (s *Stream) MarkClientGone() {
	s.closeAs(ClosedByClient)
}

func (s *Stream) closeAs(st State) {
	s.mu.Lock()
	if s.state == Open {
		s.state = st
		close(s.done)
	}
	s.mu.Unlock()
}

// WaitForEvent blocks until a frame is available, the stream ends, or the
// timeout elapses. A frame queued before closure is always returned before
// Ended is reported; no event is silently dropped.
func (s *Stream) WaitForEvent(timeout time.Duration) (string, WaitResult) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			frame := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return frame, NextEvent
		}
		if s.state != Open {
			s.mu.Unlock()
			return "", Ended
		}
		s.mu.Unlock()

		select {
		case <-s.wake:
		case <-s.done:
		case <-timer.C:
			return "", Timeout
		}
	}
}

// Frame serializes one event as SSE wire format: an "event:" line, one
// "data:" line per line of the payload, and a terminating blank line. An
// empty payload still produces a single empty data line; a trailing newline
// in the payload does not produce an extra one.
func Frame(data, eventType string) string {
	var b strings.Builder
	b.WriteString("event: ")
	b.WriteString(eventType)
	b.WriteByte('\n')

	if data == "" {
		b.WriteString("data: \n")
	} else {
		lines := strings.Split(data, "\n")
		if lines[len(lines)-1] == "" {
			lines = lines[:len(lines)-1]
		}
		for _, line := range lines {
			b.WriteString("data: ")
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}

	b.WriteByte('\n')
	return b.String()
}

// Keepalive is the comment-only frame written when the idle window elapses.
const Keepalive = ": ping\n\n"
