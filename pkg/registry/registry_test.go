package registry

import (
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bruecke-dev/bruecke/pkg/stream"
)

func TestRegisterGetRemove(t *testing.T) {
	r := NewRegistry()
	p := New("req-1")
	r.Register(p)

	got, ok := r.Get("req-1")
	if !ok || got != p {
		t.Fatalf("Get returned (%v, %v)", got, ok)
	}

	if _, ok := r.Get("unknown"); ok {
		t.Error("Get for unknown id should report absence")
	}

	if !r.Remove("req-1") {
		t.Error("Remove returned false for registered id")
	}
	if r.Remove("req-1") {
		t.Error("second Remove should return false")
	}
	if r.Len() != 0 {
		t.Errorf("Len = %d, want 0", r.Len())
	}
}

func TestRespondExactlyOnce(t *testing.T) {
	p := New("req-1")

	if !p.Respond(200, nil, []byte("ok")) {
		t.Fatal("first Respond failed")
	}
	if p.Respond(500, nil, []byte("again")) {
		t.Error("second Respond must fail")
	}

	st, resp, strm := p.Decision()
	if st != StateCompleted {
		t.Errorf("state = %v, want StateCompleted", st)
	}
	if resp.Status != 200 || string(resp.Body) != "ok" {
		t.Errorf("response = %+v, first decision must stand", resp)
	}
	if strm != nil {
		t.Error("plain response must not carry a stream")
	}

	select {
	case <-p.Decided():
	default:
		t.Error("Decided channel not closed after Respond")
	}
}

func TestStreamLifecycle(t *testing.T) {
	p := New("req-1")

	s, ok := p.OpenStream(map[string]string{"X-Session-Id": "s1"})
	if !ok || s == nil {
		t.Fatal("OpenStream from Pending failed")
	}
	if p.State() != StateSSEActive {
		t.Fatalf("state = %v, want StateSSEActive", p.State())
	}

	// Second open returns the same stream; headers are already committed.
	s2, ok := p.OpenStream(map[string]string{"X-Session-Id": "ignored"})
	if !ok || s2 != s {
		t.Error("OpenStream from SSEActive must return the existing stream")
	}
	if s.Headers()["X-Session-Id"] != "s1" {
		t.Error("headers from the second call must be ignored")
	}

	if p.Respond(200, nil, nil) {
		t.Error("Respond must fail once streaming")
	}

	if !p.CloseStream() {
		t.Fatal("CloseStream from SSEActive failed")
	}
	if p.CloseStream() {
		t.Error("second CloseStream must fail")
	}
	if _, ok := p.OpenStream(nil); ok {
		t.Error("OpenStream from Completed must fail")
	}
}

func TestCloseStreamRequiresSSEActive(t *testing.T) {
	p := New("req-1")
	if p.CloseStream() {
		t.Error("CloseStream from Pending must fail")
	}
	p.Respond(204, nil, nil)
	if p.CloseStream() {
		t.Error("CloseStream from Completed must fail")
	}
}

func TestForceCompleteLosesRaceToHost(t *testing.T) {
	p := New("req-1")
	if !p.Respond(201, nil, []byte("host")) {
		t.Fatal("Respond failed")
	}
	if p.ForceComplete(Response{Status: 504}) {
		t.Error("ForceComplete must report the host won the race")
	}
	_, resp, _ := p.Decision()
	if resp.Status != 201 {
		t.Errorf("status = %d, the host decision must stand", resp.Status)
	}
}

func TestRemoveAllForcesCompletion(t *testing.T) {
	r := NewRegistry()

	plain := New("plain")
	r.Register(plain)

	streaming := New("streaming")
	r.Register(streaming)
	strm, _ := streaming.OpenStream(nil)

	r.RemoveAll()

	st, resp, _ := plain.Decision()
	if st != StateCompleted {
		t.Errorf("plain state = %v, want StateCompleted", st)
	}
	if resp.Status != http.StatusServiceUnavailable {
		t.Errorf("plain status = %d, want 503", resp.Status)
	}
	if !strings.Contains(string(resp.Body), "shutting_down") {
		t.Errorf("plain body = %s, want a shutting_down error", resp.Body)
	}

	select {
	case <-plain.Decided():
	default:
		t.Error("plain waiter not woken by RemoveAll")
	}

	if streaming.State() != StateCompleted {
		t.Error("streaming request not force-completed")
	}
	if _, res := strm.WaitForEvent(10 * time.Millisecond); res != stream.Ended {
		t.Errorf("stream wait = %v after RemoveAll, want Ended", res)
	}

	if r.Len() != 0 {
		t.Errorf("Len = %d after RemoveAll, want 0", r.Len())
	}
}

func TestRemoveAllLeavesCounterToWorkers(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 3; i++ {
		p := New("req-" + strconv.Itoa(i))
		r.Register(p)
		r.IncrementActive()
	}

	r.RemoveAll()
	if r.ActiveCount() != 3 {
		t.Fatalf("ActiveCount = %d after RemoveAll, counter must not be reset", r.ActiveCount())
	}

	// Each worker decrements as it unwinds.
	for i := 0; i < 3; i++ {
		r.DecrementActive()
	}
	if r.ActiveCount() != 0 {
		t.Errorf("ActiveCount = %d after unwind, want 0", r.ActiveCount())
	}
}

func TestAdmissionCounter(t *testing.T) {
	r := NewRegistry()
	const limit = 10

	for i := 0; i < limit; i++ {
		if r.IsAtCapacity(limit) {
			t.Fatalf("at capacity after %d of %d slots", i, limit)
		}
		r.IncrementActive()
	}
	if !r.IsAtCapacity(limit) {
		t.Error("not at capacity with all slots occupied")
	}
	r.DecrementActive()
	if r.IsAtCapacity(limit) {
		t.Error("still at capacity after a slot freed")
	}
}

func TestTryAcquireRespectsLimit(t *testing.T) {
	r := NewRegistry()
	const limit = 2

	if !r.TryAcquire(limit) || !r.TryAcquire(limit) {
		t.Fatal("acquiring up to the limit failed")
	}
	if r.TryAcquire(limit) {
		t.Error("acquire beyond the limit must fail")
	}
	if r.ActiveCount() != limit {
		t.Errorf("ActiveCount = %d after failed acquire, want %d", r.ActiveCount(), limit)
	}

	r.DecrementActive()
	if !r.TryAcquire(limit) {
		t.Error("acquire after a slot freed must succeed")
	}
}

func TestTryAcquireNeverOvershootsUnderContention(t *testing.T) {
	r := NewRegistry()
	const limit = 5
	const workers = 64

	var wg sync.WaitGroup
	var admitted atomic.Int64
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if r.TryAcquire(limit) {
				admitted.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if admitted.Load() != limit {
		t.Errorf("admitted = %d, want exactly %d", admitted.Load(), limit)
	}
	if r.ActiveCount() != limit {
		t.Errorf("ActiveCount = %d, want %d", r.ActiveCount(), limit)
	}
}

func TestConcurrentDecisionsOneWinner(t *testing.T) {
	p := New("req-1")

	var wg sync.WaitGroup
	wins := make(chan int, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(status int) {
			defer wg.Done()
			if p.Respond(status, nil, nil) {
				wins <- status
			}
		}(200 + i)
	}
	wg.Wait()
	close(wins)

	var winners []int
	for s := range wins {
		winners = append(winners, s)
	}
	if len(winners) != 1 {
		t.Fatalf("%d decisions accepted, want exactly 1", len(winners))
	}
	_, resp, _ := p.Decision()
	if resp.Status != winners[0] {
		t.Errorf("recorded status %d does not match accepted decision %d", resp.Status, winners[0])
	}
}
