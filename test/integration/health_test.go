package integration

import (
	"net/http"
	"testing"
)

func TestHealthAnsweredByHost(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/health")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	var body struct {
		Status string `json:"status"`
	}
	decodeJSON(t, resp, &body)
	if body.Status != "ok" {
		t.Errorf("status field = %q, want ok", body.Status)
	}
}

func TestEchoReturnsPostedBody(t *testing.T) {
	resp := postBody(t, testEnv.BaseURL()+"/api/echo", "text/plain", "hello bridge")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got := readBody(t, resp); got != "hello bridge" {
		t.Errorf("body = %q, want %q", got, "hello bridge")
	}
}

func TestEchoNormalizesLegacyCyrillic(t *testing.T) {
	// "Привет" in CP866; the host sees and echoes UTF-8.
	raw := string([]byte{0x8F, 0xE0, 0xA8, 0xA2, 0xA5, 0xE2})
	resp := postBody(t, testEnv.BaseURL()+"/api/echo", "text/plain; charset=cp866", raw)
	if got := readBody(t, resp); got != "Привет" {
		t.Errorf("body = %q, want %q", got, "Привет")
	}
}

func TestEchoLargeBodyRoundTripsViaRetention(t *testing.T) {
	// Larger than the 256-byte notification ceiling; the host falls back
	// to fetching the retained body.
	big := make([]byte, 512)
	for i := range big {
		big[i] = byte('a' + i%26)
	}
	resp := postBody(t, testEnv.BaseURL()+"/api/echo", "text/plain", string(big))
	if got := readBody(t, resp); got != string(big) {
		t.Errorf("large body did not round-trip, got %d bytes", len(got))
	}
}

func TestDeleteSessionRoute(t *testing.T) {
	resp := deleteURL(t, testEnv.BaseURL()+"/mcp")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got := readBody(t, resp); got != "session deleted" {
		t.Errorf("body = %q", got)
	}
}

func TestUnscriptedPathGets404FromHost(t *testing.T) {
	resp := getURL(t, testEnv.BaseURL()+"/api/unknown")
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
