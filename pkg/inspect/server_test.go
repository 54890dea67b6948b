package inspect

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pulseui/pulse/pkg/pulse"
)

func TestHealthEndpoint(t *testing.T) {
	srv := NewServer()

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != "ok" {
		t.Errorf("expected ok, got %q", rec.Body.String())
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv := NewServer()
	srv.Attach()
	defer srv.Detach()

	s := pulse.NewSignal(1)
	e := pulse.CreateEffect(func() pulse.Cleanup {
		_ = s.Get()
		return nil
	})
	defer e.Dispose()

	s.Set(2)
	s.Set(3)

	req := httptest.NewRequest("GET", "/stats", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var stats Stats
	if err := json.Unmarshal(rec.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}

	if stats.SignalWrites != 2 {
		t.Errorf("expected 2 signal writes, got %d", stats.SignalWrites)
	}
	if stats.EffectRuns != 3 {
		t.Errorf("expected 3 effect runs, got %d", stats.EffectRuns)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := NewServer()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestWebSocketEventStream(t *testing.T) {
	srv := NewServer()
	srv.Attach()
	defer srv.Detach()

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Give the hub time to register the client before writing.
	waitForClients(t, srv.hub, 1)

	s := pulse.NewSignal(1)
	s.Set(2)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var ev Event
	if err := json.Unmarshal(msg, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.Kind != "signal_write" {
		t.Errorf("expected signal_write event, got %q", ev.Kind)
	}
	if ev.NodeID != s.ID() {
		t.Errorf("expected node %d, got %d", s.ID(), ev.NodeID)
	}
}

func TestHubDropsSlowClients(t *testing.T) {
	hub := NewHub(nil)

	// Broadcast with no clients must not block.
	done := make(chan struct{})
	go func() {
		hub.Broadcast([]byte("x"))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked with no clients")
	}
}

func waitForClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount() >= n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d clients, have %d", n, hub.ClientCount())
}
