// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package agent

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/canlink/canlink-go/bus"
	"github.com/canlink/canlink-go/frame"
	"github.com/canlink/canlink-go/transport"
	"github.com/canlink/canlink-go/transport/loopback"
)

// newTestAgent wires a MonitorAgent to an httptest server instead of binding
// a listening socket of its own.
func newTestAgent(t *testing.T) (*bus.Bus, *httptest.Server) {
	t.Helper()

	b := bus.New(loopback.New(transport.Descriptor{
		Kind:               transport.Native,
		Address:            "loop0",
		ReceiveOwnMessages: true,
	}, nil))
	if err := b.Open(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = b.Close() })

	router := mux.NewRouter()
	ma := &MonitorAgent{
		bus:        b,
		httpServer: &http.Server{Addr: "httptest"},
		router:     router,
		upgrader:   websocket.Upgrader{},
	}
	router.HandleFunc("/stats", ma.handleStats).Methods(http.MethodGet)
	router.HandleFunc("/ws", ma.handleWebsocket).Methods(http.MethodGet)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return b, srv
}

func TestAgentStats(t *testing.T) {
	b, srv := newTestAgent(t)

	if err := b.Send(frame.Frame{ID: 0x123}); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for b.Stats().Received == 0 {
		if time.Now().After(deadline) {
			t.Fatal("frame never received")
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Get(srv.URL + "/stats")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /stats returned %s", resp.Status)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Fatalf("GET /stats returned Content-Type %q", ct)
	}

	var stats struct {
		State string `json:"state"`
		Sent  uint64 `json:"sent"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats.State != "open" {
		t.Fatalf("stats report state %q", stats.State)
	}
	if stats.Sent != 1 {
		t.Fatalf("stats report %d sent frames", stats.Sent)
	}
}

func TestAgentStatsMethod(t *testing.T) {
	_, srv := newTestAgent(t)

	resp, err := http.Post(srv.URL+"/stats", "text/plain", strings.NewReader("nope"))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("POST /stats returned %s", resp.Status)
	}
}

func TestAgentWebsocket(t *testing.T) {
	b, srv := newTestAgent(t)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = conn.Close() }()

	// Let the handler's subscription settle before sending.
	time.Sleep(50 * time.Millisecond)

	sent := frame.Frame{ID: 0x18DAF110, Extended: true, Len: 2, Data: [8]byte{0xBE, 0xEF}}
	if err := b.Send(sent); err != nil {
		t.Fatal(err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))

	var msg frameMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.ID != sent.ID || !msg.Extended {
		t.Fatalf("streamed frame is %+v", msg)
	}
	if msg.Data != "beef" {
		t.Fatalf("streamed payload is %q", msg.Data)
	}
	if msg.Time.IsZero() {
		t.Fatal("streamed frame lacks a timestamp")
	}
}

func TestFrameMessage(t *testing.T) {
	now := time.Now()
	msg := newFrameMessage(frame.Frame{
		ID: 0x7FF, RTR: true, Len: 3, Data: [8]byte{1, 2, 3}, Timestamp: now,
	})

	if msg.ID != 0x7FF || !msg.RTR || msg.Extended || msg.Err {
		t.Fatalf("message flags: %+v", msg)
	}
	if msg.Data != "010203" {
		t.Fatalf("message data is %q", msg.Data)
	}
	if !msg.Time.Equal(now) {
		t.Fatalf("message time is %v", msg.Time)
	}
}
