// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package agent exposes a read-only monitor endpoint for one Bus: bus
// statistics over HTTP and a live frame stream over WebSockets. It is the
// programmatic observer surface; interactive tooling builds on top of it.
package agent

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"github.com/canlink/canlink-go/bus"
)

// MonitorAgent serves GET /stats and GET /ws for one Bus.
type MonitorAgent struct {
	bus *bus.Bus

	httpServer *http.Server
	router     *mux.Router
	upgrader   websocket.Upgrader
}

// New creates a MonitorAgent listening on address. The HTTP server is
// started immediately; an address already in use surfaces as an error.
func New(address string, b *bus.Bus) (ma *MonitorAgent, err error) {
	router := mux.NewRouter()
	httpServer := &http.Server{
		Addr:    address,
		Handler: router,
	}

	ma = &MonitorAgent{
		bus:        b,
		httpServer: httpServer,
		router:     router,
		upgrader:   websocket.Upgrader{},
	}

	router.HandleFunc("/stats", ma.handleStats).Methods(http.MethodGet)
	router.HandleFunc("/ws", ma.handleWebsocket).Methods(http.MethodGet)

	startupErr := make(chan error)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			startupErr <- err
		}
		close(startupErr)
	}()

	select {
	case err = <-startupErr:
		ma = nil
	case <-time.After(100 * time.Millisecond):
	}

	return
}

// Close shuts the HTTP server down. Connected WebSocket clients are
// disconnected.
func (ma *MonitorAgent) Close() error {
	return ma.httpServer.Close()
}

func (ma *MonitorAgent) log() *log.Entry {
	return log.WithField("MonitorAgent", ma.httpServer.Addr)
}

// handleStats serves a JSON snapshot of the Bus' statistics.
func (ma *MonitorAgent) handleStats(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(ma.bus.Stats()); err != nil {
		ma.log().WithError(err).Warn("Writing stats response errored")
	}
}
