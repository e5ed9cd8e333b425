// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package agent

import (
	"encoding/hex"
	"net/http"
	"time"

	"github.com/canlink/canlink-go/frame"
)

// frameMessage is the JSON rendering of one Frame on the stream.
type frameMessage struct {
	ID       uint32    `json:"id"`
	Extended bool      `json:"extended,omitempty"`
	RTR      bool      `json:"rtr,omitempty"`
	Err      bool      `json:"err,omitempty"`
	Data     string    `json:"data"`
	Time     time.Time `json:"time"`
}

func newFrameMessage(f frame.Frame) frameMessage {
	return frameMessage{
		ID:       f.ID,
		Extended: f.Extended,
		RTR:      f.RTR,
		Err:      f.Err,
		Data:     hex.EncodeToString(f.Payload()),
		Time:     f.Timestamp,
	}
}

// handleWebsocket upgrades the request and streams every Frame the Bus
// receives until the client disconnects or the agent closes.
func (ma *MonitorAgent) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, connErr := ma.upgrader.Upgrade(w, r, nil)
	if connErr != nil {
		ma.log().WithError(connErr).Warn("Upgrading HTTP request to WebSocket errored")
		return
	}
	defer func() { _ = conn.Close() }()

	listener := ma.bus.Subscribe(frame.All())
	defer func() { _ = ma.bus.Unsubscribe(listener) }()

	ma.log().WithField("client", r.RemoteAddr).Info("WebSocket client connected")

	// Reads are discarded; the stream is one-way. A read error doubles
	// as the disconnect signal.
	disconnect := make(chan struct{})
	go func() {
		defer close(disconnect)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-disconnect:
			ma.log().WithField("client", r.RemoteAddr).Info("WebSocket client disconnected")
			return

		case f := <-listener.Chan():
			if err := conn.WriteJSON(newFrameMessage(f)); err != nil {
				ma.log().WithError(err).Debug("Writing frame to WebSocket errored")
				return
			}
		}
	}
}
