// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package journal

import (
	log "github.com/sirupsen/logrus"

	"github.com/canlink/canlink-go/bus"
	"github.com/canlink/canlink-go/frame"
)

// Attach subscribes a wiretap Listener on the Bus and journals every
// received Frame until the returned detach function is called. Frames the
// local node sends itself only show up when the Transport reports own
// messages.
func (j *Journal) Attach(b *bus.Bus) (detach func()) {
	listener := b.Subscribe(frame.All())
	stopSyn := make(chan struct{})
	stopAck := make(chan struct{})

	go func() {
		defer close(stopAck)

		for {
			select {
			case <-stopSyn:
				return
			case f := <-listener.Chan():
				if err := j.Append(f, Inbound); err != nil {
					log.WithError(err).Warn("Journaling frame errored")
				}
			}
		}
	}()

	return func() {
		close(stopSyn)
		<-stopAck
		_ = b.Unsubscribe(listener)
	}
}
