// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package discover

import (
	"context"
	"path"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/canlink/canlink-go/transport"
)

// Event reports the arrival or removal of a serial bridge device node.
type Event struct {
	Adapter Adapter
	Added   bool
}

// Watch reports hotplug Events for serial bridges until the context is
// canceled, at which point the returned channel is closed. Native CAN
// interfaces appear through netlink, not the device tree, and are not
// watched here; poll Interfaces for those.
func Watch(ctx context.Context) (<-chan Event, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add("/dev"); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	events := make(chan Event)

	go func() {
		defer close(events)
		defer func() { _ = watcher.Close() }()

		for {
			select {
			case <-ctx.Done():
				return

			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}

				name := path.Base(ev.Name)
				if !serialCandidate(name) {
					continue
				}

				var added bool
				switch {
				case ev.Op&fsnotify.Create != 0:
					added = true
				case ev.Op&fsnotify.Remove != 0:
					added = false
				default:
					continue
				}

				select {
				case events <- Event{
					Adapter: Adapter{
						Kind:    transport.Serial,
						Name:    name,
						Address: ev.Name,
					},
					Added: added,
				}:
				case <-ctx.Done():
					return
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.WithError(err).Warn("Device watcher errored")
			}
		}
	}()

	return events, nil
}
