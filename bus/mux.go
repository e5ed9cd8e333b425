// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bus

import (
	"sync/atomic"

	"github.com/canlink/canlink-go/frame"
)

// mux fans decoded Frames out to the matching Listeners. It holds only a
// non-owning reference to the registry; Listener lifecycles stay with the
// registry alone.
//
// Matching walks all Listeners, which is linear but serves the few dozen
// subscribers a single link realistically carries. A mask-prefix index
// would be a drop-in replacement here if that assumption ever breaks.
type mux struct {
	registry *registry
	dropped  *uint64
}

// dispatch enqueues f into every Listener whose Filter union matches.
// Delivery order per Listener equals arrival order from the Transport.
func (m *mux) dispatch(f frame.Frame) {
	m.registry.each(func(l *Listener) {
		if !frame.MatchAny(l.filters, f) {
			return
		}
		if l.enqueue(f) {
			atomic.AddUint64(m.dropped, 1)
		}
	})
}
