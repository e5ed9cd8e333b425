// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bus

import (
	"sync/atomic"
	"time"
)

// Stats is a read-only snapshot of a Bus' counters.
type Stats struct {
	State State `json:"state"`

	// Sent and Received count successfully transmitted and decoded
	// Frames.
	Sent     uint64 `json:"sent"`
	Received uint64 `json:"received"`

	// Dropped counts Frames evicted from Listener queues, summed over
	// all Listeners including unsubscribed ones.
	Dropped uint64 `json:"dropped"`

	// DecodeErrors counts malformed frames discarded by the receive
	// loop.
	DecodeErrors uint64 `json:"decodeErrors"`

	// FaultedAt is the instant of the last Open-to-Faulted transition,
	// zero if the Bus never faulted.
	FaultedAt time.Time `json:"faultedAt,omitempty"`
}

// Stats returns a snapshot of the Bus' counters. The counters are not
// sampled atomically with respect to each other; treat the snapshot as an
// approximation under load.
func (b *Bus) Stats() Stats {
	s := Stats{
		State:        b.State(),
		Sent:         atomic.LoadUint64(&b.sent),
		Received:     atomic.LoadUint64(&b.received),
		Dropped:      atomic.LoadUint64(&b.dropped),
		DecodeErrors: atomic.LoadUint64(&b.decodeErrors),
	}

	if t, ok := b.faultedAt.Load().(time.Time); ok {
		s.FaultedAt = t
	}

	return s
}
