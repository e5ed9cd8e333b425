// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bus

import "time"

// EventKind classifies an Event.
type EventKind int

const (
	// EventDecodeError reports a malformed frame discarded by the
	// receive loop.
	EventDecodeError EventKind = iota

	// EventFault reports the transition to the Faulted state.
	EventFault
)

func (k EventKind) String() string {
	switch k {
	case EventDecodeError:
		return "decode error"
	case EventFault:
		return "fault"
	default:
		return "unknown"
	}
}

// Event is an asynchronous error notification from a Bus, emitted to the
// observer channel configured with WithEvents. Emission never blocks; a
// saturated observer misses Events instead of stalling the receive loop.
type Event struct {
	Kind    EventKind
	Message string
	Time    time.Time
}

func (b *Bus) emit(kind EventKind, message string) {
	if b.events == nil {
		return
	}

	select {
	case b.events <- Event{Kind: kind, Message: message, Time: time.Now()}:
	default:
	}
}
