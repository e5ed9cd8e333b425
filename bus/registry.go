// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package bus

import (
	"sync"

	"github.com/canlink/canlink-go/frame"
)

// registry owns the Listeners of one Bus. Handles are assigned from a
// monotonically increasing counter and never reused, so a stale handle is
// always recognized as such.
type registry struct {
	mutex     sync.RWMutex
	listeners map[uint64]*Listener
	nextID    uint64
}

func newRegistry() *registry {
	return &registry{
		listeners: make(map[uint64]*Listener),
		nextID:    1,
	}
}

func (r *registry) add(filters []frame.Filter, capacity int) *Listener {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	l := newListener(r.nextID, filters, capacity)
	r.listeners[l.id] = l
	r.nextID++

	return l
}

func (r *registry) remove(id uint64) error {
	r.mutex.Lock()
	l, ok := r.listeners[id]
	delete(r.listeners, id)
	r.mutex.Unlock()

	if !ok {
		return ErrInvalidHandle
	}

	l.close()
	return nil
}

// clear closes and removes every Listener, used on Bus shutdown.
func (r *registry) clear() {
	r.mutex.Lock()
	listeners := r.listeners
	r.listeners = make(map[uint64]*Listener)
	r.mutex.Unlock()

	for _, l := range listeners {
		l.close()
	}
}

// each calls fn for every registered Listener while holding the read lock.
func (r *registry) each(fn func(*Listener)) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, l := range r.listeners {
		fn(l)
	}
}
