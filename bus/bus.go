// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package bus composes a Transport, its Codec and a Listener registry into
// the public CAN bus facade.
//
// A Bus moves through the states Closed, Open and Faulted. Open starts a
// receive loop which decodes incoming bytes and fans the resulting Frames
// out to subscribed Listeners. A fatal transport error, like bus-off or a
// disconnected adapter, faults the Bus; it never recovers on its own, the
// caller decides when to Close and re-Open.
package bus

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/canlink/canlink-go/codec"
	"github.com/canlink/canlink-go/frame"
	"github.com/canlink/canlink-go/transport"
)

// State is the lifecycle state of a Bus.
type State int32

const (
	Closed State = iota
	Open
	Faulted
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case Faulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// MarshalText renders the State name, e.g. within the JSON of a Stats
// snapshot.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

var (
	// ErrFaulted is returned by operations on a Faulted Bus. Recovery
	// requires an explicit Close followed by a new Open.
	ErrFaulted = errors.New("bus: faulted")

	// ErrInvalidHandle is returned for operations on an unsubscribed
	// Listener.
	ErrInvalidHandle = errors.New("bus: invalid listener handle")
)

// DefaultQueueCapacity is the Listener queue depth used unless
// WithQueueCapacity overrides it.
const DefaultQueueCapacity = 128

// receivePoll bounds one blocking Transport.Receive within the receive
// loop, so shutdown and fault checks happen regularly even on silent links.
const receivePoll = 250 * time.Millisecond

// Bus is the facade over one link.
type Bus struct {
	transport transport.Transport
	wireCodec codec.Codec
	registry  *registry
	mux       *mux

	queueCapacity int
	events        chan<- Event

	state int32

	// lifecycle serializes Open and Close; sendMutex serializes Send
	// calls so concurrent sends never interleave bytes on the wire.
	lifecycle sync.Mutex
	sendMutex sync.Mutex

	stopSyn chan struct{}
	stopAck chan struct{}

	rxBuf []byte

	sent         uint64
	received     uint64
	dropped      uint64
	decodeErrors uint64
	faultedAt    atomic.Value
}

// Option configures a Bus at construction.
type Option func(*Bus)

// WithQueueCapacity sets the queue depth of subsequently subscribed
// Listeners.
func WithQueueCapacity(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.queueCapacity = n
		}
	}
}

// WithEvents registers an observer channel for error Events. Emission is
// non-blocking; size the channel generously.
func WithEvents(ch chan<- Event) Option {
	return func(b *Bus) {
		b.events = ch
	}
}

// New creates a Closed Bus over the given Transport, speaking the
// Transport's wire representation.
func New(t transport.Transport, opts ...Option) *Bus {
	b := &Bus{
		transport:     t,
		wireCodec:     t.Codec(),
		registry:      newRegistry(),
		queueCapacity: DefaultQueueCapacity,
	}
	b.mux = &mux{registry: b.registry, dropped: &b.dropped}

	for _, opt := range opts {
		opt(b)
	}
	return b
}

// State returns the current lifecycle state.
func (b *Bus) State() State {
	return State(atomic.LoadInt32(&b.state))
}

// Open transitions a Closed Bus to Open: it opens the Transport and starts
// the receive loop. Opening an Open Bus fails with ErrAlreadyOpen, a
// Faulted one with ErrFaulted.
func (b *Bus) Open() error {
	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()

	switch b.State() {
	case Open:
		return transport.ErrAlreadyOpen
	case Faulted:
		return ErrFaulted
	}

	if err := b.transport.Open(); err != nil {
		return err
	}

	b.stopSyn = make(chan struct{})
	b.stopAck = make(chan struct{})
	b.rxBuf = nil

	atomic.StoreInt32(&b.state, int32(Open))
	go b.run(b.stopSyn, b.stopAck)

	log.WithField("address", b.transport.Address()).Info("Bus opened")
	return nil
}

// Send encodes and transmits one Frame. It is only valid on an Open Bus:
// Closed yields ErrNotOpen, Faulted yields ErrFaulted. A fatal transport
// error faults the Bus and is reported as ErrFaulted as well.
func (b *Bus) Send(f frame.Frame) error {
	switch b.State() {
	case Closed:
		return transport.ErrNotOpen
	case Faulted:
		return ErrFaulted
	}

	p, err := b.wireCodec.Encode(f)
	if err != nil {
		return err
	}

	b.sendMutex.Lock()
	err = b.transport.Send(p)
	b.sendMutex.Unlock()

	if err != nil {
		if transport.IsFatal(err) {
			b.fault(err)
			return fmt.Errorf("%w: %v", ErrFaulted, err)
		}
		return err
	}

	atomic.AddUint64(&b.sent, 1)
	return nil
}

// Subscribe registers a new Listener whose queue receives every Frame
// matching any of the given Filters. No Filters means no Frames; use
// frame.All for a wiretap.
func (b *Bus) Subscribe(filters ...frame.Filter) *Listener {
	return b.registry.add(filters, b.queueCapacity)
}

// Unsubscribe removes a Listener, draining and releasing its queue. A
// stale Listener yields ErrInvalidHandle.
func (b *Bus) Unsubscribe(l *Listener) error {
	if l == nil {
		return ErrInvalidHandle
	}
	return b.registry.remove(l.id)
}

// Close stops the receive loop, closes the Transport and invalidates all
// Listeners. It is valid in every state and idempotent; closing a Faulted
// Bus returns it to Closed. Close is safe while the receive loop blocks in
// Transport.Receive and returns within bounded time.
func (b *Bus) Close() error {
	b.lifecycle.Lock()
	defer b.lifecycle.Unlock()

	prev := State(atomic.SwapInt32(&b.state, int32(Closed)))

	var errs *multierror.Error

	if b.stopSyn != nil {
		close(b.stopSyn)

		// Closing the Transport unblocks a Receive the loop may sit
		// in, instead of waiting out its timeout.
		if err := b.transport.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}

		<-b.stopAck
		b.stopSyn = nil
		b.stopAck = nil
	} else if prev != Closed {
		if err := b.transport.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
	}

	b.registry.clear()
	b.rxBuf = nil

	if prev != Closed {
		log.WithFields(log.Fields{
			"address":  b.transport.Address(),
			"previous": prev.String(),
		}).Info("Bus closed")
	}

	return errs.ErrorOrNil()
}

// Reset is Close under the name callers reach for after a fault.
func (b *Bus) Reset() error {
	return b.Close()
}

// run is the receive loop: Transport.Receive, streaming decode, fan-out.
// It exits on shutdown or on a fatal transport error.
func (b *Bus) run(stopSyn <-chan struct{}, stopAck chan<- struct{}) {
	defer close(stopAck)

	for {
		select {
		case <-stopSyn:
			return
		default:
		}

		raw, err := b.transport.Receive(receivePoll)
		if err != nil {
			if errors.Is(err, transport.ErrTimeout) {
				continue
			}

			select {
			case <-stopSyn:
				// Close raced with the Receive; not a fault.
				return
			default:
			}

			if transport.IsFatal(err) || errors.Is(err, transport.ErrNotOpen) {
				// ErrNotOpen outside of Close means the link
				// vanished underneath the loop.
				b.fault(err)
				return
			}

			log.WithError(err).WithField("address", b.transport.Address()).
				Warn("Transient receive error")
			continue
		}

		b.rxBuf = append(b.rxBuf, raw...)
		b.drainBuffer()
	}
}

// drainBuffer decodes as many Frames as the buffer holds. Malformed input
// is discarded frame-wise: the loop survives, an Event is emitted.
func (b *Bus) drainBuffer() {
	for len(b.rxBuf) > 0 {
		f, n, err := b.wireCodec.Decode(b.rxBuf)
		if errors.Is(err, codec.ErrIncomplete) {
			return
		}

		b.rxBuf = b.rxBuf[n:]

		if err != nil {
			atomic.AddUint64(&b.decodeErrors, 1)
			b.emit(EventDecodeError, err.Error())

			log.WithError(err).WithField("address", b.transport.Address()).
				Debug("Discarded malformed frame")
			continue
		}

		f.Timestamp = time.Now()
		atomic.AddUint64(&b.received, 1)
		b.mux.dispatch(f)
	}
}

// fault transitions Open to Faulted exactly once.
func (b *Bus) fault(err error) {
	if !atomic.CompareAndSwapInt32(&b.state, int32(Open), int32(Faulted)) {
		return
	}

	b.faultedAt.Store(time.Now())
	b.emit(EventFault, err.Error())

	log.WithError(err).WithField("address", b.transport.Address()).
		Error("Bus faulted")
}
