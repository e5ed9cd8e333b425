// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package loopback provides an in-memory Transport, used to build virtual
// buses and to mock real links in tests.
//
// Two Transports created by Pair are cross-connected: what one sends, the
// other receives. A single New'd Transport talks to itself when its
// Descriptor sets ReceiveOwnMessages.
package loopback

import (
	"sync"
	"time"

	"github.com/canlink/canlink-go/codec"
	"github.com/canlink/canlink-go/transport"
)

// queueDepth is the raw chunk backlog of one loopback endpoint.
const queueDepth = 64

// Transport is an in-memory link endpoint.
type Transport struct {
	descriptor transport.Descriptor
	wireCodec  codec.Codec
	peer       *Transport

	in chan []byte

	mutex  sync.Mutex
	opened bool
	failed error

	// sends counts Send calls, writes records every sent chunk when
	// recording is enabled. Both serve tests.
	recording bool
	writes    [][]byte

	closedSyn chan struct{}
}

// New creates an unconnected loopback Transport. A nil Codec defaults to the
// native wire representation.
func New(d transport.Descriptor, c codec.Codec) *Transport {
	if c == nil {
		c = codec.Native{}
	}
	return &Transport{
		descriptor: d,
		wireCodec:  c,
		in:         make(chan []byte, queueDepth),
		closedSyn:  make(chan struct{}),
	}
}

// Pair creates two cross-connected loopback Transports.
func Pair(c codec.Codec) (*Transport, *Transport) {
	a := New(transport.Descriptor{Kind: transport.Native, Address: "loop0"}, c)
	b := New(transport.Descriptor{Kind: transport.Native, Address: "loop1"}, c)
	a.peer = b
	b.peer = a
	return a, b
}

func (t *Transport) Open() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.opened {
		return transport.ErrAlreadyOpen
	}
	t.opened = true
	t.closedSyn = make(chan struct{})
	return nil
}

func (t *Transport) Send(p []byte) error {
	t.mutex.Lock()
	if !t.opened {
		t.mutex.Unlock()
		return transport.ErrNotOpen
	}
	if t.failed != nil {
		err := t.failed
		t.mutex.Unlock()
		return err
	}

	buf := append([]byte(nil), p...)
	if t.recording {
		t.writes = append(t.writes, buf)
	}
	receiveOwn := t.descriptor.ReceiveOwnMessages
	peer := t.peer
	t.mutex.Unlock()

	if peer != nil {
		peer.deliver(buf)
	}
	if receiveOwn || peer == nil {
		t.deliver(buf)
	}
	return nil
}

func (t *Transport) Receive(timeout time.Duration) ([]byte, error) {
	t.mutex.Lock()
	if !t.opened {
		t.mutex.Unlock()
		return nil, transport.ErrNotOpen
	}
	if t.failed != nil {
		err := t.failed
		t.mutex.Unlock()
		return nil, err
	}
	closedSyn := t.closedSyn
	t.mutex.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case p := <-t.in:
		return p, nil
	case <-timer.C:
		return nil, transport.ErrTimeout
	case <-closedSyn:
		return nil, transport.ErrNotOpen
	}
}

func (t *Transport) Close() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.opened {
		return nil
	}
	t.opened = false

	close(t.closedSyn)
	return nil
}

func (t *Transport) Address() string {
	return t.descriptor.Address
}

func (t *Transport) Codec() codec.Codec {
	return t.wireCodec
}

// Fail makes every subsequent Send and Receive return err, simulating a
// broken link. A pending blocked Receive is not interrupted; the next poll
// observes the failure.
func (t *Transport) Fail(err error) {
	t.mutex.Lock()
	t.failed = err
	t.mutex.Unlock()
}

// Inject queues raw bytes for reception on this endpoint, bypassing any
// peer. Tests use it to feed wire garbage.
func (t *Transport) Inject(p []byte) {
	t.deliver(append([]byte(nil), p...))
}

// Record enables capturing of sent chunks for later inspection.
func (t *Transport) Record() {
	t.mutex.Lock()
	t.recording = true
	t.mutex.Unlock()
}

// Writes returns a copy of all chunks sent since Record was enabled.
func (t *Transport) Writes() [][]byte {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	writes := make([][]byte, len(t.writes))
	copy(writes, t.writes)
	return writes
}

func (t *Transport) deliver(p []byte) {
	select {
	case t.in <- p:
	default:
		// A full backlog drops the chunk, like a saturated controller.
	}
}
