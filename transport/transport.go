// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package transport abstracts the physical or virtual link carrying encoded
// CAN frames.
//
// A Transport is a closed variant out of {native CAN socket, serial bridge,
// loopback}, each a self-contained implementation of the open/send/receive/
// close capability set. Backends live in the subpackages socketcan, serialcan
// and loopback; the Descriptor names which one to use and how to reach the
// device.
package transport

import (
	"time"

	"github.com/canlink/canlink-go/codec"
)

// Transport is one link endpoint. Implementations must allow Close to be
// called while another goroutine blocks in Receive; the blocked call returns
// promptly afterwards.
//
// Send may be called from any goroutine but is not required to serialize
// concurrent calls itself; the owning Bus does.
type Transport interface {
	// Open connects the link described by the backend's Descriptor.
	// Opening an already open Transport fails with ErrAlreadyOpen.
	Open() error

	// Send writes one encoded frame to the link.
	Send(p []byte) error

	// Receive blocks up to timeout for raw bytes from the link. Expiry is
	// reported as ErrTimeout, which is not fatal; the caller may retry.
	// The returned slice is owned by the caller.
	Receive(timeout time.Duration) ([]byte, error)

	// Close shuts the link down. Close is idempotent.
	Close() error

	// Address returns the backend-specific connection address.
	Address() string

	// Codec returns the wire representation this link speaks.
	Codec() codec.Codec
}
