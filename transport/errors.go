// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by all backends.
var (
	// ErrDeviceNotFound is returned by Open when the device path or
	// interface does not exist.
	ErrDeviceNotFound = errors.New("transport: device not found")

	// ErrPermission is returned by Open when access to the device is
	// denied.
	ErrPermission = errors.New("transport: permission denied")

	// ErrAlreadyOpen is returned by Open on a double-open.
	ErrAlreadyOpen = errors.New("transport: already open")

	// ErrNotOpen is returned when an operation requires an open link.
	ErrNotOpen = errors.New("transport: not open")

	// ErrTimeout is returned by Receive on expiry. It is recoverable;
	// the caller may simply retry.
	ErrTimeout = errors.New("transport: receive timeout")
)

// Error is an I/O failure on an open link. Fatal Errors, like bus-off or a
// disconnected device, mean the link is beyond recovery and make the owning
// Bus transition to its Faulted state. Transient Errors leave the link
// usable.
type Error struct {
	Op    string
	Fatal bool
	Err   error
}

func (e *Error) Error() string {
	kind := "transient"
	if e.Fatal {
		kind = "fatal"
	}
	return fmt.Sprintf("transport: %s: %s error: %v", e.Op, kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Fatalf creates a fatal *Error.
func Fatalf(op string, format string, args ...interface{}) *Error {
	return &Error{Op: op, Fatal: true, Err: fmt.Errorf(format, args...)}
}

// Transientf creates a transient *Error.
func Transientf(op string, format string, args ...interface{}) *Error {
	return &Error{Op: op, Fatal: false, Err: fmt.Errorf(format, args...)}
}

// IsFatal reports whether err carries a fatal transport Error.
func IsFatal(err error) bool {
	var te *Error
	return errors.As(err, &te) && te.Fatal
}
