// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package codec translates between Frames and their backend-specific byte
// representations.
//
// Decoding is streaming: Decode inspects a prefix of the supplied buffer and
// reports how many bytes it consumed, so partial reads across I/O boundaries
// never lose data. A buffer not yet holding a complete frame results in
// ErrIncomplete with zero bytes consumed; the caller buffers more input and
// retries.
package codec

import (
	"errors"
	"fmt"

	"github.com/canlink/canlink-go/frame"
)

var (
	// ErrIncomplete signals that the buffer does not yet contain a full
	// frame. This is a buffering signal, not a failure; no bytes are
	// consumed.
	ErrIncomplete = errors.New("codec: incomplete frame")

	// ErrDecode marks malformed input. The reported amount of consumed
	// bytes must be discarded before decoding continues.
	ErrDecode = errors.New("codec: malformed frame")

	// ErrEncode marks a Frame violating its validation invariants.
	ErrEncode = errors.New("codec: invalid frame")
)

// Codec encodes and decodes Frames for one wire representation.
type Codec interface {
	// Encode serializes a Frame. An invalid Frame results in an error
	// wrapping ErrEncode.
	Encode(f frame.Frame) ([]byte, error)

	// Decode extracts the first Frame from buf and returns the number of
	// consumed bytes. On ErrIncomplete zero bytes are consumed. On an
	// error wrapping ErrDecode the consumed bytes are garbage and must be
	// skipped by the caller, which may retry with the remainder.
	Decode(buf []byte) (frame.Frame, int, error)
}

func encodeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrEncode, err)
}

func decodeErrf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrDecode, fmt.Sprintf(format, args...))
}
