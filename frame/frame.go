// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package frame defines the Frame value type, representing a single classical
// CAN message, together with mask/pattern Filters to select Frames by their
// identifier.
//
// A Frame supports both standard (11 bit) and extended (29 bit) identifiers,
// remote transmission requests and error frames. CAN FD payloads are not
// modelled; the data length is limited to eight bytes.
package frame

import (
	"errors"
	"fmt"
	"time"
)

// Identifier limits for the two identifier widths.
const (
	MaxStandardID uint32 = 0x7FF
	MaxExtendedID uint32 = 0x1FFFFFFF
)

// MaxDataLen is the payload limit of a classical CAN frame.
const MaxDataLen = 8

var (
	// ErrIdentifier marks an identifier exceeding its bit-width.
	ErrIdentifier = errors.New("frame: identifier exceeds bit-width")

	// ErrDataLen marks a data length greater than MaxDataLen.
	ErrDataLen = errors.New("frame: invalid data length")
)

// Frame is one CAN message. Frames are value types and are passed by copy;
// two Frames never share their payload array.
type Frame struct {
	// ID is the CAN identifier, 11 bit for standard and 29 bit for
	// extended frames.
	ID uint32

	// Extended marks a 29 bit identifier.
	Extended bool

	// RTR marks a remote transmission request.
	RTR bool

	// Err marks an error frame, as reported by the controller.
	Err bool

	// Len is the number of valid bytes in Data, 0 to 8.
	Len uint8

	// Data holds the payload; bytes beyond Len are zero.
	Data [MaxDataLen]byte

	// Timestamp is the reception instant, set by the receiving Bus. It is
	// not part of any wire representation.
	Timestamp time.Time
}

// New creates a data Frame for the given identifier and payload. The frame
// becomes an extended one if the identifier does not fit in 11 bits.
func New(id uint32, data []byte) (f Frame, err error) {
	f.ID = id
	f.Extended = id > MaxStandardID

	if len(data) > MaxDataLen {
		err = ErrDataLen
		return
	}

	f.Len = uint8(len(data))
	copy(f.Data[:], data)

	err = f.Validate()
	return
}

// Validate checks the identifier width and data length invariants.
func (f Frame) Validate() error {
	if f.Len > MaxDataLen {
		return ErrDataLen
	}

	max := MaxStandardID
	if f.Extended {
		max = MaxExtendedID
	}
	if f.ID > max {
		return ErrIdentifier
	}

	return nil
}

// Payload returns the valid part of the data array.
func (f Frame) Payload() []byte {
	return f.Data[:f.Len]
}

func (f Frame) String() string {
	switch {
	case f.Err:
		return fmt.Sprintf("can/err %08X", f.ID)
	case f.RTR:
		return fmt.Sprintf("can/rtr %X [%d]", f.ID, f.Len)
	default:
		return fmt.Sprintf("can %X [%d] % X", f.ID, f.Len, f.Payload())
	}
}
