// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package codec

import (
	"encoding/binary"

	"github.com/canlink/canlink-go/frame"
)

// nativeFrameLen is the size of the Linux can_frame struct for classical CAN.
const nativeFrameLen = 16

// Identifier flag bits of the can_id field.
const (
	canEffFlag uint32 = 0x80000000
	canRtrFlag uint32 = 0x40000000
	canErrFlag uint32 = 0x20000000
)

// Native is the fixed-width binary layout used by raw CAN sockets, the
// "struct can_frame" of Linux:
//
//	0..3  can_id, little-endian, with the EFF/RTR/ERR flag bits
//	4     data length code
//	5..7  padding, zero
//	8..15 data
//
// Every record is exactly 16 bytes long.
type Native struct{}

func (Native) Encode(f frame.Frame) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, encodeErr(err)
	}

	id := f.ID
	if f.Extended {
		id |= canEffFlag
	}
	if f.RTR {
		id |= canRtrFlag
	}
	if f.Err {
		id |= canErrFlag
	}

	buf := make([]byte, nativeFrameLen)
	binary.LittleEndian.PutUint32(buf[0:4], id)
	buf[4] = f.Len
	copy(buf[8:], f.Data[:])

	return buf, nil
}

func (Native) Decode(buf []byte) (f frame.Frame, n int, err error) {
	if len(buf) < nativeFrameLen {
		err = ErrIncomplete
		return
	}

	id := binary.LittleEndian.Uint32(buf[0:4])
	f.Extended = id&canEffFlag != 0
	f.RTR = id&canRtrFlag != 0
	f.Err = id&canErrFlag != 0
	if f.Extended {
		f.ID = id & frame.MaxExtendedID
	} else {
		f.ID = id & frame.MaxStandardID
	}
	f.Len = buf[4]

	n = nativeFrameLen
	if f.Len > frame.MaxDataLen {
		err = decodeErrf("data length code %d", f.Len)
		return
	}
	copy(f.Data[:], buf[8:16])

	return
}

func (Native) String() string {
	return "native"
}
