// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package codec

import (
	"encoding/binary"

	"github.com/howeyc/crc16"

	"github.com/canlink/canlink-go/frame"
)

// Wire bytes of the serial framing.
const (
	// Delim separates frames on the wire. It never appears within an
	// escaped frame body.
	Delim byte = 0x7E

	// Esc precedes any in-body occurrence of Delim or Esc itself.
	Esc byte = 0x7D
)

// Flag bits of the serial frame's flags byte. The upper nibble is reserved
// for a future channel number and must be zero.
const (
	serialFlagExtended byte = 0x01
	serialFlagRTR      byte = 0x02
	serialFlagErr      byte = 0x04
)

// Serial frame body layout, before escaping:
//
//	0..3 identifier, big-endian
//	4    flags
//	5    data length
//	6..  data
//	last two bytes: CRC-16, big-endian
const (
	serialHeaderLen = 6
	serialCrcLen    = 2
	serialMinBody   = serialHeaderLen + serialCrcLen
)

// maxSerialWire is an upper bound on one escaped frame plus both delimiters.
// A buffer longer than this containing no delimiter is garbage.
const maxSerialWire = 2*(serialMinBody+frame.MaxDataLen) + 2

var serialCrcTable = crc16.MakeTable(crc16.CCITT)

// Serial is the delimiter-framed representation spoken by serial-to-CAN
// bridges:
//
//	Delim | escaped(identifier, flags, length, data) | crc16 | Delim
//
// The CRC-16 (X-25) covers the unescaped identifier, flags, length and data
// and is itself part of the escaped region. Escaping prefixes each in-body
// Delim or Esc byte with Esc.
type Serial struct{}

func (Serial) Encode(f frame.Frame) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, encodeErr(err)
	}

	body := make([]byte, serialHeaderLen, serialMinBody+int(f.Len))
	binary.BigEndian.PutUint32(body[0:4], f.ID)
	body[4] = serialFlags(f)
	body[5] = f.Len
	body = append(body, f.Payload()...)

	crc := crc16.Checksum(body, serialCrcTable)
	body = append(body, byte(crc>>8), byte(crc))

	buf := make([]byte, 0, len(body)+4)
	buf = append(buf, Delim)
	for _, b := range body {
		if b == Delim || b == Esc {
			buf = append(buf, Esc)
		}
		buf = append(buf, b)
	}
	buf = append(buf, Delim)

	return buf, nil
}

func (Serial) Decode(buf []byte) (f frame.Frame, n int, err error) {
	// Leading delimiters are frame boundaries from preceding frames.
	start := 0
	for start < len(buf) && buf[start] == Delim {
		start++
	}

	end := start
	for end < len(buf) && buf[end] != Delim {
		end++
	}

	if end == len(buf) {
		// No closing delimiter yet. Either the frame is still in
		// transit or the link lost its framing entirely.
		if end-start > maxSerialWire {
			return f, end, decodeErrf("no delimiter within %d bytes", end-start)
		}
		return f, 0, ErrIncomplete
	}

	// The consumed region spans the leading boundary run, the body and the
	// closing delimiter.
	n = end + 1

	body, unescErr := unescape(buf[start:end])
	if unescErr != nil {
		return f, n, unescErr
	}
	if len(body) < serialMinBody {
		return f, n, decodeErrf("short frame body of %d bytes", len(body))
	}

	crcIdx := len(body) - serialCrcLen
	want := binary.BigEndian.Uint16(body[crcIdx:])
	if got := crc16.Checksum(body[:crcIdx], serialCrcTable); got != want {
		return f, n, decodeErrf("checksum mismatch, %04X != %04X", got, want)
	}

	f.ID = binary.BigEndian.Uint32(body[0:4])
	flags := body[4]
	f.Extended = flags&serialFlagExtended != 0
	f.RTR = flags&serialFlagRTR != 0
	f.Err = flags&serialFlagErr != 0
	f.Len = body[5]

	if int(f.Len) != crcIdx-serialHeaderLen {
		return f, n, decodeErrf("length field %d, payload %d", f.Len, crcIdx-serialHeaderLen)
	}
	copy(f.Data[:], body[serialHeaderLen:crcIdx])

	if vErr := f.Validate(); vErr != nil {
		return f, n, decodeErrf("%v", vErr)
	}

	return
}

func (Serial) String() string {
	return "serial"
}

func serialFlags(f frame.Frame) (flags byte) {
	if f.Extended {
		flags |= serialFlagExtended
	}
	if f.RTR {
		flags |= serialFlagRTR
	}
	if f.Err {
		flags |= serialFlagErr
	}
	return
}

// unescape resolves the Esc prefixes within one frame body.
func unescape(raw []byte) ([]byte, error) {
	body := make([]byte, 0, len(raw))
	for i := 0; i < len(raw); i++ {
		b := raw[i]
		if b != Esc {
			body = append(body, b)
			continue
		}

		i++
		if i == len(raw) {
			return nil, decodeErrf("dangling escape byte")
		}
		if raw[i] != Delim && raw[i] != Esc {
			return nil, decodeErrf("invalid escape sequence %02X %02X", Esc, raw[i])
		}
		body = append(body, raw[i])
	}
	return body, nil
}
