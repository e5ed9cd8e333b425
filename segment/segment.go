// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package segment carries payloads larger than one CAN frame by splitting
// them into a sequence of data frames and reassembling them on the far
// side.
//
// Each frame spends its first data byte on a lead byte:
//
//	  0   1   2   3   4   5   6   7
//	+---+---+---+---+---+---+---+---+
//	|  Transfer ID  |Seq. No|SB |EB |
//	+---+---+---+---+---+---+---+---+
//
// The four bit transfer ID groups the frames of one transfer, the two bit
// sequence number detects lost frames, and the start/end bits mark the
// transfer's boundaries. The remaining seven data bytes carry the payload.
// Multi-frame transfers append a CRC-16 (X-25) over the whole payload, so
// reassembly failures surface as integrity errors instead of silent
// corruption. Single-frame transfers carry no CRC.
package segment

import (
	"encoding/binary"
	"errors"

	"github.com/howeyc/crc16"

	"github.com/canlink/canlink-go/frame"
)

// chunkLen is the payload capacity of one frame next to the lead byte.
const chunkLen = frame.MaxDataLen - 1

const crcLen = 2

// ErrPayloadSize marks a payload too large for the transfer ID space: a
// transfer must not need more frames than the sequence number can keep
// apart over its four bit transfer ID.
var ErrPayloadSize = errors.New("segment: payload exceeds transfer capacity")

// MaxTransferPayload is the largest payload Split accepts. Bounded only by
// practicality; transfers beyond a few kilobytes should reconsider their
// transport.
const MaxTransferPayload = 4096

var crcTable = crc16.MakeTable(crc16.CCITT)

func lead(transferID, sequenceNo byte, start, end bool) (b byte) {
	b |= (transferID & 0x0F) << 4
	b |= (sequenceNo & 0x03) << 2
	if start {
		b |= 0x02
	}
	if end {
		b |= 0x01
	}
	return
}

func transferID(lead byte) byte  { return lead >> 4 & 0x0F }
func sequenceNo(lead byte) byte  { return lead >> 2 & 0x03 }
func startBit(lead byte) bool    { return lead&0x02 != 0 }
func endBit(lead byte) bool      { return lead&0x01 != 0 }
func nextSequence(seq byte) byte { return (seq + 1) % 4 }
func nextTransfer(tid byte) byte { return (tid + 1) % 16 }

// Segmenter splits payloads into transfer frames. It is not safe for
// concurrent use; give each sending goroutine its own Segmenter.
type Segmenter struct {
	canID      uint32
	transferID byte
}

// NewSegmenter creates a Segmenter emitting frames under the given CAN
// identifier.
func NewSegmenter(canID uint32) *Segmenter {
	return &Segmenter{canID: canID}
}

// Split turns one payload into the frames of a transfer, consuming the next
// transfer ID.
func (s *Segmenter) Split(payload []byte) ([]frame.Frame, error) {
	if len(payload) > MaxTransferPayload {
		return nil, ErrPayloadSize
	}

	tid := s.transferID
	s.transferID = nextTransfer(s.transferID)

	if len(payload) <= chunkLen {
		f, err := newTransferFrame(s.canID, lead(tid, 0, true, true), payload)
		if err != nil {
			return nil, err
		}
		return []frame.Frame{f}, nil
	}

	// Multi-frame transfers protect the payload with a trailing CRC.
	data := make([]byte, 0, len(payload)+crcLen)
	data = append(data, payload...)
	crc := crc16.Checksum(payload, crcTable)
	data = append(data, byte(crc>>8), byte(crc))

	var frames []frame.Frame
	var seq byte

	for off := 0; off < len(data); off += chunkLen {
		chunk := data[off:]
		if len(chunk) > chunkLen {
			chunk = chunk[:chunkLen]
		}

		f, err := newTransferFrame(s.canID,
			lead(tid, seq, off == 0, off+chunkLen >= len(data)), chunk)
		if err != nil {
			return nil, err
		}

		frames = append(frames, f)
		seq = nextSequence(seq)
	}

	return frames, nil
}

func newTransferFrame(canID uint32, leadByte byte, chunk []byte) (frame.Frame, error) {
	data := make([]byte, 0, len(chunk)+1)
	data = append(data, leadByte)
	data = append(data, chunk...)
	return frame.New(canID, data)
}

// crcOf exposes the transfer checksum to the reassembler.
func crcOf(payload []byte) uint16 {
	return crc16.Checksum(payload, crcTable)
}

func transferCrc(trailer []byte) uint16 {
	return binary.BigEndian.Uint16(trailer)
}
