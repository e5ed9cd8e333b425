// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package segment

import (
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/canlink/canlink-go/frame"
)

// ErrorKind classifies reassembly failures. Failures are counted, not
// returned: a lost or corrupted transfer is dropped and the state machine
// waits for the next transfer's start frame.
type ErrorKind int

const (
	// ErrorMissingFrames: a transfer was abandoned because frames went
	// missing, detected by a sequence gap, a foreign transfer ID, a
	// timeout or a new transfer starting over it.
	ErrorMissingFrames ErrorKind = iota

	// ErrorIntegrity: a completed multi-frame transfer failed its CRC.
	ErrorIntegrity

	// ErrorEmptyFrame: a transfer frame without payload bytes.
	ErrorEmptyFrame

	// ErrorUnexpectedFrame: a continuation frame arrived with no
	// transfer in progress.
	ErrorUnexpectedFrame

	// ErrorPayloadSize: a transfer outgrew the configured payload limit.
	ErrorPayloadSize

	numErrorKinds
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorMissingFrames:
		return "missing frames"
	case ErrorIntegrity:
		return "integrity"
	case ErrorEmptyFrame:
		return "empty frame"
	case ErrorUnexpectedFrame:
		return "unexpected frame"
	case ErrorPayloadSize:
		return "payload size"
	default:
		return "unknown"
	}
}

// DefaultTransferTimeout bounds the age of an unfinished transfer before a
// new start frame may displace it without being counted as frame loss.
const DefaultTransferTimeout = 2 * time.Second

// Reassembler rebuilds transfer payloads from the frames of one sender. It
// is a state machine holding at most one unfinished transfer; frames are
// expected in order, as CAN delivers them. Not safe for concurrent use.
type Reassembler struct {
	maxPayload int
	timeout    time.Duration

	active     bool
	transferID byte
	seq        byte
	started    time.Time
	data       []byte

	counters [numErrorKinds]uint64
}

// NewReassembler creates a Reassembler accepting payloads up to maxPayload
// bytes. A non-positive maxPayload falls back to MaxTransferPayload, a zero
// timeout to DefaultTransferTimeout.
func NewReassembler(maxPayload int, timeout time.Duration) *Reassembler {
	if maxPayload <= 0 {
		maxPayload = MaxTransferPayload
	}
	if timeout == 0 {
		timeout = DefaultTransferTimeout
	}
	return &Reassembler{maxPayload: maxPayload, timeout: timeout}
}

// Errors returns the per-kind failure counters.
func (r *Reassembler) Errors() map[ErrorKind]uint64 {
	m := make(map[ErrorKind]uint64, int(numErrorKinds))
	for kind, n := range r.counters {
		m[ErrorKind(kind)] = n
	}
	return m
}

func (r *Reassembler) note(kind ErrorKind) {
	r.counters[kind]++
	log.WithFields(log.Fields{
		"kind":     kind.String(),
		"transfer": r.transferID,
	}).Debug("Reassembly error")
}

func (r *Reassembler) reset() {
	r.active = false
	r.data = nil
}

// Push feeds the next received frame into the state machine. When the frame
// completes a transfer, its payload is returned with done set.
func (r *Reassembler) Push(f frame.Frame) (payload []byte, done bool) {
	if f.Len == 0 {
		r.note(ErrorEmptyFrame)
		return
	}

	leadByte := f.Data[0]
	chunk := f.Data[1:f.Len]

	// An aged-out transfer no longer counts as in progress.
	if r.active && time.Since(r.started) > r.timeout {
		r.note(ErrorMissingFrames)
		r.reset()
	}

	if startBit(leadByte) {
		if r.active {
			// A new transfer displaces the unfinished one.
			r.note(ErrorMissingFrames)
		}

		r.active = true
		r.transferID = transferID(leadByte)
		r.seq = sequenceNo(leadByte)
		r.started = time.Now()
		r.data = append([]byte(nil), chunk...)
	} else {
		switch {
		case !r.active:
			r.note(ErrorUnexpectedFrame)
			return
		case transferID(leadByte) != r.transferID:
			r.note(ErrorMissingFrames)
			r.reset()
			return
		case sequenceNo(leadByte) != nextSequence(r.seq):
			r.note(ErrorMissingFrames)
			r.reset()
			return
		}

		r.seq = sequenceNo(leadByte)
		r.data = append(r.data, chunk...)
	}

	if len(r.data) > r.maxPayload+crcLen {
		r.note(ErrorPayloadSize)
		r.reset()
		return
	}

	if !endBit(leadByte) {
		return
	}

	defer r.reset()

	if startBit(leadByte) {
		// Single-frame transfer, no CRC trailer.
		return r.data, true
	}

	if len(r.data) < crcLen {
		r.note(ErrorIntegrity)
		return nil, false
	}

	body := r.data[:len(r.data)-crcLen]
	if crcOf(body) != transferCrc(r.data[len(r.data)-crcLen:]) {
		r.note(ErrorIntegrity)
		return nil, false
	}

	return body, true
}
