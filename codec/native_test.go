// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package codec

import (
	"errors"
	"reflect"
	"testing"

	"github.com/canlink/canlink-go/frame"
)

func roundTripFrames() []frame.Frame {
	return []frame.Frame{
		{ID: 0x123, Len: 3, Data: [8]byte{0x01, 0x02, 0x03}},
		{ID: 0x7FF, Len: 8, Data: [8]byte{0xFF, 0xEE, 0xDD, 0xCC, 0xBB, 0xAA, 0x99, 0x88}},
		{ID: 0x18DAF110, Extended: true, Len: 2, Data: [8]byte{0x10, 0x20}},
		{ID: 0x42, RTR: true, Len: 4},
		{ID: 0x0, Len: 0},
		{ID: 0x1FFFFFFF, Extended: true, Err: true, Len: 1, Data: [8]byte{0x7E}},
	}
}

func TestNativeRoundTrip(t *testing.T) {
	var c Native

	for _, f := range roundTripFrames() {
		buf, err := c.Encode(f)
		if err != nil {
			t.Fatal(err)
		}
		if len(buf) != nativeFrameLen {
			t.Fatalf("encoded %v into %d bytes", f, len(buf))
		}

		got, n, err := c.Decode(buf)
		if err != nil {
			t.Fatal(err)
		}
		if n != nativeFrameLen {
			t.Fatalf("decode consumed %d bytes", n)
		}
		if !reflect.DeepEqual(got, f) {
			t.Fatalf("round trip mismatch: %v != %v", got, f)
		}
	}
}

func TestNativeIncomplete(t *testing.T) {
	var c Native

	buf, err := c.Encode(frame.Frame{ID: 0x123, Len: 1, Data: [8]byte{0xAB}})
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < len(buf); i++ {
		if _, n, err := c.Decode(buf[:i]); !errors.Is(err, ErrIncomplete) {
			t.Fatalf("prefix of %d bytes: err = %v", i, err)
		} else if n != 0 {
			t.Fatalf("prefix of %d bytes consumed %d bytes", i, n)
		}
	}
}

func TestNativeEncodeInvalid(t *testing.T) {
	var c Native

	if _, err := c.Encode(frame.Frame{ID: 0x800}); !errors.Is(err, ErrEncode) {
		t.Fatalf("oversized standard identifier: err = %v", err)
	}
	if _, err := c.Encode(frame.Frame{ID: 0x1, Len: 9}); !errors.Is(err, ErrEncode) {
		t.Fatalf("oversized length: err = %v", err)
	}
}

func TestNativeDecodeBadLength(t *testing.T) {
	var c Native

	buf := make([]byte, nativeFrameLen)
	buf[4] = 0x0F

	_, n, err := c.Decode(buf)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("bad data length code: err = %v", err)
	}
	if n != nativeFrameLen {
		t.Fatalf("bad record consumed %d bytes", n)
	}
}
