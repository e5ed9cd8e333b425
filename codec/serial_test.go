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

func TestSerialRoundTrip(t *testing.T) {
	var c Serial

	frames := roundTripFrames()
	// Payloads full of wire bytes must survive the escaping.
	frames = append(frames,
		frame.Frame{ID: 0x101, Len: 4, Data: [8]byte{Delim, Esc, Delim, Esc}},
		frame.Frame{ID: 0x102, Len: 8, Data: [8]byte{Delim, Delim, Delim, Delim, Delim, Delim, Delim, Delim}},
	)

	for _, f := range frames {
		buf, err := c.Encode(f)
		if err != nil {
			t.Fatal(err)
		}
		if buf[0] != Delim || buf[len(buf)-1] != Delim {
			t.Fatalf("encoding of %v lacks delimiters: % X", f, buf)
		}

		got, n, err := c.Decode(buf)
		if err != nil {
			t.Fatal(err)
		}
		if n > len(buf) {
			t.Fatalf("decode consumed %d of %d bytes", n, len(buf))
		}
		if !reflect.DeepEqual(got, f) {
			t.Fatalf("round trip mismatch: %v != %v", got, f)
		}
	}
}

func TestSerialIncomplete(t *testing.T) {
	var c Serial

	buf, err := Serial{}.Encode(frame.Frame{ID: 0x123, Len: 2, Data: [8]byte{Delim, 0x42}})
	if err != nil {
		t.Fatal(err)
	}

	for i := 1; i < len(buf); i++ {
		if _, n, err := c.Decode(buf[:i]); !errors.Is(err, ErrIncomplete) {
			t.Fatalf("prefix of %d bytes: err = %v", i, err)
		} else if n != 0 {
			t.Fatalf("prefix of %d bytes consumed %d bytes", i, n)
		}
	}
}

// TestSerialStreaming feeds two frames byte-wise through a growing buffer,
// like a receive loop buffering partial reads would.
func TestSerialStreaming(t *testing.T) {
	var c Serial

	f1 := frame.Frame{ID: 0x123, Len: 2, Data: [8]byte{0xAA, Esc}}
	f2 := frame.Frame{ID: 0x18DAF110, Extended: true, Len: 1, Data: [8]byte{Delim}}

	var wire []byte
	for _, f := range []frame.Frame{f1, f2} {
		buf, err := c.Encode(f)
		if err != nil {
			t.Fatal(err)
		}
		wire = append(wire, buf...)
	}

	var decoded []frame.Frame
	var pending []byte

	for _, b := range wire {
		pending = append(pending, b)

		for {
			f, n, err := c.Decode(pending)
			if errors.Is(err, ErrIncomplete) {
				break
			}
			pending = pending[n:]
			if err != nil {
				t.Fatal(err)
			}
			decoded = append(decoded, f)
		}
	}

	if want := []frame.Frame{f1, f2}; !reflect.DeepEqual(decoded, want) {
		t.Fatalf("streaming decode got %v, want %v", decoded, want)
	}
}

func TestSerialChecksumMismatch(t *testing.T) {
	var c Serial

	buf, err := c.Encode(frame.Frame{ID: 0x123, Len: 1, Data: [8]byte{0x42}})
	if err != nil {
		t.Fatal(err)
	}

	// Flip a payload bit; both CRC bytes stay untouched.
	buf[len(buf)/2] ^= 0x10

	_, n, err := c.Decode(buf)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("corrupted frame: err = %v", err)
	}
	if n == 0 {
		t.Fatal("corrupted frame consumed no bytes")
	}
}

// TestSerialResync prepends mid-frame garbage; the decoder must discard it
// and still find the following intact frame.
func TestSerialResync(t *testing.T) {
	var c Serial

	f := frame.Frame{ID: 0x321, Len: 3, Data: [8]byte{1, 2, 3}}
	buf, err := c.Encode(f)
	if err != nil {
		t.Fatal(err)
	}

	wire := append([]byte{0x13, 0x37, Delim}, buf...)

	var got frame.Frame
	for {
		var n int
		got, n, err = c.Decode(wire)
		if errors.Is(err, ErrIncomplete) {
			t.Fatal("decoder stuck on garbage prefix")
		}
		wire = wire[n:]
		if err == nil {
			break
		}
	}

	if !reflect.DeepEqual(got, f) {
		t.Fatalf("resync decode got %v, want %v", got, f)
	}
}

func TestSerialBadEscape(t *testing.T) {
	var c Serial

	wire := []byte{Delim, 0x00, 0x00, 0x01, 0x23, 0x00, 0x01, Esc, 0x42, 0x00, 0x00, Delim}

	if _, _, err := c.Decode(wire); !errors.Is(err, ErrDecode) {
		t.Fatalf("invalid escape sequence: err = %v", err)
	}
}
