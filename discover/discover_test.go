// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package discover

import (
	"testing"

	"github.com/canlink/canlink-go/transport"
)

func TestSerialCandidate(t *testing.T) {
	tests := []struct {
		name      string
		candidate bool
	}{
		{"ttyUSB0", true},
		{"ttyUSB12", true},
		{"ttyACM0", true},
		{"ttyS0", false},
		{"tty0", false},
		{"sda1", false},
		{"null", false},
	}

	for _, test := range tests {
		if got := serialCandidate(test.name); got != test.candidate {
			t.Fatalf("serialCandidate(%q) = %v", test.name, got)
		}
	}
}

func TestAdapterDescriptor(t *testing.T) {
	a := Adapter{Kind: transport.Serial, Name: "ttyUSB0", Address: "/dev/ttyUSB0"}

	d := a.Descriptor()
	if d.Kind != transport.Serial || d.Address != "/dev/ttyUSB0" {
		t.Fatalf("adapter dials %#v", d)
	}
	if d.Bitrate != 0 || d.Timeout != 0 {
		t.Fatalf("adapter descriptor carries non-default options: %#v", d)
	}

	if a.String() != "serial:/dev/ttyUSB0" {
		t.Fatalf("adapter renders as %q", a.String())
	}

	// The textual form is itself a dialable descriptor.
	parsed, err := transport.ParseDescriptor(a.String())
	if err != nil {
		t.Fatal(err)
	}
	if parsed != d {
		t.Fatalf("parsed %#v, want %#v", parsed, d)
	}
}
