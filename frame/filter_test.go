// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package frame

import "testing"

func TestFilterMatch(t *testing.T) {
	tests := []struct {
		flt   Filter
		id    uint32
		match bool
	}{
		{Filter{Mask: 0x7FF, Pattern: 0x123}, 0x123, true},
		{Filter{Mask: 0x7FF, Pattern: 0x123}, 0x124, false},
		{Filter{Mask: 0x700, Pattern: 0x100}, 0x1FF, true},
		{Filter{Mask: 0x700, Pattern: 0x100}, 0x200, false},
		{Filter{}, 0x7FF, true},
		{Filter{Mask: 0x1FFFFFFF, Pattern: 0x18DAF110}, 0x18DAF110, true},
		{Filter{Mask: 0x1FFFFFFF, Pattern: 0x18DAF110}, 0x18DAF111, false},
	}

	for _, test := range tests {
		f := Frame{ID: test.id, Extended: test.id > MaxStandardID}
		if m := test.flt.Match(f); m != test.match {
			t.Fatalf("%v matching %X: got %t, want %t", test.flt, test.id, m, test.match)
		}
	}
}

func TestFilterExact(t *testing.T) {
	flt := Exact(0x123)
	if !flt.Match(Frame{ID: 0x123}) {
		t.Fatal("Exact filter misses its own identifier")
	}
	if flt.Match(Frame{ID: 0x124}) {
		t.Fatal("Exact filter matches a neighboring identifier")
	}
}

func TestMatchAny(t *testing.T) {
	filters := []Filter{Exact(0x100), Exact(0x200)}

	for id, want := range map[uint32]bool{0x100: true, 0x200: true, 0x300: false} {
		if got := MatchAny(filters, Frame{ID: id}); got != want {
			t.Fatalf("MatchAny(%X) = %t, want %t", id, got, want)
		}
	}

	if MatchAny(nil, Frame{ID: 0x100}) {
		t.Fatal("empty filter union matched a Frame")
	}
}
