// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package journal

import (
	"testing"
	"time"

	"github.com/canlink/canlink-go/bus"
	"github.com/canlink/canlink-go/codec"
	"github.com/canlink/canlink-go/frame"
	"github.com/canlink/canlink-go/transport"
	"github.com/canlink/canlink-go/transport/loopback"
)

func openJournal(t *testing.T) *Journal {
	t.Helper()

	j, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := j.Close(); err != nil {
			t.Error(err)
		}
	})
	return j
}

func TestJournalAppendQuery(t *testing.T) {
	j := openJournal(t)

	now := time.Now()
	frames := []frame.Frame{
		{ID: 0x123, Len: 2, Data: [8]byte{0xDE, 0xAD}, Timestamp: now},
		{ID: 0x124, Len: 1, Data: [8]byte{0x01}, Timestamp: now.Add(time.Second)},
		{ID: 0x18DAF110, Extended: true, Len: 3, Data: [8]byte{1, 2, 3}, Timestamp: now.Add(2 * time.Second)},
	}

	for _, f := range frames {
		if err := j.Append(f, Inbound); err != nil {
			t.Fatal(err)
		}
	}

	records, err := j.Query(now.Add(-time.Minute), now.Add(time.Minute), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != len(frames) {
		t.Fatalf("query returned %d records, want %d", len(records), len(frames))
	}

	for i, rec := range records {
		if got := rec.Frame(); got.ID != frames[i].ID || got.Len != frames[i].Len {
			t.Fatalf("record %d rebuilt into %v, journaled %v", i, got, frames[i])
		}
	}
}

func TestJournalQueryWindow(t *testing.T) {
	j := openJournal(t)

	now := time.Now()
	for i := 0; i < 5; i++ {
		f := frame.Frame{ID: uint32(i), Timestamp: now.Add(time.Duration(i) * time.Second)}
		if err := j.Append(f, Outbound); err != nil {
			t.Fatal(err)
		}
	}

	records, err := j.Query(now.Add(time.Second), now.Add(3*time.Second), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("window query returned %d records", len(records))
	}
	for _, rec := range records {
		if rec.FrameID < 1 || rec.FrameID > 3 {
			t.Fatalf("record %d lies outside the window", rec.FrameID)
		}
	}
}

func TestJournalQueryFilter(t *testing.T) {
	j := openJournal(t)

	now := time.Now()
	for _, id := range []uint32{0x123, 0x124, 0x123} {
		if err := j.Append(frame.Frame{ID: id, Timestamp: now}, Inbound); err != nil {
			t.Fatal(err)
		}
	}

	flt := frame.Exact(0x123)
	records, err := j.Query(now.Add(-time.Minute), now.Add(time.Minute), &flt)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("filtered query returned %d records", len(records))
	}
}

func TestJournalReopen(t *testing.T) {
	dir := t.TempDir()

	j, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	if err := j.Append(frame.Frame{ID: 0x42, Timestamp: now}, Inbound); err != nil {
		t.Fatal(err)
	}
	if err := j.Close(); err != nil {
		t.Fatal(err)
	}

	j, err = Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = j.Close() }()

	records, err := j.Query(now.Add(-time.Minute), now.Add(time.Minute), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].FrameID != 0x42 {
		t.Fatalf("reopened journal holds %v", records)
	}
}

func TestJournalAttach(t *testing.T) {
	j := openJournal(t)

	var c codec.Native
	b := bus.New(loopback.New(transport.Descriptor{
		Kind:               transport.Native,
		Address:            "loop0",
		ReceiveOwnMessages: true,
	}, c))
	if err := b.Open(); err != nil {
		t.Fatal(err)
	}
	defer func() { _ = b.Close() }()

	detach := j.Attach(b)

	now := time.Now()
	if err := b.Send(frame.Frame{ID: 0x222, Len: 1, Data: [8]byte{0x66}}); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for {
		records, err := j.Query(now.Add(-time.Minute), now.Add(time.Minute), nil)
		if err != nil {
			t.Fatal(err)
		}
		if len(records) == 1 {
			if records[0].FrameID != 0x222 || records[0].Direction != Inbound {
				t.Fatalf("wiretap journaled %+v", records[0])
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("wiretapped frame never journaled")
		}
		time.Sleep(10 * time.Millisecond)
	}

	detach()

	// After detaching, traffic no longer lands in the journal.
	if err := b.Send(frame.Frame{ID: 0x333}); err != nil {
		t.Fatal(err)
	}
	time.Sleep(100 * time.Millisecond)

	records, err := j.Query(now.Add(-time.Minute), now.Add(time.Minute), nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("journal grew to %d records after detach", len(records))
	}
}
