// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package journal persists sent and received Frames, so bus traffic can be
// inspected after the fact. Records are kept in a badgerhold store under a
// directory owned by the Journal.
package journal

import (
	"os"
	"path"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/timshannon/badgerhold"

	"github.com/canlink/canlink-go/frame"
)

const dirBadger = "db"

// Direction tells whether a Record's Frame was sent or received by the
// local node.
type Direction string

const (
	Inbound  Direction = "rx"
	Outbound Direction = "tx"
)

// Record is one journaled Frame.
type Record struct {
	Seq uint64 `badgerhold:"key"`

	FrameID  uint32
	Extended bool
	RTR      bool
	Err      bool
	Data     []byte

	Direction Direction
	Time      time.Time `badgerholdIndex:"Time"`
}

// Frame rebuilds the journaled Frame.
func (r Record) Frame() frame.Frame {
	f := frame.Frame{
		ID:        r.FrameID,
		Extended:  r.Extended,
		RTR:       r.RTR,
		Err:       r.Err,
		Len:       uint8(len(r.Data)),
		Timestamp: r.Time,
	}
	copy(f.Data[:], r.Data)
	return f
}

func newRecord(f frame.Frame, dir Direction) Record {
	t := f.Timestamp
	if t.IsZero() {
		t = time.Now()
	}

	return Record{
		FrameID:  f.ID,
		Extended: f.Extended,
		RTR:      f.RTR,
		Err:      f.Err,
		Data:     append([]byte(nil), f.Payload()...),

		Direction: dir,
		Time:      t,
	}
}

// Journal is a persistent frame log.
type Journal struct {
	bh *badgerhold.Store
}

// Open creates or reopens a Journal under dir.
func Open(dir string) (j *Journal, err error) {
	badgerDir := path.Join(dir, dirBadger)

	if dirErr := os.MkdirAll(badgerDir, 0700); dirErr != nil {
		err = dirErr
		return
	}

	opts := badgerhold.DefaultOptions
	opts.Dir = badgerDir
	opts.ValueDir = badgerDir
	opts.Logger = nil

	if bh, bhErr := badgerhold.Open(opts); bhErr != nil {
		err = bhErr
	} else {
		j = &Journal{bh: bh}
	}
	return
}

// Close shuts the underlying store down.
func (j *Journal) Close() error {
	return j.bh.Close()
}

// Append journals one Frame.
func (j *Journal) Append(f frame.Frame, dir Direction) error {
	rec := newRecord(f, dir)

	if err := j.bh.Insert(badgerhold.NextSequence(), &rec); err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"frame":     f.String(),
		"direction": dir,
	}).Debug("Journaled frame")

	return nil
}

// Query returns the Records within [from, to] matching the Filter, ordered
// by their sequence. A nil Filter matches everything.
func (j *Journal) Query(from, to time.Time, flt *frame.Filter) ([]Record, error) {
	var records []Record

	q := badgerhold.Where("Time").Ge(from).And("Time").Le(to)
	if err := j.bh.Find(&records, q); err != nil {
		return nil, err
	}

	if flt == nil {
		return records, nil
	}

	matching := records[:0]
	for _, rec := range records {
		if flt.Match(rec.Frame()) {
			matching = append(matching, rec)
		}
	}
	return matching, nil
}
