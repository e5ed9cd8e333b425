// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build !linux

// Package socketcan implements the native Transport backend over a raw
// Linux CAN socket (PF_CAN, CAN_RAW). On other platforms every Open fails
// with ErrDeviceNotFound.
package socketcan

import (
	"time"

	"github.com/canlink/canlink-go/codec"
	"github.com/canlink/canlink-go/transport"
)

// Transport is the socketcan stub for platforms without PF_CAN.
type Transport struct {
	descriptor transport.Descriptor
}

// New creates an unopened socketcan Transport for the given Descriptor.
func New(d transport.Descriptor) *Transport {
	return &Transport{descriptor: d}
}

func (t *Transport) Open() error {
	return transport.ErrDeviceNotFound
}

func (t *Transport) Send(_ []byte) error {
	return transport.ErrNotOpen
}

func (t *Transport) Receive(_ time.Duration) ([]byte, error) {
	return nil, transport.ErrNotOpen
}

func (t *Transport) Close() error {
	return nil
}

func (t *Transport) Address() string {
	return t.descriptor.Address
}

func (t *Transport) Codec() codec.Codec {
	return codec.Native{}
}

func (t *Transport) String() string {
	return "socketcan://" + t.descriptor.Address
}
