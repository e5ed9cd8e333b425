// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package serialcan implements the serial Transport backend, speaking the
// delimiter-framed serial wire representation over a serial-to-CAN bridge
// attached to a port like /dev/ttyUSB0.
package serialcan

import (
	"io"
	"os"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tarm/serial"

	"github.com/canlink/canlink-go/codec"
	"github.com/canlink/canlink-go/transport"
)

// pollInterval is the port's internal read timeout. Receive loops over short
// port reads until its own deadline, keeping Close latency bounded.
const pollInterval = 100 * time.Millisecond

// readChunk is the read buffer size for one port read.
const readChunk = 256

// Transport is one serial-to-CAN bridge endpoint.
type Transport struct {
	descriptor transport.Descriptor

	mutex  sync.Mutex
	port   *serial.Port
	opened bool
}

// New creates an unopened serialcan Transport for the given Descriptor.
func New(d transport.Descriptor) *Transport {
	return &Transport{descriptor: d}
}

func (t *Transport) Open() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.opened {
		return transport.ErrAlreadyOpen
	}

	port, err := serial.OpenPort(&serial.Config{
		Name:        t.descriptor.Address,
		Baud:        t.descriptor.EffectiveBitrate(),
		ReadTimeout: pollInterval,
	})
	if err != nil {
		switch {
		case os.IsNotExist(err):
			return transport.ErrDeviceNotFound
		case os.IsPermission(err):
			return transport.ErrPermission
		default:
			return transport.Fatalf("open", "%v", err)
		}
	}

	t.port = port
	t.opened = true

	log.WithFields(log.Fields{
		"device": t.descriptor.Address,
		"baud":   t.descriptor.EffectiveBitrate(),
	}).Debug("Opened serial bridge")

	return nil
}

func (t *Transport) Send(p []byte) error {
	t.mutex.Lock()
	port, opened := t.port, t.opened
	t.mutex.Unlock()

	if !opened {
		return transport.ErrNotOpen
	}

	if _, err := port.Write(p); err != nil {
		return transport.Fatalf("send", "%v", err)
	}
	return nil
}

func (t *Transport) Receive(timeout time.Duration) ([]byte, error) {
	t.mutex.Lock()
	port, opened := t.port, t.opened
	t.mutex.Unlock()

	if !opened {
		return nil, transport.ErrNotOpen
	}

	deadline := time.Now().Add(timeout)
	buf := make([]byte, readChunk)

	for {
		n, err := port.Read(buf)
		if n > 0 {
			return buf[:n], nil
		}

		switch {
		case err == nil || err == io.EOF:
			// The port's internal timeout elapsed without data.
		case !t.isOpen():
			return nil, transport.ErrNotOpen
		default:
			return nil, transport.Fatalf("receive", "%v", err)
		}

		if !time.Now().Before(deadline) {
			return nil, transport.ErrTimeout
		}
	}
}

func (t *Transport) Close() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.opened {
		return nil
	}
	t.opened = false

	port := t.port
	t.port = nil

	// Closing the fd unblocks a Receive stuck in a port read.
	return port.Close()
}

func (t *Transport) Address() string {
	return t.descriptor.Address
}

func (t *Transport) Codec() codec.Codec {
	return codec.Serial{}
}

func (t *Transport) String() string {
	return "serialcan://" + t.descriptor.Address
}

func (t *Transport) isOpen() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.opened
}
