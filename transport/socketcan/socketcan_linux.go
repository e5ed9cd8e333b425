// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build linux

// Package socketcan implements the native Transport backend over a raw
// Linux CAN socket (PF_CAN, CAN_RAW).
package socketcan

import (
	"errors"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"

	"github.com/canlink/canlink-go/codec"
	"github.com/canlink/canlink-go/transport"
)

// Transport is one raw CAN socket bound to a network interface like "can0".
type Transport struct {
	descriptor transport.Descriptor

	mutex  sync.Mutex
	fd     int
	opened bool
}

// New creates an unopened socketcan Transport for the given Descriptor.
func New(d transport.Descriptor) *Transport {
	return &Transport{descriptor: d, fd: -1}
}

func (t *Transport) Open() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.opened {
		return transport.ErrAlreadyOpen
	}

	iface, ifaceErr := net.InterfaceByName(t.descriptor.Address)
	if ifaceErr != nil {
		return transport.ErrDeviceNotFound
	}

	fd, sockErr := unix.Socket(unix.AF_CAN, unix.SOCK_RAW, unix.CAN_RAW)
	if sockErr != nil {
		return mapSysErr("socket", sockErr)
	}

	if t.descriptor.ReceiveOwnMessages {
		if err := unix.SetsockoptInt(fd, unix.SOL_CAN_RAW, unix.CAN_RAW_RECV_OWN_MSGS, 1); err != nil {
			_ = unix.Close(fd)
			return mapSysErr("setsockopt", err)
		}
	}

	if err := unix.Bind(fd, &unix.SockaddrCAN{Ifindex: iface.Index}); err != nil {
		_ = unix.Close(fd)
		return mapSysErr("bind", err)
	}

	t.fd = fd
	t.opened = true

	log.WithFields(log.Fields{
		"interface": t.descriptor.Address,
		"index":     iface.Index,
	}).Debug("Opened CAN socket")

	return nil
}

func (t *Transport) Send(p []byte) error {
	t.mutex.Lock()
	fd, opened := t.fd, t.opened
	t.mutex.Unlock()

	if !opened {
		return transport.ErrNotOpen
	}

	if _, err := unix.Write(fd, p); err != nil {
		if err == unix.ENOBUFS || err == unix.EAGAIN || err == unix.EINTR {
			return transport.Transientf("send", "%v", err)
		}
		return transport.Fatalf("send", "%v", err)
	}
	return nil
}

func (t *Transport) Receive(timeout time.Duration) ([]byte, error) {
	t.mutex.Lock()
	fd, opened := t.fd, t.opened
	t.mutex.Unlock()

	if !opened {
		return nil, transport.ErrNotOpen
	}

	tv := unix.NsecToTimeval(timeout.Nanoseconds())
	if err := unix.SetsockoptTimeval(fd, unix.SOL_SOCKET, unix.SO_RCVTIMEO, &tv); err != nil {
		return nil, transport.Fatalf("receive", "setting receive timeout: %v", err)
	}

	buf := make([]byte, unix.CAN_MTU)
	n, err := unix.Read(fd, buf)
	if err != nil {
		switch {
		case err == unix.EAGAIN || err == unix.EWOULDBLOCK || err == unix.EINTR:
			return nil, transport.ErrTimeout
		case err == unix.EBADF || !t.isOpen():
			// Close raced with this Receive and took the fd away.
			return nil, transport.ErrNotOpen
		default:
			return nil, transport.Fatalf("receive", "%v", err)
		}
	}

	return buf[:n], nil
}

func (t *Transport) Close() error {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	if !t.opened {
		return nil
	}
	t.opened = false

	fd := t.fd
	t.fd = -1

	// Shutdown first, so a Receive blocked in Read returns instead of
	// holding the fd until its timeout runs out.
	_ = unix.Shutdown(fd, unix.SHUT_RDWR)
	return unix.Close(fd)
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

func (t *Transport) isOpen() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.opened
}

func mapSysErr(op string, err error) error {
	switch {
	case errors.Is(err, unix.EPERM) || errors.Is(err, unix.EACCES):
		return transport.ErrPermission
	case errors.Is(err, unix.ENODEV) || errors.Is(err, unix.ENXIO):
		return transport.ErrDeviceNotFound
	default:
		return transport.Fatalf(op, "%v", err)
	}
}
