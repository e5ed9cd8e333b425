// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Kind names a Transport backend.
type Kind string

const (
	// Native is a directly attached CAN adapter, reached through a raw
	// CAN socket.
	Native Kind = "can"

	// Serial is a serial-to-CAN bridge on a serial port.
	Serial Kind = "serial"
)

// Default configuration values for omitted Descriptor options.
const (
	DefaultBitrate = 500000
	DefaultTimeout = 500 * time.Millisecond
)

// Descriptor names a link: its backend kind, the connection address and the
// recognized options. A Descriptor is immutable once a Transport was opened
// with it.
//
// The textual form is "kind:address?options", e.g.
//
//	can:can0
//	serial:/dev/ttyUSB0?bitrate=115200&timeout=1s&receive-own=true
type Descriptor struct {
	// Kind selects the backend.
	Kind Kind

	// Address is the interface name (native) or device path (serial).
	Address string

	// Bitrate in bits per second; for serial bridges this is the port
	// baud rate. Zero means DefaultBitrate.
	Bitrate int

	// Timeout bounds a single blocking Receive on the link. Zero means
	// DefaultTimeout.
	Timeout time.Duration

	// ReceiveOwnMessages makes the link deliver frames sent by itself.
	ReceiveOwnMessages bool
}

// ParseDescriptor parses the textual form of a Descriptor.
func ParseDescriptor(s string) (d Descriptor, err error) {
	u, uErr := url.Parse(s)
	if uErr != nil {
		err = fmt.Errorf("transport: parsing descriptor %q: %v", s, uErr)
		return
	}

	switch Kind(u.Scheme) {
	case Native, Serial:
		d.Kind = Kind(u.Scheme)
	default:
		err = fmt.Errorf("transport: unknown descriptor kind %q", u.Scheme)
		return
	}

	// "can:can0" keeps the address opaque, "serial:/dev/ttyUSB0" parses
	// into the path.
	d.Address = u.Opaque
	if d.Address == "" {
		d.Address = u.Path
	}
	if d.Address == "" {
		err = fmt.Errorf("transport: descriptor %q lacks an address", s)
		return
	}

	query := u.Query()
	if u.Opaque != "" {
		// For opaque URLs the query is still part of the opaque data.
		if addr, rawQuery, found := cutQuery(u.Opaque); found {
			d.Address = addr
			if query, err = url.ParseQuery(rawQuery); err != nil {
				err = fmt.Errorf("transport: parsing descriptor options of %q: %v", s, err)
				return
			}
		}
	}

	if v := query.Get("bitrate"); v != "" {
		if d.Bitrate, err = strconv.Atoi(v); err != nil {
			err = fmt.Errorf("transport: invalid bitrate %q", v)
			return
		}
	}
	if v := query.Get("timeout"); v != "" {
		if d.Timeout, err = time.ParseDuration(v); err != nil {
			err = fmt.Errorf("transport: invalid timeout %q", v)
			return
		}
	}
	if v := query.Get("receive-own"); v != "" {
		if d.ReceiveOwnMessages, err = strconv.ParseBool(v); err != nil {
			err = fmt.Errorf("transport: invalid receive-own flag %q", v)
			return
		}
	}

	return
}

func cutQuery(opaque string) (addr, rawQuery string, found bool) {
	for i := 0; i < len(opaque); i++ {
		if opaque[i] == '?' {
			return opaque[:i], opaque[i+1:], true
		}
	}
	return opaque, "", false
}

// String returns the textual form, round-tripping through ParseDescriptor.
func (d Descriptor) String() string {
	s := fmt.Sprintf("%s:%s", d.Kind, d.Address)

	query := url.Values{}
	if d.Bitrate != 0 {
		query.Set("bitrate", strconv.Itoa(d.Bitrate))
	}
	if d.Timeout != 0 {
		query.Set("timeout", d.Timeout.String())
	}
	if d.ReceiveOwnMessages {
		query.Set("receive-own", "true")
	}
	if len(query) != 0 {
		s += "?" + query.Encode()
	}

	return s
}

// EffectiveBitrate returns Bitrate or the default for a zero value.
func (d Descriptor) EffectiveBitrate() int {
	if d.Bitrate == 0 {
		return DefaultBitrate
	}
	return d.Bitrate
}

// EffectiveTimeout returns Timeout or the default for a zero value.
func (d Descriptor) EffectiveTimeout() time.Duration {
	if d.Timeout == 0 {
		return DefaultTimeout
	}
	return d.Timeout
}
