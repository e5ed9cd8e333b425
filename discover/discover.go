// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package discover enumerates CAN adapters attached to the local machine:
// native CAN network interfaces and serial bridge device nodes.
//
// Enumeration is an explicit query returning a fresh list each time;
// nothing is cached, so unplugged devices never linger. Watch additionally
// reports hotplug events for serial bridges.
package discover

import (
	"strings"

	"github.com/canlink/canlink-go/transport"
)

// Adapter is one discovered device, ready to be dialed through its
// Descriptor.
type Adapter struct {
	Kind    transport.Kind
	Name    string
	Address string
}

// Descriptor returns a Descriptor reaching this Adapter, with all options
// left at their defaults.
func (a Adapter) Descriptor() transport.Descriptor {
	return transport.Descriptor{Kind: a.Kind, Address: a.Address}
}

func (a Adapter) String() string {
	return string(a.Kind) + ":" + a.Address
}

// serialCandidate reports whether a /dev entry looks like a serial bridge
// device node.
func serialCandidate(name string) bool {
	return strings.HasPrefix(name, "ttyUSB") || strings.HasPrefix(name, "ttyACM")
}
