// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build linux

package discover

import (
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/canlink/canlink-go/transport"
)

const (
	sysClassNet = "/sys/class/net"
	devDir      = "/dev"

	// arphrdCAN is the ARPHRD_CAN hardware type of a CAN network
	// interface, found in /sys/class/net/<iface>/type.
	arphrdCAN = 280
)

// Interfaces returns a fresh enumeration of the attached CAN adapters,
// native interfaces first.
func Interfaces() ([]Adapter, error) {
	var adapters []Adapter

	entries, err := os.ReadDir(sysClassNet)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	for _, entry := range entries {
		if !isCanInterface(entry.Name()) {
			continue
		}
		adapters = append(adapters, Adapter{
			Kind:    transport.Native,
			Name:    entry.Name(),
			Address: entry.Name(),
		})
	}

	devs, err := os.ReadDir(devDir)
	if err != nil {
		return adapters, err
	}
	for _, entry := range devs {
		if !serialCandidate(entry.Name()) {
			continue
		}
		adapters = append(adapters, Adapter{
			Kind:    transport.Serial,
			Name:    entry.Name(),
			Address: path.Join(devDir, entry.Name()),
		})
	}

	return adapters, nil
}

func isCanInterface(name string) bool {
	raw, err := os.ReadFile(path.Join(sysClassNet, name, "type"))
	if err != nil {
		return false
	}

	hwType, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	return err == nil && hwType == arphrdCAN
}
