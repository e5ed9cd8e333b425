// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build !linux

package discover

// Interfaces returns a fresh enumeration of the attached CAN adapters.
// Native CAN interfaces only exist on Linux; elsewhere the enumeration is
// always empty.
func Interfaces() ([]Adapter, error) {
	return nil, nil
}
