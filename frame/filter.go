// SPDX-FileCopyrightText: 2026 The canlink authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package frame

import "fmt"

// Filter is a mask/pattern rule over CAN identifiers. A Frame matches when
// its identifier, masked by Mask, equals the masked Pattern.
type Filter struct {
	Mask    uint32
	Pattern uint32
}

// Match reports whether the Frame's identifier satisfies this Filter.
func (flt Filter) Match(f Frame) bool {
	return f.ID&flt.Mask == flt.Pattern&flt.Mask
}

func (flt Filter) String() string {
	return fmt.Sprintf("filter %X/%X", flt.Pattern, flt.Mask)
}

// Exact creates a Filter matching exactly one identifier.
func Exact(id uint32) Filter {
	mask := MaxStandardID
	if id > MaxStandardID {
		mask = MaxExtendedID
	}
	return Filter{Mask: mask, Pattern: id}
}

// All creates a Filter matching every Frame.
func All() Filter {
	return Filter{}
}

// MatchAny reports whether any of the Filters matches the Frame. Listeners
// treat their Filter set as such a union. An empty set matches nothing.
func MatchAny(filters []Filter, f Frame) bool {
	for _, flt := range filters {
		if flt.Match(f) {
			return true
		}
	}
	return false
}
