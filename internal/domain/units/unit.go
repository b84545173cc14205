package units

import (
	"errors"
	"strings"
)

var ErrUnknownUnit = errors.New("units: unknown unit")

// Unit identifies one of the rental apartments tracked by the ledger.
type Unit string

const (
	Safira Unit = "Safira"
	Destan Unit = "Destan"
)

var all = []Unit{Safira, Destan}

// All returns the closed set of units in display order.
func All() []Unit {
	return append([]Unit(nil), all...)
}

// Parse maps a raw identifier onto a known unit, ignoring case and surrounding space.
func Parse(raw string) (Unit, error) {
	trimmed := strings.TrimSpace(raw)
	for _, u := range all {
		if strings.EqualFold(trimmed, string(u)) {
			return u, nil
		}
	}
	return "", ErrUnknownUnit
}

// Valid reports whether u is exactly one of the known units.
func (u Unit) Valid() bool {
	for _, known := range all {
		if u == known {
			return true
		}
	}
	return false
}

func (u Unit) String() string { return string(u) }
