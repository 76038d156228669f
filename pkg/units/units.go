// Package units normalizes international fuel-efficiency figures to a single
// canonical representation.
//
// All fuel-efficiency inputs are converted to liters of fuel consumed per
// kilometer traveled (L/km) before any emissions arithmetic happens. Idling
// fuel consumption is normalized to liters per hour (L/h). The supported
// unit sets are closed enumerations, so adding a unit is a compile-time
// checked change to the conversion tables below.
package units

import (
	"errors"
	"fmt"
	"math"
)

// Conversion constants (exact by definition).
const (
	// LitersPerUSGallon is the volume of one US liquid gallon in liters.
	LitersPerUSGallon = 3.785411784

	// LitersPerImperialGallon is the volume of one imperial gallon in liters.
	LitersPerImperialGallon = 4.54609

	// KilometersPerMile is the length of one international mile in kilometers.
	KilometersPerMile = 1.609344
)

// Sentinel errors returned by the conversion functions.
var (
	// ErrInvalidUnit indicates a unit tag outside the supported set.
	ErrInvalidUnit = errors.New("unsupported unit")

	// ErrInvalidValue indicates a non-positive or non-finite numeric value.
	ErrInvalidValue = errors.New("invalid value")
)

// Unit identifies a supported fuel-efficiency unit.
type Unit int

const (
	UnitUnknown Unit = iota
	UnitMPGUS             // miles per US gallon
	UnitMPGImperial       // miles per imperial gallon
	UnitLitersPer100Km    // liters per 100 kilometers
	UnitKmPerLiter        // kilometers per liter
)

// String returns the wire-level tag for the unit.
func (u Unit) String() string {
	switch u {
	case UnitMPGUS:
		return "miles-per-gallon-US"
	case UnitMPGImperial:
		return "miles-per-gallon-UK"
	case UnitLitersPer100Km:
		return "liters-per-100km"
	case UnitKmPerLiter:
		return "km-per-liter"
	default:
		return "unknown"
	}
}

// ParseUnit maps a wire-level tag to a Unit. It accepts the canonical tags
// plus common short labels ("mpg (US)", "km/L", ...).
func ParseUnit(tag string) (Unit, error) {
	switch tag {
	case "miles-per-gallon-US", "mpg-us", "mpg (US)":
		return UnitMPGUS, nil
	case "miles-per-gallon-UK", "mpg-imperial", "mpg (imp)":
		return UnitMPGImperial, nil
	case "liters-per-100km", "l-per-100km", "L/100 km":
		return UnitLitersPer100Km, nil
	case "km-per-liter", "km-per-l", "km/L":
		return UnitKmPerLiter, nil
	default:
		return UnitUnknown, fmt.Errorf("%w: %q", ErrInvalidUnit, tag)
	}
}

// SupportedUnits returns the wire-level tags of all supported
// fuel-efficiency units.
func SupportedUnits() []string {
	return []string{
		UnitMPGUS.String(),
		UnitMPGImperial.String(),
		UnitLitersPer100Km.String(),
		UnitKmPerLiter.String(),
	}
}

// ToCanonical converts a fuel-efficiency value in the given unit to the
// canonical liters-per-kilometer representation.
func ToCanonical(value float64, unit Unit) (float64, error) {
	if err := validatePositive(value); err != nil {
		return 0, err
	}

	switch unit {
	case UnitMPGUS:
		// value miles per US gallon -> L/km
		return LitersPerUSGallon / (value * KilometersPerMile), nil
	case UnitMPGImperial:
		return LitersPerImperialGallon / (value * KilometersPerMile), nil
	case UnitLitersPer100Km:
		return value / 100, nil
	case UnitKmPerLiter:
		return 1 / value, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidUnit, unit)
	}
}

// FromCanonical converts a canonical liters-per-kilometer value back to the
// given unit. It is the exact inverse of ToCanonical.
func FromCanonical(litersPerKm float64, unit Unit) (float64, error) {
	if err := validatePositive(litersPerKm); err != nil {
		return 0, err
	}

	switch unit {
	case UnitMPGUS:
		return LitersPerUSGallon / (litersPerKm * KilometersPerMile), nil
	case UnitMPGImperial:
		return LitersPerImperialGallon / (litersPerKm * KilometersPerMile), nil
	case UnitLitersPer100Km:
		return litersPerKm * 100, nil
	case UnitKmPerLiter:
		return 1 / litersPerKm, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidUnit, unit)
	}
}

// IdleUnit identifies a supported idling fuel-consumption unit.
type IdleUnit int

const (
	IdleUnitUnknown IdleUnit = iota
	IdleUnitGallonsPerHourUS
	IdleUnitGallonsPerHourImperial
	IdleUnitLitersPerHour
)

// String returns the wire-level tag for the idle unit.
func (u IdleUnit) String() string {
	switch u {
	case IdleUnitGallonsPerHourUS:
		return "gallons-per-hour-US"
	case IdleUnitGallonsPerHourImperial:
		return "gallons-per-hour-UK"
	case IdleUnitLitersPerHour:
		return "liters-per-hour"
	default:
		return "unknown"
	}
}

// ParseIdleUnit maps a wire-level tag to an IdleUnit.
func ParseIdleUnit(tag string) (IdleUnit, error) {
	switch tag {
	case "gallons-per-hour-US", "gal-per-hr-us", "gal/hr (US)":
		return IdleUnitGallonsPerHourUS, nil
	case "gallons-per-hour-UK", "gal-per-hr-imperial", "gal/hr (imp)":
		return IdleUnitGallonsPerHourImperial, nil
	case "liters-per-hour", "l-per-hr", "L/hr":
		return IdleUnitLitersPerHour, nil
	default:
		return IdleUnitUnknown, fmt.Errorf("%w: %q", ErrInvalidUnit, tag)
	}
}

// IdleToCanonical converts an idling consumption value in the given unit to
// canonical liters per hour.
func IdleToCanonical(value float64, unit IdleUnit) (float64, error) {
	if err := validatePositive(value); err != nil {
		return 0, err
	}

	switch unit {
	case IdleUnitGallonsPerHourUS:
		return value * LitersPerUSGallon, nil
	case IdleUnitGallonsPerHourImperial:
		return value * LitersPerImperialGallon, nil
	case IdleUnitLitersPerHour:
		return value, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidUnit, unit)
	}
}

// validatePositive rejects non-positive and non-finite values.
func validatePositive(value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("%w: value must be finite, got %f", ErrInvalidValue, value)
	}
	if value <= 0 {
		return fmt.Errorf("%w: value must be greater than 0, got %f", ErrInvalidValue, value)
	}
	return nil
}
