package units

import (
	"errors"
	"math"
	"testing"
)

func TestParseUnit(t *testing.T) {
	tests := []struct {
		name    string
		tag     string
		want    Unit
		wantErr bool
	}{
		{"mpg US canonical", "miles-per-gallon-US", UnitMPGUS, false},
		{"mpg US short", "mpg-us", UnitMPGUS, false},
		{"mpg US label", "mpg (US)", UnitMPGUS, false},
		{"mpg imperial canonical", "miles-per-gallon-UK", UnitMPGImperial, false},
		{"mpg imperial label", "mpg (imp)", UnitMPGImperial, false},
		{"liters per 100km", "liters-per-100km", UnitLitersPer100Km, false},
		{"liters per 100km label", "L/100 km", UnitLitersPer100Km, false},
		{"km per liter", "km-per-liter", UnitKmPerLiter, false},
		{"km per liter label", "km/L", UnitKmPerLiter, false},
		{"empty", "", UnitUnknown, true},
		{"unknown tag", "furlongs-per-firkin", UnitUnknown, true},
		{"wrong case", "MILES-PER-GALLON-US", UnitUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseUnit(tt.tag)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseUnit(%q) error = %v, wantErr %v", tt.tag, err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidUnit) {
					t.Errorf("ParseUnit(%q) error = %v, want ErrInvalidUnit", tt.tag, err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseUnit(%q) = %v, want %v", tt.tag, got, tt.want)
			}
		})
	}
}

func TestToCanonical(t *testing.T) {
	tests := []struct {
		name      string
		value     float64
		unit      Unit
		want      float64
		tolerance float64
	}{
		{"25 mpg US", 25, UnitMPGUS, 0.0941, 1e-3},
		{"30 mpg imperial", 30, UnitMPGImperial, 4.54609 / (30 * 1.609344), 1e-12},
		{"8 liters per 100km", 8, UnitLitersPer100Km, 0.08, 1e-12},
		{"12.5 km per liter", 12.5, UnitKmPerLiter, 0.08, 1e-12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToCanonical(tt.value, tt.unit)
			if err != nil {
				t.Fatalf("ToCanonical(%f, %v) unexpected error: %v", tt.value, tt.unit, err)
			}
			if math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("ToCanonical(%f, %v) = %f, want %f (tolerance %g)",
					tt.value, tt.unit, got, tt.want, tt.tolerance)
			}
		})
	}
}

func TestToCanonicalInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		value float64
	}{
		{"zero", 0},
		{"negative", -25},
		{"NaN", math.NaN()},
		{"positive infinity", math.Inf(1)},
		{"negative infinity", math.Inf(-1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToCanonical(tt.value, UnitMPGUS)
			if !errors.Is(err, ErrInvalidValue) {
				t.Errorf("ToCanonical(%f) error = %v, want ErrInvalidValue", tt.value, err)
			}
		})
	}
}

func TestToCanonicalUnknownUnit(t *testing.T) {
	if _, err := ToCanonical(25, UnitUnknown); !errors.Is(err, ErrInvalidUnit) {
		t.Errorf("ToCanonical with unknown unit error = %v, want ErrInvalidUnit", err)
	}
	if _, err := FromCanonical(0.08, Unit(99)); !errors.Is(err, ErrInvalidUnit) {
		t.Errorf("FromCanonical with unknown unit error = %v, want ErrInvalidUnit", err)
	}
}

func TestRoundTripConversions(t *testing.T) {
	const tolerance = 1e-9

	units := []Unit{UnitMPGUS, UnitMPGImperial, UnitLitersPer100Km, UnitKmPerLiter}
	values := []float64{1, 8, 12.5, 25, 30, 55.3, 120}

	for _, unit := range units {
		for _, value := range values {
			canonical, err := ToCanonical(value, unit)
			if err != nil {
				t.Fatalf("ToCanonical(%f, %v) unexpected error: %v", value, unit, err)
			}
			back, err := FromCanonical(canonical, unit)
			if err != nil {
				t.Fatalf("FromCanonical(%f, %v) unexpected error: %v", canonical, unit, err)
			}
			if math.Abs(back-value) > value*tolerance {
				t.Errorf("round trip %f via %v = %f, want %f", value, unit, back, value)
			}
		}
	}
}

func TestParseIdleUnit(t *testing.T) {
	tests := []struct {
		name    string
		tag     string
		want    IdleUnit
		wantErr bool
	}{
		{"US canonical", "gallons-per-hour-US", IdleUnitGallonsPerHourUS, false},
		{"US label", "gal/hr (US)", IdleUnitGallonsPerHourUS, false},
		{"imperial canonical", "gallons-per-hour-UK", IdleUnitGallonsPerHourImperial, false},
		{"imperial label", "gal/hr (imp)", IdleUnitGallonsPerHourImperial, false},
		{"liters", "liters-per-hour", IdleUnitLitersPerHour, false},
		{"liters label", "L/hr", IdleUnitLitersPerHour, false},
		{"unknown", "barrels-per-day", IdleUnitUnknown, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIdleUnit(tt.tag)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseIdleUnit(%q) error = %v, wantErr %v", tt.tag, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseIdleUnit(%q) = %v, want %v", tt.tag, got, tt.want)
			}
		})
	}
}

func TestIdleToCanonical(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		unit  IdleUnit
		want  float64
	}{
		{"US gallons", 0.5, IdleUnitGallonsPerHourUS, 0.5 * 3.785411784},
		{"imperial gallons", 0.5, IdleUnitGallonsPerHourImperial, 0.5 * 4.54609},
		{"liters passthrough", 1.8, IdleUnitLitersPerHour, 1.8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IdleToCanonical(tt.value, tt.unit)
			if err != nil {
				t.Fatalf("IdleToCanonical(%f, %v) unexpected error: %v", tt.value, tt.unit, err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("IdleToCanonical(%f, %v) = %f, want %f", tt.value, tt.unit, got, tt.want)
			}
		})
	}

	if _, err := IdleToCanonical(-1, IdleUnitLitersPerHour); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("IdleToCanonical(-1) error = %v, want ErrInvalidValue", err)
	}
	if _, err := IdleToCanonical(1, IdleUnitUnknown); !errors.Is(err, ErrInvalidUnit) {
		t.Errorf("IdleToCanonical with unknown unit error = %v, want ErrInvalidUnit", err)
	}
}
