package coords

import (
	"math"
	"strings"
	"testing"
)

func TestParseDecimal(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{"comma separated", "40.1106, -88.2073", 40.1106, -88.2073, false},
		{"space separated", "40.1106 -88.2073", 40.1106, -88.2073, false},
		{"southern hemisphere", "-33.8688, 151.2093", -33.8688, 151.2093, false},
		{"integers", "40, -88", 40, -88, false},
		{"latitude out of range", "91.0, 0", 0, 0, true},
		{"longitude out of range", "0, 181.0", 0, 0, true},
		{"not a coordinate", "Main Street 12", 0, 0, true},
		{"empty", "", 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseDecimal(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDecimal(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if result.Format != FormatDecimal {
				t.Errorf("format = %v, want decimal", result.Format)
			}
			if result.Location.Latitude != tt.lat || result.Location.Longitude != tt.lon {
				t.Errorf("got (%f, %f), want (%f, %f)",
					result.Location.Latitude, result.Location.Longitude, tt.lat, tt.lon)
			}
		})
	}
}

func TestParseDMS(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		lat     float64
		lon     float64
		wantErr bool
	}{
		{"symbols", `40°06'38"N 88°12'26"W`, 40.110556, -88.207222, false},
		{"letters", "40d06m38sN 88d12m26sW", 40.110556, -88.207222, false},
		{"spaces", "40 06 38 N 88 12 26 W", 40.110556, -88.207222, false},
		{"southern eastern", `33°52'08"S 151°12'33"E`, -33.868889, 151.209167, false},
		{"minutes too large", `40°66'38"N 88°12'26"W`, 0, 0, true},
		{"missing direction", `40°06'38" 88°12'26"`, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ParseDMS(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDMS(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if math.Abs(result.Location.Latitude-tt.lat) > 1e-4 {
				t.Errorf("latitude = %f, want %f", result.Location.Latitude, tt.lat)
			}
			if math.Abs(result.Location.Longitude-tt.lon) > 1e-4 {
				t.Errorf("longitude = %f, want %f", result.Location.Longitude, tt.lon)
			}
		})
	}
}

func TestParseMGRS(t *testing.T) {
	// Central Park, New York.
	result, err := ParseMGRS("18TWL8359906499")
	if err != nil {
		t.Fatalf("ParseMGRS unexpected error: %v", err)
	}
	if result.Format != FormatMGRS {
		t.Errorf("format = %v, want mgrs", result.Format)
	}
	if math.Abs(result.Location.Latitude-40.78) > 0.05 {
		t.Errorf("latitude = %f, want ~40.78", result.Location.Latitude)
	}
	if math.Abs(result.Location.Longitude-(-73.96)) > 0.05 {
		t.Errorf("longitude = %f, want ~-73.96", result.Location.Longitude)
	}

	if _, err := ParseMGRS("not mgrs"); err == nil {
		t.Error("expected error for invalid MGRS input")
	}
}

func TestParseAutoDetect(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Format
	}{
		{"decimal", "40.1106, -88.2073", FormatDecimal},
		{"dms", `40°06'38"N 88°12'26"W`, FormatDMS},
		{"mgrs", "18TWL8359906499", FormatMGRS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if result.Format != tt.want {
				t.Errorf("Parse(%q) format = %v, want %v", tt.input, result.Format, tt.want)
			}
		})
	}

	if _, err := Parse("1600 Pennsylvania Avenue"); err == nil {
		t.Error("expected error for street address input")
	}
}

func TestIsCoordinate(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"40.1106, -88.2073", true},
		{`40°06'38"N 88°12'26"W`, true},
		{"18TWL8359906499", true},
		{"Urbana, Illinois", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsCoordinate(tt.input); got != tt.want {
			t.Errorf("IsCoordinate(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestToMGRSRoundTrip(t *testing.T) {
	const lat, lon = 40.1106, -88.2073

	encoded, err := ToMGRS(lat, lon, 5)
	if err != nil {
		t.Fatalf("ToMGRS unexpected error: %v", err)
	}
	if !strings.HasPrefix(encoded, "16T") {
		t.Errorf("ToMGRS(%f, %f) = %q, want zone 16T prefix", lat, lon, encoded)
	}

	back, err := ParseMGRS(encoded)
	if err != nil {
		t.Fatalf("ParseMGRS(%q) unexpected error: %v", encoded, err)
	}
	if math.Abs(back.Location.Latitude-lat) > 0.001 {
		t.Errorf("round trip latitude = %f, want %f", back.Location.Latitude, lat)
	}
	if math.Abs(back.Location.Longitude-lon) > 0.001 {
		t.Errorf("round trip longitude = %f, want %f", back.Location.Longitude, lon)
	}

	if _, err := ToMGRS(95, 0, 5); err == nil {
		t.Error("expected error for out-of-range latitude")
	}
}
