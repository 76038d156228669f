// Package coords parses coordinate strings in common formats.
//
// Commute endpoints may arrive as street addresses or as raw coordinates.
// This package detects and converts the coordinate formats to decimal
// degrees (WGS84) so callers can skip the geocoder when the input is
// already a position.
//
// Supported formats:
//   - Decimal degrees: "40.1106, -88.2073"
//   - DMS: "40°06'38"N 88°12'26"W"
//   - MGRS: "16TBK9745239051"
package coords

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/akhenakh/mgrs"
	"github.com/carbonsense/commutemcp/pkg/geo"
)

// Format identifies a coordinate input format.
type Format int

const (
	FormatUnknown Format = iota
	FormatDecimal
	FormatDMS
	FormatMGRS
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatDecimal:
		return "decimal"
	case FormatDMS:
		return "dms"
	case FormatMGRS:
		return "mgrs"
	default:
		return "unknown"
	}
}

// ParseResult holds a parsed coordinate with its detected format.
type ParseResult struct {
	Location geo.Location
	Format   Format
	Original string
}

var (
	// Grid zone (1-60 plus latitude band, I and O excluded), 100km square
	// ID, then an even-length digit group.
	mgrsRegex = regexp.MustCompile(`(?i)^(\d{1,2})([C-HJ-NP-X])([A-HJ-NP-Z]{2})(\d{2,10})$`)

	// Degrees, minutes, seconds with hemisphere letters. Accepts symbol,
	// letter, and bare whitespace separators.
	dmsRegex = regexp.MustCompile(`(?i)^(-?\d+)[°d\s]+(\d+)[′'m\s]+(\d+(?:\.\d+)?)[″"s]?\s*([NS])[\s,]+(-?\d+)[°d\s]+(\d+)[′'m\s]+(\d+(?:\.\d+)?)[″"s]?\s*([EW])$`)

	decimalRegex = regexp.MustCompile(`^(-?\d+\.?\d*)[,\s]+(-?\d+\.?\d*)$`)
)

// Parse detects the coordinate format of input and converts it to decimal
// degrees. It returns an error if no supported format matches.
func Parse(input string) (*ParseResult, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, fmt.Errorf("empty coordinate string")
	}

	// Most specific pattern first.
	if result, err := ParseMGRS(input); err == nil {
		return result, nil
	}
	if result, err := ParseDMS(input); err == nil {
		return result, nil
	}
	if result, err := ParseDecimal(input); err == nil {
		return result, nil
	}

	return nil, fmt.Errorf("unrecognized coordinate format: %q", input)
}

// IsCoordinate reports whether input looks like a coordinate in any
// supported format, without performing a full conversion.
func IsCoordinate(input string) bool {
	return DetectFormat(input) != FormatUnknown
}

// DetectFormat returns the coordinate format the input matches.
func DetectFormat(input string) Format {
	input = strings.TrimSpace(input)
	switch {
	case input == "":
		return FormatUnknown
	case mgrsRegex.MatchString(input):
		return FormatMGRS
	case dmsRegex.MatchString(input):
		return FormatDMS
	case decimalRegex.MatchString(input):
		return FormatDecimal
	default:
		return FormatUnknown
	}
}

// ParseMGRS parses a Military Grid Reference System string such as
// "16TBK9745239051". Digit count sets precision, from 1km down to 1m.
func ParseMGRS(input string) (*ParseResult, error) {
	input = strings.TrimSpace(strings.ToUpper(input))

	if !mgrsRegex.MatchString(input) {
		return nil, fmt.Errorf("invalid MGRS format: %q", input)
	}

	lat, lon, err := mgrs.MGRSToLatLng(input)
	if err != nil {
		return nil, fmt.Errorf("MGRS conversion failed: %w", err)
	}
	if err := geo.ValidateCoords(lat, lon); err != nil {
		return nil, fmt.Errorf("MGRS conversion produced invalid coordinates: %w", err)
	}

	return &ParseResult{
		Location: geo.Location{Latitude: lat, Longitude: lon},
		Format:   FormatMGRS,
		Original: input,
	}, nil
}

// ParseDMS parses a degrees-minutes-seconds string such as
// `40°06'38"N 88°12'26"W` or "40 06 38 N 88 12 26 W".
func ParseDMS(input string) (*ParseResult, error) {
	input = strings.TrimSpace(input)

	matches := dmsRegex.FindStringSubmatch(input)
	if matches == nil {
		return nil, fmt.Errorf("invalid DMS format: %q", input)
	}

	latDeg, _ := strconv.ParseFloat(matches[1], 64)
	latMin, _ := strconv.ParseFloat(matches[2], 64)
	latSec, _ := strconv.ParseFloat(matches[3], 64)
	latDir := strings.ToUpper(matches[4])

	lonDeg, _ := strconv.ParseFloat(matches[5], 64)
	lonMin, _ := strconv.ParseFloat(matches[6], 64)
	lonSec, _ := strconv.ParseFloat(matches[7], 64)
	lonDir := strings.ToUpper(matches[8])

	if latDeg > 90 || latMin >= 60 || latSec >= 60 {
		return nil, fmt.Errorf("invalid latitude values: %s", input)
	}
	if lonDeg > 180 || lonMin >= 60 || lonSec >= 60 {
		return nil, fmt.Errorf("invalid longitude values: %s", input)
	}

	lat := latDeg + latMin/60 + latSec/3600
	lon := lonDeg + lonMin/60 + lonSec/3600
	if latDir == "S" {
		lat = -lat
	}
	if lonDir == "W" {
		lon = -lon
	}

	return &ParseResult{
		Location: geo.Location{Latitude: lat, Longitude: lon},
		Format:   FormatDMS,
		Original: input,
	}, nil
}

// ParseDecimal parses a decimal degrees pair such as "40.1106, -88.2073".
func ParseDecimal(input string) (*ParseResult, error) {
	input = strings.TrimSpace(input)

	matches := decimalRegex.FindStringSubmatch(input)
	if matches == nil {
		return nil, fmt.Errorf("invalid decimal format: %q", input)
	}

	lat, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid latitude: %s", matches[1])
	}
	lon, err := strconv.ParseFloat(matches[2], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid longitude: %s", matches[2])
	}
	if err := geo.ValidateCoords(lat, lon); err != nil {
		return nil, err
	}

	return &ParseResult{
		Location: geo.Location{Latitude: lat, Longitude: lon},
		Format:   FormatDecimal,
		Original: input,
	}, nil
}

// ToMGRS converts decimal degrees to an MGRS string. Precision 1 through 5
// selects 10km down to 1m resolution.
func ToMGRS(lat, lon float64, precision int) (string, error) {
	if precision < 1 || precision > 5 {
		precision = 5
	}
	if err := geo.ValidateCoords(lat, lon); err != nil {
		return "", err
	}

	result, err := mgrs.LatLngToMGRS(lat, lon, precision)
	if err != nil {
		return "", fmt.Errorf("MGRS conversion failed: %w", err)
	}
	return result, nil
}
