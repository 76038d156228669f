package core

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/carbonsense/commutemcp/pkg/geo"
)

// ValidationError represents a validation error for coordinates or other values
type ValidationError struct {
	Code     string
	Message  string
	Guidance string
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	if e.Guidance != "" {
		return fmt.Sprintf("%s: %s. %s", e.Code, e.Message, e.Guidance)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ValidateCoords checks if latitude and longitude are within valid ranges
func ValidateCoords(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return ValidationError{
			Code:     string(ErrInvalidLatitude),
			Message:  fmt.Sprintf("Latitude must be between -90 and 90, got %f", lat),
			Guidance: "Ensure latitude is in decimal degrees",
		}
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return ValidationError{
			Code:     string(ErrInvalidLongitude),
			Message:  fmt.Sprintf("Longitude must be between -180 and 180, got %f", lon),
			Guidance: "Ensure longitude is in decimal degrees",
		}
	}
	return nil
}

// ParseCoords extracts and validates latitude and longitude from a CallToolRequest.
// It allows specifying alternative key names for latitude and longitude.
func ParseCoords(req mcp.CallToolRequest, latKey, lonKey string) (float64, float64, error) {
	if latKey == "" {
		latKey = "latitude"
	}
	if lonKey == "" {
		lonKey = "longitude"
	}

	lat := mcp.ParseFloat64(req, latKey, 0)
	lon := mcp.ParseFloat64(req, lonKey, 0)

	if err := ValidateCoords(lat, lon); err != nil {
		return 0, 0, err
	}

	return lat, lon, nil
}

// ParseCoordsWithLog parses coordinates and logs any errors
func ParseCoordsWithLog(req mcp.CallToolRequest, logger *slog.Logger, latKey, lonKey string) (float64, float64, error) {
	lat, lon, err := ParseCoords(req, latKey, lonKey)
	if err != nil {
		logger.Error("invalid coordinates", "error", err)
	}
	return lat, lon, err
}

// ParsePositiveFloat extracts a float parameter that must be positive and
// finite, such as a fuel-efficiency figure.
func ParsePositiveFloat(req mcp.CallToolRequest, key string) (float64, error) {
	value := mcp.ParseFloat64(req, key, 0)
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return 0, ValidationError{
			Code:     string(ErrInvalidValue),
			Message:  fmt.Sprintf("%s must be a positive finite number, got %f", key, value),
			Guidance: "Specify a value greater than 0",
		}
	}
	return value, nil
}

// ParseNonNegativeFloat extracts a float parameter that must be finite and
// not negative, such as a distance or an idle time. Missing parameters
// default to 0.
func ParseNonNegativeFloat(req mcp.CallToolRequest, key string) (float64, error) {
	value := mcp.ParseFloat64(req, key, 0)
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return 0, ValidationError{
			Code:     string(ErrInvalidInput),
			Message:  fmt.Sprintf("%s must be a non-negative finite number, got %f", key, value),
			Guidance: "Specify a value of 0 or greater",
		}
	}
	return value, nil
}

// LocationFromCoords builds a geo.Location after validation.
func LocationFromCoords(lat, lon float64) (geo.Location, error) {
	if err := ValidateCoords(lat, lon); err != nil {
		return geo.Location{}, err
	}
	return geo.Location{Latitude: lat, Longitude: lon}, nil
}
