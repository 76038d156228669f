// Package tools provides the commute estimation MCP tool implementations.
package tools

import (
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
)

// ErrorResponse returns a plain MCP error result with the given message.
// Handlers use it for failures that carry no structured error payload.
func ErrorResponse(message string) *mcp.CallToolResult {
	return mcp.NewToolResultError(message)
}

// APIError represents an error that occurred while communicating with
// an external API service, with information to help users recover.
type APIError struct {
	Service     string // The API service name (e.g., "Nominatim", "OSRM")
	StatusCode  int    // HTTP status code
	Message     string // Error message
	Recoverable bool   // Whether the error can be recovered from
	Guidance    string // Guidance for users on how to recover
}

// Error implements the error interface and provides a formatted error message.
func (e *APIError) Error() string {
	if e.Guidance != "" {
		return fmt.Sprintf("%s API error (%d): %s. %s", e.Service, e.StatusCode, e.Message, e.Guidance)
	}
	return fmt.Sprintf("%s API error (%d): %s", e.Service, e.StatusCode, e.Message)
}

// Common error guidance messages
const (
	// Nominatim guidance
	GuidanceNominatimAddressFormat = "Try using a more standard address format or provide city and country."
	GuidanceNominatimRateLimit     = "Please try again in a few seconds."
	GuidanceNominatimTimeout       = "Check your internet connection and try again, or use different geocoding parameters."
	GuidanceNominatimGeneral       = "Check your address formatting and try again."

	// OSRM guidance
	GuidanceOSRMRouteNotFound = "No route could be found between the specified points. Try locations with accessible roads."
	GuidanceOSRMRateLimit     = "The routing service is experiencing high load. Please try again in a few seconds."
	GuidanceOSRMTimeout       = "The routing request timed out. Try a shorter route or check your internet connection."
	GuidanceOSRMGeneral       = "Check that your coordinates are accessible by the specified transport mode."

	// Generic guidance
	GuidanceGeneral      = "Please try again later or modify your request parameters."
	GuidanceNetworkError = "Check your internet connection and try again."
	GuidanceDataError    = "The data received was incomplete or malformed. Try different search parameters."
)

// NewAPIError creates a new APIError with appropriate guidance based on status code.
func NewAPIError(service string, statusCode int, message, guidance string) *APIError {
	// Use provided guidance if available, otherwise infer based on status code
	if guidance == "" {
		switch statusCode {
		case http.StatusTooManyRequests:
			guidance = "Rate limit exceeded. Please try again in a few moments."
		case http.StatusRequestTimeout, http.StatusGatewayTimeout:
			guidance = "The request timed out. Please try again later."
		case http.StatusBadRequest:
			guidance = "The request was invalid. Check your parameters and try again."
		case http.StatusInternalServerError:
			guidance = "The server encountered an error. This is likely temporary, please try again later."
		case http.StatusServiceUnavailable:
			guidance = "The service is temporarily unavailable. Please try again later."
		default:
			guidance = GuidanceGeneral
		}
	}

	return &APIError{
		Service:     service,
		StatusCode:  statusCode,
		Message:     message,
		Recoverable: statusCode != http.StatusBadRequest, // Most errors except bad requests are recoverable
		Guidance:    guidance,
	}
}

// ErrorWithGuidance returns a properly formatted error response with user guidance.
func ErrorWithGuidance(err *APIError) *mcp.CallToolResult {
	errorText := fmt.Sprintf("Error: %s\n\nGuidance: %s", err.Message, err.Guidance)
	return mcp.NewToolResultError(errorText)
}

// GetToolUsageExample returns an example JSON snippet for using a specific tool
// This is helpful for providing guidance when parameter validation fails
func GetToolUsageExample(toolName string) string {
	examples := map[string]string{
		"geocode_address": `{
  "address": "Empire State Building, New York"
}`,
		"reverse_geocode": `{
  "latitude": 48.8584,
  "longitude": 2.2945
}`,
		"route_fetch": `{
  "start": {"latitude": 40.7128, "longitude": -74.0060},
  "end": {"latitude": 40.7580, "longitude": -73.9855},
  "mode": "car"
}`,
		"convert_fuel_efficiency": `{
  "value": 25,
  "unit": "miles-per-gallon-US",
  "target_unit": "liters-per-100km"
}`,
		"estimate_trip_emissions": `{
  "distance_km": 10,
  "efficiency_value": 8,
  "efficiency_unit": "liters-per-100km",
  "commute_days": 5
}`,
		"estimate_commute": `{
  "home": "1600 Amphitheatre Parkway, Mountain View",
  "work": "1 Market St, San Francisco",
  "efficiency_value": 25,
  "efficiency_unit": "miles-per-gallon-US",
  "commute_days": 5
}`,
	}

	if example, exists := examples[toolName]; exists {
		return example
	}

	// Generic example if not found
	return `{
  "latitude": 40.7128,
  "longitude": -74.0060
}`
}
