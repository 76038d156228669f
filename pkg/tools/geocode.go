package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/carbonsense/commutemcp/pkg/coords"
	"github.com/carbonsense/commutemcp/pkg/core"
	"github.com/carbonsense/commutemcp/pkg/geo"
	"github.com/carbonsense/commutemcp/pkg/osm"
)

// GeocodeOutput is the result of resolving an address or coordinate string.
type GeocodeOutput struct {
	DisplayName string       `json:"display_name,omitempty"`
	Location    geo.Location `json:"location"`
	Source      string       `json:"source"` // "nominatim" or the coordinate format
}

// GeocodeAddressTool returns a tool definition for geocoding addresses
func GeocodeAddressTool() mcp.Tool {
	return mcp.NewTool("geocode_address",
		mcp.WithDescription("Convert an address, place name, or coordinate string (decimal, DMS, MGRS) to latitude and longitude"),
		mcp.WithString("address",
			mcp.Required(),
			mcp.Description("The address, place name, or coordinate string to resolve"),
		),
	)
}

// HandleGeocodeAddress implements address geocoding. Coordinate strings are
// parsed locally; everything else goes to Nominatim.
func HandleGeocodeAddress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "geocode_address")

	address := mcp.ParseString(req, "address", "")
	if address == "" {
		return core.NewValidationError(core.ErrEmptyParameter, "Address must not be empty").
			WithGuidance("Provide an address, place name, or coordinate string").
			ToMCPResult(), nil
	}

	place, errResult := resolveLocation(ctx, logger, address)
	if errResult != nil {
		return errResult, nil
	}

	resultBytes, err := json.Marshal(place)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return core.NewError(core.ErrInternalError, "Failed to generate result").ToMCPResult(), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}

// resolveLocation turns an address or coordinate string into a GeocodeOutput.
// On failure it returns a ready-to-send MCP error result.
func resolveLocation(ctx context.Context, logger *slog.Logger, address string) (*GeocodeOutput, *mcp.CallToolResult) {
	// Coordinate strings never touch the network.
	if coords.IsCoordinate(address) {
		parsed, err := coords.Parse(address)
		if err != nil {
			logger.Error("failed to parse coordinate string", "input", address, "error", err)
			return nil, core.NewError(core.ErrInvalidInput, fmt.Sprintf("Could not parse coordinates: %s", err)).
				WithQuery(address).
				WithGuidance("Use decimal degrees (lat, lon), DMS, or MGRS").
				ToMCPResult()
		}
		return &GeocodeOutput{
			Location: parsed.Location,
			Source:   parsed.Format.String(),
		}, nil
	}

	place, err := osm.Geocode(ctx, address)
	if err != nil {
		logger.Error("geocoding failed", "query", address, "error", err)
		if errors.Is(err, osm.ErrNoResults) {
			return nil, core.NewError(core.ErrNoResults, fmt.Sprintf("No results found for %q", address)).
				WithQuery(address).
				WithGuidance(GuidanceNominatimAddressFormat).
				ToMCPResult()
		}
		return nil, core.ServiceError("Nominatim", http.StatusServiceUnavailable, err.Error()).
			ToMCPResult()
	}

	return &GeocodeOutput{
		DisplayName: place.DisplayName,
		Location:    place.Location,
		Source:      "nominatim",
	}, nil
}

// ReverseGeocodeTool returns a tool definition for reverse geocoding
func ReverseGeocodeTool() mcp.Tool {
	return mcp.NewTool("reverse_geocode",
		mcp.WithDescription("Convert geographic coordinates to a street address"),
		mcp.WithNumber("latitude",
			mcp.Required(),
			mcp.Description("The latitude in decimal degrees"),
		),
		mcp.WithNumber("longitude",
			mcp.Required(),
			mcp.Description("The longitude in decimal degrees"),
		),
	)
}

// HandleReverseGeocode implements reverse geocoding functionality
func HandleReverseGeocode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "reverse_geocode")

	lat, lon, err := core.ParseCoordsWithLog(req, logger, "", "")
	if err != nil {
		if ve, ok := err.(core.ValidationError); ok {
			return core.NewError(core.ErrorCode(ve.Code), ve.Message).
				WithGuidance(ve.Guidance).
				ToMCPResult(), nil
		}
		return core.NewError(core.ErrInvalidInput, err.Error()).ToMCPResult(), nil
	}

	place, err := osm.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		logger.Error("reverse geocoding failed", "lat", lat, "lon", lon, "error", err)
		if errors.Is(err, osm.ErrNoResults) {
			return core.NewError(core.ErrNoResults, fmt.Sprintf("No address found at %f, %f", lat, lon)).
				WithGuidance("Try coordinates closer to a mapped road or building").
				ToMCPResult(), nil
		}
		return core.ServiceError("Nominatim", http.StatusServiceUnavailable, err.Error()).
			ToMCPResult(), nil
	}

	resultBytes, err := json.Marshal(place)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return core.NewError(core.ErrInternalError, "Failed to generate result").ToMCPResult(), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}
