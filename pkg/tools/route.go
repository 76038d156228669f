package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/carbonsense/commutemcp/pkg/core"
	"github.com/carbonsense/commutemcp/pkg/geo"
)

// RouteFetchInput defines the input parameters for fetching a route
type RouteFetchInput struct {
	Start geo.Location `json:"start"`
	End   geo.Location `json:"end"`
	Mode  string       `json:"mode"`
}

// RouteFetchOutput defines the output for a fetched route
type RouteFetchOutput struct {
	Distance float64 `json:"distance"` // in meters
	Duration float64 `json:"duration"` // in seconds
	Summary  string  `json:"summary,omitempty"`
}

// RouteFetchTool returns a tool definition for fetching routes
func RouteFetchTool() mcp.Tool {
	return mcp.NewTool("route_fetch",
		mcp.WithDescription("Fetch a route between two points using OSRM routing service"),
		mcp.WithObject("start",
			mcp.Required(),
			mcp.Description("The starting point as {latitude, longitude}"),
		),
		mcp.WithObject("end",
			mcp.Required(),
			mcp.Description("The ending point as {latitude, longitude}"),
		),
		mcp.WithString("mode",
			mcp.Description("Travel mode (car, bike, foot)"),
			mcp.DefaultString("car"),
		),
	)
}

// convertModeToProfile maps user-friendly travel modes to OSRM profile names
func convertModeToProfile(mode string) string {
	switch mode {
	case "", "car", "driving", "drive":
		return "car"
	case "bike", "bicycle", "cycling":
		return "bike"
	case "foot", "walk", "walking":
		return "foot"
	default:
		return ""
	}
}

// HandleRouteFetch implements route fetching functionality
func HandleRouteFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "route_fetch")

	input, errResult, err := InputParser[RouteFetchInput](req)
	if err != nil {
		logger.Error("failed to parse input", "error", err)
		return errResult, nil
	}

	if err := core.ValidateCoords(input.Start.Latitude, input.Start.Longitude); err != nil {
		logger.Error("invalid 'start' coordinates", "error", err)
		return core.NewError(core.ErrInvalidInput, fmt.Sprintf("Invalid start coordinates: %s", err)).ToMCPResult(), nil
	}

	if err := core.ValidateCoords(input.End.Latitude, input.End.Longitude); err != nil {
		logger.Error("invalid 'end' coordinates", "error", err)
		return core.NewError(core.ErrInvalidInput, fmt.Sprintf("Invalid end coordinates: %s", err)).ToMCPResult(), nil
	}

	profile := convertModeToProfile(input.Mode)
	if profile == "" {
		logger.Error("invalid mode", "mode", input.Mode)
		return core.NewError(core.ErrInvalidParameter, fmt.Sprintf("Invalid mode: %s", input.Mode)).
			WithGuidance("Use 'car', 'bike', or 'foot'").
			ToMCPResult(), nil
	}

	route, err := core.GetSimpleRoute(ctx, input.Start, input.End, profile)
	if err != nil {
		logger.Error("failed to get route", "error", err)
		if mcpErr, ok := err.(*core.MCPError); ok {
			return mcpErr.ToMCPResult(), nil
		}
		return core.ServiceError("OSRM", http.StatusServiceUnavailable, "Failed to get route").
			WithGuidance(GuidanceOSRMRouteNotFound).
			ToMCPResult(), nil
	}

	output := RouteFetchOutput{
		Distance: route.Distance,
		Duration: route.Duration,
		Summary:  route.Summary,
	}

	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return core.NewError(core.ErrInternalError, "Failed to generate result").ToMCPResult(), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}
