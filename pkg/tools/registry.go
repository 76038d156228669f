// Package tools provides the commute estimation MCP tool implementations.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/carbonsense/commutemcp/pkg/monitoring"
	"github.com/carbonsense/commutemcp/pkg/tracing"
)

// Registry contains all tool definitions and handlers
type Registry struct {
	logger *slog.Logger
}

// NewRegistry creates a new tool registry
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger,
	}
}

// ToolDefinition represents a commute estimation MCP tool definition.
type ToolDefinition struct {
	Name        string
	Description string
	Tool        mcp.Tool
	Handler     func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// GetToolDefinitions returns the list of all available tools.
func (r *Registry) GetToolDefinitions() []ToolDefinition {
	defs := []ToolDefinition{
		// Version and capability tools
		{
			Name:        "get_version",
			Description: "Get the version information for this commute estimation MCP",
			Tool:        GetVersionTool(),
			Handler:     HandleGetVersion,
		},

		// Geocoding tools
		{
			Name:        "geocode_address",
			Description: "Convert an address, place name, or coordinate string (decimal, DMS, MGRS) to lat/lon",
			Tool:        GeocodeAddressTool(),
			Handler:     HandleGeocodeAddress,
		},
		{
			Name:        "reverse_geocode",
			Description: "Convert geographic coordinates to a street address. Parameters: latitude (number), longitude (number)",
			Tool:        ReverseGeocodeTool(),
			Handler:     HandleReverseGeocode,
		},

		// Routing tools
		{
			Name:        "route_fetch",
			Description: "Fetch a route between two points. Parameters: start (object with latitude/longitude), end (object with latitude/longitude), mode (string: car, bike, foot)",
			Tool:        RouteFetchTool(),
			Handler:     HandleRouteFetch,
		},

		// Emissions tools
		{
			Name:        "convert_fuel_efficiency",
			Description: "Convert a fuel efficiency figure between units. Parameters: value (number), unit (string), target_unit (string, optional)",
			Tool:        ConvertFuelEfficiencyTool(),
			Handler:     HandleConvertFuelEfficiency,
		},
		{
			Name:        "estimate_trip_emissions",
			Description: "Estimate CO2 emissions for a commute of known distance. Parameters: distance_km (number), efficiency_value (number), efficiency_unit (string), commute_days (number, optional)",
			Tool:        EstimateTripEmissionsTool(),
			Handler:     HandleEstimateTripEmissions,
		},
		{
			Name:        "estimate_commute",
			Description: "Estimate commute CO2 emissions between home and work addresses. Parameters: home (string), work (string), efficiency_value (number), efficiency_unit (string), commute_days (number) or days (array)",
			Tool:        EstimateCommuteTool(),
			Handler:     HandleEstimateCommute,
		},
	}

	return defs
}

// RegisterTools registers all tools with the MCP server.
func (r *Registry) RegisterTools(mcpServer *server.MCPServer) {
	for _, def := range r.GetToolDefinitions() {
		r.logger.Info("registering tool", "name", def.Name)
		// Wrap handler with tracing and metrics
		tracedHandler := r.wrapWithTracing(def.Name, def.Handler)
		mcpServer.AddTool(def.Tool, tracedHandler)
	}
}

// wrapWithTracing wraps a tool handler with OpenTelemetry tracing and
// Prometheus request metrics.
func (r *Registry) wrapWithTracing(toolName string, handler func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)) func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		// Start span
		spanName := fmt.Sprintf("mcp.tool.%s", toolName)
		ctx, span := tracing.StartSpan(ctx, spanName,
			trace.WithAttributes(
				attribute.String(tracing.AttrMCPToolName, toolName),
			),
		)
		defer span.End()

		// Record start time
		startTime := time.Now()

		// Execute handler
		result, err := handler(ctx, req)

		// Calculate duration
		duration := time.Since(startTime)
		durationMs := duration.Milliseconds()

		// Determine status. Tool-level failures come back as error results,
		// not Go errors, and count as errors for metrics purposes.
		success := err == nil && (result == nil || !result.IsError)
		status := tracing.StatusSuccess
		if err != nil {
			status = tracing.StatusError
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			if !success {
				status = tracing.StatusError
			}
			span.SetStatus(codes.Ok, "")
		}

		monitoring.RecordMCPRequest(toolName, duration, success)

		// Calculate result size
		resultSize := 0
		if result != nil && result.Content != nil {
			if data, marshalErr := json.Marshal(result.Content); marshalErr == nil {
				resultSize = len(data)
			}
		}

		// Set final attributes
		span.SetAttributes(
			attribute.String(tracing.AttrMCPToolStatus, status),
			attribute.Int64(tracing.AttrMCPToolDuration, durationMs),
			attribute.Int(tracing.AttrMCPResultSize, resultSize),
		)

		// Log for debugging
		r.logger.Debug("tool execution traced",
			"tool", toolName,
			"duration_ms", durationMs,
			"status", status,
			"result_size", resultSize,
		)

		return result, err
	}
}

// GetToolNames returns a list of all tool names.
func (r *Registry) GetToolNames() []string {
	defs := r.GetToolDefinitions()
	names := make([]string, len(defs))
	for i, def := range defs {
		names[i] = def.Name
	}
	return names
}

// RegisterAll registers all tools with the MCP server.
func (r *Registry) RegisterAll(mcpServer *server.MCPServer) {
	r.RegisterTools(mcpServer)
}
