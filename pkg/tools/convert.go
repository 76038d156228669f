package tools

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/carbonsense/commutemcp/pkg/core"
	"github.com/carbonsense/commutemcp/pkg/units"
)

// ConvertFuelEfficiencyOutput is the result of a unit conversion.
type ConvertFuelEfficiencyOutput struct {
	Value       float64 `json:"value"`
	Unit        string  `json:"unit"`
	LitersPerKm float64 `json:"liters_per_km"`
	TargetValue float64 `json:"target_value,omitempty"`
	TargetUnit  string  `json:"target_unit,omitempty"`
}

// ConvertFuelEfficiencyTool returns a tool definition for converting fuel
// efficiency figures between units.
func ConvertFuelEfficiencyTool() mcp.Tool {
	return mcp.NewTool("convert_fuel_efficiency",
		mcp.WithDescription("Convert a fuel efficiency figure to canonical liters per kilometer, and optionally to another unit. Supported units: "+strings.Join(units.SupportedUnits(), ", ")),
		mcp.WithNumber("value",
			mcp.Required(),
			mcp.Description("The fuel efficiency value to convert"),
		),
		mcp.WithString("unit",
			mcp.Required(),
			mcp.Description("The unit of the input value, e.g. 'miles-per-gallon-US'"),
		),
		mcp.WithString("target_unit",
			mcp.Description("Optional unit to convert the value into"),
		),
	)
}

// unitError maps a units package error to a structured MCP error result.
func unitError(err error, tag string) *mcp.CallToolResult {
	if errors.Is(err, units.ErrInvalidUnit) {
		return core.NewError(core.ErrInvalidUnit, err.Error()).
			WithQuery(tag).
			WithSuggestions(units.SupportedUnits()...).
			ToMCPResult()
	}
	if errors.Is(err, units.ErrInvalidValue) {
		return core.NewError(core.ErrInvalidValue, err.Error()).
			WithGuidance("Fuel efficiency values must be positive and finite").
			ToMCPResult()
	}
	return core.NewError(core.ErrInvalidInput, err.Error()).ToMCPResult()
}

// HandleConvertFuelEfficiency implements fuel efficiency unit conversion
func HandleConvertFuelEfficiency(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "convert_fuel_efficiency")

	value := mcp.ParseFloat64(req, "value", 0)
	unitTag := mcp.ParseString(req, "unit", "")
	targetTag := mcp.ParseString(req, "target_unit", "")

	unit, err := units.ParseUnit(unitTag)
	if err != nil {
		logger.Error("invalid unit", "unit", unitTag, "error", err)
		return unitError(err, unitTag), nil
	}

	litersPerKm, err := units.ToCanonical(value, unit)
	if err != nil {
		logger.Error("conversion failed", "value", value, "unit", unitTag, "error", err)
		return unitError(err, unitTag), nil
	}

	output := ConvertFuelEfficiencyOutput{
		Value:       value,
		Unit:        unit.String(),
		LitersPerKm: litersPerKm,
	}

	if targetTag != "" {
		target, err := units.ParseUnit(targetTag)
		if err != nil {
			logger.Error("invalid target unit", "unit", targetTag, "error", err)
			return unitError(err, targetTag), nil
		}
		targetValue, err := units.FromCanonical(litersPerKm, target)
		if err != nil {
			logger.Error("target conversion failed", "unit", targetTag, "error", err)
			return unitError(err, targetTag), nil
		}
		output.TargetValue = targetValue
		output.TargetUnit = target.String()
	}

	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return core.NewError(core.ErrInternalError, "Failed to generate result").ToMCPResult(), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}
