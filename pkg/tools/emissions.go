package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/carbonsense/commutemcp/pkg/core"
	"github.com/carbonsense/commutemcp/pkg/emissions"
	"github.com/carbonsense/commutemcp/pkg/units"
)

// EstimateTripEmissionsOutput is the result of a trip emissions estimate.
type EstimateTripEmissionsOutput struct {
	DistanceKm     float64          `json:"distance_km"`
	FuelRateLPerKm float64          `json:"fuel_rate_l_per_km"`
	FactorKgPerL   float64          `json:"factor_kg_per_l"`
	CommuteDays    int              `json:"commute_days"`
	Emissions      emissions.Result `json:"emissions"`
}

// EstimateTripEmissionsTool returns a tool definition for estimating trip
// CO2 emissions from a known distance. This tool performs no network I/O.
func EstimateTripEmissionsTool() mcp.Tool {
	return mcp.NewTool("estimate_trip_emissions",
		mcp.WithDescription("Estimate CO2 emissions for a commute of known distance. Computes single-trip, round-trip, weekly, monthly, and yearly figures."),
		mcp.WithNumber("distance_km",
			mcp.Required(),
			mcp.Description("One-way trip distance in kilometers"),
		),
		mcp.WithNumber("efficiency_value",
			mcp.Required(),
			mcp.Description("Vehicle fuel efficiency value"),
		),
		mcp.WithString("efficiency_unit",
			mcp.Required(),
			mcp.Description("Unit of the efficiency value: "+strings.Join(units.SupportedUnits(), ", ")),
		),
		mcp.WithNumber("commute_days",
			mcp.Description("Commuting days per week (0-7, default 5)"),
		),
		mcp.WithString("fuel_type",
			mcp.Description("Fuel type: gasoline (default) or diesel"),
		),
		mcp.WithNumber("factor",
			mcp.Description("Custom emissions factor in kg CO2 per liter, overrides fuel_type"),
		),
		mcp.WithNumber("idle_hours",
			mcp.Description("Time spent idling per one-way trip, in hours"),
		),
		mcp.WithNumber("idle_rate_value",
			mcp.Description("Fuel burned while idling"),
		),
		mcp.WithString("idle_rate_unit",
			mcp.Description("Unit of the idle rate: gallons-per-hour-US, gallons-per-hour-UK, or liters-per-hour"),
		),
	)
}

// parseEmissionsParams reads the shared efficiency/factor/idle parameters
// used by the trip and commute estimators. It returns a partially filled
// emissions.Input (without distance) or a ready-to-send error result.
func parseEmissionsParams(req mcp.CallToolRequest, logger *slog.Logger) (emissions.Input, *mcp.CallToolResult) {
	var in emissions.Input

	efficiencyValue := mcp.ParseFloat64(req, "efficiency_value", 0)
	efficiencyUnit := mcp.ParseString(req, "efficiency_unit", "")

	unit, err := units.ParseUnit(efficiencyUnit)
	if err != nil {
		logger.Error("invalid efficiency unit", "unit", efficiencyUnit, "error", err)
		return in, unitError(err, efficiencyUnit)
	}

	in.FuelRateLPerKm, err = units.ToCanonical(efficiencyValue, unit)
	if err != nil {
		logger.Error("invalid efficiency value", "value", efficiencyValue, "error", err)
		return in, unitError(err, efficiencyUnit)
	}

	// Factor precedence: explicit factor, then fuel_type, then the default.
	if factor := mcp.ParseFloat64(req, "factor", 0); factor != 0 {
		in.FactorKgPerLiter = factor
	} else if fuelType := mcp.ParseString(req, "fuel_type", ""); fuelType != "" {
		f, ok := FuelFactor(fuelType)
		if !ok {
			logger.Error("unknown fuel type", "fuel_type", fuelType)
			return in, core.NewError(core.ErrInvalidParameter, fmt.Sprintf("Unknown fuel type: %q", fuelType)).
				WithSuggestions(SupportedFuelTypes()...).
				ToMCPResult()
		}
		in.FactorKgPerLiter = f
	}

	// JSON numbers arrive as float64; a fractional day count is rejected
	// rather than truncated.
	days := mcp.ParseFloat64(req, "commute_days", DefaultCommuteDays)
	if days != math.Trunc(days) {
		logger.Error("fractional commute_days", "commute_days", days)
		return in, core.NewError(core.ErrInvalidParameter, fmt.Sprintf("commute_days must be a whole number, got %v", days)).
			WithGuidance("Specify an integer number of days between 0 and 7").
			ToMCPResult()
	}
	in.CommuteDays = int(days)

	if idleHours := mcp.ParseFloat64(req, "idle_hours", 0); idleHours > 0 {
		idleValue := mcp.ParseFloat64(req, "idle_rate_value", 0)
		idleUnitTag := mcp.ParseString(req, "idle_rate_unit", "liters-per-hour")

		idleUnit, err := units.ParseIdleUnit(idleUnitTag)
		if err != nil {
			logger.Error("invalid idle rate unit", "unit", idleUnitTag, "error", err)
			return in, unitError(err, idleUnitTag)
		}
		idleRate, err := units.IdleToCanonical(idleValue, idleUnit)
		if err != nil {
			logger.Error("invalid idle rate value", "value", idleValue, "error", err)
			return in, unitError(err, idleUnitTag)
		}

		in.IdleHours = idleHours
		in.IdleRateLPerHour = idleRate
	}

	return in, nil
}

// estimateError maps an emissions package error to an MCP error result.
func estimateError(err error) *mcp.CallToolResult {
	if errors.Is(err, emissions.ErrInvalidInput) {
		return core.NewValidationError(core.ErrInvalidInput, err.Error()).ToMCPResult()
	}
	return core.NewError(core.ErrInternalError, err.Error()).ToMCPResult()
}

// HandleEstimateTripEmissions implements the pure emissions estimate
func HandleEstimateTripEmissions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "estimate_trip_emissions")

	distanceKm, err := core.ParseNonNegativeFloat(req, "distance_km")
	if err != nil {
		logger.Error("invalid distance", "error", err)
		if ve, ok := err.(core.ValidationError); ok {
			return core.NewError(core.ErrorCode(ve.Code), ve.Message).WithGuidance(ve.Guidance).ToMCPResult(), nil
		}
		return core.NewError(core.ErrInvalidInput, err.Error()).ToMCPResult(), nil
	}

	input, errResult := parseEmissionsParams(req, logger)
	if errResult != nil {
		return errResult, nil
	}
	input.DistanceKm = distanceKm

	result, err := emissions.Estimate(input)
	if err != nil {
		logger.Error("estimate failed", "error", err)
		return estimateError(err), nil
	}

	factor := input.FactorKgPerLiter
	if factor == 0 {
		factor = emissions.DefaultFactorKgPerLiter
	}

	output := EstimateTripEmissionsOutput{
		DistanceKm:     distanceKm,
		FuelRateLPerKm: input.FuelRateLPerKm,
		FactorKgPerL:   factor,
		CommuteDays:    input.CommuteDays,
		Emissions:      result,
	}

	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return core.NewError(core.ErrInternalError, "Failed to generate result").ToMCPResult(), nil
	}

	return mcp.NewToolResultText(string(resultBytes)), nil
}
