package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"golang.org/x/sync/errgroup"

	"github.com/carbonsense/commutemcp/pkg/cache"
	"github.com/carbonsense/commutemcp/pkg/core"
	"github.com/carbonsense/commutemcp/pkg/emissions"
	"github.com/carbonsense/commutemcp/pkg/monitoring"
	"github.com/carbonsense/commutemcp/pkg/tracing"
)

// RouteSummary describes the driving route between home and work.
type RouteSummary struct {
	DistanceKm float64 `json:"distance_km"`
	DurationS  float64 `json:"duration_s"`
	Summary    string  `json:"summary,omitempty"`
}

// EstimateCommuteOutput is the full result of a commute estimate.
type EstimateCommuteOutput struct {
	Home           *GeocodeOutput   `json:"home"`
	Work           *GeocodeOutput   `json:"work"`
	Route          RouteSummary     `json:"route"`
	FuelRateLPerKm float64          `json:"fuel_rate_l_per_km"`
	FactorKgPerL   float64          `json:"factor_kg_per_l"`
	CommuteDays    int              `json:"commute_days"`
	Emissions      emissions.Result `json:"emissions"`
}

// EstimateCommuteTool returns a tool definition for the end-to-end commute
// emissions estimate.
func EstimateCommuteTool() mcp.Tool {
	return mcp.NewTool("estimate_commute",
		mcp.WithDescription("Estimate commute CO2 emissions between home and work. Geocodes both locations, fetches a driving route, and computes single-trip, round-trip, weekly, monthly, and yearly figures."),
		mcp.WithString("home",
			mcp.Required(),
			mcp.Description("Home address, place name, or coordinate string"),
		),
		mcp.WithString("work",
			mcp.Required(),
			mcp.Description("Work address, place name, or coordinate string"),
		),
		mcp.WithNumber("efficiency_value",
			mcp.Required(),
			mcp.Description("Vehicle fuel efficiency value"),
		),
		mcp.WithString("efficiency_unit",
			mcp.Required(),
			mcp.Description("Unit of the efficiency value, e.g. 'miles-per-gallon-US'"),
		),
		mcp.WithNumber("commute_days",
			mcp.Description("Commuting days per week (0-7, default 5)"),
		),
		mcp.WithArray("days",
			mcp.Description("Alternative to commute_days: weekday names, e.g. [\"monday\", \"wednesday\"]"),
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

// scheduleInput carries the optional days array form of the schedule.
type scheduleInput struct {
	Days []string `json:"days"`
}

var weekdayNames = map[string]bool{
	"monday":    true,
	"tuesday":   true,
	"wednesday": true,
	"thursday":  true,
	"friday":    true,
	"saturday":  true,
	"sunday":    true,
}

// parseScheduleDays counts the distinct weekday names in a days array.
func parseScheduleDays(days []string) (int, error) {
	seen := make(map[string]bool)
	for _, day := range days {
		name := strings.ToLower(strings.TrimSpace(day))
		if !weekdayNames[name] {
			return 0, fmt.Errorf("unknown weekday: %q", day)
		}
		seen[name] = true
	}
	return len(seen), nil
}

// estimateCacheKey builds the cache key for a finished commute estimate.
func estimateCacheKey(home, work string, in emissions.Input) string {
	return fmt.Sprintf("estimate|%s|%s|%.9f|%.4f|%d|%.4f|%.4f",
		strings.ToLower(strings.TrimSpace(home)),
		strings.ToLower(strings.TrimSpace(work)),
		in.FuelRateLPerKm, in.FactorKgPerLiter, in.CommuteDays,
		in.IdleHours, in.IdleRateLPerHour)
}

// HandleEstimateCommute implements the end-to-end commute estimate
func HandleEstimateCommute(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	logger := slog.Default().With("tool", "estimate_commute")

	home := mcp.ParseString(req, "home", "")
	work := mcp.ParseString(req, "work", "")
	if home == "" || work == "" {
		return core.NewValidationError(core.ErrEmptyParameter, "Both home and work locations are required").
			WithGuidance("Provide addresses, place names, or coordinate strings. Example:\n" + GetToolUsageExample("estimate_commute")).
			ToMCPResult(), nil
	}

	input, errResult := parseEmissionsParams(req, logger)
	if errResult != nil {
		return errResult, nil
	}

	// A days array of weekday names overrides the numeric count.
	schedule, errResult, err := InputParser[scheduleInput](req)
	if err != nil {
		logger.Error("failed to parse input", "error", err)
		return errResult, nil
	}
	if len(schedule.Days) > 0 {
		count, err := parseScheduleDays(schedule.Days)
		if err != nil {
			logger.Error("invalid days array", "error", err)
			return core.NewError(core.ErrInvalidParameter, err.Error()).
				WithGuidance("Use full weekday names such as 'monday'").
				ToMCPResult(), nil
		}
		input.CommuteDays = count
	}

	// Finished estimates are cached by the address pair and parameters.
	key := estimateCacheKey(home, work, input)
	if cached, ok := cache.GetGlobalCache().Get(key); ok {
		if output, ok := cached.(*EstimateCommuteOutput); ok {
			monitoring.RecordCacheHit(tracing.CacheTypeEstimate)
			logger.Debug("estimate cache hit", "key", key)
			return marshalCommuteOutput(logger, output)
		}
	}
	monitoring.RecordCacheMiss(tracing.CacheTypeEstimate)

	// Geocode home and work concurrently. A failed lookup cancels the
	// sibling via the group context; its tool result is returned as is.
	var homePlace, workPlace *GeocodeOutput
	var homeErrResult, workErrResult *mcp.CallToolResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		homePlace, homeErrResult = resolveLocation(gctx, logger.With("location", "home"), home)
		if homeErrResult != nil {
			return fmt.Errorf("home location lookup failed")
		}
		return nil
	})
	g.Go(func() error {
		workPlace, workErrResult = resolveLocation(gctx, logger.With("location", "work"), work)
		if workErrResult != nil {
			return fmt.Errorf("work location lookup failed")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		logger.Error("geocoding failed", "error", err)
		if homeErrResult != nil {
			return homeErrResult, nil
		}
		return workErrResult, nil
	}

	route, err := core.GetSimpleRoute(ctx, homePlace.Location, workPlace.Location, "car")
	if err != nil {
		logger.Error("failed to get route", "error", err)
		if mcpErr, ok := err.(*core.MCPError); ok {
			return mcpErr.ToMCPResult(), nil
		}
		return core.NewError(core.ErrNoRoute, "No driving route found between home and work").
			WithGuidance(GuidanceOSRMRouteNotFound).
			ToMCPResult(), nil
	}

	input.DistanceKm = route.Distance / 1000

	result, err := emissions.Estimate(input)
	if err != nil {
		logger.Error("estimate failed", "error", err)
		return estimateError(err), nil
	}

	factor := input.FactorKgPerLiter
	if factor == 0 {
		factor = emissions.DefaultFactorKgPerLiter
	}

	output := &EstimateCommuteOutput{
		Home: homePlace,
		Work: workPlace,
		Route: RouteSummary{
			DistanceKm: input.DistanceKm,
			DurationS:  route.Duration,
			Summary:    route.Summary,
		},
		FuelRateLPerKm: input.FuelRateLPerKm,
		FactorKgPerL:   factor,
		CommuteDays:    input.CommuteDays,
		Emissions:      result,
	}

	cache.GetGlobalCache().Set(key, output)
	monitoring.UpdateCacheSize(tracing.CacheTypeEstimate, cache.GetGlobalCache().Count())

	return marshalCommuteOutput(logger, output)
}

func marshalCommuteOutput(logger *slog.Logger, output *EstimateCommuteOutput) (*mcp.CallToolResult, error) {
	resultBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal result", "error", err)
		return core.NewError(core.ErrInternalError, "Failed to generate result").ToMCPResult(), nil
	}
	return mcp.NewToolResultText(string(resultBytes)), nil
}
