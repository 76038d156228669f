package tools

import (
	"context"
	"math"
	"testing"
)

func TestHandleEstimateTripEmissions(t *testing.T) {
	tests := []struct {
		name        string
		args        map[string]any
		expectError bool
		wantSingle  float64
		wantWeekly  float64
	}{
		{
			name: "reference scenario",
			args: map[string]any{
				"distance_km":      10.0,
				"efficiency_value": 8.0,
				"efficiency_unit":  "liters-per-100km",
				"commute_days":     5.0,
			},
			wantSingle: 1.848,
			wantWeekly: 18.48,
		},
		{
			name: "MPG input",
			args: map[string]any{
				"distance_km":      10.0,
				"efficiency_value": 25.0,
				"efficiency_unit":  "miles-per-gallon-US",
				"commute_days":     5.0,
			},
			// 10 km at about 0.0941 L/km, 2.31 kg/L
			wantSingle: 2.173,
			wantWeekly: 21.73,
		},
		{
			name: "zero days",
			args: map[string]any{
				"distance_km":      10.0,
				"efficiency_value": 8.0,
				"efficiency_unit":  "liters-per-100km",
				"commute_days":     0.0,
			},
			wantSingle: 1.848,
			wantWeekly: 0,
		},
		{
			name: "diesel fuel type",
			args: map[string]any{
				"distance_km":      10.0,
				"efficiency_value": 8.0,
				"efficiency_unit":  "liters-per-100km",
				"commute_days":     5.0,
				"fuel_type":        "diesel",
			},
			wantSingle: 2.144,
			wantWeekly: 21.44,
		},
		{
			name: "idling adds emissions",
			args: map[string]any{
				"distance_km":      10.0,
				"efficiency_value": 8.0,
				"efficiency_unit":  "liters-per-100km",
				"commute_days":     5.0,
				"idle_hours":       0.5,
				"idle_rate_value":  1.0,
				"idle_rate_unit":   "liters-per-hour",
			},
			// (10*0.08 + 0.5*1.0) * 2.31
			wantSingle: 3.0030,
			wantWeekly: 30.03,
		},
		{
			name: "negative distance",
			args: map[string]any{
				"distance_km":      -1.0,
				"efficiency_value": 8.0,
				"efficiency_unit":  "liters-per-100km",
			},
			expectError: true,
		},
		{
			name: "missing efficiency",
			args: map[string]any{
				"distance_km":     10.0,
				"efficiency_unit": "liters-per-100km",
			},
			expectError: true,
		},
		{
			name: "bad unit",
			args: map[string]any{
				"distance_km":      10.0,
				"efficiency_value": 8.0,
				"efficiency_unit":  "cubits",
			},
			expectError: true,
		},
		{
			name: "too many days",
			args: map[string]any{
				"distance_km":      10.0,
				"efficiency_value": 8.0,
				"efficiency_unit":  "liters-per-100km",
				"commute_days":     8.0,
			},
			expectError: true,
		},
		{
			name: "fractional days",
			args: map[string]any{
				"distance_km":      10.0,
				"efficiency_value": 8.0,
				"efficiency_unit":  "liters-per-100km",
				"commute_days":     5.9,
			},
			expectError: true,
		},
		{
			name: "unknown fuel type",
			args: map[string]any{
				"distance_km":      10.0,
				"efficiency_value": 8.0,
				"efficiency_unit":  "liters-per-100km",
				"fuel_type":        "hydrogen",
			},
			expectError: true,
		},
		{
			name: "bad idle unit",
			args: map[string]any{
				"distance_km":      10.0,
				"efficiency_value": 8.0,
				"efficiency_unit":  "liters-per-100km",
				"idle_hours":       0.5,
				"idle_rate_value":  1.0,
				"idle_rate_unit":   "hogsheads-per-hour",
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest("estimate_trip_emissions", tt.args)

			result, err := HandleEstimateTripEmissions(context.Background(), req)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if tt.expectError {
				AssertErrorResult(t, result, "Expected an error result")
				return
			}
			AssertSuccessResult(t, result, "Expected a success result")

			var output EstimateTripEmissionsOutput
			if err := ParseResultJSON(result, &output); err != nil {
				t.Fatalf("Failed to parse result: %v", err)
			}

			if math.Abs(output.Emissions.SingleTripKg-tt.wantSingle) > 0.01 {
				t.Errorf("SingleTripKg = %v, want %v", output.Emissions.SingleTripKg, tt.wantSingle)
			}
			if math.Abs(output.Emissions.WeeklyKg-tt.wantWeekly) > 0.05 {
				t.Errorf("WeeklyKg = %v, want %v", output.Emissions.WeeklyKg, tt.wantWeekly)
			}
			if output.Emissions.RoundTripKg != 2*output.Emissions.SingleTripKg {
				t.Errorf("RoundTripKg = %v, want exactly twice SingleTripKg", output.Emissions.RoundTripKg)
			}
		})
	}
}

func TestHandleEstimateTripEmissionsDefaults(t *testing.T) {
	req := newRequest("estimate_trip_emissions", map[string]any{
		"distance_km":      10.0,
		"efficiency_value": 8.0,
		"efficiency_unit":  "liters-per-100km",
	})

	result, err := HandleEstimateTripEmissions(context.Background(), req)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	AssertSuccessResult(t, result, "Expected a success result")

	var output EstimateTripEmissionsOutput
	if err := ParseResultJSON(result, &output); err != nil {
		t.Fatalf("Failed to parse result: %v", err)
	}

	if output.CommuteDays != DefaultCommuteDays {
		t.Errorf("CommuteDays = %d, want default %d", output.CommuteDays, DefaultCommuteDays)
	}
	if output.FactorKgPerL != 2.31 {
		t.Errorf("FactorKgPerL = %v, want default 2.31", output.FactorKgPerL)
	}
}
