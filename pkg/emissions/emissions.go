// Package emissions computes commute CO2 estimates from normalized inputs.
//
// The calculator is pure and synchronous. It expects the fuel rate already
// normalized to liters per kilometer and the idle rate to liters per hour
// (see pkg/units); it performs no unit conversion and no I/O of its own.
package emissions

import (
	"errors"
	"fmt"
	"math"
)

// Emissions factors in kilograms of CO2 per liter of fuel burned.
const (
	// DefaultFactorKgPerLiter is the combustion factor for gasoline.
	DefaultFactorKgPerLiter = 2.31

	// DieselFactorKgPerLiter is the combustion factor for diesel.
	DieselFactorKgPerLiter = 2.68
)

// ErrInvalidInput indicates an estimate input outside its documented domain.
var ErrInvalidInput = errors.New("invalid input")

// Input holds the normalized parameters for one commute estimate.
type Input struct {
	// DistanceKm is the one-way commute distance in kilometers. Zero is
	// allowed (a zero-distance commute emits nothing per trip).
	DistanceKm float64

	// FuelRateLPerKm is the vehicle's fuel consumption in liters per
	// kilometer. Must be positive.
	FuelRateLPerKm float64

	// FactorKgPerLiter is the CO2 emitted per liter of fuel burned. If
	// zero, DefaultFactorKgPerLiter is used.
	FactorKgPerLiter float64

	// CommuteDays is the number of commuting days per week, 0 through 7.
	CommuteDays int

	// IdleHours is the time spent idling per one-way trip, in hours.
	// Optional; zero means no idling.
	IdleHours float64

	// IdleRateLPerHour is the fuel burned while idling, in liters per
	// hour. Required to be positive when IdleHours is positive.
	IdleRateLPerHour float64
}

// Result holds the CO2 estimates for one commute, all in kilograms.
type Result struct {
	SingleTripKg float64 `json:"single_trip_kg"`
	RoundTripKg  float64 `json:"round_trip_kg"`
	WeeklyKg     float64 `json:"weekly_kg"`
	MonthlyKg    float64 `json:"monthly_kg"`
	YearlyKg     float64 `json:"yearly_kg"`
}

// Estimate computes the CO2 emitted by a commute described by in.
//
// single trip = (distance * fuel rate + idle hours * idle rate) * factor
// round trip  = 2 * single trip
// weekly      = round trip * commute days
// monthly     = 4 * weekly
// yearly      = 52 * weekly
func Estimate(in Input) (Result, error) {
	if err := validate(in); err != nil {
		return Result{}, err
	}

	factor := in.FactorKgPerLiter
	if factor == 0 {
		factor = DefaultFactorKgPerLiter
	}

	tripLiters := in.DistanceKm*in.FuelRateLPerKm + in.IdleHours*in.IdleRateLPerHour

	single := tripLiters * factor
	round := 2 * single
	weekly := round * float64(in.CommuteDays)

	return Result{
		SingleTripKg: single,
		RoundTripKg:  round,
		WeeklyKg:     weekly,
		MonthlyKg:    4 * weekly,
		YearlyKg:     52 * weekly,
	}, nil
}

func validate(in Input) error {
	if !isFinite(in.DistanceKm) || in.DistanceKm < 0 {
		return fmt.Errorf("%w: distance must be finite and non-negative, got %f", ErrInvalidInput, in.DistanceKm)
	}
	if !isFinite(in.FuelRateLPerKm) || in.FuelRateLPerKm <= 0 {
		return fmt.Errorf("%w: fuel rate must be finite and positive, got %f", ErrInvalidInput, in.FuelRateLPerKm)
	}
	if !isFinite(in.FactorKgPerLiter) || in.FactorKgPerLiter < 0 {
		return fmt.Errorf("%w: emissions factor must be finite and non-negative, got %f", ErrInvalidInput, in.FactorKgPerLiter)
	}
	if in.CommuteDays < 0 || in.CommuteDays > 7 {
		return fmt.Errorf("%w: commute days must be between 0 and 7, got %d", ErrInvalidInput, in.CommuteDays)
	}
	if !isFinite(in.IdleHours) || in.IdleHours < 0 {
		return fmt.Errorf("%w: idle hours must be finite and non-negative, got %f", ErrInvalidInput, in.IdleHours)
	}
	if !isFinite(in.IdleRateLPerHour) || in.IdleRateLPerHour < 0 {
		return fmt.Errorf("%w: idle rate must be finite and non-negative, got %f", ErrInvalidInput, in.IdleRateLPerHour)
	}
	if in.IdleHours > 0 && in.IdleRateLPerHour == 0 {
		return fmt.Errorf("%w: idle rate is required when idle hours are set", ErrInvalidInput)
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
