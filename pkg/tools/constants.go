package tools

import "github.com/carbonsense/commutemcp/pkg/emissions"

// Default commute schedule when none is given.
const DefaultCommuteDays = 5

// fuelFactors maps fuel type names to combustion factors in kg CO2 per liter.
var fuelFactors = map[string]float64{
	"gasoline": emissions.DefaultFactorKgPerLiter,
	"petrol":   emissions.DefaultFactorKgPerLiter,
	"diesel":   emissions.DieselFactorKgPerLiter,
}

// FuelFactor returns the combustion factor for a named fuel type. The second
// return value is false for unknown fuel types.
func FuelFactor(fuelType string) (float64, bool) {
	factor, ok := fuelFactors[fuelType]
	return factor, ok
}

// SupportedFuelTypes returns the accepted fuel type names.
func SupportedFuelTypes() []string {
	return []string{"gasoline", "petrol", "diesel"}
}
