// Package units provides shared constants and validation for distance units
// used when reporting Z-distance measurements.
package units

import "fmt"

// Unit constants
const (
	Meters      = "m"
	Feet        = "ft"
	Centimeters = "cm"
)

// ValidUnits contains all valid unit values
var ValidUnits = []string{Meters, Feet, Centimeters}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "m, ft, cm"
}

// ConvertDistance converts a distance from meters to the target units.
// Measurements are computed and stored in meters.
func ConvertDistance(meters float64, targetUnits string) float64 {
	switch targetUnits {
	case Feet:
		return meters * 3.28084 // m to ft
	case Centimeters:
		return meters * 100.0 // m to cm
	case Meters:
		return meters // no conversion needed
	default:
		return meters // default to meters if unknown unit
	}
}

// FormatDistance renders a measurement for display, one decimal place with
// the unit suffix, e.g. "3.5 m". Unknown units fall back to meters.
func FormatDistance(meters float64, targetUnits string) string {
	if !IsValid(targetUnits) {
		targetUnits = Meters
	}
	return fmt.Sprintf("%.1f %s", ConvertDistance(meters, targetUnits), targetUnits)
}
