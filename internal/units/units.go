// Package units converts vendor-specific measurement units and timestamps
// into the canonical schema used by every downstream component: miles per
// hour, degrees Fahrenheit, hectopascals, UTC ISO-8601 time.
//
// Conversions fail loudly on unknown unit codes. A silent unit mismatch is
// the single most damaging failure mode for this system, so no function here
// ever passes an unrecognized value through unchanged.
package units

import (
	"fmt"
	"time"

	"github.com/samqbush/dp-soda-sub005/internal/types"
)

// Canonical unit codes.
const (
	UnitMph        = "mph"
	UnitFahrenheit = "f"
	UnitHpa        = "hpa"
)

// UnknownUnitError reports a unit code this system does not understand.
type UnknownUnitError struct {
	Quantity string
	Unit     string
}

func (e *UnknownUnitError) Error() string {
	return fmt.Sprintf("unknown %s unit %q", e.Quantity, e.Unit)
}

func unknown(quantity, unit string) error {
	return types.NewAppError(
		types.ErrCodeValidationInvalidUnit,
		fmt.Sprintf("unknown %s unit %q", quantity, unit),
		&UnknownUnitError{Quantity: quantity, Unit: unit},
	)
}

// Conversion constants. Exact definitions, not rounded approximations.
const (
	kmhPerMph  = 1.609344
	msPerMph   = 0.44704
	ktPerMph   = 0.868976242
	hpaPerInHg = 33.8638866667
)

// ToMph converts a wind speed from the given vendor unit to miles per hour.
func ToMph(value float64, fromUnit string) (float64, error) {
	switch fromUnit {
	case UnitMph:
		return value, nil
	case "kmh", "km/h", "kph":
		return value / kmhPerMph, nil
	case "ms", "m/s", "mps":
		return value / msPerMph, nil
	case "kt", "kts", "knots":
		return value / ktPerMph, nil
	default:
		return 0, unknown("wind speed", fromUnit)
	}
}

// FromMph converts a canonical mph value back to the given vendor unit.
func FromMph(value float64, toUnit string) (float64, error) {
	switch toUnit {
	case UnitMph:
		return value, nil
	case "kmh", "km/h", "kph":
		return value * kmhPerMph, nil
	case "ms", "m/s", "mps":
		return value * msPerMph, nil
	case "kt", "kts", "knots":
		return value * ktPerMph, nil
	default:
		return 0, unknown("wind speed", toUnit)
	}
}

// ToFahrenheit converts a temperature from the given vendor unit to degrees
// Fahrenheit.
func ToFahrenheit(value float64, fromUnit string) (float64, error) {
	switch fromUnit {
	case UnitFahrenheit, "fahrenheit":
		return value, nil
	case "c", "celsius":
		return value*9/5 + 32, nil
	case "k", "kelvin":
		return (value-273.15)*9/5 + 32, nil
	default:
		return 0, unknown("temperature", fromUnit)
	}
}

// FromFahrenheit converts a canonical Fahrenheit value back to the given
// vendor unit.
func FromFahrenheit(value float64, toUnit string) (float64, error) {
	switch toUnit {
	case UnitFahrenheit, "fahrenheit":
		return value, nil
	case "c", "celsius":
		return (value - 32) * 5 / 9, nil
	case "k", "kelvin":
		return (value-32)*5/9 + 273.15, nil
	default:
		return 0, unknown("temperature", toUnit)
	}
}

// ToHpa converts a pressure from the given vendor unit to hectopascals.
// Millibars are numerically identical to hectopascals.
func ToHpa(value float64, fromUnit string) (float64, error) {
	switch fromUnit {
	case UnitHpa, "mb", "mbar", "millibar":
		return value, nil
	case "pa":
		return value / 100, nil
	case "kpa":
		return value * 10, nil
	case "inhg":
		return value * hpaPerInHg, nil
	default:
		return 0, unknown("pressure", fromUnit)
	}
}

// FromHpa converts a canonical hPa value back to the given vendor unit.
func FromHpa(value float64, toUnit string) (float64, error) {
	switch toUnit {
	case UnitHpa, "mb", "mbar", "millibar":
		return value, nil
	case "pa":
		return value * 100, nil
	case "kpa":
		return value / 10, nil
	case "inhg":
		return value / hpaPerInHg, nil
	default:
		return 0, unknown("pressure", toUnit)
	}
}

// ToISOTime formats a Unix timestamp (seconds) as canonical ISO-8601 in UTC.
func ToISOTime(unixSeconds int64) string {
	return time.Unix(unixSeconds, 0).UTC().Format(time.RFC3339)
}

// ParseISOTime parses a canonical ISO-8601 timestamp. Unlike the unit
// converters it accepts only one format; vendors with exotic time encodings
// convert at their own parse boundary.
func ParseISOTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, types.NewAppError(
			types.ErrCodeValidationInvalidDate,
			fmt.Sprintf("invalid ISO-8601 timestamp %q", s),
			err,
		)
	}
	return t.UTC(), nil
}

// MetersToMiles converts visibility reported in meters to miles.
func MetersToMiles(m float64) float64 {
	return m / 1609.344
}
