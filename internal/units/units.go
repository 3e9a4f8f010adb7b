// Package units converts player speeds between display units. The
// pipeline computes and stores everything in meters per second.
package units

const (
	MPS = "mps"
	MPH = "mph"
	KPH = "kph"
)

// ValidUnits lists the accepted display units.
var ValidUnits = []string{MPS, MPH, KPH}

// IsValid reports whether unit names a supported display unit.
func IsValid(unit string) bool {
	for _, u := range ValidUnits {
		if unit == u {
			return true
		}
	}
	return false
}

// ConvertSpeed converts a speed in m/s to the target display unit.
// Unknown units pass the value through unchanged.
func ConvertSpeed(speedMPS float64, targetUnit string) float64 {
	switch targetUnit {
	case MPH:
		return speedMPS * 2.2369362920544
	case KPH:
		return speedMPS * 3.6
	default:
		return speedMPS
	}
}

// Suffix returns the human-readable suffix for a display unit.
func Suffix(unit string) string {
	switch unit {
	case MPH:
		return "mph"
	case KPH:
		return "km/h"
	default:
		return "m/s"
	}
}
