package capability

import "math"

// Temperature conversion constants.
const (
	fahrenheitFactor = 9.0 / 5.0
	fahrenheitOffset = 32.0
	kelvinOffset     = 273.15
)

// ConvertTemperature converts a temperature value between scales.
//
// When delta is true the value expresses a relative adjustment and the
// additive offsets (32 for Fahrenheit, 273.15 for Kelvin) are omitted; only
// multiplicative scale factors apply.
func ConvertTemperature(value float64, from, to string, delta bool) float64 {
	if from == to {
		return value
	}

	// Normalise to Celsius first.
	celsius := value
	switch from {
	case ScaleFahrenheit:
		if delta {
			celsius = value / fahrenheitFactor
		} else {
			celsius = (value - fahrenheitOffset) / fahrenheitFactor
		}
	case ScaleKelvin:
		if delta {
			celsius = value
		} else {
			celsius = value - kelvinOffset
		}
	}

	switch to {
	case ScaleFahrenheit:
		if delta {
			return celsius * fahrenheitFactor
		}
		return celsius*fahrenheitFactor + fahrenheitOffset
	case ScaleKelvin:
		if delta {
			return celsius
		}
		return celsius + kelvinOffset
	default:
		return celsius
	}
}

// Clamp bounds a value to [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// Adjust applies a relative delta to a current value and clamps the result
// to the property's effective range.
func Adjust(current, delta, min, max float64) float64 {
	return Clamp(current+delta, min, max)
}

// KelvinToPercent converts an absolute colour temperature to the device's
// 0-100% position.
//
// The percent axis is inverted from the intuitive one: 0% is the coldest
// (highest Kelvin) and 100% the warmest (lowest Kelvin). Input Kelvin is
// clamped to the range before interpolation.
func KelvinToPercent(kelvin float64, r Range) float64 {
	kelvin = Clamp(kelvin, r.Minimum, r.Maximum)
	return (r.Maximum - kelvin) / r.Span() * 100
}

// PercentToKelvin converts a 0-100% colour-temperature position back to
// absolute Kelvin. Inverse of KelvinToPercent for any fixed range.
func PercentToKelvin(percent float64, r Range) float64 {
	percent = Clamp(percent, 0, 100)
	return r.Maximum - percent/100*r.Span()
}

// RoundTo rounds a value to the given precision step. A zero precision
// rounds to the nearest integer.
//
// The reciprocal form keeps decimal steps exact: rounding 33.333 to 0.1
// must yield 33.3, not the nearest representable of 333*0.1.
func RoundTo(value, precision float64) float64 {
	if precision == 0 {
		return math.Round(value)
	}
	factor := 1 / precision
	return math.Round(value*factor) / factor
}
