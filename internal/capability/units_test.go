package capability

import (
	"math"
	"testing"
)

func TestConvertTemperature(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		from, to string
		delta    bool
		want     float64
	}{
		{"celsius to fahrenheit", 20, ScaleCelsius, ScaleFahrenheit, false, 68},
		{"fahrenheit to celsius", 68, ScaleFahrenheit, ScaleCelsius, false, 20},
		{"celsius to kelvin", 20, ScaleCelsius, ScaleKelvin, false, 293.15},
		{"kelvin to celsius", 293.15, ScaleKelvin, ScaleCelsius, false, 20},
		{"fahrenheit to kelvin", 32, ScaleFahrenheit, ScaleKelvin, false, 273.15},
		{"same scale untouched", 21.5, ScaleCelsius, ScaleCelsius, false, 21.5},
		{"delta celsius to fahrenheit omits offset", 2, ScaleCelsius, ScaleFahrenheit, true, 3.6},
		{"delta fahrenheit to celsius omits offset", 9, ScaleFahrenheit, ScaleCelsius, true, 5},
		{"delta kelvin equals celsius", 3, ScaleKelvin, ScaleCelsius, true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertTemperature(tt.value, tt.from, tt.to, tt.delta)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ConvertTemperature(%v, %s, %s, %v) = %v, want %v",
					tt.value, tt.from, tt.to, tt.delta, got, tt.want)
			}
		})
	}
}

func TestColorTemperaturePercentAxis(t *testing.T) {
	r := Range{Minimum: 2000, Maximum: 6500}

	tests := []struct {
		name   string
		kelvin float64
		want   float64
	}{
		{"coldest is zero percent", 6500, 0},
		{"warmest is full percent", 2000, 100},
		{"interpolated", 5000, 100.0 / 3},
		{"above range clamps to coldest", 9000, 0},
		{"below range clamps to warmest", 1500, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := KelvinToPercent(tt.kelvin, r)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("KelvinToPercent(%v) = %v, want %v", tt.kelvin, got, tt.want)
			}
		})
	}
}

func TestPercentToKelvinInvertsWithinRange(t *testing.T) {
	r := Range{Minimum: 2000, Maximum: 6500}

	for _, kelvin := range []float64{2000, 2500, 4250, 5000, 6500} {
		pct := KelvinToPercent(kelvin, r)
		back := PercentToKelvin(pct, r)
		if math.Abs(back-kelvin) > 1e-9 {
			t.Errorf("round trip of %vK via %v%% yielded %vK", kelvin, pct, back)
		}
	}

	if got := PercentToKelvin(150, r); got != r.Minimum {
		t.Errorf("overlong percent should clamp to warmest, got %v", got)
	}
}

func TestAdjustClampsToRange(t *testing.T) {
	tests := []struct {
		name           string
		current, delta float64
		min, max       float64
		want           float64
	}{
		{"within range", 50, 10, 0, 100, 60},
		{"clamps high", 95, 10, 0, 100, 100},
		{"clamps low", 5, -10, 0, 100, 0},
		{"negative delta within", 50, -25, 0, 100, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Adjust(tt.current, tt.delta, tt.min, tt.max); got != tt.want {
				t.Errorf("Adjust(%v, %v, %v, %v) = %v, want %v",
					tt.current, tt.delta, tt.min, tt.max, got, tt.want)
			}
		})
	}
}

func TestRoundTo(t *testing.T) {
	tests := []struct {
		value, precision, want float64
	}{
		{33.333, 0.1, 33.3},
		{33.36, 0.1, 33.4},
		{21.111, 0, 21},
		{7.5, 5, 10},
		{-2.6, 0, -3},
	}

	for _, tt := range tests {
		if got := RoundTo(tt.value, tt.precision); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("RoundTo(%v, %v) = %v, want %v", tt.value, tt.precision, got, tt.want)
		}
	}
}
