package capability

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

// newTestProperty resolves a property fixture the way the endpoint builder
// does: schema lookup, state-map resolution, default range.
func newTestProperty(t *testing.T, iface, name, itemType string, params map[string]any) *Property {
	t.Helper()

	schema := LookupSchema(iface, name)
	if schema == nil {
		t.Fatalf("schema %s.%s not registered", iface, name)
	}
	if params == nil {
		params = map[string]any{}
	}

	p := &Property{
		Interface:  iface,
		Name:       name,
		ItemName:   "TestItem",
		ItemType:   itemType,
		Parameters: CoerceParameters(schema, params),
		schema:     schema,
	}
	p.StateMap = resolveStateMap(schema, itemType, p.Parameters)
	if r, ok := schema.DefaultRange(itemType, p.Parameters); ok {
		p.ValueRange = &r
	}
	return p
}

func TestToAlexaUndefinedState(t *testing.T) {
	p := newTestProperty(t, InterfacePowerController, "powerState", ItemSwitch, nil)

	for _, state := range []string{"", "NULL", "UNDEF"} {
		if _, err := ToAlexa(p, state); !errors.Is(err, ErrStateUnavailable) {
			t.Errorf("ToAlexa(%q) error = %v, want ErrStateUnavailable", state, err)
		}
	}
}

func TestPowerStateToAlexa(t *testing.T) {
	tests := []struct {
		name     string
		itemType string
		state    string
		want     string
	}{
		{"switch on", ItemSwitch, "ON", "ON"},
		{"switch off", ItemSwitch, "OFF", "OFF"},
		{"dimmer level", ItemDimmer, "40", "ON"},
		{"dimmer zero", ItemDimmer, "0", "OFF"},
		{"color tuple lit", ItemColor, "120,50,75", "ON"},
		{"color tuple dark", ItemColor, "120,50,0", "OFF"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProperty(t, InterfacePowerController, "powerState", tt.itemType, nil)
			got, err := ToAlexa(p, tt.state)
			if err != nil {
				t.Fatalf("ToAlexa(%q) error: %v", tt.state, err)
			}
			if got != tt.want {
				t.Errorf("ToAlexa(%q) = %v, want %v", tt.state, got, tt.want)
			}
		})
	}

	t.Run("garbage state is unreachable", func(t *testing.T) {
		p := newTestProperty(t, InterfacePowerController, "powerState", ItemDimmer, nil)
		if _, err := ToAlexa(p, "garbage"); !errors.Is(err, ErrStateUnavailable) {
			t.Errorf("error = %v, want ErrStateUnavailable", err)
		}
	})
}

func TestBrightnessToAlexa(t *testing.T) {
	tests := []struct {
		name     string
		itemType string
		state    string
		want     int
	}{
		{"dimmer level rounds", ItemDimmer, "40.6", 41},
		{"color tuple third component", ItemColor, "120,50,75", 75},
		{"on maps to full", ItemDimmer, "ON", 100},
		{"off maps to zero", ItemDimmer, "OFF", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProperty(t, InterfaceBrightnessController, "brightness", tt.itemType, nil)
			got, err := ToAlexa(p, tt.state)
			if err != nil {
				t.Fatalf("ToAlexa(%q) error: %v", tt.state, err)
			}
			if got != tt.want {
				t.Errorf("ToAlexa(%q) = %v, want %v", tt.state, got, tt.want)
			}
		})
	}
}

func TestColorConversion(t *testing.T) {
	p := newTestProperty(t, InterfaceColorController, "color", ItemColor, nil)

	t.Run("to alexa fractions", func(t *testing.T) {
		got, err := ToAlexa(p, "120,50,75")
		if err != nil {
			t.Fatalf("ToAlexa error: %v", err)
		}
		want := map[string]any{"hue": 120.0, "saturation": 0.5, "brightness": 0.75}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("ToAlexa = %#v, want %#v", got, want)
		}
	})

	t.Run("to native tuple", func(t *testing.T) {
		got, err := ToNative(p, map[string]any{
			"hue": 120.0, "saturation": 0.5, "brightness": 0.75,
		}, false)
		if err != nil {
			t.Fatalf("ToNative error: %v", err)
		}
		if got != "120,50,75" {
			t.Errorf("ToNative = %q, want \"120,50,75\"", got)
		}
	})

	t.Run("malformed tuple is unreachable", func(t *testing.T) {
		if _, err := ToAlexa(p, "120,50"); !errors.Is(err, ErrStateUnavailable) {
			t.Errorf("error = %v, want ErrStateUnavailable", err)
		}
	})

	t.Run("non object command rejected", func(t *testing.T) {
		if _, err := ToNative(p, "red", false); !errors.Is(err, ErrValueOutOfDomain) {
			t.Errorf("error = %v, want ErrValueOutOfDomain", err)
		}
	})
}

func TestColorTemperatureOnDimmer(t *testing.T) {
	p := newTestProperty(t, InterfaceColorTemperatureController,
		"colorTemperatureInKelvin", ItemDimmer, nil)

	t.Run("kelvin command maps to inverted percent", func(t *testing.T) {
		got, err := ToNative(p, 5000.0, false)
		if err != nil {
			t.Fatalf("ToNative error: %v", err)
		}
		// [2000, 6500]: 5000K is a third of the way down from the cold end.
		if got != "33.3" {
			t.Errorf("ToNative(5000) = %q, want \"33.3\"", got)
		}
	})

	t.Run("percent state maps back to kelvin", func(t *testing.T) {
		got, err := ToAlexa(p, "0")
		if err != nil {
			t.Fatalf("ToAlexa error: %v", err)
		}
		if got != 6500 {
			t.Errorf("ToAlexa(0%%) = %v, want coldest 6500", got)
		}

		got, err = ToAlexa(p, "100")
		if err != nil {
			t.Fatalf("ToAlexa error: %v", err)
		}
		if got != 2000 {
			t.Errorf("ToAlexa(100%%) = %v, want warmest 2000", got)
		}
	})

	t.Run("out of range kelvin clamps", func(t *testing.T) {
		got, err := ToNative(p, 9000.0, false)
		if err != nil {
			t.Fatalf("ToNative error: %v", err)
		}
		if got != "0" {
			t.Errorf("ToNative(9000) = %q, want clamp to coldest \"0\"", got)
		}
	})

	t.Run("binding range override", func(t *testing.T) {
		lifx := newTestProperty(t, InterfaceColorTemperatureController,
			"colorTemperatureInKelvin", ItemDimmer, map[string]any{"binding": "lifx"})
		got, err := ToAlexa(lifx, "0")
		if err != nil {
			t.Fatalf("ToAlexa error: %v", err)
		}
		if got != 9000 {
			t.Errorf("ToAlexa(0%%) = %v, want lifx coldest 9000", got)
		}
	})
}

func TestColorTemperatureOnNumber(t *testing.T) {
	p := newTestProperty(t, InterfaceColorTemperatureController,
		"colorTemperatureInKelvin", ItemNumber, nil)

	got, err := ToAlexa(p, "4500")
	if err != nil {
		t.Fatalf("ToAlexa error: %v", err)
	}
	if got != 4500 {
		t.Errorf("ToAlexa(4500) = %v, want passthrough", got)
	}

	native, err := ToNative(p, 4500.0, false)
	if err != nil {
		t.Fatalf("ToNative error: %v", err)
	}
	if native != "4500" {
		t.Errorf("ToNative(4500) = %q, want \"4500\"", native)
	}
}

func TestTemperatureConversion(t *testing.T) {
	t.Run("reports typed value in property scale", func(t *testing.T) {
		p := newTestProperty(t, InterfaceTemperatureSensor, "temperature", ItemNumber, nil)
		got, err := ToAlexa(p, "21.5 °C")
		if err != nil {
			t.Fatalf("ToAlexa error: %v", err)
		}
		obj, ok := got.(map[string]any)
		if !ok {
			t.Fatalf("ToAlexa = %T, want object", got)
		}
		if obj["value"] != 21.5 || obj["scale"] != ScaleCelsius {
			t.Errorf("ToAlexa = %v, want value 21.5 CELSIUS", obj)
		}
	})

	t.Run("converts directive scale to item scale", func(t *testing.T) {
		p := newTestProperty(t, InterfaceThermostatController, "targetSetpoint", ItemNumber, nil)
		got, err := ToNative(p, map[string]any{"value": 70.0, "scale": "FAHRENHEIT"}, false)
		if err != nil {
			t.Fatalf("ToNative error: %v", err)
		}
		if got != "21.1" {
			t.Errorf("ToNative(70F) = %q, want \"21.1\"", got)
		}
	})

	t.Run("delta omits additive offset", func(t *testing.T) {
		p := newTestProperty(t, InterfaceThermostatController, "targetSetpoint", ItemNumber, nil)
		got, err := ToNative(p, map[string]any{"value": 9.0, "scale": "FAHRENHEIT"}, true)
		if err != nil {
			t.Fatalf("ToNative error: %v", err)
		}
		if got != "5" {
			t.Errorf("ToNative(delta 9F) = %q, want \"5\"", got)
		}
	})

	t.Run("fahrenheit property reports fahrenheit", func(t *testing.T) {
		p := newTestProperty(t, InterfaceTemperatureSensor, "temperature", ItemNumber,
			map[string]any{"scale": "FAHRENHEIT"})
		got, err := ToAlexa(p, "70")
		if err != nil {
			t.Fatalf("ToAlexa error: %v", err)
		}
		obj := got.(map[string]any)
		if obj["scale"] != ScaleFahrenheit {
			t.Errorf("scale = %v, want FAHRENHEIT", obj["scale"])
		}
	})
}

func TestEnumToNative(t *testing.T) {
	t.Run("default vocabulary", func(t *testing.T) {
		p := newTestProperty(t, InterfaceThermostatController, "thermostatMode", ItemString, nil)
		got, err := ToNative(p, "HEAT", false)
		if err != nil {
			t.Fatalf("ToNative error: %v", err)
		}
		if got != "heat" {
			t.Errorf("ToNative(HEAT) = %q, want \"heat\"", got)
		}
	})

	t.Run("unsupported mode rejected", func(t *testing.T) {
		p := newTestProperty(t, InterfaceThermostatController, "thermostatMode", ItemString, nil)
		if _, err := ToNative(p, "DRY", false); !errors.Is(err, ErrValueOutOfDomain) {
			t.Errorf("error = %v, want ErrValueOutOfDomain", err)
		}
	})

	t.Run("binding vocabulary", func(t *testing.T) {
		p := newTestProperty(t, InterfaceThermostatController, "thermostatMode", ItemString,
			map[string]any{"binding": "nest"})
		got, err := ToNative(p, "AUTO", false)
		if err != nil {
			t.Fatalf("ToNative error: %v", err)
		}
		if got != "HEAT_COOL" {
			t.Errorf("ToNative(AUTO) = %q, want \"HEAT_COOL\"", got)
		}
	})

	t.Run("non string rejected", func(t *testing.T) {
		p := newTestProperty(t, InterfaceLockController, "lockState", ItemSwitch, nil)
		if _, err := ToNative(p, 42.0, false); !errors.Is(err, ErrValueOutOfDomain) {
			t.Errorf("error = %v, want ErrValueOutOfDomain", err)
		}
	})
}

func TestRangeValueToNative(t *testing.T) {
	p := newTestProperty(t, InterfaceRangeController, "rangeValue", ItemNumber, nil)

	t.Run("within range", func(t *testing.T) {
		got, err := ToNative(p, 42.0, false)
		if err != nil {
			t.Fatalf("ToNative error: %v", err)
		}
		if got != "42" {
			t.Errorf("ToNative(42) = %q", got)
		}
	})

	t.Run("outside range rejected", func(t *testing.T) {
		if _, err := ToNative(p, 150.0, false); !errors.Is(err, ErrValueOutOfDomain) {
			t.Errorf("error = %v, want ErrValueOutOfDomain", err)
		}
	})

	t.Run("delta skips the bounds check", func(t *testing.T) {
		got, err := ToNative(p, -150.0, true)
		if err != nil {
			t.Fatalf("ToNative error: %v", err)
		}
		if got != "-150" {
			t.Errorf("ToNative(delta -150) = %q", got)
		}
	})

	t.Run("configured range overrides default", func(t *testing.T) {
		custom := newTestProperty(t, InterfaceRangeController, "rangeValue", ItemNumber,
			map[string]any{"range": "0:10:1"})
		custom.ValueRange = &Range{Minimum: 0, Maximum: 10, Precision: 1}
		if _, err := ToNative(custom, 42.0, false); !errors.Is(err, ErrValueOutOfDomain) {
			t.Errorf("error = %v, want ErrValueOutOfDomain for narrowed range", err)
		}
	})
}

func TestPercentageInversion(t *testing.T) {
	p := newTestProperty(t, InterfacePercentageController, "percentage", ItemRollershutter,
		map[string]any{"inverted": true})

	got, err := ToAlexa(p, "30")
	if err != nil {
		t.Fatalf("ToAlexa error: %v", err)
	}
	if got != 70 {
		t.Errorf("ToAlexa(30) = %v, want inverted 70", got)
	}

	native, err := ToNative(p, 70.0, false)
	if err != nil {
		t.Fatalf("ToNative error: %v", err)
	}
	if native != "30" {
		t.Errorf("ToNative(70) = %q, want inverted \"30\"", native)
	}

	delta, err := ToNative(p, 10.0, true)
	if err != nil {
		t.Fatalf("ToNative error: %v", err)
	}
	if delta != "-10" {
		t.Errorf("ToNative(delta 10) = %q, want negated \"-10\"", delta)
	}
}

func TestMutedConversion(t *testing.T) {
	p := newTestProperty(t, InterfaceSpeaker, "muted", ItemSwitch, nil)

	got, err := ToAlexa(p, "ON")
	if err != nil {
		t.Fatalf("ToAlexa error: %v", err)
	}
	if got != true {
		t.Errorf("ToAlexa(ON) = %v, want true", got)
	}

	native, err := ToNative(p, false, false)
	if err != nil {
		t.Fatalf("ToNative error: %v", err)
	}
	if native != "OFF" {
		t.Errorf("ToNative(false) = %q, want \"OFF\"", native)
	}
}

func TestAlertConversion(t *testing.T) {
	p := newTestProperty(t, InterfaceSecurityPanelController, "burglaryAlarm", ItemContact, nil)

	got, err := ToAlexa(p, "OPEN")
	if err != nil {
		t.Fatalf("ToAlexa error: %v", err)
	}
	want := map[string]any{"value": "ALARM"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToAlexa(OPEN) = %#v, want %#v", got, want)
	}
}

func TestChannelConversion(t *testing.T) {
	p := newTestProperty(t, InterfaceChannelController, "channel", ItemNumber, nil)

	got, err := ToAlexa(p, "7")
	if err != nil {
		t.Fatalf("ToAlexa error: %v", err)
	}
	want := map[string]any{"number": "7"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ToAlexa(7) = %#v, want %#v", got, want)
	}

	native, err := ToNative(p, map[string]any{"number": "12"}, false)
	if err != nil {
		t.Fatalf("ToNative error: %v", err)
	}
	if native != "12" {
		t.Errorf("ToNative = %q, want \"12\"", native)
	}
}

func TestParseNumericState(t *testing.T) {
	p := newTestProperty(t, InterfaceTemperatureSensor, "temperature", ItemNumber, nil)

	tests := []struct {
		state string
		want  float64
		fails bool
	}{
		{"21.5", 21.5, false},
		{"21.5 °C", 21.5, false},
		{"-4 °F", -4, false},
		{"two degrees", 0, true},
		{"  ", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseNumericState(p, tt.state)
		if tt.fails {
			if !errors.Is(err, ErrStateUnavailable) {
				t.Errorf("ParseNumericState(%q) error = %v, want ErrStateUnavailable", tt.state, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseNumericState(%q) error: %v", tt.state, err)
			continue
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ParseNumericState(%q) = %v, want %v", tt.state, got, tt.want)
		}
	}
}
