package capability

import (
	"regexp"
	"strconv"
	"strings"
)

// tokenPattern matches one capability token:
// InterfaceName.propertyName[:component][#tag]
var tokenPattern = regexp.MustCompile(
	`^([A-Z][A-Za-z0-9]+)\.([a-z][A-Za-z0-9]+)(?::([a-z][A-Za-z0-9]*))?(?:#([a-z][A-Za-z0-9]*))?$`)

// legacyLabels maps deprecated metadata labels onto their canonical
// capability tokens. A legacy label may expand to several tokens; the
// endpoint builder's item-kind filtering keeps only the applicable ones
// (a "Lighting" switch gets power control, a "Lighting" dimmer also gets
// brightness).
var legacyLabels = map[string][]string{
	"Switchable":                 {"PowerController.powerState"},
	"Lighting":                   {"PowerController.powerState", "BrightnessController.brightness"},
	"ColorTemperature":           {"ColorTemperatureController.colorTemperatureInKelvin"},
	"CurrentTemperature":         {"TemperatureSensor.temperature"},
	"TargetTemperature":          {"ThermostatController.targetSetpoint"},
	"UpperTemperature":           {"ThermostatController.upperSetpoint"},
	"LowerTemperature":           {"ThermostatController.lowerSetpoint"},
	"Lock":                       {"LockController.lockState"},
	"Activity":                   {"SceneController.scene"},
	"homekit:HeatingCoolingMode": {"ThermostatController.thermostatMode"},
	"homekit:TargetTemperature":  {"ThermostatController.targetSetpoint"},
	"homekit:CurrentTemperature": {"TemperatureSensor.temperature"},
}

// IsLegacyLabel reports whether a token is a recognised deprecated label.
func IsLegacyLabel(token string) bool {
	_, ok := legacyLabels[token]
	return ok
}

// ParseMetadata parses an item's raw capability metadata into descriptors.
//
// The value is a comma-separated list of capability tokens; config is the
// metadata's key/value configuration, attached to every descriptor after
// schema-aware type coercion.
//
// Forward compatibility: tokens that do not match the expected pattern or
// reference an unregistered capability are silently ignored. A component is
// only honoured when the schema declares a fixed component set; a tag only
// when the schema's allowed-tags list contains it; otherwise the token is
// dropped.
func ParseMetadata(value string, config map[string]any) []Descriptor {
	var out []Descriptor

	for _, token := range strings.Split(value, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}

		tokens := []string{token}
		if canonical, ok := legacyLabels[token]; ok {
			tokens = canonical
		}

		for _, tok := range tokens {
			d, ok := parseToken(tok)
			if !ok {
				continue
			}

			schema := LookupSchema(d.Interface, d.Property)
			if schema == nil {
				continue
			}
			if d.Component != "" && !schema.AcceptsComponent(d.Component) {
				continue
			}
			if d.Tag != "" && !schema.AcceptsTag(d.Tag) {
				continue
			}

			d.Parameters = CoerceParameters(schema, config)
			out = append(out, d)
		}
	}

	return out
}

// parseToken splits one capability token into its descriptor parts.
func parseToken(token string) (Descriptor, bool) {
	m := tokenPattern.FindStringSubmatch(token)
	if m == nil {
		return Descriptor{}, false
	}

	return Descriptor{
		Interface: m[1],
		Property:  m[2],
		Component: m[3],
		Tag:       m[4],
	}, true
}

// CoerceParameters type-coerces known parameter keys per the schema's
// declarations and passes unknown keys through untouched (user state-map
// overrides use free-form upper-case keys).
//
// Values that fail coercion are dropped rather than propagated: a malformed
// range parameter must not poison the schema default.
func CoerceParameters(schema *PropertySchema, raw map[string]any) map[string]any {
	if len(raw) == 0 {
		return map[string]any{}
	}

	out := make(map[string]any, len(raw))
	for key, value := range raw {
		pt, known := schema.Parameters[key]
		if !known {
			out[key] = value
			continue
		}

		coerced, ok := coerceValue(pt, value)
		if !ok {
			continue
		}
		out[key] = coerced
	}

	return out
}

func coerceValue(pt ParamType, value any) (any, bool) {
	switch pt {
	case ParamBool:
		return coerceBool(value), true
	case ParamInt:
		f, err := toFloat(value)
		if err != nil {
			return nil, false
		}
		return int(f), true
	case ParamFloat:
		f, err := toFloat(value)
		if err != nil {
			return nil, false
		}
		return f, true
	case ParamList:
		return coerceList(value)
	case ParamMap:
		return coerceMap(value)
	case ParamRange:
		return coerceRange(value)
	default:
		switch v := value.(type) {
		case string:
			return v, true
		default:
			return nil, false
		}
	}
}

// coerceBool treats "0", "false" and "no" (any case) as false and
// everything else as true, matching the declarative metadata convention.
func coerceBool(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case float64:
		return v != 0
	case int:
		return v != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "0", "false", "no":
			return false
		}
		return true
	default:
		return value != nil
	}
}

// coerceList splits a comma-separated string into trimmed, de-duplicated
// entries, preserving declaration order.
func coerceList(value any) ([]string, bool) {
	var parts []string
	switch v := value.(type) {
	case []string:
		parts = v
	case []any:
		for _, e := range v {
			if s, ok := e.(string); ok {
				parts = append(parts, s)
			}
		}
	case string:
		parts = strings.Split(v, ",")
	default:
		return nil, false
	}

	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}

	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// coerceMap accepts either a structured map or a "KEY=value,KEY2=value2"
// string.
func coerceMap(value any) (map[string]string, bool) {
	switch v := value.(type) {
	case map[string]string:
		return v, true
	case map[string]any:
		out := make(map[string]string, len(v))
		for k, e := range v {
			if s, ok := e.(string); ok {
				out[k] = s
			}
		}
		return out, len(out) > 0
	case string:
		out := map[string]string{}
		for _, pair := range strings.Split(v, ",") {
			k, val, found := strings.Cut(strings.TrimSpace(pair), "=")
			if !found || k == "" {
				continue
			}
			out[strings.TrimSpace(k)] = strings.TrimSpace(val)
		}
		return out, len(out) > 0
	default:
		return nil, false
	}
}

// coerceRange parses "min:max[:precision]" and enforces the range
// invariants: min < max, precision (if given) positive and below the span.
func coerceRange(value any) (Range, bool) {
	s, ok := value.(string)
	if !ok {
		return Range{}, false
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Range{}, false
	}

	min, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Range{}, false
	}
	max, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Range{}, false
	}

	r := Range{Minimum: min, Maximum: max}
	if len(parts) == 3 {
		prec, err := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err != nil {
			return Range{}, false
		}
		r.Precision = prec
	}

	if !r.Valid() {
		return Range{}, false
	}
	return r, true
}
