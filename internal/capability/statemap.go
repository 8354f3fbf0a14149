package capability

import "strings"

// StateMapping is one bidirectional pair between an Alexa enumerated value
// and its native item representation.
type StateMapping struct {
	Alexa  string `json:"a"`
	Native string `json:"n"`
}

// StateMap is an ordered bidirectional lookup table between native item
// state and Alexa enumerated values.
//
// Order matters: native-to-Alexa lookup must be deterministic when several
// Alexa states share a native representation, and the first declared pair
// wins. Alexa-to-native lookup is injective by construction (a map would
// not preserve declaration order, hence the slice).
type StateMap []StateMapping

// ToAlexa returns the Alexa value for a native state, matching
// case-insensitively. The second result reports whether a pair matched.
func (m StateMap) ToAlexa(native string) (string, bool) {
	for _, pair := range m {
		if strings.EqualFold(pair.Native, native) {
			return pair.Alexa, true
		}
	}
	return "", false
}

// ToNative returns the native representation of an Alexa value.
func (m StateMap) ToNative(alexa string) (string, bool) {
	for _, pair := range m {
		if strings.EqualFold(pair.Alexa, alexa) {
			return pair.Native, true
		}
	}
	return "", false
}

// AlexaValues returns the Alexa-side values in declaration order, without
// duplicates.
func (m StateMap) AlexaValues() []string {
	seen := make(map[string]struct{}, len(m))
	out := make([]string, 0, len(m))
	for _, pair := range m {
		if _, ok := seen[pair.Alexa]; ok {
			continue
		}
		seen[pair.Alexa] = struct{}{}
		out = append(out, pair.Alexa)
	}
	return out
}

// resolveStateMap computes a property's effective state map.
//
// Precedence (first match wins):
//  1. User-supplied override pairs in the metadata parameters: any
//     parameter whose key is one of the schema's supported values maps
//     that Alexa value to the parameter's native string.
//  2. A schema custom map selected by the schema's CustomMapKey parameter
//     value (per-brand vocabularies, e.g. thermostat bindings).
//  3. The schema default map for the item kind.
//
// Returns nil when the property has no enumerated representation.
func resolveStateMap(schema *PropertySchema, itemType string, params map[string]any) StateMap {
	base := schema.DefaultStateMaps[itemType]

	if schema.CustomMapKey != "" {
		if sel, ok := params[schema.CustomMapKey].(string); ok {
			if custom, ok := schema.CustomStateMaps[strings.ToLower(sel)]; ok {
				base = custom
			}
		}
	}

	if len(schema.SupportedValues) == 0 {
		return base
	}

	// User overrides replace pairs value by value, preserving schema order
	// for untouched entries and appending newly introduced values.
	var overridden StateMap
	used := make(map[string]struct{})

	for _, pair := range base {
		if native, ok := stringParam(params, pair.Alexa); ok {
			overridden = append(overridden, StateMapping{Alexa: pair.Alexa, Native: native})
		} else {
			overridden = append(overridden, pair)
		}
		used[pair.Alexa] = struct{}{}
	}

	for _, alexa := range schema.SupportedValues {
		if _, ok := used[alexa]; ok {
			continue
		}
		if native, ok := stringParam(params, alexa); ok {
			overridden = append(overridden, StateMapping{Alexa: alexa, Native: native})
		}
	}

	return overridden
}

func stringParam(params map[string]any, key string) (string, bool) {
	v, ok := params[key].(string)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
