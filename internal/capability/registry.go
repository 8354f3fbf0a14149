package capability

import "strings"

// ParamType declares how a known metadata parameter is coerced.
type ParamType int

// Parameter value types accepted by schemas.
const (
	ParamString ParamType = iota
	ParamBool
	ParamInt
	ParamFloat
	ParamList
	ParamMap
	ParamRange
)

// ConvertFunc converts between native item state and an Alexa typed value.
// ToAlexa receives the native state string; ToNative receives the Alexa
// value and whether it expresses a relative (delta) adjustment.
type (
	ToAlexaFunc  func(p *Property, nativeState string) (any, error)
	ToNativeFunc func(p *Property, alexaValue any, isDelta bool) (string, error)
)

// PropertySchema is the registry's static description of one capability
// property.
type PropertySchema struct {
	// Interface and Property identify the schema.
	Interface string
	Property  string

	// ItemTypes are the accepted item kinds.
	ItemTypes []string

	// Components, when non-empty, is the fixed set of allowed sub-channel
	// names; a component token is only honoured against this list.
	Components []string

	// Tags, when non-empty, is the allowlist of honoured semantic tags.
	Tags []string

	// MultiInstance marks interfaces that may appear multiple times on one
	// endpoint, each with a distinct instance name.
	MultiInstance bool

	// NonDiscoverable exempts the property from discovery and state
	// reporting (handler-internal properties such as alert inputs).
	NonDiscoverable bool

	// NonRetrievable marks properties whose state cannot be queried
	// (command-only interfaces such as scene activation).
	NonRetrievable bool

	// SupportedValues is the enum allowlist for enumerated properties.
	// It must match the Alexa contract exactly: values outside it are
	// filtered at discovery time by the platform.
	SupportedValues []string

	// DefaultStateMaps maps item kind to the default translation table.
	DefaultStateMaps map[string]StateMap

	// CustomMapKey names the parameter whose value selects an entry in
	// CustomStateMaps (per-brand vocabularies).
	CustomMapKey string

	// CustomStateMaps maps a CustomMapKey value (lower-cased) to a
	// vocabulary-specific translation table.
	CustomStateMaps map[string]StateMap

	// DefaultRanges maps item kind to the default numeric domain.
	DefaultRanges map[string]Range

	// CustomRanges maps a CustomMapKey value to a brand-specific numeric
	// domain (colour-temperature ranges per binding).
	CustomRanges map[string]Range

	// ScaledRange marks temperature-valued properties whose default range
	// is declared in Celsius and must be converted when the property's
	// effective scale is Fahrenheit.
	ScaledRange bool

	// Parameters declares the known configuration keys and their types.
	Parameters map[string]ParamType

	// DisplayCategory is the default display category contributed when the
	// property is present on an endpoint.
	DisplayCategory string

	// FriendlyNameAssets are default asset-catalog references used for
	// capability resources on multi-instance interfaces.
	FriendlyNameAssets []string

	// ToAlexa / ToNative are optional conversion functions, consulted
	// before any state-map lookup.
	ToAlexa  ToAlexaFunc
	ToNative ToNativeFunc
}

// AcceptsItemType reports whether the schema accepts the given effective
// item type (dimension suffixes ignored).
func (s *PropertySchema) AcceptsItemType(itemType string) bool {
	base, _, _ := strings.Cut(itemType, ":")
	for _, t := range s.ItemTypes {
		if t == base {
			return true
		}
	}
	return false
}

// AcceptsComponent reports whether the schema declares the component.
func (s *PropertySchema) AcceptsComponent(component string) bool {
	for _, c := range s.Components {
		if strings.EqualFold(c, component) {
			return true
		}
	}
	return false
}

// AcceptsTag reports whether the schema allows the tag.
func (s *PropertySchema) AcceptsTag(tag string) bool {
	for _, t := range s.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// SupportsValue reports whether an Alexa value is in the allowlist.
func (s *PropertySchema) SupportsValue(value string) bool {
	for _, v := range s.SupportedValues {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

// LookupSchema returns the schema for an interface/property pair, or nil
// when unregistered.
func LookupSchema(iface, property string) *PropertySchema {
	for _, s := range registry[iface] {
		if s.Property == property {
			return s
		}
	}
	return nil
}

// DefaultRange returns the schema's effective default numeric domain for an
// item kind, honouring a CustomMapKey-selected brand override. The second
// result reports whether any default exists.
func (s *PropertySchema) DefaultRange(itemType string, params map[string]any) (Range, bool) {
	if s.CustomMapKey != "" {
		if sel, ok := params[s.CustomMapKey].(string); ok {
			if r, ok := s.CustomRanges[strings.ToLower(sel)]; ok {
				return r, true
			}
		}
	}

	base, _, _ := strings.Cut(itemType, ":")
	r, ok := s.DefaultRanges[base]
	return r, ok
}
