package capability

import (
	"fmt"
	"strings"
)

// Binding ties a property to the item backing it, plus the contextual
// defaults resolved from the server (regional temperature scale).
type Binding struct {
	// ItemName is the control item.
	ItemName string

	// ItemType is the item's declared type, dimension suffix allowed
	// ("Number:Temperature").
	ItemType string

	// SensorItem optionally names a separate read-only state item.
	SensorItem string

	// Scale is the regional default temperature scale, overridable per
	// property by a scale parameter.
	Scale string
}

// NewProperty composes a resolved Property from a parsed descriptor and its
// item binding. All derivation is pure: registry defaults layered under the
// descriptor's configuration overrides.
//
// Returns ErrUnknownProperty for unregistered capabilities and
// ErrItemTypeMismatch when the schema does not accept the item kind.
func NewProperty(d Descriptor, b Binding) (*Property, error) {
	schema := LookupSchema(d.Interface, d.Property)
	if schema == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownProperty, d.Interface, d.Property)
	}
	if !schema.AcceptsItemType(b.ItemType) {
		return nil, fmt.Errorf("%w: %s.%s does not accept %s items",
			ErrItemTypeMismatch, d.Interface, d.Property, b.ItemType)
	}

	params := d.Parameters
	if params == nil {
		params = map[string]any{}
	}

	p := &Property{
		Interface:  d.Interface,
		Name:       d.Property,
		Component:  d.Component,
		Tag:        d.Tag,
		ItemName:   b.ItemName,
		ItemType:   BaseItemType(b.ItemType),
		SensorItem: b.SensorItem,
		Parameters: params,
		Scale:      b.Scale,
		schema:     schema,
	}

	if sensor := p.ParamString(ParamKeySensor, ""); sensor != "" {
		p.SensorItem = sensor
	}
	if s := strings.ToUpper(p.ParamString(ParamKeyScale, "")); s == ScaleCelsius || s == ScaleFahrenheit {
		p.Scale = s
	}

	p.StateMap = resolveStateMap(schema, p.ItemType, params)
	p.ValueRange = resolveRange(schema, p)
	p.Retrievable = !schema.NonRetrievable && p.ParamBool(ParamKeyRetrievable, true)

	return p, nil
}

// resolveRange layers a configured range parameter over the schema default,
// converting Celsius-declared defaults for Fahrenheit properties.
func resolveRange(schema *PropertySchema, p *Property) *Range {
	if r, ok := p.Parameters[ParamKeyRange].(Range); ok && r.Valid() {
		return &r
	}

	r, ok := schema.DefaultRange(p.ItemType, p.Parameters)
	if !ok {
		return nil
	}

	if schema.ScaledRange && p.EffectiveScale() == ScaleFahrenheit {
		r = Range{
			Minimum:   ConvertTemperature(r.Minimum, ScaleCelsius, ScaleFahrenheit, false),
			Maximum:   ConvertTemperature(r.Maximum, ScaleCelsius, ScaleFahrenheit, false),
			Precision: r.Precision,
		}
	}
	return &r
}

// BaseItemType strips a dimension suffix ("Number:Temperature" -> "Number").
func BaseItemType(itemType string) string {
	base, _, _ := strings.Cut(itemType, ":")
	return base
}

// SynthesizeInstance derives a per-item instance name for multi-instance
// interfaces declared without an explicit one. Keyed by item name so that
// several items exposing the same generic interface on one endpoint stay
// distinct.
func SynthesizeInstance(iface, itemName string) string {
	return strings.TrimSuffix(iface, "Controller") + ":" + itemName
}
