package capability

import (
	"fmt"
	"strings"
)

// Item kinds accepted by property schemas. These mirror the automation
// server's primitive item types, without dimension suffixes.
const (
	ItemSwitch        = "Switch"
	ItemDimmer        = "Dimmer"
	ItemColor         = "Color"
	ItemNumber        = "Number"
	ItemString        = "String"
	ItemContact       = "Contact"
	ItemRollershutter = "Rollershutter"
	ItemPlayer        = "Player"
	ItemGroup         = "Group"
)

// Temperature scales used by property normalisation.
const (
	ScaleCelsius    = "CELSIUS"
	ScaleFahrenheit = "FAHRENHEIT"
	ScaleKelvin     = "KELVIN"
)

// Semantic role tags honoured by property schemas. A tagged property is a
// read-only role: never selected as a control target, never controllable in
// discovery.
const (
	TagSensor  = "sensor"
	TagBattery = "battery"
)

// Descriptor is one parsed capability token from item metadata, with the
// item's metadata configuration attached.
//
// Token format: InterfaceName.propertyName[:component][#tag]
type Descriptor struct {
	// Interface is the short Alexa interface name ("ThermostatController").
	Interface string

	// Property is the property name ("upperSetpoint").
	Property string

	// Component subdivides a property into named sub-channels
	// ("treble" for equalizer bands). Empty for plain properties.
	Component string

	// Tag distinguishes same-named properties used in different semantic
	// roles ("sensor"). Empty for the default role.
	Tag string

	// Parameters is the metadata configuration, uncoerced.
	Parameters map[string]any
}

// Range is a numeric value domain.
type Range struct {
	Minimum   float64 `json:"minimum"`
	Maximum   float64 `json:"maximum"`
	Precision float64 `json:"precision,omitempty"`
}

// Valid reports whether the range satisfies the model invariants:
// min < max, and precision (if given) non-zero and smaller than the span.
func (r Range) Valid() bool {
	if r.Minimum >= r.Maximum {
		return false
	}
	if r.Precision != 0 && (r.Precision < 0 || r.Precision >= r.Maximum-r.Minimum) {
		return false
	}
	return true
}

// Span returns the range width.
func (r Range) Span() float64 {
	return r.Maximum - r.Minimum
}

// Property is one resolved controllable/reportable attribute bound to an
// item. It is the unit handlers read and write.
type Property struct {
	// Interface and Name identify the schema ("ThermostatController",
	// "upperSetpoint").
	Interface string
	Name      string

	// Instance disambiguates multi-instance interfaces on one endpoint.
	Instance string

	// Component is the sub-channel for component properties.
	Component string

	// Tag marks the property's semantic role.
	Tag string

	// ItemName is the control item this property is bound to.
	ItemName string

	// ItemType is the item's effective kind (dimension stripped).
	ItemType string

	// SensorItem optionally names a separate read-only item used for state
	// queries on decoupled devices. Empty means ItemName is read too.
	SensorItem string

	// Parameters is the coerced configuration for this property.
	Parameters map[string]any

	// StateMap is the resolved bidirectional enum translation table.
	// Nil for purely numeric or conversion-function properties.
	StateMap StateMap

	// ValueRange is the effective numeric domain, when the property is
	// numeric.
	ValueRange *Range

	// Scale is the temperature scale for temperature-valued properties.
	Scale string

	// Retrievable reports whether the property's state may be queried and
	// reported as a context property.
	Retrievable bool

	schema *PropertySchema
}

// Schema returns the registry schema backing this property, resolving it
// lazily; properties rehydrated from a cookie carry no schema pointer.
func (p *Property) Schema() *PropertySchema {
	if p.schema == nil {
		p.schema = LookupSchema(p.Interface, p.Name)
	}
	return p.schema
}

// ReadItem returns the item queried for state: the sensor item when one is
// configured, the control item otherwise.
func (p *Property) ReadItem() string {
	if p.SensorItem != "" {
		return p.SensorItem
	}
	return p.ItemName
}

// Discoverable reports whether the property participates in discovery.
func (p *Property) Discoverable() bool {
	if s := p.Schema(); s != nil && s.NonDiscoverable {
		return false
	}
	return true
}

// ParamString returns a string parameter, or def when absent.
func (p *Property) ParamString(key, def string) string {
	if v, ok := p.Parameters[key].(string); ok && v != "" {
		return v
	}
	return def
}

// ParamBool returns a boolean parameter, or def when absent.
func (p *Property) ParamBool(key string, def bool) bool {
	if v, ok := p.Parameters[key].(bool); ok {
		return v
	}
	return def
}

// ParamFloat returns a numeric parameter, or def when absent.
func (p *Property) ParamFloat(key string, def float64) float64 {
	switch v := p.Parameters[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

// ParamList returns a list parameter, or nil when absent.
func (p *Property) ParamList(key string) []string {
	switch v := p.Parameters[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			out = append(out, fmt.Sprint(e))
		}
		return out
	}
	return nil
}

// Capability is one Alexa interface instance attached to an endpoint.
type Capability struct {
	// Interface is the short interface name ("RangeController").
	Interface string

	// Instance disambiguates multiple instances of a multi-instance
	// interface. Empty for single-instance interfaces.
	Instance string

	// Properties are the resolved properties, in declaration order.
	Properties []*Property
}

// Key returns the uniqueness key of the capability within an endpoint.
func (c *Capability) Key() string {
	if c.Instance == "" {
		return c.Interface
	}
	return c.Interface + ":" + c.Instance
}

// Namespace returns the full Alexa interface namespace.
func (c *Capability) Namespace() string {
	return "Alexa." + c.Interface
}

// Property returns the first untagged property with the given name, falling
// back to a tagged one when no untagged property exists. Untagged properties
// are the control targets; tagged siblings only serve reads.
func (c *Capability) Property(name string) *Property {
	var tagged *Property
	for _, p := range c.Properties {
		if p.Name != name {
			continue
		}
		if p.Tag == "" {
			return p
		}
		if tagged == nil {
			tagged = p
		}
	}
	return tagged
}

// PropertyTagged returns the first property with the given name and tag.
func (c *Capability) PropertyTagged(name, tag string) *Property {
	for _, p := range c.Properties {
		if p.Name == name && p.Tag == tag {
			return p
		}
	}
	return nil
}

// ReadProperty returns the property consulted for state queries: the
// sensor-tagged sibling when one is declared, the control property
// otherwise.
func (c *Capability) ReadProperty(name string) *Property {
	if p := c.PropertyTagged(name, TagSensor); p != nil {
		return p
	}
	return c.Property(name)
}

// ComponentProperties returns all properties with the given name that carry
// a component, in declaration order.
func (c *Capability) ComponentProperties(name string) []*Property {
	var out []*Property
	for _, p := range c.Properties {
		if p.Name == name && p.Component != "" {
			out = append(out, p)
		}
	}
	return out
}

// InterfaceFromNamespace strips the "Alexa." prefix from a directive
// namespace ("Alexa.PowerController" -> "PowerController").
func InterfaceFromNamespace(namespace string) string {
	return strings.TrimPrefix(namespace, "Alexa.")
}
