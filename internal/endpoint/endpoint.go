// Package endpoint builds the Alexa-facing device model from the
// automation server's item graph.
//
// An Endpoint is one voice-controllable device. Its capabilities are
// resolved from item capability metadata (or from a device-type bundle),
// merged by (interface, instance), and round-tripped through the platform
// cookie between discovery and later directives.
package endpoint

import (
	"github.com/nerrad567/gray-logic-alexa/internal/capability"
)

// Endpoint is one Alexa-visible device, backed by a single item or by a
// group item aggregating its members.
type Endpoint struct {
	// ID is the stable endpoint identifier, the backing item's name.
	ID string

	// FriendlyName is the voice-addressable label.
	FriendlyName string

	// Description is shown in the companion app.
	Description string

	// Categories are the display categories, in contribution order,
	// without duplicates.
	Categories []string

	// Capabilities are the resolved interface instances, in declaration
	// order. The (interface, instance) pair is unique within the slice.
	Capabilities []*capability.Capability
}

// Capability returns the capability with the given interface and instance,
// or nil.
func (e *Endpoint) Capability(iface, instance string) *capability.Capability {
	for _, c := range e.Capabilities {
		if c.Interface == iface && c.Instance == instance {
			return c
		}
	}
	return nil
}

// AddProperty merges a property into the endpoint, creating the
// (interface, instance) capability on first use. A property that duplicates
// an existing (name, component, tag) triple within the capability is
// dropped rather than doubled.
func (e *Endpoint) AddProperty(instance string, p *capability.Property) {
	p.Instance = instance

	c := e.Capability(p.Interface, instance)
	if c == nil {
		c = &capability.Capability{Interface: p.Interface, Instance: instance}
		e.Capabilities = append(e.Capabilities, c)
	}

	for _, existing := range c.Properties {
		if existing.Name == p.Name && existing.Component == p.Component && existing.Tag == p.Tag {
			return
		}
	}
	c.Properties = append(c.Properties, p)
}

// AddCategory appends a display category once.
func (e *Endpoint) AddCategory(category string) {
	if category == "" {
		return
	}
	for _, c := range e.Categories {
		if c == category {
			return
		}
	}
	e.Categories = append(e.Categories, category)
}

// HasDeclared reports whether an explicit declaration for the
// interface/property pair already exists on the endpoint, regardless of
// instance. Device-type implied defaults consult this so they never
// override an explicit declaration.
func (e *Endpoint) HasDeclared(iface, property string) bool {
	for _, c := range e.Capabilities {
		if c.Interface != iface {
			continue
		}
		if c.Property(property) != nil {
			return true
		}
	}
	return false
}

// Discoverable reports whether the endpoint may appear in a discovery
// response: at least one capability carries a discoverable property.
func (e *Endpoint) Discoverable() bool {
	for _, c := range e.Capabilities {
		for _, p := range c.Properties {
			if p.Discoverable() {
				return true
			}
		}
	}
	return false
}

// ReportableProperties returns the properties eligible for context-property
// reporting: retrievable, discoverable, and bound to a readable item. When a
// capability declares both a control property and a sensor-tagged sibling,
// the sibling is the authoritative reading and the control property yields
// to it.
func (e *Endpoint) ReportableProperties() []*capability.Property {
	var out []*capability.Property
	for _, c := range e.Capabilities {
		for _, p := range c.Properties {
			if !p.Retrievable || !p.Discoverable() || p.ReadItem() == "" {
				continue
			}
			if p.Tag == "" {
				if s := c.PropertyTagged(p.Name, capability.TagSensor); s != nil &&
					s.Component == p.Component && s.Retrievable {
					continue
				}
			}
			out = append(out, p)
		}
	}
	return out
}
