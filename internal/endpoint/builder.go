package endpoint

import (
	"strings"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
	"github.com/nerrad567/gray-logic-alexa/internal/capability"
	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-alexa/internal/items"
)

// Builder resolves items into discoverable endpoints.
type Builder struct {
	namespace string
	scale     string
	logger    *logging.Logger
}

// NewBuilder creates a Builder.
//
// Parameters:
//   - namespace: the metadata namespace carrying capability declarations.
//   - settings: the server's regional settings, deciding the default
//     temperature scale.
//   - logger: structured logger for skipped-item diagnostics.
func NewBuilder(namespace string, settings items.RegionalSettings, logger *logging.Logger) *Builder {
	scale := capability.ScaleCelsius
	if !settings.SIUnits() {
		scale = capability.ScaleFahrenheit
	}
	return &Builder{namespace: namespace, scale: scale, logger: logger}
}

// Build resolves every tagged item into an endpoint, dropping items that
// yield no discoverable capability and capping the result at the
// platform's discovery limit. Order follows the input list, so truncation
// is deterministic.
func (b *Builder) Build(list []items.Item) []*Endpoint {
	var out []*Endpoint
	for i := range list {
		ep := b.BuildEndpoint(&list[i])
		if ep == nil || !ep.Discoverable() {
			continue
		}
		out = append(out, ep)
		if len(out) == alexa.MaxDiscoveryEndpoints {
			b.logger.Warn("discovery endpoint limit reached, remaining items dropped",
				"limit", alexa.MaxDiscoveryEndpoints)
			break
		}
	}
	return out
}

// BuildEndpoint resolves one item (with its members, for groups) into an
// endpoint. Returns nil when the item carries no usable declaration.
func (b *Builder) BuildEndpoint(item *items.Item) *Endpoint {
	md, ok := item.Metadata[b.namespace]
	if !ok || strings.TrimSpace(md.Value) == "" {
		return nil
	}

	ep := &Endpoint{
		ID:           item.Name,
		FriendlyName: friendlyName(item),
		Description:  item.Type + " " + item.Name + " via " + b.namespace,
	}

	explicit, implied := splitDeclaration(md.Value)

	// Explicit declarations first: device-type defaults must never
	// override them.
	b.addDescriptors(ep, capability.ParseMetadata(explicit, md.Config), item)

	folded := false
	for _, name := range implied {
		dt, ok := lookupDeviceType(name)
		if !ok {
			b.logger.Debug("unrecognised device type tag skipped",
				"item", item.Name, "tag", name)
			continue
		}
		for _, c := range dt.categories {
			ep.AddCategory(c)
		}
		b.applyBundle(ep, dt, item, md.Config)

		if item.IsGroup() && !folded {
			b.foldMembers(ep, item)
			folded = true
		}
	}

	if len(ep.Capabilities) == 0 {
		return nil
	}
	return ep
}

// addDescriptors resolves parsed descriptors against the item and merges
// the resulting properties into the endpoint.
func (b *Builder) addDescriptors(ep *Endpoint, descriptors []capability.Descriptor, item *items.Item) {
	for _, d := range descriptors {
		b.addDescriptor(ep, d, item, false)
	}
}

// addDescriptor resolves one descriptor. implied marks device-type bundle
// defaults, which yield silently to existing explicit declarations and to
// item-kind mismatches.
func (b *Builder) addDescriptor(ep *Endpoint, d capability.Descriptor, item *items.Item, implied bool) {
	if implied && ep.HasDeclared(d.Interface, d.Property) {
		return
	}

	p, err := capability.NewProperty(d, capability.Binding{
		ItemName: item.Name,
		ItemType: item.EffectiveType(),
		Scale:    b.scale,
	})
	if err != nil {
		if !implied {
			b.logger.Debug("capability declaration skipped",
				"item", item.Name, "interface", d.Interface, "property", d.Property, "error", err)
		}
		return
	}

	if p.Interface == capability.InterfaceRangeController &&
		p.ParamString(capability.ParamKeyUnitOfMeasure, "") == "" {
		if unit := dimensionUnit(item.Dimension(), b.scale); unit != "" {
			p.Parameters[capability.ParamKeyUnitOfMeasure] = unit
		}
	}

	ep.AddProperty(b.instanceFor(p, item), p)
	if s := p.Schema(); s != nil {
		ep.AddCategory(s.DisplayCategory)
	}
}

// dimensionUnit maps an item's dimension suffix onto the platform unit
// catalogue entry used when a range declares no unit of its own.
func dimensionUnit(dimension, scale string) string {
	switch dimension {
	case "Temperature":
		if scale == capability.ScaleFahrenheit {
			return "Temperature.Fahrenheit"
		}
		return "Temperature.Celsius"
	case "Angle":
		return "Angle.Degrees"
	case "Dimensionless":
		return "Percent"
	}
	return ""
}

// instanceFor returns the capability instance the property belongs to: the
// explicit instance parameter when given, a synthesized per-item one for
// multi-instance interfaces, empty otherwise.
func (b *Builder) instanceFor(p *capability.Property, item *items.Item) string {
	if instance := p.ParamString(capability.ParamKeyInstance, ""); instance != "" {
		return instance
	}
	if s := p.Schema(); s != nil && s.MultiInstance {
		return capability.SynthesizeInstance(p.Interface, item.Name)
	}
	return ""
}

// applyBundle adds a device type's implied capabilities, filtered through
// each schema's item-kind acceptance.
func (b *Builder) applyBundle(ep *Endpoint, dt deviceType, item *items.Item, config map[string]any) {
	if item.IsGroup() && item.GroupType == "" {
		// Pure aggregation group: capabilities come from the members.
		return
	}
	for _, d := range capability.ParseMetadata(strings.Join(dt.tokens, ","), config) {
		b.addDescriptor(ep, d, item, true)
	}
}

// foldMembers merges one level of group members into the endpoint, each
// member contributing per its own metadata and item kind. Nested groups
// are folded by their group type but not recursed into.
func (b *Builder) foldMembers(ep *Endpoint, group *items.Item) {
	for i := range group.Members {
		member := &group.Members[i]
		md, ok := member.Metadata[b.namespace]
		if !ok || strings.TrimSpace(md.Value) == "" {
			continue
		}

		explicit, implied := splitDeclaration(md.Value)
		b.addDescriptors(ep, capability.ParseMetadata(explicit, md.Config), member)

		for _, name := range implied {
			dt, ok := lookupDeviceType(name)
			if !ok {
				continue
			}
			for _, c := range dt.categories {
				ep.AddCategory(c)
			}
			b.applyBundle(ep, dt, member, md.Config)
		}
	}
}

// splitDeclaration partitions a raw metadata value into the explicit
// capability token list and the device-type tag names. Capability tokens
// carry a dot or are known legacy labels; bare names are device types.
func splitDeclaration(value string) (explicit string, implied []string) {
	var tokens []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.Contains(part, ".") || capability.IsLegacyLabel(part) {
			tokens = append(tokens, part)
			continue
		}
		implied = append(implied, part)
	}
	return strings.Join(tokens, ","), implied
}

// friendlyName prefers the item label and falls back to a readable form of
// the item name.
func friendlyName(item *items.Item) string {
	if item.Label != "" {
		return item.Label
	}
	return strings.ReplaceAll(item.Name, "_", " ")
}
