package endpoint

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
	"github.com/nerrad567/gray-logic-alexa/internal/capability"
)

const interfaceVersion = "3"

// Discovery translates the endpoint into its discovery-response
// description: capability interfaces, display categories, and the cookie
// that carries the model back on later directives.
//
// Capability interfaces beyond the platform's per-endpoint limit are
// truncated in declaration order.
func (e *Endpoint) Discovery(manufacturer, locale string) (alexa.DiscoveryEndpoint, error) {
	cookie, err := EncodeCookie(e)
	if err != nil {
		return alexa.DiscoveryEndpoint{}, err
	}

	caps := []alexa.CapabilityInterface{baseInterface()}
	for _, c := range e.Capabilities {
		ci, ok := capabilityInterface(c, locale)
		if !ok {
			continue
		}
		caps = append(caps, ci)
		if len(caps) == alexa.MaxEndpointCapabilities {
			break
		}
	}

	categories := e.Categories
	if len(categories) == 0 {
		categories = []string{"OTHER"}
	}

	return alexa.DiscoveryEndpoint{
		EndpointID:        e.ID,
		ManufacturerName:  manufacturer,
		Description:       e.Description,
		FriendlyName:      e.FriendlyName,
		DisplayCategories: categories,
		AdditionalAttributes: &alexa.AdditionalAttributes{
			Manufacturer: manufacturer,
			Model:        "item",
		},
		Cookie:       cookie,
		Capabilities: caps,
	}, nil
}

// baseInterface is the mandatory Alexa interface every endpoint declares.
func baseInterface() alexa.CapabilityInterface {
	return alexa.CapabilityInterface{
		Type:      "AlexaInterface",
		Interface: "Alexa",
		Version:   interfaceVersion,
	}
}

// capabilityInterface renders one capability. The second result is false
// when the capability has no discoverable property.
func capabilityInterface(c *capability.Capability, locale string) (alexa.CapabilityInterface, bool) {
	var (
		supported   []alexa.SupportedProperty
		seen        = map[string]struct{}{}
		retrievable bool
		first       *capability.Property
	)
	for _, p := range c.Properties {
		if !p.Discoverable() {
			continue
		}
		if first == nil {
			first = p
		}
		if p.Retrievable {
			retrievable = true
		}
		if _, ok := seen[p.Name]; !ok {
			seen[p.Name] = struct{}{}
			supported = append(supported, alexa.SupportedProperty{Name: p.Name})
		}
	}
	if first == nil {
		return alexa.CapabilityInterface{}, false
	}

	ci := alexa.CapabilityInterface{
		Type:      "AlexaInterface",
		Interface: c.Namespace(),
		Instance:  c.Instance,
		Version:   interfaceVersion,
	}

	if s := first.Schema(); s == nil || !s.NonRetrievable {
		ci.Properties = &alexa.InterfaceProperties{
			Supported:   supported,
			Retrievable: retrievable,
		}
		// A tagged property is a read-only role.
		if first.ParamBool(capability.ParamKeyNonControllable, false) || first.Tag != "" {
			nc := true
			ci.Properties.NonControllable = &nc
		}
	}

	if c.Instance != "" {
		ci.CapabilityResources = capabilityResources(first, locale)
		ci.Semantics = semanticsFor(first)
	}

	switch c.Interface {
	case capability.InterfaceThermostatController:
		ci.Configuration = thermostatConfiguration(c)
	case capability.InterfaceModeController:
		ci.Configuration = modeConfiguration(first, locale)
	case capability.InterfaceRangeController:
		ci.Configuration = rangeConfiguration(first, locale)
	case capability.InterfaceSecurityPanelController:
		ci.Configuration = securityPanelConfiguration(c)
	case capability.InterfaceEqualizerController:
		ci.Configurations = equalizerConfigurations(c)
	case capability.InterfacePlaybackController:
		ci.SupportedOperations = playbackOperations(c)
	case capability.InterfaceSceneController:
		deactivate := first.ParamBool("supportsDeactivation", false)
		ci.SupportsDeactivation = &deactivate
	case capability.InterfaceInputController:
		ci.Configuration = inputConfiguration(first)
	}

	return ci, true
}

// capabilityResources builds the friendly-name resources of a
// multi-instance capability: configured text labels first, schema asset
// references as the fallback.
func capabilityResources(p *capability.Property, locale string) *alexa.Resources {
	var names []alexa.FriendlyName
	for _, label := range p.ParamList(capability.ParamKeyFriendlyNames) {
		if strings.HasPrefix(label, "@") {
			names = append(names, alexa.AssetFriendlyName("Alexa."+strings.TrimPrefix(label, "@")))
			continue
		}
		names = append(names, alexa.TextFriendlyName(label, locale))
	}

	if len(names) == 0 && p.Tag == capability.TagBattery {
		names = append(names, alexa.TextFriendlyName("Battery level", locale))
	}
	if len(names) == 0 {
		if s := p.Schema(); s != nil {
			for _, asset := range s.FriendlyNameAssets {
				names = append(names, alexa.AssetFriendlyName("Alexa."+strings.TrimPrefix(asset, "@")))
			}
		}
	}
	if len(names) == 0 {
		names = append(names, alexa.TextFriendlyName(p.ItemName, locale))
	}
	return &alexa.Resources{FriendlyNames: names}
}

// semanticsFor renders the semantic mappings declared on a mode or range
// property. actionMappings entries pair a catalog action with a target value
// or a parenthesised delta ("Close=0", "Raise=(+10)"); stateMappings pair a
// catalog state with a value or a "min:max" band ("Closed=0", "Open=1:100").
// Entries that do not parse are dropped, matching the metadata convention.
func semanticsFor(p *capability.Property) *alexa.Semantics {
	actions, _ := p.Parameters[capability.ParamKeyActionMappings].(map[string]string)
	states, _ := p.Parameters[capability.ParamKeyStateMappings].(map[string]string)
	if len(actions) == 0 && len(states) == 0 {
		return nil
	}

	sem := &alexa.Semantics{}
	for _, name := range sortedKeys(actions) {
		if m, ok := actionMapping(p, name, actions[name]); ok {
			sem.ActionMappings = append(sem.ActionMappings, m)
		}
	}
	for _, name := range sortedKeys(states) {
		if m, ok := stateMapping(p, name, states[name]); ok {
			sem.StateMappings = append(sem.StateMappings, m)
		}
	}

	if len(sem.ActionMappings) == 0 && len(sem.StateMappings) == 0 {
		return nil
	}
	return sem
}

// actionMapping binds one semantic action to the directive it triggers.
func actionMapping(p *capability.Property, action, value string) (alexa.ActionMapping, bool) {
	m := alexa.ActionMapping{
		Type:    "ActionsToDirective",
		Actions: []string{semanticName(action, "Alexa.Actions.")},
	}

	switch p.Interface {
	case capability.InterfaceModeController:
		m.Directive = alexa.SemanticDirective{
			Name:    "SetMode",
			Payload: map[string]any{"mode": value},
		}
	case capability.InterfaceRangeController:
		if inner, ok := strings.CutPrefix(value, "("); ok && strings.HasSuffix(inner, ")") {
			delta, err := strconv.ParseFloat(strings.TrimSuffix(inner, ")"), 64)
			if err != nil {
				return alexa.ActionMapping{}, false
			}
			m.Directive = alexa.SemanticDirective{
				Name:    "AdjustRangeValue",
				Payload: map[string]any{"rangeValueDelta": delta, "rangeValueDeltaDefault": false},
			}
			return m, true
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return alexa.ActionMapping{}, false
		}
		m.Directive = alexa.SemanticDirective{
			Name:    "SetRangeValue",
			Payload: map[string]any{"rangeValue": v},
		}
	default:
		return alexa.ActionMapping{}, false
	}
	return m, true
}

// stateMapping binds one semantic state to a property value or range.
func stateMapping(p *capability.Property, state, value string) (alexa.StateMapping, bool) {
	m := alexa.StateMapping{
		Type:   "StatesToValue",
		States: []string{semanticName(state, "Alexa.States.")},
	}

	switch p.Interface {
	case capability.InterfaceModeController:
		m.Value = value
	case capability.InterfaceRangeController:
		if lo, hi, banded := strings.Cut(value, ":"); banded {
			min, errLo := strconv.ParseFloat(lo, 64)
			max, errHi := strconv.ParseFloat(hi, 64)
			if errLo != nil || errHi != nil {
				return alexa.StateMapping{}, false
			}
			m.Type = "StatesToRange"
			m.Range = map[string]any{"minimumValue": min, "maximumValue": max}
			return m, true
		}
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return alexa.StateMapping{}, false
		}
		m.Value = v
	default:
		return alexa.StateMapping{}, false
	}
	return m, true
}

// semanticName qualifies a bare catalog name ("Close" -> "Alexa.Actions.Close").
func semanticName(name, prefix string) string {
	if strings.Contains(name, ".") {
		return name
	}
	return prefix + name
}

// sortedKeys returns the map keys sorted, so rendered mappings are stable
// across builds.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// playbackOperations lists the transport operations the playback state map
// can translate, in declaration order.
func playbackOperations(c *capability.Capability) []string {
	p := c.Property("playback")
	if p == nil {
		return nil
	}
	return p.StateMap.AlexaValues()
}

// thermostatConfiguration reports the mode vocabulary the device answers
// to, from the resolved mode property's translation table.
func thermostatConfiguration(c *capability.Capability) map[string]any {
	mode := c.Property("thermostatMode")
	if mode == nil {
		return nil
	}
	modes := mode.StateMap.AlexaValues()
	if declared := mode.ParamList(capability.ParamKeySupportedModes); len(declared) > 0 {
		modes = intersect(modes, declared)
	}
	if len(modes) == 0 {
		return nil
	}
	return map[string]any{"supportedModes": modes}
}

// modeConfiguration renders the declared modes with their spoken labels.
// supportedModes entries take the form "Value=Label:Synonym".
func modeConfiguration(p *capability.Property, locale string) map[string]any {
	declared := p.ParamList(capability.ParamKeySupportedModes)
	if len(declared) == 0 {
		return nil
	}

	modes := make([]map[string]any, 0, len(declared))
	for _, entry := range declared {
		value, labels, _ := strings.Cut(entry, "=")
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		var names []alexa.FriendlyName
		for _, label := range strings.Split(labels, ":") {
			if label = strings.TrimSpace(label); label != "" {
				names = append(names, alexa.TextFriendlyName(label, locale))
			}
		}
		if len(names) == 0 {
			names = append(names, alexa.TextFriendlyName(value, locale))
		}

		modes = append(modes, map[string]any{
			"value":         value,
			"modeResources": alexa.Resources{FriendlyNames: names},
		})
	}

	return map[string]any{
		"ordered":        p.ParamBool(capability.ParamKeyOrdered, false),
		"supportedModes": modes,
	}
}

// rangeConfiguration renders the supported range, unit, and presets.
func rangeConfiguration(p *capability.Property, locale string) map[string]any {
	if p.ValueRange == nil {
		return nil
	}

	precision := p.ValueRange.Precision
	if precision == 0 {
		precision = 1
	}
	cfg := map[string]any{
		"supportedRange": map[string]any{
			"minimumValue": p.ValueRange.Minimum,
			"maximumValue": p.ValueRange.Maximum,
			"precision":    precision,
		},
	}

	if unit := p.ParamString(capability.ParamKeyUnitOfMeasure, ""); unit != "" {
		cfg["unitOfMeasure"] = "Alexa.Unit." + unit
	}

	if presets, ok := p.Parameters[capability.ParamKeyPresets].(map[string]string); ok && len(presets) > 0 {
		cfg["presets"] = presetList(p, presets, locale)
	}
	return cfg
}

func presetList(p *capability.Property, presets map[string]string, locale string) []map[string]any {
	// Sort by numeric value so preset order is stable across builds.
	values := make([]float64, 0, len(presets))
	for key := range presets {
		v, err := strconv.ParseFloat(key, 64)
		if err != nil || v < p.ValueRange.Minimum || v > p.ValueRange.Maximum {
			continue
		}
		values = append(values, v)
	}
	sort.Float64s(values)

	var out []map[string]any
	for _, v := range values {
		label := presets[capability.FormatNumber(v)]
		var names []alexa.FriendlyName
		for _, l := range strings.Split(label, ":") {
			if l = strings.TrimSpace(l); l != "" {
				if strings.HasPrefix(l, "@") {
					names = append(names, alexa.AssetFriendlyName("Alexa."+strings.TrimPrefix(l, "@")))
				} else {
					names = append(names, alexa.TextFriendlyName(l, locale))
				}
			}
		}
		if len(names) == 0 {
			continue
		}
		out = append(out, map[string]any{
			"rangeValue":      v,
			"presetResources": alexa.Resources{FriendlyNames: names},
		})
	}
	return out
}

// securityPanelConfiguration reports the arm states the panel supports.
func securityPanelConfiguration(c *capability.Capability) map[string]any {
	arm := c.Property("armState")
	if arm == nil {
		return nil
	}
	states := arm.StateMap.AlexaValues()
	if declared := arm.ParamList(capability.ParamKeySupportedArmStates); len(declared) > 0 {
		states = intersect(states, declared)
	}
	if len(states) == 0 {
		return nil
	}

	values := make([]map[string]any, 0, len(states))
	for _, s := range states {
		values = append(values, map[string]any{"value": s})
	}
	return map[string]any{"supportedArmStates": values}
}

// equalizerConfigurations reports the band set with its shared range and
// the mode list, when present.
func equalizerConfigurations(c *capability.Capability) map[string]any {
	cfg := map[string]any{}

	bands := c.ComponentProperties("bands")
	if len(bands) > 0 {
		names := make([]map[string]any, 0, len(bands))
		for _, b := range bands {
			names = append(names, map[string]any{"name": strings.ToUpper(b.Component)})
		}
		band := map[string]any{"supported": names}
		if r := bands[0].ValueRange; r != nil {
			band["range"] = map[string]any{
				"minimum": r.Minimum,
				"maximum": r.Maximum,
			}
		}
		cfg["bands"] = band
	}

	if modes := c.Property("modes"); modes != nil {
		supported := modes.StateMap.AlexaValues()
		if declared := modes.ParamList(capability.ParamKeySupportedModes); len(declared) > 0 {
			supported = intersect(supported, declared)
		}
		names := make([]map[string]any, 0, len(supported))
		for _, m := range supported {
			names = append(names, map[string]any{"name": m})
		}
		if len(names) > 0 {
			cfg["modes"] = map[string]any{"supported": names}
		}
	}

	if len(cfg) == 0 {
		return nil
	}
	return cfg
}

// inputConfiguration lists the selectable inputs.
func inputConfiguration(p *capability.Property) map[string]any {
	declared := p.ParamList(capability.ParamKeySupportedInputs)
	if len(declared) == 0 {
		return nil
	}
	inputs := make([]map[string]any, 0, len(declared))
	for _, in := range declared {
		inputs = append(inputs, map[string]any{"name": strings.ToUpper(strings.TrimSpace(in))})
	}
	return map[string]any{"inputs": inputs}
}

// intersect keeps the values of base present in the declared list,
// case-insensitively, preserving base order.
func intersect(base, declared []string) []string {
	var out []string
	for _, b := range base {
		for _, d := range declared {
			if strings.EqualFold(b, strings.TrimSpace(d)) {
				out = append(out, b)
				break
			}
		}
	}
	return out
}

// String implements fmt.Stringer for log output.
func (e *Endpoint) String() string {
	return fmt.Sprintf("%s (%d capabilities)", e.ID, len(e.Capabilities))
}
