package endpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/nerrad567/gray-logic-alexa/internal/capability"
)

// Cookie keys distinguishing the two persisted formats.
const (
	cookieKeyCapabilities = "capabilities"
	cookieKeyPropertyMap  = "propertyMap"
)

// ErrNoCookie marks a directive whose endpoint carries no recognised
// persisted capability model.
var ErrNoCookie = errors.New("endpoint: no capability cookie present")

// storedProperty is the compact persisted form of one resolved property.
// Short keys matter: the blob round-trips through every directive envelope.
// Derived facts (state map, retrievability) are recomputed from the
// registry at load time; only the numeric range is pinned, since range
// parameters do not survive a JSON round trip structurally intact.
type storedProperty struct {
	Interface  string            `json:"i"`
	Name       string            `json:"n"`
	Instance   string            `json:"t,omitempty"`
	Component  string            `json:"c,omitempty"`
	Tag        string            `json:"g,omitempty"`
	ItemName   string            `json:"m"`
	ItemType   string            `json:"k"`
	SensorItem string            `json:"s,omitempty"`
	Scale      string            `json:"sc,omitempty"`
	Range      *capability.Range `json:"r,omitempty"`
	Parameters map[string]any    `json:"p,omitempty"`
}

// legacyPropertyMap is the pre-multi-instance persisted format: interface
// name -> property name -> binding.
type legacyPropertyMap map[string]map[string]legacyProperty

type legacyProperty struct {
	Parameters map[string]any `json:"parameters,omitempty"`
	Item       legacyItem     `json:"item"`
}

type legacyItem struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// EncodeCookie serialises the endpoint's capability model into the cookie
// map embedded in its discovery response.
func EncodeCookie(e *Endpoint) (map[string]string, error) {
	var stored []storedProperty
	for _, c := range e.Capabilities {
		for _, p := range c.Properties {
			stored = append(stored, storedProperty{
				Interface:  p.Interface,
				Name:       p.Name,
				Instance:   c.Instance,
				Component:  p.Component,
				Tag:        p.Tag,
				ItemName:   p.ItemName,
				ItemType:   p.ItemType,
				SensorItem: p.SensorItem,
				Scale:      p.Scale,
				Range:      p.ValueRange,
				Parameters: compactParameters(p.Parameters),
			})
		}
	}

	blob, err := json.Marshal(stored)
	if err != nil {
		return nil, fmt.Errorf("endpoint: encoding cookie for %s: %w", e.ID, err)
	}
	return map[string]string{cookieKeyCapabilities: string(blob)}, nil
}

// compactParameters drops parameters the loader re-derives or that only
// matter at discovery time, keeping the cookie small.
func compactParameters(params map[string]any) map[string]any {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]any, len(params))
	for k, v := range params {
		switch k {
		case capability.ParamKeyRange, capability.ParamKeyFriendlyNames,
			capability.ParamKeyActionMappings, capability.ParamKeyStateMappings:
			// Range is pinned separately; friendly names and semantic
			// mappings are discovery-only.
			continue
		}
		out[k] = v
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// DecodeCookie reconstructs the capability list from a directive's cookie,
// detecting the current or the legacy format by key presence and
// normalising both into the same in-memory representation.
func DecodeCookie(cookie map[string]string) ([]*capability.Capability, error) {
	if blob, ok := cookie[cookieKeyCapabilities]; ok {
		return decodeCurrent(blob)
	}
	if blob, ok := cookie[cookieKeyPropertyMap]; ok {
		return decodeLegacy(blob)
	}
	return nil, ErrNoCookie
}

func decodeCurrent(blob string) ([]*capability.Capability, error) {
	var stored []storedProperty
	if err := json.Unmarshal([]byte(blob), &stored); err != nil {
		return nil, fmt.Errorf("endpoint: parsing capability cookie: %w", err)
	}

	e := &Endpoint{}
	for _, sp := range stored {
		p, err := capability.NewProperty(
			capability.Descriptor{
				Interface:  sp.Interface,
				Property:   sp.Name,
				Component:  sp.Component,
				Tag:        sp.Tag,
				Parameters: sp.Parameters,
			},
			capability.Binding{
				ItemName:   sp.ItemName,
				ItemType:   sp.ItemType,
				SensorItem: sp.SensorItem,
				Scale:      sp.Scale,
			},
		)
		if err != nil {
			// A cookie minted under an older registry may reference a
			// capability this build no longer knows; skip, don't fail.
			continue
		}
		if sp.Range != nil {
			r := *sp.Range
			p.ValueRange = &r
		}
		e.AddProperty(sp.Instance, p)
	}

	if len(e.Capabilities) == 0 {
		return nil, fmt.Errorf("endpoint: capability cookie yielded no usable capability")
	}
	return e.Capabilities, nil
}

// decodeLegacy upgrades the interface-keyed property map into the current
// capability representation. Legacy endpoints predate multi-instance
// interfaces, so every capability loads with an empty instance. Map
// iteration order is undefined, hence the sort.
func decodeLegacy(blob string) ([]*capability.Capability, error) {
	var pm legacyPropertyMap
	if err := json.Unmarshal([]byte(blob), &pm); err != nil {
		return nil, fmt.Errorf("endpoint: parsing legacy cookie: %w", err)
	}

	ifaces := make([]string, 0, len(pm))
	for iface := range pm {
		ifaces = append(ifaces, iface)
	}
	sort.Strings(ifaces)

	e := &Endpoint{}
	for _, iface := range ifaces {
		names := make([]string, 0, len(pm[iface]))
		for name := range pm[iface] {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			lp := pm[iface][name]
			p, err := capability.NewProperty(
				capability.Descriptor{
					Interface:  iface,
					Property:   name,
					Parameters: lp.Parameters,
				},
				capability.Binding{
					ItemName: lp.Item.Name,
					ItemType: lp.Item.Type,
				},
			)
			if err != nil {
				continue
			}
			e.AddProperty("", p)
		}
	}

	if len(e.Capabilities) == 0 {
		return nil, fmt.Errorf("endpoint: legacy cookie yielded no usable capability")
	}
	return e.Capabilities, nil
}
