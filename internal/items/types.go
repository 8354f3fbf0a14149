package items

import "strings"

// Undefined state markers used by the automation server when an item has no
// usable state.
const (
	stateNull      = "NULL"
	stateUndefined = "UNDEF"
)

// Item is one automation-server item as returned by the item API.
type Item struct {
	// Name is the unique item identifier.
	Name string `json:"name"`

	// Type is the primitive item kind, optionally with a dimension suffix
	// (e.g. "Switch", "Dimmer", "Number:Temperature").
	Type string `json:"type"`

	// GroupType is the effective type when the item is a group
	// (e.g. a "Group:Switch" aggregate).
	GroupType string `json:"groupType,omitempty"`

	// Label is the human-readable item label.
	Label string `json:"label,omitempty"`

	// State is the current item state in native string form.
	State string `json:"state,omitempty"`

	// StateDescription describes formatting and the value domain.
	StateDescription *StateDescription `json:"stateDescription,omitempty"`

	// CommandDescription enumerates accepted commands, if restricted.
	CommandDescription *CommandDescription `json:"commandDescription,omitempty"`

	// Metadata holds namespaced metadata attached to the item.
	Metadata map[string]Metadata `json:"metadata,omitempty"`

	// Members are the direct members when the item is a group. Populated
	// only when the list was requested with recursive member expansion.
	Members []Item `json:"members,omitempty"`

	// GroupNames lists the groups this item belongs to.
	GroupNames []string `json:"groupNames,omitempty"`
}

// Metadata is one namespaced metadata entry.
type Metadata struct {
	// Value is the raw metadata value. For the skill namespace this is the
	// comma-separated capability list.
	Value string `json:"value"`

	// Config holds the metadata's key/value configuration.
	Config map[string]any `json:"config,omitempty"`
}

// StateDescription describes an item's value domain and formatting.
type StateDescription struct {
	Minimum  *float64      `json:"minimum,omitempty"`
	Maximum  *float64      `json:"maximum,omitempty"`
	Step     *float64      `json:"step,omitempty"`
	Pattern  string        `json:"pattern,omitempty"`
	ReadOnly bool          `json:"readOnly,omitempty"`
	Options  []StateOption `json:"options,omitempty"`
}

// StateOption is one enumerated state value with display label.
type StateOption struct {
	Value string `json:"value"`
	Label string `json:"label,omitempty"`
}

// CommandDescription enumerates the commands an item accepts.
type CommandDescription struct {
	CommandOptions []StateOption `json:"commandOptions,omitempty"`
}

// RegionalSettings are the server's localisation settings, consumed for the
// default temperature scale when an item declares none.
type RegionalSettings struct {
	Language          string `json:"language,omitempty"`
	Region            string `json:"region,omitempty"`
	MeasurementSystem string `json:"measurementSystem,omitempty"`
}

// SIUnits reports whether the regional settings imply metric units.
//
// An explicit measurement system wins; otherwise the region decides, with
// the US being the only imperial default.
func (r RegionalSettings) SIUnits() bool {
	switch strings.ToUpper(r.MeasurementSystem) {
	case "SI":
		return true
	case "US":
		return false
	}
	return !strings.EqualFold(r.Region, "US")
}

// BaseType returns the item's primitive kind with any dimension suffix
// stripped ("Number:Temperature" -> "Number").
func (i Item) BaseType() string {
	t, _, _ := strings.Cut(i.Type, ":")
	return t
}

// Dimension returns the item's dimension suffix, or "" when untyped
// ("Number:Temperature" -> "Temperature").
func (i Item) Dimension() string {
	_, dim, _ := strings.Cut(i.Type, ":")
	return dim
}

// IsGroup reports whether the item is a group.
func (i Item) IsGroup() bool {
	return i.BaseType() == "Group"
}

// EffectiveType returns the type used for capability matching: the group
// type for groups that aggregate a single kind, the item type otherwise.
func (i Item) EffectiveType() string {
	if i.IsGroup() && i.GroupType != "" {
		return i.GroupType
	}
	return i.Type
}

// IsUndefined reports whether a native state string carries no usable value.
func IsUndefined(state string) bool {
	return state == "" || state == stateNull || state == stateUndefined
}
