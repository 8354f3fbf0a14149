package alexa

// Discovery response limits fixed by the Smart Home API.
const (
	// MaxDiscoveryEndpoints caps the endpoints in one discovery response.
	MaxDiscoveryEndpoints = 300

	// MaxEndpointCapabilities caps the capability interfaces per endpoint.
	MaxEndpointCapabilities = 100
)

// DiscoveryPayload is the payload of a Discover.Response event.
type DiscoveryPayload struct {
	Endpoints []DiscoveryEndpoint `json:"endpoints"`
}

// DiscoveryEndpoint describes one controllable device to the platform.
type DiscoveryEndpoint struct {
	EndpointID           string                `json:"endpointId"`
	ManufacturerName     string                `json:"manufacturerName"`
	Description          string                `json:"description"`
	FriendlyName         string                `json:"friendlyName"`
	DisplayCategories    []string              `json:"displayCategories"`
	AdditionalAttributes *AdditionalAttributes `json:"additionalAttributes,omitempty"`
	Cookie               map[string]string     `json:"cookie,omitempty"`
	Capabilities         []CapabilityInterface `json:"capabilities"`
}

// AdditionalAttributes carries extra device identification.
type AdditionalAttributes struct {
	Manufacturer     string `json:"manufacturer,omitempty"`
	Model            string `json:"model,omitempty"`
	SerialNumber     string `json:"serialNumber,omitempty"`
	FirmwareVersion  string `json:"firmwareVersion,omitempty"`
	SoftwareVersion  string `json:"softwareVersion,omitempty"`
	CustomIdentifier string `json:"customIdentifier,omitempty"`
}

// CapabilityInterface is one discovery-facing capability descriptor.
type CapabilityInterface struct {
	Type                 string               `json:"type"`
	Interface            string               `json:"interface"`
	Instance             string               `json:"instance,omitempty"`
	Version              string               `json:"version"`
	Properties           *InterfaceProperties `json:"properties,omitempty"`
	CapabilityResources  *Resources           `json:"capabilityResources,omitempty"`
	Configuration        map[string]any       `json:"configuration,omitempty"`
	Configurations       map[string]any       `json:"configurations,omitempty"`
	Semantics            *Semantics           `json:"semantics,omitempty"`
	SupportedOperations  []string             `json:"supportedOperations,omitempty"`
	SupportsDeactivation *bool                `json:"supportsDeactivation,omitempty"`
}

// InterfaceProperties declares the reportable properties of an interface.
type InterfaceProperties struct {
	Supported           []SupportedProperty `json:"supported,omitempty"`
	ProactivelyReported bool                `json:"proactivelyReported"`
	Retrievable         bool                `json:"retrievable"`
	NonControllable     *bool               `json:"nonControllable,omitempty"`
}

// SupportedProperty names one reportable property.
type SupportedProperty struct {
	Name string `json:"name"`
}

// Resources holds friendly names for a capability, mode, or preset.
type Resources struct {
	FriendlyNames []FriendlyName `json:"friendlyNames"`
}

// FriendlyName is one voice-addressable label.
type FriendlyName struct {
	Type  string            `json:"@type"`
	Value FriendlyNameValue `json:"value"`
}

// FriendlyNameValue carries either an asset reference or literal text.
type FriendlyNameValue struct {
	AssetID string `json:"assetId,omitempty"`
	Text    string `json:"text,omitempty"`
	Locale  string `json:"locale,omitempty"`
}

// TextFriendlyName builds a literal-text friendly name.
func TextFriendlyName(text, locale string) FriendlyName {
	return FriendlyName{
		Type:  "text",
		Value: FriendlyNameValue{Text: text, Locale: locale},
	}
}

// AssetFriendlyName builds an asset-catalog friendly name reference.
func AssetFriendlyName(assetID string) FriendlyName {
	return FriendlyName{
		Type:  "asset",
		Value: FriendlyNameValue{AssetID: assetID},
	}
}

// Semantics maps utterance actions and states onto a capability.
type Semantics struct {
	ActionMappings []ActionMapping `json:"actionMappings,omitempty"`
	StateMappings  []StateMapping  `json:"stateMappings,omitempty"`
}

// ActionMapping binds semantic actions to a directive invocation.
type ActionMapping struct {
	Type      string            `json:"@type"`
	Actions   []string          `json:"actions"`
	Directive SemanticDirective `json:"directive"`
}

// SemanticDirective is the directive a semantic action triggers.
type SemanticDirective struct {
	Name    string         `json:"name"`
	Payload map[string]any `json:"payload,omitempty"`
}

// StateMapping binds semantic states to a property value or range.
type StateMapping struct {
	Type   string   `json:"@type"`
	States []string `json:"states"`
	Value  any      `json:"value,omitempty"`
	Range  any      `json:"range,omitempty"`
}
