package capability

import "errors"

// Sentinel errors for capability resolution and value normalisation.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, capability.ErrStateUnavailable) {
//	    // device state indeterminate -> ENDPOINT_UNREACHABLE
//	}
var (
	// ErrStateUnavailable is returned when an item's reported state cannot
	// be interpreted for the property (undefined, or unparsable where a
	// number is required). This is an endpoint-unreachable-class failure:
	// the device's state is indeterminate.
	ErrStateUnavailable = errors.New("capability: state unavailable")

	// ErrValueOutOfDomain is returned when a caller-supplied Alexa value is
	// outside the property's supported domain. This is an invalid-value
	// failure: the request, not the device, is at fault.
	ErrValueOutOfDomain = errors.New("capability: value out of domain")

	// ErrUnknownProperty is returned when a capability/property pair is not
	// present in the registry.
	ErrUnknownProperty = errors.New("capability: unknown property")

	// ErrItemTypeMismatch is returned when an item's kind is not accepted
	// by the property schema.
	ErrItemTypeMismatch = errors.New("capability: item type not supported")
)
