package capability

import (
	"fmt"
	"strconv"
	"strings"
)

// ToAlexa converts an item's native state into the property's Alexa typed
// value.
//
// Resolution order:
//  1. The schema's conversion function, when declared.
//  2. State-map lookup on the property's resolved map.
//  3. Numeric passthrough for plain numeric properties.
//
// Undefined or unparsable state yields ErrStateUnavailable.
func ToAlexa(p *Property, nativeState string) (any, error) {
	if nativeState == "" || nativeState == "NULL" || nativeState == "UNDEF" {
		return nil, fmt.Errorf("%w: %s.%s has no state", ErrStateUnavailable, p.Interface, p.Name)
	}

	if s := p.Schema(); s != nil && s.ToAlexa != nil {
		return s.ToAlexa(p, nativeState)
	}

	if len(p.StateMap) > 0 {
		if alexa, ok := p.StateMap.ToAlexa(nativeState); ok {
			return alexa, nil
		}
		return nil, fmt.Errorf("%w: no mapping for state %q on %s.%s",
			ErrStateUnavailable, nativeState, p.Interface, p.Name)
	}

	return ParseNumericState(p, nativeState)
}

// ToNative converts an Alexa directive value into the item's native command
// string.
//
// isDelta marks relative adjustments; conversion functions use it to omit
// additive offsets, and numeric conversion leaves clamping to the caller
// (the handler knows the current state).
//
// Out-of-domain values yield ErrValueOutOfDomain.
func ToNative(p *Property, alexaValue any, isDelta bool) (string, error) {
	if s := p.Schema(); s != nil && s.ToNative != nil {
		return s.ToNative(p, alexaValue, isDelta)
	}

	if len(p.StateMap) > 0 {
		str, ok := alexaValue.(string)
		if !ok {
			return "", fmt.Errorf("%w: %s.%s expects an enumerated value, got %T",
				ErrValueOutOfDomain, p.Interface, p.Name, alexaValue)
		}
		if s := p.Schema(); s != nil && len(s.SupportedValues) > 0 && !s.SupportsValue(str) {
			return "", fmt.Errorf("%w: %q is not a supported %s.%s value",
				ErrValueOutOfDomain, str, p.Interface, p.Name)
		}
		if native, ok := p.StateMap.ToNative(str); ok {
			return native, nil
		}
		return "", fmt.Errorf("%w: no native mapping for %q on %s.%s",
			ErrValueOutOfDomain, str, p.Interface, p.Name)
	}

	num, err := toFloat(alexaValue)
	if err != nil {
		return "", fmt.Errorf("%w: %s.%s expects a number: %v",
			ErrValueOutOfDomain, p.Interface, p.Name, err)
	}

	if !isDelta && p.ValueRange != nil {
		if num < p.ValueRange.Minimum || num > p.ValueRange.Maximum {
			return "", fmt.Errorf("%w: %v outside [%v, %v] for %s.%s", ErrValueOutOfDomain,
				num, p.ValueRange.Minimum, p.ValueRange.Maximum, p.Interface, p.Name)
		}
	}

	return FormatNumber(num), nil
}

// ParseNumericState parses a native state as a number, stripping any unit
// suffix the server appends for dimensioned items ("21.5 °C").
//
// Unparsable state is an endpoint-unreachable-class failure, not an
// invalid-value one: the device's state is indeterminate.
func ParseNumericState(p *Property, nativeState string) (float64, error) {
	fields := strings.Fields(nativeState)
	if len(fields) == 0 {
		return 0, fmt.Errorf("%w: %s.%s has empty state", ErrStateUnavailable, p.Interface, p.Name)
	}

	num, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: state %q of %s.%s is not numeric",
			ErrStateUnavailable, nativeState, p.Interface, p.Name)
	}

	return num, nil
}

// FormatNumber renders a number as a native command string without
// trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// toFloat coerces the numeric types JSON decoding and handlers produce.
func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case string:
		return strconv.ParseFloat(n, 64)
	default:
		return 0, fmt.Errorf("not a number: %T", v)
	}
}
