package alexa

import "fmt"

// ErrorType is a platform-mandated error type string.
type ErrorType string

// Error taxonomy fixed by the Smart Home API. Handlers raise these through
// DirectiveError values; the dispatcher converts them to error envelopes.
const (
	ErrTypeInvalidDirective               ErrorType = "INVALID_DIRECTIVE"
	ErrTypeInvalidValue                   ErrorType = "INVALID_VALUE"
	ErrTypeValueOutOfRange                ErrorType = "VALUE_OUT_OF_RANGE"
	ErrTypeTemperatureValueOutOfRange     ErrorType = "TEMPERATURE_VALUE_OUT_OF_RANGE"
	ErrTypeEndpointUnreachable            ErrorType = "ENDPOINT_UNREACHABLE"
	ErrTypeBridgeUnreachable              ErrorType = "BRIDGE_UNREACHABLE"
	ErrTypeInvalidAuthorizationCredential ErrorType = "INVALID_AUTHORIZATION_CREDENTIAL"
	ErrTypeNoSuchEndpoint                 ErrorType = "NO_SUCH_ENDPOINT"
	ErrTypeInternalError                  ErrorType = "INTERNAL_ERROR"
	ErrTypeNotSupportedInCurrentMode      ErrorType = "NOT_SUPPORTED_IN_CURRENT_MODE"
	ErrTypeThermostatIsOff                ErrorType = "THERMOSTAT_IS_OFF"
	ErrTypeUnsupportedThermostatMode      ErrorType = "UNSUPPORTED_THERMOSTAT_MODE"
	ErrTypeDualSetpointsUnsupported       ErrorType = "DUAL_SETPOINTS_UNSUPPORTED"
	ErrTypeTripleSetpointsUnsupported     ErrorType = "TRIPLE_SETPOINTS_UNSUPPORTED"
	ErrTypeRequestedSetpointsTooClose     ErrorType = "REQUESTED_SETPOINTS_TOO_CLOSE"
	ErrTypeUnwillingToSetSchedule         ErrorType = "UNWILLING_TO_SET_SCHEDULE"
	ErrTypeAuthorizationRequired          ErrorType = "AUTHORIZATION_REQUIRED"
	ErrTypeBypassNeeded                   ErrorType = "BYPASS_NEEDED"
	ErrTypeNotReady                       ErrorType = "NOT_READY"
	ErrTypeUnauthorized                   ErrorType = "UNAUTHORIZED"
	ErrTypeUnclearedAlarm                 ErrorType = "UNCLEARED_ALARM"
	ErrTypeUnclearedTrouble               ErrorType = "UNCLEARED_TROUBLE"
	ErrTypeObstacleDetected               ErrorType = "OBSTACLE_DETECTED"
	ErrTypeAcceptGrantFailed              ErrorType = "ACCEPT_GRANT_FAILED"
)

// DirectiveError is a business-rule violation raised by a handler.
//
// It is an expected user-facing outcome, not a system fault: the dispatcher
// converts it directly to an error envelope without logging it as an error.
type DirectiveError struct {
	// Type is the platform error-type string.
	Type ErrorType

	// Message is a human-readable explanation, surfaced to the platform.
	Message string

	// Namespace overrides the error event namespace when the error type
	// belongs to a capability-specific taxonomy (thermostat, security
	// panel). Empty means the generic "Alexa" namespace.
	Namespace string

	// Extra holds error-type-specific payload fields beside type and
	// message (validRange, currentDeviceMode, exit delay, ...).
	Extra map[string]any
}

// Error implements the error interface.
func (e *DirectiveError) Error() string {
	return fmt.Sprintf("alexa: %s: %s", e.Type, e.Message)
}

// NewDirectiveError builds a generic-namespace directive error.
func NewDirectiveError(t ErrorType, message string) *DirectiveError {
	return &DirectiveError{Type: t, Message: message}
}

// NewNamespacedError builds a directive error reported in a capability
// namespace (Alexa.ThermostatController, Alexa.SecurityPanelController).
func NewNamespacedError(namespace string, t ErrorType, message string) *DirectiveError {
	return &DirectiveError{Type: t, Message: message, Namespace: namespace}
}

// WithExtra attaches an additional payload field and returns the error.
func (e *DirectiveError) WithExtra(key string, value any) *DirectiveError {
	if e.Extra == nil {
		e.Extra = map[string]any{}
	}
	e.Extra[key] = value
	return e
}

// NewErrorResponse builds the error envelope for a directive failure.
//
// Every failure path produces exactly one envelope of this shape; nothing is
// silently swallowed and nothing escapes without a response.
func NewErrorResponse(d *Directive, derr *DirectiveError) *Response {
	namespace := derr.Namespace
	if namespace == "" {
		namespace = "Alexa"
	}

	payload := map[string]any{
		"type":    string(derr.Type),
		"message": derr.Message,
	}
	for k, v := range derr.Extra {
		payload[k] = v
	}

	resp := &Response{
		Event: Event{
			Header: Header{
				Namespace:        namespace,
				Name:             "ErrorResponse",
				PayloadVersion:   PayloadVersion,
				MessageID:        NewMessageID(),
				CorrelationToken: d.Header.CorrelationToken,
			},
			Payload: payload,
		},
	}

	if d.Endpoint != nil && d.Endpoint.EndpointID != "" {
		resp.Event.Endpoint = &Endpoint{EndpointID: d.Endpoint.EndpointID}
	}

	return resp
}
