package alexa

import (
	"time"

	"github.com/google/uuid"
)

// PayloadVersion is the Smart Home API generation the bridge speaks.
const PayloadVersion = "3"

// defaultUncertaintyMillis is reported for every context property; item
// state is polled, not pushed, so a sample is never exact.
const defaultUncertaintyMillis = 500

// Response is the outbound envelope returned for every directive.
type Response struct {
	Context *Context `json:"context,omitempty"`
	Event   Event    `json:"event"`
}

// Event is the event portion of a response.
type Event struct {
	Header   Header    `json:"header"`
	Endpoint *Endpoint `json:"endpoint,omitempty"`
	Payload  any       `json:"payload"`
}

// Context carries reported property state alongside a response.
type Context struct {
	Properties []ContextProperty `json:"properties,omitempty"`
}

// ContextProperty is one reported current-state value.
type ContextProperty struct {
	Namespace                 string `json:"namespace"`
	Instance                  string `json:"instance,omitempty"`
	Name                      string `json:"name"`
	Value                     any    `json:"value"`
	TimeOfSample              string `json:"timeOfSample"`
	UncertaintyInMilliseconds int    `json:"uncertaintyInMilliseconds"`
}

// NewContextProperty builds a reported property stamped with the current time.
func NewContextProperty(namespace, instance, name string, value any) ContextProperty {
	return ContextProperty{
		Namespace:                 namespace,
		Instance:                  instance,
		Name:                      name,
		Value:                     value,
		TimeOfSample:              time.Now().UTC().Format(time.RFC3339),
		UncertaintyInMilliseconds: defaultUncertaintyMillis,
	}
}

// emptyPayload is used where the platform requires a payload object but the
// response carries no fields.
type emptyPayload struct{}

// NewResponse builds the standard success envelope for a control directive.
//
// The correlation token and endpoint reference are echoed from the inbound
// directive; properties (may be nil) become the context block.
func NewResponse(d *Directive, properties []ContextProperty) *Response {
	return newEvent(d, "Alexa", "Response", emptyPayload{}, properties)
}

// NewStateReport builds the response to an Alexa.ReportState directive.
func NewStateReport(d *Directive, properties []ContextProperty) *Response {
	return newEvent(d, "Alexa", "StateReport", emptyPayload{}, properties)
}

// NewDiscoverResponse builds the Alexa.Discovery response envelope.
func NewDiscoverResponse(d *Directive, endpoints []DiscoveryEndpoint) *Response {
	if endpoints == nil {
		endpoints = []DiscoveryEndpoint{}
	}
	return &Response{
		Event: Event{
			Header: Header{
				Namespace:      "Alexa.Discovery",
				Name:           "Discover.Response",
				PayloadVersion: PayloadVersion,
				MessageID:      NewMessageID(),
				// Discovery responses do not echo the correlation token.
			},
			Payload: DiscoveryPayload{Endpoints: endpoints},
		},
	}
}

// NewAcceptGrantResponse builds the Alexa.Authorization success envelope.
func NewAcceptGrantResponse(d *Directive) *Response {
	return &Response{
		Event: Event{
			Header: Header{
				Namespace:      "Alexa.Authorization",
				Name:           "AcceptGrant.Response",
				PayloadVersion: PayloadVersion,
				MessageID:      NewMessageID(),
			},
			Payload: emptyPayload{},
		},
	}
}

// NewCustomResponse builds a success envelope with a handler-supplied name
// and payload (Arm.Response with exit delay, for example).
func NewCustomResponse(d *Directive, namespace, name string, payload any, properties []ContextProperty) *Response {
	return newEvent(d, namespace, name, payload, properties)
}

func newEvent(d *Directive, namespace, name string, payload any, properties []ContextProperty) *Response {
	resp := &Response{
		Event: Event{
			Header: Header{
				Namespace:        namespace,
				Name:             name,
				PayloadVersion:   PayloadVersion,
				MessageID:        NewMessageID(),
				CorrelationToken: d.Header.CorrelationToken,
			},
			Payload: payload,
		},
	}

	if d.Endpoint != nil && d.Endpoint.EndpointID != "" {
		// Echo the endpoint reference without the scope; tokens must not
		// travel back to the platform.
		resp.Event.Endpoint = &Endpoint{EndpointID: d.Endpoint.EndpointID}
	}

	if len(properties) > 0 {
		resp.Context = &Context{Properties: properties}
	}

	return resp
}

// NewMessageID returns a fresh unique identifier for an outbound event.
func NewMessageID() string {
	return uuid.NewString()
}
