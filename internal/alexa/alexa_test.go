package alexa

import (
	"encoding/json"
	"testing"
)

func TestScopeToken(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "endpoint scope",
			raw: `{"header":{"namespace":"Alexa.PowerController","name":"TurnOn"},
			       "endpoint":{"endpointId":"light1","scope":{"type":"BearerToken","token":"tok-endpoint"}}}`,
			want: "tok-endpoint",
		},
		{
			name: "payload scope (discovery)",
			raw: `{"header":{"namespace":"Alexa.Discovery","name":"Discover"},
			       "payload":{"scope":{"type":"BearerToken","token":"tok-payload"}}}`,
			want: "tok-payload",
		},
		{
			name: "payload grantee (AcceptGrant)",
			raw: `{"header":{"namespace":"Alexa.Authorization","name":"AcceptGrant"},
			       "payload":{"grantee":{"type":"BearerToken","token":"tok-grantee"}}}`,
			want: "tok-grantee",
		},
		{
			name: "no token",
			raw:  `{"header":{"namespace":"Alexa","name":"ReportState"}}`,
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Directive
			if err := json.Unmarshal([]byte(tt.raw), &d); err != nil {
				t.Fatalf("unmarshal directive: %v", err)
			}
			if got := d.ScopeToken(); got != tt.want {
				t.Errorf("ScopeToken() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestBindPayload(t *testing.T) {
	d := Directive{Payload: json.RawMessage(`{"brightness":42}`)}

	var p struct {
		Brightness int `json:"brightness"`
	}
	if err := d.BindPayload(&p); err != nil {
		t.Fatalf("BindPayload() error = %v", err)
	}
	if p.Brightness != 42 {
		t.Errorf("Brightness = %d, want 42", p.Brightness)
	}
}

func TestBindPayload_Empty(t *testing.T) {
	d := Directive{}

	var p struct {
		Brightness int `json:"brightness"`
	}
	if err := d.BindPayload(&p); err != nil {
		t.Errorf("BindPayload() on empty payload error = %v, want nil", err)
	}
}

func TestNewResponse_EchoesCorrelationAndEndpoint(t *testing.T) {
	d := &Directive{
		Header: Header{
			Namespace:        "Alexa.PowerController",
			Name:             "TurnOn",
			CorrelationToken: "corr-1",
		},
		Endpoint: &Endpoint{
			EndpointID: "light1",
			Scope:      &Scope{Type: "BearerToken", Token: "secret"},
		},
	}

	resp := NewResponse(d, []ContextProperty{
		NewContextProperty("Alexa.PowerController", "", "powerState", "ON"),
	})

	if resp.Event.Header.Namespace != "Alexa" || resp.Event.Header.Name != "Response" {
		t.Errorf("header = %s.%s, want Alexa.Response", resp.Event.Header.Namespace, resp.Event.Header.Name)
	}
	if resp.Event.Header.CorrelationToken != "corr-1" {
		t.Errorf("correlation token = %q, want %q", resp.Event.Header.CorrelationToken, "corr-1")
	}
	if resp.Event.Header.MessageID == "" {
		t.Error("message ID must be generated")
	}
	if resp.Event.Endpoint == nil || resp.Event.Endpoint.EndpointID != "light1" {
		t.Fatalf("endpoint = %+v, want echo of light1", resp.Event.Endpoint)
	}
	if resp.Event.Endpoint.Scope != nil {
		t.Error("scope token must not be echoed back to the platform")
	}
	if resp.Context == nil || len(resp.Context.Properties) != 1 {
		t.Fatalf("context = %+v, want one property", resp.Context)
	}
}

func TestNewErrorResponse(t *testing.T) {
	d := &Directive{
		Header:   Header{Namespace: "Alexa.ThermostatController", Name: "SetTargetTemperature", CorrelationToken: "c"},
		Endpoint: &Endpoint{EndpointID: "hvac"},
	}

	derr := NewNamespacedError("Alexa.ThermostatController", ErrTypeRequestedSetpointsTooClose, "gap below comfort range").
		WithExtra("minimumTemperatureDelta", map[string]any{"value": 2.0, "scale": "CELSIUS"})

	resp := NewErrorResponse(d, derr)

	if resp.Event.Header.Name != "ErrorResponse" {
		t.Errorf("name = %q, want ErrorResponse", resp.Event.Header.Name)
	}
	if resp.Event.Header.Namespace != "Alexa.ThermostatController" {
		t.Errorf("namespace = %q, want Alexa.ThermostatController", resp.Event.Header.Namespace)
	}

	payload, ok := resp.Event.Payload.(map[string]any)
	if !ok {
		t.Fatalf("payload type = %T, want map", resp.Event.Payload)
	}
	if payload["type"] != "REQUESTED_SETPOINTS_TOO_CLOSE" {
		t.Errorf("payload type = %v, want REQUESTED_SETPOINTS_TOO_CLOSE", payload["type"])
	}
	if _, ok := payload["minimumTemperatureDelta"]; !ok {
		t.Error("extra payload field missing")
	}
}

func TestNewDiscoverResponse_NeverNilEndpoints(t *testing.T) {
	resp := NewDiscoverResponse(&Directive{}, nil)

	payload, ok := resp.Event.Payload.(DiscoveryPayload)
	if !ok {
		t.Fatalf("payload type = %T, want DiscoveryPayload", resp.Event.Payload)
	}
	if payload.Endpoints == nil {
		t.Error("endpoints must serialise as [], not null")
	}
}
