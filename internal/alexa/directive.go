package alexa

import (
	"encoding/json"
	"fmt"
)

// Request is the inbound envelope delivered by the voice platform.
type Request struct {
	Directive Directive `json:"directive"`
}

// Directive carries one command or query resolved from a voice intent.
type Directive struct {
	Header   Header          `json:"header"`
	Endpoint *Endpoint       `json:"endpoint,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// Header contains directive routing metadata.
type Header struct {
	Namespace        string `json:"namespace"`
	Name             string `json:"name"`
	Instance         string `json:"instance,omitempty"`
	PayloadVersion   string `json:"payloadVersion"`
	MessageID        string `json:"messageId"`
	CorrelationToken string `json:"correlationToken,omitempty"`
}

// Endpoint identifies the target device of a directive.
type Endpoint struct {
	Scope      *Scope            `json:"scope,omitempty"`
	EndpointID string            `json:"endpointId,omitempty"`
	Cookie     map[string]string `json:"cookie,omitempty"`
}

// Scope carries the caller's authorization material.
type Scope struct {
	Type  string `json:"type"`
	Token string `json:"token,omitempty"`
}

// scopedPayload is the subset of payload fields shared by directives that
// carry authorization at the payload level (discovery, AcceptGrant).
type scopedPayload struct {
	Scope   *Scope `json:"scope,omitempty"`
	Grantee *Scope `json:"grantee,omitempty"`
}

// BindPayload decodes the directive payload into v.
//
// A nil or empty payload binds successfully and leaves v untouched, matching
// directives such as TurnOn that carry an empty payload object.
func (d *Directive) BindPayload(v any) error {
	if len(d.Payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(d.Payload, v); err != nil {
		return fmt.Errorf("alexa: decoding %s.%s payload: %w", d.Header.Namespace, d.Header.Name, err)
	}
	return nil
}

// ScopeToken returns the bearer token attached to the directive.
//
// Control directives carry it under endpoint.scope; discovery carries it
// under payload.scope; AcceptGrant carries it under payload.grantee.
// Returns "" when no token is present.
func (d *Directive) ScopeToken() string {
	if d.Endpoint != nil && d.Endpoint.Scope != nil && d.Endpoint.Scope.Token != "" {
		return d.Endpoint.Scope.Token
	}

	var p scopedPayload
	if len(d.Payload) > 0 {
		if err := json.Unmarshal(d.Payload, &p); err == nil {
			if p.Scope != nil && p.Scope.Token != "" {
				return p.Scope.Token
			}
			if p.Grantee != nil && p.Grantee.Token != "" {
				return p.Grantee.Token
			}
		}
	}

	return ""
}
