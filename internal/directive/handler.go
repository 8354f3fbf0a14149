package directive

import (
	"context"
	"fmt"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
	"github.com/nerrad567/gray-logic-alexa/internal/capability"
	"github.com/nerrad567/gray-logic-alexa/internal/endpoint"
	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-alexa/internal/items"
)

// Exchange carries one directive through its handler: the parsed envelope,
// the endpoint model rehydrated from the cookie, and the authorised item
// client. It lives for exactly one dispatch.
type Exchange struct {
	Directive *alexa.Directive
	Endpoint  *endpoint.Endpoint
	Token     string
	Client    *items.Client
	Logger    *logging.Logger
}

// Handler executes one directive. A nil response with a nil error asks the
// dispatcher to assemble the standard success envelope (with context
// properties, for reporting routes).
type Handler func(ctx context.Context, x *Exchange) (*alexa.Response, error)

// Capability returns the endpoint capability addressed by the directive's
// namespace and instance.
func (x *Exchange) Capability() (*capability.Capability, error) {
	iface := capability.InterfaceFromNamespace(x.Directive.Header.Namespace)
	c := x.Endpoint.Capability(iface, x.Directive.Header.Instance)
	if c == nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective,
			fmt.Sprintf("endpoint %s has no %s capability", x.Endpoint.ID, x.Directive.Header.Namespace))
	}
	return c, nil
}

// Property returns the named property of the addressed capability.
func (x *Exchange) Property(name string) (*capability.Property, error) {
	c, err := x.Capability()
	if err != nil {
		return nil, err
	}
	p := c.Property(name)
	if p == nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective,
			fmt.Sprintf("endpoint %s has no %s property", x.Endpoint.ID, name))
	}
	return p, nil
}

// State fetches the property's current native state. An undefined state is
// an unreachable-class failure: the item exists but its value is
// indeterminate.
func (x *Exchange) State(ctx context.Context, p *capability.Property) (string, error) {
	state, err := x.Client.GetItemState(ctx, x.Token, p.ReadItem())
	if err != nil {
		return "", err
	}
	if items.IsUndefined(state) {
		return "", fmt.Errorf("%w: %s reports no usable state",
			capability.ErrStateUnavailable, p.ReadItem())
	}
	return state, nil
}

// AlexaState fetches the property's current state converted to its
// platform value.
func (x *Exchange) AlexaState(ctx context.Context, p *capability.Property) (any, error) {
	state, err := x.State(ctx, p)
	if err != nil {
		return nil, err
	}
	return capability.ToAlexa(p, state)
}

// NumericState fetches and parses the property's current state as a
// number.
func (x *Exchange) NumericState(ctx context.Context, p *capability.Property) (float64, error) {
	state, err := x.State(ctx, p)
	if err != nil {
		return 0, err
	}
	return capability.ParseNumericState(p, state)
}

// Send posts a native command to the property's control item.
func (x *Exchange) Send(ctx context.Context, p *capability.Property, command string) error {
	return x.Client.SendCommand(ctx, x.Token, p.ItemName, command)
}

// SetValue translates an absolute platform value and posts it.
func (x *Exchange) SetValue(ctx context.Context, name string, value any) error {
	p, err := x.Property(name)
	if err != nil {
		return err
	}
	cmd, err := capability.ToNative(p, value, false)
	if err != nil {
		return err
	}
	return x.Send(ctx, p, cmd)
}

// AdjustValue reads the property's current platform value, applies a
// relative delta clamped to the effective range, and posts the result.
// Working in the platform's value domain keeps inverted and converted
// properties (rollershutter percentages, colour temperatures) correct.
func (x *Exchange) AdjustValue(ctx context.Context, name string, delta float64) error {
	p, err := x.Property(name)
	if err != nil {
		return err
	}
	next, err := x.adjustedValue(ctx, p, delta)
	if err != nil {
		return err
	}
	cmd, err := capability.ToNative(p, next, false)
	if err != nil {
		return err
	}
	return x.Send(ctx, p, cmd)
}

// adjustedValue computes current + delta clamped to the property range. The
// current reading comes from a sensor-tagged sibling when one is declared.
func (x *Exchange) adjustedValue(ctx context.Context, p *capability.Property, delta float64) (float64, error) {
	read := p
	if c, err := x.Capability(); err == nil {
		if rp := c.ReadProperty(p.Name); rp != nil {
			read = rp
		}
	}
	cur, err := x.AlexaState(ctx, read)
	if err != nil {
		return 0, err
	}
	curNum, err := alexaNumber(cur)
	if err != nil {
		return 0, fmt.Errorf("%w: state of %s is not numeric", capability.ErrStateUnavailable, read.ReadItem())
	}

	min, max := 0.0, 100.0
	if p.ValueRange != nil {
		min, max = p.ValueRange.Minimum, p.ValueRange.Maximum
	}
	return capability.Adjust(curNum, delta, min, max), nil
}

// alexaNumber coerces the numeric shapes conversion functions produce.
func alexaNumber(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	}
	return 0, fmt.Errorf("directive: value %v (%T) is not numeric", v, v)
}
