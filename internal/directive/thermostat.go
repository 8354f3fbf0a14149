package directive

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
	"github.com/nerrad567/gray-logic-alexa/internal/capability"
)

const thermostatNamespace = "Alexa.ThermostatController"

// temperatureValue is the platform's temperature object form.
type temperatureValue struct {
	Value float64 `json:"value"`
	Scale string  `json:"scale"`
}

// setpointCommand is one validated setpoint write, computed before any
// command is issued so a rejected value aborts the whole set.
type setpointCommand struct {
	property *capability.Property
	command  string
}

// handleSetTargetTemperature resolves which setpoints the directive supplies
// against which setpoints the device exposes and the currently active mode,
// validates every resulting value, then issues all commands or none.
func (d *Dispatcher) handleSetTargetTemperature(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		TargetSetpoint *temperatureValue `json:"targetSetpoint"`
		UpperSetpoint  *temperatureValue `json:"upperSetpoint"`
		LowerSetpoint  *temperatureValue `json:"lowerSetpoint"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}

	c, err := x.Capability()
	if err != nil {
		return nil, err
	}
	target := c.Property("targetSetpoint")
	upper := c.Property("upperSetpoint")
	lower := c.Property("lowerSetpoint")
	if target == nil && (upper == nil || lower == nil) {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective,
			"endpoint exposes no usable setpoint")
	}

	mode, err := d.currentThermostatMode(ctx, x, c)
	if err != nil {
		return nil, err
	}
	if mode == "OFF" {
		return nil, alexa.NewNamespacedError(thermostatNamespace, alexa.ErrTypeThermostatIsOff,
			"the thermostat is off and cannot accept setpoints")
	}

	var commands []setpointCommand
	switch {
	case payload.TargetSetpoint != nil && payload.UpperSetpoint != nil && payload.LowerSetpoint != nil:
		if target == nil || upper == nil || lower == nil {
			return nil, alexa.NewNamespacedError(thermostatNamespace,
				alexa.ErrTypeTripleSetpointsUnsupported,
				"endpoint does not support three simultaneous setpoints")
		}
		commands, err = d.dualSetpointCommands(upper, lower, *payload.UpperSetpoint, *payload.LowerSetpoint)
		if err != nil {
			return nil, err
		}
		single, serr := setpointCommandFor(target, *payload.TargetSetpoint)
		if serr != nil {
			return nil, serr
		}
		commands = append(commands, single)

	case payload.UpperSetpoint != nil && payload.LowerSetpoint != nil:
		if upper == nil || lower == nil {
			return nil, alexa.NewNamespacedError(thermostatNamespace,
				alexa.ErrTypeDualSetpointsUnsupported,
				"endpoint supports a single setpoint only")
		}
		commands, err = d.dualSetpointCommands(upper, lower, *payload.UpperSetpoint, *payload.LowerSetpoint)
		if err != nil {
			return nil, err
		}

	case payload.TargetSetpoint != nil:
		if target != nil {
			single, serr := setpointCommandFor(target, *payload.TargetSetpoint)
			if serr != nil {
				return nil, serr
			}
			commands = []setpointCommand{single}
			break
		}
		// Dual-setpoint devices take a single target as a band centred on it.
		u := *payload.TargetSetpoint
		u.Value += comfortRange(upper)
		l := *payload.TargetSetpoint
		l.Value -= comfortRange(lower)
		upCmd, serr := setpointCommandFor(upper, u)
		if serr != nil {
			return nil, serr
		}
		lowCmd, serr := setpointCommandFor(lower, l)
		if serr != nil {
			return nil, serr
		}
		commands = []setpointCommand{upCmd, lowCmd}

	default:
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective,
			"directive carries no setpoint")
	}

	if err := d.holdSetpoint(ctx, x, c); err != nil {
		return nil, err
	}
	return nil, sendSetpoints(ctx, x, commands)
}

// handleAdjustTargetTemperature shifts the mode-active setpoints by the
// supplied delta, clamped to each property's range.
func (d *Dispatcher) handleAdjustTargetTemperature(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		TargetSetpointDelta *temperatureValue `json:"targetSetpointDelta"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}
	if payload.TargetSetpointDelta == nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective,
			"directive carries no setpoint delta")
	}

	c, err := x.Capability()
	if err != nil {
		return nil, err
	}

	mode, err := d.currentThermostatMode(ctx, x, c)
	if err != nil {
		return nil, err
	}
	if mode == "OFF" {
		return nil, alexa.NewNamespacedError(thermostatNamespace, alexa.ErrTypeThermostatIsOff,
			"the thermostat is off and cannot accept setpoints")
	}

	active := activeSetpoints(c, mode)
	if len(active) == 0 {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective,
			"endpoint exposes no usable setpoint")
	}

	var commands []setpointCommand
	for _, p := range active {
		current, err := x.NumericState(ctx, p)
		if err != nil {
			return nil, err
		}
		delta := capability.ConvertTemperature(payload.TargetSetpointDelta.Value,
			strings.ToUpper(payload.TargetSetpointDelta.Scale), p.EffectiveScale(), true)
		value := current + delta
		if p.ValueRange != nil {
			value = capability.Clamp(value, p.ValueRange.Minimum, p.ValueRange.Maximum)
		}
		cmd, serr := setpointCommandFor(p, temperatureValue{Value: value, Scale: p.EffectiveScale()})
		if serr != nil {
			return nil, serr
		}
		commands = append(commands, cmd)
	}

	if err := d.holdSetpoint(ctx, x, c); err != nil {
		return nil, err
	}
	return nil, sendSetpoints(ctx, x, commands)
}

// handleSetThermostatMode translates the requested mode through the mode
// state map, rejecting modes the device does not declare.
func (d *Dispatcher) handleSetThermostatMode(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		ThermostatMode struct {
			Value string `json:"value"`
		} `json:"thermostatMode"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}

	p, err := x.Property("thermostatMode")
	if err != nil {
		return nil, err
	}

	requested := strings.ToUpper(payload.ThermostatMode.Value)
	if supported := p.ParamList(capability.ParamKeySupportedModes); len(supported) > 0 {
		ok := false
		for _, m := range supported {
			if strings.EqualFold(m, requested) {
				ok = true
				break
			}
		}
		if !ok {
			return nil, unsupportedThermostatMode(requested)
		}
	}

	native, ok := p.StateMap.ToNative(requested)
	if !ok {
		return nil, unsupportedThermostatMode(requested)
	}
	return nil, x.Send(ctx, p, native)
}

// handleResumeSchedule releases the hold so the device returns to its own
// schedule. Devices without a hold item cannot honour the request.
func (d *Dispatcher) handleResumeSchedule(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	c, err := x.Capability()
	if err != nil {
		return nil, err
	}
	hold := c.Property("thermostatHold")
	if hold == nil {
		return nil, alexa.NewNamespacedError(thermostatNamespace,
			alexa.ErrTypeUnwillingToSetSchedule,
			"endpoint has no schedule hold to release")
	}
	native, ok := hold.StateMap.ToNative("OFF")
	if !ok {
		return nil, alexa.NewNamespacedError(thermostatNamespace,
			alexa.ErrTypeUnwillingToSetSchedule,
			"hold item carries no release mapping")
	}
	return nil, x.Send(ctx, hold, native)
}

// currentThermostatMode reads the device's mode when one is exposed.
// Returns "" for devices without a mode property.
func (d *Dispatcher) currentThermostatMode(ctx context.Context, x *Exchange, c *capability.Capability) (string, error) {
	p := c.Property("thermostatMode")
	if p == nil {
		return "", nil
	}
	state, err := x.State(ctx, p)
	if err != nil {
		return "", err
	}
	if alexaMode, ok := p.StateMap.ToAlexa(state); ok {
		return alexaMode, nil
	}
	// An unmapped mode state blocks nothing; setpoints remain addressable.
	d.logger.Warn("thermostat mode state unmapped", "item", p.ReadItem(), "state", state)
	return "", nil
}

// activeSetpoints returns the setpoint properties addressed by the current
// mode: the heat/cool band in AUTO and ECO, the matching side in HEAT or
// COOL, the single target otherwise.
func activeSetpoints(c *capability.Capability, mode string) []*capability.Property {
	target := c.Property("targetSetpoint")
	upper := c.Property("upperSetpoint")
	lower := c.Property("lowerSetpoint")

	switch mode {
	case "AUTO", "ECO":
		if upper != nil && lower != nil {
			return []*capability.Property{upper, lower}
		}
	case "COOL":
		if upper != nil {
			return []*capability.Property{upper}
		}
	case "HEAT":
		if lower != nil {
			return []*capability.Property{lower}
		}
	}
	if target != nil {
		return []*capability.Property{target}
	}
	if upper != nil && lower != nil {
		return []*capability.Property{upper, lower}
	}
	return nil
}

// dualSetpointCommands validates a heat/cool band request: the gap between
// the setpoints must be at least the configured comfort range.
func (d *Dispatcher) dualSetpointCommands(upper, lower *capability.Property, u, l temperatureValue) ([]setpointCommand, error) {
	uVal := capability.ConvertTemperature(u.Value, strings.ToUpper(u.Scale), upper.EffectiveScale(), false)
	lVal := capability.ConvertTemperature(l.Value, strings.ToUpper(l.Scale), lower.EffectiveScale(), false)

	comfort := comfortRange(upper)
	if c := comfortRange(lower); c > comfort {
		comfort = c
	}
	// Compare in the upper property's scale.
	lInUpper := capability.ConvertTemperature(lVal, lower.EffectiveScale(), upper.EffectiveScale(), false)
	if uVal-lInUpper < comfort {
		return nil, alexa.NewNamespacedError(thermostatNamespace,
			alexa.ErrTypeRequestedSetpointsTooClose,
			fmt.Sprintf("setpoints must be at least %s degrees apart",
				capability.FormatNumber(comfort))).
			WithExtra("minimumTemperatureDelta", map[string]any{
				"value": comfort,
				"scale": upper.EffectiveScale(),
			})
	}

	upCmd, err := setpointCommandFor(upper, temperatureValue{Value: uVal, Scale: upper.EffectiveScale()})
	if err != nil {
		return nil, err
	}
	lowCmd, err := setpointCommandFor(lower, temperatureValue{Value: lVal, Scale: lower.EffectiveScale()})
	if err != nil {
		return nil, err
	}
	return []setpointCommand{upCmd, lowCmd}, nil
}

// setpointCommandFor range-checks one setpoint in the property's scale and
// renders its native command.
func setpointCommandFor(p *capability.Property, t temperatureValue) (setpointCommand, error) {
	value := capability.ConvertTemperature(t.Value, strings.ToUpper(t.Scale), p.EffectiveScale(), false)

	if r := p.ValueRange; r != nil && (value < r.Minimum || value > r.Maximum) {
		return setpointCommand{}, alexa.NewDirectiveError(
			alexa.ErrTypeTemperatureValueOutOfRange,
			fmt.Sprintf("%s degrees is outside the supported setpoint range",
				capability.FormatNumber(value))).
			WithExtra("validRange", map[string]any{
				"minimumValue": map[string]any{"value": r.Minimum, "scale": p.EffectiveScale()},
				"maximumValue": map[string]any{"value": r.Maximum, "scale": p.EffectiveScale()},
			})
	}

	command, err := capability.ToNative(p, value, false)
	if err != nil {
		return setpointCommand{}, err
	}
	return setpointCommand{property: p, command: command}, nil
}

// comfortRange returns the property's configured comfort offset, defaulting
// to two degrees Celsius or its Fahrenheit equivalent.
func comfortRange(p *capability.Property) float64 {
	def := 2.0
	if p != nil && p.EffectiveScale() == capability.ScaleFahrenheit {
		def = 4.0
	}
	if p == nil {
		return def
	}
	return p.ParamFloat(capability.ParamKeyComfortRange, def)
}

// holdSetpoint pins the setpoint on devices that drift back to their
// schedule. The hold command must complete before any setpoint is sent.
func (d *Dispatcher) holdSetpoint(ctx context.Context, x *Exchange, c *capability.Capability) error {
	hold := c.Property("thermostatHold")
	if hold == nil {
		return nil
	}
	native, ok := hold.StateMap.ToNative("ON")
	if !ok {
		return nil
	}
	return x.Send(ctx, hold, native)
}

// sendSetpoints issues validated setpoint commands concurrently and joins
// before returning.
func sendSetpoints(ctx context.Context, x *Exchange, commands []setpointCommand) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, cmd := range commands {
		g.Go(func() error {
			return x.Send(gctx, cmd.property, cmd.command)
		})
	}
	return g.Wait()
}

func unsupportedThermostatMode(mode string) *alexa.DirectiveError {
	return alexa.NewNamespacedError(thermostatNamespace,
		alexa.ErrTypeUnsupportedThermostatMode,
		"the device does not support the "+mode+" mode")
}
