package directive

import (
	"context"
	"strconv"
	"strings"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
	"github.com/nerrad567/gray-logic-alexa/internal/capability"
)

// defaultColorTemperatureStep is the Kelvin shift applied per increase or
// decrease request when the property declares no increment.
const defaultColorTemperatureStep = 500

func (d *Dispatcher) handleSetColorTemperature(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		ColorTemperatureInKelvin float64 `json:"colorTemperatureInKelvin"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}
	return nil, x.SetValue(ctx, "colorTemperatureInKelvin", payload.ColorTemperatureInKelvin)
}

// handleShiftColorTemperature steps the white temperature up or down.
//
// A light currently rendering a colour has no meaningful white point to step
// from, so the shift is refused with a mode-conflict error when the paired
// colour property reports saturation.
func (d *Dispatcher) handleShiftColorTemperature(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	p, err := x.Property("colorTemperatureInKelvin")
	if err != nil {
		return nil, err
	}

	inColor, err := d.inColorMode(ctx, x)
	if err != nil {
		return nil, err
	}
	if inColor {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeNotSupportedInCurrentMode,
			"the light is in color mode").
			WithExtra("currentDeviceMode", "COLOR")
	}

	current, err := x.AlexaState(ctx, p)
	if err != nil {
		return nil, err
	}
	kelvin, err := alexaNumber(current)
	if err != nil {
		return nil, err
	}

	step := p.ParamFloat(capability.ParamKeyIncrement, defaultColorTemperatureStep)
	if x.Directive.Header.Name == "DecreaseColorTemperature" {
		step = -step
	}

	r := capability.Range{Minimum: 1000, Maximum: 10000}
	if p.ValueRange != nil {
		r = *p.ValueRange
	}
	next := capability.Adjust(kelvin, step, r.Minimum, r.Maximum)

	command, err := capability.ToNative(p, next, false)
	if err != nil {
		return nil, err
	}
	return nil, x.Send(ctx, p, command)
}

// inColorMode reports whether the endpoint's paired colour property shows a
// saturated colour. Endpoints without a ColorController are never in colour
// mode.
func (d *Dispatcher) inColorMode(ctx context.Context, x *Exchange) (bool, error) {
	c := x.Endpoint.Capability(capability.InterfaceColorController, "")
	if c == nil {
		return false, nil
	}
	p := c.Property("color")
	if p == nil {
		return false, nil
	}

	state, err := x.State(ctx, p)
	if err != nil {
		return false, err
	}
	parts := strings.Split(state, ",")
	if len(parts) != 3 {
		return false, nil
	}
	saturation, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return false, nil
	}
	return saturation > 0, nil
}
