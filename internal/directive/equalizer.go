package directive

import (
	"context"
	"errors"
	"strings"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
	"github.com/nerrad567/gray-logic-alexa/internal/capability"
)

// bandProperty resolves one requested band name onto its component property.
func bandProperty(c *capability.Capability, name string) *capability.Property {
	for _, p := range c.ComponentProperties("bands") {
		if strings.EqualFold(p.Component, name) {
			return p
		}
	}
	return nil
}

func (d *Dispatcher) handleSetBands(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		Bands []struct {
			Name  string  `json:"name"`
			Level float64 `json:"level"`
		} `json:"bands"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}

	c, err := x.Capability()
	if err != nil {
		return nil, err
	}
	for _, band := range payload.Bands {
		p := bandProperty(c, band.Name)
		if p == nil {
			return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidValue,
				"endpoint has no "+strings.ToLower(band.Name)+" band")
		}
		command, err := capability.ToNative(p, band.Level, false)
		if err != nil {
			return nil, err
		}
		if err := x.Send(ctx, p, command); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// handleAdjustBands shifts each requested band by its delta, clamped to the
// band's range. Dimmer bands whose level cannot be read fall back to the
// item's own INCREASE/DECREASE semantics.
func (d *Dispatcher) handleAdjustBands(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		Bands []struct {
			Name              string  `json:"name"`
			LevelDelta        float64 `json:"levelDelta"`
			LevelDirection    string  `json:"levelDirection"`
			LevelDeltaDefault bool    `json:"levelDeltaDefault"`
		} `json:"bands"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}

	c, err := x.Capability()
	if err != nil {
		return nil, err
	}
	for _, band := range payload.Bands {
		p := bandProperty(c, band.Name)
		if p == nil {
			return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidValue,
				"endpoint has no "+strings.ToLower(band.Name)+" band")
		}

		delta := band.LevelDelta
		if band.LevelDeltaDefault || delta == 0 {
			delta = 1
		}
		if strings.EqualFold(band.LevelDirection, "DOWN") {
			delta = -delta
		}

		current, err := x.NumericState(ctx, p)
		if err != nil {
			if errors.Is(err, capability.ErrStateUnavailable) && p.ItemType == capability.ItemDimmer {
				command := "INCREASE"
				if delta < 0 {
					command = "DECREASE"
				}
				if err := x.Send(ctx, p, command); err != nil {
					return nil, err
				}
				continue
			}
			return nil, err
		}

		next := current + delta
		if p.ValueRange != nil {
			next = capability.Clamp(next, p.ValueRange.Minimum, p.ValueRange.Maximum)
		}
		if err := x.Send(ctx, p, capability.FormatNumber(next)); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

// handleResetBands returns each requested band to its range midpoint.
func (d *Dispatcher) handleResetBands(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		Bands []struct {
			Name string `json:"name"`
		} `json:"bands"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}

	c, err := x.Capability()
	if err != nil {
		return nil, err
	}
	for _, band := range payload.Bands {
		p := bandProperty(c, band.Name)
		if p == nil {
			return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidValue,
				"endpoint has no "+strings.ToLower(band.Name)+" band")
		}
		mid := 0.0
		if p.ValueRange != nil {
			mid = (p.ValueRange.Minimum + p.ValueRange.Maximum) / 2
		}
		if err := x.Send(ctx, p, capability.FormatNumber(mid)); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (d *Dispatcher) handleSetEqualizerMode(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		Mode string `json:"mode"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}

	p, err := x.Property("modes")
	if err != nil {
		return nil, err
	}

	requested := strings.ToUpper(payload.Mode)
	if supported := p.ParamList(capability.ParamKeySupportedModes); len(supported) > 0 {
		ok := false
		for _, m := range supported {
			if strings.EqualFold(m, requested) {
				ok = true
				break
			}
		}
		if !ok {
			return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidValue,
				requested+" is not a supported equalizer mode")
		}
	}

	native, ok := p.StateMap.ToNative(requested)
	if !ok {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidValue,
			requested+" has no native mode mapping")
	}
	return nil, x.Send(ctx, p, native)
}
