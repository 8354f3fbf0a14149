package directive

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
	"github.com/nerrad567/gray-logic-alexa/internal/capability"
)

// stepCommandLimit caps sequential step commands for devices without
// absolute volume, keeping one directive from flooding the item bus.
const stepCommandLimit = 10

func (d *Dispatcher) handlePower(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	state := "OFF"
	if x.Directive.Header.Name == "TurnOn" {
		state = "ON"
	}
	return nil, x.SetValue(ctx, "powerState", state)
}

func (d *Dispatcher) handleToggle(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	state := "OFF"
	if x.Directive.Header.Name == "TurnOn" {
		state = "ON"
	}
	return nil, x.SetValue(ctx, "toggleState", state)
}

func (d *Dispatcher) handleSetBrightness(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		Brightness float64 `json:"brightness"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}
	return nil, x.SetValue(ctx, "brightness", payload.Brightness)
}

func (d *Dispatcher) handleAdjustBrightness(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		BrightnessDelta float64 `json:"brightnessDelta"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}
	return nil, x.AdjustValue(ctx, "brightness", payload.BrightnessDelta)
}

func (d *Dispatcher) handleSetPowerLevel(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		PowerLevel float64 `json:"powerLevel"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}
	return nil, x.SetValue(ctx, "powerLevel", payload.PowerLevel)
}

func (d *Dispatcher) handleAdjustPowerLevel(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		PowerLevelDelta float64 `json:"powerLevelDelta"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}
	return nil, x.AdjustValue(ctx, "powerLevel", payload.PowerLevelDelta)
}

func (d *Dispatcher) handleSetPercentage(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		Percentage float64 `json:"percentage"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}
	return nil, x.SetValue(ctx, "percentage", payload.Percentage)
}

func (d *Dispatcher) handleAdjustPercentage(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		PercentageDelta float64 `json:"percentageDelta"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}
	return nil, x.AdjustValue(ctx, "percentage", payload.PercentageDelta)
}

func (d *Dispatcher) handleSetColor(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		Color struct {
			Hue        float64 `json:"hue"`
			Saturation float64 `json:"saturation"`
			Brightness float64 `json:"brightness"`
		} `json:"color"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}
	value := map[string]any{
		"hue":        payload.Color.Hue,
		"saturation": payload.Color.Saturation,
		"brightness": payload.Color.Brightness,
	}
	return nil, x.SetValue(ctx, "color", value)
}

func (d *Dispatcher) handleLock(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	state := "UNLOCKED"
	if x.Directive.Header.Name == "Lock" {
		state = "LOCKED"
	}
	return nil, x.SetValue(ctx, "lockState", state)
}

func (d *Dispatcher) handleSetMode(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		Mode string `json:"mode"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}
	return nil, x.SetValue(ctx, "mode", payload.Mode)
}

// handleAdjustMode steps through an ordered mode list. The platform only
// sends AdjustMode for modes declared ordered; stepping beyond either end
// stays at that end.
func (d *Dispatcher) handleAdjustMode(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		ModeDelta int `json:"modeDelta"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}

	p, err := x.Property("mode")
	if err != nil {
		return nil, err
	}
	if !p.ParamBool(capability.ParamKeyOrdered, false) {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective,
			"mode "+p.Instance+" is not ordered; adjustment is undefined")
	}

	modes := p.SupportedModeValues()
	if len(modes) == 0 {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective,
			"mode "+p.Instance+" declares no supported modes")
	}

	current, err := x.AlexaState(ctx, p)
	if err != nil {
		return nil, err
	}
	index := -1
	for i, m := range modes {
		if m == current {
			index = i
			break
		}
	}
	if index < 0 {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeEndpointUnreachable,
			fmt.Sprintf("current state %v is not a declared mode", current))
	}

	next := int(capability.Clamp(float64(index+payload.ModeDelta), 0, float64(len(modes)-1)))
	return nil, x.SetValue(ctx, "mode", modes[next])
}

func (d *Dispatcher) handleSetRangeValue(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		RangeValue float64 `json:"rangeValue"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}
	return nil, x.SetValue(ctx, "rangeValue", payload.RangeValue)
}

func (d *Dispatcher) handleAdjustRangeValue(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		RangeValueDelta        float64 `json:"rangeValueDelta"`
		RangeValueDeltaDefault bool    `json:"rangeValueDeltaDefault"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}

	delta := payload.RangeValueDelta
	if payload.RangeValueDeltaDefault {
		// "a little" requests carry no magnitude; step by the range precision.
		p, err := x.Property("rangeValue")
		if err != nil {
			return nil, err
		}
		step := 1.0
		if p.ValueRange != nil && p.ValueRange.Precision > 0 {
			step = p.ValueRange.Precision
		}
		delta = math.Copysign(step, delta)
	}
	return nil, x.AdjustValue(ctx, "rangeValue", delta)
}

// handleScene fires or deactivates a scene switch. Scenes are stateless on
// the platform side, so the response is the scene-controller event rather
// than the standard envelope.
func (d *Dispatcher) handleScene(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	p, err := x.Property("scene")
	if err != nil {
		return nil, err
	}

	name := "ActivationStarted"
	command := "ON"
	if x.Directive.Header.Name == "Deactivate" {
		if !p.ParamBool("supportsDeactivation", true) {
			return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective,
				"scene "+p.ItemName+" does not support deactivation")
		}
		name = "DeactivationStarted"
		command = "OFF"
	}

	if err := x.Send(ctx, p, command); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"cause":     map[string]any{"type": "VOICE_INTERACTION"},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	return alexa.NewCustomResponse(x.Directive, "Alexa.SceneController", name, payload, nil), nil
}

func (d *Dispatcher) handleSetVolume(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		Volume float64 `json:"volume"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}
	return nil, x.SetValue(ctx, "volume", payload.Volume)
}

func (d *Dispatcher) handleAdjustVolume(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		Volume        float64 `json:"volume"`
		VolumeDefault bool    `json:"volumeDefault"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}

	delta := payload.Volume
	if payload.VolumeDefault {
		p, err := x.Property("volume")
		if err != nil {
			return nil, err
		}
		delta = math.Copysign(p.ParamFloat(capability.ParamKeyIncrement, 10), delta)
	}
	return nil, x.AdjustValue(ctx, "volume", delta)
}

func (d *Dispatcher) handleSetMute(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		Mute bool `json:"mute"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}
	return nil, x.SetValue(ctx, "muted", payload.Mute)
}

// handleStepVolume adjusts volume on devices whose level cannot be read:
// the item receives sequential INCREASE/DECREASE commands instead of an
// absolute level.
func (d *Dispatcher) handleStepVolume(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		VolumeSteps        int  `json:"volumeSteps"`
		VolumeStepsDefault bool `json:"volumeStepsDefault"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}

	p, err := x.Property("volume")
	if err != nil {
		return nil, err
	}

	steps := payload.VolumeSteps
	if payload.VolumeStepsDefault {
		steps = int(math.Copysign(p.ParamFloat(capability.ParamKeyIncrement, 1), float64(steps)))
	}
	if steps == 0 {
		return nil, nil
	}

	command := "INCREASE"
	count := steps
	if steps < 0 {
		command = "DECREASE"
		count = -steps
	}
	if count > stepCommandLimit {
		count = stepCommandLimit
	}
	for i := 0; i < count; i++ {
		if err := x.Send(ctx, p, command); err != nil {
			return nil, err
		}
	}
	return nil, nil
}

func (d *Dispatcher) handleStepMute(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		Mute bool `json:"mute"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}
	return nil, x.SetValue(ctx, "muted", payload.Mute)
}

// handlePlayback forwards the directive name through the playback state map,
// coalescing the platform's verb set onto the item's command set.
func (d *Dispatcher) handlePlayback(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	return nil, x.SetValue(ctx, "playback", x.Directive.Header.Name)
}

func (d *Dispatcher) handleChangeChannel(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		Channel         map[string]any `json:"channel"`
		ChannelMetadata struct {
			Name string `json:"name"`
		} `json:"channelMetadata"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}

	value := payload.Channel
	if len(value) == 0 && payload.ChannelMetadata.Name != "" {
		value = map[string]any{"callSign": strings.ToUpper(payload.ChannelMetadata.Name)}
	}
	return nil, x.SetValue(ctx, "channel", value)
}

func (d *Dispatcher) handleSkipChannels(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		ChannelCount float64 `json:"channelCount"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}

	p, err := x.Property("channel")
	if err != nil {
		return nil, err
	}
	if p.ItemType != capability.ItemNumber {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective,
			"channel skipping needs a numeric channel item")
	}

	current, err := x.NumericState(ctx, p)
	if err != nil {
		return nil, err
	}
	next := current + payload.ChannelCount
	if p.ValueRange != nil {
		next = capability.Clamp(next, p.ValueRange.Minimum, p.ValueRange.Maximum)
	}
	return nil, x.Send(ctx, p, capability.FormatNumber(next))
}

func (d *Dispatcher) handleSelectInput(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		Input string `json:"input"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}
	return nil, x.SetValue(ctx, "input", payload.Input)
}
