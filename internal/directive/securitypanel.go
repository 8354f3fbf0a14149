package directive

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
	"github.com/nerrad567/gray-logic-alexa/internal/capability"
)

const securityPanelNamespace = "Alexa.SecurityPanelController"

// alarmProperties are the alert properties whose active state blocks arming
// with UNCLEARED_ALARM.
var alarmProperties = []string{
	"burglaryAlarm", "fireAlarm", "carbonMonoxideAlarm", "waterAlarm", "zonesAlert",
}

// handleArm arms the panel after arbitrating across its alert properties:
// any active alarm refuses arming, an unresolved trouble condition refuses
// arming, and stepping down from away to stay or night needs the panel's
// own authorization flow rather than a voice command.
func (d *Dispatcher) handleArm(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		ArmState string `json:"armState"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}
	requested := strings.ToUpper(payload.ArmState)

	p, err := x.Property("armState")
	if err != nil {
		return nil, err
	}
	if !armStateSupported(p, requested) {
		return nil, alexa.NewNamespacedError(securityPanelNamespace, alexa.ErrTypeInvalidValue,
			requested+" is not a supported arm state")
	}

	c, err := x.Capability()
	if err != nil {
		return nil, err
	}
	if err := d.checkAlerts(ctx, x, c); err != nil {
		return nil, err
	}

	current, err := x.State(ctx, p)
	if err != nil {
		return nil, err
	}
	currentArm, _ := p.StateMap.ToAlexa(current)

	if currentArm == "ARMED_AWAY" && (requested == "ARMED_STAY" || requested == "ARMED_NIGHT") {
		return nil, alexa.NewNamespacedError(securityPanelNamespace,
			alexa.ErrTypeAuthorizationRequired,
			"downgrading from away arming requires panel authorization")
	}

	if currentArm != requested {
		native, ok := p.StateMap.ToNative(requested)
		if !ok {
			return nil, alexa.NewNamespacedError(securityPanelNamespace, alexa.ErrTypeInvalidValue,
				requested+" has no native arm mapping")
		}
		if err := x.Send(ctx, p, native); err != nil {
			return nil, err
		}
	}

	armPayload := map[string]any{}
	if requested == "ARMED_AWAY" {
		if delay := p.ParamFloat(capability.ParamKeyExitDelay, 0); delay > 0 {
			armPayload["exitDelayInSeconds"] = int(delay)
		}
	}

	properties := []alexa.ContextProperty{
		alexa.NewContextProperty(securityPanelNamespace, "", "armState", requested),
	}
	return alexa.NewCustomResponse(x.Directive, securityPanelNamespace, "Arm.Response",
		armPayload, properties), nil
}

// handleDisarm validates the caller's PIN against the configured allow-list
// and checks the panel's ready state before releasing the arm item.
func (d *Dispatcher) handleDisarm(ctx context.Context, x *Exchange) (*alexa.Response, error) {
	var payload struct {
		Authorization *struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"authorization"`
	}
	if err := x.Directive.BindPayload(&payload); err != nil {
		return nil, alexa.NewDirectiveError(alexa.ErrTypeInvalidDirective, err.Error())
	}

	p, err := x.Property("armState")
	if err != nil {
		return nil, err
	}

	if pins := p.ParamList(capability.ParamKeyPinCodes); len(pins) > 0 {
		supplied := ""
		if payload.Authorization != nil && payload.Authorization.Type == "FOUR_DIGIT_PIN" {
			supplied = payload.Authorization.Value
		}
		valid := false
		for _, pin := range pins {
			if supplied != "" && pin == supplied {
				valid = true
				break
			}
		}
		if !valid {
			return nil, alexa.NewNamespacedError(securityPanelNamespace, alexa.ErrTypeUnauthorized,
				"the supplied PIN does not match")
		}
	}

	c, err := x.Capability()
	if err != nil {
		return nil, err
	}
	if ready := c.Property("readyAlert"); ready != nil {
		state, err := x.State(ctx, ready)
		if err == nil {
			if alert, ok := ready.StateMap.ToAlexa(state); ok && alert == "ALARM" {
				return nil, alexa.NewNamespacedError(securityPanelNamespace, alexa.ErrTypeNotReady,
					"the panel is not ready")
			}
		}
	}

	native, ok := p.StateMap.ToNative("DISARMED")
	if !ok {
		return nil, alexa.NewNamespacedError(securityPanelNamespace, alexa.ErrTypeInvalidValue,
			"DISARMED has no native arm mapping")
	}
	if err := x.Send(ctx, p, native); err != nil {
		return nil, err
	}

	properties := []alexa.ContextProperty{
		alexa.NewContextProperty(securityPanelNamespace, "", "armState", "DISARMED"),
	}
	return alexa.NewResponse(x.Directive, properties), nil
}

// checkAlerts reads every configured alert property concurrently and refuses
// arming on the first active one: alarms map to UNCLEARED_ALARM with the
// alert type, trouble to UNCLEARED_TROUBLE, an unready panel to NOT_READY.
// Unreadable alert items do not block arming.
func (d *Dispatcher) checkAlerts(ctx context.Context, x *Exchange, c *capability.Capability) error {
	type alertReading struct {
		name   string
		active bool
	}

	names := append([]string{}, alarmProperties...)
	names = append(names, "troubleAlert", "readyAlert")

	readings := make([]alertReading, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		p := c.Property(name)
		if p == nil {
			continue
		}
		g.Go(func() error {
			state, err := x.State(gctx, p)
			if err != nil {
				d.logger.Warn("alert state unreadable", "item", p.ReadItem(), "error", err)
				return nil
			}
			alert, ok := p.StateMap.ToAlexa(state)
			readings[i] = alertReading{name: name, active: ok && alert == "ALARM"}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, r := range readings {
		if !r.active {
			continue
		}
		switch r.name {
		case "troubleAlert":
			return alexa.NewNamespacedError(securityPanelNamespace, alexa.ErrTypeUnclearedTrouble,
				"the panel reports an unresolved trouble condition")
		case "readyAlert":
			return alexa.NewNamespacedError(securityPanelNamespace, alexa.ErrTypeNotReady,
				"the panel is not ready")
		default:
			return alexa.NewNamespacedError(securityPanelNamespace, alexa.ErrTypeUnclearedAlarm,
				"an alarm must be cleared before arming").
				WithExtra("unclearedAlarm", alarmType(r.name))
		}
	}
	return nil
}

// armStateSupported checks the requested state against the configured
// allow-list, falling back to the schema allowlist.
func armStateSupported(p *capability.Property, state string) bool {
	if supported := p.ParamList(capability.ParamKeySupportedArmStates); len(supported) > 0 {
		for _, s := range supported {
			if strings.EqualFold(s, state) {
				return true
			}
		}
		return false
	}
	if s := p.Schema(); s != nil {
		return s.SupportsValue(state)
	}
	_, ok := p.StateMap.ToNative(state)
	return ok
}

// alarmType maps an alert property name onto the platform's alarm type token.
func alarmType(property string) string {
	switch property {
	case "burglaryAlarm", "zonesAlert":
		return "BURGLARY"
	case "fireAlarm":
		return "FIRE"
	case "carbonMonoxideAlarm":
		return "CARBON_MONOXIDE"
	case "waterAlarm":
		return "WATER"
	}
	return "BURGLARY"
}
