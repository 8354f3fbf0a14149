package directive

import (
	"context"
	"testing"

	"github.com/nerrad567/gray-logic-alexa/internal/capability"
)

func panelCookie(t *testing.T, extra ...testBinding) map[string]string {
	t.Helper()
	bindings := append([]testBinding{{
		iface: capability.InterfaceSecurityPanelController, property: "armState",
		item: "Panel_Arm", itemType: "String",
		params: map[string]any{"exitDelay": 30},
	}}, extra...)
	return testCookie(t, bindings...)
}

func TestArmAway(t *testing.T) {
	f := &fakeServer{states: map[string]string{"Panel_Arm": "DISARMED"}}
	d := newTestDispatcher(t, f)

	resp := d.Dispatch(context.Background(),
		controlRequest("Alexa.SecurityPanelController", "Arm",
			panelCookie(t), `{"armState":"ARMED_AWAY"}`))

	if resp.Event.Header.Namespace != "Alexa.SecurityPanelController" ||
		resp.Event.Header.Name != "Arm.Response" {
		t.Fatalf("event = %s.%s, want Alexa.SecurityPanelController.Arm.Response",
			resp.Event.Header.Namespace, resp.Event.Header.Name)
	}
	payload, ok := resp.Event.Payload.(map[string]any)
	if !ok || payload["exitDelayInSeconds"] != 30 {
		t.Errorf("payload = %v, want exitDelayInSeconds 30", resp.Event.Payload)
	}
	if got := f.sent(); len(got) != 1 || got[0] != (sentCommand{"Panel_Arm", "ARMED_AWAY"}) {
		t.Errorf("commands = %v, want ARMED_AWAY to Panel_Arm", got)
	}
	if v, ok := contextValue(resp, "Alexa.SecurityPanelController", "armState"); !ok || v != "ARMED_AWAY" {
		t.Errorf("armState context = %v, want ARMED_AWAY", v)
	}
}

func TestArmStayOmitsExitDelay(t *testing.T) {
	f := &fakeServer{states: map[string]string{"Panel_Arm": "DISARMED"}}
	d := newTestDispatcher(t, f)

	resp := d.Dispatch(context.Background(),
		controlRequest("Alexa.SecurityPanelController", "Arm",
			panelCookie(t), `{"armState":"ARMED_STAY"}`))

	if resp.Event.Header.Name != "Arm.Response" {
		t.Fatalf("event = %s, want Arm.Response", resp.Event.Header.Name)
	}
	payload, ok := resp.Event.Payload.(map[string]any)
	if !ok {
		t.Fatalf("payload is %T, want map", resp.Event.Payload)
	}
	if _, present := payload["exitDelayInSeconds"]; present {
		t.Errorf("exit delay reported for stay arming: %v", payload)
	}
}

func TestArmBlockedByActiveAlarm(t *testing.T) {
	f := &fakeServer{states: map[string]string{
		"Panel_Arm":      "DISARMED",
		"Panel_Burglary": "ON",
	}}
	d := newTestDispatcher(t, f)

	cookie := panelCookie(t, testBinding{
		iface: capability.InterfaceSecurityPanelController, property: "burglaryAlarm",
		item: "Panel_Burglary", itemType: "Switch",
	})
	resp := d.Dispatch(context.Background(),
		controlRequest("Alexa.SecurityPanelController", "Arm",
			cookie, `{"armState":"ARMED_AWAY"}`))

	if resp.Event.Header.Namespace != "Alexa.SecurityPanelController" {
		t.Errorf("error namespace = %s, want Alexa.SecurityPanelController",
			resp.Event.Header.Namespace)
	}
	payload := errorPayload(t, resp)
	if payload["type"] != "UNCLEARED_ALARM" {
		t.Fatalf("type = %v, want UNCLEARED_ALARM", payload["type"])
	}
	if payload["unclearedAlarm"] != "BURGLARY" {
		t.Errorf("unclearedAlarm = %v, want BURGLARY", payload["unclearedAlarm"])
	}
	if got := f.sent(); len(got) != 0 {
		t.Errorf("blocked arm still sent commands: %v", got)
	}
}

func TestArmBlockedByTrouble(t *testing.T) {
	f := &fakeServer{states: map[string]string{
		"Panel_Arm":     "DISARMED",
		"Panel_Trouble": "ON",
	}}
	d := newTestDispatcher(t, f)

	cookie := panelCookie(t, testBinding{
		iface: capability.InterfaceSecurityPanelController, property: "troubleAlert",
		item: "Panel_Trouble", itemType: "Switch",
	})
	resp := d.Dispatch(context.Background(),
		controlRequest("Alexa.SecurityPanelController", "Arm",
			cookie, `{"armState":"ARMED_AWAY"}`))

	payload := errorPayload(t, resp)
	if payload["type"] != "UNCLEARED_TROUBLE" {
		t.Fatalf("type = %v, want UNCLEARED_TROUBLE", payload["type"])
	}
}

func TestArmDowngradeNeedsPanelAuthorization(t *testing.T) {
	f := &fakeServer{states: map[string]string{"Panel_Arm": "ARMED_AWAY"}}
	d := newTestDispatcher(t, f)

	resp := d.Dispatch(context.Background(),
		controlRequest("Alexa.SecurityPanelController", "Arm",
			panelCookie(t), `{"armState":"ARMED_STAY"}`))

	payload := errorPayload(t, resp)
	if payload["type"] != "AUTHORIZATION_REQUIRED" {
		t.Fatalf("type = %v, want AUTHORIZATION_REQUIRED", payload["type"])
	}
	if got := f.sent(); len(got) != 0 {
		t.Errorf("refused downgrade still sent commands: %v", got)
	}
}

func TestArmUnsupportedState(t *testing.T) {
	f := &fakeServer{states: map[string]string{"Panel_Arm": "DISARMED"}}
	d := newTestDispatcher(t, f)

	cookie := testCookie(t, testBinding{
		iface: capability.InterfaceSecurityPanelController, property: "armState",
		item: "Panel_Arm", itemType: "String",
		params: map[string]any{"supportedArmStates": []string{"ARMED_AWAY", "DISARMED"}},
	})
	resp := d.Dispatch(context.Background(),
		controlRequest("Alexa.SecurityPanelController", "Arm",
			cookie, `{"armState":"ARMED_NIGHT"}`))

	payload := errorPayload(t, resp)
	if payload["type"] != "INVALID_VALUE" {
		t.Fatalf("type = %v, want INVALID_VALUE", payload["type"])
	}
}

func TestDisarmWithPin(t *testing.T) {
	f := &fakeServer{states: map[string]string{"Panel_Arm": "ARMED_AWAY"}}
	d := newTestDispatcher(t, f)

	cookie := testCookie(t, testBinding{
		iface: capability.InterfaceSecurityPanelController, property: "armState",
		item: "Panel_Arm", itemType: "String",
		params: map[string]any{"pinCodes": []string{"1234"}},
	})
	resp := d.Dispatch(context.Background(),
		controlRequest("Alexa.SecurityPanelController", "Disarm",
			cookie, `{"authorization":{"type":"FOUR_DIGIT_PIN","value":"1234"}}`))

	if resp.Event.Header.Name != "Response" {
		t.Fatalf("event = %s, want Response", resp.Event.Header.Name)
	}
	if got := f.sent(); len(got) != 1 || got[0] != (sentCommand{"Panel_Arm", "DISARMED"}) {
		t.Errorf("commands = %v, want DISARMED to Panel_Arm", got)
	}
	if v, ok := contextValue(resp, "Alexa.SecurityPanelController", "armState"); !ok || v != "DISARMED" {
		t.Errorf("armState context = %v, want DISARMED", v)
	}
}

func TestDisarmRejectsWrongPin(t *testing.T) {
	f := &fakeServer{states: map[string]string{"Panel_Arm": "ARMED_AWAY"}}
	d := newTestDispatcher(t, f)

	cookie := testCookie(t, testBinding{
		iface: capability.InterfaceSecurityPanelController, property: "armState",
		item: "Panel_Arm", itemType: "String",
		params: map[string]any{"pinCodes": []string{"1234"}},
	})
	resp := d.Dispatch(context.Background(),
		controlRequest("Alexa.SecurityPanelController", "Disarm",
			cookie, `{"authorization":{"type":"FOUR_DIGIT_PIN","value":"9999"}}`))

	payload := errorPayload(t, resp)
	if payload["type"] != "UNAUTHORIZED" {
		t.Fatalf("type = %v, want UNAUTHORIZED", payload["type"])
	}
	if got := f.sent(); len(got) != 0 {
		t.Errorf("rejected disarm still sent commands: %v", got)
	}
}

func TestDisarmBlockedWhenNotReady(t *testing.T) {
	f := &fakeServer{states: map[string]string{
		"Panel_Arm":   "ARMED_AWAY",
		"Panel_Ready": "ON",
	}}
	d := newTestDispatcher(t, f)

	cookie := panelCookie(t, testBinding{
		iface: capability.InterfaceSecurityPanelController, property: "readyAlert",
		item: "Panel_Ready", itemType: "Switch",
	})
	resp := d.Dispatch(context.Background(),
		controlRequest("Alexa.SecurityPanelController", "Disarm", cookie, "{}"))

	payload := errorPayload(t, resp)
	if payload["type"] != "NOT_READY" {
		t.Fatalf("type = %v, want NOT_READY", payload["type"])
	}
}
