package directive

import (
	"context"
	"testing"

	"github.com/nerrad567/gray-logic-alexa/internal/capability"
)

func equalizerCookie(t *testing.T) map[string]string {
	t.Helper()
	return testCookie(t,
		testBinding{
			iface: capability.InterfaceEqualizerController, property: "bands",
			component: "bass", item: "EQ_Bass", itemType: "Number",
		},
		testBinding{
			iface: capability.InterfaceEqualizerController, property: "bands",
			component: "treble", item: "EQ_Treble", itemType: "Number",
		},
	)
}

func TestSetBands(t *testing.T) {
	f := &fakeServer{states: map[string]string{"EQ_Bass": "0", "EQ_Treble": "0"}}
	d := newTestDispatcher(t, f)

	resp := d.Dispatch(context.Background(),
		controlRequest("Alexa.EqualizerController", "SetBands",
			equalizerCookie(t), `{"bands":[{"name":"BASS","level":4}]}`))

	if resp.Event.Header.Name != "Response" {
		t.Fatalf("event = %s, want Response", resp.Event.Header.Name)
	}
	if got := f.sent(); len(got) != 1 || got[0] != (sentCommand{"EQ_Bass", "4"}) {
		t.Errorf("commands = %v, want 4 to EQ_Bass", got)
	}
}

func TestSetBandsUnknownBand(t *testing.T) {
	f := &fakeServer{}
	d := newTestDispatcher(t, f)

	resp := d.Dispatch(context.Background(),
		controlRequest("Alexa.EqualizerController", "SetBands",
			equalizerCookie(t), `{"bands":[{"name":"MIDRANGE","level":4}]}`))

	payload := errorPayload(t, resp)
	if payload["type"] != "INVALID_VALUE" {
		t.Fatalf("type = %v, want INVALID_VALUE", payload["type"])
	}
}

func TestAdjustBandsClampsToRange(t *testing.T) {
	// Number bands run -10..10 by default.
	f := &fakeServer{states: map[string]string{"EQ_Bass": "9", "EQ_Treble": "0"}}
	d := newTestDispatcher(t, f)

	resp := d.Dispatch(context.Background(),
		controlRequest("Alexa.EqualizerController", "AdjustBands",
			equalizerCookie(t), `{"bands":[{"name":"BASS","levelDelta":3,"levelDirection":"UP"}]}`))

	if resp.Event.Header.Name != "Response" {
		t.Fatalf("event = %s, want Response", resp.Event.Header.Name)
	}
	if got := f.sent(); len(got) != 1 || got[0] != (sentCommand{"EQ_Bass", "10"}) {
		t.Errorf("commands = %v, want clamp to 10", got)
	}
}

func TestResetBandsReturnsToMidpoint(t *testing.T) {
	f := &fakeServer{states: map[string]string{"EQ_Bass": "7", "EQ_Treble": "-3"}}
	d := newTestDispatcher(t, f)

	resp := d.Dispatch(context.Background(),
		controlRequest("Alexa.EqualizerController", "ResetBands",
			equalizerCookie(t), `{"bands":[{"name":"BASS"},{"name":"TREBLE"}]}`))

	if resp.Event.Header.Name != "Response" {
		t.Fatalf("event = %s, want Response", resp.Event.Header.Name)
	}
	want := []sentCommand{{"EQ_Bass", "0"}, {"EQ_Treble", "0"}}
	got := f.sent()
	if len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("commands = %v, want both bands reset to 0", got)
	}
}

func TestDispatchAdjustOrderedMode(t *testing.T) {
	f := &fakeServer{states: map[string]string{"Fan_Speed": "MEDIUM"}}
	d := newTestDispatcher(t, f)

	cookie := testCookie(t, testBinding{
		iface: capability.InterfaceModeController, property: "mode",
		instance: "Mode:Fan_Speed", item: "Fan_Speed", itemType: "String",
		params: map[string]any{
			"supportedModes": []string{"LOW", "MEDIUM", "HIGH"},
			"ordered":        true,
		},
	})
	req := controlRequest("Alexa.ModeController", "AdjustMode", cookie, `{"modeDelta":1}`)
	req.Directive.Header.Instance = "Mode:Fan_Speed"
	resp := d.Dispatch(context.Background(), req)

	if resp.Event.Header.Name != "Response" {
		t.Fatalf("event = %s, want Response: %v", resp.Event.Header.Name, resp.Event.Payload)
	}
	if got := f.sent(); len(got) != 1 || got[0] != (sentCommand{"Fan_Speed", "HIGH"}) {
		t.Errorf("commands = %v, want step to HIGH", got)
	}
}

func TestDispatchAdjustUnorderedModeRefused(t *testing.T) {
	f := &fakeServer{states: map[string]string{"Fan_Speed": "MEDIUM"}}
	d := newTestDispatcher(t, f)

	cookie := testCookie(t, testBinding{
		iface: capability.InterfaceModeController, property: "mode",
		instance: "Mode:Fan_Speed", item: "Fan_Speed", itemType: "String",
		params: map[string]any{"supportedModes": []string{"LOW", "MEDIUM", "HIGH"}},
	})
	req := controlRequest("Alexa.ModeController", "AdjustMode", cookie, `{"modeDelta":1}`)
	req.Directive.Header.Instance = "Mode:Fan_Speed"
	resp := d.Dispatch(context.Background(), req)

	payload := errorPayload(t, resp)
	if payload["type"] != "INVALID_DIRECTIVE" {
		t.Fatalf("type = %v, want INVALID_DIRECTIVE", payload["type"])
	}
}

func TestDispatchAdjustRangeValueDefaultDelta(t *testing.T) {
	f := &fakeServer{states: map[string]string{"Blind_Position": "40"}}
	d := newTestDispatcher(t, f)

	cookie := testCookie(t, testBinding{
		iface: capability.InterfaceRangeController, property: "rangeValue",
		instance: "Range:Blind_Position", item: "Blind_Position", itemType: "Number",
	})
	req := controlRequest("Alexa.RangeController", "AdjustRangeValue", cookie,
		`{"rangeValueDelta":-3,"rangeValueDeltaDefault":true}`)
	req.Directive.Header.Instance = "Range:Blind_Position"
	resp := d.Dispatch(context.Background(), req)

	if resp.Event.Header.Name != "Response" {
		t.Fatalf("event = %s, want Response: %v", resp.Event.Header.Name, resp.Event.Payload)
	}
	// The default step is the range precision, signed by the request.
	if got := f.sent(); len(got) != 1 || got[0] != (sentCommand{"Blind_Position", "39"}) {
		t.Errorf("commands = %v, want single step down to 39", got)
	}
}
