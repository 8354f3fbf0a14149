package directive

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-alexa/internal/alexa"
	"github.com/nerrad567/gray-logic-alexa/internal/capability"
	"github.com/nerrad567/gray-logic-alexa/internal/endpoint"
	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-alexa/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-alexa/internal/items"
)

// sentCommand is one recorded item command.
type sentCommand struct {
	Item    string
	Command string
}

// fakeServer emulates the item API: state reads answer from the states map,
// commands are recorded and applied so follow-up reads observe them.
type fakeServer struct {
	mu       sync.Mutex
	states   map[string]string
	list     []items.Item
	item     map[string]items.Item
	settings items.RegionalSettings
	commands []sentCommand

	// failItems returns 503 for listing, forcing the discovery degrade path.
	failItems bool
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /items", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failItems {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(f.list)
	})

	mux.HandleFunc("GET /services/regional/config", func(w http.ResponseWriter, _ *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		_ = json.NewEncoder(w).Encode(f.settings)
	})

	mux.HandleFunc("GET /items/{name}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		it, ok := f.item[r.PathValue("name")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(it)
	})

	mux.HandleFunc("GET /items/{name}/state", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		state, ok := f.states[r.PathValue("name")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(state))
	})

	mux.HandleFunc("POST /items/{name}", func(w http.ResponseWriter, r *http.Request) {
		var body [256]byte
		n, _ := r.Body.Read(body[:])
		name := r.PathValue("name")

		f.mu.Lock()
		defer f.mu.Unlock()
		cmd := string(body[:n])
		f.commands = append(f.commands, sentCommand{Item: name, Command: cmd})
		if f.states != nil {
			f.states[name] = cmd
		}
		w.WriteHeader(http.StatusAccepted)
	})

	return mux
}

func (f *fakeServer) sent() []sentCommand {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentCommand{}, f.commands...)
}

// newTestDispatcher starts the fake item server and wires a dispatcher
// against it.
func newTestDispatcher(t *testing.T, f *fakeServer) *Dispatcher {
	t.Helper()
	if f.states == nil {
		f.states = map[string]string{}
	}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Server: config.ServerConfig{
			BaseURL:           srv.URL,
			AuthMode:          "bearer",
			Timeout:           5,
			MetadataNamespace: "alexa",
		},
		Skill: config.SkillConfig{
			ManufacturerName: "Gray Logic",
			DeadlineMillis:   7500,
		},
	}
	return New(cfg, items.New(cfg.Server, logging.Discard()), logging.Discard())
}

// testBinding declares one property binding for a test cookie.
type testBinding struct {
	iface     string
	property  string
	instance  string
	component string
	tag       string
	item      string
	itemType  string
	params    map[string]any
}

// testCookie builds the capability cookie a discovered endpoint would carry.
func testCookie(t *testing.T, bindings ...testBinding) map[string]string {
	t.Helper()
	ep := &endpoint.Endpoint{ID: "test-endpoint"}
	for _, b := range bindings {
		p, err := capability.NewProperty(
			capability.Descriptor{
				Interface:  b.iface,
				Property:   b.property,
				Component:  b.component,
				Tag:        b.tag,
				Parameters: b.params,
			},
			capability.Binding{ItemName: b.item, ItemType: b.itemType},
		)
		if err != nil {
			t.Fatalf("building %s.%s: %v", b.iface, b.property, err)
		}
		ep.AddProperty(b.instance, p)
	}
	cookie, err := endpoint.EncodeCookie(ep)
	if err != nil {
		t.Fatalf("encoding cookie: %v", err)
	}
	return cookie
}

// controlRequest assembles a control directive targeting the test endpoint.
func controlRequest(namespace, name string, cookie map[string]string, payload string) *alexa.Request {
	return &alexa.Request{Directive: alexa.Directive{
		Header: alexa.Header{
			Namespace:        namespace,
			Name:             name,
			PayloadVersion:   "3",
			MessageID:        "msg-1",
			CorrelationToken: "corr-1",
		},
		Endpoint: &alexa.Endpoint{
			Scope:      &alexa.Scope{Type: "BearerToken", Token: "test-token"},
			EndpointID: "test-endpoint",
			Cookie:     cookie,
		},
		Payload: json.RawMessage(payload),
	}}
}

// errorPayload asserts an error envelope and returns its payload fields.
func errorPayload(t *testing.T, resp *alexa.Response) map[string]any {
	t.Helper()
	if resp.Event.Header.Name != "ErrorResponse" {
		t.Fatalf("event = %s.%s, want ErrorResponse",
			resp.Event.Header.Namespace, resp.Event.Header.Name)
	}
	payload, ok := resp.Event.Payload.(map[string]any)
	if !ok {
		t.Fatalf("error payload is %T, want map", resp.Event.Payload)
	}
	return payload
}

// contextValue finds a reported context property value by namespace and name.
func contextValue(resp *alexa.Response, namespace, name string) (any, bool) {
	if resp.Context == nil {
		return nil, false
	}
	for _, p := range resp.Context.Properties {
		if p.Namespace == namespace && p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

func TestDispatchUnknownDirective(t *testing.T) {
	d := newTestDispatcher(t, &fakeServer{})

	req := controlRequest("Alexa.CameraStreamController", "InitializeCameraStreams", nil, "{}")
	resp := d.Dispatch(context.Background(), req)

	payload := errorPayload(t, resp)
	if payload["type"] != "INVALID_DIRECTIVE" {
		t.Errorf("type = %v, want INVALID_DIRECTIVE", payload["type"])
	}
}

func TestDispatchDirectiveWithoutEndpoint(t *testing.T) {
	d := newTestDispatcher(t, &fakeServer{})

	req := controlRequest("Alexa.PowerController", "TurnOn", nil, "{}")
	req.Directive.Endpoint = nil
	resp := d.Dispatch(context.Background(), req)

	payload := errorPayload(t, resp)
	if payload["type"] != "INVALID_DIRECTIVE" {
		t.Errorf("type = %v, want INVALID_DIRECTIVE", payload["type"])
	}
}

func TestDispatchUnusableCookie(t *testing.T) {
	d := newTestDispatcher(t, &fakeServer{})

	req := controlRequest("Alexa.PowerController", "TurnOn",
		map[string]string{"capabilities": "not json"}, "{}")
	resp := d.Dispatch(context.Background(), req)

	payload := errorPayload(t, resp)
	if payload["type"] != "INTERNAL_ERROR" {
		t.Errorf("type = %v, want INTERNAL_ERROR", payload["type"])
	}
}

func TestDispatchCookielessRebuildsFromItem(t *testing.T) {
	f := &fakeServer{
		states: map[string]string{"test-endpoint": "OFF"},
		item: map[string]items.Item{
			"test-endpoint": {
				Name: "test-endpoint",
				Type: "Switch",
				Metadata: map[string]items.Metadata{
					"alexa": {Value: "PowerController.powerState"},
				},
			},
		},
	}
	d := newTestDispatcher(t, f)

	resp := d.Dispatch(context.Background(), controlRequest("Alexa.PowerController", "TurnOn", nil, "{}"))

	if resp.Event.Header.Namespace != "Alexa" || resp.Event.Header.Name != "Response" {
		t.Fatalf("event = %s.%s, want Alexa.Response",
			resp.Event.Header.Namespace, resp.Event.Header.Name)
	}
	sent := f.sent()
	if len(sent) != 1 || sent[0] != (sentCommand{Item: "test-endpoint", Command: "ON"}) {
		t.Errorf("sent = %v, want ON to test-endpoint", sent)
	}
	if v, ok := contextValue(resp, "Alexa.PowerController", "powerState"); !ok || v != "ON" {
		t.Errorf("powerState context = %v", v)
	}
}

func TestDispatchArmRefusedOnUndefinedState(t *testing.T) {
	f := &fakeServer{states: map[string]string{"Panel_Arm": "NULL"}}
	d := newTestDispatcher(t, f)

	cookie := testCookie(t, testBinding{
		iface: capability.InterfaceSecurityPanelController, property: "armState",
		item: "Panel_Arm", itemType: "String",
	})
	resp := d.Dispatch(context.Background(), controlRequest("Alexa.SecurityPanelController", "Arm",
		cookie, `{"armState":"ARMED_AWAY"}`))

	payload := errorPayload(t, resp)
	if payload["type"] != "ENDPOINT_UNREACHABLE" {
		t.Errorf("type = %v, want ENDPOINT_UNREACHABLE", payload["type"])
	}
	if sent := f.sent(); len(sent) != 0 {
		t.Errorf("commands sent despite unusable state: %v", sent)
	}
}

func TestDispatchAdjustRangeReadsSensorItem(t *testing.T) {
	f := &fakeServer{states: map[string]string{"Blind_Position": "55"}}
	d := newTestDispatcher(t, f)

	cookie := testCookie(t,
		testBinding{
			iface: capability.InterfaceRangeController, property: "rangeValue",
			instance: "Blind", item: "Blind_Control", itemType: "Rollershutter",
		},
		testBinding{
			iface: capability.InterfaceRangeController, property: "rangeValue",
			instance: "Blind", tag: capability.TagSensor,
			item: "Blind_Position", itemType: "Number",
		},
	)
	req := controlRequest("Alexa.RangeController", "AdjustRangeValue", cookie,
		`{"rangeValueDelta":10,"rangeValueDeltaDefault":false}`)
	req.Directive.Header.Instance = "Blind"
	resp := d.Dispatch(context.Background(), req)

	if resp.Event.Header.Name != "Response" {
		payload := errorPayload(t, resp)
		t.Fatalf("error %v: %v", payload["type"], payload["message"])
	}
	sent := f.sent()
	if len(sent) != 1 || sent[0] != (sentCommand{Item: "Blind_Control", Command: "65"}) {
		t.Errorf("sent = %v, want 65 to the control item", sent)
	}
}

func TestDispatchTurnOn(t *testing.T) {
	f := &fakeServer{states: map[string]string{"Porch_Light": "OFF"}}
	d := newTestDispatcher(t, f)

	cookie := testCookie(t, testBinding{
		iface: capability.InterfacePowerController, property: "powerState",
		item: "Porch_Light", itemType: "Switch",
	})
	resp := d.Dispatch(context.Background(), controlRequest("Alexa.PowerController", "TurnOn", cookie, "{}"))

	if resp.Event.Header.Namespace != "Alexa" || resp.Event.Header.Name != "Response" {
		t.Fatalf("event = %s.%s, want Alexa.Response",
			resp.Event.Header.Namespace, resp.Event.Header.Name)
	}
	if resp.Event.Header.CorrelationToken != "corr-1" {
		t.Errorf("correlation token not echoed")
	}
	if resp.Event.Endpoint == nil || resp.Event.Endpoint.EndpointID != "test-endpoint" {
		t.Errorf("endpoint reference not echoed")
	}

	if got := f.sent(); len(got) != 1 || got[0] != (sentCommand{"Porch_Light", "ON"}) {
		t.Errorf("commands = %v, want single ON to Porch_Light", got)
	}
	if v, ok := contextValue(resp, "Alexa.PowerController", "powerState"); !ok || v != "ON" {
		t.Errorf("powerState context = %v (%v), want ON", v, ok)
	}
}

func TestDispatchAdjustBrightnessClampsAtZero(t *testing.T) {
	f := &fakeServer{states: map[string]string{"Hall_Dimmer": "40"}}
	d := newTestDispatcher(t, f)

	cookie := testCookie(t, testBinding{
		iface: capability.InterfaceBrightnessController, property: "brightness",
		item: "Hall_Dimmer", itemType: "Dimmer",
	})
	resp := d.Dispatch(context.Background(),
		controlRequest("Alexa.BrightnessController", "AdjustBrightness", cookie, `{"brightnessDelta":-50}`))

	if resp.Event.Header.Name != "Response" {
		t.Fatalf("event = %s, want Response", resp.Event.Header.Name)
	}
	if got := f.sent(); len(got) != 1 || got[0] != (sentCommand{"Hall_Dimmer", "0"}) {
		t.Errorf("commands = %v, want clamp to 0", got)
	}
}

func TestDispatchReportState(t *testing.T) {
	f := &fakeServer{states: map[string]string{"Porch_Light": "ON"}}
	d := newTestDispatcher(t, f)

	cookie := testCookie(t, testBinding{
		iface: capability.InterfacePowerController, property: "powerState",
		item: "Porch_Light", itemType: "Switch",
	})
	resp := d.Dispatch(context.Background(), controlRequest("Alexa", "ReportState", cookie, "{}"))

	if resp.Event.Header.Name != "StateReport" {
		t.Fatalf("event = %s, want StateReport", resp.Event.Header.Name)
	}
	if v, ok := contextValue(resp, "Alexa.PowerController", "powerState"); !ok || v != "ON" {
		t.Errorf("powerState = %v (%v), want ON", v, ok)
	}
	if got := f.sent(); len(got) != 0 {
		t.Errorf("state report sent commands: %v", got)
	}
}

func TestDispatchReportStateAllUnreadable(t *testing.T) {
	// State exists for nothing; the endpoint is considered unreachable.
	f := &fakeServer{}
	d := newTestDispatcher(t, f)

	cookie := testCookie(t, testBinding{
		iface: capability.InterfacePowerController, property: "powerState",
		item: "Porch_Light", itemType: "Switch",
	})
	resp := d.Dispatch(context.Background(), controlRequest("Alexa", "ReportState", cookie, "{}"))

	payload := errorPayload(t, resp)
	if payload["type"] != "ENDPOINT_UNREACHABLE" {
		t.Errorf("type = %v, want ENDPOINT_UNREACHABLE", payload["type"])
	}
}

func TestDispatchSceneActivate(t *testing.T) {
	f := &fakeServer{}
	d := newTestDispatcher(t, f)

	cookie := testCookie(t, testBinding{
		iface: capability.InterfaceSceneController, property: "scene",
		item: "Movie_Scene", itemType: "Switch",
	})
	resp := d.Dispatch(context.Background(),
		controlRequest("Alexa.SceneController", "Activate", cookie, "{}"))

	if resp.Event.Header.Namespace != "Alexa.SceneController" ||
		resp.Event.Header.Name != "ActivationStarted" {
		t.Fatalf("event = %s.%s, want Alexa.SceneController.ActivationStarted",
			resp.Event.Header.Namespace, resp.Event.Header.Name)
	}
	if got := f.sent(); len(got) != 1 || got[0] != (sentCommand{"Movie_Scene", "ON"}) {
		t.Errorf("commands = %v, want single ON to Movie_Scene", got)
	}
}

func TestDispatchSceneDeactivateUnsupported(t *testing.T) {
	f := &fakeServer{}
	d := newTestDispatcher(t, f)

	cookie := testCookie(t, testBinding{
		iface: capability.InterfaceSceneController, property: "scene",
		item: "Movie_Scene", itemType: "Switch",
		params: map[string]any{"supportsDeactivation": false},
	})
	resp := d.Dispatch(context.Background(),
		controlRequest("Alexa.SceneController", "Deactivate", cookie, "{}"))

	payload := errorPayload(t, resp)
	if payload["type"] != "INVALID_DIRECTIVE" {
		t.Errorf("type = %v, want INVALID_DIRECTIVE", payload["type"])
	}
	if got := f.sent(); len(got) != 0 {
		t.Errorf("refused deactivation still sent commands: %v", got)
	}
}

func TestDispatchStepVolumeCapped(t *testing.T) {
	f := &fakeServer{}
	d := newTestDispatcher(t, f)

	cookie := testCookie(t, testBinding{
		iface: capability.InterfaceStepSpeaker, property: "volume",
		item: "TV_Volume", itemType: "Dimmer",
	})
	resp := d.Dispatch(context.Background(),
		controlRequest("Alexa.StepSpeaker", "AdjustVolume", cookie, `{"volumeSteps":-25}`))

	if resp.Event.Header.Name != "Response" {
		t.Fatalf("event = %s, want Response", resp.Event.Header.Name)
	}
	got := f.sent()
	if len(got) != stepCommandLimit {
		t.Fatalf("sent %d commands, want cap of %d", len(got), stepCommandLimit)
	}
	for _, cmd := range got {
		if cmd != (sentCommand{"TV_Volume", "DECREASE"}) {
			t.Fatalf("command = %v, want DECREASE to TV_Volume", cmd)
		}
	}
}

func TestDispatchPlaybackCoalesces(t *testing.T) {
	f := &fakeServer{}
	d := newTestDispatcher(t, f)

	cookie := testCookie(t, testBinding{
		iface: capability.InterfacePlaybackController, property: "playback",
		item: "TV_Player", itemType: "Player",
	})
	resp := d.Dispatch(context.Background(),
		controlRequest("Alexa.PlaybackController", "Stop", cookie, "{}"))

	if resp.Event.Header.Name != "Response" {
		t.Fatalf("event = %s, want Response", resp.Event.Header.Name)
	}
	// Stop has no native equivalent on Player items; it coalesces to PAUSE.
	if got := f.sent(); len(got) != 1 || got[0] != (sentCommand{"TV_Player", "PAUSE"}) {
		t.Errorf("commands = %v, want single PAUSE", got)
	}
}

func TestDispatchDiscover(t *testing.T) {
	f := &fakeServer{
		list: []items.Item{
			{
				Name: "Porch_Light",
				Type: "Switch",
				Metadata: map[string]items.Metadata{
					"alexa": {Value: "PowerController.powerState"},
				},
			},
			{Name: "Untagged_Item", Type: "Switch"},
		},
		settings: items.RegionalSettings{Language: "en", Region: "GB"},
	}
	d := newTestDispatcher(t, f)

	req := &alexa.Request{Directive: alexa.Directive{
		Header:  alexa.Header{Namespace: "Alexa.Discovery", Name: "Discover", PayloadVersion: "3", MessageID: "msg-1"},
		Payload: json.RawMessage(`{"scope":{"type":"BearerToken","token":"test-token"}}`),
	}}
	resp := d.Dispatch(context.Background(), req)

	if resp.Event.Header.Name != "Discover.Response" {
		t.Fatalf("event = %s, want Discover.Response", resp.Event.Header.Name)
	}
	payload, ok := resp.Event.Payload.(alexa.DiscoveryPayload)
	if !ok {
		t.Fatalf("payload is %T, want DiscoveryPayload", resp.Event.Payload)
	}
	if len(payload.Endpoints) != 1 {
		t.Fatalf("endpoints = %d, want 1", len(payload.Endpoints))
	}
	ep := payload.Endpoints[0]
	if ep.EndpointID != "Porch_Light" {
		t.Errorf("endpointId = %q", ep.EndpointID)
	}
	if len(ep.Cookie) == 0 {
		t.Errorf("discovered endpoint carries no cookie")
	}
}

func TestDispatchDiscoverDegradesOnServerFailure(t *testing.T) {
	f := &fakeServer{failItems: true}
	d := newTestDispatcher(t, f)

	req := &alexa.Request{Directive: alexa.Directive{
		Header:  alexa.Header{Namespace: "Alexa.Discovery", Name: "Discover", PayloadVersion: "3", MessageID: "msg-1"},
		Payload: json.RawMessage(`{"scope":{"type":"BearerToken","token":"test-token"}}`),
	}}
	resp := d.Dispatch(context.Background(), req)

	// Anything but Discover.Response would disable the skill.
	if resp.Event.Header.Name != "Discover.Response" {
		t.Fatalf("event = %s, want Discover.Response", resp.Event.Header.Name)
	}
	payload, ok := resp.Event.Payload.(alexa.DiscoveryPayload)
	if !ok || len(payload.Endpoints) != 0 {
		t.Errorf("payload = %#v, want empty endpoint list", resp.Event.Payload)
	}
}

func TestDispatchAcceptGrant(t *testing.T) {
	d := newTestDispatcher(t, &fakeServer{})

	req := &alexa.Request{Directive: alexa.Directive{
		Header:  alexa.Header{Namespace: "Alexa.Authorization", Name: "AcceptGrant", PayloadVersion: "3", MessageID: "msg-1"},
		Payload: json.RawMessage(`{"grant":{"type":"OAuth2.AuthorizationCode","code":"x"},"grantee":{"type":"BearerToken","token":"test-token"}}`),
	}}
	resp := d.Dispatch(context.Background(), req)

	if resp.Event.Header.Namespace != "Alexa.Authorization" ||
		resp.Event.Header.Name != "AcceptGrant.Response" {
		t.Fatalf("event = %s.%s, want Alexa.Authorization.AcceptGrant.Response",
			resp.Event.Header.Namespace, resp.Event.Header.Name)
	}
}
