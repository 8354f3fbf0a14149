package capability

import (
	"fmt"
	"strconv"
	"strings"
)

// Interface names (short form, without the "Alexa." prefix).
const (
	InterfacePowerController            = "PowerController"
	InterfaceBrightnessController       = "BrightnessController"
	InterfacePowerLevelController       = "PowerLevelController"
	InterfacePercentageController       = "PercentageController"
	InterfaceColorController            = "ColorController"
	InterfaceColorTemperatureController = "ColorTemperatureController"
	InterfaceThermostatController       = "ThermostatController"
	InterfaceTemperatureSensor          = "TemperatureSensor"
	InterfaceContactSensor              = "ContactSensor"
	InterfaceMotionSensor               = "MotionSensor"
	InterfaceLockController             = "LockController"
	InterfaceModeController             = "ModeController"
	InterfaceRangeController            = "RangeController"
	InterfaceToggleController           = "ToggleController"
	InterfaceSceneController            = "SceneController"
	InterfaceSpeaker                    = "Speaker"
	InterfaceStepSpeaker                = "StepSpeaker"
	InterfacePlaybackController         = "PlaybackController"
	InterfaceEqualizerController        = "EqualizerController"
	InterfaceSecurityPanelController    = "SecurityPanelController"
	InterfaceChannelController          = "ChannelController"
	InterfaceInputController            = "InputController"
)

// Shared parameter keys.
const (
	ParamKeyRetrievable        = "retrievable"
	ParamKeySensor             = "sensor"
	ParamKeyBinding            = "binding"
	ParamKeyScale              = "scale"
	ParamKeyRange              = "range"
	ParamKeyInverted           = "inverted"
	ParamKeyComfortRange       = "comfortRange"
	ParamKeySupportedModes     = "supportedModes"
	ParamKeyFriendlyNames      = "friendlyNames"
	ParamKeyOrdered            = "ordered"
	ParamKeyNonControllable    = "nonControllable"
	ParamKeyUnitOfMeasure      = "unitOfMeasure"
	ParamKeyPresets            = "presets"
	ParamKeyActionMappings     = "actionMappings"
	ParamKeyStateMappings      = "stateMappings"
	ParamKeyPinCodes           = "pinCodes"
	ParamKeyExitDelay          = "exitDelay"
	ParamKeySupportedArmStates = "supportedArmStates"
	ParamKeySupportedInputs    = "supportedInputs"
	ParamKeyIncrement          = "increment"
	ParamKeyInstance           = "instance"
)

// Thermostat modes accepted by the platform.
var thermostatModes = []string{"AUTO", "COOL", "HEAT", "ECO", "OFF"}

// Arm states accepted by the platform.
var armStates = []string{"ARMED_AWAY", "ARMED_STAY", "ARMED_NIGHT", "DISARMED"}

// Equalizer bands subdividing the "bands" property.
var equalizerBands = []string{"bass", "midrange", "treble"}

// registry is the static capability table, keyed by interface name.
var registry map[string][]*PropertySchema

func init() {
	registry = map[string][]*PropertySchema{}
	for _, s := range allSchemas() {
		registry[s.Interface] = append(registry[s.Interface], s)
	}
}

// commonParams returns the parameter declarations every schema accepts,
// merged with the schema-specific ones.
func commonParams(extra map[string]ParamType) map[string]ParamType {
	out := map[string]ParamType{
		ParamKeyRetrievable: ParamBool,
		ParamKeySensor:      ParamString,
		ParamKeyBinding:     ParamString,
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func onOffMap() StateMap {
	return StateMap{{Alexa: "ON", Native: "ON"}, {Alexa: "OFF", Native: "OFF"}}
}

func allSchemas() []*PropertySchema {
	return []*PropertySchema{
		{
			Interface:        InterfacePowerController,
			Property:         "powerState",
			ItemTypes:        []string{ItemSwitch, ItemDimmer, ItemColor},
			DefaultStateMaps: map[string]StateMap{
				ItemSwitch: onOffMap(),
				ItemDimmer: onOffMap(),
				ItemColor:  onOffMap(),
			},
			Parameters:       commonParams(nil),
			DisplayCategory:  "SWITCH",
			ToAlexa:          powerStateToAlexa,
		},
		{
			Interface: InterfaceBrightnessController,
			Property:  "brightness",
			ItemTypes: []string{ItemDimmer, ItemColor},
			DefaultRanges: map[string]Range{
				ItemDimmer: {Minimum: 0, Maximum: 100},
				ItemColor:  {Minimum: 0, Maximum: 100},
			},
			Parameters:      commonParams(nil),
			DisplayCategory: "LIGHT",
			ToAlexa:         brightnessToAlexa,
			ToNative:        percentToNative,
		},
		{
			Interface: InterfacePowerLevelController,
			Property:  "powerLevel",
			ItemTypes: []string{ItemDimmer},
			DefaultRanges: map[string]Range{
				ItemDimmer: {Minimum: 0, Maximum: 100},
			},
			Parameters:      commonParams(nil),
			DisplayCategory: "SWITCH",
			ToAlexa:         numericStateToAlexa,
			ToNative:        percentToNative,
		},
		{
			Interface: InterfacePercentageController,
			Property:  "percentage",
			ItemTypes: []string{ItemDimmer, ItemRollershutter},
			DefaultRanges: map[string]Range{
				ItemDimmer:        {Minimum: 0, Maximum: 100},
				ItemRollershutter: {Minimum: 0, Maximum: 100},
			},
			Parameters:      commonParams(map[string]ParamType{ParamKeyInverted: ParamBool}),
			DisplayCategory: "OTHER",
			ToAlexa:         percentageToAlexa,
			ToNative:        percentageToNative,
		},
		{
			Interface:       InterfaceColorController,
			Property:        "color",
			ItemTypes:       []string{ItemColor},
			Parameters:      commonParams(nil),
			DisplayCategory: "LIGHT",
			ToAlexa:         colorToAlexa,
			ToNative:        colorToNative,
		},
		{
			Interface: InterfaceColorTemperatureController,
			Property:  "colorTemperatureInKelvin",
			ItemTypes: []string{ItemDimmer, ItemNumber},
			DefaultRanges: map[string]Range{
				ItemDimmer: {Minimum: 2000, Maximum: 6500},
				ItemNumber: {Minimum: 1000, Maximum: 10000},
			},
			CustomMapKey: ParamKeyBinding,
			CustomRanges: map[string]Range{
				// Brand-specific white ranges for percent-based dimmers.
				"hue":      {Minimum: 2000, Maximum: 6500},
				"lifx":     {Minimum: 2500, Maximum: 9000},
				"milight":  {Minimum: 2700, Maximum: 6500},
				"tradfri":  {Minimum: 2200, Maximum: 4000},
				"yeelight": {Minimum: 1700, Maximum: 6500},
			},
			Parameters:      commonParams(map[string]ParamType{ParamKeyRange: ParamRange, ParamKeyIncrement: ParamInt}),
			DisplayCategory: "LIGHT",
			ToAlexa:         colorTemperatureToAlexa,
			ToNative:        colorTemperatureToNative,
		},
		{
			Interface: InterfaceThermostatController,
			Property:  "targetSetpoint",
			ItemTypes: []string{ItemNumber},
			DefaultRanges: map[string]Range{
				ItemNumber: {Minimum: 4, Maximum: 32},
			},
			ScaledRange: true,
			Parameters: commonParams(map[string]ParamType{
				ParamKeyScale:        ParamString,
				ParamKeyComfortRange: ParamFloat,
				ParamKeyRange:        ParamRange,
			}),
			DisplayCategory: "THERMOSTAT",
			ToAlexa:         temperatureToAlexa,
			ToNative:        temperatureToNative,
		},
		{
			Interface: InterfaceThermostatController,
			Property:  "upperSetpoint",
			ItemTypes: []string{ItemNumber},
			DefaultRanges: map[string]Range{
				ItemNumber: {Minimum: 4, Maximum: 32},
			},
			ScaledRange: true,
			Parameters: commonParams(map[string]ParamType{
				ParamKeyScale:        ParamString,
				ParamKeyComfortRange: ParamFloat,
				ParamKeyRange:        ParamRange,
			}),
			DisplayCategory: "THERMOSTAT",
			ToAlexa:         temperatureToAlexa,
			ToNative:        temperatureToNative,
		},
		{
			Interface: InterfaceThermostatController,
			Property:  "lowerSetpoint",
			ItemTypes: []string{ItemNumber},
			DefaultRanges: map[string]Range{
				ItemNumber: {Minimum: 4, Maximum: 32},
			},
			ScaledRange: true,
			Parameters: commonParams(map[string]ParamType{
				ParamKeyScale:        ParamString,
				ParamKeyComfortRange: ParamFloat,
				ParamKeyRange:        ParamRange,
			}),
			DisplayCategory: "THERMOSTAT",
			ToAlexa:         temperatureToAlexa,
			ToNative:        temperatureToNative,
		},
		{
			Interface:       InterfaceThermostatController,
			Property:        "thermostatMode",
			ItemTypes:       []string{ItemString, ItemNumber, ItemSwitch},
			SupportedValues: thermostatModes,
			DefaultStateMaps: map[string]StateMap{
				ItemString: {
					{Alexa: "AUTO", Native: "auto"},
					{Alexa: "COOL", Native: "cool"},
					{Alexa: "HEAT", Native: "heat"},
					{Alexa: "ECO", Native: "eco"},
					{Alexa: "OFF", Native: "off"},
				},
				ItemNumber: {
					{Alexa: "OFF", Native: "0"},
					{Alexa: "HEAT", Native: "1"},
					{Alexa: "COOL", Native: "2"},
					{Alexa: "AUTO", Native: "3"},
				},
				ItemSwitch: {
					{Alexa: "HEAT", Native: "ON"},
					{Alexa: "OFF", Native: "OFF"},
				},
			},
			CustomMapKey: ParamKeyBinding,
			CustomStateMaps: map[string]StateMap{
				"nest": {
					{Alexa: "AUTO", Native: "HEAT_COOL"},
					{Alexa: "COOL", Native: "COOL"},
					{Alexa: "HEAT", Native: "HEAT"},
					{Alexa: "ECO", Native: "ECO"},
					{Alexa: "OFF", Native: "OFF"},
				},
				"zwave": {
					{Alexa: "OFF", Native: "0"},
					{Alexa: "HEAT", Native: "1"},
					{Alexa: "COOL", Native: "2"},
					{Alexa: "AUTO", Native: "3"},
				},
				"broadlink": {
					{Alexa: "AUTO", Native: "auto"},
					{Alexa: "HEAT", Native: "manual"},
					{Alexa: "OFF", Native: "off"},
				},
			},
			Parameters: commonParams(map[string]ParamType{
				ParamKeySupportedModes: ParamList,
			}),
			DisplayCategory: "THERMOSTAT",
		},
		{
			Interface:       InterfaceThermostatController,
			Property:        "thermostatHold",
			ItemTypes:       []string{ItemSwitch, ItemString},
			NonDiscoverable: true,
			DefaultStateMaps: map[string]StateMap{
				ItemSwitch: onOffMap(),
				ItemString: {{Alexa: "ON", Native: "hold"}, {Alexa: "OFF", Native: "schedule"}},
			},
			Parameters:      commonParams(nil),
			DisplayCategory: "THERMOSTAT",
		},
		{
			Interface: InterfaceTemperatureSensor,
			Property:  "temperature",
			ItemTypes: []string{ItemNumber},
			Parameters: commonParams(map[string]ParamType{
				ParamKeyScale: ParamString,
			}),
			DisplayCategory: "TEMPERATURE_SENSOR",
			ToAlexa:         temperatureToAlexa,
			ToNative:        temperatureToNative,
		},
		{
			Interface: InterfaceContactSensor,
			Property:  "detectionState",
			ItemTypes: []string{ItemContact, ItemSwitch},
			DefaultStateMaps: map[string]StateMap{
				ItemContact: {
					{Alexa: "DETECTED", Native: "OPEN"},
					{Alexa: "NOT_DETECTED", Native: "CLOSED"},
				},
				ItemSwitch: {
					{Alexa: "DETECTED", Native: "ON"},
					{Alexa: "NOT_DETECTED", Native: "OFF"},
				},
			},
			Parameters:      commonParams(nil),
			DisplayCategory: "CONTACT_SENSOR",
		},
		{
			Interface: InterfaceMotionSensor,
			Property:  "detectionState",
			ItemTypes: []string{ItemContact, ItemSwitch},
			DefaultStateMaps: map[string]StateMap{
				ItemContact: {
					{Alexa: "DETECTED", Native: "OPEN"},
					{Alexa: "NOT_DETECTED", Native: "CLOSED"},
				},
				ItemSwitch: {
					{Alexa: "DETECTED", Native: "ON"},
					{Alexa: "NOT_DETECTED", Native: "OFF"},
				},
			},
			Parameters:      commonParams(nil),
			DisplayCategory: "MOTION_SENSOR",
		},
		{
			Interface: InterfaceLockController,
			Property:  "lockState",
			ItemTypes: []string{ItemSwitch},
			DefaultStateMaps: map[string]StateMap{
				ItemSwitch: {
					{Alexa: "LOCKED", Native: "ON"},
					{Alexa: "UNLOCKED", Native: "OFF"},
				},
			},
			SupportedValues: []string{"LOCKED", "UNLOCKED", "JAMMED"},
			Parameters:      commonParams(nil),
			DisplayCategory: "SMARTLOCK",
		},
		{
			Interface:     InterfaceModeController,
			Property:      "mode",
			ItemTypes:     []string{ItemString, ItemNumber, ItemSwitch, ItemRollershutter},
			MultiInstance: true,
			Tags:          []string{TagSensor},
			Parameters: commonParams(map[string]ParamType{
				ParamKeySupportedModes:  ParamList,
				ParamKeyFriendlyNames:   ParamList,
				ParamKeyOrdered:         ParamBool,
				ParamKeyNonControllable: ParamBool,
				ParamKeyActionMappings:  ParamMap,
				ParamKeyStateMappings:   ParamMap,
			}),
			DisplayCategory:    "OTHER",
			FriendlyNameAssets: []string{"@Setting.Mode"},
			ToAlexa:            modeToAlexa,
			ToNative:           modeToNative,
		},
		{
			Interface:     InterfaceRangeController,
			Property:      "rangeValue",
			ItemTypes:     []string{ItemNumber, ItemDimmer, ItemRollershutter},
			MultiInstance: true,
			Tags:          []string{TagSensor, TagBattery},
			DefaultRanges: map[string]Range{
				ItemNumber:        {Minimum: 0, Maximum: 100, Precision: 1},
				ItemDimmer:        {Minimum: 0, Maximum: 100, Precision: 1},
				ItemRollershutter: {Minimum: 0, Maximum: 100, Precision: 1},
			},
			Parameters: commonParams(map[string]ParamType{
				ParamKeySupportedModes:  ParamList, // ignored; kept for metadata symmetry
				ParamKeyRange:           ParamRange,
				ParamKeyUnitOfMeasure:   ParamString,
				ParamKeyFriendlyNames:   ParamList,
				ParamKeyPresets:         ParamMap,
				ParamKeyNonControllable: ParamBool,
				ParamKeyActionMappings:  ParamMap,
				ParamKeyStateMappings:   ParamMap,
			}),
			DisplayCategory:    "OTHER",
			FriendlyNameAssets: []string{"@Setting.Opening"},
			ToAlexa:            numericStateToAlexa,
			ToNative:           rangeValueToNative,
		},
		{
			Interface:     InterfaceToggleController,
			Property:      "toggleState",
			ItemTypes:     []string{ItemSwitch, ItemColor, ItemDimmer},
			MultiInstance: true,
			DefaultStateMaps: map[string]StateMap{
				ItemSwitch: onOffMap(),
				ItemColor:  onOffMap(),
				ItemDimmer: onOffMap(),
			},
			Parameters: commonParams(map[string]ParamType{
				ParamKeyFriendlyNames: ParamList,
			}),
			DisplayCategory:    "OTHER",
			FriendlyNameAssets: []string{"@Setting.ToggleState"},
			ToAlexa:            powerStateToAlexa,
		},
		{
			Interface:      InterfaceSceneController,
			Property:       "scene",
			ItemTypes:      []string{ItemSwitch},
			NonRetrievable: true,
			Parameters: commonParams(map[string]ParamType{
				"supportsDeactivation": ParamBool,
			}),
			DisplayCategory: "SCENE_TRIGGER",
		},
		{
			Interface: InterfaceSpeaker,
			Property:  "volume",
			ItemTypes: []string{ItemDimmer, ItemNumber},
			DefaultRanges: map[string]Range{
				ItemDimmer: {Minimum: 0, Maximum: 100},
				ItemNumber: {Minimum: 0, Maximum: 100},
			},
			Parameters:      commonParams(map[string]ParamType{ParamKeyIncrement: ParamInt}),
			DisplayCategory: "SPEAKER",
			ToAlexa:         numericStateToAlexa,
			ToNative:        percentToNative,
		},
		{
			Interface: InterfaceSpeaker,
			Property:  "muted",
			ItemTypes: []string{ItemSwitch},
			DefaultStateMaps: map[string]StateMap{
				ItemSwitch: onOffMap(),
			},
			Parameters:      commonParams(nil),
			DisplayCategory: "SPEAKER",
			ToAlexa:         mutedToAlexa,
			ToNative:        mutedToNative,
		},
		{
			Interface:       InterfaceStepSpeaker,
			Property:        "volume",
			ItemTypes:       []string{ItemDimmer, ItemNumber},
			NonRetrievable:  true,
			Parameters:      commonParams(map[string]ParamType{ParamKeyIncrement: ParamInt}),
			DisplayCategory: "SPEAKER",
		},
		{
			Interface:      InterfaceStepSpeaker,
			Property:       "muted",
			ItemTypes:      []string{ItemSwitch},
			NonRetrievable: true,
			DefaultStateMaps: map[string]StateMap{
				ItemSwitch: onOffMap(),
			},
			Parameters:      commonParams(nil),
			DisplayCategory: "SPEAKER",
			ToNative:        mutedToNative,
		},
		{
			Interface:      InterfacePlaybackController,
			Property:       "playback",
			ItemTypes:      []string{ItemPlayer},
			NonRetrievable: true,
			DefaultStateMaps: map[string]StateMap{
				// Multiple directive names coalesce onto the item's
				// playback command set.
				ItemPlayer: {
					{Alexa: "Play", Native: "PLAY"},
					{Alexa: "Resume", Native: "PLAY"},
					{Alexa: "Pause", Native: "PAUSE"},
					{Alexa: "Stop", Native: "PAUSE"},
					{Alexa: "Next", Native: "NEXT"},
					{Alexa: "Previous", Native: "PREVIOUS"},
					{Alexa: "FastForward", Native: "FASTFORWARD"},
					{Alexa: "Rewind", Native: "REWIND"},
				},
			},
			Parameters:      commonParams(nil),
			DisplayCategory: "OTHER",
		},
		{
			Interface:  InterfaceEqualizerController,
			Property:   "bands",
			ItemTypes:  []string{ItemDimmer, ItemNumber},
			Components: equalizerBands,
			DefaultRanges: map[string]Range{
				ItemDimmer: {Minimum: 0, Maximum: 100},
				ItemNumber: {Minimum: -10, Maximum: 10},
			},
			Parameters:      commonParams(map[string]ParamType{ParamKeyRange: ParamRange}),
			DisplayCategory: "SPEAKER",
			ToAlexa:         numericStateToAlexa,
			ToNative:        rangeValueToNative,
		},
		{
			Interface:       InterfaceEqualizerController,
			Property:        "modes",
			ItemTypes:       []string{ItemString},
			SupportedValues: []string{"MOVIE", "MUSIC", "NIGHT", "SPORT", "TV"},
			DefaultStateMaps: map[string]StateMap{
				ItemString: {
					{Alexa: "MOVIE", Native: "movie"},
					{Alexa: "MUSIC", Native: "music"},
					{Alexa: "NIGHT", Native: "night"},
					{Alexa: "SPORT", Native: "sport"},
					{Alexa: "TV", Native: "tv"},
				},
			},
			Parameters:      commonParams(map[string]ParamType{ParamKeySupportedModes: ParamList}),
			DisplayCategory: "SPEAKER",
		},
		{
			Interface:       InterfaceSecurityPanelController,
			Property:        "armState",
			ItemTypes:       []string{ItemString, ItemNumber, ItemSwitch},
			SupportedValues: armStates,
			DefaultStateMaps: map[string]StateMap{
				ItemString: {
					{Alexa: "ARMED_AWAY", Native: "ARMED_AWAY"},
					{Alexa: "ARMED_STAY", Native: "ARMED_STAY"},
					{Alexa: "ARMED_NIGHT", Native: "ARMED_NIGHT"},
					{Alexa: "DISARMED", Native: "DISARMED"},
				},
				ItemNumber: {
					{Alexa: "DISARMED", Native: "0"},
					{Alexa: "ARMED_STAY", Native: "1"},
					{Alexa: "ARMED_AWAY", Native: "2"},
					{Alexa: "ARMED_NIGHT", Native: "3"},
				},
				ItemSwitch: {
					{Alexa: "ARMED_AWAY", Native: "ON"},
					{Alexa: "DISARMED", Native: "OFF"},
				},
			},
			Parameters: commonParams(map[string]ParamType{
				ParamKeyPinCodes:           ParamList,
				ParamKeyExitDelay:          ParamInt,
				ParamKeySupportedArmStates: ParamList,
			}),
			DisplayCategory: "SECURITY_PANEL",
		},
		alertSchema("burglaryAlarm", false),
		alertSchema("fireAlarm", false),
		alertSchema("carbonMonoxideAlarm", false),
		alertSchema("waterAlarm", false),
		alertSchema("readyAlert", true),
		alertSchema("troubleAlert", true),
		alertSchema("zonesAlert", true),
		{
			Interface:       InterfaceChannelController,
			Property:        "channel",
			ItemTypes:       []string{ItemNumber, ItemString},
			Parameters:      commonParams(map[string]ParamType{ParamKeyRange: ParamRange}),
			DisplayCategory: "TV",
			ToAlexa:         channelToAlexa,
			ToNative:        channelToNative,
		},
		{
			Interface: InterfaceInputController,
			Property:  "input",
			ItemTypes: []string{ItemString},
			Parameters: commonParams(map[string]ParamType{
				ParamKeySupportedInputs: ParamList,
			}),
			DisplayCategory: "TV",
			ToAlexa:         inputToAlexa,
			ToNative:        inputToNative,
		},
	}
}

// alertSchema builds one security-panel alert property schema. The
// platform-reported alarms (burglary, fire, CO, water) are discoverable;
// the bridge-internal ones (ready, trouble, zones) only drive arm/disarm
// decisions.
func alertSchema(property string, internal bool) *PropertySchema {
	return &PropertySchema{
		Interface:       InterfaceSecurityPanelController,
		Property:        property,
		ItemTypes:       []string{ItemSwitch, ItemContact},
		NonDiscoverable: internal,
		SupportedValues: []string{"ALARM", "OK"},
		DefaultStateMaps: map[string]StateMap{
			ItemSwitch: {
				{Alexa: "ALARM", Native: "ON"},
				{Alexa: "OK", Native: "OFF"},
			},
			ItemContact: {
				{Alexa: "ALARM", Native: "OPEN"},
				{Alexa: "OK", Native: "CLOSED"},
			},
		},
		Parameters:      commonParams(nil),
		DisplayCategory: "SECURITY_PANEL",
		ToAlexa:         alertToAlexa,
	}
}

// powerStateToAlexa reports ON/OFF from switch state, dimmer level, or
// colour tuple brightness.
func powerStateToAlexa(p *Property, nativeState string) (any, error) {
	if alexa, ok := onOffMap().ToAlexa(nativeState); ok {
		return alexa, nil
	}

	// Dimmer level or colour tuple: any level above zero is ON.
	level := nativeState
	if parts := strings.Split(nativeState, ","); len(parts) == 3 {
		level = parts[2]
	}
	num, err := strconv.ParseFloat(strings.TrimSpace(level), 64)
	if err != nil {
		return nil, fmt.Errorf("%w: state %q of %s.%s is not a power level",
			ErrStateUnavailable, nativeState, p.Interface, p.Name)
	}

	if num > 0 {
		return "ON", nil
	}
	return "OFF", nil
}

// brightnessToAlexa extracts a 0-100 brightness from a dimmer level or the
// third component of a colour "hue,saturation,brightness" tuple.
func brightnessToAlexa(p *Property, nativeState string) (any, error) {
	state := nativeState
	if parts := strings.Split(nativeState, ","); len(parts) == 3 {
		state = strings.TrimSpace(parts[2])
	}
	if alexa, ok := onOffMap().ToAlexa(state); ok {
		if alexa == "ON" {
			return 100, nil
		}
		return 0, nil
	}

	num, err := ParseNumericState(p, state)
	if err != nil {
		return nil, err
	}
	return int(RoundTo(num, 0)), nil
}

// numericStateToAlexa parses a plain numeric state.
func numericStateToAlexa(p *Property, nativeState string) (any, error) {
	num, err := ParseNumericState(p, nativeState)
	if err != nil {
		return nil, err
	}
	return num, nil
}

// percentToNative rounds and clamps a percentage command.
func percentToNative(p *Property, alexaValue any, isDelta bool) (string, error) {
	num, err := toFloat(alexaValue)
	if err != nil {
		return "", fmt.Errorf("%w: %s.%s expects a number", ErrValueOutOfDomain, p.Interface, p.Name)
	}
	if isDelta {
		return FormatNumber(RoundTo(num, 0)), nil
	}
	return FormatNumber(Clamp(RoundTo(num, 0), 0, 100)), nil
}

// percentageToAlexa honours the inverted parameter used by rollershutters
// whose 0% means fully open.
func percentageToAlexa(p *Property, nativeState string) (any, error) {
	num, err := ParseNumericState(p, nativeState)
	if err != nil {
		return nil, err
	}
	if p.ParamBool(ParamKeyInverted, false) {
		num = 100 - num
	}
	return int(RoundTo(num, 0)), nil
}

func percentageToNative(p *Property, alexaValue any, isDelta bool) (string, error) {
	num, err := toFloat(alexaValue)
	if err != nil {
		return "", fmt.Errorf("%w: %s.%s expects a number", ErrValueOutOfDomain, p.Interface, p.Name)
	}
	if p.ParamBool(ParamKeyInverted, false) {
		if isDelta {
			num = -num
		} else {
			num = 100 - num
		}
	}
	if isDelta {
		return FormatNumber(RoundTo(num, 0)), nil
	}
	return FormatNumber(Clamp(RoundTo(num, 0), 0, 100)), nil
}

// colorToAlexa converts a native "hue,saturation,brightness" tuple to the
// Alexa colour object (saturation and brightness as 0-1 fractions).
func colorToAlexa(p *Property, nativeState string) (any, error) {
	parts := strings.Split(nativeState, ",")
	if len(parts) != 3 {
		return nil, fmt.Errorf("%w: state %q of %s.%s is not a colour tuple",
			ErrStateUnavailable, nativeState, p.Interface, p.Name)
	}

	var vals [3]float64
	for i, part := range parts {
		num, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: colour component %q is not numeric", ErrStateUnavailable, part)
		}
		vals[i] = num
	}

	return map[string]any{
		"hue":        vals[0],
		"saturation": vals[1] / 100,
		"brightness": vals[2] / 100,
	}, nil
}

func colorToNative(p *Property, alexaValue any, isDelta bool) (string, error) {
	obj, ok := alexaValue.(map[string]any)
	if !ok {
		return "", fmt.Errorf("%w: %s.%s expects a colour object", ErrValueOutOfDomain, p.Interface, p.Name)
	}

	hue, err1 := toFloat(obj["hue"])
	sat, err2 := toFloat(obj["saturation"])
	bri, err3 := toFloat(obj["brightness"])
	if err1 != nil || err2 != nil || err3 != nil {
		return "", fmt.Errorf("%w: colour object missing hue/saturation/brightness", ErrValueOutOfDomain)
	}

	return fmt.Sprintf("%s,%s,%s",
		FormatNumber(Clamp(hue, 0, 360)),
		FormatNumber(Clamp(RoundTo(sat*100, 0), 0, 100)),
		FormatNumber(Clamp(RoundTo(bri*100, 0), 0, 100))), nil
}

// colorTemperatureToAlexa converts native state to absolute Kelvin. Dimmer
// items carry an inverted 0-100% position (0% coldest); Number items carry
// Kelvin directly.
func colorTemperatureToAlexa(p *Property, nativeState string) (any, error) {
	num, err := ParseNumericState(p, nativeState)
	if err != nil {
		return nil, err
	}

	if p.ItemType == ItemDimmer {
		r := p.effectiveColorTemperatureRange()
		return int(RoundTo(PercentToKelvin(num, r), 0)), nil
	}
	return int(RoundTo(num, 0)), nil
}

func colorTemperatureToNative(p *Property, alexaValue any, isDelta bool) (string, error) {
	kelvin, err := toFloat(alexaValue)
	if err != nil {
		return "", fmt.Errorf("%w: %s.%s expects Kelvin", ErrValueOutOfDomain, p.Interface, p.Name)
	}

	r := p.effectiveColorTemperatureRange()
	if p.ItemType == ItemDimmer {
		return FormatNumber(RoundTo(KelvinToPercent(kelvin, r), 0.1)), nil
	}
	return FormatNumber(Clamp(kelvin, r.Minimum, r.Maximum)), nil
}

// effectiveColorTemperatureRange returns the Kelvin range the conversion
// maps percent dimmers across. The resolved range is preferred: it carries
// any configured override and survives the cookie round trip, where the
// range parameter does not.
func (p *Property) effectiveColorTemperatureRange() Range {
	if p.ValueRange != nil && p.ValueRange.Valid() {
		return *p.ValueRange
	}
	r := Range{Minimum: 1000, Maximum: 10000}
	if s := p.Schema(); s != nil {
		if def, ok := s.DefaultRange(p.ItemType, p.Parameters); ok {
			r = def
		}
	}
	return r
}

// temperatureToAlexa reports a typed temperature value in the property's
// scale.
func temperatureToAlexa(p *Property, nativeState string) (any, error) {
	num, err := ParseNumericState(p, nativeState)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"value": num,
		"scale": p.EffectiveScale(),
	}, nil
}

// temperatureToNative converts an Alexa temperature object (or bare
// number) into the item's scale. Deltas omit additive offsets.
func temperatureToNative(p *Property, alexaValue any, isDelta bool) (string, error) {
	value := alexaValue
	scale := p.EffectiveScale()

	if obj, ok := alexaValue.(map[string]any); ok {
		value = obj["value"]
		if s, ok := obj["scale"].(string); ok && s != "" {
			scale = strings.ToUpper(s)
		}
	}

	num, err := toFloat(value)
	if err != nil {
		return "", fmt.Errorf("%w: %s.%s expects a temperature", ErrValueOutOfDomain, p.Interface, p.Name)
	}

	converted := ConvertTemperature(num, scale, p.EffectiveScale(), isDelta)
	return FormatNumber(RoundTo(converted, 0.1)), nil
}

// EffectiveScale returns the temperature scale of the property: an
// explicit scale parameter wins, then the scale resolved at build time
// from the item dimension or server region, defaulting to Celsius.
func (p *Property) EffectiveScale() string {
	if s := strings.ToUpper(p.ParamString(ParamKeyScale, "")); s == ScaleCelsius || s == ScaleFahrenheit {
		return s
	}
	if p.Scale != "" {
		return p.Scale
	}
	return ScaleCelsius
}

// modeToAlexa maps native state onto a declared mode value; supportedModes
// entries take the form "Value=Friendly Name:Synonym".
func modeToAlexa(p *Property, nativeState string) (any, error) {
	for _, mode := range p.SupportedModeValues() {
		if strings.EqualFold(mode, nativeState) {
			return mode, nil
		}
	}
	if len(p.StateMap) > 0 {
		if alexa, ok := p.StateMap.ToAlexa(nativeState); ok {
			return alexa, nil
		}
	}
	return nil, fmt.Errorf("%w: state %q of %s is not a declared mode",
		ErrStateUnavailable, nativeState, p.Instance)
}

func modeToNative(p *Property, alexaValue any, isDelta bool) (string, error) {
	str, ok := alexaValue.(string)
	if !ok {
		return "", fmt.Errorf("%w: mode must be a string", ErrValueOutOfDomain)
	}
	for _, mode := range p.SupportedModeValues() {
		if strings.EqualFold(mode, str) {
			return mode, nil
		}
	}
	return "", fmt.Errorf("%w: %q is not a declared mode of %s", ErrValueOutOfDomain, str, p.Instance)
}

// SupportedModeValues returns the declared mode values, stripped of their
// friendly-name suffixes.
func (p *Property) SupportedModeValues() []string {
	modes := p.ParamList(ParamKeySupportedModes)
	out := make([]string, 0, len(modes))
	for _, m := range modes {
		value, _, _ := strings.Cut(m, "=")
		if value = strings.TrimSpace(value); value != "" {
			out = append(out, value)
		}
	}
	return out
}

// rangeValueToNative validates and rounds against the property range.
func rangeValueToNative(p *Property, alexaValue any, isDelta bool) (string, error) {
	num, err := toFloat(alexaValue)
	if err != nil {
		return "", fmt.Errorf("%w: %s.%s expects a number", ErrValueOutOfDomain, p.Interface, p.Name)
	}

	if p.ValueRange != nil {
		if isDelta {
			return FormatNumber(RoundTo(num, p.ValueRange.Precision)), nil
		}
		if num < p.ValueRange.Minimum || num > p.ValueRange.Maximum {
			return "", fmt.Errorf("%w: %v outside [%v, %v]", ErrValueOutOfDomain,
				num, p.ValueRange.Minimum, p.ValueRange.Maximum)
		}
		return FormatNumber(RoundTo(num, p.ValueRange.Precision)), nil
	}

	return FormatNumber(num), nil
}

// mutedToAlexa reports the boolean mute state.
func mutedToAlexa(p *Property, nativeState string) (any, error) {
	alexa, ok := p.StateMap.ToAlexa(nativeState)
	if !ok {
		return nil, fmt.Errorf("%w: state %q of Speaker.muted", ErrStateUnavailable, nativeState)
	}
	return alexa == "ON", nil
}

func mutedToNative(p *Property, alexaValue any, isDelta bool) (string, error) {
	muted, ok := alexaValue.(bool)
	if !ok {
		return "", fmt.Errorf("%w: muted must be a boolean", ErrValueOutOfDomain)
	}
	key := "OFF"
	if muted {
		key = "ON"
	}
	native, ok := p.StateMap.ToNative(key)
	if !ok {
		return "", fmt.Errorf("%w: no native mute mapping", ErrValueOutOfDomain)
	}
	return native, nil
}

// alertToAlexa wraps the mapped alert state in the platform's object form.
func alertToAlexa(p *Property, nativeState string) (any, error) {
	alexa, ok := p.StateMap.ToAlexa(nativeState)
	if !ok {
		return nil, fmt.Errorf("%w: state %q of %s.%s", ErrStateUnavailable, nativeState, p.Interface, p.Name)
	}
	return map[string]any{"value": alexa}, nil
}

// channelToAlexa wraps a native channel into the structured channel object.
func channelToAlexa(p *Property, nativeState string) (any, error) {
	if p.ItemType == ItemNumber {
		num, err := ParseNumericState(p, nativeState)
		if err != nil {
			return nil, err
		}
		return map[string]any{"number": FormatNumber(num)}, nil
	}
	return map[string]any{"callSign": nativeState}, nil
}

func channelToNative(p *Property, alexaValue any, isDelta bool) (string, error) {
	obj, ok := alexaValue.(map[string]any)
	if !ok {
		num, err := toFloat(alexaValue)
		if err != nil {
			return "", fmt.Errorf("%w: channel must be an object or number", ErrValueOutOfDomain)
		}
		return FormatNumber(num), nil
	}

	if number, ok := obj["number"].(string); ok && number != "" {
		return number, nil
	}
	if callSign, ok := obj["callSign"].(string); ok && callSign != "" {
		return callSign, nil
	}
	return "", fmt.Errorf("%w: channel object carries no number or call sign", ErrValueOutOfDomain)
}

// inputToAlexa normalises native input names against the declared list.
func inputToAlexa(p *Property, nativeState string) (any, error) {
	for _, input := range p.ParamList(ParamKeySupportedInputs) {
		if normalizeInput(input) == normalizeInput(nativeState) {
			return strings.ToUpper(strings.TrimSpace(input)), nil
		}
	}
	return nil, fmt.Errorf("%w: input %q is not declared", ErrStateUnavailable, nativeState)
}

func inputToNative(p *Property, alexaValue any, isDelta bool) (string, error) {
	str, ok := alexaValue.(string)
	if !ok {
		return "", fmt.Errorf("%w: input must be a string", ErrValueOutOfDomain)
	}
	for _, input := range p.ParamList(ParamKeySupportedInputs) {
		if normalizeInput(input) == normalizeInput(str) {
			return strings.TrimSpace(input), nil
		}
	}
	return "", fmt.Errorf("%w: input %q is not declared", ErrValueOutOfDomain, str)
}

func normalizeInput(s string) string {
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), " ", ""))
}
