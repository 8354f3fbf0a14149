package endpoint

import "strings"

// deviceType maps one declarative endpoint tag to a capability bundle and
// its display categories. Bundle tokens are filtered through the registry's
// item-kind acceptance at build time, so one tag serves every item kind it
// plausibly applies to (a "Light" switch gets power control only, a "Light"
// colour bulb the full set).
type deviceType struct {
	categories []string
	tokens     []string
}

var deviceTypes = map[string]deviceType{
	"Switch": {
		categories: []string{"SWITCH"},
		tokens:     []string{"PowerController.powerState"},
	},
	"Outlet": {
		categories: []string{"SMARTPLUG"},
		tokens:     []string{"PowerController.powerState"},
	},
	"Light": {
		categories: []string{"LIGHT"},
		tokens: []string{
			"PowerController.powerState",
			"BrightnessController.brightness",
			"ColorController.color",
			"ColorTemperatureController.colorTemperatureInKelvin",
		},
	},
	"Fan": {
		categories: []string{"FAN"},
		tokens: []string{
			"PowerController.powerState",
			"PercentageController.percentage",
		},
	},
	"Blind": {
		categories: []string{"INTERIOR_BLIND"},
		tokens:     []string{"PercentageController.percentage"},
	},
	"Door": {
		categories: []string{"DOOR"},
		tokens:     []string{"PercentageController.percentage"},
	},
	"Lock": {
		categories: []string{"SMARTLOCK"},
		tokens:     []string{"LockController.lockState"},
	},
	"ContactSensor": {
		categories: []string{"CONTACT_SENSOR"},
		tokens: []string{
			"ContactSensor.detectionState",
			// Battery level, picked up by numeric members of a sensor group.
			"RangeController.rangeValue#battery",
		},
	},
	"MotionSensor": {
		categories: []string{"MOTION_SENSOR"},
		tokens: []string{
			"MotionSensor.detectionState",
			"RangeController.rangeValue#battery",
		},
	},
	"TemperatureSensor": {
		categories: []string{"TEMPERATURE_SENSOR"},
		tokens:     []string{"TemperatureSensor.temperature"},
	},
	"Thermostat": {
		categories: []string{"THERMOSTAT"},
		tokens: []string{
			"ThermostatController.targetSetpoint",
			"TemperatureSensor.temperature",
		},
	},
	"SecurityPanel": {
		categories: []string{"SECURITY_PANEL"},
		tokens:     []string{"SecurityPanelController.armState"},
	},
	"Speaker": {
		categories: []string{"SPEAKER"},
		tokens: []string{
			"PowerController.powerState",
			"Speaker.volume",
			"Speaker.muted",
		},
	},
	"Television": {
		categories: []string{"TV"},
		tokens: []string{
			"PowerController.powerState",
			"Speaker.volume",
			"Speaker.muted",
			"ChannelController.channel",
			"InputController.input",
			"PlaybackController.playback",
		},
	},
	"Scene": {
		categories: []string{"SCENE_TRIGGER"},
		tokens:     []string{"SceneController.scene"},
	},
	"Activity": {
		categories: []string{"ACTIVITY_TRIGGER"},
		tokens:     []string{"SceneController.scene"},
	},
}

// lookupDeviceType resolves a device-type tag, matching case-insensitively
// and tolerating an "Endpoint." prefix kept from older metadata.
func lookupDeviceType(name string) (deviceType, bool) {
	name = strings.TrimPrefix(strings.TrimSpace(name), "Endpoint.")
	for key, dt := range deviceTypes {
		if strings.EqualFold(key, name) {
			return dt, true
		}
	}
	return deviceType{}, false
}
