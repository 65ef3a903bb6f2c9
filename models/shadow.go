package models

// DeviceShadow is the gateway's cached view of a device's configurable state.
type DeviceShadow struct {
	AutoMode            bool
	YellowColorSelected bool
	LedBrightness       int
}

// ShadowFields is a partial update; nil fields are left untouched on merge.
type ShadowFields struct {
	AutoMode            *bool
	YellowColorSelected *bool
	LedBrightness       *int
}

// Shadow is the desired-state document received over NATS.
type Shadow struct {
	DeviceUUID string `json:"device_uuid"`
	State      State  `json:"state"`
}

// State contains desired and reported states
type State struct {
	Delta map[string]any `json:"delta,omitempty"`
}
