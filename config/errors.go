package config

import "errors"

var (
	ErrMissingBroker     = errors.New("MQTT_BROKER is required")
	ErrInvalidBrightness = errors.New("MAX_BRIGHTNESS must be positive")
	ErrInvalidDeviceMap  = errors.New("invalid DEVICE_MAP")
)
