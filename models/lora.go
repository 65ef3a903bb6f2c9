package models

// Keys of a decoded radio frame as sent by the node firmware.
const (
	FrameDeviceID      = "deviceID"
	FrameLight         = "ambientLightIntensity"
	FrameVoltage       = "voltage"
	FrameCurrent       = "current"
	FramePower         = "power"
	FrameMotion        = "isMotion"
	FrameRain          = "isRain"
	FrameAutoMode      = "auto_mode"
	FrameLedBrightness = "ledBrightness"
	FrameYellowColor   = "yellow_color"
)

// Frame is a decoded radio message: a device id plus an open set of fields.
type Frame map[string]any

// CommandKind is the radio-level control instruction.
type CommandKind string

const (
	CommandAuto  CommandKind = "AUTO"
	CommandColor CommandKind = "COLOR"
	CommandDim   CommandKind = "DIM"
)

// COLOR payload values understood by the node firmware.
const (
	ColorWhite  = 1
	ColorYellow = 2
)

// RadioCommand is the line written to the serial modem.
type RadioCommand struct {
	DeviceID int         `json:"deviceID"`
	Cmd      CommandKind `json:"cmd"`
	Value    int         `json:"value"`
}

// ModemConfig is written once when the serial modem is opened.
type ModemConfig struct {
	Cmd       string `json:"cmd"`
	Frequency int    `json:"freq"`
	SyncWord  int    `json:"sync_word"`
}
