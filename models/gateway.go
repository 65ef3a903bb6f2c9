package models

// Payloads of the ThingsBoard-style gateway API. One connection represents
// every child device; payloads are keyed by the device name.

type ConnectMessage struct {
	Device string `json:"device"`
}

type TelemetryValues struct {
	Light         float64 `json:"light"`
	Voltage       float64 `json:"voltage"`
	Current       float64 `json:"current"`
	Power         float64 `json:"power"`
	Motion        bool    `json:"motion"`
	Raining       bool    `json:"raining"`
	LedBrightness int     `json:"led_brightness"`
}

type Attributes struct {
	AutoMode      bool `json:"auto_mode"`
	YellowColor   bool `json:"yellow_color"`
	LedBrightness int  `json:"led_brightness"`
}

// TelemetryMessage is published as {"<name>": [ {...} ]}.
type TelemetryMessage map[string][]TelemetryValues

// AttributesMessage is published as {"<name>": {...}}.
type AttributesMessage map[string]Attributes

type RpcData struct {
	ID     any    `json:"id,omitempty"`
	Method string `json:"method"`
	Params any    `json:"params"`
}

type RpcRequest struct {
	Device string   `json:"device"`
	Data   *RpcData `json:"data"`
}

func AttributesFromShadow(s DeviceShadow) Attributes {
	return Attributes{
		AutoMode:      s.AutoMode,
		YellowColor:   s.YellowColorSelected,
		LedBrightness: s.LedBrightness,
	}
}
