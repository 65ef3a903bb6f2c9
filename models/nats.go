package models

// ShadowReport is published on shadow.<uuid>.reported after every shadow change.
type ShadowReport struct {
	EventID    string     `json:"event_id"`
	DeviceUUID string     `json:"device_uuid"`
	Device     string     `json:"device"`
	Timestamp  int64      `json:"timestamp"`
	Source     string     `json:"source"` // "telemetry" or "command"
	State      Attributes `json:"state"`
}
