package app

// Topics builds the gateway API topic names under a common prefix,
// e.g. "v1/gateway".
type Topics struct {
	Prefix string
}

func (t Topics) Connect() string    { return t.Prefix + "/connect" }
func (t Topics) Rpc() string        { return t.Prefix + "/rpc" }
func (t Topics) Telemetry() string  { return t.Prefix + "/telemetry" }
func (t Topics) Attributes() string { return t.Prefix + "/attributes" }

// NATS subjects, keyed by device UUID.
func shadowSubject(deviceUUID string) string         { return "shadow." + deviceUUID }
func shadowReportedSubject(deviceUUID string) string { return "shadow." + deviceUUID + ".reported" }
