package app

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"loragw/models"
)

const (
	sourceTelemetry = "telemetry"
	sourceCommand   = "command"
)

// EventPublisher is satisfied by *nats.Conn.
type EventPublisher interface {
	Publish(subject string, data []byte) error
}

// ShadowEvents fans shadow changes out to the internal event bus. A nil
// *ShadowEvents or one without a connection drops everything.
type ShadowEvents struct {
	registry *Registry
	conn     EventPublisher
	now      func() time.Time
}

func NewShadowEvents(registry *Registry, conn EventPublisher) *ShadowEvents {
	return &ShadowEvents{registry: registry, conn: conn, now: time.Now}
}

func (e *ShadowEvents) Report(id int, shadow models.DeviceShadow, source string) {
	if e == nil || e.conn == nil {
		return
	}
	name, _ := e.registry.Name(id)
	devUUID, ok := e.registry.UUID(id)
	if !ok {
		return
	}

	report := models.ShadowReport{
		EventID:    uuid.NewString(),
		DeviceUUID: devUUID.String(),
		Device:     name,
		Timestamp:  e.now().UnixMilli(),
		Source:     source,
		State:      models.AttributesFromShadow(shadow),
	}
	data, err := json.Marshal(report)
	if err != nil {
		log.Printf("ERROR: Marshal shadow report error: %v", err)
		return
	}
	subject := shadowReportedSubject(report.DeviceUUID)
	if err := e.conn.Publish(subject, data); err != nil {
		log.Printf("ERROR: Failed to publish to NATS subject '%s': %v", subject, err)
	}
}
