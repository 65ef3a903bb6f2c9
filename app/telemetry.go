package app

import (
	"log"
	"math"
	"time"

	"loragw/models"
	"loragw/utils"
)

// TelemetrySink keeps a history of accepted samples.
type TelemetrySink interface {
	WriteTelemetry(device string, values models.TelemetryValues, at time.Time)
}

// TelemetryTranslator turns radio frames into shadow updates plus gateway
// telemetry and attribute messages.
type TelemetryTranslator struct {
	registry      *Registry
	store         *ShadowStore
	pub           Publisher
	topics        Topics
	maxBrightness int
	sink          TelemetrySink
	events        *ShadowEvents
}

// HandleFrame is the radio link callback. Frames from ids outside the
// registry are dropped without side effects.
func (t *TelemetryTranslator) HandleFrame(frame models.Frame) {
	id, ok := frameDeviceID(frame)
	if !ok {
		log.Printf("LoRa frame without usable %s: %v", models.FrameDeviceID, frame[models.FrameDeviceID])
		return
	}
	name, ok := t.registry.Name(id)
	if !ok {
		return
	}

	shadow, ok := t.store.ApplyTelemetryFields(id, shadowFieldsFromFrame(frame, t.maxBrightness))
	if !ok {
		return
	}

	values := telemetryFromFrame(frame, shadow.LedBrightness)
	if err := t.pub.PublishJSON(t.topics.Telemetry(), models.TelemetryMessage{name: {values}}); err != nil {
		log.Printf("ERROR: publish telemetry for %s: %v", name, err)
	}
	publishAttributes(t.pub, t.topics, name, shadow)

	if t.sink != nil {
		t.sink.WriteTelemetry(name, values, time.Now())
	}
	t.events.Report(id, shadow, sourceTelemetry)

	log.Printf("-> Synced %s to cloud", name)
}

func frameDeviceID(frame models.Frame) (int, bool) {
	v, ok := frame[models.FrameDeviceID]
	if !ok {
		return 0, false
	}
	id, err := utils.ToInt(v)
	if err != nil {
		return 0, false
	}
	// 1.5 is not device 1
	if f := utils.ToFloat(v, math.NaN()); f != float64(id) {
		return 0, false
	}
	return id, true
}

// shadowFieldsFromFrame picks the configurable state the node reported.
// Values that cannot be coerced are treated as absent.
func shadowFieldsFromFrame(frame models.Frame, maxBrightness int) models.ShadowFields {
	var f models.ShadowFields
	if v, ok := frame[models.FrameAutoMode]; ok {
		if b, err := utils.ToBool(v); err == nil {
			f.AutoMode = &b
		}
	}
	if v, ok := frame[models.FrameYellowColor]; ok {
		if b, err := utils.ToBool(v); err == nil {
			f.YellowColorSelected = &b
		}
	}
	if v, ok := frame[models.FrameLedBrightness]; ok {
		if n, err := utils.ToInt(v); err == nil {
			n = utils.Clamp(n, 0, maxBrightness)
			f.LedBrightness = &n
		}
	}
	return f
}

func telemetryFromFrame(frame models.Frame, brightness int) models.TelemetryValues {
	return models.TelemetryValues{
		Light:         utils.ToFloat(frame[models.FrameLight], 0),
		Voltage:       utils.ToFloat(frame[models.FrameVoltage], 0),
		Current:       utils.ToFloat(frame[models.FrameCurrent], 0),
		Power:         utils.ToFloat(frame[models.FramePower], 0),
		Motion:        frameFlag(frame, models.FrameMotion),
		Raining:       frameFlag(frame, models.FrameRain),
		LedBrightness: brightness,
	}
}

func frameFlag(frame models.Frame, key string) bool {
	b, err := utils.ToBool(frame[key])
	return err == nil && b
}
