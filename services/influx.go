package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"loragw/models"
)

const (
	influxPingTimeout  = 10 * time.Second
	influxBatchSize    = 50
	influxFlushMillis  = 5000
	telemetryMeasure   = "lora_telemetry"
	telemetryDeviceTag = "device"
)

var ErrInfluxDisabled = errors.New("influxdb: disabled")

// InfluxService records every accepted telemetry sample. Writes are
// non-blocking and batched by the client library.
type InfluxService struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI

	mu     sync.RWMutex
	closed bool
}

func NewInfluxService(url, token, org, bucket string) (*InfluxService, error) {
	if url == "" {
		return nil, ErrInfluxDisabled
	}

	client := influxdb2.NewClientWithOptions(url, token,
		influxdb2.DefaultOptions().
			SetBatchSize(influxBatchSize).
			SetFlushInterval(influxFlushMillis))

	ctx, cancel := context.WithTimeout(context.Background(), influxPingTimeout)
	defer cancel()

	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("influxdb ping failed: %w", err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("influxdb server not healthy")
	}

	s := &InfluxService{
		client:   client,
		writeAPI: client.WriteAPI(org, bucket),
	}
	go func(errs <-chan error) {
		for err := range errs {
			log.Printf("ERROR: influxdb write failed: %v", err)
		}
	}(s.writeAPI.Errors())

	return s, nil
}

// WriteTelemetry implements app.TelemetrySink.
func (s *InfluxService) WriteTelemetry(device string, values models.TelemetryValues, at time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return
	}
	s.writeAPI.WritePoint(TelemetryPoint(device, values, at))
}

// TelemetryPoint maps one telemetry sample to a line-protocol point.
func TelemetryPoint(device string, values models.TelemetryValues, at time.Time) *write.Point {
	return write.NewPoint(
		telemetryMeasure,
		map[string]string{telemetryDeviceTag: device},
		map[string]interface{}{
			"light":          values.Light,
			"voltage":        values.Voltage,
			"current":        values.Current,
			"power":          values.Power,
			"motion":         values.Motion,
			"raining":        values.Raining,
			"led_brightness": values.LedBrightness,
		},
		at,
	)
}

func (s *InfluxService) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.writeAPI.Flush()
	s.client.Close()
}
