package app

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"loragw/config"
	"loragw/models"
)

type published struct {
	topic   string
	payload string
}

// fakeBroker records every publish as marshalled JSON.
type fakeBroker struct {
	mu        sync.Mutex
	msgs      []published
	handlers  map[string]mqtt.MessageHandler
	onConnect []func()
	failWith  error
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{handlers: make(map[string]mqtt.MessageHandler)}
}

func (b *fakeBroker) PublishJSON(topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failWith != nil {
		return b.failWith
	}
	b.msgs = append(b.msgs, published{topic: topic, payload: string(data)})
	return nil
}

func (b *fakeBroker) AddSubscriptionTopic(topic string, qos byte, handler mqtt.MessageHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = handler
}

func (b *fakeBroker) OnConnect(fn func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.onConnect = append(b.onConnect, fn)
}

func (b *fakeBroker) Published() []published {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]published, len(b.msgs))
	copy(out, b.msgs)
	return out
}

func (b *fakeBroker) On(topic string) []string {
	var out []string
	for _, m := range b.Published() {
		if m.topic == topic {
			out = append(out, m.payload)
		}
	}
	return out
}

func (b *fakeBroker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = nil
}

type radioSend struct {
	id    int
	kind  models.CommandKind
	value int
}

type fakeRadio struct {
	mu    sync.Mutex
	sends []radioSend
	err   error
}

func (r *fakeRadio) Send(deviceID int, kind models.CommandKind, value int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sends = append(r.sends, radioSend{deviceID, kind, value})
	return r.err
}

func (r *fakeRadio) Sends() []radioSend {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]radioSend, len(r.sends))
	copy(out, r.sends)
	return out
}

type natsEvent struct {
	subject string
	data    []byte
}

type fakeEvents struct {
	mu     sync.Mutex
	events []natsEvent
}

func (e *fakeEvents) Publish(subject string, data []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, natsEvent{subject, data})
	return nil
}

func (e *fakeEvents) Events() []natsEvent {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]natsEvent, len(e.events))
	copy(out, e.events)
	return out
}

type sinkWrite struct {
	device string
	values models.TelemetryValues
}

type fakeSink struct {
	mu     sync.Mutex
	writes []sinkWrite
}

func (s *fakeSink) WriteTelemetry(device string, values models.TelemetryValues, _ time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes = append(s.writes, sinkWrite{device, values})
}

// fakeMessage implements mqtt.Message.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

var errBrokerDown = errors.New("broker down")

const (
	testTelemetryTopic  = "v1/gateway/telemetry"
	testAttributesTopic = "v1/gateway/attributes"
	testConnectTopic    = "v1/gateway/connect"
	testRpcTopic        = "v1/gateway/rpc"
)

func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry([]config.DeviceEntry{
		{ID: 1, Name: "Light1"},
		{ID: 2, Name: "Light2"},
		{ID: 3, Name: "Light3"},
	})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	return r
}

type testHarness struct {
	gw     *Gateway
	broker *fakeBroker
	radio  *fakeRadio
	events *fakeEvents
	sink   *fakeSink
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	h := &testHarness{
		broker: newFakeBroker(),
		radio:  &fakeRadio{},
		events: &fakeEvents{},
		sink:   &fakeSink{},
	}
	gw, err := NewGateway(h.broker, testRegistry(t), GatewayOptions{
		TopicPrefix:   "v1/gateway",
		MaxBrightness: 100,
		Events:        h.events,
		Sink:          h.sink,
	})
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}
	gw.AttachRadio(h.radio)
	h.gw = gw
	return h
}
