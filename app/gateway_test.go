package app

import (
	"fmt"
	"sync"
	"testing"

	"github.com/nats-io/nats.go"

	"loragw/models"
)

func TestNewGatewayValidation(t *testing.T) {
	reg := testRegistry(t)
	if _, err := NewGateway(nil, reg, GatewayOptions{MaxBrightness: 100}); err == nil {
		t.Error("nil broker accepted")
	}
	if _, err := NewGateway(newFakeBroker(), nil, GatewayOptions{MaxBrightness: 100}); err == nil {
		t.Error("nil registry accepted")
	}
	if _, err := NewGateway(newFakeBroker(), reg, GatewayOptions{}); err == nil {
		t.Error("zero max brightness accepted")
	}

	gw, err := NewGateway(newFakeBroker(), reg, GatewayOptions{TopicPrefix: "tb/gateway/", MaxBrightness: 100})
	if err != nil {
		t.Fatal(err)
	}
	if gw.topics.Rpc() != "tb/gateway/rpc" {
		t.Errorf("rpc topic = %q", gw.topics.Rpc())
	}
}

func TestGatewayStartSubscribesAndAnnounces(t *testing.T) {
	h := newHarness(t)
	h.gw.Start()

	handler, ok := h.broker.handlers[testRpcTopic]
	if !ok {
		t.Fatalf("no handler on %s; handlers = %v", testRpcTopic, h.broker.handlers)
	}
	if len(h.broker.onConnect) != 1 {
		t.Fatalf("onConnect hooks = %d, want 1", len(h.broker.onConnect))
	}

	h.broker.onConnect[0]()
	connects := h.broker.On(testConnectTopic)
	want := []string{`{"device":"Light1"}`, `{"device":"Light2"}`, `{"device":"Light3"}`}
	if fmt.Sprint(connects) != fmt.Sprint(want) {
		t.Errorf("connect messages = %v, want %v", connects, want)
	}
	if n := len(h.broker.On(testAttributesTopic)); n != 3 {
		t.Errorf("attribute snapshots on connect = %d, want 3", n)
	}

	h.broker.Reset()
	handler(nil, fakeMessage{
		topic:   testRpcTopic,
		payload: []byte(`{"device":"Light2","data":{"id":7,"method":"setYellowColor","params":true}}`),
	})
	if sh, _ := h.gw.Shadow(2); !sh.YellowColorSelected {
		t.Error("RPC via broker handler not applied")
	}
	if sends := h.radio.Sends(); len(sends) != 1 || sends[0] != (radioSend{2, models.CommandColor, 2}) {
		t.Errorf("radio sends = %+v", sends)
	}

	// malformed payloads must not panic the callback
	handler(nil, fakeMessage{topic: testRpcTopic, payload: []byte(`{"device":`)})
}

func TestGatewayShadowDelta(t *testing.T) {
	h := newHarness(t)
	u, _ := h.gw.registry.UUID(1)
	handle := h.gw.natsHandler()

	handle(&nats.Msg{
		Subject: "shadow." + u.String(),
		Data:    []byte(`{"device_uuid":"x","state":{"delta":{"led_brightness":45,"auto_mode":true,"color":"red"}}}`),
	})

	if sh, _ := h.gw.Shadow(1); sh != (models.DeviceShadow{AutoMode: true, LedBrightness: 45}) {
		t.Errorf("shadow = %+v", sh)
	}
	sends := h.radio.Sends()
	want := []radioSend{{1, models.CommandAuto, 1}, {1, models.CommandDim, 45}}
	if len(sends) != len(want) || sends[0] != want[0] || sends[1] != want[1] {
		t.Errorf("radio sends = %+v, want %+v", sends, want)
	}
	if n := len(h.broker.On(testAttributesTopic)); n != 2 {
		t.Errorf("attribute publishes = %d, want 2", n)
	}

	before := len(h.radio.Sends())
	for _, msg := range []*nats.Msg{
		{Subject: "shadow.not-a-device", Data: []byte(`{"state":{"delta":{"auto_mode":false}}}`)},
		{Subject: "shadow." + u.String(), Data: []byte(`garbage`)},
		{Subject: "shadow." + u.String(), Data: []byte(`{"state":{}}`)},
		{Subject: "shadow." + u.String() + ".reported", Data: []byte(`{"state":{"delta":{"auto_mode":false}}}`)},
	} {
		handle(msg)
	}
	if len(h.radio.Sends()) != before {
		t.Error("ignored shadow messages reached the radio")
	}
}

func TestGatewayConcurrentSources(t *testing.T) {
	h := newHarness(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			h.gw.HandleFrame(models.Frame{
				models.FrameDeviceID: float64(1 + n%3),
				models.FrameVoltage:  float64(220),
				models.FrameAutoMode: n%2 == 0,
			})
		}(i)
		go func(n int) {
			defer wg.Done()
			payload := fmt.Sprintf(`{"device":"Light%d","data":{"method":"setBrightness","params":%d}}`, 1+n%3, n)
			h.gw.router.HandleRPC([]byte(payload))
		}(i)
	}
	wg.Wait()

	if n := len(h.broker.On(testTelemetryTopic)); n != 20 {
		t.Errorf("telemetry publishes = %d, want 20", n)
	}
	if n := len(h.broker.On(testAttributesTopic)); n != 40 {
		t.Errorf("attribute publishes = %d, want 40", n)
	}
	if n := len(h.radio.Sends()); n != 20 {
		t.Errorf("radio sends = %d, want 20", n)
	}
}
