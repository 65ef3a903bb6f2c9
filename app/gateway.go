package app

import (
	"encoding/json"
	"errors"
	"log"
	"strings"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/nats-io/nats.go"

	"loragw/models"
)

// Broker is the cloud side, satisfied by *services.MqttService.
type Broker interface {
	Publisher
	AddSubscriptionTopic(topic string, qos byte, handler mqtt.MessageHandler)
	OnConnect(fn func())
}

// Subscriber is satisfied by *nats.Conn.
type Subscriber interface {
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
}

type GatewayOptions struct {
	TopicPrefix   string
	MaxBrightness int

	// Optional collaborators.
	Events     EventPublisher
	Subscriber Subscriber
	Sink       TelemetrySink
}

// Gateway bridges the radio link and the cloud broker for every device in
// the registry.
type Gateway struct {
	registry *Registry
	store    *ShadowStore
	broker   Broker
	topics   Topics

	telemetry *TelemetryTranslator
	router    *CommandRouter
	emitter   *ReconciliationEmitter

	sub           Subscriber
	mu            sync.Mutex
	subscriptions []*nats.Subscription
}

func NewGateway(broker Broker, registry *Registry, opts GatewayOptions) (*Gateway, error) {
	if broker == nil {
		return nil, errors.New("broker cannot be nil")
	}
	if registry == nil {
		return nil, errors.New("registry cannot be nil")
	}
	if opts.MaxBrightness <= 0 {
		return nil, errors.New("max brightness must be positive")
	}
	if opts.TopicPrefix == "" {
		opts.TopicPrefix = "v1/gateway"
	}

	topics := Topics{Prefix: strings.TrimSuffix(opts.TopicPrefix, "/")}
	store := NewShadowStore(registry.IDs())
	events := NewShadowEvents(registry, opts.Events)
	emitter := NewReconciliationEmitter(registry, store, broker, topics)

	g := &Gateway{
		registry: registry,
		store:    store,
		broker:   broker,
		topics:   topics,
		emitter:  emitter,
		telemetry: &TelemetryTranslator{
			registry:      registry,
			store:         store,
			pub:           broker,
			topics:        topics,
			maxBrightness: opts.MaxBrightness,
			sink:          opts.Sink,
			events:        events,
		},
		router: &CommandRouter{
			registry:      registry,
			store:         store,
			emitter:       emitter,
			events:        events,
			maxBrightness: opts.MaxBrightness,
		},
		sub: opts.Subscriber,
	}
	return g, nil
}

// HandleFrame is passed to the radio link as its frame callback.
func (g *Gateway) HandleFrame(frame models.Frame) {
	g.telemetry.HandleFrame(frame)
}

// AttachRadio enables forwarding of commands to the radio link.
func (g *Gateway) AttachRadio(link RadioSender) {
	g.router.AttachRadio(link)
}

// Shadow returns a copy of the shadow of device id.
func (g *Gateway) Shadow(id int) (models.DeviceShadow, bool) {
	return g.store.Get(id)
}

func (g *Gateway) rpcHandler() mqtt.MessageHandler {
	return func(client mqtt.Client, msg mqtt.Message) {
		g.router.HandleRPC(msg.Payload())
	}
}

// announce registers every child device with the cloud. Run on each connect.
func (g *Gateway) announce() {
	for _, id := range g.registry.IDs() {
		name, _ := g.registry.Name(id)
		if err := g.broker.PublishJSON(g.topics.Connect(), models.ConnectMessage{Device: name}); err != nil {
			log.Printf("ERROR: announce %s: %v", name, err)
			continue
		}
		// push the current shadow so the dashboard starts consistent
		g.emitter.Emit(id)
	}
	log.Printf("Announced %d devices on %s", len(g.registry.IDs()), g.topics.Connect())
}

// natsHandler routes desired-state deltas from other services through the
// same path as cloud RPCs.
func (g *Gateway) natsHandler() nats.MsgHandler {
	return func(msg *nats.Msg) {
		parts := strings.Split(msg.Subject, ".")
		if len(parts) != 2 {
			return
		}
		id, ok := g.registry.IDByUUID(parts[1])
		if !ok {
			log.Printf("ERROR: not found device by uuid: %v", parts[1])
			return
		}

		var shadow models.Shadow
		if err := json.Unmarshal(msg.Data, &shadow); err != nil {
			log.Printf("ERROR: Unmarshal shadow data error: %v", err)
			return
		}
		if len(shadow.State.Delta) == 0 {
			return
		}

		for _, cmd := range g.deltaCommands(shadow.State.Delta) {
			g.router.Dispatch(id, cmd)
		}
	}
}

// deltaCommands maps attribute keys to commands in a fixed order. Keys with
// bad values are logged and skipped.
func (g *Gateway) deltaCommands(delta map[string]any) []Command {
	keys := []struct {
		attr   string
		method string
	}{
		{"auto_mode", MethodSetAutoMode},
		{"yellow_color", MethodSetYellowColor},
		{"led_brightness", MethodSetBrightness},
	}

	var cmds []Command
	for _, k := range keys {
		v, ok := delta[k.attr]
		if !ok {
			continue
		}
		cmd, err := ParseCommand(k.method, v, g.router.maxBrightness)
		if err != nil {
			log.Printf("ERROR: shadow delta %s: %v", k.attr, err)
			continue
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}

func (g *Gateway) subscribeShadows() {
	if g.sub == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, id := range g.registry.IDs() {
		u, _ := g.registry.UUID(id)
		subject := shadowSubject(u.String())
		sub, err := g.sub.Subscribe(subject, g.natsHandler())
		if err != nil {
			log.Printf("NATS subscribe error: %v", err)
			continue
		}
		g.subscriptions = append(g.subscriptions, sub)
	}
}

func (g *Gateway) Start() {
	g.broker.AddSubscriptionTopic(g.topics.Rpc(), 1, g.rpcHandler())
	g.broker.OnConnect(g.announce)
	g.subscribeShadows()
}

func (g *Gateway) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, sub := range g.subscriptions {
		if err := sub.Unsubscribe(); err != nil {
			log.Printf("Failed to unsubscribe from %s: %v", sub.Subject, err)
		}
	}
	g.subscriptions = nil
}
