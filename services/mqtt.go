package services

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var (
	DefaultMqttService *MqttService
	once               sync.Once
)

type MqttService struct {
	id string

	client mqtt.Client

	mu         sync.Mutex                     // guards topics, handlers and onConnect
	topics     map[string]byte                // topic -> QoS, restored on every reconnect
	handlers   map[string]mqtt.MessageHandler // topic -> handler
	onConnect  []func()                       // run after subscriptions are restored
	running    bool
	connectTTL time.Duration
}

func InitMqttService(id, brokerURL, user, password string) error {
	var initErr error
	once.Do(func() {
		DefaultMqttService = NewMqttService(id, brokerURL, user, password)
		initErr = DefaultMqttService.Start()
	})
	return initErr
}

func GetMqttService() *MqttService {
	return DefaultMqttService
}

// NewMqttService builds the cloud broker client. ThingsBoard authenticates a
// gateway by access token passed as the MQTT username.
func NewMqttService(id, brokerURL, user, password string) *MqttService {
	opts := mqtt.NewClientOptions().AddBroker(brokerURL).SetClientID(id).SetOrderMatters(false)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetAutoReconnect(true)

	opts.SetUsername(user)
	if password != "" {
		opts.SetPassword(password)
	}

	service := &MqttService{
		id:         id,
		topics:     make(map[string]byte),
		handlers:   make(map[string]mqtt.MessageHandler),
		connectTTL: 30 * time.Second,
	}

	opts.SetOnConnectHandler(service.onConnectHandler)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("MQTT connection lost: %v", err)
	})

	service.client = mqtt.NewClient(opts)

	return service
}

// AddSubscriptionTopic may be called before Start or while running.
func (s *MqttService) AddSubscriptionTopic(topic string, qos byte, handler mqtt.MessageHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.topics[topic] = qos
	s.handlers[topic] = handler

	if s.running && s.client.IsConnected() {
		s.subscribeToTopic(topic, qos)
	}
}

// OnConnect registers fn to run after every (re)connect. If the client is
// already connected fn also runs immediately.
func (s *MqttService) OnConnect(fn func()) {
	s.mu.Lock()
	s.onConnect = append(s.onConnect, fn)
	connected := s.running && s.client.IsConnected()
	s.mu.Unlock()

	if connected {
		go fn()
	}
}

func (s *MqttService) subscribeToTopic(topic string, qos byte) {
	handler, exists := s.handlers[topic]
	if !exists {
		log.Printf("ERROR: No handler registered for topic '%s'", topic)
		return
	}

	token := s.client.Subscribe(topic, qos, handler)
	token.Wait()
	if token.Error() != nil {
		log.Printf("ERROR: Failed to subscribe to topic '%s': %v", topic, token.Error())
	} else {
		log.Printf("Subscribed to topic: '%s' (QoS %d)", topic, qos)
	}
}

func (s *MqttService) onConnectHandler(client mqtt.Client) {
	log.Println("MQTT Client Connected!")
	s.mu.Lock()
	if len(s.topics) > 0 {
		log.Printf("Resubscribing to %d topics...", len(s.topics))
		for topic, qos := range s.topics {
			s.subscribeToTopic(topic, qos)
		}
	} else {
		log.Println("No topics registered for subscription.")
	}
	hooks := make([]func(), len(s.onConnect))
	copy(hooks, s.onConnect)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn()
	}
}

func (s *MqttService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("MQTT Client Service is already running")
	}
	log.Println("Starting MQTT Client Service...")

	token := s.client.Connect()
	if !token.WaitTimeout(s.connectTTL) {
		return fmt.Errorf("failed to connect MQTT client: timeout after %v", s.connectTTL)
	}
	if token.Error() != nil {
		return fmt.Errorf("failed to connect MQTT client: %w", token.Error())
	}
	s.running = true
	log.Println("MQTT Client Service started.")
	return nil
}

func (s *MqttService) Stop() {
	log.Println("Stopping MQTT Client Service...")
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	if s.client.IsConnected() {
		s.client.Disconnect(250)
	}
	log.Println("MQTT Client Service stopped.")
}

func (s *MqttService) PublishMessage(topic string, qos byte, retained bool, payload interface{}) error {
	if !s.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected, cannot publish")
	}
	token := s.client.Publish(topic, qos, retained, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish message to topic '%s': %w", topic, token.Error())
	}
	return nil
}

// PublishJSON marshals v and publishes it at QoS 1.
func (s *MqttService) PublishJSON(topic string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal payload for '%s': %w", topic, err)
	}
	return s.PublishMessage(topic, 1, false, data)
}
