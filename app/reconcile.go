package app

import (
	"log"

	"loragw/models"
)

// Publisher is the outbound half of the cloud broker.
type Publisher interface {
	PublishJSON(topic string, v any) error
}

// ReconciliationEmitter republishes a device's attribute snapshot so the
// cloud view catches up with the shadow. It only reads the store.
type ReconciliationEmitter struct {
	registry *Registry
	store    *ShadowStore
	pub      Publisher
	topics   Topics
}

func NewReconciliationEmitter(registry *Registry, store *ShadowStore, pub Publisher, topics Topics) *ReconciliationEmitter {
	return &ReconciliationEmitter{registry: registry, store: store, pub: pub, topics: topics}
}

func (e *ReconciliationEmitter) Emit(id int) {
	name, ok := e.registry.Name(id)
	if !ok {
		return
	}
	shadow, ok := e.store.Get(id)
	if !ok {
		return
	}
	publishAttributes(e.pub, e.topics, name, shadow)
}

func publishAttributes(pub Publisher, topics Topics, name string, shadow models.DeviceShadow) {
	msg := models.AttributesMessage{name: models.AttributesFromShadow(shadow)}
	if err := pub.PublishJSON(topics.Attributes(), msg); err != nil {
		log.Printf("ERROR: publish attributes for %s: %v", name, err)
	}
}
