package services

import (
	"fmt"
	"log"

	"github.com/nats-io/nats.go"
)

var NC *nats.Conn

// InitNats connects to the internal event bus. An empty url leaves NC nil and
// the gateway runs without shadow event fan-out.
func InitNats(url string) error {
	if url == "" {
		log.Println("NATS_URL not set, shadow events disabled")
		return nil
	}

	opts := []nats.Option{
		nats.Name("lora-gateway"),
		// keep retrying in the background when the first connect fails
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Printf("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return fmt.Errorf("nats connect error: %w", err)
	}
	NC = nc
	return nil
}
