// Package notify publishes an epoch's restore-complete digest to a NATS
// subject, the same transport the teacher's probe package uses to ship
// packet data, pressed into service here for the opposite direction:
// announcing that a restore has finished rather than feeding one.
package notify

import (
	"fmt"
	"log"

	"github.com/nats-io/nats.go"

	"github.com/hovering-clouds/acsengine/internal/config"
	"github.com/hovering-clouds/acsengine/internal/model"
)

// NATSNotifier implements model.Notifier over a NATS connection.
type NATSNotifier struct {
	nc      *nats.Conn
	subject string
}

// NewNATSNotifier connects to the configured NATS server.
func NewNATSNotifier(cfg config.NotifyConfig) (*NATSNotifier, error) {
	nc, err := nats.Connect(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.Printf("Connected to NATS server at %s", cfg.URL)
	return &NATSNotifier{nc: nc, subject: cfg.Subject}, nil
}

// Send publishes body as a message on <configured subject>.<subject>.
func (n *NATSNotifier) Send(subject, body string) error {
	return n.nc.Publish(n.subject+"."+subject, []byte(body))
}

// Close drains and closes the underlying NATS connection.
func (n *NATSNotifier) Close() {
	if n.nc != nil {
		n.nc.Drain()
		log.Println("NATS connection drained and closed.")
	}
}

var _ model.Notifier = (*NATSNotifier)(nil)
