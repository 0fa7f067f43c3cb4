package nats

import (
	"github.com/nats-io/nats.go"

	"renderbot/internal/repository"
)

// Bus adapts a NATS connection to the repository.MessageBus interface.
type Bus struct {
	nc *nats.Conn
}

func NewBus(nc *nats.Conn) *Bus {
	return &Bus{nc: nc}
}

func (b *Bus) Publish(topic string, data []byte) error {
	return b.nc.Publish(topic, data)
}

// Subscribe joins a queue group so that with several instances each message
// is handled once.
func (b *Bus) Subscribe(topic, group string, handler func(data []byte)) (repository.Subscription, error) {
	sub, err := b.nc.QueueSubscribe(topic, group, func(m *nats.Msg) {
		handler(m.Data)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}
