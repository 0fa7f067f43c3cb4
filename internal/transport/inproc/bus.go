package inproc

import (
	"sync"

	"renderbot/internal/repository"
)

// Bus is the single-process stand-in for NATS: publishes dispatch to one
// handler per queue group in a fresh goroutine. Used when no NATS server
// is configured.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string]map[string]func(data []byte) // topic -> group -> handler
	wg       sync.WaitGroup
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[string]map[string]func(data []byte))}
}

func (b *Bus) Publish(topic string, data []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, handler := range b.handlers[topic] {
		h := handler
		b.wg.Add(1)
		go func() {
			defer b.wg.Done()
			h(data)
		}()
	}
	return nil
}

func (b *Bus) Subscribe(topic, group string, handler func(data []byte)) (repository.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers[topic] == nil {
		b.handlers[topic] = make(map[string]func(data []byte))
	}
	b.handlers[topic][group] = handler
	return &subscription{bus: b, topic: topic, group: group}, nil
}

type subscription struct {
	bus   *Bus
	topic string
	group string
}

// Drain unregisters the handler and waits for in-flight deliveries.
func (s *subscription) Drain() error {
	s.bus.mu.Lock()
	delete(s.bus.handlers[s.topic], s.group)
	s.bus.mu.Unlock()
	s.bus.wg.Wait()
	return nil
}
