package repository

// MessageBus connects event producers (webhook handler, ledger debits) to
// the workers consuming them. Queue semantics: within one group each
// message is delivered to a single subscriber.
type MessageBus interface {
	Publish(topic string, data []byte) error
	Subscribe(topic, group string, handler func(data []byte)) (Subscription, error)
}

type Subscription interface {
	// Drain stops delivery after in-flight handlers finish.
	Drain() error
}

// Topics shared by producers and workers.
const (
	TopicPaymentsCompleted = "payments.completed"
	TopicRendersDebited    = "renders.debited"
)
