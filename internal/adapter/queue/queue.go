package queue

// MessageQueue is the broker boundary for report lifecycle events
// (report.refreshed, report.sync). NATS is the primary implementation,
// RabbitMQ the alternative; both fan out to every subscriber.
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Close() error
}
