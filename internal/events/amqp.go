package events

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPPublisher delivers task events to a RabbitMQ broker, one queue per
// user topic. Consumers (for example a websocket gateway) bind to the
// topic of the users they serve.
type AMQPPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel

	mu       sync.Mutex
	declared map[string]struct{}
}

var _ Publisher = (*AMQPPublisher)(nil)

// NewAMQPPublisher dials the broker and opens a publishing channel.
func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	if strings.TrimSpace(url) == "" {
		return nil, errors.New("amqp url is required")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	return &AMQPPublisher{
		conn:     conn,
		channel:  ch,
		declared: make(map[string]struct{}),
	}, nil
}

// Publish sends the event to the queue named after its topic.
func (p *AMQPPublisher) Publish(ctx context.Context, event *TaskEvent) error {
	topic := event.Topic()
	if err := p.declareQueue(topic); err != nil {
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.channel.PublishWithContext(ctx, "", topic, false, false, amqp.Publishing{
		ContentType: "application/json",
		MessageId:   event.ID.String(),
		Timestamp:   event.CreatedAt,
		Headers: amqp.Table{
			"event_type": event.Type,
		},
		Body: body,
	})
}

// Close closes the underlying channel and connection.
func (p *AMQPPublisher) Close() error {
	if p.channel != nil {
		_ = p.channel.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

func (p *AMQPPublisher) declareQueue(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.declared[name]; ok {
		return nil
	}
	if _, err := p.channel.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return err
	}
	p.declared[name] = struct{}{}
	return nil
}
