package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"smartparking/backend/services/parking-service/internal/models"
)

// DefaultQueue receives reminder events for device delivery.
const DefaultQueue = "parking.reminders"

// ReminderEvent is the message body published for each due reminder.
type ReminderEvent struct {
	ID        string              `json:"id"`
	Kind      models.ReminderKind `json:"kind"`
	SessionID string              `json:"session_id"`
	UserID    int64               `json:"user_id"`
	Plate     string              `json:"plate"`
	Zone      string              `json:"zone"`
	Message   string              `json:"message"`
	DueAt     time.Time           `json:"due_at"`
	SentAt    time.Time           `json:"sent_at"`
}

// AMQPPublisher publishes reminder events to a durable RabbitMQ queue.
// The connection is opened on first use and reopened after a failure.
type AMQPPublisher struct {
	url    string
	queue  string
	logger *zap.Logger

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPPublisher returns publisher for url and queue.
func NewAMQPPublisher(url, queue string, logger *zap.Logger) *AMQPPublisher {
	if queue == "" {
		queue = DefaultQueue
	}
	return &AMQPPublisher{url: url, queue: queue, logger: logger}
}

// Publish sends event as a persistent JSON message.
func (p *AMQPPublisher) Publish(ctx context.Context, event ReminderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx,
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    event.ID,
			Timestamp:    event.SentAt,
			Body:         body,
		},
	)
	if err != nil {
		p.logger.Warn("rabbitmq publish failed", zap.String("queue", p.queue), zap.Error(err))
		p.reset()
		return err
	}
	return nil
}

// Close shuts the channel and connection down.
func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reset()
}

func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.logger.Warn("rabbitmq dial failed", zap.Error(err))
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AMQPPublisher) reset() error {
	var errs []error
	if p.ch != nil {
		if err := p.ch.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
		p.ch = nil
	}
	if p.conn != nil {
		if err := p.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
			errs = append(errs, err)
		}
		p.conn = nil
	}
	return errors.Join(errs...)
}
