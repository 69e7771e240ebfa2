package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	forwardBuffer  = 256
	publishTimeout = 5 * time.Second
)

// Channel is the subset of *amqp.Channel the forwarder needs.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// DialFunc opens a channel on a broker with the exchange declared.
type DialFunc func(url, exchange string) (Channel, io.Closer, error)

// AMQPForwarder relays bus events to a topic exchange, routing by event type.
// Delivery is best effort: a full buffer drops the event and a failed publish
// is logged and the connection reopened on the next event.
type AMQPForwarder struct {
	url      string
	exchange string
	dial     DialFunc
	logger   *zerolog.Logger
	queue    chan *Event

	mu   sync.Mutex
	ch   Channel
	conn io.Closer
}

func NewAMQPForwarder(url, exchange string, dial DialFunc, logger *zerolog.Logger) *AMQPForwarder {
	if dial == nil {
		dial = DialAMQP
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &AMQPForwarder{
		url:      url,
		exchange: exchange,
		dial:     dial,
		logger:   logger,
		queue:    make(chan *Event, forwardBuffer),
	}
}

// DialAMQP connects to url and declares a durable topic exchange.
func DialAMQP(url, exchange string) (Channel, io.Closer, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to declare exchange: %w", err)
	}
	return ch, conn, nil
}

// Handle is an EventHandler; it never blocks the publisher.
func (f *AMQPForwarder) Handle(event *Event) error {
	select {
	case f.queue <- event:
		return nil
	default:
		f.logger.Warn().Str("event_type", event.Type).Msg("amqp forward buffer full, dropping event")
		return errors.New("amqp forward buffer full")
	}
}

// Start drains the buffer until ctx is done.
func (f *AMQPForwarder) Start(ctx context.Context) {
	f.logger.Info().Str("exchange", f.exchange).Msg("amqp forwarder started")
	defer f.close()

	for {
		select {
		case <-ctx.Done():
			f.logger.Info().Msg("amqp forwarder stopped")
			return
		case event := <-f.queue:
			if err := f.publish(ctx, event); err != nil {
				f.logger.Error().Err(err).Str("event_type", event.Type).Msg("amqp publish failed")
			}
		}
	}
}

func (f *AMQPForwarder) publish(ctx context.Context, event *Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.ch == nil {
		ch, conn, err := f.dial(f.url, f.exchange)
		if err != nil {
			return err
		}
		f.ch, f.conn = ch, conn
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err := f.ch.PublishWithContext(pubCtx, f.exchange, event.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.CreatedAt.UTC(),
		Type:         event.Type,
		Body:         event.Payload,
	})
	if err != nil {
		f.resetLocked()
		return fmt.Errorf("failed to publish %s: %w", event.Type, err)
	}
	return nil
}

func (f *AMQPForwarder) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resetLocked()
}

func (f *AMQPForwarder) resetLocked() {
	if f.ch != nil {
		_ = f.ch.Close()
	}
	if f.conn != nil {
		_ = f.conn.Close()
	}
	f.ch, f.conn = nil, nil
}
