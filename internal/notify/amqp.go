package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/metinatakli/seat-reservation-core/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	DefaultExchange = "booking.events"

	defaultReconnectDelay = 500 * time.Millisecond
	defaultReconnectTries = 5
)

type amqpChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

// dialFunc opens a connection with a channel ready to publish on.
type dialFunc func() (io.Closer, amqpChannel, error)

type amqpSession struct {
	conn io.Closer
	ch   amqpChannel
}

// AMQPPublisher writes booking events to a durable topic exchange. The routing
// key is booking.<status>, e.g. booking.confirmed. A channel dropped by the
// broker is re-established on the next publish.
type AMQPPublisher struct {
	exchange string
	logger   *slog.Logger
	dial     dialFunc

	reconnectDelay time.Duration
	reconnectTries uint

	mu   sync.Mutex
	conn io.Closer
	ch   amqpChannel
}

func NewAMQPPublisher(url, exchange string, logger *slog.Logger) (*AMQPPublisher, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	p := &AMQPPublisher{
		exchange:       exchange,
		logger:         logger,
		dial:           brokerDialer(url, exchange),
		reconnectDelay: defaultReconnectDelay,
		reconnectTries: defaultReconnectTries,
	}

	conn, ch, err := p.dial()
	if err != nil {
		return nil, err
	}

	p.conn, p.ch = conn, ch

	return p, nil
}

func brokerDialer(url, exchange string) dialFunc {
	return func() (io.Closer, amqpChannel, error) {
		conn, err := amqp.Dial(url)
		if err != nil {
			return nil, nil, fmt.Errorf("dialing broker: %w", err)
		}

		ch, err := conn.Channel()
		if err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("opening channel: %w", err)
		}

		err = ch.ExchangeDeclare(
			exchange,
			amqp.ExchangeTopic,
			true,  // durable
			false, // autoDelete
			false, // internal
			false, // noWait
			nil,
		)
		if err != nil {
			conn.Close()
			return nil, nil, fmt.Errorf("declaring exchange %s: %w", exchange, err)
		}

		return conn, ch, nil
	}
}

func RoutingKey(status domain.BookingStatus) string {
	return "booking." + strings.ToLower(string(status))
}

func (p *AMQPPublisher) Publish(ctx context.Context, event domain.BookingStatusChanged) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding booking event: %w", err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    fmt.Sprintf("%s:%s", event.BookingID, event.Status),
		Type:         event.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ch == nil || p.ch.IsClosed() {
		if err := p.reconnect(ctx); err != nil {
			return err
		}
	}

	key := RoutingKey(event.Status)

	err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, msg)
	if err != nil && (errors.Is(err, amqp.ErrClosed) || p.ch.IsClosed()) {
		if reconnectErr := p.reconnect(ctx); reconnectErr != nil {
			return fmt.Errorf("publishing booking event to %s: %w", p.exchange, errors.Join(err, reconnectErr))
		}

		err = p.ch.PublishWithContext(ctx, p.exchange, key, false, false, msg)
	}

	if err != nil {
		return fmt.Errorf("publishing booking event to %s: %w", p.exchange, err)
	}

	return nil
}

// reconnect replaces the current connection. Callers hold p.mu.
func (p *AMQPPublisher) reconnect(ctx context.Context) error {
	p.closeSession()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.reconnectDelay
	b.MaxInterval = 30 * time.Second

	session, err := backoff.Retry(ctx, func() (amqpSession, error) {
		conn, ch, err := p.dial()
		if err != nil {
			p.logger.Warn("broker reconnect failed", "exchange", p.exchange, "error", err)
			return amqpSession{}, err
		}

		return amqpSession{conn: conn, ch: ch}, nil
	}, backoff.WithBackOff(b), backoff.WithMaxTries(max(p.reconnectTries, 1)))
	if err != nil {
		return fmt.Errorf("reconnecting to broker: %w", err)
	}

	p.conn, p.ch = session.conn, session.ch
	p.logger.Info("reconnected to broker", "exchange", p.exchange)

	return nil
}

func (p *AMQPPublisher) closeSession() error {
	var errs []error

	if p.ch != nil && !p.ch.IsClosed() {
		errs = append(errs, p.ch.Close())
	}

	if p.conn != nil {
		errs = append(errs, p.conn.Close())
	}

	p.conn, p.ch = nil, nil

	return errors.Join(errs...)
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.closeSession()
}
