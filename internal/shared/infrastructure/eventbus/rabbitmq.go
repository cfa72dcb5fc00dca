package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// Exchange is the topic exchange agenda events are published to.
	Exchange = "homebase.agenda.events"
	// RefreshQueue is the durable queue the worker's refresh handler reads.
	RefreshQueue = "homebase.agenda.refresh"
)

// ErrConnectionClosed is reported once the broker connection is gone.
var ErrConnectionClosed = errors.New("rabbitmq connection closed")

// broker is a connection with one channel on which the exchange exists.
type broker struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func dial(url, exchange string) (*broker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	// durable, not auto-deleted, not internal
	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &broker{conn: conn, channel: ch}, nil
}

func (b *broker) alive() error {
	if b.conn == nil || b.conn.IsClosed() {
		return ErrConnectionClosed
	}
	return nil
}

func (b *broker) close() error {
	if err := b.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		_ = b.conn.Close()
		return err
	}
	if err := b.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		return err
	}
	return nil
}

// RabbitMQPublisher relays outbox messages to the agenda exchange.
type RabbitMQPublisher struct {
	*broker
	logger *slog.Logger
	// amqp channels are not safe for concurrent publishes.
	mu sync.Mutex
}

// NewRabbitMQPublisher connects and declares the exchange.
func NewRabbitMQPublisher(url string, logger *slog.Logger) (*RabbitMQPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	b, err := dial(url, Exchange)
	if err != nil {
		return nil, err
	}
	logger.Info("RabbitMQ publisher connected", "exchange", Exchange)
	return &RabbitMQPublisher{broker: b, logger: logger}, nil
}

// Ping fails once the connection has dropped.
func (p *RabbitMQPublisher) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.alive()
}

// Publish sends a persistent JSON message.
func (p *RabbitMQPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	err := p.channel.PublishWithContext(ctx, Exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		AppId:        "homebase",
		Body:         payload,
	})
	if err != nil {
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	p.logger.DebugContext(ctx, "message published", "routing_key", routingKey, "size", len(payload))
	return nil
}

func (p *RabbitMQPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.close()
}

// RabbitMQConsumerConfig configures NewRabbitMQConsumer.
type RabbitMQConsumerConfig struct {
	URL string
	// Queue defaults to RefreshQueue.
	Queue string
	// Prefetch bounds unacknowledged deliveries. Defaults to 1.
	Prefetch int
	Logger   *slog.Logger
}

// RabbitMQConsumer feeds a queue bound to the agenda exchange into a Router.
type RabbitMQConsumer struct {
	*broker
	queue    string
	prefetch int
	router   *Router
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	done    chan struct{}
}

// NewRabbitMQConsumer connects and declares the durable queue. Bindings are
// added by Subscribe.
func NewRabbitMQConsumer(cfg RabbitMQConsumerConfig, router *Router) (*RabbitMQConsumer, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Queue == "" {
		cfg.Queue = RefreshQueue
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 1
	}
	if router == nil {
		router = NewRouter(cfg.Logger)
	}

	b, err := dial(cfg.URL, Exchange)
	if err != nil {
		return nil, err
	}
	// durable, not auto-deleted, not exclusive
	if _, err := b.channel.QueueDeclare(cfg.Queue, true, false, false, false, nil); err != nil {
		_ = b.close()
		return nil, fmt.Errorf("failed to declare queue %s: %w", cfg.Queue, err)
	}

	cfg.Logger.Info("RabbitMQ consumer connected", "queue", cfg.Queue, "exchange", Exchange)
	return &RabbitMQConsumer{
		broker:   b,
		queue:    cfg.Queue,
		prefetch: cfg.Prefetch,
		router:   router,
		logger:   cfg.Logger,
		done:     make(chan struct{}),
	}, nil
}

// Subscribe adds h to the router and binds the queue to its routing keys.
func (c *RabbitMQConsumer) Subscribe(h Handler) error {
	c.router.Subscribe(h)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range h.RoutingKeys() {
		if err := c.channel.QueueBind(c.queue, key, Exchange, false, nil); err != nil {
			return fmt.Errorf("failed to bind %s to %s: %w", c.queue, key, err)
		}
	}
	return nil
}

// Start consumes until ctx is cancelled or Close is called. It blocks.
func (c *RabbitMQConsumer) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return errors.New("consumer already running")
	}
	c.running = true
	c.mu.Unlock()

	if err := c.channel.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}
	deliveries, err := c.channel.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("failed to consume %s: %w", c.queue, err)
	}
	c.logger.Info("consuming agenda events", "queue", c.queue, "routes", c.router.Routes())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return nil
		case d, ok := <-deliveries:
			if !ok {
				return ErrConnectionClosed
			}
			c.deliver(ctx, d)
		}
	}
}

// deliver settles one delivery. Undecodable bodies are rejected outright; a
// failed dispatch is requeued once and dropped on the second failure.
func (c *RabbitMQConsumer) deliver(ctx context.Context, d amqp.Delivery) {
	event, err := DecodeEvent(d.RoutingKey, d.Body)
	if err != nil {
		c.logger.ErrorContext(ctx, "rejecting undecodable message", "routing_key", d.RoutingKey, "error", err)
		c.settle(d.Reject(false))
		return
	}

	if err := c.router.Dispatch(ctx, event); err != nil {
		if d.Redelivered {
			c.logger.WarnContext(ctx, "dropping event after redelivery failed",
				"routing_key", event.RoutingKey,
				"event_id", event.EventID,
			)
		}
		c.settle(d.Nack(false, !d.Redelivered))
		return
	}
	c.settle(d.Ack(false))
}

func (c *RabbitMQConsumer) settle(err error) {
	if err != nil {
		c.logger.Error("failed to settle delivery", "error", err)
	}
}

// Close stops Start and closes the connection.
func (c *RabbitMQConsumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.done:
	default:
		close(c.done)
	}
	c.running = false
	return c.close()
}
