package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RabbitMQ publishes events as persistent JSON messages on a durable topic exchange.
type RabbitMQ struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	prefix   string
	timeout  time.Duration
	logger   *zap.Logger
}

type RabbitMQConfig struct {
	URL        string
	Exchange   string
	KeyPrefix  string
	PublishTTL time.Duration
}

func NewRabbitMQ(cfg RabbitMQConfig, logger *zap.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		cfg.Exchange, // name
		"topic",      // kind
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // args
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}

	timeout := cfg.PublishTTL
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	logger.Info("connected to rabbitmq", zap.String("exchange", cfg.Exchange))

	return &RabbitMQ{
		conn:     conn,
		channel:  ch,
		exchange: cfg.Exchange,
		prefix:   cfg.KeyPrefix,
		timeout:  timeout,
		logger:   logger,
	}, nil
}

func (r *RabbitMQ) Publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", ev.RoutingKey(), err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	key := ev.RoutingKey()
	if r.prefix != "" {
		key = r.prefix + "." + key
	}

	// amqp channels are not safe for concurrent publishing
	r.mu.Lock()
	defer r.mu.Unlock()

	err = r.channel.PublishWithContext(
		ctx,
		r.exchange,
		key,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

func (r *RabbitMQ) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.channel.Close(); err != nil {
		r.conn.Close()
		return fmt.Errorf("close channel: %w", err)
	}
	return r.conn.Close()
}
