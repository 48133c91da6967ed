package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"
)

const AMQP_MAX_DIAL_DELAY = 60 * time.Second

type DialOptions struct {
	Attempts int
	Delay    time.Duration
}

// DialWithRetry tries to connect with exponential backoff, capped at AMQP_MAX_DIAL_DELAY.
// It gives up early when ctx is cancelled.
func DialWithRetry(ctx context.Context, url string, opts DialOptions) (*amqp091.Connection, error) {
	attempts, delay := opts.Attempts, opts.Delay
	if attempts <= 0 {
		attempts = 1
	}
	if delay <= 0 {
		delay = 500 * time.Millisecond
	}
	var lastErr error
	for i := 1; i <= attempts; i++ {
		conn, err := amqp091.Dial(url)
		if err == nil {
			if i > 1 {
				log.Printf("events: rabbit connected attempt=%d", i)
			}
			return conn, nil
		}
		lastErr = err
		if i == attempts {
			break
		}

		sleep := delay << (i - 1)
		if sleep > AMQP_MAX_DIAL_DELAY || sleep <= 0 {
			sleep = AMQP_MAX_DIAL_DELAY
		}
		log.Printf("events: rabbit dial failed attempt=%d sleep=%s err=%v", i, sleep, err)

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("events: dial cancelled: %w", ctx.Err())
		case <-timer.C:
		}
	}
	return nil, fmt.Errorf("events: dial amqp after %d attempts: %w", attempts, lastErr)
}

// AMQPEmitter publishes envelopes to a topic exchange using the event type as routing key.
// Every publish waits for the broker confirm.
type AMQPEmitter struct {
	conn     *amqp091.Connection
	exchange string
	producer string
}

func NewAMQP(ctx context.Context, url, exchange, producer string, opts DialOptions) (*AMQPEmitter, error) {
	conn, err := DialWithRetry(ctx, url, opts)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("events: open channel: %w", err)
	}
	defer ch.Close()
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("events: declare exchange %s: %w", exchange, err)
	}
	return &AMQPEmitter{conn: conn, exchange: exchange, producer: producer}, nil
}

func (e *AMQPEmitter) Emit(ctx context.Context, env Envelope) error {
	pub, err := buildPublishing(env, e.producer, time.Now())
	if err != nil {
		return err
	}
	ch, err := e.conn.Channel()
	if err != nil {
		return fmt.Errorf("events: open channel: %w", err)
	}
	defer ch.Close()
	if err := ch.Confirm(false); err != nil {
		return fmt.Errorf("events: confirm mode: %w", err)
	}

	confirm, err := ch.PublishWithDeferredConfirmWithContext(ctx, e.exchange, env.Meta.Type, false, false, pub)
	if err != nil {
		return fmt.Errorf("events: publish %s: %w", env.Meta.Type, err)
	}
	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("events: confirm %s: %w", env.Meta.Type, err)
	}
	if !acked {
		return fmt.Errorf("events: broker nacked %s id=%s", env.Meta.Type, pub.MessageId)
	}
	log.Printf("events: published type=%s exchange=%s id=%s", env.Meta.Type, e.exchange, pub.MessageId)
	return nil
}

func (e *AMQPEmitter) Close() error {
	return e.conn.Close()
}

func buildPublishing(env Envelope, producer string, now time.Time) (amqp091.Publishing, error) {
	if env.Meta.ID == "" {
		env.Meta.ID = uuid.NewString()
	}
	if env.Meta.Producer == nil && producer != "" {
		p := producer
		env.Meta.Producer = &p
	}
	cid := env.Meta.ID
	if env.Meta.CorrelationID != nil {
		cid = *env.Meta.CorrelationID
	}
	body, err := json.Marshal(env)
	if err != nil {
		return amqp091.Publishing{}, fmt.Errorf("events: marshal %s: %w", env.Meta.Type, err)
	}
	return amqp091.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp091.Persistent,
		MessageId:     env.Meta.ID,
		CorrelationId: cid,
		Timestamp:     now,
		Type:          env.Meta.Type,
		Body:          body,
	}, nil
}
