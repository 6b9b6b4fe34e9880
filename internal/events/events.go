// Package events announces finished quiz attempts to a message broker.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"blockchain-quiz/internal/quiz"
)

const (
	DefaultExchange = "quiz.events"

	RoutingKeyPass = "quiz.result.pass"
	RoutingKeyFail = "quiz.result.fail"
)

type Publisher interface {
	Publish(ctx context.Context, result quiz.QuizResult) error
	Close() error
}

// New returns an AMQP publisher when url is set and a no-op one otherwise.
func New(url, exchange string, log *slog.Logger) (Publisher, error) {
	if strings.TrimSpace(url) == "" {
		return Noop{}, nil
	}
	return NewAMQP(url, exchange, log)
}

type Noop struct{}

func (Noop) Publish(context.Context, quiz.QuizResult) error { return nil }

func (Noop) Close() error { return nil }

// AMQP publishes result messages to a durable topic exchange.
type AMQP struct {
	conn     *amqp.Connection
	exchange string
	log      *slog.Logger

	mu sync.Mutex
	ch *amqp.Channel
}

func NewAMQP(url, exchange string, log *slog.Logger) (*AMQP, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}
	if log == nil {
		log = slog.Default()
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	log.Info("result events enabled", slog.String("exchange", exchange))
	return &AMQP{conn: conn, ch: ch, exchange: exchange, log: log}, nil
}

type resultMessage struct {
	Event  string          `json:"event"`
	SentAt time.Time       `json:"sentAt"`
	Result quiz.QuizResult `json:"result"`
}

func RoutingKey(result quiz.QuizResult) string {
	if result.Passed {
		return RoutingKeyPass
	}
	return RoutingKeyFail
}

func (p *AMQP) Publish(ctx context.Context, result quiz.QuizResult) error {
	key := RoutingKey(result)
	body, err := json.Marshal(resultMessage{
		Event:  key,
		SentAt: time.Now().UTC(),
		Result: result,
	})
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx,
		p.exchange,
		key,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", key, err)
	}
	return nil
}

func (p *AMQP) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.Close(); err != nil {
		p.log.Warn("close broker channel", slog.Any("err", err))
	}
	return p.conn.Close()
}
