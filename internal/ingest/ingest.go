// Package ingest connects orders to Kafka: storefront orders are consumed into
// the content store and status changes are published back.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/debemdeboas/yasny-slukh/internal/model"
	"github.com/debemdeboas/yasny-slukh/internal/repository"
	"github.com/rs/zerolog"
	kafkaGo "github.com/segmentio/kafka-go"
)

var ingestLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	ingestLogger = l
}

// ErrMalformedOrder is returned for messages that do not describe an order.
var ErrMalformedOrder = errors.New("malformed order message")

// OrderMessage is the storefront's order as it travels on the orders topic.
type OrderMessage struct {
	ID            string           `json:"id,omitempty"`
	CustomerName  string           `json:"customer_name"`
	CustomerPhone string           `json:"customer_phone"`
	CustomerEmail string           `json:"customer_email"`
	Items         []model.LineItem `json:"items"`
	TotalAmount   string           `json:"total_amount"`
}

// DecodeOrder parses an order message. key, when set, becomes the order id
// so that redelivered messages are recognized as duplicates.
func DecodeOrder(key, value []byte) (model.Order, error) {
	var m OrderMessage
	if err := json.Unmarshal(value, &m); err != nil {
		return model.Order{}, fmt.Errorf("%w: %v", ErrMalformedOrder, err)
	}
	if strings.TrimSpace(m.CustomerName) == "" && strings.TrimSpace(m.CustomerPhone) == "" {
		return model.Order{}, fmt.Errorf("%w: no customer name or phone", ErrMalformedOrder)
	}
	for _, it := range m.Items {
		if it.Quantity < 0 {
			return model.Order{}, fmt.Errorf("%w: negative quantity for %q", ErrMalformedOrder, it.Name)
		}
	}

	id := m.ID
	if id == "" {
		id = string(key)
	}
	return model.Order{
		ID:            id,
		CustomerName:  m.CustomerName,
		CustomerPhone: m.CustomerPhone,
		CustomerEmail: m.CustomerEmail,
		Items:         m.Items,
		TotalAmount:   m.TotalAmount,
	}, nil
}

// MessageReader is the part of a kafka reader the consumer uses.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafkaGo.Message, error)
	Close() error
}

// Consumer stores every order read from the orders topic.
type Consumer struct {
	reader MessageReader
	sink   repository.OrderSink
	topic  string
}

func NewConsumer(brokers []string, topic, groupID string, sink repository.OrderSink) *Consumer {
	reader := kafkaGo.NewReader(kafkaGo.ReaderConfig{
		Brokers: brokers,
		Topic:   topic,
		GroupID: groupID,
	})
	return NewConsumerWithReader(reader, topic, sink)
}

func NewConsumerWithReader(reader MessageReader, topic string, sink repository.OrderSink) *Consumer {
	return &Consumer{reader: reader, sink: sink, topic: topic}
}

// Run consumes until ctx ends. Messages that fail are logged and skipped.
func (c *Consumer) Run(ctx context.Context) {
	defer c.reader.Close()

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				ingestLogger.Info().Str("topic", c.topic).Msg("Order consumer shutting down")
				return
			}
			ingestLogger.Error().Err(err).Str("topic", c.topic).Msg("Error reading message")
			continue
		}

		if err := c.handle(ctx, msg); err != nil {
			ingestLogger.Error().Err(err).
				Str("topic", c.topic).
				Int64("offset", msg.Offset).
				Msg("Skipping order message")
		}
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafkaGo.Message) error {
	order, err := DecodeOrder(msg.Key, msg.Value)
	if err != nil {
		return err
	}

	stored, err := c.sink.CreateOrder(ctx, order)
	if errors.Is(err, repository.ErrDuplicateID) {
		ingestLogger.Debug().Str("order", order.ID).Msg("Order already stored")
		return nil
	}
	if err != nil {
		return fmt.Errorf("storing order: %w", err)
	}
	ingestLogger.Info().Str("order", stored.ID).Str("customer", stored.CustomerName).Msg("Order received")
	return nil
}

// StatusEvent is published on the status topic when an order changes.
type StatusEvent struct {
	ID        string            `json:"id"`
	Status    model.OrderStatus `json:"status"`
	ChangedAt time.Time         `json:"changed_at"`
}

// MessageWriter is the part of a kafka writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkaGo.Message) error
	Close() error
}

type StatusPublisher struct {
	writer MessageWriter
	now    func() time.Time
}

func NewStatusPublisher(brokers []string, topic string) *StatusPublisher {
	return NewStatusPublisherWithWriter(&kafkaGo.Writer{
		Addr:     kafkaGo.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafkaGo.LeastBytes{},
	}, time.Now)
}

func NewStatusPublisherWithWriter(w MessageWriter, now func() time.Time) *StatusPublisher {
	return &StatusPublisher{writer: w, now: now}
}

// PublishStatus writes a status event keyed by the order id.
func (p *StatusPublisher) PublishStatus(ctx context.Context, id string, status model.OrderStatus) error {
	payload, err := json.Marshal(StatusEvent{ID: id, Status: status, ChangedAt: p.now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal status event: %w", err)
	}
	return p.writer.WriteMessages(ctx, kafkaGo.Message{
		Key:   []byte(id),
		Value: payload,
	})
}

func (p *StatusPublisher) Close() error {
	return p.writer.Close()
}
