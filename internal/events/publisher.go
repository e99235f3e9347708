package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/contracts"
)

// PublishMetadata carries correlation/causation context for emitted events.
type PublishMetadata struct {
	CorrelationID string
	CausationID   string
}

type SequenceRepository interface {
	NextSequence(ctx context.Context, partitionKey string) (int64, error)
}

type RabbitCartEventsPublisher struct {
	ch        amqpChannel
	sequences SequenceRepository
	now       func() time.Time
}

func NewRabbitCartEventsPublisher(conn *amqp.Connection, sequences SequenceRepository) (*RabbitCartEventsPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	p, err := newRabbitPublisher(ch, sequences)
	if err != nil {
		_ = ch.Close()
		return nil, err
	}
	return p, nil
}

func newRabbitPublisher(ch amqpChannel, sequences SequenceRepository) (*RabbitCartEventsPublisher, error) {
	// Declare the exchange so publish never fails due to missing infra
	if err := declareEventsExchange(ch); err != nil {
		return nil, fmt.Errorf("declare %s: %w", EventsExchange, err)
	}
	return &RabbitCartEventsPublisher{
		ch:        ch,
		sequences: sequences,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (p *RabbitCartEventsPublisher) PublishCartCheckedOut(ctx context.Context, c contracts.CheckedOutCart, md PublishMetadata) error {
	seq, err := p.sequences.NextSequence(ctx, c.SessionID)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	env := contracts.BuildCartCheckedOutEvent(c, contracts.EnvelopeOptions{
		Sequence:      seq,
		CorrelationID: md.CorrelationID,
		CausationID:   md.CausationID,
		OccurredAt:    p.now(),
	})

	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal CartCheckedOut: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		CartCheckedOutRoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:   "application/json",
			DeliveryMode:  amqp.Persistent,
			MessageId:     env.EventID,
			CorrelationId: md.CorrelationID,
			Timestamp:     env.OccurredAt,
			Type:          contracts.CartCheckedOutEventName,
			Body:          body,
		},
	)
}

func (p *RabbitCartEventsPublisher) Close() error {
	return p.ch.Close()
}

// LogPublisher stands in for RabbitMQ when no broker is configured.
type LogPublisher struct {
	Logger *zap.Logger
}

func (p LogPublisher) PublishCartCheckedOut(ctx context.Context, c contracts.CheckedOutCart, md PublishMetadata) error {
	p.Logger.Info("cart checked out (no broker configured)",
		zap.String("cart_id", c.CartID),
		zap.String("session_id", c.SessionID),
		zap.Int("items", len(c.Snapshot.Items)),
		zap.String("total", c.Snapshot.TotalPrice.String()),
		zap.String("correlation_id", md.CorrelationID))
	return nil
}

func (LogPublisher) Close() error { return nil }
