package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/contracts"
)

type published struct {
	exchange, key string
	msg           amqp.Publishing
}

type fakeChannel struct {
	declared   []string
	declareErr error
	publishErr error
	published  []published
	closed     bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.declared = append(f.declared, name+":"+kind)
	return f.declareErr
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

type failingSequences struct{}

func (failingSequences) NextSequence(context.Context, string) (int64, error) {
	return 0, errors.New("db down")
}

func sampleCart() contracts.CheckedOutCart {
	return contracts.CheckedOutCart{
		CartID:    "cart-1",
		SessionID: "sess-1",
		Snapshot: cart.Snapshot{
			Items:      []cart.LineItem{{ID: "1", Name: "Pizza", Price: decimal.RequireFromString("9.5"), Qty: 2}},
			TotalPrice: decimal.RequireFromString("19"),
			Count:      2,
		},
	}
}

func TestPublishCartCheckedOut(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newRabbitPublisher(ch, NewMemorySequences())
	require.NoError(t, err)
	require.Equal(t, []string{EventsExchange + ":topic"}, ch.declared)

	fixed := time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	md := PublishMetadata{CorrelationID: "cid-1", CausationID: "cause-1"}
	require.NoError(t, p.PublishCartCheckedOut(context.Background(), sampleCart(), md))
	require.NoError(t, p.PublishCartCheckedOut(context.Background(), sampleCart(), md))

	require.Len(t, ch.published, 2)
	first := ch.published[0]
	require.Equal(t, EventsExchange, first.exchange)
	require.Equal(t, CartCheckedOutRoutingKey, first.key)
	require.Equal(t, uint8(amqp.Persistent), first.msg.DeliveryMode)
	require.Equal(t, "application/json", first.msg.ContentType)
	require.Equal(t, "cid-1", first.msg.CorrelationId)

	var env contracts.EventEnvelope
	require.NoError(t, json.Unmarshal(first.msg.Body, &env))
	require.Equal(t, contracts.CartCheckedOutEventName, env.EventName)
	require.Equal(t, "sess-1", env.PartitionKey)
	require.Equal(t, int64(1), env.Sequence)
	require.Equal(t, "cause-1", env.CausationID)
	require.Equal(t, env.EventID, first.msg.MessageId)
	require.True(t, fixed.Equal(env.OccurredAt))
	require.Equal(t, 19.0, env.Payload.TotalAmount)

	var second contracts.EventEnvelope
	require.NoError(t, json.Unmarshal(ch.published[1].msg.Body, &second))
	require.Equal(t, int64(2), second.Sequence)

	require.NoError(t, p.Close())
	require.True(t, ch.closed)
}

func TestPublishErrors(t *testing.T) {
	_, err := newRabbitPublisher(&fakeChannel{declareErr: errors.New("access refused")}, NewMemorySequences())
	require.Error(t, err)

	p, err := newRabbitPublisher(&fakeChannel{}, failingSequences{})
	require.NoError(t, err)
	require.Error(t, p.PublishCartCheckedOut(context.Background(), sampleCart(), PublishMetadata{}))

	ch := &fakeChannel{publishErr: errors.New("channel closed")}
	p, err = newRabbitPublisher(ch, NewMemorySequences())
	require.NoError(t, err)
	require.Error(t, p.PublishCartCheckedOut(context.Background(), sampleCart(), PublishMetadata{}))
}
