package events

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange           = "storefront.events"
	CartCheckedOutRoutingKey = "cart.checkedout.v1"
)

func declareEventsExchange(ch amqpChannel) error {
	return ch.ExchangeDeclare(
		EventsExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}

// amqpChannel is the part of *amqp.Channel the publisher uses.
type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}
