package contracts

import (
	"time"

	"github.com/google/uuid"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
)

const (
	CartCheckedOutEventName           = "CartCheckedOut"
	CartCheckedOutEventVersion        = 1
	CartCheckedOutEnvelopedSchemaPath = "contracts/events/cart/CartCheckedOut.v1.enveloped.schema.json"
	StorefrontProducer                = "storefront-go"
)

// CheckedOutCart is the cart handed to checkout: a fresh cart id, the owning
// session and the snapshot taken at confirmation.
type CheckedOutCart struct {
	CartID    string
	SessionID string
	Snapshot  cart.Snapshot
}

type EventEnvelope struct {
	EventName     string                `json:"eventName"`
	EventVersion  int                   `json:"eventVersion"`
	EventID       string                `json:"eventId"`
	CorrelationID string                `json:"correlationId,omitempty"`
	CausationID   string                `json:"causationId,omitempty"`
	Producer      string                `json:"producer"`
	PartitionKey  string                `json:"partitionKey"`
	Sequence      int64                 `json:"sequence"`
	OccurredAt    time.Time             `json:"occurredAt"`
	Schema        string                `json:"schema"`
	Payload       CartCheckedOutPayload `json:"payload"`
}

type CartCheckedOutPayload struct {
	CartID      string               `json:"cartId"`
	SessionID   string               `json:"sessionId"`
	Items       []CartCheckedOutItem `json:"items"`
	ItemCount   int                  `json:"itemCount"`
	TotalAmount float64              `json:"totalAmount"`
	Timestamp   time.Time            `json:"timestamp"`
}

// CartCheckedOutItem keeps the productId/quantity/price shape the order
// service consumes.
type CartCheckedOutItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type EnvelopeOptions struct {
	Sequence      int64
	Producer      string
	SchemaPath    string
	CorrelationID string
	CausationID   string
	EventID       string
	OccurredAt    time.Time
}

// BuildCartCheckedOutEvent wraps c in a v1 envelope partitioned by session.
func BuildCartCheckedOutEvent(c CheckedOutCart, opts EnvelopeOptions) EventEnvelope {
	eventID := opts.EventID
	if eventID == "" {
		eventID = uuid.NewString()
	}

	occurredAt := opts.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	schemaPath := opts.SchemaPath
	if schemaPath == "" {
		schemaPath = CartCheckedOutEnvelopedSchemaPath
	}

	producer := opts.Producer
	if producer == "" {
		producer = StorefrontProducer
	}

	payload := CartCheckedOutPayload{
		CartID:      c.CartID,
		SessionID:   c.SessionID,
		Items:       make([]CartCheckedOutItem, 0, len(c.Snapshot.Items)),
		ItemCount:   c.Snapshot.Count,
		TotalAmount: c.Snapshot.TotalPrice.InexactFloat64(),
		Timestamp:   occurredAt,
	}

	for _, it := range c.Snapshot.Items {
		payload.Items = append(payload.Items, CartCheckedOutItem{
			ProductID: it.ID,
			Name:      it.Name,
			Quantity:  it.Qty,
			Price:     it.Price.InexactFloat64(),
		})
	}

	return EventEnvelope{
		EventName:     CartCheckedOutEventName,
		EventVersion:  CartCheckedOutEventVersion,
		EventID:       eventID,
		CorrelationID: opts.CorrelationID,
		CausationID:   opts.CausationID,
		Producer:      producer,
		PartitionKey:  c.SessionID,
		Sequence:      opts.Sequence,
		OccurredAt:    occurredAt,
		Schema:        schemaPath,
		Payload:       payload,
	}
}
