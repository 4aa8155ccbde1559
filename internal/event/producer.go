package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/utafrali/storefront/pkg/kafka"
	"github.com/utafrali/storefront/pkg/logger"
)

// Kafka topic constants for storefront events.
const (
	TopicCartUpdated     = "storefront.cart.updated"
	TopicWishlistUpdated = "storefront.wishlist.updated"
)

// Aggregate type constants.
const (
	AggregateTypeCart     = "cart"
	AggregateTypeWishlist = "wishlist"
)

// SourceStorefront identifies events published by this service.
const SourceStorefront = "storefront"

// Cart actions.
const (
	CartActionAdded           = "added"
	CartActionIncremented     = "incremented"
	CartActionQuantitySet     = "quantity_set"
	CartActionRemoved         = "removed"
	WishlistActionAdded       = "added"
	WishlistActionRemoved     = "removed"
	WishlistActionMovedToCart = "moved_to_cart"
)

// CartUpdatedData is the payload for a cart.updated event.
type CartUpdatedData struct {
	UserID    string `json:"user_id"`
	LineID    string `json:"line_id"`
	ProductID string `json:"product_id,omitempty"`
	Quantity  int    `json:"quantity"`
	Action    string `json:"action"`
}

// WishlistUpdatedData is the payload for a wishlist.updated event.
type WishlistUpdatedData struct {
	UserID    string `json:"user_id"`
	ProductID string `json:"product_id"`
	Action    string `json:"action"`
}

// Publisher publishes line-item events. Callers treat failures as
// non-fatal.
type Publisher interface {
	PublishCartUpdated(ctx context.Context, data CartUpdatedData) error
	PublishWishlistUpdated(ctx context.Context, data WishlistUpdatedData) error
}

// Producer publishes storefront events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

var _ Publisher = (*Producer)(nil)

// NewProducer creates a new event producer.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishCartUpdated publishes a cart.updated event keyed by user id.
func (p *Producer) PublishCartUpdated(ctx context.Context, data CartUpdatedData) error {
	return p.publish(ctx, TopicCartUpdated, data.UserID, AggregateTypeCart, data.Action, data)
}

// PublishWishlistUpdated publishes a wishlist.updated event keyed by user id.
func (p *Producer) PublishWishlistUpdated(ctx context.Context, data WishlistUpdatedData) error {
	return p.publish(ctx, TopicWishlistUpdated, data.UserID, AggregateTypeWishlist, data.Action, data)
}

func (p *Producer) publish(ctx context.Context, topic, userID, aggregateType, action string, data any) error {
	event, err := pkgkafka.NewEvent(topic, userID, aggregateType, SourceStorefront, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	event.WithMetadata("action", action)
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		event.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, event); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published storefront event",
		slog.String("topic", topic),
		slog.String("user_id", userID),
	)
	return nil
}

// Noop drops every event. Used when no brokers are configured.
type Noop struct{}

var _ Publisher = Noop{}

// PublishCartUpdated implements Publisher.
func (Noop) PublishCartUpdated(context.Context, CartUpdatedData) error { return nil }

// PublishWishlistUpdated implements Publisher.
func (Noop) PublishWishlistUpdated(context.Context, WishlistUpdatedData) error { return nil }
