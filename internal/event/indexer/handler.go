package indexer

import (
	"context"
	"encoding/json"
	"log/slog"

	"customer-registry/internal/domain/customer"
	"customer-registry/internal/event"
	"customer-registry/internal/infrastructure/monitoring"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RoutingKeys are the events that carry a saved customer.
var RoutingKeys = []string{event.RoutingKeyCustomerCreated, event.RoutingKeyCustomerUpdated}

type Synchronizer interface {
	Sync(ctx context.Context, c *customer.Customer) error
}

// CustomerEventHandler applies created and updated events to the search index.
type CustomerEventHandler struct {
	sync   Synchronizer
	logger *slog.Logger
}

func NewCustomerEventHandler(sync Synchronizer, logger *slog.Logger) *CustomerEventHandler {
	return &CustomerEventHandler{
		sync:   sync,
		logger: logger.With("component", "CustomerEventHandler"),
	}
}

// HandleDelivery acks on success, drops malformed messages, and requeues when the index is unavailable.
func (h *CustomerEventHandler) HandleDelivery(ctx context.Context, d amqp.Delivery) {
	logCtx := h.logger.With(slog.Uint64("deliveryTag", d.DeliveryTag), slog.String("routingKey", d.RoutingKey))
	processed := false

	defer func() {
		if !processed {
			logCtx.WarnContext(ctx, "Message processing ended without explicit Ack/Nack")
			_ = d.Nack(false, false)
		}
	}()

	var payload event.CustomerEventPayload

	switch d.RoutingKey {
	case event.RoutingKeyCustomerCreated:
		var evt event.CustomerCreatedEvent
		if err := json.Unmarshal(d.Body, &evt); err != nil {
			logCtx.ErrorContext(ctx, "Failed to unmarshal CustomerCreatedEvent", "error", err, "body", string(d.Body))
			h.reject(d, &processed)
			return
		}
		payload = evt.Payload
	case event.RoutingKeyCustomerUpdated:
		var evt event.CustomerUpdatedEvent
		if err := json.Unmarshal(d.Body, &evt); err != nil {
			logCtx.ErrorContext(ctx, "Failed to unmarshal CustomerUpdatedEvent", "error", err, "body", string(d.Body))
			h.reject(d, &processed)
			return
		}
		payload = evt.Payload
	default:
		logCtx.WarnContext(ctx, "Received message with unknown routing key. Discarding.")
		monitoring.RecordEventConsumed(d.RoutingKey, monitoring.ResultFailure)
		_ = d.Reject(false)
		processed = true
		return
	}

	cust, err := customer.CustomerFromEventPayload(payload)
	if err != nil {
		logCtx.ErrorContext(ctx, "Event payload does not describe a customer", "error", err)
		h.reject(d, &processed)
		return
	}

	logCtx = logCtx.With(slog.String("customerID", cust.ID))
	logCtx.InfoContext(ctx, "Processing event for customer")
	if err := h.sync.Sync(ctx, cust); err != nil {
		logCtx.ErrorContext(ctx, "Failed to sync customer to search index, requeueing", "error", err)
		monitoring.RecordEventConsumed(d.RoutingKey, monitoring.ResultFailure)
		_ = d.Nack(false, true)
		processed = true
		return
	}

	monitoring.RecordEventConsumed(d.RoutingKey, monitoring.ResultSuccess)
	if err := d.Ack(false); err != nil {
		logCtx.ErrorContext(ctx, "Failed to acknowledge message after successful processing", "error", err)
	} else {
		logCtx.InfoContext(ctx, "Successfully processed and acknowledged message")
	}
	processed = true
}

func (h *CustomerEventHandler) reject(d amqp.Delivery, processed *bool) {
	monitoring.RecordEventConsumed(d.RoutingKey, monitoring.ResultFailure)
	_ = d.Nack(false, false)
	*processed = true
}
