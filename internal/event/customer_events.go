package event

import (
	"context"
	"time"
)

const (
	RoutingKeyCustomerCreated = "customer.created"
	RoutingKeyCustomerUpdated = "customer.updated"
	RoutingKeyCustomerDeleted = "customer.deleted"
)

// CustomerEventPayload carries the full saved record so consumers never read back from the store.
type CustomerEventPayload struct {
	CustomerID       string    `json:"customerId"`
	Name             string    `json:"name"`
	Gender           string    `json:"gender,omitempty"`
	BirthDate        string    `json:"birthDate,omitempty"`
	Nickname         string    `json:"nickname,omitempty"`
	Email            string    `json:"email"`
	DocumentNumber   string    `json:"documentNumber"`
	Address          string    `json:"address,omitempty"`
	Latitude         *float64  `json:"latitude,omitempty"`
	Longitude        *float64  `json:"longitude,omitempty"`
	CreationDate     time.Time `json:"creationDate"`
	LastModifiedDate time.Time `json:"lastModifiedDate"`
}

type CustomerCreatedEvent struct {
	Timestamp time.Time            `json:"timestamp"`
	Payload   CustomerEventPayload `json:"payload"`
}

type CustomerUpdatedEvent struct {
	Timestamp time.Time            `json:"timestamp"`
	Payload   CustomerEventPayload `json:"payload"`
}

type CustomerDeletedEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	CustomerID string    `json:"customerId"`
}

func (p *RabbitMQEventPublisher) PublishCustomerCreated(ctx context.Context, event CustomerCreatedEvent) error {
	return p.publish(ctx, RoutingKeyCustomerCreated, event)
}

func (p *RabbitMQEventPublisher) PublishCustomerUpdated(ctx context.Context, event CustomerUpdatedEvent) error {
	return p.publish(ctx, RoutingKeyCustomerUpdated, event)
}

func (p *RabbitMQEventPublisher) PublishCustomerDeleted(ctx context.Context, event CustomerDeletedEvent) error {
	return p.publish(ctx, RoutingKeyCustomerDeleted, event)
}

var _ EventPublisher = (*RabbitMQEventPublisher)(nil)
