package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"customer-registry/internal/domain/customer"
	"customer-registry/internal/event"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSynchronizer struct {
	mock.Mock
}

func (m *MockSynchronizer) Sync(ctx context.Context, c *customer.Customer) error {
	return m.Called(ctx, c).Error(0)
}

// recordingAcknowledger captures how a delivery was settled.
type recordingAcknowledger struct {
	acked    bool
	nacked   bool
	requeue  bool
	rejected bool
}

func (a *recordingAcknowledger) Ack(tag uint64, multiple bool) error {
	a.acked = true
	return nil
}

func (a *recordingAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	a.nacked = true
	a.requeue = requeue
	return nil
}

func (a *recordingAcknowledger) Reject(tag uint64, requeue bool) error {
	a.rejected = true
	a.requeue = requeue
	return nil
}

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

func delivery(t *testing.T, routingKey string, body any) (amqp.Delivery, *recordingAcknowledger) {
	t.Helper()
	var raw []byte
	switch b := body.(type) {
	case []byte:
		raw = b
	default:
		var err error
		raw, err = json.Marshal(b)
		require.NoError(t, err)
	}
	ack := &recordingAcknowledger{}
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, RoutingKey: routingKey, Body: raw}, ack
}

func samplePayload() event.CustomerEventPayload {
	lat, lng := -23.5614, -46.6559
	return event.CustomerEventPayload{
		CustomerID:     "0190a1b2-0000-7000-8000-000000000001",
		Name:           "Ana",
		Gender:         "FEMALE",
		BirthDate:      "1990-04-12",
		Email:          "ana@example.com",
		DocumentNumber: "52998224725",
		Address:        "Av. Paulista, 1000",
		Latitude:       &lat,
		Longitude:      &lng,
	}
}

func TestCustomerEventHandler_HandleDelivery(t *testing.T) {
	ctx := context.Background()

	t.Run("Created event is synced and acked", func(t *testing.T) {
		sync := new(MockSynchronizer)
		sync.On("Sync", ctx, mock.MatchedBy(func(c *customer.Customer) bool {
			return c.ID == "0190a1b2-0000-7000-8000-000000000001" && c.BirthDateString() == "1990-04-12" && c.Contact.HasCoordinates()
		})).Return(nil).Once()

		d, ack := delivery(t, event.RoutingKeyCustomerCreated, event.CustomerCreatedEvent{Timestamp: time.Now(), Payload: samplePayload()})
		NewCustomerEventHandler(sync, logger).HandleDelivery(ctx, d)

		assert.True(t, ack.acked)
		assert.False(t, ack.nacked)
		sync.AssertExpectations(t)
	})

	t.Run("Updated event is synced and acked", func(t *testing.T) {
		sync := new(MockSynchronizer)
		sync.On("Sync", ctx, mock.Anything).Return(nil).Once()

		d, ack := delivery(t, event.RoutingKeyCustomerUpdated, event.CustomerUpdatedEvent{Timestamp: time.Now(), Payload: samplePayload()})
		NewCustomerEventHandler(sync, logger).HandleDelivery(ctx, d)

		assert.True(t, ack.acked)
		sync.AssertExpectations(t)
	})

	t.Run("Index failure requeues", func(t *testing.T) {
		sync := new(MockSynchronizer)
		sync.On("Sync", ctx, mock.Anything).Return(errors.New("index unavailable")).Once()

		d, ack := delivery(t, event.RoutingKeyCustomerCreated, event.CustomerCreatedEvent{Payload: samplePayload()})
		NewCustomerEventHandler(sync, logger).HandleDelivery(ctx, d)

		assert.False(t, ack.acked)
		assert.True(t, ack.nacked)
		assert.True(t, ack.requeue)
	})

	t.Run("Malformed body is dropped", func(t *testing.T) {
		sync := new(MockSynchronizer)

		d, ack := delivery(t, event.RoutingKeyCustomerCreated, []byte("{not json"))
		NewCustomerEventHandler(sync, logger).HandleDelivery(ctx, d)

		assert.True(t, ack.nacked)
		assert.False(t, ack.requeue)
		sync.AssertNotCalled(t, "Sync", mock.Anything, mock.Anything)
	})

	t.Run("Payload without id is dropped", func(t *testing.T) {
		sync := new(MockSynchronizer)
		payload := samplePayload()
		payload.CustomerID = ""

		d, ack := delivery(t, event.RoutingKeyCustomerUpdated, event.CustomerUpdatedEvent{Payload: payload})
		NewCustomerEventHandler(sync, logger).HandleDelivery(ctx, d)

		assert.True(t, ack.nacked)
		assert.False(t, ack.requeue)
		sync.AssertNotCalled(t, "Sync", mock.Anything, mock.Anything)
	})

	t.Run("Unknown routing key is rejected", func(t *testing.T) {
		sync := new(MockSynchronizer)

		d, ack := delivery(t, event.RoutingKeyCustomerDeleted, event.CustomerDeletedEvent{CustomerID: "x"})
		NewCustomerEventHandler(sync, logger).HandleDelivery(ctx, d)

		assert.True(t, ack.rejected)
		assert.False(t, ack.requeue)
	})
}
