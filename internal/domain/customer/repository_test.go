package customer

import (
	"context"

	"customer-registry/internal/event"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (_m *MockRepository) ExistsByDocumentNumber(ctx context.Context, documentNumber string) (bool, error) {
	ret := _m.Called(ctx, documentNumber)
	return ret.Bool(0), ret.Error(1)
}

func (_m *MockRepository) Create(ctx context.Context, customer *Customer) error {
	ret := _m.Called(ctx, customer)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, *Customer) error); ok {
		r0 = rf(ctx, customer)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

func (_m *MockRepository) Update(ctx context.Context, customer *Customer) error {
	ret := _m.Called(ctx, customer)

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context, *Customer) error); ok {
		r0 = rf(ctx, customer)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

func (_m *MockRepository) FindByID(ctx context.Context, id string) (*Customer, error) {
	ret := _m.Called(ctx, id)

	var r0 *Customer
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Customer)
	}

	return r0, ret.Error(1)
}

func (_m *MockRepository) Delete(ctx context.Context, id string) error {
	ret := _m.Called(ctx, id)
	return ret.Error(0)
}

func (_m *MockRepository) FindAll(ctx context.Context, filters []Filter, page PageRequest) (*Page, error) {
	ret := _m.Called(ctx, filters, page)

	var r0 *Page
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*Page)
	}

	return r0, ret.Error(1)
}

func (_m *MockRepository) FindNear(ctx context.Context, point Coordinates, radiusKm float64) ([]GeoResult, error) {
	ret := _m.Called(ctx, point, radiusKm)

	var r0 []GeoResult
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]GeoResult)
	}

	return r0, ret.Error(1)
}

type MockSearchIndex struct {
	mock.Mock
}

func (_m *MockSearchIndex) Upsert(ctx context.Context, doc SearchDocument) error {
	ret := _m.Called(ctx, doc)
	return ret.Error(0)
}

type MockGeocoder struct {
	mock.Mock
}

func (_m *MockGeocoder) Resolve(ctx context.Context, address string) (Coordinates, error) {
	ret := _m.Called(ctx, address)
	return ret.Get(0).(Coordinates), ret.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (_m *MockEventPublisher) PublishCustomerCreated(ctx context.Context, evt event.CustomerCreatedEvent) error {
	return _m.Called(ctx, evt).Error(0)
}

func (_m *MockEventPublisher) PublishCustomerUpdated(ctx context.Context, evt event.CustomerUpdatedEvent) error {
	return _m.Called(ctx, evt).Error(0)
}

func (_m *MockEventPublisher) PublishCustomerDeleted(ctx context.Context, evt event.CustomerDeletedEvent) error {
	return _m.Called(ctx, evt).Error(0)
}

var (
	_ Repository           = (*MockRepository)(nil)
	_ SearchIndex          = (*MockSearchIndex)(nil)
	_ Geocoder             = (*MockGeocoder)(nil)
	_ event.EventPublisher = (*MockEventPublisher)(nil)
)
