package customer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"customer-registry/internal/event"
	"customer-registry/internal/pkg/apperrors"
)

const customerNotFound = "Customer not found by repository"

type CreateInput struct {
	Name           string
	Gender         Gender
	BirthDate      *time.Time
	Nickname       string
	Email          string
	DocumentNumber string
	Address        string
}

// UpdateInput carries the mutable fields; id, document number and birth date never change.
type UpdateInput struct {
	Name     string
	Gender   Gender
	Nickname string
	Email    string
	Address  string
}

type CustomerService interface {
	Create(ctx context.Context, input CreateInput) (*Customer, error)
	Update(ctx context.Context, id string, input UpdateInput) (*Customer, error)
	FindByID(ctx context.Context, id string) (*Customer, error)
	Delete(ctx context.Context, id string) error
	FindAll(ctx context.Context, page PageRequest, search SearchParams) (*Page, error)
	FindByLocationNear(ctx context.Context, maxDistanceKm float64, id string) ([]NearbyCustomer, error)
}

var _ CustomerService = (*customerService)(nil)

type customerService struct {
	repo      Repository
	geocoder  Geocoder
	pub       event.EventPublisher
	listeners []SaveListener
	logger    *slog.Logger
}

// NewCustomerService wires the write path. pub may be nil; listeners run after every successful save.
func NewCustomerService(repo Repository, geocoder Geocoder, pub event.EventPublisher, logger *slog.Logger, listeners ...SaveListener) CustomerService {
	if repo == nil {
		panic("customer repository cannot be nil")
	}
	if geocoder == nil {
		panic("geocoder cannot be nil")
	}

	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerService, using default stderr handler")
	}

	if pub == nil {
		logger.Info("No event publisher provided to NewCustomerService, customer events are disabled")
	}

	return &customerService{
		repo:      repo,
		geocoder:  geocoder,
		pub:       pub,
		listeners: listeners,
		logger:    logger.With(slog.String("component", "customerService")),
	}
}

func (s *customerService) Create(ctx context.Context, input CreateInput) (*Customer, error) {
	log := s.logger.With(slog.String("documentNumber", input.DocumentNumber))
	log.InfoContext(ctx, "Attempting to create new customer")

	exists, err := s.repo.ExistsByDocumentNumber(ctx, input.DocumentNumber)
	if err != nil {
		log.ErrorContext(ctx, "Repository error checking document number", slog.Any("error", err))
		return nil, fmt.Errorf("failed to check document number: %w", err)
	}
	if exists {
		log.WarnContext(ctx, "Customer with this document number already exists")
		return nil, ErrAlreadyExists
	}

	contact, err := s.resolveContact(ctx, input.Address)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	customer := &Customer{
		ID:               NewID(),
		Name:             strings.TrimSpace(input.Name),
		Gender:           input.Gender,
		BirthDate:        input.BirthDate,
		Nickname:         strings.TrimSpace(input.Nickname),
		Email:            strings.TrimSpace(input.Email),
		DocumentNumber:   input.DocumentNumber,
		Contact:          contact,
		CreationDate:     now,
		LastModifiedDate: now,
	}

	if err := s.repo.Create(ctx, customer); err != nil {
		if errors.Is(err, ErrAlreadyExists) {
			log.WarnContext(ctx, "Store rejected duplicate document number")
			return nil, ErrAlreadyExists
		}
		log.ErrorContext(ctx, "Repository failed to save new customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save new customer: %w", err)
	}

	log = log.With(slog.String("customerID", customer.ID))
	s.notifySaved(ctx, customer)
	s.publishCreated(ctx, customer)

	log.InfoContext(ctx, "Successfully created new customer")
	return customer, nil
}

func (s *customerService) Update(ctx context.Context, id string, input UpdateInput) (*Customer, error) {
	log := s.logger.With(slog.String("customerID", id))
	log.InfoContext(ctx, "Attempting to update customer")

	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.WarnContext(ctx, "Customer not found by repository for update")
			return nil, ErrNotFound
		}
		log.ErrorContext(ctx, "Repository error finding customer for update", slog.Any("error", err))
		return nil, fmt.Errorf("cannot find customer %s to update: %w", id, err)
	}

	contact, err := s.resolveContact(ctx, input.Address)
	if err != nil {
		return nil, err
	}

	customer.Name = strings.TrimSpace(input.Name)
	customer.Gender = input.Gender
	customer.Nickname = strings.TrimSpace(input.Nickname)
	customer.Email = strings.TrimSpace(input.Email)
	customer.Contact = contact
	customer.LastModifiedDate = time.Now().UTC()

	if err := s.repo.Update(ctx, customer); err != nil {
		if errors.Is(err, ErrNotFound) {
			log.ErrorContext(ctx, "Customer disappeared before update completed")
			return nil, ErrNotFound
		}
		log.ErrorContext(ctx, "Repository failed to save updated customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to save updated customer %s: %w", id, err)
	}

	s.notifySaved(ctx, customer)
	s.publishUpdated(ctx, customer)

	log.InfoContext(ctx, "Successfully updated customer")
	return customer, nil
}

func (s *customerService) FindByID(ctx context.Context, id string) (*Customer, error) {
	log := s.logger.With(slog.String("customerID", id))

	customer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			log.WarnContext(ctx, customerNotFound)
			return nil, ErrNotFound
		}
		log.ErrorContext(ctx, "Repository error finding customer", slog.Any("error", err))
		return nil, fmt.Errorf("failed to get customer %s: %w", id, err)
	}

	log.DebugContext(ctx, "Successfully retrieved customer")
	return customer, nil
}

func (s *customerService) Delete(ctx context.Context, id string) error {
	log := s.logger.With(slog.String("customerID", id))
	log.InfoContext(ctx, "Attempting to delete customer")

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			log.WarnContext(ctx, customerNotFound)
			return ErrNotFound
		}
		log.ErrorContext(ctx, "Repository error deleting customer", slog.Any("error", err))
		return fmt.Errorf("failed to delete customer %s: %w", id, err)
	}

	// The search index entry is left in place.
	if s.pub != nil {
		evt := event.CustomerDeletedEvent{Timestamp: time.Now(), CustomerID: id}
		if err := s.pub.PublishCustomerDeleted(ctx, evt); err != nil {
			log.ErrorContext(ctx, "Customer deleted, but FAILED to publish deletion event", slog.Any("error", err))
		}
	}

	log.InfoContext(ctx, "Successfully deleted customer")
	return nil
}

func (s *customerService) FindAll(ctx context.Context, page PageRequest, search SearchParams) (*Page, error) {
	page = page.Normalize()
	filters := search.Filters()

	s.logger.DebugContext(ctx, "Calling repository FindAll",
		slog.Int("page", page.Page),
		slog.Int("size", page.Size),
		slog.Int("filters", len(filters)),
	)

	result, err := s.repo.FindAll(ctx, filters, page)
	if err != nil {
		s.logger.ErrorContext(ctx, "Repository error listing customers", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return result, nil
}

func (s *customerService) FindByLocationNear(ctx context.Context, maxDistanceKm float64, id string) ([]NearbyCustomer, error) {
	log := s.logger.With(slog.String("customerID", id), slog.Float64("maxDistanceKm", maxDistanceKm))

	if !(maxDistanceKm > 0) {
		return nil, fmt.Errorf("%w: max distance must be positive", apperrors.ErrInvalidArgument)
	}

	reference, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !reference.Contact.HasCoordinates() {
		log.WarnContext(ctx, "Reference customer has no coordinates, nothing to compare against")
		return []NearbyCustomer{}, nil
	}

	point := Coordinates{
		Latitude:  reference.Contact.Latitude(),
		Longitude: reference.Contact.Longitude(),
	}
	results, err := s.repo.FindNear(ctx, point, maxDistanceKm)
	if err != nil {
		log.ErrorContext(ctx, "Repository error running near query", slog.Any("error", err))
		return nil, fmt.Errorf("failed to find customers near %s: %w", id, err)
	}

	nearby := NearbyFromGeoResults(results)
	log.InfoContext(ctx, "Near query completed", slog.Int("matches", len(results)), slog.Int("returned", len(nearby)))
	return nearby, nil
}

func (s *customerService) resolveContact(ctx context.Context, address string) (*Contact, error) {
	address = strings.TrimSpace(address)
	coords, err := s.geocoder.Resolve(ctx, address)
	if err != nil {
		s.logger.WarnContext(ctx, "Geocoding failed", slog.String("address", address), slog.Any("error", err))
		if errors.Is(err, ErrAddressNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrAddressNotFound, err)
	}
	return NewContact(address, coords.Latitude, coords.Longitude), nil
}

func (s *customerService) notifySaved(ctx context.Context, customer *Customer) {
	for _, l := range s.listeners {
		l.OnCustomerSaved(ctx, customer)
	}
}

func (s *customerService) publishCreated(ctx context.Context, customer *Customer) {
	if s.pub == nil {
		return
	}
	evt := event.CustomerCreatedEvent{Timestamp: time.Now(), Payload: NewCustomerEventPayload(customer)}
	if err := s.pub.PublishCustomerCreated(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Customer created, but FAILED to publish creation event",
			slog.String("customerID", customer.ID), slog.Any("error", err))
	}
}

func (s *customerService) publishUpdated(ctx context.Context, customer *Customer) {
	if s.pub == nil {
		return
	}
	evt := event.CustomerUpdatedEvent{Timestamp: time.Now(), Payload: NewCustomerEventPayload(customer)}
	if err := s.pub.PublishCustomerUpdated(ctx, evt); err != nil {
		s.logger.ErrorContext(ctx, "Customer updated, but FAILED to publish update event",
			slog.String("customerID", customer.ID), slog.Any("error", err))
	}
}
