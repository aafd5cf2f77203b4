package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"customer-registry/internal/api/handler/dto"
	"customer-registry/internal/domain/customer"
	"customer-registry/internal/pkg/apperrors"

	"github.com/go-chi/chi/v5"
)

// DefaultMaxDistanceKm applies when the nearby query omits maxDistance.
const DefaultMaxDistanceKm = 200

type CustomerHandler struct {
	service customer.CustomerService
	logger  *slog.Logger
}

func NewCustomerHandler(s customer.CustomerService, l *slog.Logger) *CustomerHandler {
	if s == nil {
		panic("customer service cannot be nil")
	}
	if l == nil {
		panic("logger cannot be nil")
	}
	return &CustomerHandler{
		service: s,
		logger:  l.With("component", "CustomerHandler"),
	}
}

func getCustomerIDFromURL(r *http.Request) (string, error) {
	id := chi.URLParam(r, "customerID")
	if id == "" {
		return "", fmt.Errorf("%w: customerID not found in URL path", apperrors.ErrInvalidArgument)
	}
	if !customer.IsValidID(id) {
		return "", fmt.Errorf("%w: invalid customerID format in URL path: %s", apperrors.ErrInvalidArgument, id)
	}
	return id, nil
}

func (h *CustomerHandler) logServiceError(r *http.Request, msg string, err error) {
	level := slog.LevelWarn
	if !errors.Is(err, apperrors.ErrNotFound) &&
		!errors.Is(err, apperrors.ErrAlreadyExists) &&
		!errors.Is(err, apperrors.ErrAddressNotFound) &&
		!errors.Is(err, apperrors.ErrInvalidArgument) {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, msg, slog.Any("error", err))
}

// CreateCustomer handles POST /customers
// @Summary Create a new customer
// @Description Creates a customer, resolving the address to coordinates. The document number must be unique.
// @Tags Customers
// @Accept json
// @Produce json
// @Param request body dto.CreateCustomerRequest true "Customer creation request"
// @Success 201 {object} dto.CustomerResponse "Customer successfully created"
// @Failure 400 {object} dto.ErrorResponse "Invalid payload value(s)"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 409 {object} dto.ErrorResponse "Customer already exists"
// @Failure 422 {object} dto.ErrorResponse "Address not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers [post]
// @Security BearerAuth
func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	h.logger.DebugContext(r.Context(), "Received create customer request")

	var req dto.CreateCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(r.Context(), "Validation failed", slog.Any("error", err))
		respondError(w, err)
		return
	}
	input, err := req.ToInput()
	if err != nil {
		respondError(w, err)
		return
	}

	created, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.logServiceError(r, "Service failed to create customer", err)
		respondError(w, err)
		return
	}

	resp := dto.NewCustomerResponse(created)
	h.logger.InfoContext(r.Context(), "Customer created successfully", slog.String("customerID", resp.ID))
	respondJSON(w, http.StatusCreated, resp)
}

// UpdateCustomer handles PUT /customers/{customerID}
// @Summary Update a customer
// @Description Replaces the mutable fields of a customer and resolves the new address.
// @Tags Customers
// @Accept json
// @Produce json
// @Param customerID path string true "Customer ID" Format(uuid)
// @Param request body dto.UpdateCustomerRequest true "Customer update request"
// @Success 202 {object} dto.CustomerResponse "Customer updated"
// @Failure 400 {object} dto.ErrorResponse "Invalid id value or payload value(s)"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 422 {object} dto.ErrorResponse "Address not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers/{customerID} [put]
// @Security BearerAuth
func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := getCustomerIDFromURL(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get customer ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	var req dto.UpdateCustomerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.Any("error", err))
		respondError(w, fmt.Errorf("%w: %v", apperrors.ErrInvalidArgument, err))
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(r.Context(), "Validation failed", slog.Any("error", err))
		respondError(w, err)
		return
	}

	updated, err := h.service.Update(r.Context(), customerID, req.ToInput())
	if err != nil {
		h.logServiceError(r, "Service failed to update customer", err)
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Customer updated successfully", slog.String("customerID", customerID))
	respondJSON(w, http.StatusAccepted, dto.NewCustomerResponse(updated))
}

// GetCustomer handles GET /customers/{customerID}
// @Summary Retrieve customer details
// @Description Retrieves a customer by id.
// @Tags Customers
// @Produce json
// @Param customerID path string true "Customer ID" Format(uuid)
// @Success 200 {object} dto.CustomerResponse "Customer details retrieved"
// @Failure 400 {object} dto.ErrorResponse "Invalid id value"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers/{customerID} [get]
// @Security BearerAuth
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := getCustomerIDFromURL(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get customer ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	found, err := h.service.FindByID(r.Context(), customerID)
	if err != nil {
		h.logServiceError(r, "Service failed to get customer", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewCustomerResponse(found))
}

// DeleteCustomer handles DELETE /customers/{customerID}
// @Summary Delete a customer
// @Description Removes a customer from the primary store.
// @Tags Customers
// @Produce json
// @Param customerID path string true "Customer ID" Format(uuid)
// @Success 202 "Customer deleted"
// @Failure 400 {object} dto.ErrorResponse "Invalid id value"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers/{customerID} [delete]
// @Security BearerAuth
func (h *CustomerHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	customerID, err := getCustomerIDFromURL(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get customer ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), customerID); err != nil {
		h.logServiceError(r, "Service failed to delete customer", err)
		respondError(w, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Customer deleted successfully", slog.String("customerID", customerID))
	w.WriteHeader(http.StatusAccepted)
}

// ListCustomers handles GET /customers
// @Summary List customers
// @Description Returns one page of customers, optionally filtered by exact name and document number.
// @Tags Customers
// @Produce json
// @Param page query int false "Zero-based page index" default(0)
// @Param size query int false "Page size" default(20) maximum(100)
// @Param sort query string false "field,direction" example(name,asc)
// @Param name query string false "Exact customer name"
// @Param documentNumber query string false "Exact document number"
// @Success 200 {object} dto.PageResponse "Page of customers"
// @Failure 400 {object} dto.ErrorResponse "Invalid parameter value was sent"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 500 {object} dto.ErrorResponse "An unexpected error occurred"
// @Router /customers [get]
// @Security BearerAuth
func (h *CustomerHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, err := parseIntParam(query.Get("page"), "page")
	if err != nil {
		respondError(w, err)
		return
	}
	size, err := parseIntParam(query.Get("size"), "size")
	if err != nil {
		respondError(w, err)
		return
	}
	sort, err := dto.ParseSort(query.Get("sort"))
	if err != nil {
		respondError(w, err)
		return
	}

	rawDocument := strings.TrimSpace(query.Get("documentNumber"))
	search := customer.SearchParams{
		Name:           strings.TrimSpace(query.Get("name")),
		DocumentNumber: dto.NormalizeDocumentNumber(rawDocument),
	}
	if rawDocument != "" && search.DocumentNumber == "" {
		respondError(w, fmt.Errorf("%w: documentNumber must contain digits: %s", apperrors.ErrInvalidArgument, rawDocument))
		return
	}

	result, err := h.service.FindAll(r.Context(), customer.PageRequest{Page: page, Size: size, Sort: sort}, search)
	if err != nil {
		h.logServiceError(r, "Service failed to list customers", err)
		respondError(w, err)
		return
	}

	resp := dto.NewPageResponse(result)
	h.logger.InfoContext(r.Context(), "Customers listed successfully", slog.Int("count", len(resp.Content)))
	respondJSON(w, http.StatusOK, resp)
}

// FindNearbyCustomers handles GET /customers/{customerID}/nearby
// @Summary Find customers near another customer
// @Description Lists customers within maxDistance km of the reference customer, closest first. The reference itself is excluded.
// @Tags Customers
// @Produce json
// @Param customerID path string true "Reference customer ID" Format(uuid)
// @Param maxDistance query number false "Radius in kilometers" default(200)
// @Success 200 {array} dto.CustomerDistanceResponse "Nearby customers"
// @Failure 400 {object} dto.ErrorResponse "Invalid id or distance value"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 404 {object} dto.ErrorResponse "Customer not found"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /customers/{customerID}/nearby [get]
// @Security BearerAuth
func (h *CustomerHandler) FindNearbyCustomers(w http.ResponseWriter, r *http.Request) {
	customerID, err := getCustomerIDFromURL(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Failed to get customer ID from URL", slog.Any("error", err))
		respondError(w, err)
		return
	}

	maxDistance := float64(DefaultMaxDistanceKm)
	if raw := r.URL.Query().Get("maxDistance"); raw != "" {
		maxDistance, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			respondError(w, fmt.Errorf("%w: invalid maxDistance: %s", apperrors.ErrInvalidArgument, raw))
			return
		}
	}

	nearby, err := h.service.FindByLocationNear(r.Context(), maxDistance, customerID)
	if err != nil {
		h.logServiceError(r, "Service failed to find nearby customers", err)
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, dto.NewCustomerDistanceResponses(nearby))
}

func parseIntParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: invalid %s: %s", apperrors.ErrInvalidArgument, name, raw)
	}
	return v, nil
}
