package dto

import (
	"fmt"
	"strings"
	"time"

	"customer-registry/internal/domain/customer"
	"customer-registry/internal/pkg/apperrors"
)

type CreateCustomerRequest struct {
	Name           string `json:"name" validate:"required,notblank,max=120" example:"Maria Silva"`
	Gender         string `json:"gender,omitempty" validate:"omitempty,oneof=MALE FEMALE" example:"FEMALE"`
	BirthDate      string `json:"birthDate,omitempty" validate:"omitempty,birthdate" example:"1990-04-12"`
	DocumentNumber string `json:"documentNumber" validate:"required,notblank,cpf" example:"529.982.247-25"`
	Nickname       string `json:"nickname,omitempty" validate:"max=120" example:"Mari"`
	Email          string `json:"email" validate:"required,notblank,max=80,email" example:"maria@example.com"`
	Address        string `json:"address" validate:"required,notblank" example:"Av. Paulista, 1000, Sao Paulo"`
}

func (r *CreateCustomerRequest) Validate() error {
	return validateStruct(r)
}

// ToInput assumes Validate passed.
func (r *CreateCustomerRequest) ToInput() (customer.CreateInput, error) {
	input := customer.CreateInput{
		Name:           r.Name,
		Gender:         customer.Gender(r.Gender),
		Nickname:       r.Nickname,
		Email:          r.Email,
		DocumentNumber: NormalizeDocumentNumber(r.DocumentNumber),
		Address:        r.Address,
	}
	if r.BirthDate != "" {
		birthDate, err := time.Parse(customer.BirthDateLayout, r.BirthDate)
		if err != nil {
			return customer.CreateInput{}, apperrors.NewValidationError("birthDate", "must use the yyyy-MM-dd format")
		}
		input.BirthDate = &birthDate
	}
	return input, nil
}

type UpdateCustomerRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=120" example:"Maria Silva"`
	Gender   string `json:"gender,omitempty" validate:"omitempty,oneof=MALE FEMALE" example:"FEMALE"`
	Nickname string `json:"nickname,omitempty" validate:"max=120" example:"Mari"`
	Email    string `json:"email" validate:"required,notblank,max=80,email" example:"maria@example.com"`
	Address  string `json:"address" validate:"required,notblank" example:"Rua Augusta, 500, Sao Paulo"`
}

func (r *UpdateCustomerRequest) Validate() error {
	return validateStruct(r)
}

func (r *UpdateCustomerRequest) ToInput() customer.UpdateInput {
	return customer.UpdateInput{
		Name:     r.Name,
		Gender:   customer.Gender(r.Gender),
		Nickname: r.Nickname,
		Email:    r.Email,
		Address:  r.Address,
	}
}

type ContactResponse struct {
	Address     string    `json:"address"`
	Coordinates []float64 `json:"coordinates,omitempty"`
	Type        string    `json:"type"`
}

type CustomerResponse struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Gender           string           `json:"gender,omitempty"`
	BirthDate        string           `json:"birthDate,omitempty"`
	Nickname         string           `json:"nickname,omitempty"`
	Email            string           `json:"email"`
	DocumentNumber   string           `json:"documentNumber"`
	Contact          *ContactResponse `json:"contact,omitempty"`
	CreationDate     time.Time        `json:"creationDate"`
	LastModifiedDate time.Time        `json:"lastModifiedDate"`
}

func NewCustomerResponse(cust *customer.Customer) CustomerResponse {
	if cust == nil {
		return CustomerResponse{}
	}

	resp := CustomerResponse{
		ID:               cust.ID,
		Name:             cust.Name,
		Gender:           string(cust.Gender),
		BirthDate:        cust.BirthDateString(),
		Nickname:         cust.Nickname,
		Email:            cust.Email,
		DocumentNumber:   cust.DocumentNumber,
		CreationDate:     cust.CreationDate,
		LastModifiedDate: cust.LastModifiedDate,
	}
	if cust.Contact != nil {
		resp.Contact = &ContactResponse{
			Address:     cust.Contact.Address,
			Coordinates: cust.Contact.Coordinates,
			Type:        cust.Contact.Type,
		}
	}
	return resp
}

// CustomerDistanceResponse is a customer plus its distance in km from the reference customer.
type CustomerDistanceResponse struct {
	CustomerResponse
	Distance string `json:"distance" example:"1.235"`
}

func NewCustomerDistanceResponses(nearby []customer.NearbyCustomer) []CustomerDistanceResponse {
	resp := make([]CustomerDistanceResponse, 0, len(nearby))
	for _, n := range nearby {
		resp = append(resp, CustomerDistanceResponse{
			CustomerResponse: NewCustomerResponse(n.Customer),
			Distance:         n.Distance,
		})
	}
	return resp
}

type PageResponse struct {
	Content       []CustomerResponse `json:"content"`
	Page          int                `json:"page"`
	Size          int                `json:"size"`
	TotalElements int64              `json:"totalElements"`
	TotalPages    int                `json:"totalPages"`
}

func NewPageResponse(page *customer.Page) PageResponse {
	content := make([]CustomerResponse, 0, len(page.Content))
	for _, c := range page.Content {
		content = append(content, NewCustomerResponse(c))
	}
	return PageResponse{
		Content:       content,
		Page:          page.Page,
		Size:          page.Size,
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages(),
	}
}

// ParseSort reads "field" or "field,dir"; direction defaults to asc.
func ParseSort(value string) (customer.Sort, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return customer.Sort{}, nil
	}

	field, dir, _ := strings.Cut(value, ",")
	field = strings.TrimSpace(field)
	if !customer.IsSortableField(field) {
		return customer.Sort{}, fmt.Errorf("%w: unsupported sort field %q", apperrors.ErrInvalidArgument, field)
	}

	switch strings.ToLower(strings.TrimSpace(dir)) {
	case "", string(customer.SortAsc):
		return customer.Sort{Field: field, Direction: customer.SortAsc}, nil
	case string(customer.SortDesc):
		return customer.Sort{Field: field, Direction: customer.SortDesc}, nil
	default:
		return customer.Sort{}, fmt.Errorf("%w: unsupported sort direction %q", apperrors.ErrInvalidArgument, dir)
	}
}
