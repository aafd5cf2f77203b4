package customer

import (
	"time"

	"github.com/google/uuid"
)

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
)

const PointType = "Point"

// BirthDateLayout is the ISO-8601 calendar date used for birth dates everywhere.
const BirthDateLayout = "2006-01-02"

type Customer struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Gender           Gender     `json:"gender,omitempty"`
	BirthDate        *time.Time `json:"birthDate,omitempty"`
	Nickname         string     `json:"nickname,omitempty"`
	Email            string     `json:"email"`
	DocumentNumber   string     `json:"documentNumber"`
	Contact          *Contact   `json:"contact,omitempty"`
	CreationDate     time.Time  `json:"creationDate"`
	LastModifiedDate time.Time  `json:"lastModifiedDate"`
}

// Contact holds the address and, when geocoding succeeded, its [latitude, longitude] pair.
type Contact struct {
	Address     string    `json:"address"`
	Coordinates []float64 `json:"coordinates,omitempty"`
	Type        string    `json:"type"`
}

func NewContact(address string, lat, long float64) *Contact {
	return &Contact{
		Address:     address,
		Coordinates: []float64{lat, long},
		Type:        PointType,
	}
}

func (c *Contact) HasCoordinates() bool {
	return c != nil && len(c.Coordinates) == 2
}

func (c *Contact) Latitude() float64 {
	return c.Coordinates[0]
}

func (c *Contact) Longitude() float64 {
	return c.Coordinates[1]
}

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// NewID returns a time-ordered identifier, so descending id order lists newest customers first.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func IsValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (c *Customer) BirthDateString() string {
	if c.BirthDate == nil {
		return ""
	}
	return c.BirthDate.Format(BirthDateLayout)
}

// SearchParams filters customers by exact match; empty fields impose no constraint.
type SearchParams struct {
	Name           string
	DocumentNumber string
}

func (p SearchParams) IsEmpty() bool {
	return p.Name == "" && p.DocumentNumber == ""
}

// Filter is an equality predicate built from one non-empty search field.
type Filter struct {
	Field string
	Value string
}

const (
	FieldID               = "id"
	FieldName             = "name"
	FieldDocumentNumber   = "documentNumber"
	FieldEmail            = "email"
	FieldCreationDate     = "creationDate"
	FieldLastModifiedDate = "lastModifiedDate"
)

// Filters returns one predicate per non-empty search field, in a stable order.
func (p SearchParams) Filters() []Filter {
	filters := make([]Filter, 0, 2)
	if p.Name != "" {
		filters = append(filters, Filter{Field: FieldName, Value: p.Name})
	}
	if p.DocumentNumber != "" {
		filters = append(filters, Filter{Field: FieldDocumentNumber, Value: p.DocumentNumber})
	}
	return filters
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

type Sort struct {
	Field     string
	Direction SortDirection
}

var sortableFields = map[string]struct{}{
	FieldID:               {},
	FieldName:             {},
	FieldDocumentNumber:   {},
	FieldEmail:            {},
	FieldCreationDate:     {},
	FieldLastModifiedDate: {},
}

func IsSortableField(field string) bool {
	_, ok := sortableFields[field]
	return ok
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest is zero-based.
type PageRequest struct {
	Page int
	Size int
	Sort Sort
}

func (p PageRequest) Normalize() PageRequest {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	if p.Sort.Field == "" || !IsSortableField(p.Sort.Field) {
		p.Sort = Sort{Field: FieldID, Direction: SortDesc}
	}
	if p.Sort.Direction != SortAsc {
		p.Sort.Direction = SortDesc
	}
	return p
}

func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

type Page struct {
	Content       []*Customer
	Page          int
	Size          int
	TotalElements int64
}

func (p *Page) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return int((p.TotalElements + int64(p.Size) - 1) / int64(p.Size))
}

// GeoResult is a store match annotated with its distance in kilometers from the reference point.
type GeoResult struct {
	Customer   *Customer
	DistanceKm float64
}

type NearbyCustomer struct {
	Customer *Customer
	Distance string
}

// SearchDocument is the denormalized copy kept in the search index.
type SearchDocument struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Gender         Gender `json:"gender,omitempty"`
	BirthDate      string `json:"birthDate,omitempty"`
	Nickname       string `json:"nickname,omitempty"`
	Email          string `json:"email"`
	DocumentNumber string `json:"documentNumber"`
}

func NewSearchDocument(c *Customer) SearchDocument {
	return SearchDocument{
		ID:             c.ID,
		Name:           c.Name,
		Gender:         c.Gender,
		BirthDate:      c.BirthDateString(),
		Nickname:       c.Nickname,
		Email:          c.Email,
		DocumentNumber: c.DocumentNumber,
	}
}
