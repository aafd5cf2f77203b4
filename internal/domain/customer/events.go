package customer

import (
	"fmt"
	"time"

	"customer-registry/internal/event"
)

func NewCustomerEventPayload(c *Customer) event.CustomerEventPayload {
	if c == nil {
		return event.CustomerEventPayload{}
	}
	payload := event.CustomerEventPayload{
		CustomerID:       c.ID,
		Name:             c.Name,
		Gender:           string(c.Gender),
		BirthDate:        c.BirthDateString(),
		Nickname:         c.Nickname,
		Email:            c.Email,
		DocumentNumber:   c.DocumentNumber,
		CreationDate:     c.CreationDate,
		LastModifiedDate: c.LastModifiedDate,
	}
	if c.Contact != nil {
		payload.Address = c.Contact.Address
		if c.Contact.HasCoordinates() {
			lat, lng := c.Contact.Latitude(), c.Contact.Longitude()
			payload.Latitude = &lat
			payload.Longitude = &lng
		}
	}
	return payload
}

// CustomerFromEventPayload rebuilds the saved record carried by a created or updated event.
func CustomerFromEventPayload(p event.CustomerEventPayload) (*Customer, error) {
	if p.CustomerID == "" {
		return nil, fmt.Errorf("event payload has no customer id")
	}
	c := &Customer{
		ID:               p.CustomerID,
		Name:             p.Name,
		Gender:           Gender(p.Gender),
		Nickname:         p.Nickname,
		Email:            p.Email,
		DocumentNumber:   p.DocumentNumber,
		CreationDate:     p.CreationDate,
		LastModifiedDate: p.LastModifiedDate,
	}
	if p.BirthDate != "" {
		bd, err := time.Parse(BirthDateLayout, p.BirthDate)
		if err != nil {
			return nil, fmt.Errorf("invalid birth date %q: %w", p.BirthDate, err)
		}
		c.BirthDate = &bd
	}
	if p.Address != "" {
		c.Contact = &Contact{Address: p.Address, Type: PointType}
		if p.Latitude != nil && p.Longitude != nil {
			c.Contact = NewContact(p.Address, *p.Latitude, *p.Longitude)
		}
	}
	return c, nil
}
