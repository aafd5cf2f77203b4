package mongodb

import (
	"time"

	"customer-registry/internal/domain/customer"
)

type customerDocument struct {
	ID               string           `bson:"_id"`
	Name             string           `bson:"name"`
	Gender           string           `bson:"gender,omitempty"`
	BirthDate        *time.Time       `bson:"birthDate,omitempty"`
	Nickname         string           `bson:"nickname,omitempty"`
	Email            string           `bson:"email"`
	DocumentNumber   string           `bson:"documentNumber"`
	Contact          *contactDocument `bson:"contact,omitempty"`
	CreationDate     time.Time        `bson:"creationDate"`
	LastModifiedDate time.Time        `bson:"lastModifiedDate"`
	// Distance is only present in $geoNear output, in kilometers.
	Distance float64 `bson:"distance,omitempty"`
}

type contactDocument struct {
	Address  string    `bson:"address"`
	Location *geoPoint `bson:"location,omitempty"`
}

// geoPoint is GeoJSON, so coordinates are [longitude, latitude].
type geoPoint struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

func toDocument(c *customer.Customer) customerDocument {
	doc := customerDocument{
		ID:               c.ID,
		Name:             c.Name,
		Gender:           string(c.Gender),
		BirthDate:        c.BirthDate,
		Nickname:         c.Nickname,
		Email:            c.Email,
		DocumentNumber:   c.DocumentNumber,
		Contact:          toContactDocument(c.Contact),
		CreationDate:     c.CreationDate,
		LastModifiedDate: c.LastModifiedDate,
	}
	return doc
}

func toContactDocument(contact *customer.Contact) *contactDocument {
	if contact == nil {
		return nil
	}
	doc := &contactDocument{Address: contact.Address}
	if contact.HasCoordinates() {
		doc.Location = &geoPoint{
			Type:        customer.PointType,
			Coordinates: []float64{contact.Longitude(), contact.Latitude()},
		}
	}
	return doc
}

func (d customerDocument) toDomain() *customer.Customer {
	c := &customer.Customer{
		ID:               d.ID,
		Name:             d.Name,
		Gender:           customer.Gender(d.Gender),
		BirthDate:        d.BirthDate,
		Nickname:         d.Nickname,
		Email:            d.Email,
		DocumentNumber:   d.DocumentNumber,
		CreationDate:     d.CreationDate,
		LastModifiedDate: d.LastModifiedDate,
	}
	if d.Contact != nil {
		c.Contact = &customer.Contact{Address: d.Contact.Address, Type: customer.PointType}
		if loc := d.Contact.Location; loc != nil && len(loc.Coordinates) == 2 {
			c.Contact = customer.NewContact(d.Contact.Address, loc.Coordinates[1], loc.Coordinates[0])
		}
	}
	return c
}
