package mongodb

import (
	"testing"
	"time"

	"customer-registry/internal/domain/customer"
	"customer-registry/internal/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBuildFilter(t *testing.T) {
	t.Run("Empty search matches everything", func(t *testing.T) {
		filter, err := buildFilter(nil)
		require.NoError(t, err)
		assert.Equal(t, bson.D{}, filter)
	})

	t.Run("Each filter becomes an equality on its document key", func(t *testing.T) {
		filter, err := buildFilter([]customer.Filter{
			{Field: customer.FieldName, Value: "Ana"},
			{Field: customer.FieldDocumentNumber, Value: "52998224725"},
		})
		require.NoError(t, err)
		assert.Equal(t, bson.D{
			{Key: "name", Value: "Ana"},
			{Key: "documentNumber", Value: "52998224725"},
		}, filter)
	})

	t.Run("Unknown field is rejected", func(t *testing.T) {
		_, err := buildFilter([]customer.Filter{{Field: "password", Value: "x"}})
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	})
}

func TestBuildSort(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "_id", Value: -1}}, buildSort(customer.Sort{Field: customer.FieldID, Direction: customer.SortDesc}))
	assert.Equal(t, bson.D{{Key: "_id", Value: 1}}, buildSort(customer.Sort{Field: customer.FieldID, Direction: customer.SortAsc}))
	assert.Equal(t,
		bson.D{{Key: "creationDate", Value: 1}, {Key: "_id", Value: -1}},
		buildSort(customer.Sort{Field: customer.FieldCreationDate, Direction: customer.SortAsc}),
	)
}

func TestNearPipeline(t *testing.T) {
	pipeline := nearPipeline(customer.Coordinates{Latitude: -23.5614, Longitude: -46.6559}, 200)

	require.Len(t, pipeline, 1)
	stage := pipeline[0]
	require.Equal(t, "$geoNear", stage[0].Key)

	geoNear := stage[0].Value.(bson.D).Map()
	near := geoNear["near"].(bson.D).Map()
	assert.Equal(t, "Point", near["type"])
	assert.Equal(t, bson.A{-46.6559, -23.5614}, near["coordinates"])
	assert.Equal(t, "contact.location", geoNear["key"])
	assert.Equal(t, 200000.0, geoNear["maxDistance"])
	assert.Equal(t, 0.001, geoNear["distanceMultiplier"])
	assert.Equal(t, true, geoNear["spherical"])
}

func TestCustomerDocumentRoundTrip(t *testing.T) {
	bd := time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)
	c := &customer.Customer{
		ID:               customer.NewID(),
		Name:             "Ana",
		Gender:           customer.GenderFemale,
		BirthDate:        &bd,
		Email:            "ana@example.com",
		DocumentNumber:   "52998224725",
		Contact:          customer.NewContact("Av. Paulista, 1000", -23.5614, -46.6559),
		CreationDate:     time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		LastModifiedDate: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	doc := toDocument(c)
	assert.Equal(t, []float64{-46.6559, -23.5614}, doc.Contact.Location.Coordinates)

	raw, err := bson.Marshal(doc)
	require.NoError(t, err)
	var decoded customerDocument
	require.NoError(t, bson.Unmarshal(raw, &decoded))

	assert.Equal(t, c, decoded.toDomain())
}

func TestUpdateDocument(t *testing.T) {
	c := &customer.Customer{ID: "id", Name: "Ana", Email: "ana@example.com"}

	update := updateDocument(c).Map()
	assert.Contains(t, update, "$set")
	assert.Contains(t, update, "$unset")

	c.Contact = customer.NewContact("Rua Augusta, 500", -23.553, -46.657)
	update = updateDocument(c).Map()
	assert.NotContains(t, update, "$unset")
	set := update["$set"].(bson.D).Map()
	assert.Equal(t, &contactDocument{
		Address:  "Rua Augusta, 500",
		Location: &geoPoint{Type: "Point", Coordinates: []float64{-46.657, -23.553}},
	}, set["contact"])
}
