package mongodb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"customer-registry/internal/domain/customer"
	"customer-registry/internal/pkg/apperrors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	CollectionName = "customers"

	locationField = "contact.location"
)

// Document keys allowed in filters and sorts, keyed by domain field name.
var keyByField = map[string]string{
	customer.FieldID:               "_id",
	customer.FieldName:             "name",
	customer.FieldDocumentNumber:   "documentNumber",
	customer.FieldEmail:            "email",
	customer.FieldCreationDate:     "creationDate",
	customer.FieldLastModifiedDate: "lastModifiedDate",
}

type CustomerRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	logger     *slog.Logger
}

var _ customer.Repository = (*CustomerRepository)(nil)

func NewCustomerRepository(client *mongo.Client, database string, logger *slog.Logger) *CustomerRepository {
	if client == nil {
		panic("mongo client cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerRepository, using default stderr handler")
	}
	return &CustomerRepository{
		client:     client,
		collection: client.Database(database).Collection(CollectionName),
		logger:     logger.With("component", "MongoCustomerRepository"),
	}
}

// EnsureIndexes creates the unique document number index and the 2dsphere index $geoNear needs.
func (r *CustomerRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "documentNumber", Value: 1}},
			Options: options.Index().SetName("ux_customers_document_number").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetName("ix_customers_name"),
		},
		{
			Keys:    bson.D{{Key: locationField, Value: "2dsphere"}},
			Options: options.Index().SetName("ix_customers_location"),
		},
	}
	names, err := r.collection.Indexes().CreateMany(ctx, models)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to create indexes", slog.Any("error", err))
		return fmt.Errorf("%w: failed to create indexes: %w", apperrors.ErrDatabase, err)
	}
	r.logger.InfoContext(ctx, "Collection indexes are up to date", slog.Any("indexes", names))
	return nil
}

func (r *CustomerRepository) ExistsByDocumentNumber(ctx context.Context, documentNumber string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.D{{Key: "documentNumber", Value: documentNumber}}, options.Count().SetLimit(1))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to check document number", slog.Any("error", err))
		return false, fmt.Errorf("%w: failed to check document number: %w", apperrors.ErrDatabase, err)
	}
	return count > 0, nil
}

func (r *CustomerRepository) Create(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	now := storeNow()
	cust.CreationDate = now
	cust.LastModifiedDate = now

	if _, err := r.collection.InsertOne(ctx, toDocument(cust)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			r.logger.WarnContext(ctx, "Failed to insert customer due to unique index violation", slog.String("documentNumber", cust.DocumentNumber))
			return fmt.Errorf("%w: %w", customer.ErrAlreadyExists, err)
		}
		r.logger.ErrorContext(ctx, "Failed to insert customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to insert customer: %w", apperrors.ErrDatabase, err)
	}

	r.logger.InfoContext(ctx, "Customer inserted successfully", slog.String("customerID", cust.ID))
	return nil
}

func (r *CustomerRepository) Update(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	cust.LastModifiedDate = storeNow()
	res, err := r.collection.UpdateOne(ctx, bson.D{{Key: "_id", Value: cust.ID}}, updateDocument(cust))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to update customer", slog.Any("error", err))
		return fmt.Errorf("%w: failed to update customer %s: %w", apperrors.ErrDatabase, cust.ID, err)
	}
	if res.MatchedCount == 0 {
		return customer.ErrNotFound
	}

	r.logger.InfoContext(ctx, "Customer updated successfully", slog.String("customerID", cust.ID))
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*customer.Customer, error) {
	var doc customerDocument
	err := r.collection.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, customer.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to find customer", slog.String("customerID", id), slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to find customer %s: %w", apperrors.ErrDatabase, id, err)
	}
	return doc.toDomain(), nil
}

func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete customer", slog.String("customerID", id), slog.Any("error", err))
		return fmt.Errorf("%w: failed to delete customer %s: %w", apperrors.ErrDatabase, id, err)
	}
	if res.DeletedCount == 0 {
		return customer.ErrNotFound
	}
	return nil
}

func (r *CustomerRepository) FindAll(ctx context.Context, filters []customer.Filter, page customer.PageRequest) (*customer.Page, error) {
	filter, err := buildFilter(filters)
	if err != nil {
		return nil, err
	}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to count customers", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to count customers: %w", apperrors.ErrDatabase, err)
	}

	result := &customer.Page{
		Content:       []*customer.Customer{},
		Page:          page.Page,
		Size:          page.Size,
		TotalElements: total,
	}
	if total == 0 || int64(page.Offset()) >= total {
		return result, nil
	}

	opts := options.Find().
		SetSort(buildSort(page.Sort)).
		SetSkip(int64(page.Offset())).
		SetLimit(int64(page.Size))
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to list customers", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to list customers: %w", apperrors.ErrDatabase, err)
	}

	var docs []customerDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.ErrorContext(ctx, "Failed to decode customers", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to decode customers: %w", apperrors.ErrDatabase, err)
	}
	for _, d := range docs {
		result.Content = append(result.Content, d.toDomain())
	}
	return result, nil
}

func (r *CustomerRepository) FindNear(ctx context.Context, point customer.Coordinates, radiusKm float64) ([]customer.GeoResult, error) {
	cursor, err := r.collection.Aggregate(ctx, nearPipeline(point, radiusKm))
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to run $geoNear", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to find customers near point: %w", apperrors.ErrDatabase, err)
	}

	var docs []customerDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.ErrorContext(ctx, "Failed to decode $geoNear results", slog.Any("error", err))
		return nil, fmt.Errorf("%w: failed to decode customers: %w", apperrors.ErrDatabase, err)
	}

	results := make([]customer.GeoResult, 0, len(docs))
	for _, d := range docs {
		results = append(results, customer.GeoResult{Customer: d.toDomain(), DistanceKm: d.Distance})
	}
	return results, nil
}

func (r *CustomerRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

func updateDocument(c *customer.Customer) bson.D {
	set := bson.D{
		{Key: "name", Value: c.Name},
		{Key: "gender", Value: string(c.Gender)},
		{Key: "nickname", Value: c.Nickname},
		{Key: "email", Value: c.Email},
		{Key: "lastModifiedDate", Value: c.LastModifiedDate},
	}
	update := bson.D{}
	if contact := toContactDocument(c.Contact); contact != nil {
		set = append(set, bson.E{Key: "contact", Value: contact})
	} else {
		update = append(update, bson.E{Key: "$unset", Value: bson.D{{Key: "contact", Value: ""}}})
	}
	return append(bson.D{{Key: "$set", Value: set}}, update...)
}

func buildFilter(filters []customer.Filter) (bson.D, error) {
	filter := bson.D{}
	for _, f := range filters {
		key, ok := keyByField[f.Field]
		if !ok {
			return nil, fmt.Errorf("%w: unsupported filter field %q", apperrors.ErrInvalidArgument, f.Field)
		}
		filter = append(filter, bson.E{Key: key, Value: f.Value})
	}
	return filter, nil
}

func buildSort(sort customer.Sort) bson.D {
	key, ok := keyByField[sort.Field]
	if !ok {
		key = "_id"
	}
	direction := -1
	if sort.Direction == customer.SortAsc {
		direction = 1
	}
	if key == "_id" {
		return bson.D{{Key: "_id", Value: direction}}
	}
	return bson.D{{Key: key, Value: direction}, {Key: "_id", Value: -1}}
}

// nearPipeline sorts ascending by distance; maxDistance is in meters and distances come back in km.
func nearPipeline(point customer.Coordinates, radiusKm float64) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$geoNear", Value: bson.D{
			{Key: "near", Value: bson.D{
				{Key: "type", Value: customer.PointType},
				{Key: "coordinates", Value: bson.A{point.Longitude, point.Latitude}},
			}},
			{Key: "key", Value: locationField},
			{Key: "distanceField", Value: "distance"},
			{Key: "maxDistance", Value: radiusKm * 1000},
			{Key: "distanceMultiplier", Value: 0.001},
			{Key: "spherical", Value: true},
		}}},
	}
}

// storeNow matches the millisecond precision of BSON dates.
func storeNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
