package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"customer-registry/internal/domain/customer"
	"customer-registry/internal/pkg/apperrors"

	"github.com/jackc/pgx/v5"
)

const customerColumns = `id::text, name, gender, birth_date, nickname, email, document_number, address,
        ST_Y(location::geometry), ST_X(location::geometry), created_at, updated_at`

// Columns allowed in filters and ORDER BY, keyed by domain field name.
var columnByField = map[string]string{
	customer.FieldID:               "id",
	customer.FieldName:             "name",
	customer.FieldDocumentNumber:   "document_number",
	customer.FieldEmail:            "email",
	customer.FieldCreationDate:     "created_at",
	customer.FieldLastModifiedDate: "updated_at",
}

type CustomerRepository struct {
	db     DBPool
	logger *slog.Logger
}

var _ customer.Repository = (*CustomerRepository)(nil)

func NewCustomerRepository(db DBPool, logger *slog.Logger) *CustomerRepository {
	if db == nil {
		panic("DBPool cannot be nil for CustomerRepository")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		logger.Warn("Warning: No logger provided to NewCustomerRepository, using default stderr handler")
	}
	return &CustomerRepository{
		db:     db,
		logger: logger.With("component", "CustomerRepository"),
	}
}

func (r *CustomerRepository) ExistsByDocumentNumber(ctx context.Context, documentNumber string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM customers WHERE document_number = $1)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, documentNumber).Scan(&exists); err != nil {
		r.logger.ErrorContext(ctx, "Failed to check document number", slog.Any("error", err))
		return false, fmt.Errorf("%w: failed to check document number: %w", apperrors.ErrDatabase, err)
	}
	return exists, nil
}

func (r *CustomerRepository) Create(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	r.logger.InfoContext(ctx, "Attempting to insert new customer", slog.String("customerID", cust.ID))

	query := `
        INSERT INTO customers (id, name, gender, birth_date, nickname, email, document_number, address, location, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, ST_SetSRID(ST_MakePoint($9::float8, $10::float8), 4326)::geography, NOW(), NOW())
        RETURNING created_at, updated_at`

	lng, lat := coordinateArgs(cust.Contact)
	err := r.db.QueryRow(ctx, query,
		cust.ID,
		cust.Name,
		nullableString(string(cust.Gender)),
		cust.BirthDate,
		nullableString(cust.Nickname),
		cust.Email,
		cust.DocumentNumber,
		addressArg(cust.Contact),
		lng,
		lat,
	).Scan(&cust.CreationDate, &cust.LastModifiedDate)
	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, customer.ErrAlreadyExists) {
			r.logger.WarnContext(ctx, "Failed to insert customer due to unique constraint violation", slog.String("documentNumber", cust.DocumentNumber))
			return translatedErr
		}
		r.logger.ErrorContext(ctx, "Failed to insert customer", slog.Any("error", err))
		return fmt.Errorf("failed to insert customer: %w", translatedErr)
	}

	r.logger.InfoContext(ctx, "Customer inserted successfully", slog.String("customerID", cust.ID))
	return nil
}

func (r *CustomerRepository) Update(ctx context.Context, cust *customer.Customer) error {
	if cust == nil {
		return fmt.Errorf("%w: customer cannot be nil", apperrors.ErrInvalidArgument)
	}

	r.logger.InfoContext(ctx, "Attempting to update customer", slog.String("customerID", cust.ID))

	query := `
        UPDATE customers
        SET name = $1,
            gender = $2,
            nickname = $3,
            email = $4,
            address = $5,
            location = ST_SetSRID(ST_MakePoint($6::float8, $7::float8), 4326)::geography,
            updated_at = NOW()
        WHERE id = $8
        RETURNING updated_at`

	lng, lat := coordinateArgs(cust.Contact)
	err := r.db.QueryRow(ctx, query,
		cust.Name,
		nullableString(string(cust.Gender)),
		nullableString(cust.Nickname),
		cust.Email,
		addressArg(cust.Contact),
		lng,
		lat,
		cust.ID,
	).Scan(&cust.LastModifiedDate)
	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, customer.ErrNotFound) {
			r.logger.WarnContext(ctx, "Update affected no rows", slog.String("customerID", cust.ID))
			return customer.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to update customer", slog.Any("error", err))
		return fmt.Errorf("failed to update customer %s: %w", cust.ID, translatedErr)
	}

	r.logger.InfoContext(ctx, "Customer updated successfully", slog.String("customerID", cust.ID))
	return nil
}

func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*customer.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	cust, err := scanCustomer(r.db.QueryRow(ctx, query, id))
	if err != nil {
		translatedErr := translateDBError(err, r.logger)
		if errors.Is(translatedErr, customer.ErrNotFound) {
			return nil, customer.ErrNotFound
		}
		r.logger.ErrorContext(ctx, "Failed to find customer", slog.String("customerID", id), slog.Any("error", err))
		return nil, fmt.Errorf("failed to find customer %s: %w", id, translatedErr)
	}
	return cust, nil
}

func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM customers WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to delete customer", slog.String("customerID", id), slog.Any("error", err))
		return fmt.Errorf("failed to delete customer %s: %w", id, translateDBError(err, r.logger))
	}
	if tag.RowsAffected() == 0 {
		return customer.ErrNotFound
	}

	r.logger.InfoContext(ctx, "Customer deleted successfully", slog.String("customerID", id))
	return nil
}

func (r *CustomerRepository) FindAll(ctx context.Context, filters []customer.Filter, page customer.PageRequest) (*customer.Page, error) {
	where, args, err := buildWhere(filters)
	if err != nil {
		return nil, err
	}
	orderBy := buildOrderBy(page.Sort)

	var total int64
	countQuery := `SELECT COUNT(*) FROM customers` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		r.logger.ErrorContext(ctx, "Failed to count customers", slog.Any("error", err))
		return nil, fmt.Errorf("failed to count customers: %w", translateDBError(err, r.logger))
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

	limitPos := len(args) + 1
	query := `SELECT ` + customerColumns + ` FROM customers` + where + orderBy +
		` LIMIT $` + strconv.Itoa(limitPos) + ` OFFSET $` + strconv.Itoa(limitPos+1)
	args = append(args, page.Size, page.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to list customers", slog.Any("error", err))
		return nil, fmt.Errorf("failed to list customers: %w", translateDBError(err, r.logger))
	}
	defer rows.Close()

	for rows.Next() {
		cust, err := scanCustomer(rows)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan customer row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to scan customer: %w", apperrors.ErrDatabase, err)
		}
		result.Content = append(result.Content, cust)
	}
	if err := rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating customer rows", slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	return result, nil
}

func (r *CustomerRepository) FindNear(ctx context.Context, point customer.Coordinates, radiusKm float64) ([]customer.GeoResult, error) {
	query := `
        SELECT ` + customerColumns + `,
            ST_Distance(location, ST_SetSRID(ST_MakePoint($1::float8, $2::float8), 4326)::geography) / 1000 AS distance_km
        FROM customers
        WHERE location IS NOT NULL
          AND ST_DWithin(location, ST_SetSRID(ST_MakePoint($1::float8, $2::float8), 4326)::geography, $3)
        ORDER BY distance_km ASC`

	rows, err := r.db.Query(ctx, query, point.Longitude, point.Latitude, radiusKm*1000)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to run near query", slog.Any("error", err))
		return nil, fmt.Errorf("failed to find customers near point: %w", translateDBError(err, r.logger))
	}
	defer rows.Close()

	results := []customer.GeoResult{}
	for rows.Next() {
		var distance float64
		cust, err := scanCustomer(rows, &distance)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to scan near query row", slog.Any("error", err))
			return nil, fmt.Errorf("%w: failed to scan customer: %w", apperrors.ErrDatabase, err)
		}
		results = append(results, customer.GeoResult{Customer: cust, DistanceKm: distance})
	}
	if err := rows.Err(); err != nil {
		r.logger.ErrorContext(ctx, "Error iterating near query rows", slog.Any("error", err))
		return nil, fmt.Errorf(errMsgFormat, apperrors.ErrDatabase, err)
	}

	return results, nil
}

func (r *CustomerRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

// scanCustomer reads customerColumns in order, then any extra destinations.
func scanCustomer(row pgx.Row, extra ...any) (*customer.Customer, error) {
	var (
		c         customer.Customer
		gender    *string
		birthDate *time.Time
		nickname  *string
		address   *string
		lat, lng  *float64
	)
	dest := []any{
		&c.ID, &c.Name, &gender, &birthDate, &nickname, &c.Email, &c.DocumentNumber, &address,
		&lat, &lng, &c.CreationDate, &c.LastModifiedDate,
	}
	dest = append(dest, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	if gender != nil {
		c.Gender = customer.Gender(*gender)
	}
	if nickname != nil {
		c.Nickname = *nickname
	}
	c.BirthDate = birthDate
	if address != nil {
		c.Contact = &customer.Contact{Address: *address, Type: customer.PointType}
		if lat != nil && lng != nil {
			c.Contact = customer.NewContact(*address, *lat, *lng)
		}
	}
	return &c, nil
}

func buildWhere(filters []customer.Filter) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	clauses := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	for _, f := range filters {
		column, ok := columnByField[f.Field]
		if !ok {
			return "", nil, fmt.Errorf("%w: unsupported filter field %q", apperrors.ErrInvalidArgument, f.Field)
		}
		args = append(args, f.Value)
		clauses = append(clauses, column+" = $"+strconv.Itoa(len(args)))
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func buildOrderBy(sort customer.Sort) string {
	column, ok := columnByField[sort.Field]
	if !ok {
		column = "id"
	}
	direction := "DESC"
	if sort.Direction == customer.SortAsc {
		direction = "ASC"
	}
	if column == "id" {
		return " ORDER BY id " + direction
	}
	return " ORDER BY " + column + " " + direction + ", id DESC"
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func addressArg(contact *customer.Contact) *string {
	if contact == nil {
		return nil
	}
	return nullableString(contact.Address)
}

// coordinateArgs returns (longitude, latitude): PostGIS points are x/y.
func coordinateArgs(contact *customer.Contact) (*float64, *float64) {
	if !contact.HasCoordinates() {
		return nil, nil
	}
	lng, lat := contact.Longitude(), contact.Latitude()
	return &lng, &lat
}
