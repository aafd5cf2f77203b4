package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"customer-registry/internal/domain/customer"
	"customer-registry/internal/pkg/apperrors"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const customerMapping = `{
  "mappings": {
    "properties": {
      "id":             { "type": "keyword" },
      "name":           { "type": "text", "fields": { "keyword": { "type": "keyword" } } },
      "gender":         { "type": "keyword" },
      "birthDate":      { "type": "date", "format": "yyyy-MM-dd" },
      "nickname":       { "type": "text" },
      "email":          { "type": "keyword" },
      "documentNumber": { "type": "keyword" }
    }
  }
}`

// CustomerIndex is the search-side mirror of the customer store.
type CustomerIndex struct {
	client *elasticsearch.Client
	index  string
	logger *slog.Logger
}

var _ customer.SearchIndex = (*CustomerIndex)(nil)

func NewCustomerIndex(client *elasticsearch.Client, index string, logger *slog.Logger) *CustomerIndex {
	if client == nil {
		panic("elasticsearch client cannot be nil for CustomerIndex")
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	}
	return &CustomerIndex{
		client: client,
		index:  index,
		logger: logger.With("component", "CustomerIndex", "index", index),
	}
}

// EnsureIndex creates the index with its mapping unless it already exists.
func (i *CustomerIndex) EnsureIndex(ctx context.Context) error {
	res, err := i.client.Indices.Exists([]string{i.index}, i.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: failed to check index %s: %w", apperrors.ErrSearchIndex, i.index, err)
	}
	drain(res)
	if res.StatusCode == 200 {
		i.logger.InfoContext(ctx, "Search index already exists")
		return nil
	}

	res, err = i.client.Indices.Create(
		i.index,
		i.client.Indices.Create.WithBody(strings.NewReader(customerMapping)),
		i.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to create index %s: %w", apperrors.ErrSearchIndex, i.index, err)
	}
	defer drain(res)
	if res.IsError() && !strings.Contains(readBody(res), "resource_already_exists_exception") {
		return fmt.Errorf("%w: failed to create index %s: %s", apperrors.ErrSearchIndex, i.index, res.Status())
	}

	i.logger.InfoContext(ctx, "Search index created")
	return nil
}

// Upsert overwrites the whole document stored under doc.ID.
func (i *CustomerIndex) Upsert(ctx context.Context, doc customer.SearchDocument) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal search document: %w", err)
	}

	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: doc.ID,
		Body:       bytes.NewReader(body),
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		i.logger.ErrorContext(ctx, "Index request failed", slog.String("customerID", doc.ID), slog.Any("error", err))
		return fmt.Errorf("%w: index request failed: %w", apperrors.ErrSearchIndex, err)
	}
	defer drain(res)

	if res.IsError() {
		reason := readBody(res)
		i.logger.ErrorContext(ctx, "Index request rejected",
			slog.String("customerID", doc.ID),
			slog.Int("status", res.StatusCode),
			slog.String("reason", reason),
		)
		return fmt.Errorf("%w: index request rejected with %s", apperrors.ErrSearchIndex, res.Status())
	}

	i.logger.DebugContext(ctx, "Customer document indexed", slog.String("customerID", doc.ID))
	return nil
}

func readBody(res *esapi.Response) string {
	if res == nil || res.Body == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return string(b)
}

func drain(res *esapi.Response) {
	if res == nil || res.Body == nil {
		return
	}
	_, _ = io.Copy(io.Discard, res.Body)
	_ = res.Body.Close()
}
