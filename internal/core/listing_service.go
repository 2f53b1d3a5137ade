package core

import (
	"context"
	"sort"

	"swapmeet.ie/marketplace/internal/logging"
	"swapmeet.ie/marketplace/internal/store"
)

// productUpdatable is the set of top-level product fields a seller may patch.
var productUpdatable = map[string]bool{
	"title":           true,
	"name":            true,
	"desc":            true,
	"description":     true,
	"price":           true,
	"currency":        true,
	"category":        true,
	"condition":       true,
	"image":           true,
	"images":          true,
	"image_urls":      true,
	"seller":          true,
	"seller_name":     true,
	"location":        true,
	"sold":            true,
	"appearance_cond": true,
	"reliability":     true,
}

// Product is a listing as stored: whatever fields the seller supplied.
type Product map[string]any

type ListingService struct {
	store  store.DocumentStore
	logger logging.Logger
}

func NewListingService(s store.DocumentStore, logger logging.Logger) *ListingService {
	return &ListingService{store: s, logger: logger.With("service", "listing")}
}

// List returns every product with its id under "product_id".
func (s *ListingService) List(ctx context.Context) ([]Product, error) {
	docs, err := s.store.List(ctx, store.Products)
	if err != nil {
		return nil, storageError(err, "failed to list products")
	}
	products := make([]Product, 0, len(docs))
	for _, doc := range docs {
		p := Product(doc.Fields)
		p["product_id"] = doc.ID
		products = append(products, p)
	}
	return products, nil
}

func (s *ListingService) Get(ctx context.Context, productID string) (Product, error) {
	doc, err := s.store.Get(ctx, store.Products, productID)
	if err != nil {
		return nil, fromStore(err, "Product", productID, "read product")
	}
	return Product(doc.Fields), nil
}

// Create stores fields verbatim under a generated id.
func (s *ListingService) Create(ctx context.Context, fields map[string]any) (string, error) {
	if len(fields) == 0 {
		return "", validationError("No product data provided")
	}
	id, err := s.store.Create(ctx, store.Products, "", fields)
	if err != nil {
		return "", storageError(err, "failed to create product")
	}
	s.logger.Info(ctx, "product created", "product_id", id)
	return id, nil
}

// Update replaces the given top-level fields. Fields outside the product
// allow-list are rejected before anything is written.
func (s *ListingService) Update(ctx context.Context, productID string, fields map[string]any) error {
	if len(fields) == 0 {
		return validationError("No product data provided")
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if !productUpdatable[k] {
			return validationError("field %q cannot be updated", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	updates := make([]store.Update, 0, len(keys))
	for _, k := range keys {
		updates = append(updates, store.Update{Path: k, Value: fields[k]})
	}
	if err := s.store.Update(ctx, store.Products, productID, updates); err != nil {
		return fromStore(err, "Product", productID, "update product")
	}
	return nil
}

// RecordCondition writes a condition evaluation onto the product.
func (s *ListingService) RecordCondition(ctx context.Context, productID string, report ConditionReport) error {
	err := s.store.Update(ctx, store.Products, productID, []store.Update{
		{Path: "appearance_cond", Value: report.AppearanceCond},
		{Path: "reliability", Value: report.Reliability},
	})
	if err != nil {
		return fromStore(err, "Product", productID, "record condition")
	}
	s.logger.Info(ctx, "condition recorded", "product_id", productID, "reliability", report.Reliability)
	return nil
}

// ImageURLs collects the image links a listing carries under any of the
// usual keys.
func (p Product) ImageURLs() []string {
	var urls []string
	for _, key := range []string{"image_urls", "images", "image"} {
		switch v := p[key].(type) {
		case string:
			if v != "" {
				urls = append(urls, v)
			}
		case []any:
			for _, item := range v {
				if s, ok := item.(string); ok && s != "" {
					urls = append(urls, s)
				}
			}
		case []string:
			urls = append(urls, v...)
		}
	}
	return urls
}
