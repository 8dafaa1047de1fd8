// Package product manages the persisted menu.
package product

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/teahouse-backend/internal/domain"
	"github.com/xenking/teahouse-backend/internal/store"
)

// Catalog provides CRUD over the product collection.
type Catalog struct {
	products *store.Collection[Product]
}

// NewCatalog creates a Catalog over the given collection.
func NewCatalog(products *store.Collection[Product]) *Catalog {
	return &Catalog{products: products}
}

// NewCollection returns the product collection of s, seeded with
// DefaultCatalog on first access.
func NewCollection(s store.Store) *store.Collection[Product] {
	return store.NewCollection(s, CollectionName, store.WithSeed(DefaultCatalog))
}

// List returns every product in stored order.
func (c *Catalog) List(ctx context.Context) ([]Product, error) {
	return c.products.Load(ctx)
}

// Upsert replaces the product with the given id, or creates a new product
// when id is nil. Updates overwrite every field.
func (c *Catalog) Upsert(ctx context.Context, in Input, id *int) (*Product, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	var saved Product
	err := c.products.Update(ctx, func(products []Product) ([]Product, error) {
		if id == nil {
			saved = in.toProduct(store.NextID(products, productID))
			return append(products, saved), nil
		}
		for i := range products {
			if products[i].ID == *id {
				saved = in.toProduct(*id)
				products[i] = saved
				return products, nil
			}
		}
		return nil, &domain.NotFoundError{Entity: "product", ID: *id}
	})
	if err != nil {
		return nil, err
	}

	zctx.From(ctx).Debug("Product saved",
		zap.Int("product_id", saved.ID),
		zap.Bool("created", id == nil),
	)
	return &saved, nil
}

// Delete removes the product with the given id. Deleting a missing product
// is not an error.
func (c *Catalog) Delete(ctx context.Context, id int) error {
	return c.products.Update(ctx, func(products []Product) ([]Product, error) {
		kept := products[:0]
		for _, p := range products {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		return kept, nil
	})
}

// Import adds inputs to the catalog in a single write. With replace set the
// existing menu is discarded first and ids restart at 1. It returns the
// number of products written.
func (c *Catalog) Import(ctx context.Context, inputs []Input, replace bool) (int, error) {
	for _, in := range inputs {
		if err := validate(in); err != nil {
			return 0, errors.Wrapf(err, "product %q", in.Name)
		}
	}
	err := c.products.Update(ctx, func(products []Product) ([]Product, error) {
		if replace {
			products = products[:0]
		}
		next := store.NextID(products, productID)
		for i, in := range inputs {
			products = append(products, in.toProduct(next+i))
		}
		return products, nil
	})
	if err != nil {
		return 0, err
	}
	return len(inputs), nil
}

func validate(in Input) error {
	if strings.TrimSpace(in.Name) == "" {
		return domain.Invalid("name", "required")
	}
	if in.RegularPrice.IsNegative() {
		return domain.Invalid("regularPrice", "must not be negative")
	}
	if in.LargePrice.IsNegative() {
		return domain.Invalid("largePrice", "must not be negative")
	}
	return nil
}
