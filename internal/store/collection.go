package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/go-faster/errors"
)

// Collection is a typed view over one named collection of a Store.
//
// Update runs load, mutate and replace inside a per-collection critical
// section, so writers in the same process never interleave. Processes
// sharing one backend are not coordinated.
type Collection[T any] struct {
	name  string
	store Store
	seed  func() []T

	mu sync.Mutex
}

// Option configures a Collection.
type Option[T any] func(*Collection[T])

// WithSeed sets the dataset persisted on first access of a collection that
// has never been stored. Without it the collection starts empty.
func WithSeed[T any](seed func() []T) Option[T] {
	return func(c *Collection[T]) {
		c.seed = seed
	}
}

// NewCollection returns a typed view of the collection called name.
func NewCollection[T any](s Store, name string, opts ...Option[T]) *Collection[T] {
	c := &Collection[T]{
		name:  name,
		store: s,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Name returns the stable collection name.
func (c *Collection[T]) Name() string {
	return c.name
}

// Load returns every record of the collection in stored order.
func (c *Collection[T]) Load(ctx context.Context) ([]T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.load(ctx)
}

// Replace overwrites the whole collection with records.
func (c *Collection[T]) Replace(ctx context.Context, records []T) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.replace(ctx, records)
}

// Update loads the collection, passes it to fn and persists the returned
// slice. When fn fails nothing is written and its error is returned as is.
func (c *Collection[T]) Update(ctx context.Context, fn func(records []T) ([]T, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load(ctx)
	if err != nil {
		return err
	}
	next, err := fn(records)
	if err != nil {
		return err
	}
	return c.replace(ctx, next)
}

func (c *Collection[T]) load(ctx context.Context) ([]T, error) {
	data, err := c.store.Load(ctx, c.name)
	if errors.Is(err, ErrNotExist) {
		return c.initialize(ctx)
	}
	if err != nil {
		return nil, &PersistenceError{Op: "load", Collection: c.name, Err: err}
	}

	var records []T
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &PersistenceError{Op: "decode", Collection: c.name, Err: err}
	}
	if records == nil {
		records = []T{}
	}
	return records, nil
}

// initialize persists the default dataset of a never-stored collection.
func (c *Collection[T]) initialize(ctx context.Context) ([]T, error) {
	records := []T{}
	if c.seed != nil {
		records = append(records, c.seed()...)
	}
	if err := c.replace(ctx, records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *Collection[T]) replace(ctx context.Context, records []T) error {
	if records == nil {
		records = []T{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return &PersistenceError{Op: "encode", Collection: c.name, Err: err}
	}
	if err := c.store.Replace(ctx, c.name, data); err != nil {
		return &PersistenceError{Op: "replace", Collection: c.name, Err: err}
	}
	return nil
}
