// Package store persists named record collections as whole units.
//
// A collection is always read and written in full: every mutation loads the
// collection, transforms it in memory and atomically replaces the stored
// copy. Backends only deal with encoded bytes; Collection provides the typed
// view, default seeding and write serialization on top of them.
package store

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
)

// ErrNotExist is returned by Store.Load when the named collection has never
// been persisted.
var ErrNotExist = errors.New("collection does not exist")

// Store is a durable medium holding encoded collections by name.
type Store interface {
	// Load returns the encoded collection or ErrNotExist.
	Load(ctx context.Context, name string) ([]byte, error)
	// Replace atomically overwrites the encoded collection. Readers observe
	// either the previous or the new contents, never a mix.
	Replace(ctx context.Context, name string, data []byte) error
}

// Pinger is implemented by stores that can report backend availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PersistenceError reports a failure to read, decode, encode or write a
// collection.
type PersistenceError struct {
	Op         string
	Collection string
	Err        error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s collection %q: %v", e.Op, e.Collection, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsPersistence reports whether err carries a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
