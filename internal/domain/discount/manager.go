package discount

import (
	"context"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/teahouse-backend/internal/domain"
	"github.com/xenking/teahouse-backend/internal/store"
)

// Manager provides CRUD, validation and redemption over the discount
// collection.
type Manager struct {
	discounts *store.Collection[Discount]
}

// NewManager creates a Manager over the given collection.
func NewManager(discounts *store.Collection[Discount]) *Manager {
	return &Manager{discounts: discounts}
}

// NewCollection returns the discount collection of s. It starts empty.
func NewCollection(s store.Store) *store.Collection[Discount] {
	return store.NewCollection[Discount](s, CollectionName)
}

// List returns every discount in stored order.
func (m *Manager) List(ctx context.Context) ([]Discount, error) {
	return m.discounts.Load(ctx)
}

// Upsert replaces the discount with the given id, or creates a new one when
// id is nil. Updates keep the stored UsedCount; creates start it at zero.
func (m *Manager) Upsert(ctx context.Context, in Input, id *int) (*Discount, error) {
	in, err := normalize(in)
	if err != nil {
		return nil, err
	}

	var saved Discount
	err = m.discounts.Update(ctx, func(discounts []Discount) ([]Discount, error) {
		if id == nil {
			if codeTaken(discounts, in.Code, 0) {
				return nil, domain.Invalid("code", "already in use")
			}
			saved = in.toDiscount(store.NextID(discounts, discountID), 0)
			return append(discounts, saved), nil
		}
		for i := range discounts {
			if discounts[i].ID != *id {
				continue
			}
			if codeTaken(discounts, in.Code, *id) {
				return nil, domain.Invalid("code", "already in use")
			}
			saved = in.toDiscount(*id, discounts[i].UsedCount)
			discounts[i] = saved
			return discounts, nil
		}
		return nil, &domain.NotFoundError{Entity: "discount", ID: *id}
	})
	if err != nil {
		return nil, err
	}

	zctx.From(ctx).Debug("Discount saved",
		zap.Int("discount_id", saved.ID),
		zap.String("code", saved.Code),
		zap.Bool("created", id == nil),
	)
	return &saved, nil
}

// Delete removes the discount with the given id. Deleting a missing discount
// is not an error.
func (m *Manager) Delete(ctx context.Context, id int) error {
	return m.discounts.Update(ctx, func(discounts []Discount) ([]Discount, error) {
		kept := discounts[:0]
		for _, d := range discounts {
			if d.ID != id {
				kept = append(kept, d)
			}
		}
		return kept, nil
	})
}

// Import appends every input whose code is not already present, in a single
// replace of the collection. It returns the number of discounts added.
// Invalid inputs fail the whole import.
func (m *Manager) Import(ctx context.Context, inputs []Input) (int, error) {
	normalized := make([]Input, 0, len(inputs))
	for _, in := range inputs {
		n, err := normalize(in)
		if err != nil {
			return 0, err
		}
		normalized = append(normalized, n)
	}

	added := 0
	err := m.discounts.Update(ctx, func(discounts []Discount) ([]Discount, error) {
		existing := make(map[string]struct{}, len(discounts)+len(normalized))
		for _, d := range discounts {
			existing[d.Code] = struct{}{}
		}
		next := store.NextID(discounts, discountID)
		for _, in := range normalized {
			if _, ok := existing[in.Code]; ok {
				continue
			}
			existing[in.Code] = struct{}{}
			discounts = append(discounts, in.toDiscount(next, 0))
			next++
			added++
		}
		return discounts, nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

// codeTaken reports whether a discount other than exceptID uses code.
func codeTaken(discounts []Discount, code string, exceptID int) bool {
	for _, d := range discounts {
		if d.Code == code && d.ID != exceptID {
			return true
		}
	}
	return false
}

// normalize validates in and maps a zero MaxUses to unlimited, matching the
// dashboard form where an empty field is sent as 0.
func normalize(in Input) (Input, error) {
	if strings.TrimSpace(in.Code) == "" {
		return in, domain.Invalid("code", "required")
	}
	if !in.Type.Valid() {
		return in, domain.Invalid("type", `must be "percentage" or "fixed"`)
	}
	if in.Value.IsNegative() {
		return in, domain.Invalid("value", "must not be negative")
	}
	if in.MinOrderAmount.IsNegative() {
		return in, domain.Invalid("minOrderAmount", "must not be negative")
	}
	if in.MaxUses != nil {
		switch {
		case *in.MaxUses < 0:
			return in, domain.Invalid("maxUses", "must be positive")
		case *in.MaxUses == 0:
			in.MaxUses = nil
		}
	}
	return in, nil
}
