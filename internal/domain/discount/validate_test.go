package discount

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/teahouse-backend/internal/store"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func intPtr(v int) *int { return &v }

// newManagerWith persists discounts verbatim, including UsedCount.
func newManagerWith(t *testing.T, discounts ...Discount) *Manager {
	t.Helper()
	if discounts == nil {
		discounts = []Discount{}
	}
	data, err := json.Marshal(discounts)
	require.NoError(t, err)

	s := store.NewMemory()
	require.NoError(t, s.Replace(context.Background(), CollectionName, data))
	return NewManager(NewCollection(s))
}

func TestManager_Validate(t *testing.T) {
	discounts := []Discount{
		{
			ID: 1, Name: "Save ten", Code: "SAVE10", Type: TypePercentage,
			Value: d("10"), MinOrderAmount: d("5"), MaxUses: intPtr(2), UsedCount: 2,
		},
		{
			ID: 2, Name: "Two off", Code: "FLAT2", Type: TypeFixed,
			Value: d("2"), MinOrderAmount: d("10"),
		},
		{
			ID: 3, Name: "Half price", Code: "PCT50", Type: TypePercentage,
			Value: d("50"),
		},
		{
			ID: 4, Name: "Big fixed", Code: "BIG", Type: TypeFixed,
			Value: d("25"),
		},
		{
			ID: 5, Name: "Room left", Code: "LIMITED", Type: TypeFixed,
			Value: d("1"), MaxUses: intPtr(3), UsedCount: 2,
		},
	}

	tests := []struct {
		name         string
		code         string
		total        decimal.Decimal
		wantValid    bool
		wantReason   Reason
		wantRequired *decimal.Decimal
		wantAmount   decimal.Decimal
		wantID       int
	}{
		{
			name:       "unknown code",
			code:       "UNKNOWN",
			total:      d("10.00"),
			wantReason: ReasonInvalidCode,
		},
		{
			name:       "lookup is case-sensitive",
			code:       "save10",
			total:      d("20"),
			wantReason: ReasonInvalidCode,
		},
		{
			name:       "usage limit reached reports expired",
			code:       "SAVE10",
			total:      d("20"),
			wantReason: ReasonExpired,
		},
		{
			name:         "below minimum order amount",
			code:         "FLAT2",
			total:        d("5"),
			wantReason:   ReasonMinimumNotMet,
			wantRequired: func() *decimal.Decimal { v := d("10"); return &v }(),
		},
		{
			name:       "exactly at minimum order amount",
			code:       "FLAT2",
			total:      d("10"),
			wantValid:  true,
			wantAmount: d("2"),
			wantID:     2,
		},
		{
			name:       "percentage of total",
			code:       "PCT50",
			total:      d("19.98"),
			wantValid:  true,
			wantAmount: d("9.99"),
			wantID:     3,
		},
		{
			name:       "percentage rounds to cents",
			code:       "PCT50",
			total:      d("0.99"),
			wantValid:  true,
			wantAmount: d("0.50"),
			wantID:     3,
		},
		{
			name:       "fixed amount may exceed total",
			code:       "BIG",
			total:      d("4.50"),
			wantValid:  true,
			wantAmount: d("25"),
			wantID:     4,
		},
		{
			name:       "uses remaining",
			code:       "LIMITED",
			total:      d("3"),
			wantValid:  true,
			wantAmount: d("1"),
			wantID:     5,
		},
	}

	m := newManagerWith(t, discounts...)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Validate(context.Background(), tt.code, tt.total)
			require.NoError(t, err)
			require.NotNil(t, got)

			assert.Equal(t, tt.wantValid, got.Valid)
			assert.Equal(t, tt.wantReason, got.Reason)
			if tt.wantRequired != nil {
				require.NotNil(t, got.Required)
				assert.True(t, tt.wantRequired.Equal(*got.Required))
			} else {
				assert.Nil(t, got.Required)
			}
			if !tt.wantValid {
				assert.Nil(t, got.Discount)
				return
			}
			require.NotNil(t, got.Discount)
			assert.Equal(t, tt.wantID, got.Discount.ID)
			assert.True(t, tt.wantAmount.Equal(got.Discount.Amount),
				"expected amount %s, got %s", tt.wantAmount, got.Discount.Amount)
		})
	}
}

func TestManager_ValidateIsReadOnly(t *testing.T) {
	ctx := context.Background()
	m := newManagerWith(t, Discount{
		ID: 1, Code: "PCT50", Type: TypePercentage, Value: d("50"), MaxUses: intPtr(1),
	})

	for range 3 {
		got, err := m.Validate(ctx, "PCT50", d("10"))
		require.NoError(t, err)
		assert.True(t, got.Valid)
	}

	discounts, err := m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, discounts[0].UsedCount)
}

func TestManager_ValidateFirstMatchWins(t *testing.T) {
	// Duplicates can only come from data written before codes were unique.
	m := newManagerWith(t,
		Discount{ID: 1, Code: "DUP", Type: TypeFixed, Value: d("1")},
		Discount{ID: 2, Code: "DUP", Type: TypeFixed, Value: d("5")},
	)

	got, err := m.Validate(context.Background(), "DUP", d("10"))
	require.NoError(t, err)
	require.True(t, got.Valid)
	assert.Equal(t, 1, got.Discount.ID)
}

func TestManager_Redeem(t *testing.T) {
	ctx := context.Background()
	m := newManagerWith(t,
		Discount{ID: 1, Code: "ONCE", Type: TypeFixed, Value: d("1"), MaxUses: intPtr(1)},
		Discount{ID: 2, Code: "ALWAYS", Type: TypeFixed, Value: d("1")},
	)

	redeemed, err := m.Redeem(ctx, "ONCE")
	require.NoError(t, err)
	assert.Equal(t, 1, redeemed.UsedCount)

	_, err = m.Redeem(ctx, "ONCE")
	require.ErrorIs(t, err, ErrExhausted)

	res, err := m.Validate(ctx, "ONCE", d("10"))
	require.NoError(t, err)
	assert.Equal(t, ReasonExpired, res.Reason)

	for range 5 {
		_, err = m.Redeem(ctx, "ALWAYS")
		require.NoError(t, err)
	}
	discounts, err := m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, discounts[1].UsedCount)

	_, err = m.Redeem(ctx, "NOPE")
	require.ErrorIs(t, err, ErrInvalidCode)
}

func TestManager_RedeemConcurrentRespectsLimit(t *testing.T) {
	ctx := context.Background()
	m := newManagerWith(t, Discount{ID: 1, Code: "FIVE", Type: TypeFixed, Value: d("1"), MaxUses: intPtr(5)})

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Redeem(ctx, "FIVE"); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, ok)
	discounts, err := m.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, discounts[0].UsedCount)
}
