// Package order records customer orders and their fulfilment status.
package order

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/teahouse-backend/internal/domain"
	"github.com/xenking/teahouse-backend/internal/events"
	"github.com/xenking/teahouse-backend/internal/store"
)

// Manager creates orders and moves them between statuses.
type Manager struct {
	orders *store.Collection[Order]
	events events.Publisher
	now    func() time.Time
}

// NewManager creates a Manager over the given collection. Events are
// published after every successful mutation.
func NewManager(orders *store.Collection[Order], publisher events.Publisher) *Manager {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Manager{
		orders: orders,
		events: publisher,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// NewCollection returns the order collection of s. It starts empty.
func NewCollection(s store.Store) *store.Collection[Order] {
	return store.NewCollection[Order](s, CollectionName)
}

// List returns every order in stored order.
func (m *Manager) List(ctx context.Context) ([]Order, error) {
	return m.orders.Load(ctx)
}

// Create records a new pending order and returns its id.
func (m *Manager) Create(ctx context.Context, req CreateRequest) (int, error) {
	if req.Total.IsNegative() {
		return 0, domain.Invalid("total", "must not be negative")
	}

	chair := strings.TrimSpace(req.ChairNumber)
	if chair == "" {
		chair = DefaultChairNumber
	}
	items := req.Items
	if items == nil {
		items = []json.RawMessage{}
	}

	var created Order
	err := m.orders.Update(ctx, func(orders []Order) ([]Order, error) {
		created = Order{
			ID:              store.NextID(orders, orderID),
			Items:           items,
			Total:           req.Total,
			CustomerInfo:    req.CustomerInfo,
			PaymentIntentID: req.PaymentIntentID,
			ChairNumber:     chair,
			DiscountCode:    req.DiscountCode,
			Status:          StatusPending,
			CreatedAt:       m.now(),
		}
		return append(orders, created), nil
	})
	if err != nil {
		return 0, err
	}

	zctx.From(ctx).Info("Order created",
		zap.Int("order_id", created.ID),
		zap.Stringer("total", created.Total),
		zap.String("chair", created.ChairNumber),
	)
	total := created.Total
	m.publish(ctx, events.Event{
		Type:    events.OrderCreated,
		OrderID: created.ID,
		Status:  string(created.Status),
		Total:   &total,
	})
	return created.ID, nil
}

// UpdateStatus moves the order to status. Completing an order, even one
// that is already completed, stamps CompletedAt with the current time;
// reopening it leaves CompletedAt untouched.
func (m *Manager) UpdateStatus(ctx context.Context, id int, status Status) error {
	if !status.Valid() {
		return domain.Invalid("status", `must be "pending" or "completed"`)
	}

	err := m.orders.Update(ctx, func(orders []Order) ([]Order, error) {
		for i := range orders {
			if orders[i].ID == id {
				m.transition(&orders[i], status)
				return orders, nil
			}
		}
		return nil, &domain.NotFoundError{Entity: "order", ID: id}
	})
	if err != nil {
		return err
	}

	m.publish(ctx, events.Event{
		Type:    events.OrderStatusChanged,
		OrderID: id,
		Status:  string(status),
	})
	return nil
}

// Delete removes the order with the given id from any status. Deleting a
// missing order is not an error.
func (m *Manager) Delete(ctx context.Context, id int) error {
	removed := false
	err := m.orders.Update(ctx, func(orders []Order) ([]Order, error) {
		kept := orders[:0]
		for _, o := range orders {
			if o.ID == id {
				removed = true
				continue
			}
			kept = append(kept, o)
		}
		return kept, nil
	})
	if err != nil {
		return err
	}

	if removed {
		m.publish(ctx, events.Event{Type: events.OrderDeleted, OrderID: id})
	}
	return nil
}

// BulkComplete completes every pending order in a single replace of the
// collection and returns how many orders changed.
func (m *Manager) BulkComplete(ctx context.Context) (int, error) {
	var completed []int
	err := m.orders.Update(ctx, func(orders []Order) ([]Order, error) {
		completed = completed[:0]
		for i := range orders {
			if orders[i].Status == StatusPending {
				m.transition(&orders[i], StatusCompleted)
				completed = append(completed, orders[i].ID)
			}
		}
		return orders, nil
	})
	if err != nil {
		return 0, err
	}

	zctx.From(ctx).Info("Pending orders completed", zap.Int("count", len(completed)))
	changed := make([]events.Event, 0, len(completed))
	for _, id := range completed {
		changed = append(changed, events.Event{
			Type:    events.OrderStatusChanged,
			OrderID: id,
			Status:  string(StatusCompleted),
		})
	}
	m.publish(ctx, changed...)
	return len(completed), nil
}

func (m *Manager) transition(o *Order, status Status) {
	o.Status = status
	if status == StatusCompleted {
		now := m.now()
		o.CompletedAt = &now
	}
}

// publish delivers es on a best-effort basis: the mutation is already
// persisted, so a delivery failure is logged rather than returned.
func (m *Manager) publish(ctx context.Context, es ...events.Event) {
	if len(es) == 0 {
		return
	}
	now := m.now()
	for i := range es {
		es[i].OccurredAt = now
	}
	if err := m.events.Publish(ctx, es...); err != nil {
		zctx.From(ctx).Warn("Publish order events",
			zap.String("type", es[0].Type),
			zap.Int("order_id", es[0].OrderID),
			zap.Int("count", len(es)),
			zap.Error(err),
		)
	}
}
