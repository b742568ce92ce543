package app

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"booksphere/internal/util"
	"booksphere/pkg/domain"
	"booksphere/pkg/store"
)

// Orders owns the purchase records. Orders are immutable and append-only;
// nothing here ever mutates books or users.
type Orders struct {
	mu     sync.RWMutex
	store  store.Store
	orders []domain.Order
}

// NewOrders loads the orders collection. There is no seed data; a fresh
// store starts with an empty history.
func NewOrders(ctx context.Context, s store.Store) (*Orders, error) {
	orders, ok, err := store.LoadCollection[domain.Order](ctx, s, store.CollectionOrders)
	if err != nil {
		return nil, err
	}
	if !ok {
		orders = []domain.Order{}
		if err := store.SaveCollection(ctx, s, store.CollectionOrders, orders); err != nil {
			return nil, err
		}
	}
	return &Orders{store: s, orders: orders}, nil
}

// CreateOrder freezes the cart into a completed order. The total is taken
// from the caller as-is and is not recomputed from the line items.
func (o *Orders) CreateOrder(ctx context.Context, userID string, items []domain.CartItem, totalAmount float64) (domain.Order, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	order := domain.Order{
		ID:            util.NewID(),
		UserID:        userID,
		Items:         items,
		TotalAmount:   totalAmount,
		Date:          time.Now().UTC(),
		Status:        domain.OrderCompleted,
		PaymentMethod: "card",
		DownloadToken: uuid.NewString(),
	}
	// Newest orders sit at the front, so per-user history comes out
	// most-recent-first without a sort.
	o.orders = append([]domain.Order{order}, o.orders...)
	if err := store.SaveCollection(ctx, o.store, store.CollectionOrders, o.orders); err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

// GetUserOrders returns a user's purchase history, most recent first.
func (o *Orders) GetUserOrders(_ context.Context, userID string) []domain.Order {
	o.mu.RLock()
	defer o.mu.RUnlock()
	out := make([]domain.Order, 0, len(o.orders))
	for _, ord := range o.orders {
		if ord.UserID == userID {
			out = append(out, ord)
		}
	}
	return out
}
