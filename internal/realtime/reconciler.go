package realtime

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"tabletap/internal/domain"
)

// Reconciler keeps a locally held, newest-first list of orders consistent
// with server-side changes. Every mutation is an idempotent "set this id's
// state" operation, so duplicate or out-of-order notifications converge.
type Reconciler struct {
	mu     sync.RWMutex
	orders []domain.OrderView
}

func NewReconciler() *Reconciler {
	return &Reconciler{}
}

func newestFirst(orders []domain.OrderView) {
	sort.SliceStable(orders, func(i, j int) bool {
		a, b := orders[i].Order, orders[j].Order
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID.String() > b.ID.String()
	})
}

// Reload replaces the whole list with authoritative state.
func (r *Reconciler) Reload(views []domain.OrderView) {
	cp := make([]domain.OrderView, len(views))
	copy(cp, views)
	newestFirst(cp)

	r.mu.Lock()
	r.orders = cp
	r.mu.Unlock()
}

// Upsert replaces a known order in place without touching its neighbours;
// an unknown order is inserted at its created_at position.
func (r *Reconciler) Upsert(v domain.OrderView) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.orders {
		if r.orders[i].Order.ID == v.Order.ID {
			r.orders[i] = v
			return
		}
	}
	r.orders = append(r.orders, v)
	newestFirst(r.orders)
}

func (r *Reconciler) Remove(id uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.orders {
		if r.orders[i].Order.ID == id {
			r.orders = append(r.orders[:i], r.orders[i+1:]...)
			return
		}
	}
}

// SetStatus applies a staff-initiated status change optimistically, before
// the server acknowledges. It returns the previous status so a failed write
// can be rolled back by reload.
func (r *Reconciler) SetStatus(id uuid.UUID, status domain.OrderStatus) (domain.OrderStatus, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.orders {
		if r.orders[i].Order.ID == id {
			prev := r.orders[i].Order.Status
			r.orders[i].Order.Status = status
			return prev, true
		}
	}
	return "", false
}

func (r *Reconciler) Get(id uuid.UUID) (domain.OrderView, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, v := range r.orders {
		if v.Order.ID == id {
			return v, true
		}
	}
	return domain.OrderView{}, false
}

// Snapshot returns a copy of the current list, newest first.
func (r *Reconciler) Snapshot() []domain.OrderView {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cp := make([]domain.OrderView, len(r.orders))
	copy(cp, r.orders)
	return cp
}

// Stats counts orders per status for the dashboard header.
func (r *Reconciler) Stats() map[domain.OrderStatus]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[domain.OrderStatus]int)
	for _, v := range r.orders {
		stats[v.Order.Status]++
	}
	return stats
}
