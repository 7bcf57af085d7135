package realtime

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabletap/internal/domain"
	"tabletap/internal/logger"
)

type fakeFetcher struct {
	all       []domain.OrderView
	allErr    error
	oneErr    error
	allCalls  int
	oneCalls  int
	fetchedID uuid.UUID
}

func (f *fakeFetcher) FetchAll(ctx context.Context) ([]domain.OrderView, error) {
	f.allCalls++
	if f.allErr != nil {
		return nil, f.allErr
	}
	return f.all, nil
}

func (f *fakeFetcher) FetchOne(ctx context.Context, id uuid.UUID) (domain.OrderView, error) {
	f.oneCalls++
	f.fetchedID = id
	if f.oneErr != nil {
		return domain.OrderView{}, f.oneErr
	}
	for _, v := range f.all {
		if v.Order.ID == id {
			return v, nil
		}
	}
	return domain.OrderView{}, fmt.Errorf("%w: order", domain.ErrNotFound)
}

func TestApplyInsertReloadsFullList(t *testing.T) {
	rec := NewReconciler()
	now := time.Now()
	existing := view(uuid.New(), domain.StatusPending, now.Add(-time.Minute))
	fresh := view(uuid.New(), domain.StatusPending, now)
	fetcher := &fakeFetcher{all: []domain.OrderView{existing, fresh}}
	applier := NewApplier(rec, fetcher, logger.New("test"))

	rec.Reload([]domain.OrderView{existing})
	applier.Apply(context.Background(), domain.OrderEvent{Type: domain.EventInsert, OrderID: fresh.Order.ID})

	got := rec.Snapshot()
	require.Len(t, got, 2)
	assert.Equal(t, fresh.Order.ID, got[0].Order.ID)
	assert.Equal(t, 1, fetcher.allCalls)
}

func TestApplyUpdateRefetchesSingleOrder(t *testing.T) {
	rec := NewReconciler()
	v := view(uuid.New(), domain.StatusPending, time.Now())
	rec.Reload([]domain.OrderView{v})

	changed := v
	changed.Order.Status = domain.StatusPreparing
	fetcher := &fakeFetcher{all: []domain.OrderView{changed}}
	applier := NewApplier(rec, fetcher, logger.New("test"))

	applier.Apply(context.Background(), domain.OrderEvent{Type: domain.EventUpdate, OrderID: v.Order.ID})

	got, ok := rec.Get(v.Order.ID)
	require.True(t, ok)
	assert.Equal(t, domain.StatusPreparing, got.Order.Status)
	assert.Equal(t, v.Order.ID, fetcher.fetchedID)
	assert.Equal(t, 1, fetcher.oneCalls)
	assert.Equal(t, 0, fetcher.allCalls)
}

func TestApplyUpdateFallsBackToReloadOnFetchFailure(t *testing.T) {
	rec := NewReconciler()
	v := view(uuid.New(), domain.StatusPending, time.Now())
	rec.Reload([]domain.OrderView{v})

	authoritative := v
	authoritative.Order.Status = domain.StatusReady
	fetcher := &fakeFetcher{
		all:    []domain.OrderView{authoritative},
		oneErr: fmt.Errorf("%w: connection reset", domain.ErrStorage),
	}
	applier := NewApplier(rec, fetcher, logger.New("test"))

	applier.Apply(context.Background(), domain.OrderEvent{Type: domain.EventUpdate, OrderID: v.Order.ID})

	got, ok := rec.Get(v.Order.ID)
	require.True(t, ok)
	assert.Equal(t, domain.StatusReady, got.Order.Status)
	assert.Equal(t, 1, fetcher.allCalls)
}

func TestApplyDeleteRemovesLocally(t *testing.T) {
	rec := NewReconciler()
	v := view(uuid.New(), domain.StatusPending, time.Now())
	rec.Reload([]domain.OrderView{v})
	fetcher := &fakeFetcher{}
	applier := NewApplier(rec, fetcher, logger.New("test"))

	applier.Apply(context.Background(), domain.OrderEvent{Type: domain.EventDelete, OrderID: v.Order.ID})

	assert.Empty(t, rec.Snapshot())
	// No fetch needed for a delete.
	assert.Equal(t, 0, fetcher.allCalls)
	assert.Equal(t, 0, fetcher.oneCalls)
}

func TestApplyDuplicateUpdatesConverge(t *testing.T) {
	rec := NewReconciler()
	v := view(uuid.New(), domain.StatusConfirmed, time.Now())
	fetcher := &fakeFetcher{all: []domain.OrderView{v}}
	applier := NewApplier(rec, fetcher, logger.New("test"))

	require.NoError(t, applier.Reload(context.Background()))
	ev := domain.OrderEvent{Type: domain.EventUpdate, OrderID: v.Order.ID}
	applier.Apply(context.Background(), ev)
	applier.Apply(context.Background(), ev)
	applier.Apply(context.Background(), ev)

	got := rec.Snapshot()
	require.Len(t, got, 1)
	assert.Equal(t, domain.StatusConfirmed, got[0].Order.Status)
}

func TestApplyUnknownEventTypeIgnored(t *testing.T) {
	rec := NewReconciler()
	v := view(uuid.New(), domain.StatusPending, time.Now())
	rec.Reload([]domain.OrderView{v})
	applier := NewApplier(rec, &fakeFetcher{}, logger.New("test"))

	applier.Apply(context.Background(), domain.OrderEvent{Type: "truncate", OrderID: v.Order.ID})

	assert.Len(t, rec.Snapshot(), 1)
}

func TestReloadPropagatesFetchError(t *testing.T) {
	rec := NewReconciler()
	fetcher := &fakeFetcher{allErr: fmt.Errorf("%w: down", domain.ErrStorage)}
	applier := NewApplier(rec, fetcher, logger.New("test"))

	err := applier.Reload(context.Background())
	require.ErrorIs(t, err, domain.ErrStorage)
	assert.Empty(t, rec.Snapshot())
}
