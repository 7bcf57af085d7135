package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"tabletap/internal/connections/rabbitmq"
	"tabletap/internal/domain"
	"tabletap/internal/logger"
)

// Fetcher re-reads authoritative order state. Notifications are treated as
// hints only; displayed state always comes from a fetch.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]domain.OrderView, error)
	FetchOne(ctx context.Context, id uuid.UUID) (domain.OrderView, error)
}

// Applier folds order events into a reconciler. Split from the transport so
// the convergence rules are testable without a broker.
type Applier struct {
	rec     *Reconciler
	fetcher Fetcher
	lg      *logger.Logger
}

func NewApplier(rec *Reconciler, fetcher Fetcher, lg *logger.Logger) *Applier {
	return &Applier{rec: rec, fetcher: fetcher, lg: lg}
}

// Reload pulls the full list. Used on startup and after any gap in the
// stream, so the local list never stays silently stale.
func (a *Applier) Reload(ctx context.Context) error {
	views, err := a.fetcher.FetchAll(ctx)
	if err != nil {
		return err
	}
	a.rec.Reload(views)
	return nil
}

// Apply handles one notification. An insert triggers a full reload (simple,
// and converges); an update re-fetches just that order and falls back to a
// full reload if the re-fetch fails; a delete removes the id locally.
func (a *Applier) Apply(ctx context.Context, ev domain.OrderEvent) {
	switch ev.Type {
	case domain.EventInsert:
		if err := a.Reload(ctx); err != nil {
			a.lg.Error("realtime_reload_failed", err, map[string]any{"order_id": ev.OrderID})
		}
	case domain.EventUpdate:
		view, err := a.fetcher.FetchOne(ctx, ev.OrderID)
		if err != nil {
			a.lg.Error("realtime_refetch_failed", err, map[string]any{"order_id": ev.OrderID})
			if err := a.Reload(ctx); err != nil {
				a.lg.Error("realtime_reload_failed", err, map[string]any{"order_id": ev.OrderID})
			}
			return
		}
		a.rec.Upsert(view)
	case domain.EventDelete:
		a.rec.Remove(ev.OrderID)
	default:
		a.lg.Warn("realtime_unknown_event", map[string]any{"type": ev.Type, "order_id": ev.OrderID})
	}
}

// Subscriber owns the subscription lifecycle: connect, consume, and on a
// dropped channel resubscribe with backoff and reload once reconnected.
type Subscriber struct {
	mq      *rabbitmq.Client
	pattern string
	name    string
	applier *Applier
	lg      *logger.Logger
}

func NewSubscriber(mq *rabbitmq.Client, pattern, name string, applier *Applier, lg *logger.Logger) *Subscriber {
	return &Subscriber{mq: mq, pattern: pattern, name: name, applier: applier, lg: lg}
}

// Run blocks until ctx is canceled. The subscription is torn down on every
// exit path; a dangling consumer after teardown is a resource leak.
func (s *Subscriber) Run(ctx context.Context) error {
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		sub, deliveries, err := s.mq.Subscribe(s.pattern, s.name)
		if err != nil {
			s.lg.Error("realtime_subscribe_failed", errors.Join(domain.ErrRealtimeDisconnected, err), map[string]any{"pattern": s.pattern})
			select {
			case <-time.After(backoff):
				backoff = min(backoff*2, maxBackoff)
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		backoff = time.Second
		s.lg.Info("realtime_subscribed", map[string]any{"pattern": s.pattern})

		// Full reload after every (re)connect closes any gap in the stream.
		if err := s.applier.Reload(ctx); err != nil {
			s.lg.Error("realtime_reload_failed", err, nil)
		}

		dropped := s.consume(ctx, sub, deliveries)
		sub.Cancel()
		if !dropped {
			return ctx.Err()
		}
		s.lg.Warn("realtime_disconnected", map[string]any{"pattern": s.pattern})
		select {
		case <-time.After(backoff):
			backoff = min(backoff*2, maxBackoff)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// consume reports true when the channel dropped and a resubscribe is needed,
// false on context cancellation.
func (s *Subscriber) consume(ctx context.Context, sub *rabbitmq.Subscription, deliveries <-chan amqp.Delivery) bool {
	for {
		select {
		case <-ctx.Done():
			return false
		case <-sub.Closed():
			return true
		case d, ok := <-deliveries:
			if !ok {
				return true
			}
			var ev domain.OrderEvent
			if err := json.Unmarshal(d.Body, &ev); err != nil {
				s.lg.Error("realtime_bad_payload", err, nil)
				continue
			}
			s.applier.Apply(ctx, ev)
		}
	}
}
