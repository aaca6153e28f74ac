package cached

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/geocoder89/eventrest/internal/cache"
	"github.com/geocoder89/eventrest/internal/domain/event"
	"github.com/geocoder89/eventrest/internal/utils"
)

type EventsStore interface {
	Create(ctx context.Context, e event.Event) (event.Event, error)
	GetByID(ctx context.Context, id int64) (event.Event, error)
	List(ctx context.Context, p event.PageRequest) (event.Page, error)
	Update(ctx context.Context, e event.Event) (event.Event, error)
}

// EventsRepo serves single-event lookups from a cache in front of another
// store. Cache failures are logged and fall through to the backing store.
type EventsRepo struct {
	next  EventsStore
	store cache.Store
	log   *slog.Logger
}

func NewEventsRepo(next EventsStore, store cache.Store, log *slog.Logger) *EventsRepo {
	if log == nil {
		log = slog.Default()
	}
	return &EventsRepo{next: next, store: store, log: log}
}

// ManagerID is not part of the public JSON shape, so it is carried alongside.
type cachedEvent struct {
	Event     event.Event `json:"event"`
	ManagerID string      `json:"managerId,omitempty"`
}

func (r *EventsRepo) Create(ctx context.Context, e event.Event) (event.Event, error) {
	return r.next.Create(ctx, e)
}

func (r *EventsRepo) List(ctx context.Context, p event.PageRequest) (event.Page, error) {
	return r.next.List(ctx, p)
}

func (r *EventsRepo) GetByID(ctx context.Context, id int64) (event.Event, error) {
	key := utils.BuildEventCacheKey(id)

	raw, ok, err := r.store.Get(ctx, key)
	if err != nil {
		r.log.WarnContext(ctx, "event cache get failed", "key", key, "err", err)
	}
	if ok {
		var c cachedEvent
		if err := json.Unmarshal(raw, &c); err == nil {
			c.Event.ManagerID = c.ManagerID
			return c.Event, nil
		}
		r.log.WarnContext(ctx, "event cache entry corrupt", "key", key)
	}

	e, err := r.next.GetByID(ctx, id)
	if err != nil {
		return event.Event{}, err
	}

	r.put(ctx, key, e)

	return e, nil
}

func (r *EventsRepo) Update(ctx context.Context, e event.Event) (event.Event, error) {
	key := utils.BuildEventCacheKey(e.ID)

	if err := r.store.Delete(ctx, key); err != nil {
		r.log.WarnContext(ctx, "event cache invalidate failed", "key", key, "err", err)
	}

	updated, err := r.next.Update(ctx, e)
	if err != nil {
		return event.Event{}, err
	}

	r.put(ctx, key, updated)

	return updated, nil
}

func (r *EventsRepo) put(ctx context.Context, key string, e event.Event) {
	b, err := json.Marshal(cachedEvent{Event: e, ManagerID: e.ManagerID})
	if err != nil {
		return
	}
	if err := r.store.Set(ctx, key, b); err != nil {
		r.log.WarnContext(ctx, "event cache set failed", "key", key, "err", err)
	}
}
