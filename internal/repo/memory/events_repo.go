package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/eventrest/internal/domain/event"
)

type EventsRepo struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]event.Event
}

func NewEventsRepo() *EventsRepo {
	return &EventsRepo{
		items: make(map[int64]event.Event),
	}
}

func (r *EventsRepo) Create(ctx context.Context, e event.Event) (event.Event, error) {
	r.mu.Lock()
	r.nextID++
	e.ID = r.nextID
	r.items[e.ID] = e
	r.mu.Unlock()

	return e, nil
}

func (r *EventsRepo) GetByID(ctx context.Context, id int64) (event.Event, error) {
	r.mu.RLock()
	e, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return event.Event{}, event.ErrNotFound
	}
	return e, nil
}

func (r *EventsRepo) Update(ctx context.Context, e event.Event) (event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[e.ID]; !ok {
		return event.Event{}, event.ErrNotFound
	}

	e.UpdatedAt = time.Now().UTC()
	r.items[e.ID] = e

	return e, nil
}

func (r *EventsRepo) List(ctx context.Context, p event.PageRequest) (event.Page, error) {
	r.mu.RLock()
	all := make([]event.Event, 0, len(r.items))
	for _, e := range r.items {
		all = append(all, e)
	}
	r.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool {
		for _, o := range p.Sort {
			c := compareField(all[i], all[j], o.Field)
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		// stable ordering for pagination
		return all[i].ID < all[j].ID
	})

	page := event.Page{Items: []event.Event{}, Total: len(all)}

	start := p.Offset()
	if start < 0 || start >= len(all) {
		return page, nil
	}
	end := start + p.Size
	if end > len(all) {
		end = len(all)
	}

	page.Items = append(page.Items, all[start:end]...)

	return page, nil
}

func compareField(a, b event.Event, field string) int {
	switch field {
	case "id":
		return compareInt(a.ID, b.ID)
	case "name":
		return strings.Compare(a.Name, b.Name)
	case "beginEnrollmentDateTime":
		return a.BeginEnrollmentDateTime.Compare(b.BeginEnrollmentDateTime)
	case "beginEventDateTime":
		return a.BeginEventDateTime.Compare(b.BeginEventDateTime)
	case "endEventDateTime":
		return a.EndEventDateTime.Compare(b.EndEventDateTime)
	case "basePrice":
		return compareInt(int64(a.BasePrice), int64(b.BasePrice))
	case "limitOfEnrollment":
		return compareInt(int64(a.LimitOfEnrollment), int64(b.LimitOfEnrollment))
	default:
		return 0
	}
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
