package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/eventrest/internal/domain/event"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const eventColumns = `id, name, description,
		begin_enrollment_at, close_enrollment_at, begin_event_at, end_event_at,
		location, base_price, max_price, limit_of_enrollment,
		offline, free, event_status, COALESCE(manager_id::text, ''),
		created_at, updated_at`

// sortColumns maps JSON field names to columns; only these may appear in ORDER BY.
var sortColumns = map[string]string{
	"id":                      "id",
	"name":                    "name",
	"beginEnrollmentDateTime": "begin_enrollment_at",
	"beginEventDateTime":      "begin_event_at",
	"endEventDateTime":        "end_event_at",
	"basePrice":               "base_price",
	"limitOfEnrollment":       "limit_of_enrollment",
}

type EventsRepo struct {
	pool *pgxpool.Pool
	obs  DBObserver
}

func NewEventsRepo(pool *pgxpool.Pool, obs DBObserver) *EventsRepo {
	return &EventsRepo{
		pool: pool,
		obs:  observerOrNoop(obs),
	}
}

func scanEvent(row pgx.Row, e *event.Event, extra ...any) error {
	var status string

	dest := []any{
		&e.ID, &e.Name, &e.Description,
		&e.BeginEnrollmentDateTime, &e.CloseEnrollmentDateTime, &e.BeginEventDateTime, &e.EndEventDateTime,
		&e.Location, &e.BasePrice, &e.MaxPrice, &e.LimitOfEnrollment,
		&e.Offline, &e.Free, &status, &e.ManagerID,
		&e.CreatedAt, &e.UpdatedAt,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		return err
	}
	e.EventStatus = event.Status(status)
	return nil
}

func (r *EventsRepo) Create(ctx context.Context, e event.Event) (event.Event, error) {
	var managerID *string
	if e.ManagerID != "" {
		managerID = &e.ManagerID
	}

	err := r.obs.ObserveDB("events.create", func() error {
		return r.pool.QueryRow(ctx,
			`INSERT INTO events(
				name, description,
				begin_enrollment_at, close_enrollment_at, begin_event_at, end_event_at,
				location, base_price, max_price, limit_of_enrollment,
				offline, free, event_status, manager_id, created_at, updated_at)
			VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
			RETURNING id`,
			e.Name, e.Description,
			e.BeginEnrollmentDateTime, e.CloseEnrollmentDateTime, e.BeginEventDateTime, e.EndEventDateTime,
			e.Location, e.BasePrice, e.MaxPrice, e.LimitOfEnrollment,
			e.Offline, e.Free, string(e.EventStatus), managerID, e.CreatedAt, e.UpdatedAt,
		).Scan(&e.ID)
	})
	if err != nil {
		return event.Event{}, fmt.Errorf("insert event: %w", err)
	}

	return e, nil
}

func (r *EventsRepo) GetByID(ctx context.Context, id int64) (event.Event, error) {
	var e event.Event

	err := r.obs.ObserveDB("events.get", func() error {
		row := r.pool.QueryRow(ctx, `SELECT `+eventColumns+` FROM events WHERE id = $1`, id)
		return scanEvent(row, &e)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return event.Event{}, event.ErrNotFound
		}
		return event.Event{}, fmt.Errorf("get event %d: %w", id, err)
	}

	return e, nil
}

func (r *EventsRepo) List(ctx context.Context, p event.PageRequest) (event.Page, error) {
	query := `SELECT ` + eventColumns + `, COUNT(*) OVER() AS total FROM events` +
		orderBy(p.Sort) + ` LIMIT $1 OFFSET $2`

	page := event.Page{Items: make([]event.Event, 0, p.Size)}

	err := r.obs.ObserveDB("events.list", func() error {
		rows, err := r.pool.Query(ctx, query, p.Size, p.Offset())
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var e event.Event
			if err := scanEvent(rows, &e, &page.Total); err != nil {
				return err
			}
			page.Items = append(page.Items, e)
		}
		return rows.Err()
	})
	if err != nil {
		return event.Page{}, fmt.Errorf("list events: %w", err)
	}

	// COUNT(*) OVER() yields nothing past the last page
	if len(page.Items) == 0 && p.Offset() > 0 {
		err = r.obs.ObserveDB("events.count", func() error {
			return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM events`).Scan(&page.Total)
		})
		if err != nil {
			return event.Page{}, fmt.Errorf("count events: %w", err)
		}
	}

	return page, nil
}

func orderBy(sort []event.SortOrder) string {
	parts := make([]string, 0, len(sort)+1)
	hasID := false

	for _, o := range sort {
		col, ok := sortColumns[o.Field]
		if !ok {
			continue
		}
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		parts = append(parts, col+" "+dir)
		if col == "id" {
			hasID = true
		}
	}

	// stable ordering for pagination
	if !hasID {
		parts = append(parts, "id ASC")
	}

	return " ORDER BY " + strings.Join(parts, ", ")
}

// Update persists the mutable fields (name, description) of e.
func (r *EventsRepo) Update(ctx context.Context, e event.Event) (event.Event, error) {
	var out event.Event

	err := r.obs.ObserveDB("events.update", func() error {
		row := r.pool.QueryRow(ctx,
			`UPDATE events
				SET name = $2,
					description = $3,
					updated_at = NOW()
			WHERE id = $1
			RETURNING `+eventColumns,
			e.ID, e.Name, e.Description,
		)
		return scanEvent(row, &out)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return event.Event{}, event.ErrNotFound
		}
		return event.Event{}, fmt.Errorf("update event %d: %w", e.ID, err)
	}

	return out, nil
}
