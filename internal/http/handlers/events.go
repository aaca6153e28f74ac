package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/geocoder89/eventrest/internal/actorctx"
	"github.com/geocoder89/eventrest/internal/domain/event"
	"github.com/geocoder89/eventrest/internal/hal"
	"github.com/geocoder89/eventrest/internal/http/middlewares"
	"github.com/geocoder89/eventrest/internal/observability"
	"github.com/geocoder89/eventrest/internal/utils"
	"github.com/gin-gonic/gin"
)

const profileDoc = "docs/openapi.yaml"

type EventsStore interface {
	Create(ctx context.Context, e event.Event) (event.Event, error)
	GetByID(ctx context.Context, id int64) (event.Event, error)
	List(ctx context.Context, p event.PageRequest) (event.Page, error)
	Update(ctx context.Context, e event.Event) (event.Event, error)
}

type EventsHandler struct {
	repo EventsStore
	prom *observability.Prom
	log  *slog.Logger
}

func NewEventsHandler(repo EventsStore, prom *observability.Prom, log *slog.Logger) *EventsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &EventsHandler{repo: repo, prom: prom, log: log}
}

type managerRef struct {
	ID string `json:"id"`
}

// EventResource is an event as rendered to clients.
type EventResource struct {
	event.Event
	Manager *managerRef `json:"manager,omitempty"`
	Links   hal.Links   `json:"_links"`
}

type pageMetadata struct {
	Size          int `json:"size"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
	Number        int `json:"number"`
}

type eventListEmbedded struct {
	EventList []EventResource `json:"eventList"`
}

// EventPageResource is one page of the event collection.
type EventPageResource struct {
	Embedded *eventListEmbedded `json:"_embedded,omitempty"`
	Links    hal.Links          `json:"_links"`
	Page     pageMetadata       `json:"page"`
}

func toResource(e event.Event, links hal.Links) EventResource {
	res := EventResource{Event: e, Links: links}
	if e.ManagerID != "" {
		res.Manager = &managerRef{ID: e.ManagerID}
	}
	return res
}

func eventHref(b hal.Builder, id int64) string {
	return b.Href("api", "events", strconv.FormatInt(id, 10))
}

func profileHref(b hal.Builder) string {
	return b.Href(profileDoc)
}

// parseEventID only accepts positive integers; anything else is treated as
// an unknown event.
func parseEventID(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *EventsHandler) CreateEvent(ctx *gin.Context) {
	var in event.EventInput

	if !BindJSON(ctx, &in) {
		return
	}

	if rejections := event.Validate(in); len(rejections) > 0 {
		if h.prom != nil {
			for _, r := range rejections {
				h.prom.ValidationRejections.WithLabelValues(r.Field, r.Code).Inc()
			}
		}
		RespondBadRequest(ctx, "Event input was rejected", fieldErrorsFromRejections(rejections))
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	// anonymous creation leaves the event without a manager
	managerID := actorctx.AccountID(cctx)

	created, err := h.repo.Create(cctx, event.NewFromInput(in, managerID))
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "create event failed", "err", err, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx, "Could not create event")
		return
	}

	if h.prom != nil {
		h.prom.EventsCreated.Inc()
	}

	b := linkBuilder(ctx)
	self := eventHref(b, created.ID)

	links := hal.Links{}.
		Add("self", self).
		Add("query-events", b.Href("api", "events")).
		Add("update-event", self).
		Add("profile", profileHref(b)+"#/paths/~1api~1events/post")

	ctx.Header("Location", self)
	RespondHAL(ctx, http.StatusCreated, toResource(created, links))
}

func (h *EventsHandler) ListEvents(ctx *gin.Context) {
	query := ctx.Request.URL.Query()

	pr, err := utils.ParsePageRequest(query, event.SortableFields)
	if err != nil {
		RespondBadRequest(ctx, err.Error(), nil)
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	page, err := h.repo.List(cctx, pr)
	if err != nil {
		h.log.ErrorContext(ctx.Request.Context(), "list events failed", "err", err, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx, "Could not list events")
		return
	}

	b := linkBuilder(ctx)
	totalPages := page.TotalPages(pr.Size)

	res := EventPageResource{
		Links: hal.Links{},
		Page: pageMetadata{
			Size:          pr.Size,
			TotalElements: page.Total,
			TotalPages:    totalPages,
			Number:        pr.Page,
		},
	}

	if len(page.Items) > 0 {
		items := make([]EventResource, 0, len(page.Items))
		for _, e := range page.Items {
			items = append(items, toResource(e, hal.Links{}.Add("self", eventHref(b, e.ID))))
		}
		res.Embedded = &eventListEmbedded{EventList: items}
	}

	pageHref := func(n int) string {
		q := url.Values{}
		q.Set("page", strconv.Itoa(n))
		q.Set("size", strconv.Itoa(pr.Size))
		utils.EncodeSort(q, pr.Sort)
		return b.Href("api", "events") + "?" + q.Encode()
	}

	last := totalPages - 1
	if last < 0 {
		last = 0
	}

	res.Links.
		Add("self", pageHref(pr.Page)).
		Add("first", pageHref(0)).
		Add("last", pageHref(last)).
		Add("profile", profileHref(b)+"#/paths/~1api~1events/get")

	if pr.Page > 0 {
		prev := pr.Page - 1
		if prev > last {
			prev = last
		}
		res.Links.Add("prev", pageHref(prev))
	}
	if pr.Page < last {
		res.Links.Add("next", pageHref(pr.Page+1))
	}

	if _, ok := middlewares.AccountIDFromContext(ctx); ok {
		res.Links.Add("create-event", b.Href("api", "events"))
	}

	RespondHALWithETag(ctx, http.StatusOK, res)
}

func (h *EventsHandler) GetEvent(ctx *gin.Context) {
	id, ok := parseEventID(ctx)
	if !ok {
		RespondNotFound(ctx, "Event not found")
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	e, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "get event failed", "err", err, "event_id", id, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx, "Could not fetch event")
		return
	}

	b := linkBuilder(ctx)
	self := eventHref(b, e.ID)

	links := hal.Links{}.
		Add("self", self).
		Add("profile", profileHref(b)+"#/paths/~1api~1events~1{id}/get")

	if accountID, ok := middlewares.AccountIDFromContext(ctx); ok && e.ManagedBy(accountID) {
		links.Add("update-event", self)
	}

	RespondHALWithETag(ctx, http.StatusOK, toResource(e, links))
}

func (h *EventsHandler) UpdateEvent(ctx *gin.Context) {
	id, ok := parseEventID(ctx)
	if !ok {
		RespondNotFound(ctx, "Event not found")
		return
	}

	var req event.UpdateEventRequest
	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	e, err := h.repo.GetByID(cctx, id)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "load event for update failed", "err", err, "event_id", id, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx, "Could not update event")
		return
	}

	accountID, _ := middlewares.AccountIDFromContext(ctx)
	if e.ManagerID != "" && !e.ManagedBy(accountID) {
		RespondForbidden(ctx, "Only the event manager can update this event")
		return
	}

	e.ApplyUpdate(req)

	updated, err := h.repo.Update(cctx, e)
	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			RespondNotFound(ctx, "Event not found")
			return
		}
		h.log.ErrorContext(ctx.Request.Context(), "update event failed", "err", err, "event_id", id, "request_id", requestIDFrom(ctx))
		RespondInternal(ctx, "Could not update event")
		return
	}

	b := linkBuilder(ctx)
	links := hal.Links{}.
		Add("self", eventHref(b, updated.ID)).
		Add("profile", profileHref(b)+"#/paths/~1api~1events~1{id}/put")

	RespondHAL(ctx, http.StatusOK, toResource(updated, links))
}
