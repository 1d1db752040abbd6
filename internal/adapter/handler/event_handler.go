package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/srgjo27/nft_ticket/internal/core/domain"
	"github.com/srgjo27/nft_ticket/internal/core/services"
)

type EventHandler struct {
	query *services.QueryService
	log   *zap.Logger
}

func NewEventHandler(query *services.QueryService, log *zap.Logger) *EventHandler {
	return &EventHandler{query: query, log: log.Named("http")}
}

func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.query.GetEvent(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, toEventResponse(event))
}

func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query())
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	events, err := h.query.FilterEvents(r.Context(), filter)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, toEventList(events))
}

func (h *EventHandler) EventsByCategory(w http.ResponseWriter, r *http.Request) {
	events, err := h.query.EventsByCategory(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, toEventList(events))
}

func (h *EventHandler) EventsByCategoryType(w http.ResponseWriter, r *http.Request) {
	events, err := h.query.EventsByCategoryType(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, toEventList(events))
}

func (h *EventHandler) SearchEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.query.SearchByName(r.Context(), mux.Vars(r)["name"])
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, toEventList(events))
}

func (h *EventHandler) Availability(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	n, err := h.query.Availability(r.Context(), vars["id"], vars["categoryId"])
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}
	writeJSON(w, h.log, http.StatusOK, availabilityResponse{
		EventID:    vars["id"],
		CategoryID: vars["categoryId"],
		Available:  n,
	})
}

func parseFilter(q url.Values) (domain.EventFilter, error) {
	var f domain.EventFilter
	var err error

	if f.Page, err = optionalInt(q, "page"); err != nil {
		return f, err
	}
	if f.PageSize, err = optionalInt(q, "size"); err != nil {
		return f, err
	}
	if f.LocationID, err = optionalUUID(q, "locationId"); err != nil {
		return f, err
	}
	if f.CategoryTypeID, err = optionalUUID(q, "categoryTypeId"); err != nil {
		return f, err
	}

	if raw := q.Get("endDate"); raw != "" {
		end, err := parseDate(raw)
		if err != nil {
			return f, fmt.Errorf("%w: endDate %q", domain.ErrInvalidFilter, raw)
		}
		f.EndDate = &end
	}

	f.SortBy = domain.SortField(q.Get("sortBy"))
	f.SortOrder = domain.SortOrder(q.Get("sortOrder"))
	return f, nil
}

func optionalInt(q url.Values, key string) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s %q", domain.ErrInvalidFilter, key, raw)
	}
	return n, nil
}

func optionalUUID(q url.Values, key string) (*uuid.UUID, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %q", domain.ErrInvalidFilter, key, raw)
	}
	return &id, nil
}

// parseDate accepts RFC 3339 timestamps or plain dates. A plain date covers
// the whole day.
func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.Add(24*time.Hour - time.Nanosecond), nil
}
