package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/srgjo27/nft_ticket/internal/core/domain"
)

type errorResponse struct {
	Error string `json:"error"`
}

type shortfallResponse struct {
	CategoryID string `json:"ticketCategoryId"`
	Name       string `json:"name"`
	Planned    int    `json:"planned"`
	Issued     int    `json:"issued"`
}

type mintingErrorResponse struct {
	Error      string              `json:"error"`
	Shortfalls []shortfallResponse `json:"shortfalls"`
}

type categoryResponse struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

type eventResponse struct {
	ID              string             `json:"id"`
	PendingEventID  string             `json:"pendingEventId"`
	UserID          string             `json:"userId"`
	Name            string             `json:"eventName"`
	Description     string             `json:"description"`
	Image           string             `json:"image"`
	Date            time.Time          `json:"date"`
	Time            string             `json:"time"`
	LocationID      *string            `json:"locationId,omitempty"`
	CategoryID      *string            `json:"categoryId,omitempty"`
	CategoryTypeID  *string            `json:"categoryTypeId,omitempty"`
	ContractAddress string             `json:"contractAddress"`
	TicketsReady    bool               `json:"ticketsReady"`
	CreatedAt       time.Time          `json:"createdAt"`
	Categories      []categoryResponse `json:"ticketCategories,omitempty"`
}

type ticketResponse struct {
	ID           string     `json:"id"`
	EventID      string     `json:"eventId"`
	CategoryID   string     `json:"ticketCategoryId"`
	CategoryName string     `json:"category"`
	Price        float64    `json:"price"`
	TokenID      string     `json:"tokenId"`
	OwnerID      *string    `json:"ownerId,omitempty"`
	Sold         bool       `json:"sold"`
	Used         bool       `json:"isUsed"`
	SoldAt       *time.Time `json:"soldAt,omitempty"`
}

type availabilityResponse struct {
	EventID    string `json:"eventId"`
	CategoryID string `json:"ticketCategoryId"`
	Available  int    `json:"available"`
}

func optionalID(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func toEventResponse(e *domain.Event) eventResponse {
	resp := eventResponse{
		ID:              e.ID.String(),
		PendingEventID:  e.PendingEventID.String(),
		UserID:          e.UserID.String(),
		Name:            e.Name,
		Description:     e.Description,
		Image:           e.Image,
		Date:            e.Date,
		Time:            e.Time,
		LocationID:      optionalID(e.LocationID),
		CategoryID:      optionalID(e.CategoryID),
		CategoryTypeID:  optionalID(e.CategoryTypeID),
		ContractAddress: e.ContractAddress,
		TicketsReady:    e.TicketsReady,
		CreatedAt:       e.CreatedAt,
	}
	for _, c := range e.Categories {
		resp.Categories = append(resp.Categories, categoryResponse{
			ID:       c.ID.String(),
			Name:     c.Name,
			Price:    c.Price,
			Quantity: c.Quantity,
		})
	}
	return resp
}

func toEventList(events []domain.Event) []eventResponse {
	out := make([]eventResponse, 0, len(events))
	for i := range events {
		out = append(out, toEventResponse(&events[i]))
	}
	return out
}

func toTicketResponse(t *domain.TicketInstance) ticketResponse {
	return ticketResponse{
		ID:           t.ID.String(),
		EventID:      t.EventID.String(),
		CategoryID:   t.CategoryID.String(),
		CategoryName: t.CategoryName,
		Price:        t.Price,
		TokenID:      t.TokenID,
		OwnerID:      optionalID(t.OwnerID),
		Sold:         t.Sold,
		Used:         t.Used,
		SoldAt:       t.SoldAt,
	}
}

func writeJSON(w http.ResponseWriter, log *zap.Logger, code int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		log.Error("failed to encode response", zap.Error(err))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(body)
}

// statusFor maps domain errors onto HTTP status codes. Anything it does not
// recognise is a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrEventNotFound),
		errors.Is(err, domain.ErrPendingEventNotFound),
		errors.Is(err, domain.ErrCategoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrDuplicatePurchase),
		errors.Is(err, domain.ErrSoldOut),
		errors.Is(err, domain.ErrMintingInProgress):
		return http.StatusConflict
	case errors.Is(err, domain.ErrMalformedPlan),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidFilter):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEventExpired):
		return http.StatusGone
	case errors.Is(err, domain.ErrContractDeploymentFailed),
		errors.Is(err, domain.ErrMintingIncomplete):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, log *zap.Logger, r *http.Request, err error) {
	code := statusFor(err)

	var incomplete *domain.MintingIncompleteError
	if errors.As(err, &incomplete) {
		resp := mintingErrorResponse{Error: domain.ErrMintingIncomplete.Error(), Shortfalls: []shortfallResponse{}}
		for _, s := range incomplete.Shortfalls {
			resp.Shortfalls = append(resp.Shortfalls, shortfallResponse{
				CategoryID: s.CategoryID.String(),
				Name:       s.Name,
				Planned:    s.Planned,
				Issued:     s.Issued,
			})
		}
		log.Warn("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, log, code, resp)
		return
	}

	msg := err.Error()
	if code == http.StatusInternalServerError {
		log.Error("request failed", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		msg = "internal server error"
	}
	writeJSON(w, log, code, errorResponse{Error: msg})
}
