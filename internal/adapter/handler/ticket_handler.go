package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/srgjo27/nft_ticket/internal/core/services"
)

type TicketHandler struct {
	activation *services.ActivationService
	minting    *services.MintingService
	purchase   *services.PurchaseService
	log        *zap.Logger
}

func NewTicketHandler(
	activation *services.ActivationService,
	minting *services.MintingService,
	purchase *services.PurchaseService,
	log *zap.Logger,
) *TicketHandler {
	return &TicketHandler{
		activation: activation,
		minting:    minting,
		purchase:   purchase,
		log:        log.Named("http"),
	}
}

// ActivateEvent deploys the collection for a pending event and stores the
// resulting event. Minting is triggered separately.
func (h *TicketHandler) ActivateEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.activation.Activate(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	writeJSON(w, h.log, http.StatusCreated, toEventResponse(event))
}

func (h *TicketHandler) MintEvent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := h.minting.MintEvent(r.Context(), id); err != nil {
		writeError(w, h.log, r, err)
		return
	}

	writeJSON(w, h.log, http.StatusAccepted, map[string]string{"eventId": id, "status": "tickets ready"})
}

func (h *TicketHandler) PurchaseTicket(w http.ResponseWriter, r *http.Request) {
	var req services.PurchaseTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, h.log, http.StatusBadRequest, errorResponse{Error: "invalid json body"})
		return
	}

	ticket, err := h.purchase.Purchase(r.Context(), req)
	if err != nil {
		writeError(w, h.log, r, err)
		return
	}

	writeJSON(w, h.log, http.StatusCreated, toTicketResponse(ticket))
}
