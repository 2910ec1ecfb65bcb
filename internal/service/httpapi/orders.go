package httpapi

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
)

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	h.writeOrderPage(w, r, func(caller domain.Identity, page domain.PageRequest) (domain.Page[domain.Order], error) {
		return h.orders.ListAll(r.Context(), caller, page)
	})
}

func (h *Handler) ordersByClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := pathID(r, "clientId")
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeOrderPage(w, r, func(caller domain.Identity, page domain.PageRequest) (domain.Page[domain.Order], error) {
		return h.orders.ListByClient(r.Context(), caller, clientID, page)
	})
}

func (h *Handler) ordersByEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID, err := pathID(r, "employeeId")
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeOrderPage(w, r, func(caller domain.Identity, page domain.PageRequest) (domain.Page[domain.Order], error) {
		return h.orders.ListByEmployee(r.Context(), caller, employeeID, page)
	})
}

func (h *Handler) ordersByStatus(w http.ResponseWriter, r *http.Request) {
	approved, err := strconv.ParseBool(chi.URLParam(r, "approved"))
	if err != nil {
		h.writeDomainError(w, r, invalidRequest("approved must be true or false"))
		return
	}
	h.writeOrderPage(w, r, func(caller domain.Identity, page domain.PageRequest) (domain.Page[domain.Order], error) {
		return h.orders.ListByStatus(r.Context(), caller, approved, page)
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.orderTarget(w, r)
	if !ok {
		return
	}
	o, err := h.orders.Get(r.Context(), caller, id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*o))
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFrom(r.Context())
	var req orderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	o, err := h.orders.Create(r.Context(), caller, req.toInput())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toOrderResponse(*o))
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.orderTarget(w, r)
	if !ok {
		return
	}
	var req orderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	o, err := h.orders.Update(r.Context(), caller, id, req.toInput())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*o))
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.orderTarget(w, r)
	if !ok {
		return
	}
	if err := h.orders.Delete(r.Context(), caller, id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) approveOrder(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.orderTarget(w, r)
	if !ok {
		return
	}
	o, err := h.orders.Approve(r.Context(), caller, id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*o))
}

func (h *Handler) orderTimeline(w http.ResponseWriter, r *http.Request) {
	caller, id, ok := h.orderTarget(w, r)
	if !ok {
		return
	}
	events, err := h.orders.Timeline(r.Context(), caller, id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	resp := make([]timelineEventResponse, 0, len(events))
	for _, event := range events {
		resp = append(resp, timelineEventResponse{
			Type:     event.Type,
			Actor:    event.Actor,
			Reason:   event.Reason,
			Occurred: event.Occurred,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) orderTarget(w http.ResponseWriter, r *http.Request) (domain.Identity, int64, bool) {
	caller, _ := CallerFrom(r.Context())
	id, err := pathID(r, "id")
	if err != nil {
		h.writeDomainError(w, r, err)
		return domain.Identity{}, 0, false
	}
	return caller, id, true
}

func (h *Handler) writeOrderPage(w http.ResponseWriter, r *http.Request, list func(domain.Identity, domain.PageRequest) (domain.Page[domain.Order], error)) {
	caller, _ := CallerFrom(r.Context())
	page, err := pageRequest(r, false)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	result, err := list(caller, page)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(result, toOrderResponse))
}
