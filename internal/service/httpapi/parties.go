package httpapi

import (
	"net/http"
)

func (h *Handler) listClients(w http.ResponseWriter, r *http.Request) {
	h.writeClientPage(w, r, "")
}

func (h *Handler) searchClients(w http.ResponseWriter, r *http.Request) {
	h.writeClientPage(w, r, r.URL.Query().Get("query"))
}

func (h *Handler) writeClientPage(w http.ResponseWriter, r *http.Request, query string) {
	page, err := pageRequest(r, true)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	result, err := h.party.ListClients(r.Context(), query, page)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(result, toClientResponse))
}

func (h *Handler) getClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	c, err := h.party.GetClient(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientResponse(c))
}

func (h *Handler) updateClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	var req clientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	c, err := h.party.UpdateClient(r.Context(), id, req.toDomain(), req.Password)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toClientResponse(c))
}

func (h *Handler) deleteClient(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.party.DeleteClient(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listEmployees(w http.ResponseWriter, r *http.Request) {
	h.writeEmployeePage(w, r, "")
}

func (h *Handler) searchEmployees(w http.ResponseWriter, r *http.Request) {
	h.writeEmployeePage(w, r, r.URL.Query().Get("query"))
}

func (h *Handler) writeEmployeePage(w http.ResponseWriter, r *http.Request, query string) {
	page, err := pageRequest(r, true)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	result, err := h.party.ListEmployees(r.Context(), query, page)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(result, toEmployeeResponse))
}

func (h *Handler) getEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	e, err := h.party.GetEmployee(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeResponse(e))
}

func (h *Handler) updateEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	var req employeeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	e, err := h.party.UpdateEmployee(r.Context(), id, req.toDomain(), req.Password)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeResponse(e))
}

func (h *Handler) deleteEmployee(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.party.DeleteEmployee(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
