package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
)

// listAppliances поддерживает фильтры query, category, powerType и manufacturerId.
func (h *Handler) listAppliances(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ApplianceFilter{
		Query:     q.Get("query"),
		Category:  domain.Category(strings.ToUpper(q.Get("category"))),
		PowerType: domain.PowerType(strings.ToUpper(q.Get("powerType"))),
	}
	if filter.Category != "" && !filter.Category.Valid() {
		h.writeDomainError(w, r, invalidRequest("category must be one of BIG, SMALL"))
		return
	}
	if filter.PowerType != "" && !filter.PowerType.Valid() {
		h.writeDomainError(w, r, invalidRequest("power type must be one of AC220, AC110, ACCUMULATOR"))
		return
	}
	if v := q.Get("manufacturerId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			h.writeDomainError(w, r, invalidRequest("manufacturerId must be an integer"))
			return
		}
		filter.ManufacturerID = &id
	}
	h.writeAppliancePage(w, r, filter)
}

func (h *Handler) searchAppliances(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if strings.TrimSpace(query) == "" {
		h.writeDomainError(w, r, invalidRequest("query is required"))
		return
	}
	h.writeAppliancePage(w, r, domain.ApplianceFilter{Query: query})
}

func (h *Handler) appliancesByCategory(w http.ResponseWriter, r *http.Request) {
	category := domain.Category(strings.ToUpper(chi.URLParam(r, "category")))
	if !category.Valid() {
		h.writeDomainError(w, r, invalidRequest("category must be one of BIG, SMALL"))
		return
	}
	h.writeAppliancePage(w, r, domain.ApplianceFilter{Category: category})
}

func (h *Handler) appliancesByPowerType(w http.ResponseWriter, r *http.Request) {
	powerType := domain.PowerType(strings.ToUpper(chi.URLParam(r, "powerType")))
	if !powerType.Valid() {
		h.writeDomainError(w, r, invalidRequest("power type must be one of AC220, AC110, ACCUMULATOR"))
		return
	}
	h.writeAppliancePage(w, r, domain.ApplianceFilter{PowerType: powerType})
}

func (h *Handler) writeAppliancePage(w http.ResponseWriter, r *http.Request, filter domain.ApplianceFilter) {
	page, err := pageRequest(r, true)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	result, err := h.catalog.ListAppliances(r.Context(), filter, page)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(result, toApplianceResponse))
}

func (h *Handler) getAppliance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	a, err := h.catalog.GetAppliance(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplianceResponse(a))
}

func (h *Handler) createAppliance(w http.ResponseWriter, r *http.Request) {
	var req applianceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	a, err := h.catalog.CreateAppliance(r.Context(), req.toDomain())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toApplianceResponse(a))
}

func (h *Handler) updateAppliance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	var req applianceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	a, err := h.catalog.UpdateAppliance(r.Context(), id, req.toDomain())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toApplianceResponse(a))
}

func (h *Handler) deleteAppliance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.catalog.DeleteAppliance(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listManufacturers(w http.ResponseWriter, r *http.Request) {
	h.writeManufacturerPage(w, r, "")
}

func (h *Handler) searchManufacturers(w http.ResponseWriter, r *http.Request) {
	h.writeManufacturerPage(w, r, r.URL.Query().Get("query"))
}

func (h *Handler) writeManufacturerPage(w http.ResponseWriter, r *http.Request, query string) {
	page, err := pageRequest(r, true)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	result, err := h.catalog.ListManufacturers(r.Context(), query, page)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(result, toManufacturerResponse))
}

func (h *Handler) getManufacturer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	m, err := h.catalog.GetManufacturer(r.Context(), id)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toManufacturerResponse(m))
}

func (h *Handler) createManufacturer(w http.ResponseWriter, r *http.Request) {
	var req manufacturerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	m, err := h.catalog.CreateManufacturer(r.Context(), req.toDomain())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toManufacturerResponse(m))
}

func (h *Handler) updateManufacturer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	var req manufacturerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	m, err := h.catalog.UpdateManufacturer(r.Context(), id, req.toDomain())
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toManufacturerResponse(m))
}

func (h *Handler) deleteManufacturer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	if err := h.catalog.DeleteManufacturer(r.Context(), id); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
