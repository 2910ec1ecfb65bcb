package httpapi

import (
	"net/http"

	"github.com/vladislavdragonenkov/appliances/internal/service/party"
)

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	user := result.Identity.User()
	writeJSON(w, http.StatusOK, jwtResponse{
		Token:     result.Token.Value,
		Type:      "Bearer",
		ExpiresAt: result.Token.ExpiresAt,
		Email:     user.Email,
		Role:      result.Identity.Role(),
		UserID:    user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}

func (h *Handler) registerClient(w http.ResponseWriter, r *http.Request) {
	var req clientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	created, err := h.party.RegisterClient(r.Context(), req.toDomain(), req.Password)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toClientResponse(created))
}

func (h *Handler) registerEmployee(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	created, err := h.party.RegisterEmployee(r.Context(), req.toDomain(), req.Password)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeResponse(created))
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFrom(r.Context())
	identity, err := h.party.Profile(r.Context(), caller)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIdentityResponse(identity))
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerFrom(r.Context())
	var req profileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	identity, err := h.party.UpdateProfile(r.Context(), caller, party.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
		Phone:     req.Phone,
		Address:   req.Address,
		Card:      req.Card,
		Position:  req.Position,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIdentityResponse(identity))
}
