package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
)

// ErrorResponse — тело ответа с ошибкой.
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Path      string    `json:"path"`
	Errors    []string  `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, message string, details []string) {
	writeJSON(w, status, ErrorResponse{
		Timestamp: h.now(),
		Status:    status,
		Error:     http.StatusText(status),
		Message:   message,
		Path:      r.URL.Path,
		Errors:    details,
	})
}

// writeDomainError переводит доменную ошибку в HTTP-статус.
// Причина отказа политики доступа в ответ не попадает.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		h.writeError(w, r, http.StatusBadRequest, domain.ErrValidation.Error(), validation.Messages())
	case errors.Is(err, domain.ErrValidation):
		h.writeError(w, r, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, r, http.StatusNotFound, notFoundMessage(err), nil)
	case errors.Is(err, domain.ErrUnauthenticated):
		h.writeError(w, r, http.StatusUnauthorized, "authentication required", nil)
	case errors.Is(err, domain.ErrForbidden):
		h.writeError(w, r, http.StatusForbidden, domain.ErrForbidden.Error(), nil)
	case errors.Is(err, domain.ErrTooManyAttempts):
		h.writeError(w, r, http.StatusTooManyRequests, err.Error(), nil)
	case errors.Is(err, domain.ErrConflict):
		h.writeError(w, r, http.StatusConflict, conflictMessage(err), nil)
	default:
		h.logger.WithError(err).WithFields(log.Fields{
			"path":       r.URL.Path,
			"request_id": middleware.GetReqID(r.Context()),
		}).Error("request failed")
		h.writeError(w, r, http.StatusInternalServerError, "internal server error", nil)
	}
}

func notFoundMessage(err error) string {
	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		return nf.Error()
	}
	return domain.ErrNotFound.Error()
}

// conflictMessage отдаёт текст известного конфликта без обёрток хранилища.
func conflictMessage(err error) string {
	for _, known := range []error{
		domain.ErrOrderAlreadyApproved,
		domain.ErrOrderVersionConflict,
		domain.ErrEmailTaken,
		domain.ErrManufacturerExists,
		domain.ErrResourceInUse,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return domain.ErrConflict.Error()
}

// invalidRequest — ошибка разбора запроса, отдаётся как 400.
func invalidRequest(message string) error {
	return domain.NewValidationError(errors.New(message))
}
