package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/appliances/internal/domain"
)

type callerKey struct{}

func withCaller(ctx context.Context, caller domain.Identity) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFrom возвращает аутентифицированного пользователя запроса.
func CallerFrom(ctx context.Context) (domain.Identity, bool) {
	caller, ok := ctx.Value(callerKey{}).(domain.Identity)
	return caller, ok && !caller.IsZero()
}

// observe пишет access-лог и HTTP-метрики по шаблону маршрута.
func (h *Handler) observe(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		if h.metrics != nil {
			h.metrics.RequestStarted()
		}

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		duration := time.Since(start)
		if h.metrics != nil {
			h.metrics.RequestFinished(r.Method, route, status, duration)
		}

		entry := h.logger.WithFields(log.Fields{
			"method":      r.Method,
			"route":       route,
			"status":      status,
			"duration_ms": duration.Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
		})
		if status >= http.StatusInternalServerError {
			entry.Warn("http request")
			return
		}
		entry.Debug("http request")
	})
}

// authenticate требует bearer-токен и кладёт пользователя в контекст.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			h.writeDomainError(w, r, domain.ErrUnauthenticated)
			return
		}
		caller, err := h.auth.Authenticate(r.Context(), token)
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(withCaller(r.Context(), caller)))
	})
}

// requireEmployee пропускает только сотрудников. Ставится после authenticate.
func (h *Handler) requireEmployee(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := CallerFrom(r.Context())
		if !ok {
			h.writeDomainError(w, r, domain.ErrUnauthenticated)
			return
		}
		if caller.Role() != domain.RoleEmployee {
			h.logger.WithFields(log.Fields{
				"role":      caller.Role(),
				"caller_id": caller.ID(),
				"path":      r.URL.Path,
			}).Warn("employee role required")
			h.writeDomainError(w, r, domain.ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
