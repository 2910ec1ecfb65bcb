// Package httpapi — HTTP/JSON API сервиса на chi.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/appliances/internal/i18n"
	"github.com/vladislavdragonenkov/appliances/internal/metrics"
	"github.com/vladislavdragonenkov/appliances/internal/service/auth"
	"github.com/vladislavdragonenkov/appliances/internal/service/catalog"
	"github.com/vladislavdragonenkov/appliances/internal/service/order"
	"github.com/vladislavdragonenkov/appliances/internal/service/party"
)

// Dependencies — сервисы, которые обслуживает API. Metrics, Logger и Clock
// необязательны.
type Dependencies struct {
	Orders     *order.Guard
	Catalog    *catalog.Service
	Party      *party.Service
	Auth       *auth.Service
	Translator *i18n.Translator
	Metrics    *metrics.HTTPMetrics
	Logger     *log.Entry
	Clock      func() time.Time
}

// Handler обрабатывает HTTP-запросы и переводит их в вызовы сервисов.
type Handler struct {
	orders     *order.Guard
	catalog    *catalog.Service
	party      *party.Service
	auth       *auth.Service
	translator *i18n.Translator
	metrics    *metrics.HTTPMetrics
	logger     *log.Entry
	now        func() time.Time
}

// NewHandler создаёт обработчик API.
func NewHandler(deps Dependencies) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = log.WithField("component", "http-api")
	}
	clock := deps.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	translator := deps.Translator
	if translator == nil {
		translator = i18n.New()
	}
	return &Handler{
		orders:     deps.Orders,
		catalog:    deps.Catalog,
		party:      deps.Party,
		auth:       deps.Auth,
		translator: translator,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        clock,
	}
}

// NewRouter собирает маршруты API.
func NewRouter(deps Dependencies) http.Handler {
	h := NewHandler(deps)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.observe)
	r.Use(middleware.Recoverer)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, r, http.StatusNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.login)
		r.Post("/register/client", h.registerClient)
		r.With(h.authenticate, h.requireEmployee).Post("/register/employee", h.registerEmployee)
	})

	r.Route("/locale", func(r chi.Router) {
		r.Post("/change", h.changeLocale)
		r.Get("/current", h.currentLocale)
		r.Get("/languages", h.languages)
		r.Get("/translations/{category}", h.translations)
	})

	r.Route("/appliances", func(r chi.Router) {
		r.Get("/", h.listAppliances)
		r.Get("/search", h.searchAppliances)
		r.Get("/category/{category}", h.appliancesByCategory)
		r.Get("/power-type/{powerType}", h.appliancesByPowerType)
		r.Get("/{id}", h.getAppliance)
		r.Group(func(r chi.Router) {
			r.Use(h.authenticate, h.requireEmployee)
			r.Post("/", h.createAppliance)
			r.Put("/{id}", h.updateAppliance)
			r.Delete("/{id}", h.deleteAppliance)
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)

		r.Get("/profile", h.profile)
		r.Put("/profile", h.updateProfile)

		r.Route("/manufacturers", func(r chi.Router) {
			r.Get("/", h.listManufacturers)
			r.Get("/search", h.searchManufacturers)
			r.Get("/{id}", h.getManufacturer)
			r.Group(func(r chi.Router) {
				r.Use(h.requireEmployee)
				r.Post("/", h.createManufacturer)
				r.Put("/{id}", h.updateManufacturer)
				r.Delete("/{id}", h.deleteManufacturer)
			})
		})

		r.Route("/clients", func(r chi.Router) {
			r.Use(h.requireEmployee)
			r.Get("/", h.listClients)
			r.Get("/search", h.searchClients)
			r.Get("/{id}", h.getClient)
			r.Put("/{id}", h.updateClient)
			r.Delete("/{id}", h.deleteClient)
		})

		r.Route("/employees", func(r chi.Router) {
			r.Use(h.requireEmployee)
			r.Get("/", h.listEmployees)
			r.Get("/search", h.searchEmployees)
			r.Get("/{id}", h.getEmployee)
			r.Put("/{id}", h.updateEmployee)
			r.Delete("/{id}", h.deleteEmployee)
		})

		// Права на заказы проверяет order.Guard, а не middleware.
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.listOrders)
			r.Post("/", h.createOrder)
			r.Get("/client/{clientId}", h.ordersByClient)
			r.Get("/employee/{employeeId}", h.ordersByEmployee)
			r.Get("/status/{approved}", h.ordersByStatus)
			r.Get("/{id}", h.getOrder)
			r.Put("/{id}", h.updateOrder)
			r.Delete("/{id}", h.deleteOrder)
			r.Post("/{id}/approve", h.approveOrder)
			r.Get("/{id}/timeline", h.orderTimeline)
		})
	})

	return r
}
