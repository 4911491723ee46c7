package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/mmeshcher/pawconnect-system/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса PawConnect.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))
	if h.requestTimeout > 0 {
		r.Use(custommiddleware.Timeout(h.requestTimeout))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Register)
			r.Post("/login", h.Login)
			r.Post("/google", h.GoogleAuth)

			r.With(h.authMiddleware.Authenticate).Get("/me", h.Me)
		})

		r.Route("/services", func(r chi.Router) {
			r.With(h.authMiddleware.Optional).Get("/", h.GetServices)
			r.With(h.authMiddleware.Optional).Get("/{id}", h.GetServiceByID)
			r.Post("/", h.CreateService)
		})

		r.Route("/events", func(r chi.Router) {
			r.With(h.authMiddleware.Optional).Get("/", h.GetEvents)
			r.With(h.authMiddleware.Optional).Get("/{id}", h.GetEventByID)
			r.Post("/", h.CreateEvent)
		})

		r.Route("/bookings", func(r chi.Router) {
			r.Use(h.authMiddleware.Authenticate)

			r.With(h.authMiddleware.RequirePremium).Post("/", h.CreateBooking)
			r.Get("/", h.GetBookings)
			r.Get("/{id}", h.GetBookingByID)
			r.Patch("/{id}/cancel", h.CancelBooking)
		})

		r.Route("/payments", func(r chi.Router) {
			r.Use(h.authMiddleware.Authenticate)

			r.Post("/", h.CreatePayment)
			r.Get("/history", h.GetPaymentHistory)
			r.Get("/{id}", h.GetPaymentByID)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(h.authMiddleware.Authenticate)

			r.Get("/profile", h.GetProfile)
			r.Patch("/profile", h.UpdateProfile)
			r.Patch("/change-password", h.ChangePassword)
			r.Post("/upgrade-premium", h.UpgradePremium)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusNotFound, "Route not found")
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed))
	})

	return r
}
