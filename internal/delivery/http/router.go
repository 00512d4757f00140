package http

import (
	"net/http"

	"github.com/Vishaljain290502/Rydr/internal/delivery/http/middleware"
	"github.com/Vishaljain290502/Rydr/internal/pkg/config"
	"github.com/Vishaljain290502/Rydr/internal/pkg/logger"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Router содержит все зависимости для HTTP роутера
type Router struct {
	tripHandler *TripHandler
	tokens      middleware.TokenValidator
	config      *config.Config
	logger      logger.Logger
}

// NewRouter создает новый HTTP router
func NewRouter(
	tripHandler *TripHandler,
	tokens middleware.TokenValidator,
	config *config.Config,
	logger logger.Logger,
) *Router {
	return &Router{
		tripHandler: tripHandler,
		tokens:      tokens,
		config:      config,
		logger:      logger,
	}
}

// Setup настраивает все маршруты
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Глобальные middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.RecoveryMiddleware(rt.logger))
	r.Use(middleware.LoggingMiddleware(rt.logger))
	r.Use(middleware.CORSMiddleware(middleware.CORSConfig{
		AllowedOrigins: rt.config.CORS.AllowedOrigins,
		AllowedMethods: rt.config.CORS.AllowedMethods,
		AllowedHeaders: rt.config.CORS.AllowedHeaders,
	}))

	// Health check endpoint (публичный)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
		})
	})

	limiter := middleware.NewRateLimiter(rt.config.RateLimit.RequestsPerSecond, rt.config.RateLimit.Burst)

	r.Route("/trips", func(r chi.Router) {
		// Публичный поиск, ограничен по IP
		r.With(limiter.Middleware).Get("/nearby", rt.tripHandler.FindNearbyRides)

		// Токен необязателен, права проверяет сервис
		r.With(middleware.OptionalAuth(rt.tokens)).Patch("/status/{tripId}", rt.tripHandler.UpdateTripStatus)

		// Protected routes (требуют аутентификации)
		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(rt.tokens))

			r.Post("/createTrip", rt.tripHandler.CreateTrip)
			r.Post("/join", rt.tripHandler.JoinTrip)
			r.Post("/leaveTrip", rt.tripHandler.LeaveTrip)
			r.Get("/tripDetails/{tripId}", rt.tripHandler.GetTripDetails)
			r.Delete("/cancelTrip/{tripId}", rt.tripHandler.CancelTrip)
			r.Get("/getAllTrips", rt.tripHandler.ListAllTrips)
			r.Patch("/updateTrip/{tripId}", rt.tripHandler.UpdateTrip)
			r.Get("/ongoing", rt.tripHandler.GetOngoingRides)
			r.Get("/my-trips", rt.tripHandler.GetMyTrips)
		})
	})

	return r
}
