package http

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/Vishaljain290502/Rydr/internal/delivery/http/middleware"
	"github.com/Vishaljain290502/Rydr/internal/domain"
	"github.com/Vishaljain290502/Rydr/internal/pkg/logger"
	"github.com/Vishaljain290502/Rydr/internal/usecase/trip"
	"github.com/google/uuid"
)

// TripService определяет интерфейс для сервиса поездок
type TripService interface {
	CreateTrip(ctx context.Context, req *trip.CreateTripRequest, hostID uuid.UUID) (*domain.Trip, error)
	JoinTrip(ctx context.Context, tripID, userID uuid.UUID) (*domain.Trip, error)
	LeaveTrip(ctx context.Context, tripID, userID uuid.UUID) (*domain.Trip, error)
	CancelTrip(ctx context.Context, tripID, userID uuid.UUID) error
	UpdateTrip(ctx context.Context, tripID uuid.UUID, patch *domain.TripPatch, userID uuid.UUID) (*domain.Trip, error)
	UpdateTripStatus(ctx context.Context, tripID uuid.UUID, status string, actor *uuid.UUID) (*domain.Trip, error)
	FindNearbyRides(ctx context.Context, latitude, longitude, radiusKm float64) ([]*domain.Trip, error)
	GetOngoingRides(ctx context.Context, userID uuid.UUID) ([]*domain.Trip, error)
	ListAllTrips(ctx context.Context, hostID uuid.UUID) ([]*domain.Trip, error)
	GetTripDetails(ctx context.Context, tripID uuid.UUID) (*domain.Trip, error)
	GetMyTrips(ctx context.Context, userID uuid.UUID) ([]*domain.Trip, error)
}

// TripHandler обрабатывает запросы связанные с поездками
type TripHandler struct {
	tripService TripService
	logger      logger.Logger
}

// NewTripHandler создает новый handler
func NewTripHandler(tripService TripService, logger logger.Logger) *TripHandler {
	return &TripHandler{
		tripService: tripService,
		logger:      logger,
	}
}

// tripIDRequest - тело запросов join и leaveTrip
type tripIDRequest struct {
	TripID string `json:"tripId"`
}

// statusRequest - тело запроса смены статуса
type statusRequest struct {
	Status string `json:"status"`
}

// CreateTrip создает новую поездку от имени текущего пользователя
// POST /trips/createTrip
func (h *TripHandler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req trip.CreateTripRequest
	if !bindJSON(w, r, createTripSchema, &req) {
		return
	}

	created, err := h.tripService.CreateTrip(r.Context(), &req, userID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "Host user not found")
			return
		}
		h.serviceError(w, "Failed to create trip", err)
		return
	}

	respondSuccess(w, http.StatusCreated, "Trip created successfully", created)
}

// JoinTrip добавляет текущего пользователя в поездку
// POST /trips/join
func (h *TripHandler) JoinTrip(w http.ResponseWriter, r *http.Request) {
	userID, tripID, ok := h.tripIDFromBody(w, r)
	if !ok {
		return
	}

	joined, err := h.tripService.JoinTrip(r.Context(), tripID, userID)
	if err != nil {
		h.serviceError(w, "Failed to join trip", err)
		return
	}

	respondSuccess(w, http.StatusOK, "Successfully joined the trip", joined)
}

// GetTripDetails возвращает поездку по ID
// GET /trips/tripDetails/{tripId}
func (h *TripHandler) GetTripDetails(w http.ResponseWriter, r *http.Request) {
	tripID, err := getPathUUID(r, "tripId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid trip ID")
		return
	}

	t, err := h.tripService.GetTripDetails(r.Context(), tripID)
	if err != nil {
		h.serviceError(w, "Failed to get trip", err)
		return
	}

	respondSuccess(w, http.StatusOK, "Trip details retrieved successfully", t)
}

// LeaveTrip удаляет текущего пользователя из поездки
// POST /trips/leaveTrip
func (h *TripHandler) LeaveTrip(w http.ResponseWriter, r *http.Request) {
	userID, tripID, ok := h.tripIDFromBody(w, r)
	if !ok {
		return
	}

	left, err := h.tripService.LeaveTrip(r.Context(), tripID, userID)
	if err != nil {
		h.serviceError(w, "Failed to leave trip", err)
		return
	}

	respondSuccess(w, http.StatusOK, "Successfully left the trip", left)
}

// CancelTrip удаляет поездку (только хост)
// DELETE /trips/cancelTrip/{tripId}
func (h *TripHandler) CancelTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	tripID, err := getPathUUID(r, "tripId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid trip ID")
		return
	}

	if err := h.tripService.CancelTrip(r.Context(), tripID, userID); err != nil {
		h.serviceError(w, "Failed to cancel trip", err)
		return
	}

	respondSuccess(w, http.StatusOK, "Trip canceled successfully", nil)
}

// ListAllTrips возвращает поездки, организованные текущим пользователем
// GET /trips/getAllTrips
func (h *TripHandler) ListAllTrips(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	trips, err := h.tripService.ListAllTrips(r.Context(), userID)
	if err != nil {
		h.serviceError(w, "Failed to list trips", err)
		return
	}

	respondSuccess(w, http.StatusOK, "Trips retrieved successfully", trips)
}

// UpdateTrip применяет частичное обновление (только хост)
// PATCH /trips/updateTrip/{tripId}
func (h *TripHandler) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	tripID, err := getPathUUID(r, "tripId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid trip ID")
		return
	}

	var patch domain.TripPatch
	if !bindJSON(w, r, updateTripSchema, &patch) {
		return
	}

	updated, err := h.tripService.UpdateTrip(r.Context(), tripID, &patch, userID)
	if err != nil {
		h.serviceError(w, "Failed to update trip", err)
		return
	}

	respondSuccess(w, http.StatusOK, "Trip updated successfully", updated)
}

// FindNearbyRides ищет запланированные поездки рядом с точкой
// GET /trips/nearby?latitude=..&longitude=..&radius=..
func (h *TripHandler) FindNearbyRides(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	latitude, err := strconv.ParseFloat(query.Get("latitude"), 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid latitude")
		return
	}
	longitude, err := strconv.ParseFloat(query.Get("longitude"), 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid longitude")
		return
	}

	var radius float64
	if raw := query.Get("radius"); raw != "" {
		radius, err = strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(radius) || math.IsInf(radius, 0) || radius <= 0 {
			respondError(w, http.StatusBadRequest, "Invalid radius")
			return
		}
	}

	trips, err := h.tripService.FindNearbyRides(r.Context(), latitude, longitude, radius)
	if err != nil {
		h.serviceError(w, "Failed to find nearby rides", err)
		return
	}

	respondSuccess(w, http.StatusOK, "Nearby rides fetched successfully", trips)
}

// GetOngoingRides возвращает поездки текущего пользователя в статусе ongoing
// GET /trips/ongoing
func (h *TripHandler) GetOngoingRides(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	trips, err := h.tripService.GetOngoingRides(r.Context(), userID)
	if err != nil {
		h.serviceError(w, "Failed to get ongoing rides", err)
		return
	}

	respondSuccess(w, http.StatusOK, "Ongoing rides fetched successfully", trips)
}

// UpdateTripStatus меняет статус поездки
// PATCH /trips/status/{tripId}
func (h *TripHandler) UpdateTripStatus(w http.ResponseWriter, r *http.Request) {
	tripID, err := getPathUUID(r, "tripId")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid trip ID")
		return
	}

	var req statusRequest
	if !bindJSON(w, r, statusSchema, &req) {
		return
	}

	// Токен необязателен: решение принимает StatusUpdatePolicy сервиса
	var actor *uuid.UUID
	if userID, ok := middleware.GetUserID(r.Context()); ok {
		actor = &userID
	}

	updated, err := h.tripService.UpdateTripStatus(r.Context(), tripID, req.Status, actor)
	if err != nil {
		h.serviceError(w, "Failed to update trip status", err)
		return
	}

	respondSuccess(w, http.StatusOK, "Trip status updated successfully", updated)
}

// GetMyTrips возвращает все поездки, где пользователь хост или участник
// GET /trips/my-trips
func (h *TripHandler) GetMyTrips(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	trips, err := h.tripService.GetMyTrips(r.Context(), userID)
	if err != nil {
		h.serviceError(w, "Failed to get user trips", err)
		return
	}

	respondSuccess(w, http.StatusOK, "Rides fetched successfully", trips)
}

// tripIDFromBody извлекает текущего пользователя и tripId из тела запроса
func (h *TripHandler) tripIDFromBody(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, uuid.Nil, false
	}

	var req tripIDRequest
	if !bindJSON(w, r, tripIDSchema, &req) {
		return uuid.Nil, uuid.Nil, false
	}

	tripID, err := uuid.Parse(req.TripID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid trip ID")
		return uuid.Nil, uuid.Nil, false
	}

	return userID, tripID, true
}

// serviceError отдает ошибку клиенту и логирует неожиданные
func (h *TripHandler) serviceError(w http.ResponseWriter, msg string, err error) {
	if respondServiceError(w, err) {
		h.logger.Error(msg, map[string]interface{}{
			"error": err.Error(),
		})
	}
}
