package trip

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Vishaljain290502/Rydr/internal/domain"
	"github.com/Vishaljain290502/Rydr/internal/pkg/logger"
	"github.com/Vishaljain290502/Rydr/internal/repository"
	"github.com/google/uuid"
)

// DefaultNearbyRadiusKm - радиус поиска, если клиент его не передал
const DefaultNearbyRadiusKm = 10.0

// StatusUpdatePolicy определяет, кто может менять статус поездки
type StatusUpdatePolicy string

const (
	// StatusPolicyOpen - статус может поменять любой вызывающий
	StatusPolicyOpen StatusUpdatePolicy = "open"
	// StatusPolicyHost - статус меняет только хост
	StatusPolicyHost StatusUpdatePolicy = "host"
)

// Notifier доставляет уведомления участникам поездки
// Реализация не должна блокировать вызывающего и не возвращает ошибок
type Notifier interface {
	Notify(ctx context.Context, recipients []domain.TripUser, title, body string)
}

// Options - настраиваемые правила сервиса
type Options struct {
	StatusPolicy      StatusUpdatePolicy
	NearbyMaxRadiusKm float64
	NotifyHostOnLeave bool
	NotifyOnCancel    bool
}

// CreateTripRequest - запрос на создание поездки
type CreateTripRequest struct {
	VehicleID          uuid.UUID         `json:"vehicle"`
	Source             domain.Location   `json:"source"`
	SourceAddress      string            `json:"sourceAddress"`
	Destination        domain.Location   `json:"destination"`
	DestinationAddress string            `json:"destinationAddress"`
	StartDate          time.Time         `json:"startDate"`
	EndDate            *time.Time        `json:"endDate,omitempty"`
	SeatsAvailable     int               `json:"seatsAvailable"`
	Participants       []uuid.UUID       `json:"participants,omitempty"`
	PricePerPerson     float64           `json:"pricePerPerson"`
	Status             domain.TripStatus `json:"status,omitempty"`
}

// Service содержит бизнес-логику жизненного цикла поездок
type Service struct {
	tripRepo repository.TripRepository
	userRepo repository.UserRepository
	notifier Notifier
	opts     Options
	logger   logger.Logger
}

// NewService создает новый экземпляр TripService
func NewService(
	tripRepo repository.TripRepository,
	userRepo repository.UserRepository,
	notifier Notifier,
	opts Options,
	logger logger.Logger,
) *Service {
	if opts.StatusPolicy == "" {
		opts.StatusPolicy = StatusPolicyOpen
	}
	return &Service{
		tripRepo: tripRepo,
		userRepo: userRepo,
		notifier: notifier,
		opts:     opts,
		logger:   logger,
	}
}

// CreateTrip создает поездку от имени хоста
func (s *Service) CreateTrip(ctx context.Context, req *CreateTripRequest, hostID uuid.UUID) (*domain.Trip, error) {
	s.logger.Info("Creating new trip", map[string]interface{}{
		"host_id":    hostID,
		"vehicle_id": req.VehicleID,
	})

	host, err := s.userRepo.GetByID(ctx, hostID)
	if err != nil {
		return nil, s.fail("get host", err)
	}

	vehicle, ok := host.FindVehicle(req.VehicleID)
	if !ok {
		return nil, domain.ErrVehicleNotFound
	}

	participants, err := s.resolveParticipants(ctx, req.Participants, hostID)
	if err != nil {
		return nil, err
	}

	if req.SeatsAvailable < 1 {
		return nil, domain.ErrInvalidTripData
	}
	if len(participants) > req.SeatsAvailable {
		return nil, domain.ErrNoSeatsAvailable
	}

	status := req.Status
	if status == "" {
		status = domain.TripStatusScheduled
	}

	trip := &domain.Trip{
		Host:               domain.NewTripUser(host),
		Source:             req.Source,
		SourceAddress:      req.SourceAddress,
		Destination:        req.Destination,
		DestinationAddress: req.DestinationAddress,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		Vehicle:            domain.NewVehicleSnapshot(vehicle),
		SeatCapacity:       req.SeatsAvailable,
		SeatsAvailable:     req.SeatsAvailable - len(participants),
		Participants:       participants,
		PricePerPerson:     req.PricePerPerson,
		Status:             status,
	}

	if err := trip.Validate(); err != nil {
		return nil, err
	}

	if err := s.tripRepo.Create(ctx, trip); err != nil {
		return nil, s.fail("create trip", err)
	}

	s.logger.Info("Trip created", map[string]interface{}{
		"trip_id":      trip.ID,
		"host_id":      hostID,
		"participants": len(participants),
	})

	s.notifier.Notify(ctx, trip.Members(),
		"🚗 Trip Created",
		fmt.Sprintf("You've joined a trip from %s to %s.", trip.SourceAddress, trip.DestinationAddress),
	)

	return trip, nil
}

// JoinTrip добавляет пользователя в участники
// Места и состав проверяет только хранилище
func (s *Service) JoinTrip(ctx context.Context, tripID, userID uuid.UUID) (*domain.Trip, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, s.fail("get user", err)
	}

	participant := domain.NewTripUser(user)
	updated, err := s.tripRepo.AddParticipant(ctx, tripID, participant)
	if err != nil {
		return nil, s.fail("add participant", err)
	}

	s.logger.Info("User joined trip", map[string]interface{}{
		"trip_id":         tripID,
		"user_id":         userID,
		"seats_available": updated.SeatsAvailable,
	})

	s.notifier.Notify(ctx, []domain.TripUser{participant},
		"🎉 Trip Joined Successfully",
		fmt.Sprintf("You've joined a trip from %s to %s.", updated.SourceAddress, updated.DestinationAddress),
	)

	return updated, nil
}

// LeaveTrip удаляет пользователя из участников
// Хост и не участник отсекаются условным обновлением в хранилище
func (s *Service) LeaveTrip(ctx context.Context, tripID, userID uuid.UUID) (*domain.Trip, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, s.fail("get user", err)
	}

	updated, err := s.tripRepo.RemoveParticipant(ctx, tripID, userID)
	if err != nil {
		return nil, s.fail("remove participant", err)
	}

	s.logger.Info("User left trip", map[string]interface{}{
		"trip_id":         tripID,
		"user_id":         userID,
		"seats_available": updated.SeatsAvailable,
	})

	if s.opts.NotifyHostOnLeave {
		s.notifier.Notify(ctx, []domain.TripUser{updated.Host},
			"🚶 Participant Left",
			fmt.Sprintf("%s has left your trip from %s to %s.",
				domain.NewTripUser(user).FullName(), updated.SourceAddress, updated.DestinationAddress),
		)
	}

	return updated, nil
}

// CancelTrip удаляет поездку (только хост)
func (s *Service) CancelTrip(ctx context.Context, tripID, userID uuid.UUID) error {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return s.fail("get trip", err)
	}

	if !trip.IsHost(userID) {
		return domain.ErrNotTripHost
	}

	if err := s.tripRepo.DeleteByHost(ctx, tripID, userID); err != nil {
		return s.fail("delete trip", err)
	}

	s.logger.Info("Trip canceled", map[string]interface{}{
		"trip_id": tripID,
		"host_id": userID,
	})

	if s.opts.NotifyOnCancel && len(trip.Participants) > 0 {
		s.notifier.Notify(ctx, trip.Participants,
			"❌ Trip Canceled",
			fmt.Sprintf("The trip from %s to %s has been canceled by the host.", trip.SourceAddress, trip.DestinationAddress),
		)
	}

	return nil
}

// UpdateTrip применяет частичное обновление от имени хоста
func (s *Service) UpdateTrip(ctx context.Context, tripID uuid.UUID, patch *domain.TripPatch, userID uuid.UUID) (*domain.Trip, error) {
	if patch == nil {
		return nil, domain.ErrInvalidTripData
	}
	if patch.Status != nil && !patch.Status.IsValid() {
		return nil, domain.ErrInvalidTripStatus
	}

	updated, err := s.tripRepo.UpdateByHost(ctx, tripID, userID, patch)
	if err != nil {
		return nil, s.fail("update trip", err)
	}

	s.logger.Info("Trip updated", map[string]interface{}{
		"trip_id": tripID,
		"host_id": userID,
	})

	return updated, nil
}

// UpdateTripStatus меняет статус поездки согласно StatusUpdatePolicy
// actor может быть nil, если запрос пришел без токена
func (s *Service) UpdateTripStatus(ctx context.Context, tripID uuid.UUID, status string, actor *uuid.UUID) (*domain.Trip, error) {
	newStatus := domain.TripStatus(status)
	if !newStatus.IsValid() {
		return nil, domain.ErrInvalidTripStatus
	}

	if s.opts.StatusPolicy == StatusPolicyHost {
		if actor == nil {
			return nil, domain.ErrUnauthorized
		}
		trip, err := s.tripRepo.GetByID(ctx, tripID)
		if err != nil {
			return nil, s.fail("get trip", err)
		}
		if !trip.IsHost(*actor) {
			return nil, domain.ErrNotTripHost
		}
	}

	updated, err := s.tripRepo.UpdateStatus(ctx, tripID, newStatus)
	if err != nil {
		return nil, s.fail("update trip status", err)
	}

	s.logger.Info("Trip status updated", map[string]interface{}{
		"trip_id": tripID,
		"status":  newStatus,
	})

	s.notifier.Notify(ctx, updated.Members(),
		"🛣️ Trip Status Updated",
		fmt.Sprintf("The trip from %s to %s is now marked as %q.", updated.SourceAddress, updated.DestinationAddress, newStatus),
	)

	return updated, nil
}

// FindNearbyRides ищет запланированные поездки, начинающиеся рядом с точкой
// radiusKm == 0 означает радиус по умолчанию, больше NearbyMaxRadiusKm обрезается
func (s *Service) FindNearbyRides(ctx context.Context, latitude, longitude, radiusKm float64) ([]*domain.Trip, error) {
	if err := domain.ValidateCoordinates(latitude, longitude); err != nil {
		return nil, err
	}

	if math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) || radiusKm < 0 {
		return nil, domain.ErrInvalidRadius
	}
	if radiusKm == 0 {
		radiusKm = DefaultNearbyRadiusKm
	}
	if s.opts.NearbyMaxRadiusKm > 0 && radiusKm > s.opts.NearbyMaxRadiusKm {
		radiusKm = s.opts.NearbyMaxRadiusKm
	}

	trips, err := s.tripRepo.FindNearby(ctx, domain.NewPoint(latitude, longitude), radiusKm*1000)
	if err != nil {
		return nil, s.fail("find nearby trips", err)
	}

	return trips, nil
}

// GetOngoingRides возвращает поездки пользователя в статусе ongoing
func (s *Service) GetOngoingRides(ctx context.Context, userID uuid.UUID) ([]*domain.Trip, error) {
	trips, err := s.tripRepo.ListByMemberAndStatus(ctx, userID, domain.TripStatusOngoing)
	if err != nil {
		return nil, s.fail("list ongoing trips", err)
	}
	return trips, nil
}

// ListAllTrips возвращает поездки, которые пользователь организовал
func (s *Service) ListAllTrips(ctx context.Context, hostID uuid.UUID) ([]*domain.Trip, error) {
	trips, err := s.tripRepo.ListByHost(ctx, hostID)
	if err != nil {
		return nil, s.fail("list hosted trips", err)
	}
	return trips, nil
}

// GetTripDetails возвращает поездку по ID
func (s *Service) GetTripDetails(ctx context.Context, tripID uuid.UUID) (*domain.Trip, error) {
	trip, err := s.tripRepo.GetByID(ctx, tripID)
	if err != nil {
		return nil, s.fail("get trip", err)
	}
	return trip, nil
}

// GetMyTrips возвращает все поездки, где пользователь хост или участник
func (s *Service) GetMyTrips(ctx context.Context, userID uuid.UUID) ([]*domain.Trip, error) {
	trips, err := s.tripRepo.ListByMember(ctx, userID)
	if err != nil {
		return nil, s.fail("list member trips", err)
	}
	return trips, nil
}

// resolveParticipants строит снимки начальных участников
// Отсутствующие пользователи, дубликаты и сам хост пропускаются
func (s *Service) resolveParticipants(ctx context.Context, ids []uuid.UUID, hostID uuid.UUID) ([]domain.TripUser, error) {
	participants := []domain.TripUser{}
	if len(ids) == 0 {
		return participants, nil
	}

	seen := make(map[uuid.UUID]bool, len(ids))
	unique := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == hostID || seen[id] {
			continue
		}
		seen[id] = true
		unique = append(unique, id)
	}

	users, err := s.userRepo.GetByIDs(ctx, unique)
	if err != nil {
		return nil, s.fail("get participants", err)
	}

	byID := make(map[uuid.UUID]*domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	// Сохраняем порядок из запроса
	for _, id := range unique {
		if u, ok := byID[id]; ok {
			participants = append(participants, domain.NewTripUser(u))
		}
	}

	return participants, nil
}

// domainErrors - ошибки, которые отдаются вызывающему без обертки
var domainErrors = []error{
	domain.ErrUserNotFound,
	domain.ErrVehicleNotFound,
	domain.ErrTripNotFound,
	domain.ErrTripNotFoundOrForbidden,
	domain.ErrInvalidTripData,
	domain.ErrInvalidTripStatus,
	domain.ErrInvalidLocation,
	domain.ErrInvalidRadius,
	domain.ErrInvalidDateRange,
	domain.ErrNoSeatsAvailable,
	domain.ErrAlreadyJoined,
	domain.ErrHostCannotLeave,
	domain.ErrNotParticipant,
	domain.ErrNotTripHost,
	domain.ErrUnauthorized,
}

// fail пропускает доменные ошибки как есть, остальные логирует и оборачивает
func (s *Service) fail(op string, err error) error {
	for _, known := range domainErrors {
		if errors.Is(err, known) {
			return err
		}
	}

	s.logger.Error("Trip operation failed", map[string]interface{}{
		"operation": op,
		"error":     err.Error(),
	})
	return fmt.Errorf("failed to %s: %w", op, err)
}
