package trip

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Vishaljain290502/Rydr/internal/domain"
	"github.com/google/uuid"
)

// memoryTripStore - хранилище поездок в памяти с теми же условными обновлениями,
// что и PostgreSQL реализация: все изменения под одной блокировкой
type memoryTripStore struct {
	mu    sync.Mutex
	trips map[uuid.UUID]*domain.Trip
	order []uuid.UUID
}

func newMemoryTripStore() *memoryTripStore {
	return &memoryTripStore{trips: make(map[uuid.UUID]*domain.Trip)}
}

func copyTrip(t *domain.Trip) *domain.Trip {
	c := *t
	c.Participants = append([]domain.TripUser{}, t.Participants...)
	return &c
}

func (m *memoryTripStore) Create(_ context.Context, trip *domain.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	trip.ID = uuid.New()
	trip.CreatedAt = time.Now().UTC()
	trip.UpdatedAt = trip.CreatedAt
	m.trips[trip.ID] = copyTrip(trip)
	m.order = append(m.order, trip.ID)
	return nil
}

func (m *memoryTripStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.trips[id]
	if !ok {
		return nil, domain.ErrTripNotFound
	}
	return copyTrip(t), nil
}

func (m *memoryTripStore) filter(keep func(*domain.Trip) bool) []*domain.Trip {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := []*domain.Trip{}
	for _, id := range m.order {
		t, ok := m.trips[id]
		if ok && keep(t) {
			result = append(result, copyTrip(t))
		}
	}
	return result
}

func (m *memoryTripStore) ListByHost(_ context.Context, hostID uuid.UUID) ([]*domain.Trip, error) {
	return m.filter(func(t *domain.Trip) bool { return t.IsHost(hostID) }), nil
}

func (m *memoryTripStore) ListByMember(_ context.Context, userID uuid.UUID) ([]*domain.Trip, error) {
	return m.filter(func(t *domain.Trip) bool { return t.IsMember(userID) }), nil
}

func (m *memoryTripStore) ListByMemberAndStatus(_ context.Context, userID uuid.UUID, status domain.TripStatus) ([]*domain.Trip, error) {
	return m.filter(func(t *domain.Trip) bool { return t.IsMember(userID) && t.Status == status }), nil
}

func (m *memoryTripStore) FindNearby(_ context.Context, point domain.Location, radiusMeters float64) ([]*domain.Trip, error) {
	trips := m.filter(func(t *domain.Trip) bool {
		return t.Status == domain.TripStatusScheduled && domain.DistanceKm(point, t.Source)*1000 <= radiusMeters
	})
	for _, t := range trips {
		d := domain.DistanceKm(point, t.Source)
		t.DistanceKm = &d
	}
	sort.SliceStable(trips, func(i, j int) bool { return *trips[i].DistanceKm < *trips[j].DistanceKm })
	return trips, nil
}

func (m *memoryTripStore) AddParticipant(_ context.Context, tripID uuid.UUID, participant domain.TripUser) (*domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.trips[tripID]
	if !ok {
		return nil, domain.ErrTripNotFound
	}
	if err := t.AddParticipant(participant); err != nil {
		return nil, err
	}
	return copyTrip(t), nil
}

func (m *memoryTripStore) RemoveParticipant(_ context.Context, tripID, userID uuid.UUID) (*domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.trips[tripID]
	if !ok {
		return nil, domain.ErrTripNotFound
	}
	if err := t.RemoveParticipant(userID); err != nil {
		return nil, err
	}
	return copyTrip(t), nil
}

func (m *memoryTripStore) UpdateByHost(_ context.Context, tripID, hostID uuid.UUID, patch *domain.TripPatch) (*domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.trips[tripID]
	if !ok || !t.IsHost(hostID) {
		return nil, domain.ErrTripNotFoundOrForbidden
	}
	updated := copyTrip(t)
	if err := patch.Apply(updated); err != nil {
		return nil, err
	}
	m.trips[tripID] = updated
	return copyTrip(updated), nil
}

func (m *memoryTripStore) UpdateStatus(_ context.Context, tripID uuid.UUID, status domain.TripStatus) (*domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.trips[tripID]
	if !ok {
		return nil, domain.ErrTripNotFound
	}
	t.Status = status
	return copyTrip(t), nil
}

func (m *memoryTripStore) DeleteByHost(_ context.Context, tripID, hostID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.trips[tripID]
	if !ok {
		return domain.ErrTripNotFound
	}
	if !t.IsHost(hostID) {
		return domain.ErrNotTripHost
	}
	delete(m.trips, tripID)
	return nil
}

// staleReadStore отдает на чтение зафиксированный снимок поездки, как кэш с устаревшей записью
type staleReadStore struct {
	*memoryTripStore
	snapshot *domain.Trip
}

func (s *staleReadStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Trip, error) {
	if s.snapshot == nil || s.snapshot.ID != id {
		return nil, domain.ErrTripNotFound
	}
	return copyTrip(s.snapshot), nil
}

// memoryUserStore - пользователи сервиса идентификации
type memoryUserStore struct {
	users map[uuid.UUID]*domain.User
}

func newMemoryUserStore(users ...*domain.User) *memoryUserStore {
	s := &memoryUserStore{users: make(map[uuid.UUID]*domain.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memoryUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *memoryUserStore) GetByIDs(_ context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	result := []*domain.User{}
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			result = append(result, u)
		}
	}
	return result, nil
}

type notification struct {
	recipients []domain.TripUser
	title      string
	body       string
}

// recordingNotifier запоминает уведомления вместо отправки
type recordingNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *recordingNotifier) Notify(_ context.Context, recipients []domain.TripUser, title, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notification{recipients: recipients, title: title, body: body})
}

func (n *recordingNotifier) all() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification{}, n.sent...)
}

func newTestUser(firstName string) *domain.User {
	return &domain.User{
		ID:          uuid.New(),
		FirstName:   firstName,
		LastName:    "Tester",
		Number:      "9876543210",
		CountryCode: "+91",
		DeviceToken: "token-" + firstName,
	}
}

func newTestHost(firstName string) *domain.User {
	u := newTestUser(firstName)
	u.Vehicles = []*domain.Vehicle{{
		ID:               uuid.New(),
		OwnerID:          u.ID,
		VehicleNumber:    "mh 12 ab 1234",
		VehicleOwnerName: firstName + " Tester",
		BrandName:        "Maruti",
		ModelName:        "Swift",
		VehicleType:      "hatchback",
		FuelType:         domain.FuelTypePetrol,
		NumberOfSeats:    4,
		IsAirConditioned: true,
	}}
	return u
}
