package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Vishaljain290502/Rydr/internal/domain"
	"github.com/Vishaljain290502/Rydr/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedUser создает пользователя с одним автомобилем
func seedUser(t *testing.T, db *pgxpool.Pool, firstName, deviceToken string) (*domain.User, uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	userID := uuid.New()
	_, err := db.Exec(ctx, `
		INSERT INTO users (id, first_name, last_name, number, country_code, device_token)
		VALUES ($1, $2, 'Test', '9876543210', '+91', $3)`,
		userID, firstName, deviceToken)
	require.NoError(t, err)

	vehicleID := uuid.New()
	_, err = db.Exec(ctx, `
		INSERT INTO vehicles (
			id, owner_id, vehicle_number, registration_certificate_number, insurance_number,
			vehicle_owner_name, brand_name, model_name, vehicle_type, fuel_type, number_of_seats
		)
		VALUES ($1, $2, $3, 'RC-1', 'INS-1', $4, 'Maruti', 'Swift', 'Hatchback', 'Petrol', 4)`,
		vehicleID, userID, "MH12"+vehicleID.String()[:6], firstName)
	require.NoError(t, err)

	user, err := NewUserRepository(db).GetByID(ctx, userID)
	require.NoError(t, err)
	return user, vehicleID
}

func newTrip(host *domain.User, source domain.Location, capacity int) *domain.Trip {
	return &domain.Trip{
		Host:               domain.NewTripUser(host),
		Source:             source,
		SourceAddress:      "Start",
		Destination:        domain.NewPoint(19.0760, 72.8777),
		DestinationAddress: "Mumbai",
		StartDate:          time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second),
		Vehicle:            domain.NewVehicleSnapshot(host.Vehicles[0]),
		SeatCapacity:       capacity,
		SeatsAvailable:     capacity,
		PricePerPerson:     250,
		Status:             domain.TripStatusScheduled,
	}
}

func TestUserRepository(t *testing.T) {
	db := setupDatabase(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	host, vehicleID := seedUser(t, db, "Asha", "token-asha")
	require.Len(t, host.Vehicles, 1)
	assert.Equal(t, vehicleID, host.Vehicles[0].ID)
	assert.Equal(t, "token-asha", host.DeviceToken)

	t.Run("пользователь не найден", func(t *testing.T) {
		_, err := repo.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrUserNotFound)
	})

	t.Run("пакетная загрузка пропускает отсутствующих", func(t *testing.T) {
		users, err := repo.GetByIDs(ctx, []uuid.UUID{host.ID, uuid.New()})
		require.NoError(t, err)
		require.Len(t, users, 1)
		assert.Equal(t, host.ID, users[0].ID)
	})
}

func TestTripRepository_CreateAndGet(t *testing.T) {
	db := setupDatabase(t)
	repo := NewTripRepository(db)
	ctx := context.Background()

	version, err := database.PostGISVersion(ctx, db)
	require.NoError(t, err)
	assert.NotEmpty(t, version)

	host, _ := seedUser(t, db, "Ravi", "")
	trip := newTrip(host, domain.NewPoint(18.5204, 73.8567), 3)

	require.NoError(t, repo.Create(ctx, trip))
	assert.NotEqual(t, uuid.Nil, trip.ID)

	got, err := repo.GetByID(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, host.ID, got.Host.ID)
	assert.InDelta(t, 18.5204, got.Source.Latitude(), 1e-6)
	assert.InDelta(t, 73.8567, got.Source.Longitude(), 1e-6)
	assert.Equal(t, "MH12", got.Vehicle.VehicleNumber[:4])
	assert.Empty(t, got.Participants)
	assert.Equal(t, 3, got.SeatsAvailable)
	assert.True(t, trip.StartDate.Equal(got.StartDate))

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrTripNotFound)
}

func TestTripRepository_Participants(t *testing.T) {
	db := setupDatabase(t)
	repo := NewTripRepository(db)
	ctx := context.Background()

	host, _ := seedUser(t, db, "Host", "")
	rider, _ := seedUser(t, db, "Rider", "")

	trip := newTrip(host, domain.NewPoint(18.5204, 73.8567), 1)
	require.NoError(t, repo.Create(ctx, trip))

	t.Run("хост не может присоединиться", func(t *testing.T) {
		_, err := repo.AddParticipant(ctx, trip.ID, domain.NewTripUser(host))
		assert.ErrorIs(t, err, domain.ErrAlreadyJoined)
	})

	t.Run("присоединение занимает место", func(t *testing.T) {
		joined, err := repo.AddParticipant(ctx, trip.ID, domain.NewTripUser(rider))
		require.NoError(t, err)
		assert.Equal(t, 0, joined.SeatsAvailable)
		require.Len(t, joined.Participants, 1)
		assert.Equal(t, rider.ID, joined.Participants[0].ID)
	})

	t.Run("повторное присоединение", func(t *testing.T) {
		_, err := repo.AddParticipant(ctx, trip.ID, domain.NewTripUser(rider))
		assert.ErrorIs(t, err, domain.ErrAlreadyJoined)
	})

	t.Run("мест нет", func(t *testing.T) {
		other, _ := seedUser(t, db, "Late", "")
		_, err := repo.AddParticipant(ctx, trip.ID, domain.NewTripUser(other))
		assert.ErrorIs(t, err, domain.ErrNoSeatsAvailable)
	})

	t.Run("выход освобождает место", func(t *testing.T) {
		left, err := repo.RemoveParticipant(ctx, trip.ID, rider.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, left.SeatsAvailable)
		assert.Empty(t, left.Participants)
	})

	t.Run("выход не участника и хоста", func(t *testing.T) {
		_, err := repo.RemoveParticipant(ctx, trip.ID, rider.ID)
		assert.ErrorIs(t, err, domain.ErrNotParticipant)

		_, err = repo.RemoveParticipant(ctx, trip.ID, host.ID)
		assert.ErrorIs(t, err, domain.ErrHostCannotLeave)
	})
}

func TestTripRepository_ConcurrentJoin(t *testing.T) {
	db := setupDatabase(t)
	repo := NewTripRepository(db)
	ctx := context.Background()

	host, _ := seedUser(t, db, "Host", "")
	trip := newTrip(host, domain.NewPoint(18.5204, 73.8567), 3)
	require.NoError(t, repo.Create(ctx, trip))

	riders := make([]*domain.User, 10)
	for i := range riders {
		riders[i], _ = seedUser(t, db, "Rider", "")
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		joined  int
		noSeats int
	)
	for _, rider := range riders {
		wg.Add(1)
		go func(u *domain.User) {
			defer wg.Done()
			_, err := repo.AddParticipant(ctx, trip.ID, domain.NewTripUser(u))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				joined++
			case assert.ErrorIs(t, err, domain.ErrNoSeatsAvailable):
				noSeats++
			}
		}(rider)
	}
	wg.Wait()

	assert.Equal(t, 3, joined)
	assert.Equal(t, 7, noSeats)

	got, err := repo.GetByID(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.SeatsAvailable)
	assert.Len(t, got.Participants, 3)
}

func TestTripRepository_FindNearby(t *testing.T) {
	db := setupDatabase(t)
	repo := NewTripRepository(db)
	ctx := context.Background()

	host, _ := seedUser(t, db, "Host", "")

	near := newTrip(host, domain.NewPoint(18.5300, 73.8500), 2)   // ~1.3 км от центра Пуне
	nearer := newTrip(host, domain.NewPoint(18.5210, 73.8570), 2) // ~0.1 км
	far := newTrip(host, domain.NewPoint(19.0760, 72.8777), 2)    // Мумбаи
	ongoing := newTrip(host, domain.NewPoint(18.5205, 73.8568), 2)
	ongoing.Status = domain.TripStatusOngoing

	for _, trip := range []*domain.Trip{near, nearer, far, ongoing} {
		require.NoError(t, repo.Create(ctx, trip))
	}

	trips, err := repo.FindNearby(ctx, domain.NewPoint(18.5204, 73.8567), 10_000)
	require.NoError(t, err)
	require.Len(t, trips, 2)
	assert.Equal(t, nearer.ID, trips[0].ID)
	assert.Equal(t, near.ID, trips[1].ID)
	require.NotNil(t, trips[0].DistanceKm)
	assert.Less(t, *trips[0].DistanceKm, *trips[1].DistanceKm)
	assert.Less(t, *trips[1].DistanceKm, 2.0)
}

func TestTripRepository_HostOperations(t *testing.T) {
	db := setupDatabase(t)
	repo := NewTripRepository(db)
	ctx := context.Background()

	host, _ := seedUser(t, db, "Host", "")
	stranger, _ := seedUser(t, db, "Stranger", "")
	rider, _ := seedUser(t, db, "Rider", "")

	trip := newTrip(host, domain.NewPoint(18.5204, 73.8567), 3)
	require.NoError(t, repo.Create(ctx, trip))
	_, err := repo.AddParticipant(ctx, trip.ID, domain.NewTripUser(rider))
	require.NoError(t, err)

	t.Run("обновление хостом пересчитывает места", func(t *testing.T) {
		capacity := 5
		price := 300.0
		updated, err := repo.UpdateByHost(ctx, trip.ID, host.ID, &domain.TripPatch{
			SeatCapacity:   &capacity,
			PricePerPerson: &price,
		})
		require.NoError(t, err)
		assert.Equal(t, 5, updated.SeatCapacity)
		assert.Equal(t, 4, updated.SeatsAvailable)
		assert.Equal(t, 300.0, updated.PricePerPerson)
	})

	t.Run("мест меньше чем участников", func(t *testing.T) {
		capacity := 0
		_, err := repo.UpdateByHost(ctx, trip.ID, host.ID, &domain.TripPatch{SeatCapacity: &capacity})
		assert.Error(t, err)
	})

	t.Run("обновление чужой поездки", func(t *testing.T) {
		price := 1.0
		_, err := repo.UpdateByHost(ctx, trip.ID, stranger.ID, &domain.TripPatch{PricePerPerson: &price})
		assert.ErrorIs(t, err, domain.ErrTripNotFoundOrForbidden)
	})

	t.Run("смена статуса", func(t *testing.T) {
		updated, err := repo.UpdateStatus(ctx, trip.ID, domain.TripStatusOngoing)
		require.NoError(t, err)
		assert.Equal(t, domain.TripStatusOngoing, updated.Status)

		ongoing, err := repo.ListByMemberAndStatus(ctx, rider.ID, domain.TripStatusOngoing)
		require.NoError(t, err)
		assert.Len(t, ongoing, 1)
	})

	t.Run("списки по хосту и участнику", func(t *testing.T) {
		hosted, err := repo.ListByHost(ctx, host.ID)
		require.NoError(t, err)
		assert.Len(t, hosted, 1)

		member, err := repo.ListByMember(ctx, rider.ID)
		require.NoError(t, err)
		assert.Len(t, member, 1)

		none, err := repo.ListByMember(ctx, stranger.ID)
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("удаление", func(t *testing.T) {
		assert.ErrorIs(t, repo.DeleteByHost(ctx, trip.ID, stranger.ID), domain.ErrNotTripHost)
		assert.ErrorIs(t, repo.DeleteByHost(ctx, uuid.New(), host.ID), domain.ErrTripNotFound)
		require.NoError(t, repo.DeleteByHost(ctx, trip.ID, host.ID))

		_, err := repo.GetByID(ctx, trip.ID)
		assert.ErrorIs(t, err, domain.ErrTripNotFound)
	})
}
