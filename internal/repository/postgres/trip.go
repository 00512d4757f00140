package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Vishaljain290502/Rydr/internal/domain"
	"github.com/Vishaljain290502/Rydr/internal/repository"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// maxConditionalAttempts - сколько раз повторяем условное обновление,
// если повторное чтение показало, что условие снова выполняется
const maxConditionalAttempts = 3

// tripColumns - порядок колонок должен совпадать с scanTrip
const tripColumns = `
	id, host,
	ST_X(source::geometry), ST_Y(source::geometry), source_address,
	ST_X(destination::geometry), ST_Y(destination::geometry), destination_address,
	start_date, end_date, vehicle, seat_capacity, seats_available, participants,
	price_per_person, status, created_at, updated_at`

// tripRepository - PostgreSQL/PostGIS реализация TripRepository
// Снимки хоста, участников и автомобиля хранятся в JSONB
type tripRepository struct {
	db *pgxpool.Pool
}

// NewTripRepository создает новый экземпляр tripRepository
func NewTripRepository(db *pgxpool.Pool) repository.TripRepository {
	return &tripRepository{db: db}
}

func (r *tripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (
			id, host_id, host, source, source_address, destination, destination_address,
			start_date, end_date, vehicle, seat_capacity, seats_available, participants,
			price_per_person, status, created_at, updated_at
		)
		VALUES (
			@id, @host_id, @host::jsonb,
			ST_SetSRID(ST_MakePoint(@source_lng, @source_lat), 4326)::geography, @source_address,
			ST_SetSRID(ST_MakePoint(@destination_lng, @destination_lat), 4326)::geography, @destination_address,
			@start_date, @end_date, @vehicle::jsonb, @seat_capacity, @seats_available, @participants::jsonb,
			@price_per_person, @status, @created_at, @updated_at
		)
	`

	trip.ID = uuid.New()
	trip.CreatedAt = time.Now().UTC()
	trip.UpdatedAt = trip.CreatedAt
	if trip.Participants == nil {
		trip.Participants = []domain.TripUser{}
	}

	host, err := marshalJSON(trip.Host)
	if err != nil {
		return err
	}
	vehicle, err := marshalJSON(trip.Vehicle)
	if err != nil {
		return err
	}
	participants, err := marshalJSON(trip.Participants)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, pgx.NamedArgs{
		"id":                  trip.ID,
		"host_id":             trip.Host.ID,
		"host":                host,
		"source_lng":          trip.Source.Longitude(),
		"source_lat":          trip.Source.Latitude(),
		"source_address":      trip.SourceAddress,
		"destination_lng":     trip.Destination.Longitude(),
		"destination_lat":     trip.Destination.Latitude(),
		"destination_address": trip.DestinationAddress,
		"start_date":          trip.StartDate,
		"end_date":            trip.EndDate,
		"vehicle":             vehicle,
		"seat_capacity":       trip.SeatCapacity,
		"seats_available":     trip.SeatsAvailable,
		"participants":        participants,
		"price_per_person":    trip.PricePerPerson,
		"status":              trip.Status,
		"created_at":          trip.CreatedAt,
		"updated_at":          trip.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("postgres.TripRepository.Create: %w", err)
	}

	return nil
}

func (r *tripRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = @id`

	trip, err := scanTrip(r.db.QueryRow(ctx, query, pgx.NamedArgs{"id": id}))
	if err != nil {
		return nil, err
	}
	return trip, nil
}

func (r *tripRepository) ListByHost(ctx context.Context, hostID uuid.UUID) ([]*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE host_id = @host_id
		ORDER BY start_date DESC
	`

	return r.queryTrips(ctx, query, pgx.NamedArgs{"host_id": hostID})
}

func (r *tripRepository) ListByMember(ctx context.Context, userID uuid.UUID) ([]*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE host_id = @user_id OR participants @> @match::jsonb
		ORDER BY start_date DESC
	`

	return r.queryTrips(ctx, query, pgx.NamedArgs{
		"user_id": userID,
		"match":   participantMatch(userID),
	})
}

func (r *tripRepository) ListByMemberAndStatus(ctx context.Context, userID uuid.UUID, status domain.TripStatus) ([]*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + `
		FROM trips
		WHERE (host_id = @user_id OR participants @> @match::jsonb)
		  AND status = @status
		ORDER BY start_date ASC
	`

	return r.queryTrips(ctx, query, pgx.NamedArgs{
		"user_id": userID,
		"match":   participantMatch(userID),
		"status":  status,
	})
}

// FindNearby - геопоиск по точке старта через индекс GIST
func (r *tripRepository) FindNearby(ctx context.Context, point domain.Location, radiusMeters float64) ([]*domain.Trip, error) {
	query := `
		SELECT ` + tripColumns + `, ST_Distance(source, q.point) AS distance
		FROM trips, (SELECT ST_SetSRID(ST_MakePoint(@lng, @lat), 4326)::geography AS point) AS q
		WHERE status = @status
		  AND ST_DWithin(source, q.point, @radius)
		ORDER BY distance ASC
	`

	rows, err := r.db.Query(ctx, query, pgx.NamedArgs{
		"lng":    point.Longitude(),
		"lat":    point.Latitude(),
		"status": domain.TripStatusScheduled,
		"radius": radiusMeters,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres.TripRepository.FindNearby: %w", err)
	}
	defer rows.Close()

	trips := []*domain.Trip{}
	for rows.Next() {
		var distanceMeters float64
		trip, err := scanTrip(rows, &distanceMeters)
		if err != nil {
			return nil, fmt.Errorf("postgres.TripRepository.FindNearby: scan: %w", err)
		}
		km := distanceMeters / 1000
		trip.DistanceKm = &km
		trips = append(trips, trip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.TripRepository.FindNearby: rows: %w", err)
	}

	return trips, nil
}

// AddParticipant - условное обновление: строка меняется только если место есть
// и пользователя еще нет в поездке. Два одновременных вызова сериализуются блокировкой строки
func (r *tripRepository) AddParticipant(ctx context.Context, tripID uuid.UUID, participant domain.TripUser) (*domain.Trip, error) {
	query := `
		UPDATE trips
		SET participants    = participants || jsonb_build_array(@participant::jsonb),
		    seats_available = seats_available - 1,
		    updated_at      = now()
		WHERE id = @id
		  AND seats_available > 0
		  AND host_id <> @user_id
		  AND NOT participants @> @match::jsonb
		RETURNING ` + tripColumns

	snapshot, err := marshalJSON(participant)
	if err != nil {
		return nil, err
	}
	args := pgx.NamedArgs{
		"id":          tripID,
		"participant": snapshot,
		"user_id":     participant.ID,
		"match":       participantMatch(participant.ID),
	}

	for attempt := 0; attempt < maxConditionalAttempts; attempt++ {
		trip, err := scanTrip(r.db.QueryRow(ctx, query, args))
		if err == nil {
			return trip, nil
		}
		if !errors.Is(err, domain.ErrTripNotFound) {
			return nil, fmt.Errorf("postgres.TripRepository.AddParticipant: %w", err)
		}

		// Ни одна строка не подошла - выясняем почему
		current, err := r.GetByID(ctx, tripID)
		if err != nil {
			return nil, err
		}
		if err := current.CanJoin(participant.ID); err != nil {
			return nil, err
		}
	}

	return nil, domain.ErrNoSeatsAvailable
}

func (r *tripRepository) RemoveParticipant(ctx context.Context, tripID, userID uuid.UUID) (*domain.Trip, error) {
	query := `
		UPDATE trips
		SET participants = COALESCE((
		        SELECT jsonb_agg(e.p ORDER BY e.ord)
		        FROM jsonb_array_elements(participants) WITH ORDINALITY AS e(p, ord)
		        WHERE e.p->>'id' <> @user_id_text
		    ), '[]'::jsonb),
		    seats_available = seats_available + 1,
		    updated_at      = now()
		WHERE id = @id
		  AND participants @> @match::jsonb
		RETURNING ` + tripColumns

	args := pgx.NamedArgs{
		"id":           tripID,
		"user_id_text": userID.String(),
		"match":        participantMatch(userID),
	}

	for attempt := 0; attempt < maxConditionalAttempts; attempt++ {
		trip, err := scanTrip(r.db.QueryRow(ctx, query, args))
		if err == nil {
			return trip, nil
		}
		if !errors.Is(err, domain.ErrTripNotFound) {
			return nil, fmt.Errorf("postgres.TripRepository.RemoveParticipant: %w", err)
		}

		current, err := r.GetByID(ctx, tripID)
		if err != nil {
			return nil, err
		}
		if err := current.CanLeave(userID); err != nil {
			return nil, err
		}
	}

	return nil, domain.ErrNotParticipant
}

// UpdateByHost читает строку под FOR UPDATE, применяет patch с проверкой инвариантов и сохраняет
func (r *tripRepository) UpdateByHost(ctx context.Context, tripID, hostID uuid.UUID, patch *domain.TripPatch) (*domain.Trip, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres.TripRepository.UpdateByHost: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	selectQuery := `SELECT ` + tripColumns + ` FROM trips WHERE id = @id AND host_id = @host_id FOR UPDATE`

	trip, err := scanTrip(tx.QueryRow(ctx, selectQuery, pgx.NamedArgs{"id": tripID, "host_id": hostID}))
	if err != nil {
		if errors.Is(err, domain.ErrTripNotFound) {
			return nil, domain.ErrTripNotFoundOrForbidden
		}
		return nil, fmt.Errorf("postgres.TripRepository.UpdateByHost: select: %w", err)
	}

	if err := patch.Apply(trip); err != nil {
		return nil, err
	}

	updateQuery := `
		UPDATE trips
		SET source              = ST_SetSRID(ST_MakePoint(@source_lng, @source_lat), 4326)::geography,
		    source_address      = @source_address,
		    destination         = ST_SetSRID(ST_MakePoint(@destination_lng, @destination_lat), 4326)::geography,
		    destination_address = @destination_address,
		    start_date          = @start_date,
		    end_date            = @end_date,
		    seat_capacity       = @seat_capacity,
		    seats_available     = @seats_available,
		    price_per_person    = @price_per_person,
		    status              = @status,
		    updated_at          = now()
		WHERE id = @id
		RETURNING ` + tripColumns

	updated, err := scanTrip(tx.QueryRow(ctx, updateQuery, pgx.NamedArgs{
		"id":                  trip.ID,
		"source_lng":          trip.Source.Longitude(),
		"source_lat":          trip.Source.Latitude(),
		"source_address":      trip.SourceAddress,
		"destination_lng":     trip.Destination.Longitude(),
		"destination_lat":     trip.Destination.Latitude(),
		"destination_address": trip.DestinationAddress,
		"start_date":          trip.StartDate,
		"end_date":            trip.EndDate,
		"seat_capacity":       trip.SeatCapacity,
		"seats_available":     trip.SeatsAvailable,
		"price_per_person":    trip.PricePerPerson,
		"status":              trip.Status,
	}))
	if err != nil {
		return nil, fmt.Errorf("postgres.TripRepository.UpdateByHost: update: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("postgres.TripRepository.UpdateByHost: commit: %w", err)
	}

	return updated, nil
}

func (r *tripRepository) UpdateStatus(ctx context.Context, tripID uuid.UUID, status domain.TripStatus) (*domain.Trip, error) {
	query := `
		UPDATE trips
		SET status = @status, updated_at = now()
		WHERE id = @id
		RETURNING ` + tripColumns

	trip, err := scanTrip(r.db.QueryRow(ctx, query, pgx.NamedArgs{"id": tripID, "status": status}))
	if err != nil {
		return nil, err
	}
	return trip, nil
}

func (r *tripRepository) DeleteByHost(ctx context.Context, tripID, hostID uuid.UUID) error {
	query := `DELETE FROM trips WHERE id = @id AND host_id = @host_id`

	result, err := r.db.Exec(ctx, query, pgx.NamedArgs{"id": tripID, "host_id": hostID})
	if err != nil {
		return fmt.Errorf("postgres.TripRepository.DeleteByHost: %w", err)
	}

	if result.RowsAffected() == 0 {
		var exists bool
		err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM trips WHERE id = @id)`, pgx.NamedArgs{"id": tripID}).Scan(&exists)
		if err != nil {
			return fmt.Errorf("postgres.TripRepository.DeleteByHost: exists: %w", err)
		}
		if !exists {
			return domain.ErrTripNotFound
		}
		return domain.ErrNotTripHost
	}

	return nil
}

func (r *tripRepository) queryTrips(ctx context.Context, query string, args pgx.NamedArgs) ([]*domain.Trip, error) {
	rows, err := r.db.Query(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("postgres.TripRepository: query: %w", err)
	}
	defer rows.Close()

	trips := []*domain.Trip{}
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres.TripRepository: scan: %w", err)
		}
		trips = append(trips, trip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.TripRepository: rows: %w", err)
	}

	return trips, nil
}

// scanner подходит и для pgx.Row, и для pgx.Rows
type scanner interface {
	Scan(dest ...any) error
}

// scanTrip - вспомогательная функция для сканирования строки поездки
// extra - дополнительные колонки после tripColumns (например, расстояние)
func scanTrip(s scanner, extra ...any) (*domain.Trip, error) {
	var (
		trip                                   domain.Trip
		host, vehicle, participants            []byte
		sourceLng, sourceLat, destLng, destLat float64
		status                                 string
	)

	dest := []any{
		&trip.ID, &host,
		&sourceLng, &sourceLat, &trip.SourceAddress,
		&destLng, &destLat, &trip.DestinationAddress,
		&trip.StartDate, &trip.EndDate, &vehicle, &trip.SeatCapacity, &trip.SeatsAvailable, &participants,
		&trip.PricePerPerson, &status, &trip.CreatedAt, &trip.UpdatedAt,
	}
	dest = append(dest, extra...)

	if err := s.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTripNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(host, &trip.Host); err != nil {
		return nil, fmt.Errorf("decode host snapshot: %w", err)
	}
	if err := json.Unmarshal(vehicle, &trip.Vehicle); err != nil {
		return nil, fmt.Errorf("decode vehicle snapshot: %w", err)
	}
	if err := json.Unmarshal(participants, &trip.Participants); err != nil {
		return nil, fmt.Errorf("decode participants: %w", err)
	}
	if trip.Participants == nil {
		trip.Participants = []domain.TripUser{}
	}

	trip.Source = domain.NewPoint(sourceLat, sourceLng)
	trip.Destination = domain.NewPoint(destLat, destLng)
	trip.Status = domain.TripStatus(status)

	return &trip, nil
}

// participantMatch строит JSONB шаблон для оператора @> по id участника
func participantMatch(userID uuid.UUID) string {
	return `[{"id":"` + userID.String() + `"}]`
}

func marshalJSON(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode jsonb: %w", err)
	}
	return string(data), nil
}
