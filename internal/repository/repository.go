package repository

import (
	"context"

	"github.com/Vishaljain290502/Rydr/internal/domain"
	"github.com/google/uuid"
)

// UserRepository определяет методы чтения пользователей из сервиса идентификации
// Сервис поездок пользователей не изменяет
type UserRepository interface {
	// GetByID возвращает пользователя вместе с его автомобилями
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByIDs возвращает найденных пользователей, отсутствующие id пропускаются без ошибки
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error)
}

// TripRepository определяет методы для работы с поездками
// Все изменяющие методы выполняются атомарно на стороне хранилища
type TripRepository interface {
	// Create сохраняет новую поездку (ID и временные метки заполняются здесь)
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID возвращает поездку по ID
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Trip, error)

	// ListByHost возвращает поездки, где пользователь - хост
	ListByHost(ctx context.Context, hostID uuid.UUID) ([]*domain.Trip, error)

	// ListByMember возвращает поездки, где пользователь - хост или участник
	ListByMember(ctx context.Context, userID uuid.UUID) ([]*domain.Trip, error)

	// ListByMemberAndStatus возвращает поездки пользователя с указанным статусом
	ListByMemberAndStatus(ctx context.Context, userID uuid.UUID, status domain.TripStatus) ([]*domain.Trip, error)

	// FindNearby возвращает запланированные поездки, начинающиеся в радиусе от точки,
	// отсортированные по возрастанию расстояния
	FindNearby(ctx context.Context, point domain.Location, radiusMeters float64) ([]*domain.Trip, error)

	// AddParticipant добавляет участника, только если место еще есть и пользователь не в поездке
	// Возвращает ErrTripNotFound, ErrAlreadyJoined или ErrNoSeatsAvailable
	AddParticipant(ctx context.Context, tripID uuid.UUID, participant domain.TripUser) (*domain.Trip, error)

	// RemoveParticipant удаляет участника, только если он в поездке
	// Возвращает ErrTripNotFound, ErrHostCannotLeave или ErrNotParticipant
	RemoveParticipant(ctx context.Context, tripID, userID uuid.UUID) (*domain.Trip, error)

	// UpdateByHost применяет patch к поездке с указанным хостом
	// Возвращает ErrTripNotFoundOrForbidden, если пары (id, host) нет
	UpdateByHost(ctx context.Context, tripID, hostID uuid.UUID, patch *domain.TripPatch) (*domain.Trip, error)

	// UpdateStatus безусловно устанавливает статус
	UpdateStatus(ctx context.Context, tripID uuid.UUID, status domain.TripStatus) (*domain.Trip, error)

	// DeleteByHost удаляет поездку, если хост совпадает
	// Возвращает ErrTripNotFound или ErrNotTripHost
	DeleteByHost(ctx context.Context, tripID, hostID uuid.UUID) error
}
