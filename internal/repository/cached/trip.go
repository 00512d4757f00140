package cached

import (
	"context"
	"errors"
	"time"

	"github.com/Vishaljain290502/Rydr/internal/domain"
	"github.com/Vishaljain290502/Rydr/internal/pkg/logger"
	"github.com/Vishaljain290502/Rydr/internal/pkg/redis"
	"github.com/Vishaljain290502/Rydr/internal/repository"
	"github.com/google/uuid"
)

const (
	tripCachePrefix      = "trip:"
	tripGenerationPrefix = "trip:gen:"
	defaultTripCacheTTL  = 5 * time.Minute
	tripGenerationTTL    = time.Hour
)

// TripRepository добавляет кэширование карточки поездки к trip repository
// Списки и геопоиск не кэшируются: они зависят от состава участников и статуса
// Каждая инвалидация увеличивает поколение ключа, и чтение, начатое до нее, в кэш уже не попадет
type TripRepository struct {
	repo   repository.TripRepository
	cache  *redis.Client
	ttl    time.Duration
	genTTL time.Duration
	logger logger.Logger
}

// NewTripRepository создает новый кэшируемый trip repository
func NewTripRepository(repo repository.TripRepository, cache *redis.Client, ttl time.Duration, log logger.Logger) *TripRepository {
	if ttl <= 0 {
		ttl = defaultTripCacheTTL
	}
	genTTL := tripGenerationTTL
	if ttl > genTTL {
		genTTL = ttl
	}
	return &TripRepository{
		repo:   repo,
		cache:  cache,
		ttl:    ttl,
		genTTL: genTTL,
		logger: log,
	}
}

// GetByID получает поездку по ID (с кэшированием)
func (r *TripRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Trip, error) {
	cacheKey := tripCachePrefix + id.String()

	// 1. Проверяем кэш
	trip := &domain.Trip{}
	err := r.cache.GetJSON(ctx, cacheKey, trip)
	switch {
	case err == nil:
		return trip, nil
	case errors.Is(err, redis.ErrCorruptEntry):
		_ = r.cache.Del(ctx, cacheKey)
	case !errors.Is(err, redis.ErrCacheMiss):
		// Ошибка кэша не критична, идем в БД
		r.logger.Warn("trip cache read failed", map[string]interface{}{
			"trip_id": id.String(),
			"error":   err.Error(),
		})
	}

	// 2. Cache miss - запоминаем поколение и идем в БД
	generation, genErr := r.cache.Generation(ctx, tripGenerationPrefix+id.String())

	trip, err = r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// 3. Сохраняем в кэш, если за время чтения поездку не меняли
	if genErr == nil {
		r.store(ctx, trip, generation)
	}

	return trip, nil
}

// Create создает поездку (в кэш не пишем до первого чтения)
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	return r.repo.Create(ctx, trip)
}

func (r *TripRepository) ListByHost(ctx context.Context, hostID uuid.UUID) ([]*domain.Trip, error) {
	return r.repo.ListByHost(ctx, hostID)
}

func (r *TripRepository) ListByMember(ctx context.Context, userID uuid.UUID) ([]*domain.Trip, error) {
	return r.repo.ListByMember(ctx, userID)
}

func (r *TripRepository) ListByMemberAndStatus(ctx context.Context, userID uuid.UUID, status domain.TripStatus) ([]*domain.Trip, error) {
	return r.repo.ListByMemberAndStatus(ctx, userID, status)
}

func (r *TripRepository) FindNearby(ctx context.Context, point domain.Location, radiusMeters float64) ([]*domain.Trip, error) {
	return r.repo.FindNearby(ctx, point, radiusMeters)
}

// AddParticipant добавляет участника и инвалидирует кэш
func (r *TripRepository) AddParticipant(ctx context.Context, tripID uuid.UUID, participant domain.TripUser) (*domain.Trip, error) {
	trip, err := r.repo.AddParticipant(ctx, tripID, participant)
	r.invalidate(ctx, tripID)
	return trip, err
}

// RemoveParticipant удаляет участника и инвалидирует кэш
func (r *TripRepository) RemoveParticipant(ctx context.Context, tripID, userID uuid.UUID) (*domain.Trip, error) {
	trip, err := r.repo.RemoveParticipant(ctx, tripID, userID)
	r.invalidate(ctx, tripID)
	return trip, err
}

// UpdateByHost обновляет поездку и инвалидирует кэш
func (r *TripRepository) UpdateByHost(ctx context.Context, tripID, hostID uuid.UUID, patch *domain.TripPatch) (*domain.Trip, error) {
	trip, err := r.repo.UpdateByHost(ctx, tripID, hostID, patch)
	r.invalidate(ctx, tripID)
	return trip, err
}

// UpdateStatus меняет статус и инвалидирует кэш
func (r *TripRepository) UpdateStatus(ctx context.Context, tripID uuid.UUID, status domain.TripStatus) (*domain.Trip, error) {
	trip, err := r.repo.UpdateStatus(ctx, tripID, status)
	r.invalidate(ctx, tripID)
	return trip, err
}

// DeleteByHost удаляет поездку и инвалидирует кэш
func (r *TripRepository) DeleteByHost(ctx context.Context, tripID, hostID uuid.UUID) error {
	err := r.repo.DeleteByHost(ctx, tripID, hostID)
	r.invalidate(ctx, tripID)
	return err
}

func (r *TripRepository) store(ctx context.Context, trip *domain.Trip, generation int64) {
	id := trip.ID.String()
	stored, err := r.cache.SetJSONIfGeneration(ctx, tripCachePrefix+id, tripGenerationPrefix+id, generation, trip, r.ttl)
	if err != nil {
		// Ошибка записи в кэш не критична
		r.logger.Debug("trip cache write failed", map[string]interface{}{
			"trip_id": id,
			"error":   err.Error(),
		})
		return
	}
	if !stored {
		r.logger.Debug("trip cache write skipped, trip changed during read", map[string]interface{}{
			"trip_id": id,
		})
	}
}

// invalidate вызывается и при ошибке нижележащего репозитория
func (r *TripRepository) invalidate(ctx context.Context, tripID uuid.UUID) {
	id := tripID.String()
	if err := r.cache.BumpGeneration(ctx, tripGenerationPrefix+id, r.genTTL, tripCachePrefix+id); err != nil {
		r.logger.Warn("trip cache invalidation failed", map[string]interface{}{
			"trip_id": tripID.String(),
			"error":   err.Error(),
		})
	}
}

var _ repository.TripRepository = (*TripRepository)(nil)
