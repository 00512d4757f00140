package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Vishaljain290502/Rydr/internal/domain"
	"github.com/Vishaljain290502/Rydr/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, first_name, last_name, COALESCE(email, ''), number, country_code, profile_image, device_token`

// userRepository - PostgreSQL реализация UserRepository
// Таблицы users и vehicles принадлежат сервису идентификации, здесь только чтение
type userRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository создает новый экземпляр userRepository
func NewUserRepository(db *pgxpool.Pool) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user := &domain.User{}
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.FirstName,
		&user.LastName,
		&user.Email,
		&user.Number,
		&user.CountryCode,
		&user.ProfileImage,
		&user.DeviceToken,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("postgres.UserRepository.GetByID: %w", err)
	}

	vehicles, err := vehiclesByOwners(ctx, r.db, []uuid.UUID{user.ID})
	if err != nil {
		return nil, err
	}
	user.Vehicles = vehicles[user.ID]

	return user, nil
}

// GetByIDs не подгружает автомобили: используется только для рассылки уведомлений
func (r *userRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	if len(ids) == 0 {
		return []*domain.User{}, nil
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = ANY($1)`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("postgres.UserRepository.GetByIDs: %w", err)
	}
	defer rows.Close()

	users := make([]*domain.User, 0, len(ids))
	for rows.Next() {
		user := &domain.User{}
		err := rows.Scan(
			&user.ID,
			&user.FirstName,
			&user.LastName,
			&user.Email,
			&user.Number,
			&user.CountryCode,
			&user.ProfileImage,
			&user.DeviceToken,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres.UserRepository.GetByIDs: scan: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.UserRepository.GetByIDs: rows: %w", err)
	}

	return users, nil
}
