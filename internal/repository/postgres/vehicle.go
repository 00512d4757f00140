package postgres

import (
	"context"
	"fmt"

	"github.com/Vishaljain290502/Rydr/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// vehiclesByOwners загружает автомобили владельцев одним запросом
// Результат сгруппирован по OwnerID
func vehiclesByOwners(ctx context.Context, db *pgxpool.Pool, ownerIDs []uuid.UUID) (map[uuid.UUID][]*domain.Vehicle, error) {
	query := `
		SELECT id, owner_id, vehicle_number, registration_certificate_number, insurance_number,
		       registration_certificate_url, insurance_url, vehicle_photo_url, driving_license_url,
		       vehicle_owner_name, brand_name, model_name, vehicle_type, vehicle_color, fuel_type,
		       number_of_seats, is_air_conditioned, is_verified
		FROM vehicles
		WHERE owner_id = ANY($1)
		ORDER BY created_at DESC
	`

	rows, err := db.Query(ctx, query, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("postgres.vehiclesByOwners: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]*domain.Vehicle, len(ownerIDs))
	for rows.Next() {
		vehicle := &domain.Vehicle{}
		var fuelType string
		err := rows.Scan(
			&vehicle.ID,
			&vehicle.OwnerID,
			&vehicle.VehicleNumber,
			&vehicle.RegistrationCertificateNumber,
			&vehicle.InsuranceNumber,
			&vehicle.RegistrationCertificateURL,
			&vehicle.InsuranceURL,
			&vehicle.VehiclePhotoURL,
			&vehicle.DrivingLicenseURL,
			&vehicle.VehicleOwnerName,
			&vehicle.BrandName,
			&vehicle.ModelName,
			&vehicle.VehicleType,
			&vehicle.VehicleColor,
			&fuelType,
			&vehicle.NumberOfSeats,
			&vehicle.IsAirConditioned,
			&vehicle.IsVerified,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres.vehiclesByOwners: scan: %w", err)
		}
		vehicle.FuelType = domain.FuelType(fuelType)
		result[vehicle.OwnerID] = append(result[vehicle.OwnerID], vehicle)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres.vehiclesByOwners: rows: %w", err)
	}

	return result, nil
}
