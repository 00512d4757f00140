package domain

import (
	"strings"

	"github.com/google/uuid"
)

// FuelType представляет тип топлива
type FuelType string

const (
	FuelTypePetrol   FuelType = "Petrol"
	FuelTypeDiesel   FuelType = "Diesel"
	FuelTypeElectric FuelType = "Electric"
	FuelTypeHybrid   FuelType = "Hybrid"
)

// Vehicle - автомобиль пользователя из сервиса идентификации
// ВАЖНО: Автомобиль ОБЯЗАТЕЛЬНО привязан к владельцу (OwnerID NOT NULL)
type Vehicle struct {
	ID                            uuid.UUID `json:"id"`
	OwnerID                       uuid.UUID `json:"ownerId"`
	VehicleNumber                 string    `json:"vehicleNumber"`
	RegistrationCertificateNumber string    `json:"registrationCertificateNumber"`
	InsuranceNumber               string    `json:"insuranceNumber"`
	RegistrationCertificateURL    string    `json:"registrationCertificateUrl,omitempty"`
	InsuranceURL                  string    `json:"insuranceUrl,omitempty"`
	VehiclePhotoURL               string    `json:"vehiclePhotoUrl,omitempty"`
	DrivingLicenseURL             string    `json:"drivingLicenseUrl,omitempty"`
	VehicleOwnerName              string    `json:"vehicleOwnerName"`
	BrandName                     string    `json:"brand"`
	ModelName                     string    `json:"model"`
	VehicleType                   string    `json:"vehicleType"`
	VehicleColor                  string    `json:"vehicleColor"`
	FuelType                      FuelType  `json:"fuelType"`
	NumberOfSeats                 int       `json:"numberOfSeats"`
	IsAirConditioned              bool      `json:"isAirConditioned"`
	IsVerified                    bool      `json:"isVerified"`
}

// VehicleSnapshot - копия автомобиля хоста, встраиваемая в поездку при создании
type VehicleSnapshot struct {
	ID                            uuid.UUID `json:"id"`
	VehicleNumber                 string    `json:"vehicleNumber"`
	RegistrationCertificateNumber string    `json:"registrationCertificateNumber"`
	InsuranceNumber               string    `json:"insuranceNumber"`
	RegistrationCertificateURL    string    `json:"registrationCertificateUrl,omitempty"`
	InsuranceURL                  string    `json:"insuranceUrl,omitempty"`
	VehiclePhotoURL               string    `json:"vehiclePhotoUrl,omitempty"`
	DrivingLicenseURL             string    `json:"drivingLicenseUrl,omitempty"`
	VehicleOwnerName              string    `json:"vehicleOwnerName"`
	BrandName                     string    `json:"brand"`
	ModelName                     string    `json:"model"`
	VehicleType                   string    `json:"vehicleType"`
	VehicleColor                  string    `json:"vehicleColor"`
	FuelType                      FuelType  `json:"fuelType"`
	NumberOfSeats                 int       `json:"numberOfSeats"`
	IsAirConditioned              bool      `json:"isAirConditioned"`
	IsVerified                    bool      `json:"isVerified"`
}

// NormalizeVehicleNumber нормализует номер автомобиля (убирает пробелы, приводит к верхнему регистру)
func NormalizeVehicleNumber(number string) string {
	return strings.ToUpper(strings.ReplaceAll(number, " ", ""))
}

// NewVehicleSnapshot - единственный способ построить снимок автомобиля
func NewVehicleSnapshot(v *Vehicle) VehicleSnapshot {
	return VehicleSnapshot{
		ID:                            v.ID,
		VehicleNumber:                 NormalizeVehicleNumber(v.VehicleNumber),
		RegistrationCertificateNumber: v.RegistrationCertificateNumber,
		InsuranceNumber:               v.InsuranceNumber,
		RegistrationCertificateURL:    v.RegistrationCertificateURL,
		InsuranceURL:                  v.InsuranceURL,
		VehiclePhotoURL:               v.VehiclePhotoURL,
		DrivingLicenseURL:             v.DrivingLicenseURL,
		VehicleOwnerName:              v.VehicleOwnerName,
		BrandName:                     v.BrandName,
		ModelName:                     v.ModelName,
		VehicleType:                   v.VehicleType,
		VehicleColor:                  v.VehicleColor,
		FuelType:                      v.FuelType,
		NumberOfSeats:                 v.NumberOfSeats,
		IsAirConditioned:              v.IsAirConditioned,
		IsVerified:                    v.IsVerified,
	}
}
