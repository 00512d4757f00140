package domain

import "errors"

// Доменные ошибки - используются во всех слоях приложения

// User errors
var (
	ErrUserNotFound = errors.New("user not found")
)

// Vehicle errors
var (
	ErrVehicleNotFound = errors.New("vehicle not found in host's profile")
)

// Trip errors
var (
	ErrTripNotFound            = errors.New("trip not found")
	ErrTripNotFoundOrForbidden = errors.New("trip not found or unauthorized")
	ErrInvalidTripData         = errors.New("invalid trip data")
	ErrInvalidTripStatus       = errors.New("invalid trip status")
	ErrInvalidLocation         = errors.New("invalid location")
	ErrInvalidRadius           = errors.New("radius must be positive")
	ErrInvalidDateRange        = errors.New("invalid date range")
	ErrNoSeatsAvailable        = errors.New("no seats available")
	ErrAlreadyJoined           = errors.New("user already joined this trip")
	ErrHostCannotLeave         = errors.New("host cannot leave the trip")
	ErrNotParticipant          = errors.New("user is not a participant of this trip")
	ErrNotTripHost             = errors.New("only the host can perform this action")
)

// Authorization errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidToken = errors.New("invalid token")
)
