package domain

import (
	"time"

	"github.com/google/uuid"
)

// TripStatus представляет статус поездки
type TripStatus string

const (
	TripStatusScheduled   TripStatus = "scheduled"
	TripStatusOngoing     TripStatus = "ongoing"
	TripStatusRescheduled TripStatus = "rescheduled"
	TripStatusCanceled    TripStatus = "canceled"
	TripStatusCompleted   TripStatus = "completed"
)

// TripStatuses - полный набор допустимых статусов
// Переходы между статусами не ограничены: любой статус может следовать за любым
var TripStatuses = []TripStatus{
	TripStatusScheduled,
	TripStatusOngoing,
	TripStatusRescheduled,
	TripStatusCanceled,
	TripStatusCompleted,
}

// IsValid проверяет, входит ли статус в допустимый набор
func (s TripStatus) IsValid() bool {
	for _, status := range TripStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Trip - центральная сущность: поездка с хостом, маршрутом, автомобилем и списком участников
// Хост хранится отдельно и НЕ входит в Participants, места занимают только участники
type Trip struct {
	ID                 uuid.UUID       `json:"id"`
	Host               TripUser        `json:"host"`
	Source             Location        `json:"source"`
	SourceAddress      string          `json:"sourceAddress"`
	Destination        Location        `json:"destination"`
	DestinationAddress string          `json:"destinationAddress"`
	StartDate          time.Time       `json:"startDate"`
	EndDate            *time.Time      `json:"endDate,omitempty"`
	Vehicle            VehicleSnapshot `json:"vehicle"`
	SeatCapacity       int             `json:"seatCapacity"`
	SeatsAvailable     int             `json:"seatsAvailable"`
	Participants       []TripUser      `json:"participants"`
	PricePerPerson     float64         `json:"pricePerPerson"`
	Status             TripStatus      `json:"status"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`

	// Заполняется только в результатах поиска поблизости
	DistanceKm *float64 `json:"distanceKm,omitempty"`
}

// IsHost проверяет, является ли пользователь хостом поездки
func (t *Trip) IsHost(userID uuid.UUID) bool {
	return t.Host.ID == userID
}

// IsParticipant проверяет, есть ли пользователь среди участников
func (t *Trip) IsParticipant(userID uuid.UUID) bool {
	for _, p := range t.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}

// IsMember - хост или участник
func (t *Trip) IsMember(userID uuid.UUID) bool {
	return t.IsHost(userID) || t.IsParticipant(userID)
}

// Members возвращает хоста и всех участников (получатели уведомлений)
func (t *Trip) Members() []TripUser {
	members := make([]TripUser, 0, len(t.Participants)+1)
	members = append(members, t.Host)
	members = append(members, t.Participants...)
	return members
}

// CanJoin проверяет, может ли пользователь присоединиться к поездке
func (t *Trip) CanJoin(userID uuid.UUID) error {
	if t.IsMember(userID) {
		return ErrAlreadyJoined
	}
	if t.SeatsAvailable <= 0 || len(t.Participants) >= t.SeatCapacity {
		return ErrNoSeatsAvailable
	}
	return nil
}

// CanLeave проверяет, может ли пользователь покинуть поездку
func (t *Trip) CanLeave(userID uuid.UUID) error {
	if t.IsHost(userID) {
		return ErrHostCannotLeave
	}
	if !t.IsParticipant(userID) {
		return ErrNotParticipant
	}
	return nil
}

// AddParticipant добавляет снимок участника и занимает одно место
func (t *Trip) AddParticipant(u TripUser) error {
	if err := t.CanJoin(u.ID); err != nil {
		return err
	}
	t.Participants = append(t.Participants, u)
	t.SeatsAvailable--
	return nil
}

// RemoveParticipant удаляет участника и освобождает одно место
func (t *Trip) RemoveParticipant(userID uuid.UUID) error {
	if err := t.CanLeave(userID); err != nil {
		return err
	}
	kept := t.Participants[:0:0]
	for _, p := range t.Participants {
		if p.ID != userID {
			kept = append(kept, p)
		}
	}
	t.Participants = kept
	t.SeatsAvailable++
	return nil
}

// Validate проверяет инварианты поездки
func (t *Trip) Validate() error {
	if t.Host.ID == uuid.Nil || t.Vehicle.ID == uuid.Nil {
		return ErrInvalidTripData
	}
	if err := t.Source.Validate(); err != nil {
		return err
	}
	if err := t.Destination.Validate(); err != nil {
		return err
	}
	if t.SourceAddress == "" || t.DestinationAddress == "" || t.StartDate.IsZero() {
		return ErrInvalidTripData
	}
	if t.EndDate != nil && t.EndDate.Before(t.StartDate) {
		return ErrInvalidDateRange
	}
	if t.SeatCapacity < 1 || t.PricePerPerson < 0 {
		return ErrInvalidTripData
	}
	if len(t.Participants) > t.SeatCapacity {
		return ErrNoSeatsAvailable
	}
	if t.SeatsAvailable != t.SeatCapacity-len(t.Participants) {
		return ErrInvalidTripData
	}
	if !t.Status.IsValid() {
		return ErrInvalidTripStatus
	}
	return nil
}

// TripPatch - частичное обновление поездки хостом
// SeatsAvailable напрямую не меняется - пересчитывается из SeatCapacity
type TripPatch struct {
	Source             *Location   `json:"source,omitempty"`
	SourceAddress      *string     `json:"sourceAddress,omitempty"`
	Destination        *Location   `json:"destination,omitempty"`
	DestinationAddress *string     `json:"destinationAddress,omitempty"`
	StartDate          *time.Time  `json:"startDate,omitempty"`
	EndDate            *time.Time  `json:"endDate,omitempty"`
	SeatCapacity       *int        `json:"seatCapacity,omitempty"`
	PricePerPerson     *float64    `json:"pricePerPerson,omitempty"`
	Status             *TripStatus `json:"status,omitempty"`
}

// Apply применяет изменения к поездке и проверяет, что инварианты сохранились
func (p *TripPatch) Apply(t *Trip) error {
	if p.Source != nil {
		t.Source = *p.Source
	}
	if p.SourceAddress != nil {
		t.SourceAddress = *p.SourceAddress
	}
	if p.Destination != nil {
		t.Destination = *p.Destination
	}
	if p.DestinationAddress != nil {
		t.DestinationAddress = *p.DestinationAddress
	}
	if p.StartDate != nil {
		t.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		t.EndDate = p.EndDate
	}
	if p.SeatCapacity != nil {
		if *p.SeatCapacity < len(t.Participants) {
			return ErrNoSeatsAvailable
		}
		t.SeatCapacity = *p.SeatCapacity
		t.SeatsAvailable = t.SeatCapacity - len(t.Participants)
	}
	if p.PricePerPerson != nil {
		t.PricePerPerson = *p.PricePerPerson
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	return t.Validate()
}
