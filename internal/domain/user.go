package domain

import (
	"github.com/google/uuid"
)

// User - запись пользователя из сервиса идентификации
// Для сервиса поездок доступна только на чтение
type User struct {
	ID           uuid.UUID  `json:"id"`
	FirstName    string     `json:"firstName"`
	LastName     string     `json:"lastName"`
	Email        string     `json:"email,omitempty"`
	Number       string     `json:"number"`
	CountryCode  string     `json:"countryCode"`
	ProfileImage string     `json:"profileImage,omitempty"`
	DeviceToken  string     `json:"-"` // FCM токен, наружу не отдаем
	Vehicles     []*Vehicle `json:"vehicles,omitempty"`
}

// FindVehicle ищет автомобиль в списке автомобилей пользователя
func (u *User) FindVehicle(id uuid.UUID) (*Vehicle, bool) {
	for _, v := range u.Vehicles {
		if v.ID == id {
			return v, true
		}
	}
	return nil, false
}

// TripUser - снимок пользователя, встраиваемый в поездку
// Снимок фиксируется в момент, когда пользователь становится хостом или участником,
// и НЕ обновляется при последующих изменениях записи пользователя
type TripUser struct {
	ID           uuid.UUID `json:"id"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	ProfileImage string    `json:"profileImage,omitempty"`
	Number       string    `json:"number"`
	CountryCode  string    `json:"countryCode"`
}

// NewTripUser - единственный способ построить снимок пользователя
func NewTripUser(u *User) TripUser {
	return TripUser{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		ProfileImage: u.ProfileImage,
		Number:       u.Number,
		CountryCode:  u.CountryCode,
	}
}

// FullName возвращает имя и фамилию
func (u TripUser) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
