package domain

import (
	"math"
)

// PointType - единственный поддерживаемый тип GeoJSON геометрии
const PointType = "Point"

// Location - точка в формате GeoJSON: {type: "Point", coordinates: [lng, lat]}
type Location struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// NewPoint создает точку из широты и долготы
func NewPoint(latitude, longitude float64) Location {
	return Location{
		Type:        PointType,
		Coordinates: []float64{longitude, latitude},
	}
}

// Longitude возвращает долготу (первая координата)
func (l Location) Longitude() float64 {
	if len(l.Coordinates) < 1 {
		return 0
	}
	return l.Coordinates[0]
}

// Latitude возвращает широту (вторая координата)
func (l Location) Latitude() float64 {
	if len(l.Coordinates) < 2 {
		return 0
	}
	return l.Coordinates[1]
}

// Validate проверяет корректность точки
func (l Location) Validate() error {
	if l.Type != PointType || len(l.Coordinates) != 2 {
		return ErrInvalidLocation
	}
	return ValidateCoordinates(l.Latitude(), l.Longitude())
}

// ValidateCoordinates проверяет диапазоны широты и долготы
func ValidateCoordinates(latitude, longitude float64) error {
	for _, c := range []float64{latitude, longitude} {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return ErrInvalidLocation
		}
	}
	if latitude < -90 || latitude > 90 {
		return ErrInvalidLocation
	}
	if longitude < -180 || longitude > 180 {
		return ErrInvalidLocation
	}
	return nil
}

// DistanceKm считает расстояние между двумя точками по формуле гаверсинусов
func DistanceKm(a, b Location) float64 {
	const earthRadius = 6371.0088 // км

	lat1 := a.Latitude() * math.Pi / 180
	lat2 := b.Latitude() * math.Pi / 180
	dLat := lat2 - lat1
	dLon := (b.Longitude() - a.Longitude()) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * earthRadius * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
