package geo

import (
	"errors"
	"math"
	"time"
)

// Coordinate is a plain latitude/longitude pair.
type Coordinate struct {
	Latitude  float64
	Longitude float64
}

// Position is a coordinate with the instant it was observed; used for driver
// last-known locations attached to sync responses.
type Position struct {
	Coordinate
	UpdatedAt time.Time
}

var (
	ErrInvalidLatitude  = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180")
)

// Validate checks coordinate ranges.
func (coordinate Coordinate) Validate() error {
	if coordinate.Latitude < -90 || coordinate.Latitude > 90 {
		return ErrInvalidLatitude
	}
	if coordinate.Longitude < -180 || coordinate.Longitude > 180 {
		return ErrInvalidLongitude
	}
	return nil
}

// HaversineKM returns the great-circle distance between two coordinates in kilometers.
func HaversineKM(a, b Coordinate) float64 {
	const R = 6371.0 // Earth radius in km
	la1 := a.Latitude * math.Pi / 180
	la2 := b.Latitude * math.Pi / 180
	dla := (b.Latitude - a.Latitude) * math.Pi / 180
	dlo := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dla/2)*math.Sin(dla/2) +
		math.Cos(la1)*math.Cos(la2)*math.Sin(dlo/2)*math.Sin(dlo/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return R * c
}

// EstimateDurationMinutes converts a trip distance into an estimated duration
// with a simple average-city-speed heuristic, ceiled to whole minutes.
func EstimateDurationMinutes(distanceKM float64) int {
	const avgSpeedKMH = 21.0
	if distanceKM <= 0 {
		return 1
	}

	minutes := int(math.Ceil((distanceKM / avgSpeedKMH) * 60.0))
	if minutes < 1 {
		return 1
	}
	return minutes
}
