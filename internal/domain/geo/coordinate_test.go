package geo

import (
	"math"
	"testing"
)

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		c    Coordinate
		err  error
	}{
		{"ok", Coordinate{Latitude: 51.1, Longitude: 71.4}, nil},
		{"lat too high", Coordinate{Latitude: 90.1, Longitude: 0}, ErrInvalidLatitude},
		{"lat too low", Coordinate{Latitude: -90.1, Longitude: 0}, ErrInvalidLatitude},
		{"lng too high", Coordinate{Latitude: 0, Longitude: 180.1}, ErrInvalidLongitude},
		{"lng too low", Coordinate{Latitude: 0, Longitude: -180.1}, ErrInvalidLongitude},
		{"boundary", Coordinate{Latitude: 90, Longitude: -180}, nil},
	}
	for _, tc := range cases {
		if err := tc.c.Validate(); err != tc.err {
			t.Errorf("%s: Validate() = %v, want %v", tc.name, err, tc.err)
		}
	}
}

func TestHaversineKM(t *testing.T) {
	// Astana city center to the airport, roughly 13 km
	a := Coordinate{Latitude: 51.1282, Longitude: 71.4307}
	b := Coordinate{Latitude: 51.0244, Longitude: 71.4669}

	got := HaversineKM(a, b)
	if got < 11 || got > 14 {
		t.Errorf("HaversineKM = %.2f, want roughly 11..14", got)
	}

	if d := HaversineKM(a, a); math.Abs(d) > 1e-9 {
		t.Errorf("zero distance = %f, want 0", d)
	}
}

func TestEstimateDurationMinutes(t *testing.T) {
	cases := []struct {
		km   float64
		want int
	}{
		{0, 1},
		{-3, 1},
		{0.1, 1},
		{21, 60},
		{10.5, 30},
	}
	for _, tc := range cases {
		if got := EstimateDurationMinutes(tc.km); got != tc.want {
			t.Errorf("EstimateDurationMinutes(%.1f) = %d, want %d", tc.km, got, tc.want)
		}
	}
}
