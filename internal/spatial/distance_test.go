package spatial

import (
	"math"
	"testing"
)

func TestHaversineDistanceProperties(t *testing.T) {
	points := []Point{
		{Lat: 51.5074, Lon: -0.1278},
		{Lat: 40.7128, Lon: -74.0060},
		{Lat: -33.8688, Lon: 151.2093},
		{Lat: 0, Lon: 0},
		{Lat: 89.9, Lon: 179.9},
		{Lat: -89.9, Lon: -179.9},
		{Lat: 51.50741, Lon: -0.12781},
	}

	for _, a := range points {
		if d := Distance(a, a); d != 0 {
			t.Errorf("Distance(%v, %v) = %v, want 0", a, a, d)
		}
		for _, b := range points {
			if ab, ba := Distance(a, b), Distance(b, a); ab != ba {
				t.Errorf("Distance not symmetric for %v, %v: %v != %v", a, b, ab, ba)
			}
		}
	}
}

func TestHaversineDistanceKnownValue(t *testing.T) {
	// London to Paris is roughly 343.5 km
	d := HaversineDistance(51.5074, -0.1278, 48.8566, 2.3522)
	if math.Abs(d-343500) > 2000 {
		t.Errorf("London-Paris distance = %.0f m, want about 343500", d)
	}
}

func TestIsWithin(t *testing.T) {
	lat, lon := DestinationPoint(51.5, -0.1, 90, 99)
	if !IsWithin(lat, lon, 51.5, -0.1, 100) {
		t.Error("point 99 m away should be inside a 100 m geofence")
	}
	lat, lon = DestinationPoint(51.5, -0.1, 90, 101)
	if IsWithin(lat, lon, 51.5, -0.1, 100) {
		t.Error("point 101 m away should be outside a 100 m geofence")
	}
}

func TestClassifyVelocity(t *testing.T) {
	tests := []struct {
		v    float64
		want Regime
	}{
		{0, RegimeStationary},
		{-1, RegimeStationary},
		{0.49, RegimeStationary},
		{0.5, RegimeWalking},
		{2.4, RegimeWalking},
		{2.5, RegimeRunning},
		{3.9, RegimeRunning},
		{4.0, RegimeCycling},
		{7.9, RegimeCycling},
		{8.1, RegimeDriving},
		{250, RegimeDriving},
	}

	for _, tt := range tests {
		if got := ClassifyVelocity(tt.v); got != tt.want {
			t.Errorf("ClassifyVelocity(%v) = %v, want %v", tt.v, got, tt.want)
		}
	}
}

func TestCustomThresholds(t *testing.T) {
	th := DefaultThresholds
	th.Walking = 3.0
	if got := th.Classify(2.8); got != RegimeWalking {
		t.Errorf("Classify(2.8) with walking bound 3.0 = %v, want walking", got)
	}
}

func TestEncodeGeohash(t *testing.T) {
	if got := EncodeGeohash(57.64911, 10.40744, 11); got != "u4pruydqqvj" {
		t.Errorf("EncodeGeohash = %q, want u4pruydqqvj", got)
	}
	if got := EncodeGeohash(57.64911, 10.40744, 0); len(got) != 1 {
		t.Errorf("precision should clamp to 1, got %q", got)
	}
}

func TestPathLengthAndTortuosity(t *testing.T) {
	a := Point{Lat: 51.5, Lon: -0.1}
	lat, lon := DestinationPoint(a.Lat, a.Lon, 0, 1000)
	b := Point{Lat: lat, Lon: lon}

	if got := PathLength([]Point{a, b, a}); math.Abs(got-2000) > 1 {
		t.Errorf("PathLength = %v, want 2000", got)
	}
	if got := Tortuosity([]Point{a, b, a}); got != 1.0 {
		t.Errorf("Tortuosity of closed loop = %v, want 1", got)
	}
	if got := Tortuosity([]Point{a, b}); math.Abs(got-1) > 1e-9 {
		t.Errorf("Tortuosity of straight line = %v, want 1", got)
	}
}
