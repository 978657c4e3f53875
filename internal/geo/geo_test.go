package geo_test

import (
	"errors"
	"math"
	"testing"

	"github.com/shuttleroute/shuttleroute/internal/geo"
)

func TestPoint_Validate(t *testing.T) {
	tests := []struct {
		name    string
		point   geo.Point
		wantErr bool
	}{
		{name: "valid", point: geo.Point{Lat: 9.03, Lon: 38.74}},
		{name: "equator meridian", point: geo.Point{}},
		{name: "poles", point: geo.Point{Lat: 90, Lon: 180}},
		{name: "latitude too high", point: geo.Point{Lat: 90.1, Lon: 0}, wantErr: true},
		{name: "latitude too low", point: geo.Point{Lat: -91, Lon: 0}, wantErr: true},
		{name: "longitude too high", point: geo.Point{Lat: 0, Lon: 180.5}, wantErr: true},
		{name: "longitude too low", point: geo.Point{Lat: 0, Lon: -181}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.point.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHaversineKm(t *testing.T) {
	addis := geo.Point{Lat: 9.03, Lon: 38.74}
	bole := geo.Point{Lat: 8.9806, Lon: 38.7998}

	// Identity
	if d := geo.HaversineKm(addis, addis); d != 0 {
		t.Errorf("expected zero distance to self, got %f", d)
	}

	// Symmetry
	ab := geo.HaversineKm(addis, bole)
	ba := geo.HaversineKm(bole, addis)
	if math.Abs(ab-ba) > 1e-9 {
		t.Errorf("distance not symmetric: %f vs %f", ab, ba)
	}

	// Known distance: Addis city center to Bole is roughly 8.7km
	if ab < 8 || ab > 10 {
		t.Errorf("expected roughly 8.7km, got %f", ab)
	}

	// Non-negativity
	if ab < 0 {
		t.Errorf("distance must be non-negative, got %f", ab)
	}
}

func TestHaversineKm_TriangleInequality(t *testing.T) {
	a := geo.Point{Lat: 9.03, Lon: 38.74}
	b := geo.Point{Lat: 9.04, Lon: 38.75}
	c := geo.Point{Lat: 8.99, Lon: 38.79}

	direct := geo.HaversineKm(a, b)
	viaC := geo.HaversineKm(a, c) + geo.HaversineKm(c, b)
	if direct > viaC+1e-9 {
		t.Errorf("triangle inequality violated: %f > %f", direct, viaC)
	}
}

func TestCentroid(t *testing.T) {
	points := []geo.Point{
		{Lat: 9.0, Lon: 38.0},
		{Lat: 9.2, Lon: 38.4},
	}

	c, err := geo.Centroid(points)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(c.Lat-9.1) > 1e-9 || math.Abs(c.Lon-38.2) > 1e-9 {
		t.Errorf("expected centroid (9.1, 38.2), got (%f, %f)", c.Lat, c.Lon)
	}
}

func TestCentroid_Empty(t *testing.T) {
	_, err := geo.Centroid(nil)
	if !errors.Is(err, geo.ErrNoPoints) {
		t.Errorf("expected ErrNoPoints, got %v", err)
	}
}

func TestTravelTimeMinutes(t *testing.T) {
	tests := []struct {
		name       string
		distanceKm float64
		speedKmh   float64
		want       float64
	}{
		{name: "25km at 25km/h is an hour", distanceKm: 25, speedKmh: 25, want: 60},
		{name: "zero distance", distanceKm: 0, speedKmh: 25, want: 0},
		{name: "default speed on zero", distanceKm: 12.5, speedKmh: 0, want: 30},
		{name: "default speed on negative", distanceKm: 25, speedKmh: -10, want: 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := geo.TravelTimeMinutes(tt.distanceKm, tt.speedKmh)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("TravelTimeMinutes() = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestBounds(t *testing.T) {
	points := []geo.Point{
		{Lat: 9.0, Lon: 38.9},
		{Lat: 9.2, Lon: 38.4},
		{Lat: 8.8, Lon: 38.7},
	}

	box, err := geo.Bounds(points)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := geo.BoundingBox{MinLat: 8.8, MinLon: 38.4, MaxLat: 9.2, MaxLon: 38.9}
	if box != want {
		t.Errorf("Bounds() = %+v, want %+v", box, want)
	}

	if _, err := geo.Bounds(nil); !errors.Is(err, geo.ErrNoPoints) {
		t.Errorf("expected ErrNoPoints for empty input, got %v", err)
	}
}

func TestPathDistanceKm(t *testing.T) {
	a := geo.Point{Lat: 9.03, Lon: 38.74}
	b := geo.Point{Lat: 9.04, Lon: 38.75}
	c := geo.Point{Lat: 9.05, Lon: 38.76}

	want := geo.HaversineKm(a, b) + geo.HaversineKm(b, c)
	if got := geo.PathDistanceKm([]geo.Point{a, b, c}); math.Abs(got-want) > 1e-9 {
		t.Errorf("PathDistanceKm() = %f, want %f", got, want)
	}

	if got := geo.PathDistanceKm([]geo.Point{a}); got != 0 {
		t.Errorf("single-point path should have zero distance, got %f", got)
	}
}

func TestPoint_Geohash(t *testing.T) {
	p := geo.Point{Lat: 9.03, Lon: 38.74}
	h := p.Geohash()
	if len(h) != 7 {
		t.Errorf("expected precision-7 geohash, got %q", h)
	}
	if p2 := (geo.Point{Lat: 9.03, Lon: 38.74}); p2.Geohash() != h {
		t.Error("geohash should be deterministic")
	}
}
