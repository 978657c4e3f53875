// Package geo provides distance and geometry helpers for shuttle route planning.
package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/mmcloughlin/geohash"
)

// ErrNoPoints is returned when an aggregate operation receives no points.
var ErrNoPoints = errors.New("no points provided")

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// DefaultAvgSpeedKmh is the flat average speed used for travel time estimates.
// The model is deliberately not traffic-aware; no traffic data source exists
// in the surrounding system.
const DefaultAvgSpeedKmh = 25.0

// geohashPrecision yields cells of roughly 150m, enough for map grouping.
const geohashPrecision = 7

// Point represents a geographic coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks that the point is within valid latitude/longitude ranges.
func (p Point) Validate() error {
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("latitude %f out of range [-90, 90]", p.Lat)
	}
	if p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("longitude %f out of range [-180, 180]", p.Lon)
	}
	return nil
}

// Geohash returns the geohash cell for the point, for map grouping and
// frontend rendering.
func (p Point) Geohash() string {
	return geohash.EncodeWithPrecision(p.Lat, p.Lon, geohashPrecision)
}

// HaversineKm returns the great-circle distance between two points in
// kilometers. Callers are expected to validate coordinate ranges.
func HaversineKm(a, b Point) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// Centroid returns the arithmetic mean of the given points.
// Returns ErrNoPoints if the slice is empty.
func Centroid(points []Point) (Point, error) {
	if len(points) == 0 {
		return Point{}, ErrNoPoints
	}

	var sumLat, sumLon float64
	for _, p := range points {
		sumLat += p.Lat
		sumLon += p.Lon
	}

	n := float64(len(points))
	return Point{Lat: sumLat / n, Lon: sumLon / n}, nil
}

// TravelTimeMinutes estimates travel time for a distance using a flat average
// speed. A non-positive speed falls back to DefaultAvgSpeedKmh.
func TravelTimeMinutes(distanceKm, avgSpeedKmh float64) float64 {
	if avgSpeedKmh <= 0 {
		avgSpeedKmh = DefaultAvgSpeedKmh
	}
	return distanceKm / avgSpeedKmh * 60
}

// BoundingBox represents a geographic bounding box.
type BoundingBox struct {
	MinLat float64 `json:"minLat"`
	MinLon float64 `json:"minLon"`
	MaxLat float64 `json:"maxLat"`
	MaxLon float64 `json:"maxLon"`
}

// Bounds returns the bounding box enclosing the given points.
// Returns ErrNoPoints if the slice is empty.
func Bounds(points []Point) (BoundingBox, error) {
	if len(points) == 0 {
		return BoundingBox{}, ErrNoPoints
	}

	box := BoundingBox{
		MinLat: points[0].Lat,
		MinLon: points[0].Lon,
		MaxLat: points[0].Lat,
		MaxLon: points[0].Lon,
	}
	for _, p := range points[1:] {
		box.MinLat = math.Min(box.MinLat, p.Lat)
		box.MinLon = math.Min(box.MinLon, p.Lon)
		box.MaxLat = math.Max(box.MaxLat, p.Lat)
		box.MaxLon = math.Max(box.MaxLon, p.Lon)
	}
	return box, nil
}

// PathDistanceKm sums haversine distances along an ordered path.
func PathDistanceKm(path []Point) float64 {
	total := 0.0
	for i := 0; i < len(path)-1; i++ {
		total += HaversineKm(path[i], path[i+1])
	}
	return total
}
