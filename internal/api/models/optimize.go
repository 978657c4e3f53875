package models

// RouteOptimizeRequest is the request body for ad-hoc route optimization
// over an explicit list of stops.
type RouteOptimizeRequest struct {
	Stops []StopInput `json:"stops" validate:"required,min=1"`

	// Depot anchors the route when provided. Without it the route
	// starts at the first stop.
	Depot *Point `json:"depot,omitempty"`

	// AvgSpeedKmh overrides the flat travel speed used for duration
	// estimates.
	AvgSpeedKmh *float64 `json:"avgSpeedKmh,omitempty" validate:"omitempty,gt=0"`
}

// StopInput is a single stop in an optimization request.
type StopInput struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name,omitempty"`
	Point Point  `json:"point"`
}

// RouteOptimizeResponse is the response for ad-hoc route optimization.
type RouteOptimizeResponse struct {
	GeneratedAt Timestamp `json:"generatedAt"`

	// Stops is the visit order after optimization.
	Stops []StopRef `json:"stops"`

	// Path is the route geometry as [lon, lat] pairs.
	Path             [][2]float64 `json:"path"`
	GeometryPolyline string       `json:"geometryPolyline,omitempty"`
	DistanceKm       float64      `json:"distanceKm"`
	DurationMinutes  float64      `json:"durationMinutes"`
}
