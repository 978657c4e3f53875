package models

// PlanComputeRequest is the request body for computing a shift plan.
type PlanComputeRequest struct {
	OrganizationID string `json:"organizationId" validate:"required"`
	ShiftID        string `json:"shiftId" validate:"required"`
	Date           string `json:"date" validate:"required"`
}

// PlanResponse is the response for a shift plan computation.
type PlanResponse struct {
	GeneratedAt    Timestamp     `json:"generatedAt"`
	OrganizationID string        `json:"organizationId"`
	ShiftID        string        `json:"shiftId"`
	Date           string        `json:"date"`
	Depot          Point         `json:"depot"`
	Shuttles       []ShuttlePlan `json:"shuttles"`
	Unassigned     []StopRef     `json:"unassigned"`
	Warnings       []Warning     `json:"warnings,omitempty"`
	CacheHit       bool          `json:"cacheHit"`
}

// ShuttlePlan describes the assignment and route for a single shuttle.
type ShuttlePlan struct {
	ShuttleID string    `json:"shuttleId"`
	Capacity  int       `json:"capacity"`
	Employees []StopRef `json:"employees"`

	// Path is the ordered route geometry as [lon, lat] pairs,
	// starting at the depot.
	Path             [][2]float64 `json:"path"`
	GeometryPolyline string       `json:"geometryPolyline,omitempty"`
	DistanceKm       float64      `json:"distanceKm"`
	DurationMinutes  float64      `json:"durationMinutes"`

	// TimeLimitExceeded is set when the estimated duration is over the
	// configured route time cap. The route is still returned.
	TimeLimitExceeded bool `json:"timeLimitExceeded,omitempty"`
}

// StopRef identifies an employee pickup stop.
type StopRef struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Point Point  `json:"point"`

	// Geohash is the stop's geohash cell, for grouping nearby stops on a map.
	Geohash string `json:"geohash"`
}

// ShuttlePlanResponse is the response for a single shuttle's plan.
type ShuttlePlanResponse struct {
	GeneratedAt    Timestamp   `json:"generatedAt"`
	OrganizationID string      `json:"organizationId"`
	ShiftID        string      `json:"shiftId"`
	Date           string      `json:"date"`
	Shuttle        ShuttlePlan `json:"shuttle"`
}

// InvalidateResponse acknowledges a cache invalidation request.
type InvalidateResponse struct {
	OrganizationID string    `json:"organizationId"`
	InvalidatedAt  Timestamp `json:"invalidatedAt"`
}
