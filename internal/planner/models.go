package planner

import (
	"time"

	"github.com/shuttleroute/shuttleroute/internal/cluster"
	"github.com/shuttleroute/shuttleroute/internal/fleet"
	"github.com/shuttleroute/shuttleroute/internal/geo"
	"github.com/shuttleroute/shuttleroute/internal/route"
)

// Warning codes embedded in plan results. Warnings are advisory; the plan is
// still usable.
const (
	WarningCapacityShortfall = "CAPACITY_SHORTFALL"
	WarningRouteTimeExceeded = "ROUTE_TIME_EXCEEDED"
)

// Warning is a non-fatal issue attached to a plan.
type Warning struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	VehicleID string `json:"vehicleId,omitempty"`
}

// PlanResult is the complete clustering and routing output for one shift.
// The planner owns the result for the duration of one request; the cache
// stores a serialized copy so later mutation cannot corrupt cached state.
type PlanResult struct {
	OrganizationID string               `json:"organizationId"`
	ShiftID        string               `json:"shiftId"`
	Date           string               `json:"date"`
	Depot          geo.Point            `json:"depot"`
	Clusters       []cluster.Cluster    `json:"clusters"`
	Routes         []route.Route        `json:"routes"`
	Unassigned     []fleet.EmployeeStop `json:"unassigned"`
	Warnings       []Warning            `json:"warnings,omitempty"`
	ComputedAt     time.Time            `json:"computedAt"`

	// CacheHit reports whether this result was served from cache.
	// Not part of the cached payload.
	CacheHit bool `json:"-"`
}

// VehiclePlan narrows a full plan to a single vehicle.
type VehiclePlan struct {
	Cluster cluster.Cluster `json:"cluster"`
	Route   *route.Route    `json:"route,omitempty"`
}

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError aggregates invalid input fields. Returned before any
// computation or cache access.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed"
}
