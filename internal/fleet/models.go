// Package fleet provides the employee and vehicle directory used by the
// route planner. Directory data is owned by the surrounding fleet management
// application; this package only reads it.
package fleet

import (
	"github.com/shuttleroute/shuttleroute/internal/geo"
)

// VehicleStatus represents the operational status of a shuttle.
type VehicleStatus string

const (
	// VehicleAvailable means the shuttle can be assigned to a route.
	VehicleAvailable VehicleStatus = "available"
	// VehicleInService means the shuttle is on an active trip.
	VehicleInService VehicleStatus = "in_service"
	// VehicleMaintenance means the shuttle is off the road.
	VehicleMaintenance VehicleStatus = "maintenance"
)

// EmployeeStop is a single pickup location for one employee.
// Owned by the request; never persisted by the planner.
type EmployeeStop struct {
	ID       string    `json:"id"`
	Name     string    `json:"name,omitempty"`
	Location geo.Point `json:"location"`
}

// Vehicle describes one shuttle available for a shift.
type Vehicle struct {
	ID       string        `json:"id"`
	Name     string        `json:"name,omitempty"`
	Capacity int           `json:"capacity"`
	Status   VehicleStatus `json:"status,omitempty"`
}

// Roster is the full planning context for one organization, shift and date.
type Roster struct {
	OrganizationID string
	ShiftID        string
	Date           string
	Depot          geo.Point
	Employees      []EmployeeStop
	Vehicles       []Vehicle
}
