package fleet

import (
	"context"
	"sync"

	"github.com/shuttleroute/shuttleroute/internal/geo"
)

// InMemoryDirectory is an in-memory implementation of Directory.
// This is intended for testing and local development. Production should use
// PostgresDirectory.
type InMemoryDirectory struct {
	mu        sync.RWMutex
	depots    map[string]geo.Point
	employees map[string][]EmployeeStop // keyed by orgID|shiftID|date
	vehicles  map[string][]Vehicle      // keyed by orgID
}

// NewInMemoryDirectory creates a new empty in-memory directory.
func NewInMemoryDirectory() *InMemoryDirectory {
	return &InMemoryDirectory{
		depots:    make(map[string]geo.Point),
		employees: make(map[string][]EmployeeStop),
		vehicles:  make(map[string][]Vehicle),
	}
}

// SetDepot registers the depot location for an organization.
func (d *InMemoryDirectory) SetDepot(orgID string, depot geo.Point) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.depots[orgID] = depot
}

// SetEmployees registers pickup stops for a shift.
func (d *InMemoryDirectory) SetEmployees(orgID, shiftID, date string, stops []EmployeeStop) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.employees[orgID+"|"+shiftID+"|"+date] = stops
}

// SetVehicles registers the vehicle fleet for an organization.
func (d *InMemoryDirectory) SetVehicles(orgID string, vehicles []Vehicle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.vehicles[orgID] = vehicles
}

// EmployeesForShift returns pickup stops for the given shift and date.
func (d *InMemoryDirectory) EmployeesForShift(_ context.Context, orgID, shiftID, date string) ([]EmployeeStop, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	stops := d.employees[orgID+"|"+shiftID+"|"+date]

	// Return a copy
	out := make([]EmployeeStop, len(stops))
	copy(out, stops)
	return out, nil
}

// AvailableVehicles returns vehicles with status available.
func (d *InMemoryDirectory) AvailableVehicles(_ context.Context, orgID, _ string) ([]Vehicle, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var out []Vehicle
	for _, v := range d.vehicles[orgID] {
		if v.Status == "" || v.Status == VehicleAvailable {
			out = append(out, v)
		}
	}
	return out, nil
}

// Depot returns the organization's depot location.
func (d *InMemoryDirectory) Depot(_ context.Context, orgID string) (geo.Point, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	depot, ok := d.depots[orgID]
	if !ok {
		return geo.Point{}, ErrOrganizationNotFound
	}
	return depot, nil
}
