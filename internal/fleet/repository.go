package fleet

import (
	"context"
	"errors"

	"github.com/shuttleroute/shuttleroute/internal/geo"
)

// Directory errors.
var (
	// ErrOrganizationNotFound indicates the organization has no depot on record.
	ErrOrganizationNotFound = errors.New("organization not found")
)

// Directory is the read-side lookup used by the planner to load the context
// for a shift. Implementations must filter vehicles to those available for
// assignment.
type Directory interface {
	// EmployeesForShift returns pickup stops for employees scheduled on the
	// given shift and date.
	EmployeesForShift(ctx context.Context, orgID, shiftID, date string) ([]EmployeeStop, error)

	// AvailableVehicles returns shuttles with status available on the given date.
	AvailableVehicles(ctx context.Context, orgID, date string) ([]Vehicle, error)

	// Depot returns the organization's fixed HQ/branch location.
	// Returns ErrOrganizationNotFound when no depot is configured.
	Depot(ctx context.Context, orgID string) (geo.Point, error)
}
