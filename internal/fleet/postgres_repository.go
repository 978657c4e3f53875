package fleet

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shuttleroute/shuttleroute/internal/geo"
)

// PostgresDirectory is a PostgreSQL implementation of Directory backed by the
// fleet management schema.
type PostgresDirectory struct {
	pool *pgxpool.Pool
}

// NewPostgresDirectory creates a new PostgreSQL fleet directory.
func NewPostgresDirectory(pool *pgxpool.Pool) *PostgresDirectory {
	return &PostgresDirectory{pool: pool}
}

// EmployeesForShift returns pickup stops for employees scheduled on the given
// shift and date.
func (d *PostgresDirectory) EmployeesForShift(ctx context.Context, orgID, shiftID, date string) ([]EmployeeStop, error) {
	query := `
		SELECT e.id, e.full_name, e.pickup_lat, e.pickup_lon
		FROM employees e
		JOIN shift_assignments sa ON sa.employee_id = e.id
		WHERE e.organization_id = $1
		  AND sa.shift_id = $2
		  AND sa.date = $3
		  AND e.pickup_lat IS NOT NULL
		  AND e.pickup_lon IS NOT NULL
		ORDER BY e.id
	`

	rows, err := d.pool.Query(ctx, query, orgID, shiftID, date)
	if err != nil {
		return nil, fmt.Errorf("query employees: %w", err)
	}
	defer rows.Close()

	var stops []EmployeeStop
	for rows.Next() {
		var s EmployeeStop
		if err := rows.Scan(&s.ID, &s.Name, &s.Location.Lat, &s.Location.Lon); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		stops = append(stops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate employees: %w", err)
	}

	return stops, nil
}

// AvailableVehicles returns shuttles with status available on the given date.
func (d *PostgresDirectory) AvailableVehicles(ctx context.Context, orgID, date string) ([]Vehicle, error) {
	query := `
		SELECT v.id, v.name, v.capacity, v.status
		FROM vehicles v
		WHERE v.organization_id = $1
		  AND v.status = 'available'
		  AND NOT EXISTS (
			SELECT 1 FROM vehicle_blackouts b
			WHERE b.vehicle_id = v.id AND b.date = $2
		  )
		ORDER BY v.id
	`

	rows, err := d.pool.Query(ctx, query, orgID, date)
	if err != nil {
		return nil, fmt.Errorf("query vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []Vehicle
	for rows.Next() {
		var v Vehicle
		if err := rows.Scan(&v.ID, &v.Name, &v.Capacity, &v.Status); err != nil {
			return nil, fmt.Errorf("scan vehicle: %w", err)
		}
		vehicles = append(vehicles, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vehicles: %w", err)
	}

	return vehicles, nil
}

// Depot returns the organization's fixed HQ/branch location.
func (d *PostgresDirectory) Depot(ctx context.Context, orgID string) (geo.Point, error) {
	query := `
		SELECT depot_lat, depot_lon
		FROM organizations
		WHERE id = $1
	`

	var depot geo.Point
	err := d.pool.QueryRow(ctx, query, orgID).Scan(&depot.Lat, &depot.Lon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return geo.Point{}, ErrOrganizationNotFound
		}
		return geo.Point{}, fmt.Errorf("query depot: %w", err)
	}

	return depot, nil
}
