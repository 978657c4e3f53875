// Package planner orchestrates clustering and route sequencing for a shift:
// validate, check cache, assign, sequence, assemble, write back.
package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/shuttleroute/shuttleroute/internal/cache"
	"github.com/shuttleroute/shuttleroute/internal/cluster"
	"github.com/shuttleroute/shuttleroute/internal/fleet"
	"github.com/shuttleroute/shuttleroute/internal/route"
)

// ErrVehicleNotFound indicates the requested vehicle is not part of the plan.
var ErrVehicleNotFound = errors.New("vehicle not found in plan")

// dateLayout is the wire format for plan dates.
const dateLayout = "2006-01-02"

// ServiceConfig holds configuration for the planner service.
type ServiceConfig struct {
	// Directory loads employees, vehicles and the depot. Required.
	Directory fleet.Directory

	// Cache memoizes plan results. Required.
	Cache *cache.Gateway

	// Assigner partitions employees across vehicles.
	// Defaults to cluster.NewAssigner with default tuning.
	Assigner *cluster.Assigner

	// Sequencer orders stops within each cluster.
	// Defaults to route.NewSequencer with default tuning.
	Sequencer *route.Sequencer

	// Logger for planning operations.
	Logger zerolog.Logger
}

// Service computes shuttle plans for shifts.
type Service struct {
	directory fleet.Directory
	cache     *cache.Gateway
	assigner  *cluster.Assigner
	sequencer *route.Sequencer
	logger    zerolog.Logger
}

// NewService creates a new planner service.
func NewService(cfg ServiceConfig) *Service {
	assigner := cfg.Assigner
	if assigner == nil {
		assigner = cluster.NewAssigner(cluster.Config{Logger: cfg.Logger})
	}

	sequencer := cfg.Sequencer
	if sequencer == nil {
		sequencer = route.NewSequencer(route.Config{Logger: cfg.Logger})
	}

	return &Service{
		directory: cfg.Directory,
		cache:     cfg.Cache,
		assigner:  assigner,
		sequencer: sequencer,
		logger:    cfg.Logger,
	}
}

// OptimizeAllClusters returns the full plan for a shift, serving a cached
// result when the same employee and vehicle sets were planned before.
//
// Empty employee or vehicle sets are a valid "nothing to do" state, not an
// error: with no vehicles every employee lands in Unassigned.
func (s *Service) OptimizeAllClusters(ctx context.Context, orgID, shiftID, date string) (*PlanResult, error) {
	if fieldErrs := validateRequest(orgID, shiftID, date); len(fieldErrs) > 0 {
		return nil, &ValidationError{Errors: fieldErrs}
	}

	roster, err := s.loadRoster(ctx, orgID, shiftID, date)
	if err != nil {
		return nil, err
	}
	if fieldErrs := validateRoster(roster); len(fieldErrs) > 0 {
		return nil, &ValidationError{Errors: fieldErrs}
	}

	key := s.cache.Key(orgID, roster.Employees, roster.Vehicles)

	var cached PlanResult
	if s.cache.Get(ctx, key, &cached) {
		cached.CacheHit = true
		return &cached, nil
	}

	result, err := s.compute(roster)
	if err != nil {
		return nil, err
	}

	s.cache.Set(ctx, key, result)

	return result, nil
}

// VehiclePlan returns one vehicle's cluster, and optionally its route, from
// the full plan. The full plan is always computed (or served from cache):
// assignment is interdependent across vehicles, so a single cluster cannot be
// derived in isolation.
func (s *Service) VehiclePlan(ctx context.Context, orgID, shiftID, date, vehicleID string, includeRoute bool) (*VehiclePlan, error) {
	if vehicleID == "" {
		return nil, &ValidationError{Errors: []FieldError{{Field: "vehicleId", Message: "is required"}}}
	}

	result, err := s.OptimizeAllClusters(ctx, orgID, shiftID, date)
	if err != nil {
		return nil, err
	}

	for i, c := range result.Clusters {
		if c.VehicleID != vehicleID {
			continue
		}

		plan := &VehiclePlan{Cluster: c}
		if includeRoute && i < len(result.Routes) {
			r := result.Routes[i]
			plan.Route = &r
		}
		return plan, nil
	}

	return nil, fmt.Errorf("vehicle %q: %w", vehicleID, ErrVehicleNotFound)
}

// loadRoster gathers the planning context from the directory.
func (s *Service) loadRoster(ctx context.Context, orgID, shiftID, date string) (*fleet.Roster, error) {
	depot, err := s.directory.Depot(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load depot: %w", err)
	}

	employees, err := s.directory.EmployeesForShift(ctx, orgID, shiftID, date)
	if err != nil {
		return nil, fmt.Errorf("load employees: %w", err)
	}

	vehicles, err := s.directory.AvailableVehicles(ctx, orgID, date)
	if err != nil {
		return nil, fmt.Errorf("load vehicles: %w", err)
	}

	return &fleet.Roster{
		OrganizationID: orgID,
		ShiftID:        shiftID,
		Date:           date,
		Depot:          depot,
		Employees:      employees,
		Vehicles:       vehicles,
	}, nil
}

// compute runs assignment and sequencing, then assembles the result with
// shortfall and time-cap warnings.
func (s *Service) compute(roster *fleet.Roster) (*PlanResult, error) {
	start := time.Now()

	assignment, err := s.assigner.Assign(roster.Depot, roster.Employees, roster.Vehicles)
	if err != nil {
		if errors.Is(err, cluster.ErrInvalidCapacity) {
			return nil, &ValidationError{Errors: []FieldError{{Field: "vehicles", Message: err.Error()}}}
		}
		return nil, err
	}

	routes := make([]route.Route, len(assignment.Clusters))
	var warnings []Warning
	for i, c := range assignment.Clusters {
		routes[i] = s.sequencer.Sequence(c.VehicleID, roster.Depot, c.Members)
		if routes[i].TimeExceeded {
			warnings = append(warnings, Warning{
				Code:      WarningRouteTimeExceeded,
				Message:   fmt.Sprintf("route is %.0f minutes, over the operational cap", routes[i].TotalTimeMinutes),
				VehicleID: c.VehicleID,
			})
		}
	}

	if n := len(assignment.Unassigned); n > 0 {
		warnings = append(warnings, Warning{
			Code:    WarningCapacityShortfall,
			Message: fmt.Sprintf("%d employees could not be assigned, add another vehicle", n),
		})
	}

	s.logger.Info().
		Str("org_id", roster.OrganizationID).
		Str("shift_id", roster.ShiftID).
		Str("date", roster.Date).
		Int("employees", len(roster.Employees)).
		Int("vehicles", len(roster.Vehicles)).
		Int("clusters", len(assignment.Clusters)).
		Int("unassigned", len(assignment.Unassigned)).
		Dur("duration", time.Since(start)).
		Msg("computed shift plan")

	return &PlanResult{
		OrganizationID: roster.OrganizationID,
		ShiftID:        roster.ShiftID,
		Date:           roster.Date,
		Depot:          roster.Depot,
		Clusters:       assignment.Clusters,
		Routes:         routes,
		Unassigned:     assignment.Unassigned,
		Warnings:       warnings,
		ComputedAt:     time.Now().UTC(),
	}, nil
}

// validateRequest checks the request identifiers before any cache access.
func validateRequest(orgID, shiftID, date string) []FieldError {
	var errs []FieldError

	if orgID == "" {
		errs = append(errs, FieldError{Field: "organizationId", Message: "is required"})
	}
	if shiftID == "" {
		errs = append(errs, FieldError{Field: "shiftId", Message: "is required"})
	}
	if date == "" {
		errs = append(errs, FieldError{Field: "date", Message: "is required"})
	} else if _, err := time.Parse(dateLayout, date); err != nil {
		errs = append(errs, FieldError{Field: "date", Message: "must be in YYYY-MM-DD format"})
	}

	return errs
}

// validateRoster checks loaded context data before computation.
func validateRoster(roster *fleet.Roster) []FieldError {
	var errs []FieldError

	if err := roster.Depot.Validate(); err != nil {
		errs = append(errs, FieldError{Field: "depot", Message: err.Error()})
	}
	for _, e := range roster.Employees {
		if err := e.Location.Validate(); err != nil {
			errs = append(errs, FieldError{Field: "employees." + e.ID, Message: err.Error()})
		}
	}
	for _, v := range roster.Vehicles {
		if v.Capacity <= 0 {
			errs = append(errs, FieldError{Field: "vehicles." + v.ID, Message: "capacity must be positive"})
		}
	}

	return errs
}
