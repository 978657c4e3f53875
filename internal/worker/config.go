// Package worker provides background job processing for ShuttleRoute.
package worker

import (
	"time"
)

// PrecomputeTarget represents one organization's shifts to warm.
type PrecomputeTarget struct {
	// OrganizationID identifies the organization.
	OrganizationID string

	// ShiftIDs are the shifts to precompute plans for.
	ShiftIDs []string

	// Priority determines precompute order (lower = higher priority).
	Priority int
}

// ShiftRef identifies a single shift of a single organization.
type ShiftRef struct {
	OrganizationID string
	ShiftID        string
}

// PrecomputeConfig holds configuration for the plan precompute job.
type PrecomputeConfig struct {
	// Targets are the organizations and shifts to warm.
	Targets []PrecomputeTarget

	// Concurrency is the number of concurrent plan computations.
	// Default: 3
	Concurrency int

	// Timeout is the timeout for each plan computation.
	// Default: 30 seconds
	Timeout time.Duration
}

// DefaultPrecomputeConfig returns the default precompute configuration.
// Targets are supplied per message or per deployment.
func DefaultPrecomputeConfig() PrecomputeConfig {
	return PrecomputeConfig{
		Concurrency: 3,
		Timeout:     30 * time.Second,
	}
}

// AllShifts returns every shift from every target, in target order.
func (c PrecomputeConfig) AllShifts() []ShiftRef {
	var shifts []ShiftRef
	for _, target := range c.Targets {
		for _, shiftID := range target.ShiftIDs {
			shifts = append(shifts, ShiftRef{
				OrganizationID: target.OrganizationID,
				ShiftID:        shiftID,
			})
		}
	}
	return shifts
}

// TotalShifts returns the total number of shifts to precompute.
func (c PrecomputeConfig) TotalShifts() int {
	total := 0
	for _, target := range c.Targets {
		total += len(target.ShiftIDs)
	}
	return total
}
