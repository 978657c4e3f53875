// Package route computes visiting orders for clustered pickup stops.
package route

import (
	"github.com/rs/zerolog"

	"github.com/shuttleroute/shuttleroute/internal/fleet"
	"github.com/shuttleroute/shuttleroute/internal/geo"
)

// Defaults for the sequencing heuristics. All are tunable via Config; the
// values mirror the fleet operation's business rules.
const (
	DefaultTwoOptIterations = 200
	DefaultAvgSpeedKmh      = 25.0
	DefaultMaxRouteMinutes  = 180.0
)

// Route is an ordered visiting plan for one vehicle, anchored at the depot.
// Immutable once returned.
type Route struct {
	VehicleID string `json:"vehicleId"`

	// Stops in visiting order, excluding the depot.
	Stops []fleet.EmployeeStop `json:"stops"`

	// Path is the ordered coordinate path, depot first.
	Path []geo.Point `json:"path"`

	TotalDistanceKm  float64 `json:"totalDistanceKm"`
	TotalTimeMinutes float64 `json:"totalTimeMinutes"`

	// TimeExceeded flags routes longer than the operational cap. The value is
	// never clamped; the caller decides whether to re-cluster.
	TimeExceeded bool `json:"timeExceeded"`
}

// Config holds configuration for the sequencer.
type Config struct {
	// TwoOptIterations caps the 2-opt improvement loop (default: 200).
	TwoOptIterations int

	// AvgSpeedKmh is the flat speed for travel time estimates (default: 25).
	AvgSpeedKmh float64

	// MaxRouteMinutes is the operational cap above which routes are flagged
	// (default: 180).
	MaxRouteMinutes float64

	// Logger for sequencing diagnostics.
	Logger zerolog.Logger
}

// Sequencer orders a cluster's stops with nearest-neighbor construction
// followed by 2-opt local search.
type Sequencer struct {
	twoOptIterations int
	avgSpeedKmh      float64
	maxRouteMinutes  float64
	logger           zerolog.Logger
}

// NewSequencer creates a new sequencer.
func NewSequencer(cfg Config) *Sequencer {
	twoOpt := cfg.TwoOptIterations
	if twoOpt == 0 {
		twoOpt = DefaultTwoOptIterations
	}

	speed := cfg.AvgSpeedKmh
	if speed == 0 {
		speed = DefaultAvgSpeedKmh
	}

	maxMinutes := cfg.MaxRouteMinutes
	if maxMinutes == 0 {
		maxMinutes = DefaultMaxRouteMinutes
	}

	return &Sequencer{
		twoOptIterations: twoOpt,
		avgSpeedKmh:      speed,
		maxRouteMinutes:  maxMinutes,
		logger:           cfg.Logger,
	}
}

// Sequence computes the visiting order for one vehicle's stops, starting at
// the depot. A cluster with zero members yields a depot-only route with zero
// distance.
func (s *Sequencer) Sequence(vehicleID string, depot geo.Point, members []fleet.EmployeeStop) Route {
	if len(members) == 0 {
		return Route{
			VehicleID: vehicleID,
			Stops:     []fleet.EmployeeStop{},
			Path:      []geo.Point{depot},
		}
	}

	order := s.nearestNeighborOrder(depot, members)
	order = s.twoOpt(depot, members, order)

	stops := make([]fleet.EmployeeStop, len(order))
	path := make([]geo.Point, 0, len(order)+1)
	path = append(path, depot)
	for i, idx := range order {
		stops[i] = members[idx]
		path = append(path, members[idx].Location)
	}

	distance := geo.PathDistanceKm(path)
	minutes := geo.TravelTimeMinutes(distance, s.avgSpeedKmh)
	exceeded := minutes > s.maxRouteMinutes

	if exceeded {
		s.logger.Warn().
			Str("vehicle_id", vehicleID).
			Float64("total_minutes", minutes).
			Float64("cap_minutes", s.maxRouteMinutes).
			Msg("route exceeds operational time cap")
	}

	return Route{
		VehicleID:        vehicleID,
		Stops:            stops,
		Path:             path,
		TotalDistanceKm:  distance,
		TotalTimeMinutes: minutes,
		TimeExceeded:     exceeded,
	}
}

// nearestNeighborOrder builds an initial tour by repeatedly visiting the
// closest unvisited stop. Ties break by stop ID for determinism.
func (s *Sequencer) nearestNeighborOrder(depot geo.Point, members []fleet.EmployeeStop) []int {
	order := make([]int, 0, len(members))
	visited := make([]bool, len(members))
	current := depot

	for len(order) < len(members) {
		next := -1
		var nextDist float64
		for i, m := range members {
			if visited[i] {
				continue
			}
			d := geo.HaversineKm(current, m.Location)
			if next < 0 || d < nextDist || (d == nextDist && m.ID < members[next].ID) {
				next = i
				nextDist = d
			}
		}
		visited[next] = true
		order = append(order, next)
		current = members[next].Location
	}

	return order
}

// twoOpt improves the tour by reversing path segments whose endpoints form
// crossing edges. The depot stays pinned at the start. Iterations are bounded
// so worst-case runtime stays predictable for timeout-free callers.
func (s *Sequencer) twoOpt(depot geo.Point, members []fleet.EmployeeStop, order []int) []int {
	n := len(order)
	if n < 3 {
		return order
	}

	pointAt := func(i int) geo.Point {
		if i < 0 {
			return depot
		}
		return members[order[i]].Location
	}

	for iter := 0; iter < s.twoOptIterations; iter++ {
		improved := false
		for i := 0; i < n-1; i++ {
			for j := i + 1; j < n; j++ {
				// Edges (i-1, i) and (j, j+1); reversing order[i..j] replaces
				// them with (i-1, j) and (i, j+1).
				before := geo.HaversineKm(pointAt(i-1), pointAt(i))
				after := geo.HaversineKm(pointAt(i-1), pointAt(j))
				if j+1 < n {
					before += geo.HaversineKm(pointAt(j), pointAt(j+1))
					after += geo.HaversineKm(pointAt(i), pointAt(j+1))
				}
				if after+1e-9 < before {
					reverse(order, i, j)
					improved = true
				}
			}
		}
		if !improved {
			break
		}
	}

	return order
}

func reverse(order []int, i, j int) {
	for i < j {
		order[i], order[j] = order[j], order[i]
		i++
		j--
	}
}
