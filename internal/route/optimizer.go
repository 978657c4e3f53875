package route

import (
	"errors"

	"github.com/shuttleroute/shuttleroute/internal/fleet"
	"github.com/shuttleroute/shuttleroute/internal/geo"
)

// ErrEmptyInput indicates an ad-hoc optimization request with no stops.
var ErrEmptyInput = errors.New("at least one stop is required")

// OptimizedPath is the result of an ad-hoc optimization preview.
type OptimizedPath struct {
	// Path is the ordered coordinate path, anchor first.
	Path []geo.Point `json:"path"`

	// Stops in visiting order, excluding the anchor when one was supplied.
	Stops []fleet.EmployeeStop `json:"stops"`

	TotalDistanceKm  float64 `json:"totalDistanceKm"`
	TotalTimeMinutes float64 `json:"totalTimeMinutes"`
}

// Optimizer provides capacity-free "what if" route optimization over a loose
// list of stops, outside the main clustering flow.
type Optimizer struct {
	sequencer *Sequencer
}

// NewOptimizer creates a new ad-hoc optimizer on top of a sequencer.
func NewOptimizer(sequencer *Sequencer) *Optimizer {
	return &Optimizer{sequencer: sequencer}
}

// Optimize orders the given stops into a single efficient path. When depot is
// nil, the first stop anchors the path. Returns ErrEmptyInput for zero stops.
func (o *Optimizer) Optimize(stops []fleet.EmployeeStop, depot *geo.Point) (*OptimizedPath, error) {
	if len(stops) == 0 {
		return nil, ErrEmptyInput
	}

	anchor := stops[0].Location
	rest := stops[1:]
	if depot != nil {
		anchor = *depot
		rest = stops
	}

	r := o.sequencer.Sequence("", anchor, rest)

	return &OptimizedPath{
		Path:             r.Path,
		Stops:            r.Stops,
		TotalDistanceKm:  r.TotalDistanceKm,
		TotalTimeMinutes: r.TotalTimeMinutes,
	}, nil
}
