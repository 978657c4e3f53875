// Package cluster partitions employee pickup stops across vehicles, respecting
// capacity while keeping each group geographically tight.
package cluster

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/shuttleroute/shuttleroute/internal/fleet"
	"github.com/shuttleroute/shuttleroute/internal/geo"
)

// ErrInvalidCapacity indicates a vehicle with a non-positive capacity.
var ErrInvalidCapacity = errors.New("vehicle capacity must be positive")

// DefaultSwapPasses bounds the local improvement phase.
const DefaultSwapPasses = 50

// improvementEpsilon guards against oscillating on float noise.
const improvementEpsilon = 1e-9

// Cluster is a group of employees assigned to one vehicle.
// Never mutated after Assign returns.
type Cluster struct {
	VehicleID string               `json:"vehicleId"`
	Capacity  int                  `json:"capacity"`
	Members   []fleet.EmployeeStop `json:"members"`
}

// Assignment is the result of partitioning employees across vehicles.
// Unassigned holds employees that could not fit in any vehicle; they are
// never silently dropped.
type Assignment struct {
	Clusters   []Cluster            `json:"clusters"`
	Unassigned []fleet.EmployeeStop `json:"unassigned"`
}

// Config holds configuration for the assigner.
type Config struct {
	// SwapPasses caps the local improvement phase (default: DefaultSwapPasses).
	SwapPasses int

	// Logger for assignment diagnostics.
	Logger zerolog.Logger
}

// Assigner implements deterministic greedy capacity-constrained clustering.
type Assigner struct {
	swapPasses int
	logger     zerolog.Logger
}

// NewAssigner creates a new assigner.
func NewAssigner(cfg Config) *Assigner {
	swapPasses := cfg.SwapPasses
	if swapPasses == 0 {
		swapPasses = DefaultSwapPasses
	}

	return &Assigner{
		swapPasses: swapPasses,
		logger:     cfg.Logger,
	}
}

// Assign partitions employees across vehicles. Vehicles are seeded with
// farthest-point sampling anchored at the depot-nearest employee, employees
// are greedily placed on the nearest seed with remaining capacity, and a
// bounded pass of pairwise swaps tightens the result.
//
// The same multiset of inputs always yields the same grouping regardless of
// input order: both lists are normalized by ID before clustering.
func (a *Assigner) Assign(depot geo.Point, employees []fleet.EmployeeStop, vehicles []fleet.Vehicle) (*Assignment, error) {
	for _, v := range vehicles {
		if v.Capacity <= 0 {
			return nil, fmt.Errorf("vehicle %q: %w", v.ID, ErrInvalidCapacity)
		}
	}

	// Normalize input order for determinism. Vehicles sort descending by
	// capacity so the largest shuttle is seeded first; ties break by ID.
	emps := make([]fleet.EmployeeStop, len(employees))
	copy(emps, employees)
	sort.Slice(emps, func(i, j int) bool { return emps[i].ID < emps[j].ID })

	vehs := make([]fleet.Vehicle, len(vehicles))
	copy(vehs, vehicles)
	sort.Slice(vehs, func(i, j int) bool {
		if vehs[i].Capacity != vehs[j].Capacity {
			return vehs[i].Capacity > vehs[j].Capacity
		}
		return vehs[i].ID < vehs[j].ID
	})

	if len(vehs) == 0 {
		return &Assignment{Clusters: []Cluster{}, Unassigned: emps}, nil
	}
	if len(emps) == 0 {
		return &Assignment{Clusters: []Cluster{}, Unassigned: []fleet.EmployeeStop{}}, nil
	}

	seeds := a.seedCentroids(depot, emps, len(vehs))

	clusters := make([]Cluster, len(seeds))
	for i := range seeds {
		clusters[i] = Cluster{
			VehicleID: vehs[i].ID,
			Capacity:  vehs[i].Capacity,
			Members:   []fleet.EmployeeStop{},
		}
	}

	unassigned := []fleet.EmployeeStop{}
	for _, emp := range emps {
		idx := a.placeEmployee(emp, seeds, clusters)
		if idx < 0 {
			unassigned = append(unassigned, emp)
			continue
		}
		clusters[idx].Members = append(clusters[idx].Members, emp)
	}

	passes := a.improve(clusters)

	a.logger.Debug().
		Int("employees", len(emps)).
		Int("vehicles", len(vehs)).
		Int("clusters", len(clusters)).
		Int("unassigned", len(unassigned)).
		Int("improvement_passes", passes).
		Msg("assignment complete")

	return &Assignment{Clusters: clusters, Unassigned: unassigned}, nil
}

// seedCentroids picks up to k employees as cluster seeds using farthest-point
// sampling. The first seed is the employee closest to the depot; each
// subsequent seed maximizes its minimum distance to already-chosen seeds.
func (a *Assigner) seedCentroids(depot geo.Point, emps []fleet.EmployeeStop, k int) []geo.Point {
	if k > len(emps) {
		k = len(emps)
	}

	chosen := make([]bool, len(emps))
	seeds := make([]geo.Point, 0, k)

	// Anchor at the depot-nearest employee.
	first := 0
	best := geo.HaversineKm(depot, emps[0].Location)
	for i := 1; i < len(emps); i++ {
		if d := geo.HaversineKm(depot, emps[i].Location); d < best {
			best = d
			first = i
		}
	}
	chosen[first] = true
	seeds = append(seeds, emps[first].Location)

	for len(seeds) < k {
		next := -1
		nextDist := -1.0
		for i, emp := range emps {
			if chosen[i] {
				continue
			}
			minDist := geo.HaversineKm(emp.Location, seeds[0])
			for _, s := range seeds[1:] {
				if d := geo.HaversineKm(emp.Location, s); d < minDist {
					minDist = d
				}
			}
			if minDist > nextDist {
				nextDist = minDist
				next = i
			}
		}
		if next < 0 {
			break
		}
		chosen[next] = true
		seeds = append(seeds, emps[next].Location)
	}

	return seeds
}

// placeEmployee returns the index of the nearest seed's cluster with remaining
// capacity, falling back to the next-nearest, or -1 when every cluster is full.
func (a *Assigner) placeEmployee(emp fleet.EmployeeStop, seeds []geo.Point, clusters []Cluster) int {
	order := make([]int, len(seeds))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(x, y int) bool {
		dx := geo.HaversineKm(emp.Location, seeds[order[x]])
		dy := geo.HaversineKm(emp.Location, seeds[order[y]])
		if dx != dy {
			return dx < dy
		}
		return clusters[order[x]].VehicleID < clusters[order[y]].VehicleID
	})

	for _, idx := range order {
		if len(clusters[idx].Members) < clusters[idx].Capacity {
			return idx
		}
	}
	return -1
}

// improve runs bounded passes of pairwise member swaps. A swap is applied when
// it strictly reduces the combined distance-to-own-centroid cost of the two
// clusters. Swapping one member for one member never violates capacity.
// Returns the number of passes executed.
func (a *Assigner) improve(clusters []Cluster) int {
	pass := 0
	for ; pass < a.swapPasses; pass++ {
		if !a.improvePass(clusters) {
			break
		}
	}
	return pass
}

func (a *Assigner) improvePass(clusters []Cluster) bool {
	improved := false

	for i := 0; i < len(clusters); i++ {
		for j := i + 1; j < len(clusters); j++ {
			if len(clusters[i].Members) == 0 || len(clusters[j].Members) == 0 {
				continue
			}
			if a.trySwap(&clusters[i], &clusters[j]) {
				improved = true
			}
		}
	}

	return improved
}

// trySwap applies the first member exchange between two clusters that lowers
// their combined spread.
func (a *Assigner) trySwap(ci, cj *Cluster) bool {
	currentCost := clusterCost(ci.Members) + clusterCost(cj.Members)

	for x := range ci.Members {
		for y := range cj.Members {
			ci.Members[x], cj.Members[y] = cj.Members[y], ci.Members[x]
			newCost := clusterCost(ci.Members) + clusterCost(cj.Members)
			if newCost < currentCost-improvementEpsilon {
				return true
			}
			// Revert
			ci.Members[x], cj.Members[y] = cj.Members[y], ci.Members[x]
		}
	}
	return false
}

// clusterCost is the sum of member distances to the cluster centroid.
func clusterCost(members []fleet.EmployeeStop) float64 {
	if len(members) == 0 {
		return 0
	}

	points := make([]geo.Point, len(members))
	for i, m := range members {
		points[i] = m.Location
	}
	centroid, _ := geo.Centroid(points)

	total := 0.0
	for _, p := range points {
		total += geo.HaversineKm(p, centroid)
	}
	return total
}
