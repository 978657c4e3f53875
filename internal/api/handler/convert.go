package handler

import (
	"time"

	"github.com/shuttleroute/shuttleroute/internal/api/models"
	"github.com/shuttleroute/shuttleroute/internal/cluster"
	"github.com/shuttleroute/shuttleroute/internal/fleet"
	"github.com/shuttleroute/shuttleroute/internal/geo"
	"github.com/shuttleroute/shuttleroute/internal/planner"
	"github.com/shuttleroute/shuttleroute/internal/route"
	"github.com/shuttleroute/shuttleroute/pkg/polyline"
)

// toPlanResponse maps a plan result onto the API response shape.
// Clusters and routes are paired by index.
func toPlanResponse(result *planner.PlanResult) models.PlanResponse {
	shuttles := make([]models.ShuttlePlan, 0, len(result.Clusters))
	for i, c := range result.Clusters {
		var rt *route.Route
		if i < len(result.Routes) {
			rt = &result.Routes[i]
		}
		shuttles = append(shuttles, toShuttlePlan(c, rt))
	}

	warnings := make([]models.Warning, 0, len(result.Warnings))
	for _, wrn := range result.Warnings {
		warnings = append(warnings, models.Warning{
			Code:      wrn.Code,
			Message:   wrn.Message,
			ShuttleID: wrn.VehicleID,
		})
	}
	if len(warnings) == 0 {
		warnings = nil
	}

	generatedAt := result.ComputedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now()
	}

	return models.PlanResponse{
		GeneratedAt:    models.Timestamp(generatedAt),
		OrganizationID: result.OrganizationID,
		ShiftID:        result.ShiftID,
		Date:           result.Date,
		Depot:          toPoint(result.Depot),
		Shuttles:       shuttles,
		Unassigned:     toStopRefs(result.Unassigned),
		Warnings:       warnings,
		CacheHit:       result.CacheHit,
	}
}

func toShuttlePlan(c cluster.Cluster, rt *route.Route) models.ShuttlePlan {
	plan := models.ShuttlePlan{
		ShuttleID: c.VehicleID,
		Capacity:  c.Capacity,
		Employees: toStopRefs(c.Members),
	}
	if rt != nil {
		plan.Path = toPath(rt.Path)
		plan.GeometryPolyline = encodePath(rt.Path)
		plan.DistanceKm = rt.TotalDistanceKm
		plan.DurationMinutes = rt.TotalTimeMinutes
		plan.TimeLimitExceeded = rt.TimeExceeded
	}
	return plan
}

func toStopRefs(stops []fleet.EmployeeStop) []models.StopRef {
	refs := make([]models.StopRef, 0, len(stops))
	for _, s := range stops {
		refs = append(refs, models.StopRef{
			ID:      s.ID,
			Name:    s.Name,
			Point:   toPoint(s.Location),
			Geohash: s.Location.Geohash(),
		})
	}
	return refs
}

func toPoint(p geo.Point) models.Point {
	return models.Point{Lat: p.Lat, Lon: p.Lon}
}

// toPath converts route geometry to [lon, lat] pairs.
func toPath(points []geo.Point) [][2]float64 {
	path := make([][2]float64, 0, len(points))
	for _, p := range points {
		path = append(path, [2]float64{p.Lon, p.Lat})
	}
	return path
}

func encodePath(points []geo.Point) string {
	coords := make([]polyline.Coordinate, 0, len(points))
	for _, p := range points {
		coords = append(coords, polyline.Coordinate{Lat: p.Lat, Lon: p.Lon})
	}
	return polyline.Encode(coords)
}
