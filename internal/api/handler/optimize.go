package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shuttleroute/shuttleroute/internal/api/models"
	"github.com/shuttleroute/shuttleroute/internal/api/response"
	"github.com/shuttleroute/shuttleroute/internal/fleet"
	"github.com/shuttleroute/shuttleroute/internal/geo"
	"github.com/shuttleroute/shuttleroute/internal/route"
)

// OptimizeHandler handles ad-hoc route optimization over explicit stops.
type OptimizeHandler struct {
	config    route.Config
	optimizer *route.Optimizer
}

// NewOptimizeHandler creates a new OptimizeHandler. The sequencer tunables in
// cfg are the service-wide defaults; a request may override the average speed
// only.
func NewOptimizeHandler(cfg route.Config) *OptimizeHandler {
	return &OptimizeHandler{
		config:    cfg,
		optimizer: route.NewOptimizer(route.NewSequencer(cfg)),
	}
}

// OptimizeRoute handles POST /v1/routes:optimize - order a list of stops
// into a single route without persistence or caching.
func (h *OptimizeHandler) OptimizeRoute(w http.ResponseWriter, r *http.Request) {
	var input models.RouteOptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if fieldErrs := validateOptimizeRequest(input); len(fieldErrs) > 0 {
		response.BadRequest(w, r, "invalid optimization request", fieldErrs)
		return
	}

	optimizer := h.optimizer
	if input.AvgSpeedKmh != nil {
		cfg := h.config
		cfg.AvgSpeedKmh = *input.AvgSpeedKmh
		optimizer = route.NewOptimizer(route.NewSequencer(cfg))
	}

	stops := make([]fleet.EmployeeStop, 0, len(input.Stops))
	for _, s := range input.Stops {
		stops = append(stops, fleet.EmployeeStop{
			ID:       s.ID,
			Name:     s.Name,
			Location: geo.Point{Lat: s.Point.Lat, Lon: s.Point.Lon},
		})
	}

	var depot *geo.Point
	if input.Depot != nil {
		depot = &geo.Point{Lat: input.Depot.Lat, Lon: input.Depot.Lon}
	}

	optimized, err := optimizer.Optimize(stops, depot)
	if err != nil {
		if errors.Is(err, route.ErrEmptyInput) {
			response.BadRequest(w, r, "at least one stop is required", nil)
			return
		}
		response.InternalError(w, r, "route optimization failed")
		return
	}

	resp := models.RouteOptimizeResponse{
		GeneratedAt:      models.Timestamp(time.Now()),
		Stops:            toStopRefs(optimized.Stops),
		Path:             toPath(optimized.Path),
		GeometryPolyline: encodePath(optimized.Path),
		DistanceKm:       optimized.TotalDistanceKm,
		DurationMinutes:  optimized.TotalTimeMinutes,
	}

	w.Header().Set("Cache-Control", "private, max-age=60")
	response.JSON(w, r, http.StatusOK, resp)
}

func validateOptimizeRequest(input models.RouteOptimizeRequest) []models.FieldError {
	var errs []models.FieldError
	if len(input.Stops) == 0 {
		errs = append(errs, models.FieldError{Field: "stops", Message: "at least one stop is required"})
	}
	for _, s := range input.Stops {
		if s.ID == "" {
			errs = append(errs, models.FieldError{Field: "stops", Message: "every stop needs an id"})
			break
		}
	}
	for _, s := range input.Stops {
		p := geo.Point{Lat: s.Point.Lat, Lon: s.Point.Lon}
		if err := p.Validate(); err != nil {
			errs = append(errs, models.FieldError{Field: "stops", Message: "stop " + s.ID + ": " + err.Error()})
		}
	}
	if input.Depot != nil {
		p := geo.Point{Lat: input.Depot.Lat, Lon: input.Depot.Lon}
		if err := p.Validate(); err != nil {
			errs = append(errs, models.FieldError{Field: "depot", Message: err.Error()})
		}
	}
	if input.AvgSpeedKmh != nil && *input.AvgSpeedKmh <= 0 {
		errs = append(errs, models.FieldError{Field: "avgSpeedKmh", Message: "must be greater than zero"})
	}
	return errs
}
