package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shuttleroute/shuttleroute/internal/api/middleware"
	"github.com/shuttleroute/shuttleroute/internal/api/models"
	"github.com/shuttleroute/shuttleroute/internal/api/response"
	"github.com/shuttleroute/shuttleroute/internal/cache"
	"github.com/shuttleroute/shuttleroute/internal/fleet"
	"github.com/shuttleroute/shuttleroute/internal/planner"
)

// PlanHandler handles shift plan endpoints.
type PlanHandler struct {
	planner *planner.Service
	cache   *cache.Gateway
	metrics *middleware.PlanMetrics
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(p *planner.Service, gw *cache.Gateway, metrics *middleware.PlanMetrics) *PlanHandler {
	return &PlanHandler{planner: p, cache: gw, metrics: metrics}
}

// ComputePlan handles POST /v1/plans:compute - cluster a shift's employees
// into shuttles and sequence a route per shuttle.
func (h *PlanHandler) ComputePlan(w http.ResponseWriter, r *http.Request) {
	var input models.PlanComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	start := time.Now()
	result, err := h.planner.OptimizeAllClusters(r.Context(), input.OrganizationID, input.ShiftID, input.Date)
	if h.metrics != nil {
		cacheHit := result != nil && result.CacheHit
		h.metrics.RecordPlan(input.OrganizationID, time.Since(start), cacheHit, err)
	}
	if err != nil {
		writePlanError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=60")
	response.JSON(w, r, http.StatusOK, toPlanResponse(result))
}

// ShuttlePlan handles GET /v1/organizations/{organizationId}/shuttles/{shuttleId}/plan.
// Query parameters: shiftId, date, includeRoute (default true).
func (h *PlanHandler) ShuttlePlan(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "organizationId")
	shuttleID := chi.URLParam(r, "shuttleId")
	shiftID := r.URL.Query().Get("shiftId")
	date := r.URL.Query().Get("date")
	includeRoute := r.URL.Query().Get("includeRoute") != "false"

	vp, err := h.planner.VehiclePlan(r.Context(), orgID, shiftID, date, shuttleID, includeRoute)
	if err != nil {
		writePlanError(w, r, err)
		return
	}

	resp := models.ShuttlePlanResponse{
		GeneratedAt:    models.Timestamp(time.Now()),
		OrganizationID: orgID,
		ShiftID:        shiftID,
		Date:           date,
		Shuttle:        toShuttlePlan(vp.Cluster, vp.Route),
	}
	response.JSON(w, r, http.StatusOK, resp)
}

// InvalidateCache handles POST /v1/organizations/{organizationId}/cache:invalidate.
// Removes every cached plan for the organization.
func (h *PlanHandler) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "organizationId")

	if err := h.cache.InvalidateOrganization(r.Context(), orgID); err != nil {
		response.ServiceUnavailable(w, r, "cache invalidation failed")
		return
	}

	response.Accepted(w, r, models.InvalidateResponse{
		OrganizationID: orgID,
		InvalidatedAt:  models.Timestamp(time.Now()),
	})
}

// writePlanError maps planner errors onto Problem responses.
func writePlanError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *planner.ValidationError
	switch {
	case errors.As(err, &verr):
		response.BadRequest(w, r, "invalid plan request", toFieldErrors(verr.Errors))
	case errors.Is(err, fleet.ErrOrganizationNotFound):
		response.NotFound(w, r, "organization not found")
	case errors.Is(err, planner.ErrVehicleNotFound):
		response.NotFound(w, r, "shuttle is not part of this plan")
	default:
		response.InternalError(w, r, "plan computation failed")
	}
}

func toFieldErrors(errs []planner.FieldError) []models.FieldError {
	out := make([]models.FieldError, 0, len(errs))
	for _, e := range errs {
		out = append(out, models.FieldError{Field: e.Field, Message: e.Message})
	}
	return out
}
