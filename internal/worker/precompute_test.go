package worker_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuttleroute/shuttleroute/internal/cache"
	"github.com/shuttleroute/shuttleroute/internal/fleet"
	"github.com/shuttleroute/shuttleroute/internal/geo"
	"github.com/shuttleroute/shuttleroute/internal/planner"
	"github.com/shuttleroute/shuttleroute/internal/worker"
)

func TestDefaultPrecomputeConfig(t *testing.T) {
	cfg := worker.DefaultPrecomputeConfig()

	assert.Equal(t, 3, cfg.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Empty(t, cfg.Targets)
}

func TestPrecomputeConfig_AllShifts(t *testing.T) {
	cfg := worker.PrecomputeConfig{
		Targets: []worker.PrecomputeTarget{
			{OrganizationID: "org-1", ShiftIDs: []string{"morning", "evening"}},
			{OrganizationID: "org-2", ShiftIDs: []string{"night"}},
		},
	}

	shifts := cfg.AllShifts()
	require.Len(t, shifts, 3)
	assert.Equal(t, worker.ShiftRef{OrganizationID: "org-1", ShiftID: "morning"}, shifts[0])
	assert.Equal(t, worker.ShiftRef{OrganizationID: "org-2", ShiftID: "night"}, shifts[2])
	assert.Equal(t, 3, cfg.TotalShifts())
}

func newTestPlanner(t *testing.T) (*planner.Service, *cache.Gateway) {
	t.Helper()

	mr := miniredis.RunT(t)
	backend := cache.NewRedisBackend(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = backend.Close() })

	gw := cache.NewGateway(cache.GatewayConfig{
		Backend: backend,
		TTL:     time.Hour,
		Logger:  zerolog.Nop(),
	})

	dir := fleet.NewInMemoryDirectory()
	dir.SetDepot("org-1", geo.Point{Lat: 9.03, Lon: 38.74})
	for _, shiftID := range []string{"morning", "evening"} {
		dir.SetEmployees("org-1", shiftID, "2026-03-02", []fleet.EmployeeStop{
			{ID: "emp-1", Location: geo.Point{Lat: 9.04, Lon: 38.75}},
			{ID: "emp-2", Location: geo.Point{Lat: 9.05, Lon: 38.76}},
		})
	}
	dir.SetVehicles("org-1", []fleet.Vehicle{
		{ID: "veh-1", Capacity: 4, Status: fleet.VehicleAvailable},
	})

	return planner.NewService(planner.ServiceConfig{
		Directory: dir,
		Cache:     gw,
		Logger:    zerolog.Nop(),
	}), gw
}

func TestPrecomputeJob_Run(t *testing.T) {
	svc, _ := newTestPlanner(t)

	job := worker.NewPrecomputeJob(worker.PrecomputeJobConfig{
		Config: worker.PrecomputeConfig{
			Targets: []worker.PrecomputeTarget{
				{OrganizationID: "org-1", ShiftIDs: []string{"morning", "evening"}},
			},
			Concurrency: 2,
			Timeout:     10 * time.Second,
		},
		Logger:  zerolog.Nop(),
		Planner: svc,
	})

	result := job.Run(context.Background(), "2026-03-02")

	assert.Equal(t, 2, result.TotalShifts)
	assert.Equal(t, 2, result.Successful)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, 2, result.CacheMisses)
	assert.Empty(t, result.Errors)

	// A second run is served entirely from cache.
	second := job.Run(context.Background(), "2026-03-02")
	assert.Equal(t, 2, second.Successful)
	assert.Equal(t, 2, second.CacheHits)

	metrics := job.GetMetrics()
	assert.Equal(t, int64(2), metrics.TotalRuns)
	assert.Equal(t, int64(4), metrics.SuccessfulPlans)
	assert.Equal(t, int64(2), metrics.CacheHits)
}

func TestPrecomputeJob_Run_UnknownOrganization(t *testing.T) {
	svc, _ := newTestPlanner(t)

	job := worker.NewPrecomputeJob(worker.PrecomputeJobConfig{
		Config: worker.PrecomputeConfig{
			Targets: []worker.PrecomputeTarget{
				{OrganizationID: "org-1", ShiftIDs: []string{"morning"}},
				{OrganizationID: "org-missing", ShiftIDs: []string{"morning"}},
			},
			Concurrency: 1,
			Timeout:     10 * time.Second,
		},
		Logger:  zerolog.Nop(),
		Planner: svc,
	})

	result := job.Run(context.Background(), "2026-03-02")

	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "org-missing", result.Errors[0].OrganizationID)
}

func TestPrecomputeJob_DefaultsApplied(t *testing.T) {
	svc, _ := newTestPlanner(t)

	job := worker.NewPrecomputeJob(worker.PrecomputeJobConfig{
		Logger:  zerolog.Nop(),
		Planner: svc,
	})

	// No targets: the run completes immediately with zero work.
	result := job.Run(context.Background(), "2026-03-02")
	assert.Equal(t, 0, result.TotalShifts)
	assert.Equal(t, 0, result.Successful)
	assert.Equal(t, 0, result.Failed)
}

func TestPrecomputeJob_MetricsSnapshot(t *testing.T) {
	svc, _ := newTestPlanner(t)

	job := worker.NewPrecomputeJob(worker.PrecomputeJobConfig{
		Config: worker.PrecomputeConfig{
			Targets: []worker.PrecomputeTarget{
				{OrganizationID: "org-1", ShiftIDs: []string{"morning"}},
			},
		},
		Logger:  zerolog.Nop(),
		Planner: svc,
	})

	job.Run(context.Background(), "2026-03-02")

	snapshot := job.MetricsSnapshot()
	assert.Equal(t, int64(1), snapshot["total_runs"])
	assert.Equal(t, int64(1), snapshot["successful_plans"])
}
