package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/shuttleroute/shuttleroute/internal/planner"
)

// PrecomputeJob warms the plan cache by computing plans ahead of demand.
type PrecomputeJob struct {
	config  PrecomputeConfig
	logger  zerolog.Logger
	planner *planner.Service

	metrics *PrecomputeMetrics
}

// PrecomputeMetrics tracks precompute job statistics.
type PrecomputeMetrics struct {
	mu sync.RWMutex

	// Counters
	TotalRuns       int64
	SuccessfulPlans int64
	FailedPlans     int64

	// Timings
	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration

	// Cache stats
	CacheHits   int64
	CacheMisses int64
}

// PrecomputeJobConfig holds configuration for creating a PrecomputeJob.
type PrecomputeJobConfig struct {
	Config  PrecomputeConfig
	Logger  zerolog.Logger
	Planner *planner.Service
}

// NewPrecomputeJob creates a new precompute job processor.
func NewPrecomputeJob(cfg PrecomputeJobConfig) *PrecomputeJob {
	config := cfg.Config
	if config.Concurrency <= 0 {
		config.Concurrency = DefaultPrecomputeConfig().Concurrency
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultPrecomputeConfig().Timeout
	}

	return &PrecomputeJob{
		config:  config,
		logger:  cfg.Logger,
		planner: cfg.Planner,
		metrics: &PrecomputeMetrics{},
	}
}

// PrecomputeResult contains the result of a precompute run.
type PrecomputeResult struct {
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	TotalShifts int
	Successful  int
	Failed      int
	Errors      []PrecomputeError
	CacheHits   int
	CacheMisses int
}

// PrecomputeError represents an error during a precompute run.
type PrecomputeError struct {
	OrganizationID string
	ShiftID        string
	Error          string
}

// Run computes a plan for every configured shift on the given date.
func (j *PrecomputeJob) Run(ctx context.Context, date string) *PrecomputeResult {
	startTime := time.Now()
	result := &PrecomputeResult{
		StartTime:   startTime,
		TotalShifts: j.config.TotalShifts(),
	}

	j.logger.Info().
		Str("date", date).
		Int("total_shifts", result.TotalShifts).
		Int("concurrency", j.config.Concurrency).
		Msg("starting plan precompute job")

	shifts := j.config.AllShifts()

	// Create work channels
	shiftsChan := make(chan ShiftRef, len(shifts))
	resultsChan := make(chan shiftResult, len(shifts))

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.planWorker(ctx, date, shiftsChan, resultsChan)
		}()
	}

	// Send shifts to workers
	for _, s := range shifts {
		shiftsChan <- s
	}
	close(shiftsChan)

	// Wait for workers to complete
	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	// Collect results
	for sr := range resultsChan {
		if sr.err == nil {
			result.Successful++
			if sr.cacheHit {
				result.CacheHits++
			} else {
				result.CacheMisses++
			}
		} else {
			result.Failed++
			result.Errors = append(result.Errors, PrecomputeError{
				OrganizationID: sr.shift.OrganizationID,
				ShiftID:        sr.shift.ShiftID,
				Error:          sr.err.Error(),
			})
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Int("cache_hits", result.CacheHits).
		Int("cache_misses", result.CacheMisses).
		Msg("plan precompute job completed")

	return result
}

type shiftResult struct {
	shift    ShiftRef
	cacheHit bool
	err      error
}

func (j *PrecomputeJob) planWorker(ctx context.Context, date string, shifts <-chan ShiftRef, results chan<- shiftResult) {
	for shift := range shifts {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.computeShift(ctx, date, shift)
		}
	}
}

func (j *PrecomputeJob) computeShift(ctx context.Context, date string, shift ShiftRef) shiftResult {
	shiftCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	plan, err := j.planner.OptimizeAllClusters(shiftCtx, shift.OrganizationID, shift.ShiftID, date)
	if err != nil {
		j.logger.Warn().
			Err(err).
			Str("org_id", shift.OrganizationID).
			Str("shift_id", shift.ShiftID).
			Msg("plan precompute failed")
		return shiftResult{shift: shift, err: err}
	}

	return shiftResult{shift: shift, cacheHit: plan.CacheHit}
}

func (j *PrecomputeJob) updateMetrics(result *PrecomputeResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.SuccessfulPlans += int64(result.Successful)
	j.metrics.FailedPlans += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
	j.metrics.CacheHits += int64(result.CacheHits)
	j.metrics.CacheMisses += int64(result.CacheMisses)
}

// GetMetrics returns a copy of the current metrics.
func (j *PrecomputeJob) GetMetrics() PrecomputeMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return PrecomputeMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		SuccessfulPlans: j.metrics.SuccessfulPlans,
		FailedPlans:     j.metrics.FailedPlans,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
		TotalDuration:   j.metrics.TotalDuration,
		CacheHits:       j.metrics.CacheHits,
		CacheMisses:     j.metrics.CacheMisses,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *PrecomputeJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"successful_plans":  m.SuccessfulPlans,
		"failed_plans":      m.FailedPlans,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalDuration.String(),
		"cache_hits":        m.CacheHits,
		"cache_misses":      m.CacheMisses,
	}
}
