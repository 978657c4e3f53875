package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/shuttleroute/shuttleroute/internal/cache"
)

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	precomputeJob    *PrecomputeJob
	cache            *cache.Gateway
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	PrecomputeJob    *PrecomputeJob
	Cache            *cache.Gateway
	Logger           zerolog.Logger
}

// JobMessage represents a worker job published by the roster or scheduler
// services.
type JobMessage struct {
	JobType string `json:"job_type"`

	// OrganizationID identifies the organization for roster_change jobs.
	OrganizationID string `json:"organization_id,omitempty"`

	// Date selects the service date for plan_precompute jobs.
	Date string `json:"date,omitempty"`
}

// Job types handled by the worker.
const (
	JobRosterChange   = "roster_change"
	JobPlanPrecompute = "plan_precompute"
	JobHealthCheck    = "health_check"
)

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 10
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		precomputeJob:    cfg.PrecomputeJob,
		cache:            cfg.Cache,
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	startTime := time.Now()

	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	logger.Debug().Msg("received pubsub message")

	// Parse message.
	var job JobMessage
	if err := json.Unmarshal(msg.Data, &job); err != nil {
		logger.Error().Err(err).Msg("failed to parse message")
		msg.Nack()
		return
	}

	// Handle based on job type.
	var err error
	switch job.JobType {
	case JobRosterChange:
		err = h.handleRosterChange(ctx, job)
	case JobPlanPrecompute:
		err = h.handlePlanPrecompute(ctx, job)
	case JobHealthCheck:
		err = h.cache.Ping(ctx)
	default:
		logger.Warn().Str("job_type", job.JobType).Msg("unknown job type")
		msg.Ack() // Ack unknown messages to prevent redelivery
		return
	}

	if err != nil {
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
		return
	}

	duration := time.Since(startTime)
	logger.Info().
		Str("job_type", job.JobType).
		Dur("duration", duration).
		Msg("job completed successfully")

	msg.Ack()
}

// handleRosterChange drops every cached plan for the organization.
// Stale plans would hand out routes over vehicles or employees that no
// longer exist.
func (h *PubSubHandler) handleRosterChange(ctx context.Context, job JobMessage) error {
	if job.OrganizationID == "" {
		return fmt.Errorf("roster_change message missing organization_id")
	}

	h.logger.Info().
		Str("org_id", job.OrganizationID).
		Msg("invalidating plans after roster change")

	return h.cache.InvalidateOrganization(ctx, job.OrganizationID)
}

func (h *PubSubHandler) handlePlanPrecompute(ctx context.Context, job JobMessage) error {
	date := job.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	result := h.precomputeJob.Run(ctx, date)

	// Consider it successful if more than half succeeded.
	if result.Failed > result.Successful {
		return fmt.Errorf("too many precompute failures: %d/%d", result.Failed, result.TotalShifts)
	}

	return nil
}
