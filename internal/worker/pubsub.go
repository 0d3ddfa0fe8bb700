package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/travelmodel/modechoice/internal/household"
)

// Job types carried in Pub/Sub messages.
const (
	JobEvaluateBatch = "evaluate_batch"
	JobHealthCheck   = "health_check"
)

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	processor        *Processor
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	EvaluationJob    *EvaluationJob
	Logger           zerolog.Logger
}

// JobMessage is a worker job message.
type JobMessage struct {
	JobType    string               `json:"job_type"`
	Households []household.Document `json:"households,omitempty"`

	// MaxFailureRatio fails the job when more than this share of households
	// could not be evaluated. Zero means any failure is tolerated.
	MaxFailureRatio float64 `json:"max_failure_ratio,omitempty"`
}

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
		processor:        NewProcessor(cfg.EvaluationJob, cfg.Logger),
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		logger := h.logger.With().
			Str("message_id", msg.ID).
			Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
			Logger()

		switch h.processor.Handle(ctx, msg.Data, logger) {
		case Retry:
			msg.Nack()
		default:
			msg.Ack()
		}
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

// Outcome tells the transport what to do with a message.
type Outcome int

const (
	// Done acknowledges the message.
	Done Outcome = iota
	// Retry asks for redelivery.
	Retry
	// Drop acknowledges a message that can never succeed.
	Drop
)

// Processor decodes job messages and runs them. It is independent of the
// Pub/Sub client.
type Processor struct {
	job    *EvaluationJob
	logger zerolog.Logger
}

// NewProcessor creates a message processor.
func NewProcessor(job *EvaluationJob, logger zerolog.Logger) *Processor {
	return &Processor{job: job, logger: logger}
}

// Handle processes one message body.
func (p *Processor) Handle(ctx context.Context, data []byte, logger zerolog.Logger) Outcome {
	startTime := time.Now()
	logger.Debug().Msg("received message")

	var jobMsg JobMessage
	if err := json.Unmarshal(data, &jobMsg); err != nil {
		// Redelivery cannot fix a malformed body.
		logger.Error().Err(err).Msg("failed to parse message")
		return Drop
	}

	var err error
	switch jobMsg.JobType {
	case JobEvaluateBatch:
		err = p.handleEvaluateBatch(ctx, jobMsg, logger)
	case JobHealthCheck:
		err = p.handleHealthCheck(ctx)
	default:
		logger.Warn().Str("job_type", jobMsg.JobType).Msg("unknown job type")
		return Drop
	}

	if err != nil {
		logger.Error().Err(err).Str("job_type", jobMsg.JobType).Msg("job failed")
		if errors.Is(err, ErrBatchTooLarge) {
			return Drop
		}
		return Retry
	}

	logger.Info().
		Str("job_type", jobMsg.JobType).
		Dur("duration", time.Since(startTime)).
		Msg("job completed successfully")
	return Done
}

func (p *Processor) handleEvaluateBatch(ctx context.Context, msg JobMessage, logger zerolog.Logger) error {
	result, err := p.job.Run(ctx, msg.Households)
	if err != nil {
		return err
	}

	logger.Info().
		Str("run_id", result.RunID).
		Int("households", result.Summary.Households).
		Int("failed", result.Summary.Failures).
		Int("skipped", result.Skipped).
		Int("passenger_matches", result.Summary.PassengerMatches).
		Msg("batch evaluated")

	if result.Skipped > 0 {
		return fmt.Errorf("batch interrupted: %d of %d households skipped", result.Skipped, result.Total)
	}
	if msg.MaxFailureRatio > 0 && result.Total > 0 &&
		float64(result.Summary.Failures)/float64(result.Total) > msg.MaxFailureRatio {
		return fmt.Errorf("too many household failures: %d/%d", result.Summary.Failures, result.Total)
	}
	return nil
}

func (p *Processor) handleHealthCheck(ctx context.Context) error {
	p.logger.Debug().Msg("running health check")

	// An empty batch only needs the engine.
	if _, err := p.job.Run(ctx, nil); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	p.logger.Debug().Msg("health check passed")
	return nil
}
