package assignment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/ventaflow/dispatch-backend/internal/presence"
	"github.com/ventaflow/dispatch-backend/pkg/enums"
	"github.com/ventaflow/dispatch-backend/pkg/idempotency"
	"github.com/ventaflow/dispatch-backend/pkg/logger"
)

const (
	presenceConsumerName = "presence-dispatch"
	presenceChangedEvent = "presence.changed"
)

type sweeper interface {
	ReconcilePending(ctx context.Context, limit int) (SweepResult, error)
}

// PresenceConsumer watches presence transitions and kicks a reconciliation
// sweep whenever an agent comes back online. Only a strict offline to online
// flip counts; heartbeat refreshes are ignored.
type PresenceConsumer struct {
	engine       sweeper
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
	sweepLimit   int
}

// NewPresenceConsumer builds the presence consumer.
func NewPresenceConsumer(engine sweeper, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger, sweepLimit int) (*PresenceConsumer, error) {
	if engine == nil {
		return nil, fmt.Errorf("assignment engine required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("presence subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if sweepLimit <= 0 {
		return nil, fmt.Errorf("sweep limit must be positive")
	}
	return &PresenceConsumer{
		engine:       engine,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
		sweepLimit:   sweepLimit,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *PresenceConsumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

func (c *PresenceConsumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != presenceChangedEvent {
		c.logg.Info(logCtx, "skipping non-presence event")
		return processResult{ack: true}
	}

	var envelope EventEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	var payload PresenceChangedPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return processResult{ack: true}
	}

	transition := presence.Transition{
		AgentID: payload.AgentID,
		Before:  enums.ParsePresenceState(payload.Before),
		After:   enums.ParsePresenceState(payload.After),
	}
	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"agent_id": transition.AgentID,
		"before":   transition.Before.String(),
		"after":    transition.After.String(),
	})

	if !transition.Reconnected() {
		c.logg.Info(logCtx, "presence change is not a reconnect, ignoring")
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, presenceConsumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	result, err := c.engine.ReconcilePending(ctx, c.sweepLimit)
	if err != nil {
		if errors.Is(err, ErrNoActiveAgents) {
			// The reconnecting agent raced back offline. Nothing to repair.
			c.logg.Warn(logCtx, "reconnect sweep found no active agents")
			return processResult{ack: true}
		}
		c.logg.Error(logCtx, "reconnect sweep failed", err)
		_ = c.idempotency.Delete(ctx, presenceConsumerName, eventID)
		return processResult{nack: true}
	}

	c.logg.Info(c.logg.WithFields(logCtx, map[string]any{
		"found":     result.Found,
		"processed": result.Processed,
	}), "reconnect sweep finished")
	return processResult{ack: true}
}
