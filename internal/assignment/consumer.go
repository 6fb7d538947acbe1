package assignment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/ventaflow/dispatch-backend/internal/orderstore"
	"github.com/ventaflow/dispatch-backend/pkg/enums"
	"github.com/ventaflow/dispatch-backend/pkg/idempotency"
	"github.com/ventaflow/dispatch-backend/pkg/logger"
)

const (
	orderConsumerName = "order-dispatch"
	orderCreatedEvent = "order.created"
)

type documentWriter interface {
	UpsertDocument(ctx context.Context, doc *orderstore.Document) error
}

type assigner interface {
	ResolveActiveAgents(ctx context.Context) ([]string, error)
	AssignOrder(ctx context.Context, orderID string, candidates []string, source enums.AssignmentSource) (Outcome, error)
	DeferOrder(ctx context.Context, orderID string) error
}

// OrderConsumer watches the order intake topic and runs every new order
// through the assignment flow.
type OrderConsumer struct {
	store        documentWriter
	engine       assigner
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	logg         *logger.Logger
}

// NewOrderConsumer builds the intake consumer.
func NewOrderConsumer(store documentWriter, engine assigner, subscription *pubsub.Subscriber, manager *idempotency.Manager, logg *logger.Logger) (*OrderConsumer, error) {
	if store == nil {
		return nil, fmt.Errorf("order store required")
	}
	if engine == nil {
		return nil, fmt.Errorf("assignment engine required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("orders subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &OrderConsumer{
		store:        store,
		engine:       engine,
		subscription: subscription,
		idempotency:  manager,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *OrderConsumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *OrderConsumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	eventType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": eventType,
	})

	if eventType != orderCreatedEvent {
		c.logg.Info(logCtx, "skipping non-order event")
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

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, orderConsumerName, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	var payload OrderCreatedPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		_ = c.idempotency.Delete(ctx, orderConsumerName, eventID)
		return processResult{nack: true}
	}
	if payload.OrderID == "" {
		c.logg.Warn(logCtx, "order event without order id")
		return processResult{ack: true}
	}

	logCtx = c.logg.WithOrderID(logCtx, payload.OrderID)
	if err := c.handleOrderCreated(ctx, payload, logCtx); err != nil {
		c.logg.Error(logCtx, "order intake failed", err)
		_ = c.idempotency.Delete(ctx, orderConsumerName, eventID)
		return processResult{nack: true}
	}
	return processResult{ack: true}
}

func (c *OrderConsumer) handleOrderCreated(ctx context.Context, payload OrderCreatedPayload, logCtx context.Context) error {
	rawStatus := payload.Status
	doc := &orderstore.Document{
		ID:            payload.OrderID,
		Status:        enums.NormalizeOrderStatus(payload.Status),
		RawStatus:     &rawStatus,
		CustomerName:  payload.Customer.Name,
		CustomerPhone: payload.Customer.Phone,
		CustomerEmail: payload.Customer.Email,
	}
	for _, item := range payload.Items {
		doc.Items = append(doc.Items, orderstore.LineItem{
			Name:           item.Name,
			Qty:            item.Qty,
			UnitPriceCents: item.UnitPriceCents,
		})
	}
	if err := c.store.UpsertDocument(ctx, doc); err != nil {
		return err
	}

	candidates, err := c.engine.ResolveActiveAgents(ctx)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return c.engine.DeferOrder(ctx, payload.OrderID)
	}

	outcome, err := c.engine.AssignOrder(ctx, payload.OrderID, candidates, enums.AssignmentSourceOrderCreated)
	if err != nil {
		if errors.Is(err, ErrNoActiveAgents) {
			return c.engine.DeferOrder(ctx, payload.OrderID)
		}
		return err
	}
	if !outcome.Assigned {
		c.logg.Info(logCtx, "order intake saw existing assignment")
	}
	return nil
}
