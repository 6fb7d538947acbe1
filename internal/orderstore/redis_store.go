package orderstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ventaflow/dispatch-backend/pkg/enums"
	pkgerrors "github.com/ventaflow/dispatch-backend/pkg/errors"
	"github.com/ventaflow/dispatch-backend/pkg/redis"
	"github.com/ventaflow/dispatch-backend/pkg/types"
)

type docStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	OrderDocKey(orderID string) string
}

// RedisStore is the low-latency replica: one JSON document per order, with a
// TTL so stale documents age out and the durable replica stays authoritative.
type RedisStore struct {
	store docStore
	ttl   time.Duration
}

// NewRedisStore binds the low-latency replica to the shared redis client.
func NewRedisStore(client *redis.Client, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	return &RedisStore{store: client, ttl: ttl}, nil
}

// Name identifies the replica in logs.
func (s *RedisStore) Name() string {
	return "redis"
}

// GetDocument loads and decodes the order document.
func (s *RedisStore) GetDocument(ctx context.Context, orderID string) (*Document, error) {
	raw, err := s.store.Get(ctx, s.store.OrderDocKey(orderID))
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrNotFound
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read order doc")
	}
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode order doc")
	}
	return &doc, nil
}

// UpsertDocument writes the document, preserving any assignment fields a
// previous write already recorded.
func (s *RedisStore) UpsertDocument(ctx context.Context, doc *Document) error {
	if doc == nil || doc.ID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "order document with id required")
	}
	merged := *doc
	if existing, err := s.GetDocument(ctx, doc.ID); err == nil && existing.AssignedAgentID != nil {
		merged.Status = existing.Status
		merged.AssignedAgentID = existing.AssignedAgentID
		merged.AssignedAt = existing.AssignedAt
		merged.AssignmentSource = existing.AssignmentSource
	}
	return s.putDocument(ctx, &merged)
}

// AssignedAgent returns the current assignee id, or empty when unassigned or
// the document is missing.
func (s *RedisStore) AssignedAgent(ctx context.Context, orderID string) (string, error) {
	doc, err := s.GetDocument(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", err
	}
	if doc.AssignedAgentID == nil {
		return "", nil
	}
	return *doc.AssignedAgentID, nil
}

// WriteAssignment sets the assignment fields on the cached document. A
// document that already names a different agent is left untouched.
func (s *RedisStore) WriteAssignment(ctx context.Context, orderID string, assignment Assignment) error {
	doc, err := s.GetDocument(ctx, orderID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		doc = &Document{ID: orderID}
	}
	if doc.AssignedAgentID != nil && *doc.AssignedAgentID != assignment.AgentID {
		return ErrAlreadyAssigned
	}
	agentID := assignment.AgentID
	assignedAt := assignment.AssignedAt
	source := assignment.Source.String()
	doc.Status = enums.OrderStatusAssigned
	doc.AssignedAgentID = &agentID
	doc.AssignedAt = &assignedAt
	doc.AssignmentSource = &source
	return s.putDocument(ctx, doc)
}

// MarkPending normalizes the cached document back to pending.
func (s *RedisStore) MarkPending(ctx context.Context, orderID string) error {
	doc, err := s.GetDocument(ctx, orderID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return err
		}
		doc = &Document{ID: orderID}
	}
	if doc.AssignedAgentID != nil {
		return nil
	}
	doc.Status = enums.OrderStatusPending
	return s.putDocument(ctx, doc)
}

// WriteNotificationOutcome stores the dispatch result on the cached document.
func (s *RedisStore) WriteNotificationOutcome(ctx context.Context, orderID string, outcome types.NotificationOutcome) error {
	doc, err := s.GetDocument(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	doc.NotificationOutcome = &outcome
	return s.putDocument(ctx, doc)
}

// AnnotateError records a per-order failure on the cached document.
func (s *RedisStore) AnnotateError(ctx context.Context, orderID string, note string, at time.Time) error {
	doc, err := s.GetDocument(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	doc.Status = enums.OrderStatusError
	doc.ErrorNote = &note
	doc.ErrorAt = &at
	return s.putDocument(ctx, doc)
}

func (s *RedisStore) putDocument(ctx context.Context, doc *Document) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode order doc")
	}
	if err := s.store.Set(ctx, s.store.OrderDocKey(doc.ID), payload, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write order doc")
	}
	return nil
}
