package orderstore

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ventaflow/dispatch-backend/pkg/enums"
	"github.com/ventaflow/dispatch-backend/pkg/logger"
	"github.com/ventaflow/dispatch-backend/pkg/types"
)

type stubReplica struct {
	name        string
	assignedID  string
	readErr     error
	writeErr    error
	doc         *Document
	assignments []Assignment
	pending     []string
	outcomes    []types.NotificationOutcome
	annotations []string
}

func (s *stubReplica) Name() string { return s.name }

func (s *stubReplica) GetDocument(ctx context.Context, orderID string) (*Document, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	if s.doc == nil {
		return nil, ErrNotFound
	}
	return s.doc, nil
}

func (s *stubReplica) UpsertDocument(ctx context.Context, doc *Document) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.doc = doc
	return nil
}

func (s *stubReplica) AssignedAgent(ctx context.Context, orderID string) (string, error) {
	if s.readErr != nil {
		return "", s.readErr
	}
	return s.assignedID, nil
}

func (s *stubReplica) WriteAssignment(ctx context.Context, orderID string, assignment Assignment) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.assignments = append(s.assignments, assignment)
	return nil
}

func (s *stubReplica) MarkPending(ctx context.Context, orderID string) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.pending = append(s.pending, orderID)
	return nil
}

func (s *stubReplica) WriteNotificationOutcome(ctx context.Context, orderID string, outcome types.NotificationOutcome) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.outcomes = append(s.outcomes, outcome)
	return nil
}

func (s *stubReplica) AnnotateError(ctx context.Context, orderID string, note string, at time.Time) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.annotations = append(s.annotations, note)
	return nil
}

func newTestDual(t *testing.T, replicas ...Replica) *Dual {
	t.Helper()
	dual, err := NewDual(logger.New(logger.Options{ServiceName: "test", Output: io.Discard}), replicas...)
	require.NoError(t, err)
	return dual
}

func TestAssignedAgentReturnsFirstNonEmpty(t *testing.T) {
	fast := &stubReplica{name: "redis"}
	durable := &stubReplica{name: "postgres", assignedID: "agent-a"}
	dual := newTestDual(t, fast, durable)

	agentID, err := dual.AssignedAgent(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, "agent-a", agentID)
}

func TestAssignedAgentToleratesOneDegradedReplica(t *testing.T) {
	fast := &stubReplica{name: "redis", readErr: errors.New("connection refused")}
	durable := &stubReplica{name: "postgres", assignedID: "agent-a"}
	dual := newTestDual(t, fast, durable)

	agentID, err := dual.AssignedAgent(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, "agent-a", agentID)
}

func TestAssignedAgentFailsWhenNoReplicaAnswers(t *testing.T) {
	fast := &stubReplica{name: "redis", readErr: errors.New("connection refused")}
	durable := &stubReplica{name: "postgres", readErr: errors.New("db down")}
	dual := newTestDual(t, fast, durable)

	_, err := dual.AssignedAgent(context.Background(), "o-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
	assert.Contains(t, err.Error(), "postgres")
}

func TestWriteAssignmentReachesSiblingDespiteFailure(t *testing.T) {
	fast := &stubReplica{name: "redis", writeErr: errors.New("connection refused")}
	durable := &stubReplica{name: "postgres"}
	dual := newTestDual(t, fast, durable)

	assignment := Assignment{
		AgentID:    "agent-a",
		AssignedAt: time.Now().UTC(),
		Source:     enums.AssignmentSourceOrderCreated,
	}
	err := dual.WriteAssignment(context.Background(), "o-1", assignment)
	require.NoError(t, err)
	require.Len(t, durable.assignments, 1)
	assert.Equal(t, "agent-a", durable.assignments[0].AgentID)
}

func TestWriteAssignmentFailsWhenAllReplicasFail(t *testing.T) {
	fast := &stubReplica{name: "redis", writeErr: errors.New("connection refused")}
	durable := &stubReplica{name: "postgres", writeErr: errors.New("db down")}
	dual := newTestDual(t, fast, durable)

	err := dual.WriteAssignment(context.Background(), "o-1", Assignment{AgentID: "agent-a"})
	require.Error(t, err)
}

func TestGetDocumentFallsBackToSibling(t *testing.T) {
	fast := &stubReplica{name: "redis"}
	durable := &stubReplica{name: "postgres", doc: &Document{ID: "o-1", CustomerName: "Maria"}}
	dual := newTestDual(t, fast, durable)

	doc, err := dual.GetDocument(context.Background(), "o-1")
	require.NoError(t, err)
	assert.Equal(t, "Maria", doc.CustomerName)
}

func TestMarkPendingFansOut(t *testing.T) {
	fast := &stubReplica{name: "redis"}
	durable := &stubReplica{name: "postgres"}
	dual := newTestDual(t, fast, durable)

	require.NoError(t, dual.MarkPending(context.Background(), "o-1"))
	assert.Equal(t, []string{"o-1"}, fast.pending)
	assert.Equal(t, []string{"o-1"}, durable.pending)
}
