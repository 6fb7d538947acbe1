package assignment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ventaflow/dispatch-backend/internal/agents"
	"github.com/ventaflow/dispatch-backend/internal/notify"
	"github.com/ventaflow/dispatch-backend/internal/orderstore"
	"github.com/ventaflow/dispatch-backend/internal/presence"
	"github.com/ventaflow/dispatch-backend/pkg/enums"
	pkgerrors "github.com/ventaflow/dispatch-backend/pkg/errors"
	"github.com/ventaflow/dispatch-backend/pkg/logger"
	"github.com/ventaflow/dispatch-backend/pkg/metrics"
	"github.com/ventaflow/dispatch-backend/pkg/types"
)

const notifyTimeout = 30 * time.Second

// ErrNoActiveAgents is returned when the eligible pool resolved empty. Every
// trigger falls back to leaving the order pending instead of guessing.
var ErrNoActiveAgents = pkgerrors.New(pkgerrors.CodeStateConflict, "no active agents available")

type orderStore interface {
	GetDocument(ctx context.Context, orderID string) (*orderstore.Document, error)
	AssignedAgent(ctx context.Context, orderID string) (string, error)
	WriteAssignment(ctx context.Context, orderID string, assignment orderstore.Assignment) error
	MarkPending(ctx context.Context, orderID string) error
	WriteNotificationOutcome(ctx context.Context, orderID string, outcome types.NotificationOutcome) error
	AnnotateError(ctx context.Context, orderID string, note string, at time.Time) error
}

// Outcome describes what one assignment attempt did.
type Outcome struct {
	OrderID  string
	AgentID  string
	Assigned bool
	Source   enums.AssignmentSource
}

// SweepResult summarizes one reconciliation pass.
type SweepResult struct {
	Processed int `json:"processed"`
	Found     int `json:"found"`
}

// EngineParams wires the engine's collaborators.
type EngineParams struct {
	Store      orderStore
	Finder     orderstore.CandidateFinder
	Cursor     Cursor
	Directory  agents.Directory
	Presence   presence.Source
	Dispatcher notify.Dispatcher
	Metrics    *metrics.DispatchMetrics
	Logger     *logger.Logger
	Now        func() time.Time
}

// Engine owns the round-robin assignment flow: resolving the eligible pool,
// advancing the rotation cursor, writing both order replicas, and firing
// the post-assignment notifications.
type Engine struct {
	store      orderStore
	finder     orderstore.CandidateFinder
	cursor     Cursor
	directory  agents.Directory
	presence   presence.Source
	dispatcher notify.Dispatcher
	metrics    *metrics.DispatchMetrics
	logg       *logger.Logger
	now        func() time.Time

	notifyWG sync.WaitGroup
}

// NewEngine validates the wiring and builds the engine.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.Store == nil {
		return nil, errors.New("order store required")
	}
	if params.Finder == nil {
		return nil, errors.New("candidate finder required")
	}
	if params.Cursor == nil {
		return nil, errors.New("rotation cursor required")
	}
	if params.Directory == nil {
		return nil, errors.New("agent directory required")
	}
	if params.Presence == nil {
		return nil, errors.New("presence source required")
	}
	if params.Dispatcher == nil {
		return nil, errors.New("notification dispatcher required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		store:      params.Store,
		finder:     params.Finder,
		cursor:     params.Cursor,
		directory:  params.Directory,
		presence:   params.Presence,
		dispatcher: params.Dispatcher,
		metrics:    params.Metrics,
		logg:       params.Logger,
		now:        now,
	}, nil
}

// ResolveActiveAgents intersects the presence snapshot with the directory
// and returns the eligible agent ids sorted lexicographically. An agent
// whose directory lookup fails is skipped, never fatal; presence alone does
// not make an agent assignable.
func (e *Engine) ResolveActiveAgents(ctx context.Context) ([]string, error) {
	online, err := e.presence.Snapshot(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "presence snapshot")
	}

	seen := make(map[string]struct{}, len(online))
	eligible := make([]string, 0, len(online))
	for _, agentID := range online {
		if agentID == "" {
			continue
		}
		if _, dup := seen[agentID]; dup {
			continue
		}
		seen[agentID] = struct{}{}

		profile, err := e.directory.Get(ctx, agentID)
		if err != nil {
			if !errors.Is(err, agents.ErrNotFound) {
				logCtx := e.logg.WithAgentID(ctx, agentID)
				e.logg.Error(logCtx, "directory lookup failed, skipping agent", err)
			}
			continue
		}
		if !profile.Eligible() {
			continue
		}
		eligible = append(eligible, agentID)
	}

	sort.Strings(eligible)
	return eligible, nil
}

// AssignOrder hands the order to the next agent in the rotation. The call is
// idempotent: an order that already has an assignee on either replica is left
// untouched. Notifications are dispatched asynchronously after the writes.
func (e *Engine) AssignOrder(ctx context.Context, orderID string, candidates []string, source enums.AssignmentSource) (Outcome, error) {
	outcome := Outcome{OrderID: orderID, Source: source}
	if orderID == "" {
		return outcome, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if len(candidates) == 0 {
		return outcome, ErrNoActiveAgents
	}

	logCtx := e.logg.WithSource(e.logg.WithOrderID(ctx, orderID), source.String())

	existing, err := e.store.AssignedAgent(ctx, orderID)
	if err != nil {
		return outcome, err
	}
	if existing != "" {
		e.metrics.IncSkipped()
		e.logg.Info(e.logg.WithAgentID(logCtx, existing), "order already assigned, skipping")
		outcome.AgentID = existing
		return outcome, nil
	}

	agentID, err := e.cursor.Advance(ctx, candidates)
	if err != nil {
		return outcome, err
	}
	logCtx = e.logg.WithAgentID(logCtx, agentID)

	assignment := orderstore.Assignment{
		AgentID:    agentID,
		AssignedAt: e.now().UTC(),
		Source:     source,
	}
	if err := e.store.WriteAssignment(ctx, orderID, assignment); err != nil {
		if errors.Is(err, orderstore.ErrAlreadyAssigned) {
			e.metrics.IncSkipped()
			e.logg.Info(logCtx, "lost assignment race, skipping")
			return outcome, nil
		}
		return outcome, err
	}

	e.metrics.IncAssigned(source.String())
	e.logg.Info(logCtx, "order assigned")

	outcome.AgentID = agentID
	outcome.Assigned = true
	e.dispatchAsync(orderID, agentID)
	return outcome, nil
}

// DeferOrder parks the order as pending and tells the customer it was
// received, without naming an agent. Used when the eligible pool is empty.
func (e *Engine) DeferOrder(ctx context.Context, orderID string) error {
	if err := e.store.MarkPending(ctx, orderID); err != nil {
		return err
	}
	e.logg.Info(e.logg.WithOrderID(ctx, orderID), "no active agents, order left pending")

	e.notifyWG.Add(1)
	go func() {
		defer e.notifyWG.Done()
		e.dispatchPendingNotice(orderID)
	}()
	return nil
}

// ReconcilePending sweeps orders stuck without an assignee and runs each one
// through the normal assignment flow. The sweep aborts before touching any
// order when the pool is empty.
func (e *Engine) ReconcilePending(ctx context.Context, limit int) (SweepResult, error) {
	result := SweepResult{}
	if limit <= 0 {
		return result, pkgerrors.New(pkgerrors.CodeValidation, "sweep limit must be positive")
	}

	candidates, err := e.ResolveActiveAgents(ctx)
	if err != nil {
		return result, err
	}
	if len(candidates) == 0 {
		e.logg.Warn(ctx, "sweep aborted, no active agents")
		return result, ErrNoActiveAgents
	}

	orderIDs, err := e.collectSweepCandidates(ctx, limit)
	if err != nil {
		return result, err
	}
	result.Found = len(orderIDs)

	for _, orderID := range orderIDs {
		assigned, err := e.sweepOne(ctx, orderID, candidates)
		if err != nil {
			logCtx := e.logg.WithOrderID(ctx, orderID)
			e.logg.Error(logCtx, "sweep order failed", err)
			note := fmt.Sprintf("reconcile failed: %v", err)
			if annotateErr := e.store.AnnotateError(ctx, orderID, note, e.now().UTC()); annotateErr != nil {
				e.logg.Error(logCtx, "failed to annotate order", annotateErr)
			}
			continue
		}
		if assigned {
			result.Processed++
		}
	}

	e.metrics.ObserveSweep(result.Found, result.Processed)
	e.logg.Info(e.logg.WithFields(ctx, map[string]any{
		"found":     result.Found,
		"processed": result.Processed,
	}), "reconcile sweep finished")
	return result, nil
}

// WaitNotifications blocks until every in-flight notification goroutine has
// recorded its outcome. Called on shutdown and by tests.
func (e *Engine) WaitNotifications() {
	e.notifyWG.Wait()
}

// collectSweepCandidates unions the pending-status scan with the unassigned
// scan, deduplicated, capped at limit.
func (e *Engine) collectSweepCandidates(ctx context.Context, limit int) ([]string, error) {
	pending, err := e.finder.FindPendingOrders(ctx, limit)
	if err != nil {
		return nil, err
	}
	unassigned, err := e.finder.FindUnassigned(ctx, limit)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(pending)+len(unassigned))
	ids := make([]string, 0, limit)
	for _, id := range append(pending, unassigned...) {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
		if len(ids) == limit {
			break
		}
	}
	return ids, nil
}

// sweepOne assigns a single order, converting a panic in the flow into an
// error so one poisoned record cannot kill the whole sweep.
func (e *Engine) sweepOne(ctx context.Context, orderID string, candidates []string) (assigned bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	outcome, err := e.AssignOrder(ctx, orderID, candidates, enums.AssignmentSourceSweep)
	if err != nil {
		return false, err
	}
	return outcome.Assigned, nil
}

// dispatchAsync fires the customer and agent notifications for a committed
// assignment and records the outcome on the order. Failures are logged and
// recorded, never propagated; the assignment already happened.
func (e *Engine) dispatchAsync(orderID, agentID string) {
	e.notifyWG.Add(1)
	go func() {
		defer e.notifyWG.Done()

		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		logCtx := e.logg.WithAgentID(e.logg.WithOrderID(ctx, orderID), agentID)

		doc, err := e.store.GetDocument(ctx, orderID)
		if err != nil {
			e.logg.Error(logCtx, "load order for notification failed", err)
			doc = &orderstore.Document{ID: orderID}
		}

		agentName := "your assigned agent"
		var agentRecipient string
		if profile, err := e.directory.Get(ctx, agentID); err == nil {
			agentName = profile.Name
			if profile.Phone != nil {
				agentRecipient = *profile.Phone
			}
		} else {
			e.logg.Error(logCtx, "agent profile lookup for notification failed", err)
		}

		outcome := types.NotificationOutcome{DispatchedAt: e.now().UTC()}

		customerMsg := notify.Message{
			OrderID:     orderID,
			Destination: notify.DestinationCustomer,
			Body:        notify.CustomerAssignedBody(agentName),
		}
		if doc.CustomerPhone != nil {
			customerMsg.Recipient = *doc.CustomerPhone
		}
		if id, err := e.dispatcher.Send(ctx, customerMsg); err != nil {
			e.metrics.IncNotificationFailure(notify.DestinationCustomer)
			e.logg.Error(logCtx, "customer notification failed", err)
			msg := err.Error()
			outcome.CustomerError = &msg
		} else {
			outcome.CustomerMessageID = &id
		}

		agentMsg := notify.Message{
			OrderID:     orderID,
			Destination: notify.DestinationAgent,
			Recipient:   agentRecipient,
			Body:        notify.AgentAssignedBody(orderID, doc.CustomerName),
		}
		if id, err := e.dispatcher.Send(ctx, agentMsg); err != nil {
			e.metrics.IncNotificationFailure(notify.DestinationAgent)
			e.logg.Error(logCtx, "agent notification failed", err)
			msg := err.Error()
			outcome.AgentError = &msg
		} else {
			outcome.AgentMessageID = &id
		}

		if err := e.store.WriteNotificationOutcome(ctx, orderID, outcome); err != nil {
			e.logg.Error(logCtx, "record notification outcome failed", err)
		}
	}()
}

// dispatchPendingNotice tells the customer the order was received while it
// waits for an agent. The message never names an agent.
func (e *Engine) dispatchPendingNotice(orderID string) {
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	logCtx := e.logg.WithOrderID(ctx, orderID)

	msg := notify.Message{
		OrderID:     orderID,
		Destination: notify.DestinationCustomer,
		Body:        notify.CustomerPendingBody(),
	}
	if doc, err := e.store.GetDocument(ctx, orderID); err == nil && doc.CustomerPhone != nil {
		msg.Recipient = *doc.CustomerPhone
	}

	outcome := types.NotificationOutcome{DispatchedAt: e.now().UTC()}
	if id, err := e.dispatcher.Send(ctx, msg); err != nil {
		e.metrics.IncNotificationFailure(notify.DestinationCustomer)
		e.logg.Error(logCtx, "pending notice failed", err)
		errMsg := err.Error()
		outcome.CustomerError = &errMsg
	} else {
		outcome.CustomerMessageID = &id
	}
	if err := e.store.WriteNotificationOutcome(ctx, orderID, outcome); err != nil {
		e.logg.Error(logCtx, "record notification outcome failed", err)
	}
}
