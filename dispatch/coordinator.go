package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/Sunshine050/emergency-project-sub001/databases"
	"github.com/Sunshine050/emergency-project-sub001/events"
	"github.com/Sunshine050/emergency-project-sub001/models"
)

// casRetries bounds the optimistic-concurrency retry loop. A request
// that loses the version race this many times surfaces Conflict.
const casRetries = 3

// defaultQueryTimeout caps every store call issued by the coordinator
const defaultQueryTimeout = 10 * time.Second

// Invalidator is notified after every committed case mutation so the
// stats aggregator can recompute
type Invalidator interface {
	Invalidate()
}

// Coordinator orchestrates case transitions: it validates the actor,
// runs the state machine, persists the result with compare-and-swap,
// and emits derived notifications and events strictly after commit.
type Coordinator struct {
	Cases         databases.CaseDatabase
	Orgs          databases.OrganizationDatabase
	Users         databases.UserDatabase
	Notifications databases.NotificationDatabase
	Bus           *events.Bus
	Stats         Invalidator
	QueryTimeout  time.Duration

	// locks holds one mutex per case so the swap and the case.status
	// publish happen as a unit; events for a case always reach the bus
	// in commit order
	locks sync.Map
}

// NewCoordinator wires a coordinator with the default query timeout
func NewCoordinator(cases databases.CaseDatabase, orgs databases.OrganizationDatabase, users databases.UserDatabase, notifications databases.NotificationDatabase, bus *events.Bus, stats Invalidator) *Coordinator {
	return &Coordinator{
		Cases:         cases,
		Orgs:          orgs,
		Users:         users,
		Notifications: notifications,
		Bus:           bus,
		Stats:         stats,
		QueryTimeout:  defaultQueryTimeout,
	}
}

// AssignCase moves a PENDING case to ASSIGNED for the target
// organization. Emergency-center only. On success the target
// organization's users each get a "case assigned" notification and a
// case.status event is emitted.
func (c *Coordinator) AssignCase(ctx context.Context, caseID, organizationID string, actor models.Actor) (*models.EmergencyCase, error) {
	if organizationID == "" {
		return nil, NewRejection(ReasonValidation, "organizationId is required")
	}

	org, err := c.lookupOrganization(ctx, organizationID)
	if err != nil {
		return nil, err
	}
	if !org.Details.Active {
		return nil, NewRejection(ReasonValidation, "target organization is not active")
	}

	updated, err := c.applyTransition(ctx, caseID, actor, ActionAssign, organizationID)
	if err != nil {
		return nil, err
	}

	c.notifyOrganization(organizationID, "case_assigned", "Case assigned",
		fmt.Sprintf("Your organization has been assigned emergency case %s", caseID),
		map[string]string{"caseID": caseID})
	c.invalidateStats()
	return updated, nil
}

// CancelCase moves any non-terminal case to CANCELLED. Emergency-center
// only. The previously assigned organization, if any, is notified.
func (c *Coordinator) CancelCase(ctx context.Context, caseID string, actor models.Actor) (*models.EmergencyCase, error) {
	updated, err := c.applyTransition(ctx, caseID, actor, ActionCancel, "")
	if err != nil {
		return nil, err
	}

	if assignee := updated.Details.AssignedOrganizationID; assignee != "" {
		c.notifyOrganization(assignee, "case_cancelled", "Case cancelled",
			fmt.Sprintf("Emergency case %s has been cancelled by the dispatch center", caseID),
			map[string]string{"caseID": caseID})
	}
	c.invalidateStats()
	return updated, nil
}

// UpdateStatus is the generic entry point for start and complete. The
// actor must belong to the organization the case is assigned to.
func (c *Coordinator) UpdateStatus(ctx context.Context, caseID string, newStatus models.CaseStatus, actor models.Actor) (*models.EmergencyCase, error) {
	action, err := ActionForStatus(newStatus)
	if err != nil {
		return nil, err
	}

	updated, err := c.applyTransition(ctx, caseID, actor, action, "")
	if err != nil {
		return nil, err
	}

	c.invalidateStats()
	return updated, nil
}

// applyTransition runs the read-validate-write cycle under optimistic
// concurrency. Persistence commits before any event is published, and
// the per-case lock is held across both, so a session can never see
// transitions of one case out of commit order. A lost race against a
// writer outside this process is retried from a fresh read up to
// casRetries times.
func (c *Coordinator) applyTransition(ctx context.Context, caseID string, actor models.Actor, action Action, targetOrgID string) (*models.EmergencyCase, error) {
	unlock := c.lockCase(caseID)
	defer unlock()

	for attempt := 0; attempt < casRetries; attempt++ {
		current, err := c.lookupCase(ctx, caseID)
		if err != nil {
			return nil, err
		}

		// assignee check needs the document, so it lives here rather
		// than in the pure state machine
		if action == ActionStart || action == ActionComplete {
			if current.Details.AssignedOrganizationID != actor.OrganizationID {
				return nil, NewRejection(ReasonForbidden, "case is not assigned to your organization")
			}
		}

		next, err := Transition(current.Details.Status, actor.Role, action, targetOrgID != "")
		if err != nil {
			return nil, err
		}

		details := current.Details
		details.Status = next
		details.UpdatedAt = time.Now().UTC()
		if action == ActionAssign {
			details.AssignedOrganizationID = targetOrgID
		}
		// terminal states retain the last assignee for audit

		qctx, cancel := context.WithTimeout(ctx, c.queryTimeout())
		ok, err := c.Cases.CompareAndSwap(qctx, caseID, current.Version, details)
		cancel()
		if err != nil {
			return nil, c.storeFailure("compare-and-swap failed", err)
		}
		if ok {
			updated := *current
			updated.Details = details
			updated.Version = current.Version + 1
			c.publishStatus(&updated)
			return &updated, nil
		}

		zap.S().Debugw("case version moved, retrying transition",
			"caseID", caseID,
			"action", action,
			"attempt", attempt+1,
		)
	}
	return nil, NewRejection(ReasonConflict, "case was modified concurrently, re-read and retry")
}

// lockCase serializes transitions of a single case within this process
func (c *Coordinator) lockCase(caseID string) func() {
	v, _ := c.locks.LoadOrStore(caseID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// publishStatus emits the case.status event for a committed transition.
// Best-effort: the state change is already durable and is never rolled
// back.
func (c *Coordinator) publishStatus(updated *models.EmergencyCase) {
	scope := models.EventScope{}
	if updated.Details.AssignedOrganizationID != "" {
		scope.OrganizationIDs = []string{updated.Details.AssignedOrganizationID}
	}
	c.Bus.Publish(models.Event{
		Kind:  models.EventCaseStatus,
		Scope: scope,
		Payload: models.CaseStatusPayload{
			CaseID:     updated.ID,
			Status:     updated.Details.Status,
			Severity:   updated.Details.Severity,
			AssignedTo: updated.Details.AssignedOrganizationID,
		},
	})
}

func (c *Coordinator) invalidateStats() {
	if c.Stats != nil {
		c.Stats.Invalidate()
	}
}

// notifyOrganization appends one notification per user of the
// organization and publishes the matching notification.created events.
// Failures are logged and isolated per user; they never unwind the
// committed transition.
func (c *Coordinator) notifyOrganization(organizationID, notificationType, title, body string, metadata map[string]string) {
	ctx, cancel := context.WithTimeout(context.Background(), c.queryTimeout())
	defer cancel()

	users, err := c.Users.Find(ctx, bson.M{"user.organizationID": organizationID})
	if err != nil {
		zap.S().Errorw("failed to fetch organization users for notification",
			"organizationID", organizationID,
			"error", err,
		)
		return
	}

	for _, user := range users {
		notification := models.Notification{
			ID:        primitive.NewObjectID().Hex(),
			UserID:    user.ID,
			Type:      notificationType,
			Title:     title,
			Body:      body,
			IsRead:    false,
			CreatedAt: time.Now().UTC(),
			Metadata:  metadata,
		}
		if err := c.Notifications.Append(ctx, notification); err != nil {
			zap.S().Errorw("failed to append notification",
				"userID", user.ID,
				"error", err,
			)
			continue
		}
		c.Bus.Publish(models.Event{
			Kind:    models.EventNotificationCreated,
			Scope:   models.EventScope{UserID: user.ID},
			Payload: notification,
		})
	}
}

func (c *Coordinator) lookupCase(ctx context.Context, caseID string) (*models.EmergencyCase, error) {
	qctx, cancel := context.WithTimeout(ctx, c.queryTimeout())
	defer cancel()

	current, err := c.Cases.FindOne(qctx, bson.M{"_id": caseID})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NewRejection(ReasonNotFound, fmt.Sprintf("case %s not found", caseID))
		}
		return nil, c.storeFailure("failed to read case", err)
	}
	return current, nil
}

func (c *Coordinator) lookupOrganization(ctx context.Context, organizationID string) (*models.Organization, error) {
	qctx, cancel := context.WithTimeout(ctx, c.queryTimeout())
	defer cancel()

	org, err := c.Orgs.FindOne(qctx, bson.M{"_id": organizationID})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, NewRejection(ReasonNotFound, fmt.Sprintf("organization %s not found", organizationID))
		}
		return nil, c.storeFailure("failed to read organization", err)
	}
	return org, nil
}

// storeFailure logs an infrastructure failure and converts it into the
// retriable timeout rejection
func (c *Coordinator) storeFailure(message string, err error) error {
	zap.S().Errorw(message, "error", err)
	return NewRejection(ReasonTimeout, "store unresponsive, try again")
}

func (c *Coordinator) queryTimeout() time.Duration {
	if c.QueryTimeout > 0 {
		return c.QueryTimeout
	}
	return defaultQueryTimeout
}
