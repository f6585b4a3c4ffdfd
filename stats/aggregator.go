package stats

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"

	"github.com/Sunshine050/emergency-project-sub001/databases"
	"github.com/Sunshine050/emergency-project-sub001/events"
	"github.com/Sunshine050/emergency-project-sub001/models"
)

const (
	defaultDebounce     = 250 * time.Millisecond
	defaultQueryTimeout = 10 * time.Second
)

// Aggregator recomputes dashboard counters whenever a case or capacity
// record changes and republishes stats.updated. Mutation bursts are
// coalesced: Invalidate arms a single timer, and notifications landing
// while it is armed share the same recompute-and-publish cycle.
type Aggregator struct {
	cases        databases.CaseDatabase
	orgs         databases.OrganizationDatabase
	bus          *events.Bus
	debounce     time.Duration
	queryTimeout time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// New creates an aggregator publishing to bus with the given debounce
// window. A zero window falls back to the default.
func New(cases databases.CaseDatabase, orgs databases.OrganizationDatabase, bus *events.Bus, debounce time.Duration) *Aggregator {
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Aggregator{
		cases:        cases,
		orgs:         orgs,
		bus:          bus,
		debounce:     debounce,
		queryTimeout: defaultQueryTimeout,
	}
}

// Invalidate schedules a recompute. Calls arriving while one is already
// pending collapse into it.
func (a *Aggregator) Invalidate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		return
	}
	a.timer = time.AfterFunc(a.debounce, a.recomputeAndPublish)
}

// Close drops any pending recompute
func (a *Aggregator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

func (a *Aggregator) recomputeAndPublish() {
	a.mu.Lock()
	a.timer = nil
	a.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), a.queryTimeout)
	defer cancel()

	snapshot, err := a.Snapshot(ctx)
	if err != nil {
		zap.S().Errorw("failed to recompute dashboard stats", "error", err)
		return
	}

	a.bus.Publish(models.Event{
		Kind:    models.EventStatsUpdated,
		Scope:   models.EventScope{All: true},
		Payload: snapshot,
	})
}

// Snapshot computes the current dashboard stats on demand. Used both by
// the publish cycle and by the gateway's catch-up snapshot.
func (a *Aggregator) Snapshot(ctx context.Context) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{ComputedAt: time.Now().UTC()}

	counts := []struct {
		filter bson.M
		dest   *int64
	}{
		{bson.M{}, &stats.TotalCases},
		{bson.M{"case.status": models.StatusPending}, &stats.PendingCases},
		{bson.M{"case.status": bson.M{"$in": []models.CaseStatus{models.StatusAssigned, models.StatusInProgress}}}, &stats.ActiveCases},
		{bson.M{"case.status": models.StatusCompleted}, &stats.CompletedCases},
		{bson.M{"case.status": models.StatusCancelled}, &stats.CancelledCases},
		{bson.M{"case.severity": 4, "case.status": bson.M{"$nin": []models.CaseStatus{models.StatusCompleted, models.StatusCancelled}}}, &stats.CriticalCases},
	}
	for _, c := range counts {
		n, err := a.cases.CountDocuments(ctx, c.filter)
		if err != nil {
			return nil, err
		}
		*c.dest = n
	}

	avg, err := a.averageResponseSeconds(ctx)
	if err != nil {
		return nil, err
	}
	stats.AverageResponseSeconds = avg

	orgs, err := a.orgs.Find(ctx, bson.M{"organization.active": true})
	if err != nil {
		return nil, err
	}
	for _, org := range orgs {
		switch org.Details.Role {
		case models.RoleHospital:
			stats.ConnectedHospitals++
			stats.AvailableBeds += int64(org.Details.Capacity.AvailableBeds)
		case models.RoleRescueTeam:
			stats.AvailableTeams += int64(org.Details.Capacity.AvailableTeams)
		}
	}

	return stats, nil
}

// averageResponseSeconds averages reportedAt-to-completion time over
// completed cases
func (a *Aggregator) averageResponseSeconds(ctx context.Context) (float64, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"case.status": models.StatusCompleted}},
		{"$project": bson.M{
			"responseMillis": bson.M{"$subtract": []interface{}{"$case.updatedAt", "$case.reportedAt"}},
		}},
		{"$group": bson.M{
			"_id":       nil,
			"avgMillis": bson.M{"$avg": "$responseMillis"},
		}},
	}
	cursor, err := a.cases.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}

	var results []struct {
		AvgMillis float64 `bson:"avgMillis"`
	}
	if err := cursor.Decode(&results); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].AvgMillis / 1000, nil
}
