package stats_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Sunshine050/emergency-project-sub001/databases"
	"github.com/Sunshine050/emergency-project-sub001/events"
	"github.com/Sunshine050/emergency-project-sub001/models"
	"github.com/Sunshine050/emergency-project-sub001/stats"
)

// fakeCaseDB answers the aggregator's count queries from a fixed table
// keyed on the filter shape
type fakeCaseDB struct {
	total     int64
	pending   int64
	active    int64
	completed int64
	cancelled int64
	critical  int64
	avgJSON   string
}

func (f *fakeCaseDB) CountDocuments(_ context.Context, filter interface{}, _ ...*options.CountOptions) (int64, error) {
	m := filter.(bson.M)
	if len(m) == 0 {
		return f.total, nil
	}
	if _, ok := m["case.severity"]; ok {
		return f.critical, nil
	}
	switch status := m["case.status"].(type) {
	case models.CaseStatus:
		switch status {
		case models.StatusPending:
			return f.pending, nil
		case models.StatusCompleted:
			return f.completed, nil
		case models.StatusCancelled:
			return f.cancelled, nil
		}
	case bson.M:
		return f.active, nil
	}
	return 0, nil
}

func (f *fakeCaseDB) Aggregate(context.Context, interface{}) (databases.CursorHelper, error) {
	return jsonCursor(f.avgJSON), nil
}

func (f *fakeCaseDB) FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.EmergencyCase, error) {
	return nil, nil
}

func (f *fakeCaseDB) Find(context.Context, interface{}, ...*options.FindOptions) ([]models.EmergencyCase, error) {
	return nil, nil
}

func (f *fakeCaseDB) InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (databases.InsertOneResultHelper, error) {
	return nil, nil
}

func (f *fakeCaseDB) CompareAndSwap(context.Context, string, int64, models.CaseDetails) (bool, error) {
	return false, nil
}

// jsonCursor decodes a canned JSON document list into the caller's slice
type jsonCursor string

func (c jsonCursor) Decode(v interface{}) error {
	if c == "" {
		return nil
	}
	return json.Unmarshal([]byte(c), v)
}

type fakeOrgDB struct {
	orgs []models.Organization
}

func (f *fakeOrgDB) Find(context.Context, interface{}, ...*options.FindOptions) ([]models.Organization, error) {
	return f.orgs, nil
}

func (f *fakeOrgDB) FindOne(context.Context, interface{}, ...*options.FindOneOptions) (*models.Organization, error) {
	return nil, nil
}

func (f *fakeOrgDB) CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error) {
	return int64(len(f.orgs)), nil
}

func hospital(beds int) models.Organization {
	return models.Organization{Details: models.OrganizationDetails{
		Role:     models.RoleHospital,
		Active:   true,
		Capacity: models.Capacity{AvailableBeds: beds},
	}}
}

func rescueTeam(teams int) models.Organization {
	return models.Organization{Details: models.OrganizationDetails{
		Role:     models.RoleRescueTeam,
		Active:   true,
		Capacity: models.Capacity{AvailableTeams: teams},
	}}
}

func TestSnapshot(t *testing.T) {
	caseDB := &fakeCaseDB{
		total:     20,
		pending:   4,
		active:    7,
		completed: 6,
		cancelled: 3,
		critical:  2,
		avgJSON:   `[{"avgMillis": 93000}]`,
	}
	orgDB := &fakeOrgDB{orgs: []models.Organization{hospital(12), hospital(3), rescueTeam(5)}}
	agg := stats.New(caseDB, orgDB, events.NewBus(), time.Millisecond)

	snapshot, err := agg.Snapshot(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(20), snapshot.TotalCases)
	assert.Equal(t, int64(4), snapshot.PendingCases)
	assert.Equal(t, int64(7), snapshot.ActiveCases)
	assert.Equal(t, int64(6), snapshot.CompletedCases)
	assert.Equal(t, int64(3), snapshot.CancelledCases)
	assert.Equal(t, int64(2), snapshot.CriticalCases)
	assert.Equal(t, float64(93), snapshot.AverageResponseSeconds)
	assert.Equal(t, int64(2), snapshot.ConnectedHospitals)
	assert.Equal(t, int64(15), snapshot.AvailableBeds)
	assert.Equal(t, int64(5), snapshot.AvailableTeams)
	assert.False(t, snapshot.ComputedAt.IsZero())
}

func TestSnapshotNoCompletedCases(t *testing.T) {
	agg := stats.New(&fakeCaseDB{avgJSON: `[]`}, &fakeOrgDB{}, events.NewBus(), time.Millisecond)

	snapshot, err := agg.Snapshot(context.Background())
	assert.NoError(t, err)
	assert.Zero(t, snapshot.AverageResponseSeconds)
}

// A burst of invalidations collapses into a single recompute and a
// single stats.updated broadcast.
func TestInvalidateDebounces(t *testing.T) {
	bus := events.NewBus()
	ch, unsub := bus.Subscribe("u1", "o1", models.RoleHospital)
	defer unsub()

	agg := stats.New(&fakeCaseDB{total: 1}, &fakeOrgDB{}, bus, 30*time.Millisecond)
	defer agg.Close()

	for i := 0; i < 25; i++ {
		agg.Invalidate()
	}

	select {
	case evt := <-ch:
		assert.Equal(t, models.EventStatsUpdated, evt.Kind)
		payload := evt.Payload.(*models.DashboardStats)
		assert.Equal(t, int64(1), payload.TotalCases)
	case <-time.After(time.Second):
		t.Fatal("expected a stats.updated event")
	}

	// nothing else may arrive from the same burst
	select {
	case evt := <-ch:
		t.Fatalf("unexpected extra event %v", evt.Kind)
	case <-time.After(100 * time.Millisecond):
	}

	// a fresh invalidation after the quiet period publishes again
	agg.Invalidate()
	select {
	case evt := <-ch:
		assert.Equal(t, models.EventStatsUpdated, evt.Kind)
	case <-time.After(time.Second):
		t.Fatal("expected a second stats.updated event")
	}
}

func TestCloseDropsPendingRecompute(t *testing.T) {
	bus := events.NewBus()
	ch, unsub := bus.Subscribe("u1", "o1", models.RoleHospital)
	defer unsub()

	agg := stats.New(&fakeCaseDB{}, &fakeOrgDB{}, bus, 20*time.Millisecond)
	agg.Invalidate()
	agg.Close()

	select {
	case evt := <-ch:
		t.Fatalf("unexpected event after Close: %v", evt.Kind)
	case <-time.After(100 * time.Millisecond):
	}
}
