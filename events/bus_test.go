package events_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sunshine050/emergency-project-sub001/events"
	"github.com/Sunshine050/emergency-project-sub001/models"
)

func collect(ch <-chan models.Event) []models.Event {
	var out []models.Event
	for {
		select {
		case evt := <-ch:
			out = append(out, evt)
		default:
			return out
		}
	}
}

func TestPublishScoping(t *testing.T) {
	bus := events.NewBus()

	centerCh, unsubCenter := bus.Subscribe("u-ec", "ec-1", models.RoleEmergencyCenter)
	defer unsubCenter()
	hospitalCh, unsubHospital := bus.Subscribe("u-h1", "h1", models.RoleHospital)
	defer unsubHospital()
	rescueCh, unsubRescue := bus.Subscribe("u-r1", "r1", models.RoleRescueTeam)
	defer unsubRescue()

	// org-scoped case.status: assigned org plus every center session
	bus.Publish(models.Event{
		Kind:  models.EventCaseStatus,
		Scope: models.EventScope{OrganizationIDs: []string{"h1"}},
	})
	// user-scoped notification: exactly one recipient
	bus.Publish(models.Event{
		Kind:  models.EventNotificationCreated,
		Scope: models.EventScope{UserID: "u-r1"},
	})
	// broadcast stats
	bus.Publish(models.Event{
		Kind:  models.EventStatsUpdated,
		Scope: models.EventScope{All: true},
	})

	centerEvents := collect(centerCh)
	assert.Len(t, centerEvents, 2)
	assert.Equal(t, models.EventCaseStatus, centerEvents[0].Kind)
	assert.Equal(t, models.EventStatsUpdated, centerEvents[1].Kind)

	hospitalEvents := collect(hospitalCh)
	assert.Len(t, hospitalEvents, 2)
	assert.Equal(t, models.EventCaseStatus, hospitalEvents[0].Kind)
	assert.Equal(t, models.EventStatsUpdated, hospitalEvents[1].Kind)

	rescueEvents := collect(rescueCh)
	assert.Len(t, rescueEvents, 2)
	assert.Equal(t, models.EventNotificationCreated, rescueEvents[0].Kind)
	assert.Equal(t, models.EventStatsUpdated, rescueEvents[1].Kind)
}

// A user-scoped event is private even to center sessions; center
// visibility widens case.status only.
func TestCenterDoesNotSeeForeignNotifications(t *testing.T) {
	bus := events.NewBus()
	centerCh, unsub := bus.Subscribe("u-ec", "ec-1", models.RoleEmergencyCenter)
	defer unsub()

	bus.Publish(models.Event{
		Kind:  models.EventNotificationCreated,
		Scope: models.EventScope{UserID: "u-h1"},
	})
	assert.Empty(t, collect(centerCh))
}

func TestPublishSetsTimestamp(t *testing.T) {
	bus := events.NewBus()
	ch, unsub := bus.Subscribe("u1", "o1", models.RoleHospital)
	defer unsub()

	bus.Publish(models.Event{Kind: models.EventStatsUpdated, Scope: models.EventScope{All: true}})
	evt := <-ch
	assert.False(t, evt.Timestamp.IsZero())
}

func TestUnsubscribe(t *testing.T) {
	bus := events.NewBus()
	ch, unsub := bus.Subscribe("u1", "o1", models.RoleHospital)
	assert.Equal(t, 1, bus.SubscriberCount())

	unsub()
	assert.Equal(t, 0, bus.SubscriberCount())

	_, open := <-ch
	assert.False(t, open, "unsubscribe should close the channel")

	// idempotent, second call must not panic on the closed channel
	unsub()
	assert.Equal(t, 0, bus.SubscriberCount())

	// publishing to an empty bus is a no-op
	bus.Publish(models.Event{Kind: models.EventStatsUpdated, Scope: models.EventScope{All: true}})
}

// A subscriber that stops reading loses events instead of stalling the
// publisher. The channel buffer absorbs a burst; everything past it is
// dropped.
func TestSlowSubscriberDrops(t *testing.T) {
	bus := events.NewBus()
	ch, unsub := bus.Subscribe("u1", "o1", models.RoleHospital)
	defer unsub()

	const burst = 100
	for i := 0; i < burst; i++ {
		bus.Publish(models.Event{Kind: models.EventStatsUpdated, Scope: models.EventScope{All: true}})
	}

	delivered := collect(ch)
	assert.NotEmpty(t, delivered)
	assert.Less(t, len(delivered), burst)
}

// Events from a single publishing goroutine arrive in publish order.
func TestPerPublisherOrdering(t *testing.T) {
	bus := events.NewBus()
	ch, unsub := bus.Subscribe("u1", "o1", models.RoleHospital)
	defer unsub()

	for i := 0; i < 10; i++ {
		bus.Publish(models.Event{
			Kind:    models.EventCaseStatus,
			Scope:   models.EventScope{OrganizationIDs: []string{"o1"}},
			Payload: i,
		})
	}

	got := collect(ch)
	assert.Len(t, got, 10)
	for i, evt := range got {
		assert.Equal(t, i, evt.Payload)
	}
}
