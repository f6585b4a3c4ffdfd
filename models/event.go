package models

import "time"

// EventKind identifies the type of a realtime event
type EventKind string

// The three event kinds fanned out to connected dashboards
const (
	EventCaseStatus          EventKind = "case.status"
	EventNotificationCreated EventKind = "notification.created"
	EventStatsUpdated        EventKind = "stats.updated"

	// EventSnapshot is the one-time catch-up message sent to a session
	// right after its handshake, never published on the bus
	EventSnapshot EventKind = "snapshot"
)

// EventScope restricts which sessions a published event is delivered to.
// All wins over the other fields. EMERGENCY_CENTER sessions additionally
// receive every case.status event regardless of organization scope.
type EventScope struct {
	All             bool     `json:"all"`
	OrganizationIDs []string `json:"organizationIDs,omitempty"`
	UserID          string   `json:"userID,omitempty"`
}

// Event is a single self-describing realtime message
type Event struct {
	Kind      EventKind   `json:"kind"`
	Scope     EventScope  `json:"-"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SnapshotPayload is the payload of the catch-up snapshot message
type SnapshotPayload struct {
	Stats         *DashboardStats `json:"stats"`
	Notifications []Notification  `json:"notifications"`
	UnreadCount   int64           `json:"unreadCount"`
}

// CaseStatusPayload is the payload of a case.status event
type CaseStatusPayload struct {
	CaseID     string     `json:"caseID"`
	Status     CaseStatus `json:"status"`
	Severity   int        `json:"severity"`
	AssignedTo string     `json:"assignedTo,omitempty"`
}
