package models

import "time"

// CaseStatus is the lifecycle state of an emergency case
type CaseStatus string

// Case lifecycle states. COMPLETED and CANCELLED are terminal.
const (
	StatusPending    CaseStatus = "PENDING"
	StatusAssigned   CaseStatus = "ASSIGNED"
	StatusInProgress CaseStatus = "IN_PROGRESS"
	StatusCompleted  CaseStatus = "COMPLETED"
	StatusCancelled  CaseStatus = "CANCELLED"
)

// Terminal reports whether the status accepts no further transitions
func (s CaseStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CaseGrade is the triage grade assigned at intake
type CaseGrade string

// Triage grades, most to least urgent
const (
	GradeCritical  CaseGrade = "CRITICAL"
	GradeUrgent    CaseGrade = "URGENT"
	GradeNonUrgent CaseGrade = "NON_URGENT"
)

// EmergencyCase holds the structure for the case collection in mongo.
// Version is the optimistic-concurrency marker; every successful
// transition increments it.
type EmergencyCase struct {
	ID      string      `json:"_id" bson:"_id"`
	Details CaseDetails `json:"case" bson:"case"`
	Version int64       `json:"__v" bson:"__v"`
}

// CaseDetails holds the inner case structure as defined in the case
// collection in mongo
type CaseDetails struct {
	Status                 CaseStatus   `json:"status" bson:"status"`
	Severity               int          `json:"severity" bson:"severity"` // 1-4, 4 most critical
	Grade                  CaseGrade    `json:"grade" bson:"grade"`
	ReportedAt             time.Time    `json:"reportedAt" bson:"reportedAt"`
	Patient                Patient      `json:"patient" bson:"patient"`
	Location               CaseLocation `json:"location" bson:"location"`
	AssignedOrganizationID string       `json:"assignedOrganizationID" bson:"assignedOrganizationID"`
	Description            string       `json:"description" bson:"description"`
	Symptoms               []string     `json:"symptoms" bson:"symptoms"`
	CreatedAt              time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt              time.Time    `json:"updatedAt" bson:"updatedAt"`
}

// Patient holds the reported patient descriptor
type Patient struct {
	Name   string `json:"name" bson:"name"`
	Age    int    `json:"age" bson:"age"`
	Gender string `json:"gender" bson:"gender"`
}

// CaseLocation holds the reported incident location
type CaseLocation struct {
	Address   string  `json:"address" bson:"address"`
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}
