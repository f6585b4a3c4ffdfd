package models

import "time"

// DashboardStats holds the derived aggregate counters pushed to every
// dashboard. It is recomputed, never written by an actor.
type DashboardStats struct {
	TotalCases             int64     `json:"totalCases" bson:"totalCases"`
	PendingCases           int64     `json:"pendingCases" bson:"pendingCases"`
	ActiveCases            int64     `json:"activeCases" bson:"activeCases"`
	CompletedCases         int64     `json:"completedCases" bson:"completedCases"`
	CancelledCases         int64     `json:"cancelledCases" bson:"cancelledCases"`
	CriticalCases          int64     `json:"criticalCases" bson:"criticalCases"`
	AverageResponseSeconds float64   `json:"averageResponseSeconds" bson:"averageResponseSeconds"`
	ConnectedHospitals     int64     `json:"connectedHospitals" bson:"connectedHospitals"`
	AvailableBeds          int64     `json:"availableBeds" bson:"availableBeds"`
	AvailableTeams         int64     `json:"availableTeams" bson:"availableTeams"`
	ComputedAt             time.Time `json:"computedAt" bson:"computedAt"`
}
