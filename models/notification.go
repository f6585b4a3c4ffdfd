package models

import "time"

// Notification holds the structure for the notification collection in
// mongo. Notifications belong to exactly one user; only the read flag
// ever changes after insert.
type Notification struct {
	ID        string            `json:"_id" bson:"_id"`
	UserID    string            `json:"userID" bson:"userID"`
	Type      string            `json:"type" bson:"type"`
	Title     string            `json:"title" bson:"title"`
	Body      string            `json:"body" bson:"body"`
	IsRead    bool              `json:"isRead" bson:"isRead"`
	CreatedAt time.Time         `json:"createdAt" bson:"createdAt"`
	Metadata  map[string]string `json:"metadata,omitempty" bson:"metadata,omitempty"`
}

// NotificationCounter holds the maintained per-user unread counter so
// dashboards can poll unread counts without scanning the collection
type NotificationCounter struct {
	UserID string `json:"_id" bson:"_id"`
	Unread int64  `json:"unread" bson:"unread"`
}
