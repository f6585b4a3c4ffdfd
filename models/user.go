package models

import "time"

// User holds the structure for the user collection in mongo
type User struct {
	ID      string      `json:"_id" bson:"_id"`
	Details UserDetails `json:"user" bson:"user"`
}

// UserDetails holds the inner user structure as defined in the user
// collection in mongo. Role is copied from the user's organization at
// provision time so the middleware can resolve an actor with one read.
type UserDetails struct {
	Name           string    `json:"name" bson:"name"`
	Email          string    `json:"email" bson:"email"`
	Password       string    `json:"password" bson:"password"`
	OrganizationID string    `json:"organizationID" bson:"organizationID"`
	Role           Role      `json:"role" bson:"role"`
	CreatedAt      time.Time `json:"createdAt" bson:"createdAt"`
}
