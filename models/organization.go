package models

// Role is the fixed role of an organization and of every user in it
type Role string

// Organization roles
const (
	RoleEmergencyCenter Role = "EMERGENCY_CENTER"
	RoleHospital        Role = "HOSPITAL"
	RoleRescueTeam      Role = "RESCUE_TEAM"
)

// Organization holds the structure for the organization collection in mongo.
// Organizations are owned by the identity subsystem and read-only here.
type Organization struct {
	ID      string              `json:"_id" bson:"_id"`
	Details OrganizationDetails `json:"organization" bson:"organization"`
}

// OrganizationDetails holds the inner organization structure as defined
// in the organization collection in mongo
type OrganizationDetails struct {
	Name     string   `json:"name" bson:"name"`
	Role     Role     `json:"role" bson:"role"`
	Active   bool     `json:"active" bson:"active"`
	Capacity Capacity `json:"capacity" bson:"capacity"`
}

// Capacity holds the resource counts used by the stats aggregator
type Capacity struct {
	TotalBeds      int `json:"totalBeds" bson:"totalBeds"`
	AvailableBeds  int `json:"availableBeds" bson:"availableBeds"`
	TeamMembers    int `json:"teamMembers" bson:"teamMembers"`
	AvailableTeams int `json:"availableTeams" bson:"availableTeams"`
}
