package models

// Actor is an authenticated user acting on behalf of an organization
// with a fixed role. Resolved by the auth middleware; the core trusts it.
type Actor struct {
	UserID         string `json:"userID"`
	OrganizationID string `json:"organizationID"`
	Role           Role   `json:"role"`
}
