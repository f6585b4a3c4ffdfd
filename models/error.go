package models

// ErrorMessageResponse returns the error message response struct
type ErrorMessageResponse struct {
	Response MessageError
}

// MessageError contains the inner details for the error message response
type MessageError struct {
	Message string
	Error   string
}

// RejectionResponse is the body returned when an action endpoint rejects
// a request for a business reason. Reason is stable and machine-readable,
// Message is for humans.
type RejectionResponse struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// HealthCheckResponse returns the health check response struct
type HealthCheckResponse struct {
	Alive bool `json:"alive"`
}
