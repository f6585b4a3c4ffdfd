package dispatch

import "errors"

// Reason is the stable machine-readable code attached to a rejection
type Reason string

// Rejection reasons surfaced to callers
const (
	ReasonInvalidTransition Reason = "invalid_transition"
	ReasonForbidden         Reason = "forbidden"
	ReasonNotFound          Reason = "not_found"
	ReasonConflict          Reason = "conflict"
	ReasonTimeout           Reason = "timeout"
	ReasonValidation        Reason = "validation_error"
)

// Rejection is an expected business outcome, returned as an ordinary
// error value. Only infrastructure failures are converted into the
// timeout reason; nothing here is a panic path.
type Rejection struct {
	Reason  Reason
	Message string
}

func (r *Rejection) Error() string {
	return string(r.Reason) + ": " + r.Message
}

// NewRejection builds a rejection with the given reason and message
func NewRejection(reason Reason, message string) *Rejection {
	return &Rejection{Reason: reason, Message: message}
}

// AsRejection unwraps err into a Rejection if it is one
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
