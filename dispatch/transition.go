package dispatch

import (
	"fmt"

	"github.com/Sunshine050/emergency-project-sub001/models"
)

// Action is a requested case transition
type Action string

// Case actions
const (
	ActionAssign   Action = "assign"
	ActionStart    Action = "start"
	ActionComplete Action = "complete"
	ActionCancel   Action = "cancel"
)

// Transition is the pure case state machine. Given the current status,
// the acting role and the requested action it returns the next status
// or a rejection. Role-vs-assignee checks that need the case document
// (is the actor the assigned organization) belong to the coordinator;
// this function only knows roles and states.
//
// Reapplying an action that already took effect is rejected rather than
// absorbed, so a retried client request can never fan out duplicate
// notifications.
func Transition(current models.CaseStatus, role models.Role, action Action, hasTarget bool) (models.CaseStatus, error) {
	switch action {
	case ActionAssign:
		if role != models.RoleEmergencyCenter {
			return "", NewRejection(ReasonForbidden, "only the emergency center can assign cases")
		}
		if !hasTarget {
			return "", NewRejection(ReasonValidation, "assign requires a target organization id")
		}
		if current == models.StatusAssigned || current == models.StatusInProgress {
			return "", NewRejection(ReasonInvalidTransition, "case is already assigned")
		}
		if current != models.StatusPending {
			return "", invalidFor(current, action)
		}
		return models.StatusAssigned, nil

	case ActionStart:
		if role != models.RoleHospital && role != models.RoleRescueTeam {
			return "", NewRejection(ReasonForbidden, "only the assigned organization can start a case")
		}
		if current != models.StatusAssigned {
			return "", invalidFor(current, action)
		}
		return models.StatusInProgress, nil

	case ActionComplete:
		if role != models.RoleHospital && role != models.RoleRescueTeam {
			return "", NewRejection(ReasonForbidden, "only the assigned organization can complete a case")
		}
		if current != models.StatusInProgress {
			return "", invalidFor(current, action)
		}
		return models.StatusCompleted, nil

	case ActionCancel:
		if role != models.RoleEmergencyCenter {
			return "", NewRejection(ReasonForbidden, "only the emergency center can cancel cases")
		}
		if current.Terminal() {
			return "", invalidFor(current, action)
		}
		return models.StatusCancelled, nil
	}
	return "", NewRejection(ReasonValidation, fmt.Sprintf("unknown action %q", action))
}

// ActionForStatus maps a requested target status onto the action that
// reaches it, for the generic update-status entry point
func ActionForStatus(status models.CaseStatus) (Action, error) {
	switch status {
	case models.StatusInProgress:
		return ActionStart, nil
	case models.StatusCompleted:
		return ActionComplete, nil
	}
	return "", NewRejection(ReasonValidation, fmt.Sprintf("status %q cannot be requested directly", status))
}

func invalidFor(current models.CaseStatus, action Action) *Rejection {
	return NewRejection(ReasonInvalidTransition, fmt.Sprintf("action %q is not legal from state %q", action, current))
}
