// Package lifecycle is the single source of truth for case status semantics:
// which transitions are legal, who may drive them, and which statuses count
// as handled. Views and handlers must not re-derive any of this.
package lifecycle

import (
	"errors"

	"go-lifeline/types"
)

var (
	// ErrInvalidTransition rejects a status change the current state does not
	// permit. The record is left unchanged.
	ErrInvalidTransition = errors.New("lifecycle: invalid status transition")

	// ErrPermissionDenied rejects a caller not authorized for the transition.
	ErrPermissionDenied = errors.New("lifecycle: permission denied")
)

// claimable lists the states a responder may claim a case from.
var claimable = map[types.Status]bool{
	types.StatusPending:       true,
	types.StatusInvestigating: true,
	types.StatusApproved:      true,
}

// green statuses are the handled ones; the coordinator toggle flips a case
// between this set and pending.
var green = map[types.Status]bool{
	types.StatusApproved:  true,
	types.StatusAccepted:  true,
	types.StatusTraveling: true,
	types.StatusCompleted: true,
}

// IsGreen reports whether the status counts as handled.
func IsGreen(s types.Status) bool { return green[s] }

// IsResolved reports whether the case reached its terminal state.
func IsResolved(s types.Status) bool { return s == types.StatusCompleted }

// Claim validates pending/investigating/approved → accepted. A case that
// already has a responder bound may not be claimed again; the coordinator
// toggle is the only way back.
func Claim(c *types.Case, p types.Principal) error {
	if p.Role != types.RoleResponder {
		return ErrPermissionDenied
	}
	if !claimable[c.Status] || c.ResponderID != "" {
		return ErrInvalidTransition
	}
	return nil
}

// Depart validates accepted → traveling. Only the bound responder drives it.
func Depart(c *types.Case, p types.Principal) error {
	if err := requireBoundResponder(c, p); err != nil {
		return err
	}
	if c.Status != types.StatusAccepted {
		return ErrInvalidTransition
	}
	return nil
}

// Arrive validates traveling → completed. Only the bound responder drives it.
func Arrive(c *types.Case, p types.Principal) error {
	if err := requireBoundResponder(c, p); err != nil {
		return err
	}
	if c.Status != types.StatusTraveling {
		return ErrInvalidTransition
	}
	return nil
}

// Toggle is the coordinator override: a green case resets to pending
// (clearing the responder binding), anything else is force-approved. It
// bypasses the forward path and is legal from every state.
func Toggle(c *types.Case, p types.Principal) (types.Status, error) {
	if p.Role != types.RoleCoordinator {
		return "", ErrPermissionDenied
	}
	if IsGreen(c.Status) {
		return types.StatusPending, nil
	}
	return types.StatusApproved, nil
}

// Party verifies the caller is one of the case's two conversation parties:
// the filing reporter or the bound responder. Everyone else, coordinators
// included, is denied; the conversation belongs to those two.
func Party(c *types.Case, p types.Principal) error {
	switch p.Role {
	case types.RoleReporter:
		if p.ID != c.ReporterID {
			return ErrPermissionDenied
		}
	case types.RoleResponder:
		if p.ID != c.ResponderID {
			return ErrPermissionDenied
		}
	default:
		return ErrPermissionDenied
	}
	return nil
}

// Delete is coordinator-only.
func Delete(p types.Principal) error {
	if p.Role != types.RoleCoordinator {
		return ErrPermissionDenied
	}
	return nil
}

func requireBoundResponder(c *types.Case, p types.Principal) error {
	if p.Role != types.RoleResponder || p.ID != c.ResponderID {
		return ErrPermissionDenied
	}
	return nil
}
