package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors shared by services, repositories and controllers.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTransition is returned when an operation is not legal in the group's current state.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrDrawAlreadyPerformed is returned when positions are already assigned for a group.
	ErrDrawAlreadyPerformed = errors.New("draw already performed")
	// ErrMembershipCountMismatch is returned when the membership count does not equal the group duration.
	ErrMembershipCountMismatch = errors.New("membership count does not match duration")
	// ErrPaymentsIncomplete is returned when a turn cannot advance because contributions are outstanding.
	ErrPaymentsIncomplete = errors.New("payments incomplete")
	ErrPermissionDenied   = errors.New("permission denied")

	ErrAlreadyMember = errors.New("already a member")
	ErrNotMember     = errors.New("not a member of the group")
	// ErrDeliveryExists is returned when a delivery for the same group period already exists.
	ErrDeliveryExists = errors.New("delivery already exists for period")
	// ErrContributionOutOfOrder is returned when confirming a period while an earlier one is unconfirmed.
	ErrContributionOutOfOrder = errors.New("earlier period not confirmed")
)

// TransitionError describes a rejected lifecycle operation. It matches ErrInvalidTransition.
type TransitionError struct {
	GroupID string
	Op      string
	From    GroupState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s: cannot %s group %s in state %s", ErrInvalidTransition, e.Op, e.GroupID, e.From)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// PaymentsIncompleteError lists the members whose contribution for Period is not confirmed.
type PaymentsIncompleteError struct {
	GroupID     string
	Period      int
	Outstanding []string
}

func (e *PaymentsIncompleteError) Error() string {
	return fmt.Sprintf("%s: group %s period %d outstanding [%s]", ErrPaymentsIncomplete, e.GroupID, e.Period, strings.Join(e.Outstanding, ", "))
}

func (e *PaymentsIncompleteError) Unwrap() error { return ErrPaymentsIncomplete }
