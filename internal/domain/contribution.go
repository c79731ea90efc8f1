package domain

import (
	"context"
	"time"
)

// ContributionState is the review state of a contribution.
type ContributionState string

const (
	ContributionPending   ContributionState = "pending"
	ContributionConfirmed ContributionState = "confirmed"
	ContributionRejected  ContributionState = "rejected"
)

// Contribution is one member's payment for one period.
// swagger:model Contribution
type Contribution struct {
	ID        string            `json:"id"`
	GroupID   string            `json:"group_id"`
	MemberID  string            `json:"member_id"`
	Period    int               `json:"period"`
	Amount    int64             `json:"amount"`
	State     ContributionState `json:"state"`
	PaidAt    *time.Time        `json:"paid_at,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// NewContribution returns a pending contribution. ID is typically set by the repository on create.
func NewContribution(groupID, memberID string, period int, amount int64, now time.Time) *Contribution {
	return &Contribution{
		GroupID:   groupID,
		MemberID:  memberID,
		Period:    period,
		Amount:    amount,
		State:     ContributionPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy of c.
func (c *Contribution) Clone() *Contribution {
	if c == nil {
		return nil
	}
	out := *c
	if c.PaidAt != nil {
		t := *c.PaidAt
		out.PaidAt = &t
	}
	return &out
}

// ContributionService manages member payments per period.
type ContributionService interface {
	// Submit records a pending contribution for the actor. Returns (contribution, created, err):
	// created is false when a pending or confirmed contribution already exists for the period.
	Submit(ctx context.Context, groupID string, actor Actor, period int, amount int64) (*Contribution, bool, error)
	Confirm(ctx context.Context, groupID, contributionID string, actor Actor) (*Contribution, error)
	Reject(ctx context.Context, groupID, contributionID string, actor Actor) (*Contribution, error)
	List(ctx context.Context, groupID string, period int) ([]*Contribution, error)
}
