package domain

import (
	"context"
	"time"
)

// Membership links a member to a group. Position is nil until the draw.
// swagger:model Membership
type Membership struct {
	GroupID     string    `json:"group_id"`
	MemberID    string    `json:"member_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"-"`
	Position    *int      `json:"position,omitempty"`
	Currency    string    `json:"currency"`
	JoinedAt    time.Time `json:"joined_at"`
}

// NewMembership returns a membership without a position.
func NewMembership(groupID, memberID, displayName, email, currency string, joinedAt time.Time) *Membership {
	return &Membership{
		GroupID:     groupID,
		MemberID:    memberID,
		DisplayName: displayName,
		Email:       email,
		Currency:    currency,
		JoinedAt:    joinedAt,
	}
}

// Clone returns a deep copy of m.
func (m *Membership) Clone() *Membership {
	if m == nil {
		return nil
	}
	c := *m
	if m.Position != nil {
		p := *m.Position
		c.Position = &p
	}
	return &c
}

// PositionsAssigned reports whether any membership holds a position.
func PositionsAssigned(memberships []*Membership) bool {
	for _, m := range memberships {
		if m.Position != nil {
			return true
		}
	}
	return false
}

// HolderOf returns the membership holding position, or nil.
func HolderOf(memberships []*Membership, position int) *Membership {
	for _, m := range memberships {
		if m.Position != nil && *m.Position == position {
			return m
		}
	}
	return nil
}

// MembershipService handles members joining a forming group.
type MembershipService interface {
	// Join adds the actor to the group. Returns (membership, created, err): created is false
	// when the actor was already a member. The join that completes the group fills it.
	Join(ctx context.Context, groupID string, actor Actor, displayName, currency string) (*Membership, bool, error)
}
