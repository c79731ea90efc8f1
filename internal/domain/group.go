package domain

import (
	"context"
	"time"
)

// GroupState is the lifecycle state of a savings circle.
type GroupState string

const (
	GroupStateForming  GroupState = "forming"
	GroupStateFull     GroupState = "full"
	GroupStateRunning  GroupState = "running"
	GroupStateComplete GroupState = "complete"
)

// Valid reports whether s is one of the known states.
func (s GroupState) Valid() bool {
	switch s {
	case GroupStateForming, GroupStateFull, GroupStateRunning, GroupStateComplete:
		return true
	}
	return false
}

// Drawn reports whether positions are expected to be assigned in this state.
func (s GroupState) Drawn() bool {
	return s == GroupStateRunning || s == GroupStateComplete
}

// Group is a savings circle ("tanda"). CurrentTurn is 0 before the draw and
// stays within [1, Duration] afterwards.
// swagger:model Group
type Group struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Duration           int        `json:"duration"`
	ContributionAmount int64      `json:"contribution_amount"`
	Currency           string     `json:"currency"`
	ProductRef         string     `json:"product_ref,omitempty"`
	State              GroupState `json:"state"`
	CurrentTurn        int        `json:"current_turn"`
	DrawSeed           string     `json:"-"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	EndedAt            *time.Time `json:"ended_at,omitempty"`
	CreatedBy          string     `json:"created_by"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// NewGroup returns a group in the forming state. ID is typically set by the repository on create.
func NewGroup(name string, duration int, amount int64, currency, productRef, createdBy string, now time.Time) *Group {
	return &Group{
		Name:               name,
		Duration:           duration,
		ContributionAmount: amount,
		Currency:           currency,
		ProductRef:         productRef,
		State:              GroupStateForming,
		CreatedBy:          createdBy,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// Clone returns a deep copy of g.
func (g *Group) Clone() *Group {
	if g == nil {
		return nil
	}
	c := *g
	if g.StartedAt != nil {
		t := *g.StartedAt
		c.StartedAt = &t
	}
	if g.EndedAt != nil {
		t := *g.EndedAt
		c.EndedAt = &t
	}
	return &c
}

// GroupSnapshot is the current state of a group as seen by viewers and the broker's catch-up path.
// swagger:model GroupSnapshot
type GroupSnapshot struct {
	Group       *Group        `json:"group"`
	Memberships []*Membership `json:"memberships"`
	Draw        *DrawResult   `json:"draw,omitempty"`
}

// HasMember reports whether userID holds a membership in the snapshot.
func (s *GroupSnapshot) HasMember(userID string) bool {
	for _, m := range s.Memberships {
		if m.MemberID == userID {
			return true
		}
	}
	return false
}

// TurnOutcome is the result of advancing a turn.
// swagger:model TurnOutcome
type TurnOutcome struct {
	Group    *Group    `json:"group"`
	Delivery *Delivery `json:"delivery"`
}

// GroupRepository is the durable store for groups and their records. Each
// method is a single statement; multi-row mutations go through GroupStore.Atomically.
type GroupRepository interface {
	CreateGroup(ctx context.Context, g *Group) error
	LoadGroup(ctx context.Context, id string) (*Group, error)
	SaveGroup(ctx context.Context, g *Group) error

	LoadMemberships(ctx context.Context, groupID string) ([]*Membership, error)
	AddMembership(ctx context.Context, m *Membership) error
	// SaveMemberships writes the assigned positions. It fails with ErrDrawAlreadyPerformed
	// if any membership already holds a position.
	SaveMemberships(ctx context.Context, memberships []*Membership) error

	CreateContribution(ctx context.Context, c *Contribution) error
	LoadContribution(ctx context.Context, id string) (*Contribution, error)
	// LoadContributions lists contributions for the group; period 0 means every period.
	LoadContributions(ctx context.Context, groupID string, period int) ([]*Contribution, error)
	SaveContribution(ctx context.Context, c *Contribution) error

	SaveDelivery(ctx context.Context, d *Delivery) error
	ListDeliveries(ctx context.Context, groupID string) ([]*Delivery, error)
}

// GroupStore adds atomic read-modify-write on top of GroupRepository.
type GroupStore interface {
	GroupRepository
	// Atomically runs fn against a transactional view of the store. Nothing fn
	// writes is visible to other callers unless fn returns nil.
	Atomically(ctx context.Context, fn func(repo GroupRepository) error) error
}

// EventPublisher delivers lifecycle events to viewers of a group. Publish must not block on subscribers.
type EventPublisher interface {
	Publish(groupID string, ev Event)
}

// SnapshotProvider returns the persisted state of a group.
type SnapshotProvider interface {
	CurrentState(ctx context.Context, groupID string) (*GroupSnapshot, error)
}

// LifecycleService owns the group state machine.
type LifecycleService interface {
	SnapshotProvider
	CreateGroup(ctx context.Context, actor Actor, g *Group) error
	// Fill moves a forming group to full once its membership count equals its duration.
	Fill(ctx context.Context, groupID string) (*Group, error)
	// TriggerDraw assigns positions once. Returns (draw, performed, err): performed is false
	// when the draw had already been performed and the stored result is returned.
	TriggerDraw(ctx context.Context, groupID string, actor Actor) (*DrawResult, bool, error)
	AdvanceTurn(ctx context.Context, groupID string, actor Actor) (*TurnOutcome, error)
	ListDeliveries(ctx context.Context, groupID string) ([]*Delivery, error)
}
