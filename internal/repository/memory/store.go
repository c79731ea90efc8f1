// Package memory is an in-process GroupStore for development and tests.
// Transactions buffer their writes and apply them under one lock at commit.
package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"savingscircle/internal/domain"
)

type Store struct {
	mu            sync.RWMutex
	groups        map[string]*domain.Group
	memberships   map[string][]*domain.Membership
	contributions map[string]*domain.Contribution
	contribOrder  []string
	deliveries    map[string][]*domain.Delivery
	newID         func() string
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		groups:        make(map[string]*domain.Group),
		memberships:   make(map[string][]*domain.Membership),
		contributions: make(map[string]*domain.Contribution),
		deliveries:    make(map[string][]*domain.Delivery),
		newID:         uuid.NewString,
	}
}

var _ domain.GroupStore = (*Store)(nil)

// Atomically runs fn against a buffered view and commits its writes only if fn returns nil.
func (s *Store) Atomically(ctx context.Context, fn func(repo domain.GroupRepository) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t := newTx(s)
	if err := fn(t); err != nil {
		return err
	}
	return t.commit()
}

func (s *Store) CreateGroup(ctx context.Context, g *domain.Group) error {
	return s.Atomically(ctx, func(r domain.GroupRepository) error { return r.CreateGroup(ctx, g) })
}

func (s *Store) LoadGroup(ctx context.Context, id string) (*domain.Group, error) {
	return newTx(s).LoadGroup(ctx, id)
}

func (s *Store) SaveGroup(ctx context.Context, g *domain.Group) error {
	return s.Atomically(ctx, func(r domain.GroupRepository) error { return r.SaveGroup(ctx, g) })
}

func (s *Store) LoadMemberships(ctx context.Context, groupID string) ([]*domain.Membership, error) {
	return newTx(s).LoadMemberships(ctx, groupID)
}

func (s *Store) AddMembership(ctx context.Context, m *domain.Membership) error {
	return s.Atomically(ctx, func(r domain.GroupRepository) error { return r.AddMembership(ctx, m) })
}

func (s *Store) SaveMemberships(ctx context.Context, ms []*domain.Membership) error {
	return s.Atomically(ctx, func(r domain.GroupRepository) error { return r.SaveMemberships(ctx, ms) })
}

func (s *Store) CreateContribution(ctx context.Context, c *domain.Contribution) error {
	return s.Atomically(ctx, func(r domain.GroupRepository) error { return r.CreateContribution(ctx, c) })
}

func (s *Store) LoadContribution(ctx context.Context, id string) (*domain.Contribution, error) {
	return newTx(s).LoadContribution(ctx, id)
}

func (s *Store) LoadContributions(ctx context.Context, groupID string, period int) ([]*domain.Contribution, error) {
	return newTx(s).LoadContributions(ctx, groupID, period)
}

func (s *Store) SaveContribution(ctx context.Context, c *domain.Contribution) error {
	return s.Atomically(ctx, func(r domain.GroupRepository) error { return r.SaveContribution(ctx, c) })
}

func (s *Store) SaveDelivery(ctx context.Context, d *domain.Delivery) error {
	return s.Atomically(ctx, func(r domain.GroupRepository) error { return r.SaveDelivery(ctx, d) })
}

func (s *Store) ListDeliveries(ctx context.Context, groupID string) ([]*domain.Delivery, error) {
	return newTx(s).ListDeliveries(ctx, groupID)
}
