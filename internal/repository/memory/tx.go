package memory

import (
	"context"
	"fmt"
	"sort"

	"savingscircle/internal/domain"
)

type memberKey struct {
	groupID  string
	memberID string
}

// tx buffers writes on top of the store. Reads see the store plus the buffer.
type tx struct {
	s             *Store
	groups        map[string]*domain.Group
	memberships   []*domain.Membership
	positions     map[memberKey]int
	contributions map[string]*domain.Contribution
	newContribs   []string
	deliveries    []*domain.Delivery
}

func newTx(s *Store) *tx {
	return &tx{
		s:             s,
		groups:        make(map[string]*domain.Group),
		positions:     make(map[memberKey]int),
		contributions: make(map[string]*domain.Contribution),
	}
}

func (t *tx) CreateGroup(_ context.Context, g *domain.Group) error {
	g.ID = t.s.newID()
	t.groups[g.ID] = g.Clone()
	return nil
}

func (t *tx) LoadGroup(_ context.Context, id string) (*domain.Group, error) {
	if g, ok := t.groups[id]; ok {
		return g.Clone(), nil
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	g, ok := t.s.groups[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return g.Clone(), nil
}

func (t *tx) SaveGroup(ctx context.Context, g *domain.Group) error {
	if _, err := t.LoadGroup(ctx, g.ID); err != nil {
		return err
	}
	t.groups[g.ID] = g.Clone()
	return nil
}

func (t *tx) LoadMemberships(_ context.Context, groupID string) ([]*domain.Membership, error) {
	t.s.mu.RLock()
	out := make([]*domain.Membership, 0, len(t.s.memberships[groupID]))
	for _, m := range t.s.memberships[groupID] {
		out = append(out, m.Clone())
	}
	t.s.mu.RUnlock()
	for _, m := range t.memberships {
		if m.GroupID == groupID {
			out = append(out, m.Clone())
		}
	}
	for _, m := range out {
		if p, ok := t.positions[memberKey{groupID, m.MemberID}]; ok {
			m.Position = &p
		}
	}
	return out, nil
}

func (t *tx) AddMembership(ctx context.Context, m *domain.Membership) error {
	if _, err := t.LoadGroup(ctx, m.GroupID); err != nil {
		return err
	}
	current, err := t.LoadMemberships(ctx, m.GroupID)
	if err != nil {
		return err
	}
	for _, existing := range current {
		if existing.MemberID == m.MemberID {
			return domain.ErrAlreadyMember
		}
	}
	c := m.Clone()
	c.Position = nil
	t.memberships = append(t.memberships, c)
	return nil
}

func (t *tx) SaveMemberships(ctx context.Context, ms []*domain.Membership) error {
	if len(ms) == 0 {
		return nil
	}
	groupID := ms[0].GroupID
	current, err := t.LoadMemberships(ctx, groupID)
	if err != nil {
		return err
	}
	byMember := make(map[string]*domain.Membership, len(current))
	for _, m := range current {
		byMember[m.MemberID] = m
	}
	staged := make(map[memberKey]int, len(ms))
	for _, m := range ms {
		if m.GroupID != groupID {
			return fmt.Errorf("%w: memberships span groups", domain.ErrInvalidInput)
		}
		cur, ok := byMember[m.MemberID]
		if !ok {
			return domain.ErrNotFound
		}
		if m.Position == nil {
			continue
		}
		if cur.Position != nil {
			return domain.ErrDrawAlreadyPerformed
		}
		staged[memberKey{groupID, m.MemberID}] = *m.Position
	}
	seen := make(map[int]bool)
	for _, m := range current {
		p, ok := staged[memberKey{groupID, m.MemberID}]
		if !ok {
			if m.Position == nil {
				continue
			}
			p = *m.Position
		}
		if seen[p] {
			return fmt.Errorf("%w: duplicate position %d", domain.ErrInvalidInput, p)
		}
		seen[p] = true
	}
	for k, p := range staged {
		t.positions[k] = p
	}
	return nil
}

func (t *tx) CreateContribution(_ context.Context, c *domain.Contribution) error {
	c.ID = t.s.newID()
	t.contributions[c.ID] = c.Clone()
	t.newContribs = append(t.newContribs, c.ID)
	return nil
}

func (t *tx) LoadContribution(_ context.Context, id string) (*domain.Contribution, error) {
	if c, ok := t.contributions[id]; ok {
		return c.Clone(), nil
	}
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	c, ok := t.s.contributions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c.Clone(), nil
}

func (t *tx) LoadContributions(_ context.Context, groupID string, period int) ([]*domain.Contribution, error) {
	t.s.mu.RLock()
	ids := make([]string, 0, len(t.s.contribOrder)+len(t.newContribs))
	ids = append(ids, t.s.contribOrder...)
	base := make(map[string]*domain.Contribution, len(t.s.contribOrder))
	for _, id := range t.s.contribOrder {
		base[id] = t.s.contributions[id]
	}
	t.s.mu.RUnlock()
	ids = append(ids, t.newContribs...)

	var out []*domain.Contribution
	for _, id := range ids {
		c, ok := t.contributions[id]
		if !ok {
			c = base[id]
		}
		if c == nil || c.GroupID != groupID {
			continue
		}
		if period != 0 && c.Period != period {
			continue
		}
		out = append(out, c.Clone())
	}
	return out, nil
}

func (t *tx) SaveContribution(ctx context.Context, c *domain.Contribution) error {
	if _, err := t.LoadContribution(ctx, c.ID); err != nil {
		return err
	}
	t.contributions[c.ID] = c.Clone()
	return nil
}

func (t *tx) SaveDelivery(ctx context.Context, d *domain.Delivery) error {
	existing, err := t.ListDeliveries(ctx, d.GroupID)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.Period == d.Period {
			return domain.ErrDeliveryExists
		}
	}
	d.ID = t.s.newID()
	t.deliveries = append(t.deliveries, d.Clone())
	return nil
}

func (t *tx) ListDeliveries(_ context.Context, groupID string) ([]*domain.Delivery, error) {
	t.s.mu.RLock()
	out := make([]*domain.Delivery, 0, len(t.s.deliveries[groupID]))
	for _, d := range t.s.deliveries[groupID] {
		out = append(out, d.Clone())
	}
	t.s.mu.RUnlock()
	for _, d := range t.deliveries {
		if d.GroupID == groupID {
			out = append(out, d.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period < out[j].Period })
	return out, nil
}

// commit re-checks the uniqueness rules against the latest store state and applies the buffer.
func (t *tx) commit() error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range t.memberships {
		for _, existing := range s.memberships[m.GroupID] {
			if existing.MemberID == m.MemberID {
				return domain.ErrAlreadyMember
			}
		}
	}
	for k := range t.positions {
		for _, existing := range s.memberships[k.groupID] {
			if existing.MemberID == k.memberID && existing.Position != nil {
				return domain.ErrDrawAlreadyPerformed
			}
		}
	}
	for _, d := range t.deliveries {
		for _, existing := range s.deliveries[d.GroupID] {
			if existing.Period == d.Period {
				return domain.ErrDeliveryExists
			}
		}
	}

	for id, g := range t.groups {
		s.groups[id] = g
	}
	for _, m := range t.memberships {
		s.memberships[m.GroupID] = append(s.memberships[m.GroupID], m)
	}
	for k, p := range t.positions {
		for _, m := range s.memberships[k.groupID] {
			if m.MemberID == k.memberID {
				pos := p
				m.Position = &pos
			}
		}
	}
	for id, c := range t.contributions {
		s.contributions[id] = c
	}
	s.contribOrder = append(s.contribOrder, t.newContribs...)
	for _, d := range t.deliveries {
		s.deliveries[d.GroupID] = append(s.deliveries[d.GroupID], d)
	}
	return nil
}
